package batch

import (
	"context"
	"io"

	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/domain/order"
	"github.com/rpggio/expressup/internal/express"
)

// Remote is the part of the Express session the orchestrator drives.
type Remote interface {
	GetStatus(ctx context.Context, orderID string) ([]express.StatusRecord, error)
	Qualify(ctx context.Context, outcome *order.FilterOutcome, orderFile, designFile io.Reader) (string, error)
	Upload(ctx context.Context, name string, archive io.Reader) error
}

// Filterer negotiates file selection with the server.
type Filterer interface {
	Filter(ctx context.Context, paths []string) (*order.FilterOutcome, error)
}

// Selector decides which files of an order travel. A nil outcome means the
// order is not recognized.
type Selector interface {
	Select(ctx context.Context, h *order.Handler) (*order.FilterOutcome, error)
}

// Journal records per-order outcomes.
type Journal interface {
	Record(ctx context.Context, entry *journal.Entry) error
}
