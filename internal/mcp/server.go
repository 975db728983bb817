package mcp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/expressup/internal/domain/batch"
	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/express"
)

// BatchService defines the order operations exposed as tools.
type BatchService interface {
	Scan(ctx context.Context, root string, lookback time.Duration) (*batch.Summary, error)
	UploadSelected(ctx context.Context) (*batch.Summary, error)
	HandleSingle(ctx context.Context, dir string, autoUpload bool) (*batch.SingleResult, error)
	Items() []batch.Item
	RunID() string
}

// StatusService looks up what the design service knows about an order.
type StatusService interface {
	GetStatus(ctx context.Context, orderID string) ([]express.StatusRecord, error)
	InspectURL(id string) string
}

// JournalService lists recorded order outcomes.
type JournalService interface {
	Recent(ctx context.Context, opts journal.ListOptions) ([]journal.Entry, error)
}

// Services contains the domain services needed by MCP.
type Services struct {
	Batch   BatchService
	Status  StatusService
	Journal JournalService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	// RootDir is scanned when scan_orders gets no root.
	RootDir  string
	Lookback time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
	Location *time.Location
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = batch.DefaultLookbackHours * time.Hour
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "expressup",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, &tools{cfg: cfg})

	return server
}

// tools holds tool handler state. The batch working set is shared by every
// session, so batch tools run one at a time.
type tools struct {
	cfg   Config
	runMu sync.Mutex
}
