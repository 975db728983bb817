package batch

import (
	"context"
	"fmt"
	"slices"

	"github.com/rpggio/expressup/internal/domain/order"
)

// Selection names a file-selection strategy.
type Selection string

const (
	SelectionNegotiated Selection = "negotiated"
	SelectionLegacy     Selection = "legacy"
)

// RemoteSelector lets the server classify the order.
type RemoteSelector struct {
	filterer Filterer
}

// NewRemoteSelector creates a selector backed by the server's filter endpoint.
func NewRemoteSelector(f Filterer) *RemoteSelector {
	return &RemoteSelector{filterer: f}
}

// Select sends every file path of the order to the server.
func (s *RemoteSelector) Select(ctx context.Context, h *order.Handler) (*order.FilterOutcome, error) {
	outcome, err := s.filterer.Filter(ctx, slices.Collect(h.AllRelativePaths()))
	if err != nil {
		return nil, err
	}
	if !outcome.Recognized() {
		return nil, nil
	}
	return outcome, nil
}

// LegacySelector applies the fixed local suffix rule.
type LegacySelector struct{}

// Select never fails.
func (LegacySelector) Select(_ context.Context, h *order.Handler) (*order.FilterOutcome, error) {
	return order.LegacyOutcome(h), nil
}

// NewSelector returns the strategy for mode. Exactly one is active per deployment.
func NewSelector(mode Selection, f Filterer) (Selector, error) {
	switch mode {
	case SelectionNegotiated, "":
		if f == nil {
			return nil, fmt.Errorf("negotiated selection needs a filterer")
		}
		return NewRemoteSelector(f), nil
	case SelectionLegacy:
		return LegacySelector{}, nil
	}
	return nil, fmt.Errorf("unknown selection mode %q", mode)
}
