// Package batch walks an orders root and uploads every order that is recent,
// scanned, unlocked, new to the server and qualified.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/domain/order"
	"github.com/rpggio/expressup/internal/express"
)

// DefaultReservedDir is the staging directory the acquisition tool keeps next to orders.
const DefaultReservedDir = "ManufacturingDir"

// step is the loop decision after handling one item.
type step int

const (
	stepContinue step = iota
	stepSkip
	stepStop
)

// Service owns the working set of one orders root. It is driven from a single
// goroutine; only the context may be cancelled from elsewhere.
type Service struct {
	remote      Remote
	selector    Selector
	journal     Journal
	logger      *slog.Logger
	now         func() time.Time
	reservedDir string

	runID   string
	items   []*Item
	summary Summary
}

// Option configures a Service.
type Option func(*Service)

// WithJournal records each order outcome.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithClock overrides the time source for the lookback cutoff.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReservedDir changes the directory name skipped during scans.
func WithReservedDir(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.reservedDir = name
		}
	}
}

// NewService creates an orchestrator.
func NewService(remote Remote, selector Selector, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		remote:      remote,
		selector:    selector,
		logger:      logger,
		now:         time.Now,
		reservedDir: DefaultReservedDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunID identifies the current working set in the journal.
func (s *Service) RunID() string {
	return s.runID
}

// Items returns the working set from the last scan.
func (s *Service) Items() []Item {
	out := make([]Item, len(s.items))
	for i, item := range s.items {
		out[i] = *item
	}
	return out
}

// Summary returns the counters of the current working set.
func (s *Service) Summary() Summary {
	return s.summary
}

// Run scans root and uploads what was selected.
func (s *Service) Run(ctx context.Context, root string, lookback time.Duration) (*Summary, error) {
	if _, err := s.Scan(ctx, root, lookback); err != nil {
		return &s.summary, err
	}
	return s.UploadSelected(ctx)
}

// Scan rebuilds the working set from the directory root on disk.
func (s *Service) Scan(ctx context.Context, root string, lookback time.Duration) (*Summary, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	return s.ScanFS(ctx, osfs.New(root), lookback)
}

// ScanFS rebuilds the working set from the top level of fs. Remote calls made
// for an order run to completion; cancellation is only observed between orders.
func (s *Service) ScanFS(ctx context.Context, fs billy.Filesystem, lookback time.Duration) (*Summary, error) {
	entries, err := fs.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRootNotFound, err)
	}
	slices.SortFunc(entries, func(a, b os.FileInfo) int { return strings.Compare(a.Name(), b.Name()) })

	s.runID = uuid.NewString()
	s.items = nil
	s.summary = Summary{}
	cutoff := s.now().UTC().Add(-lookback)
	logger := s.logger.With("run_id", s.runID)
	logger.Info("scanning orders", "entries", len(entries), "cutoff", cutoff)

	for _, entry := range entries {
		if ctx.Err() != nil {
			logger.Info("scan cancelled", "summary", s.summary.String())
			return &s.summary, ErrCancelled
		}
		if !entry.IsDir() || entry.Name() == s.reservedDir {
			continue
		}
		h, ok := order.Validate(fs, entry.Name())
		if !ok {
			continue
		}
		s.summary.InDirectory++

		if !h.StatusInfo().Eligible(cutoff) {
			continue
		}
		s.summary.CreatedInPeriod++

		item := &Item{OrderID: h.OrderID(), Handler: h}
		s.items = append(s.items, item)
		s.examine(context.WithoutCancel(ctx), item)
	}

	logger.Info("scan complete", "summary", s.summary.String())
	return &s.summary, nil
}

// examine runs status, selection and qualification for one order.
func (s *Service) examine(ctx context.Context, item *Item) {
	logger := s.logger.With("run_id", s.runID, "order_id", item.OrderID)

	records, err := s.remote.GetStatus(ctx, item.OrderID)
	if err != nil {
		s.fail(ctx, item, fmt.Errorf("checking status: %w", err))
		return
	}
	if len(records) > 0 {
		s.summary.UploadedBefore++
		s.mark(ctx, item, StateUploadedBefore, journal.OutcomeUploadedBefore,
			express.Describe(records[len(records)-1], time.Local))
		return
	}

	outcome, err := s.selector.Select(ctx, item.Handler)
	if err != nil {
		s.fail(ctx, item, fmt.Errorf("selecting files: %w", err))
		return
	}
	if !outcome.Recognized() {
		s.summary.NotQualified++
		s.mark(ctx, item, StateNotQualified, journal.OutcomeNotQualified, "order not recognized")
		return
	}

	reason, err := s.qualify(ctx, item.Handler, outcome)
	if err != nil {
		s.fail(ctx, item, err)
		return
	}
	if reason != "" {
		s.summary.NotQualified++
		s.mark(ctx, item, StateNotQualified, journal.OutcomeNotQualified, reason)
		return
	}

	item.Outcome = outcome
	s.summary.Qualified++
	s.summary.Selected++
	s.mark(ctx, item, StateSelected, journal.OutcomeSelected, "")
	logger.Debug("order selected", "kind", outcome.Kind, "files", len(outcome.Paths))
}

func (s *Service) qualify(ctx context.Context, h *order.Handler, outcome *order.FilterOutcome) (string, error) {
	orderFile, ok := h.OpenFile(outcome.OrderPath)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrOrderFileMissing, outcome.OrderPath)
	}
	defer orderFile.Close()

	var reason string
	var err error
	if designFile, ok := h.OpenFile(outcome.DesignPath); ok {
		defer designFile.Close()
		reason, err = s.remote.Qualify(ctx, outcome, orderFile, designFile)
	} else {
		reason, err = s.remote.Qualify(ctx, outcome, orderFile, nil)
	}
	if err != nil {
		return "", fmt.Errorf("qualifying: %w", err)
	}
	return reason, nil
}

// UploadSelected uploads every pending item in scan order. It stops at the first
// cancellation and returns ErrCancelled; items not reached stay pending for a
// later call. Other failures are recorded on the item and the pass continues.
func (s *Service) UploadSelected(ctx context.Context) (*Summary, error) {
	logger := s.logger.With("run_id", s.runID)
	for _, item := range s.items {
		switch s.uploadStep(ctx, item) {
		case stepStop:
			logger.Info("uploads cancelled", "summary", s.summary.String())
			return &s.summary, ErrCancelled
		case stepSkip, stepContinue:
		}
	}
	logger.Info("uploads complete", "summary", s.summary.String())
	return &s.summary, nil
}

func (s *Service) uploadStep(ctx context.Context, item *Item) step {
	if ctx.Err() != nil {
		return stepStop
	}
	if !item.pending() {
		return stepSkip
	}
	// A retried failure is counted again only if it fails again.
	if item.State == StateFailed {
		s.summary.Failed--
	}

	err := s.upload(ctx, item.Handler, item.Outcome)
	bg := context.WithoutCancel(ctx)
	switch {
	case err == nil:
		item.Err = nil
		s.summary.UploadedNow++
		s.mark(bg, item, StateUploaded, journal.OutcomeUploaded, "uploaded")
		return stepContinue
	case errors.Is(err, express.ErrUploadCancelled) || ctx.Err() != nil:
		item.Err = err
		s.mark(bg, item, StateCancelled, journal.OutcomeCancelled, "upload cancelled")
		return stepStop
	default:
		s.fail(bg, item, err)
		return stepContinue
	}
}

func (s *Service) upload(ctx context.Context, h *order.Handler, outcome *order.FilterOutcome) error {
	archive, err := h.BuildArchive(outcome.Paths)
	if err != nil {
		return fmt.Errorf("building archive: %w", err)
	}
	s.logger.Info("uploading order", "run_id", s.runID, "order_id", h.OrderID(), "bytes", archive.Size())
	if err := s.remote.Upload(ctx, h.ArchiveName(), archive); err != nil {
		return fmt.Errorf("uploading: %w", err)
	}
	return nil
}

func (s *Service) fail(ctx context.Context, item *Item, err error) {
	item.Err = err
	s.summary.Failed++
	s.logger.Warn("order failed", "run_id", s.runID, "order_id", item.OrderID, "error", err)
	s.mark(ctx, item, StateFailed, journal.OutcomeFailed, err.Error())
}

func (s *Service) mark(ctx context.Context, item *Item, state ItemState, outcome journal.Outcome, message string) {
	item.State = state
	item.Message = message
	if s.journal == nil {
		return
	}
	entry := &journal.Entry{RunID: s.runID, OrderID: item.OrderID, Outcome: outcome, Message: message}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Warn("journal write failed", "run_id", s.runID, "order_id", item.OrderID, "error", err)
	}
}
