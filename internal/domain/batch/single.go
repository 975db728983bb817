package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/domain/order"
	"github.com/rpggio/expressup/internal/express"
)

const multipleUploadsMessage = "This order has been uploaded multiple times. For details, please go to the web site."

// HandleSingle checks one order directory on disk and, when it is new and
// qualifies, uploads it if autoUpload is set.
func (s *Service) HandleSingle(ctx context.Context, dir string, autoUpload bool) (*SingleResult, error) {
	h, ok := order.ValidateDir(dir)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAnOrder, dir)
	}
	return s.HandleOrder(ctx, h, autoUpload)
}

// HandleOrder is HandleSingle for an already validated order. Lifecycle fields
// are not consulted: the operator picked this order explicitly.
func (s *Service) HandleOrder(ctx context.Context, h *order.Handler, autoUpload bool) (*SingleResult, error) {
	result := &SingleResult{OrderID: h.OrderID()}
	logger := s.logger.With("order_id", h.OrderID())

	records, err := s.remote.GetStatus(ctx, h.OrderID())
	if err != nil {
		return nil, fmt.Errorf("checking status of %s: %w", h.OrderID(), err)
	}
	switch {
	case len(records) > 1:
		result.State = SingleMultiple
		result.Message = multipleUploadsMessage
		return result, nil
	case len(records) == 1:
		rec := records[0]
		result.State = SingleKnown
		result.Record = &rec
		result.Message = express.Describe(rec, time.Local)
		return result, nil
	}

	outcome, err := s.selector.Select(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("selecting files of %s: %w", h.OrderID(), err)
	}
	if !outcome.Recognized() {
		result.State = SingleNotQualified
		result.Message = "Order is not recognized by the design service."
		return result, nil
	}
	result.Outcome = outcome

	reason, err := s.qualify(ctx, h, outcome)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", h.OrderID(), err)
	}
	if reason != "" {
		result.State = SingleNotQualified
		result.Message = reason
		return result, nil
	}

	if !autoUpload {
		result.State = SingleReady
		result.Message = "Order is new and qualifies for upload."
		return result, nil
	}
	if err := s.UploadOrder(ctx, h, outcome); err != nil {
		return nil, err
	}
	logger.Info("order sent for design")
	result.State = SingleUploaded
	result.Message = "Sent for design."
	return result, nil
}

// UploadOrder archives and uploads one order outside of a batch pass.
func (s *Service) UploadOrder(ctx context.Context, h *order.Handler, outcome *order.FilterOutcome) error {
	if !outcome.Recognized() {
		return fmt.Errorf("uploading %s: outcome not recognized", h.OrderID())
	}
	err := s.upload(ctx, h, outcome)
	if s.journal != nil {
		entry := &journal.Entry{RunID: uuid.NewString(), OrderID: h.OrderID(), Outcome: journal.OutcomeUploaded}
		if err != nil {
			entry.Outcome, entry.Message = journal.OutcomeFailed, err.Error()
			if ctx.Err() != nil {
				entry.Outcome = journal.OutcomeCancelled
			}
		}
		if jerr := s.journal.Record(context.WithoutCancel(ctx), entry); jerr != nil {
			s.logger.Warn("journal write failed", "order_id", h.OrderID(), "error", jerr)
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		return fmt.Errorf("order %s: %w", h.OrderID(), err)
	}
	return nil
}
