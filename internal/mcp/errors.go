package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/expressup/internal/domain/batch"
	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/express"
)

// APIError is the error text a tool call reports back to the host.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
	cause        error
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// MapError maps domain errors to tool error codes. Unknown errors pass through.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var statusErr *express.StatusError
	switch {
	case errors.Is(err, batch.ErrNotAnOrder):
		return &APIError{Code: "NOT_AN_ORDER", Message: err.Error(), RecoveryHint: "Pass a directory holding <name>/<name>.xml", cause: err}
	case errors.Is(err, batch.ErrRootNotFound):
		return &APIError{Code: "ROOT_NOT_FOUND", Message: err.Error(), RecoveryHint: "Check the orders root directory", cause: err}
	case errors.Is(err, batch.ErrInvalidLookback):
		return &APIError{Code: "INVALID_LOOKBACK", Message: err.Error(), RecoveryHint: "Use a non-negative number of hours", cause: err}
	case errors.Is(err, batch.ErrCancelled), errors.Is(err, express.ErrUploadCancelled):
		return &APIError{Code: "CANCELLED", Message: err.Error(), RecoveryHint: "Call upload_orders again to resume", cause: err}
	case errors.Is(err, journal.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), cause: err}
	case errors.As(err, &statusErr):
		return &APIError{Code: "SERVER_ERROR", Message: err.Error(), RecoveryHint: "Check the login session with the CLI", cause: err}
	default:
		return err
	}
}
