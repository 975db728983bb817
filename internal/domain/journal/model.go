package journal

import "time"

// Outcome is what happened to one order during a pass.
type Outcome string

const (
	OutcomeSelected       Outcome = "selected"
	OutcomeUploaded       Outcome = "uploaded"
	OutcomeUploadedBefore Outcome = "uploaded_before"
	OutcomeNotQualified   Outcome = "not_qualified"
	OutcomeFailed         Outcome = "failed"
	OutcomeCancelled      Outcome = "cancelled"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSelected, OutcomeUploaded, OutcomeUploadedBefore, OutcomeNotQualified, OutcomeFailed, OutcomeCancelled:
		return true
	}
	return false
}

// Entry records one order outcome within a run.
type Entry struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	OrderID   string    `json:"order_id"`
	Outcome   Outcome   `json:"outcome"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
