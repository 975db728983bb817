package batch

import (
	"fmt"

	"github.com/rpggio/expressup/internal/domain/order"
	"github.com/rpggio/expressup/internal/express"
)

// ItemState is where an order stands in the working set.
type ItemState string

const (
	StateSelected       ItemState = "selected"
	StateUploaded       ItemState = "uploaded"
	StateFailed         ItemState = "failed"
	StateCancelled      ItemState = "cancelled"
	StateUploadedBefore ItemState = "uploaded_before"
	StateNotQualified   ItemState = "not_qualified"
)

// Item is one order that got past the time window during a scan.
type Item struct {
	OrderID string
	Handler *order.Handler
	Outcome *order.FilterOutcome
	State   ItemState
	Message string
	Err     error
}

// pending reports whether the upload pass should try the item.
func (i *Item) pending() bool {
	if i.Outcome == nil || i.Handler == nil {
		return false
	}
	switch i.State {
	case StateSelected, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Summary counts what one pass saw.
type Summary struct {
	InDirectory     int `json:"in_directory"`
	CreatedInPeriod int `json:"created_in_period"`
	UploadedBefore  int `json:"uploaded_before"`
	Qualified       int `json:"qualified"`
	NotQualified    int `json:"not_qualified"`
	Selected        int `json:"selected"`
	Failed          int `json:"failed"`
	UploadedNow     int `json:"uploaded_now"`
}

func (s Summary) String() string {
	return fmt.Sprintf("orders in directory: %d; created in period: %d; uploaded earlier: %d; qualifying now: %d; not qualifying: %d; selected: %d; failed: %d; uploaded now: %d",
		s.InDirectory, s.CreatedInPeriod, s.UploadedBefore, s.Qualified, s.NotQualified, s.Selected, s.Failed, s.UploadedNow)
}

// SingleState is the result of handling one order directory.
type SingleState string

const (
	SingleMultiple     SingleState = "multiple_uploads"
	SingleKnown        SingleState = "uploaded_before"
	SingleNotQualified SingleState = "not_qualified"
	SingleReady        SingleState = "ready"
	SingleUploaded     SingleState = "uploaded"
)

// SingleResult describes what HandleSingle found or did.
type SingleResult struct {
	OrderID string
	State   SingleState
	Message string
	Record  *express.StatusRecord
	Outcome *order.FilterOutcome
}
