package express

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Status is the closed set of states an uploaded order can be in.
type Status int

const (
	StatusUnknown Status = iota
	StatusNew
	StatusInProgress
	StatusAccepted
	StatusRejected
	StatusFailed
	StatusForwarded
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusInProgress:
		return "in_progress"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusFailed:
		return "failed"
	case StatusForwarded:
		return "forwarded"
	default:
		return "unknown"
	}
}

// StatusRecord is one prior upload of an order as reported by the service.
type StatusRecord struct {
	ID          string     `json:"eid"`
	CreatedUTC  time.Time  `json:"createdUtc"`
	ReviewedUTC *time.Time `json:"reviewedUtc,omitempty"`
	Message     string     `json:"statusMessage,omitempty"`
	Code        *int       `json:"status,omitempty"`
	Decided     bool       `json:"isDecided"`
	Failed      bool       `json:"isFailed"`
	Viewable    bool       `json:"isViewable"`
	New         bool       `json:"isNew"`
	Forwarded   bool       `json:"isForwarded"`
}

type wireRecord struct {
	ID          string  `json:"eid"`
	CreatedUTC  string  `json:"createdUtc"`
	ReviewedUTC *string `json:"reviewedUtc"`
	Message     string  `json:"statusMessage"`
	Code        *int    `json:"status"`
	Decided     bool    `json:"isDecided"`
	Failed      bool    `json:"isFailed"`
	Viewable    bool    `json:"isViewable"`
	New         bool    `json:"isNew"`
	Forwarded   bool    `json:"isForwarded"`
}

// UnmarshalJSON accepts server timestamps with or without a zone; zoneless
// values are UTC.
func (r *StatusRecord) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	created, err := parseServerTime(w.CreatedUTC)
	if err != nil {
		return fmt.Errorf("createdUtc: %w", err)
	}
	*r = StatusRecord{
		ID:         w.ID,
		CreatedUTC: created,
		Message:    w.Message,
		Code:       w.Code,
		Decided:    w.Decided,
		Failed:     w.Failed,
		Viewable:   w.Viewable,
		New:        w.New,
		Forwarded:  w.Forwarded,
	}
	if w.ReviewedUTC != nil && *w.ReviewedUTC != "" {
		reviewed, err := parseServerTime(*w.ReviewedUTC)
		if err != nil {
			return fmt.Errorf("reviewedUtc: %w", err)
		}
		r.ReviewedUTC = &reviewed
	}
	return nil
}

var serverTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseServerTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range serverTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Classify maps a record to a Status, preferring the numeric code and falling
// back to the boolean flags.
func Classify(r StatusRecord) Status {
	if r.Code != nil {
		switch *r.Code {
		case 0, 3:
			return StatusNew
		case 1:
			return StatusAccepted
		case 2:
			return StatusRejected
		case 10:
			return StatusInProgress
		case -3, -2, -1, 11, 12:
			return StatusFailed
		case 20, 21, 22, 29:
			return StatusForwarded
		}
	}
	switch {
	case r.Failed:
		return StatusFailed
	case r.Forwarded:
		return StatusForwarded
	case r.New:
		return StatusNew
	}
	return StatusUnknown
}

// Reviewable reports whether the design can be opened on the Inspect page.
func Reviewable(r StatusRecord) bool {
	return r.ID != "" && Classify(r) == StatusNew
}

// Describe renders a record for a person. Review times are shown in loc.
func Describe(r StatusRecord, loc *time.Location) string {
	reviewed := "?"
	if r.ReviewedUTC != nil {
		if loc == nil {
			loc = time.Local
		}
		reviewed = r.ReviewedUTC.In(loc).Format("2006-01-02 15:04")
	}

	switch Classify(r) {
	case StatusNew:
		return "Design is ready for review on the web site."
	case StatusAccepted:
		return fmt.Sprintf("Design was accepted and downloaded at %s.", reviewed)
	case StatusRejected:
		return fmt.Sprintf("Design was rejected at %s.", reviewed)
	case StatusInProgress:
		return "Design is in progress."
	case StatusFailed:
		return "Design failed. See details on the web site."
	case StatusForwarded:
		return "Design was forwarded for manual processing."
	}
	if r.Code == nil {
		return "No status information for this order. Please go to the web site."
	}
	return "Unknown status information for this order. Please go to the web site."
}

// GetStatus lists prior uploads of orderID. An empty result means the order was
// never uploaded; any failure to find out is an error.
func (c *Client) GetStatus(ctx context.Context, orderID string) ([]StatusRecord, error) {
	resp, err := c.postForm(ctx, pathStatus, url.Values{"orderName": {orderID}})
	if err != nil {
		return nil, fmt.Errorf("getting status of %s: %w", orderID, err)
	}
	defer drain(resp)
	if !success(resp.StatusCode) {
		return nil, &StatusError{Op: "status", Code: resp.StatusCode}
	}
	if resp.StatusCode == http.StatusNoContent {
		return []StatusRecord{}, nil
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return []StatusRecord{}, nil
	}
	var records []StatusRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding status of %s: %w: %w", orderID, ErrMalformedResponse, err)
	}
	if records == nil {
		records = []StatusRecord{}
	}
	return records, nil
}
