package order

import "time"

// StatusInfo holds the lifecycle fields read from an order descriptor.
type StatusInfo struct {
	CreatedUTC time.Time `json:"created_utc"`
	Scanned    bool      `json:"scanned"`
	Locked     bool      `json:"locked"`
}

// DefaultStatusInfo is reported when the descriptor is missing, malformed or partial.
func DefaultStatusInfo() StatusInfo {
	return StatusInfo{CreatedUTC: time.Unix(0, 0).UTC()}
}

// Eligible reports whether the order was created at or after cutoff, is scanned
// and is not checked out by the acquisition tool.
func (s StatusInfo) Eligible(cutoff time.Time) bool {
	return !s.CreatedUTC.Before(cutoff) && s.Scanned && !s.Locked
}

// FilterOutcome classifies which files of an order travel to the server.
// An empty Kind means the order was not recognized.
type FilterOutcome struct {
	Kind       string   `json:"kind"`
	OrderPath  string   `json:"orderPath"`
	DesignPath string   `json:"designPath,omitempty"`
	Paths      []string `json:"allPaths"`
}

// Recognized reports whether the outcome carries a classification.
func (o *FilterOutcome) Recognized() bool {
	return o != nil && o.Kind != ""
}
