package mcp

// Timestamps are RFC 3339 strings so the tool output schema stays plain.

type InspectOrderParams struct {
	Dir string `json:"dir" jsonschema:"absolute path of the order directory"`
}

type OrderInfo struct {
	OrderID     string   `json:"order_id"`
	OrderFile   string   `json:"order_file"`
	CreatedUTC  string   `json:"created_utc"`
	Scanned     bool     `json:"scanned"`
	Locked      bool     `json:"locked"`
	Eligible    bool     `json:"eligible"`
	Files       []string `json:"files"`
	LegacyFiles []string `json:"legacy_files"`
}

type GetOrderStatusParams struct {
	OrderID string `json:"order_id" jsonschema:"order name as known to the design service"`
}

type StatusEntry struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Description string `json:"description"`
	CreatedUTC  string `json:"created_utc,omitempty"`
	ReviewedUTC string `json:"reviewed_utc,omitempty"`
	InspectURL  string `json:"inspect_url,omitempty"`
}

type OrderStatusResponse struct {
	OrderID string        `json:"order_id"`
	Records []StatusEntry `json:"records"`
}

type ScanOrdersParams struct {
	Root          string   `json:"root,omitempty" jsonschema:"orders root directory, defaults to the configured root"`
	LookbackHours *float64 `json:"lookback_hours,omitempty" jsonschema:"only orders created within this many hours are considered"`
}

type UploadOrdersParams struct{}

type ItemEntry struct {
	OrderID string `json:"order_id"`
	State   string `json:"state"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

type SummaryResponse struct {
	InDirectory     int `json:"in_directory"`
	CreatedInPeriod int `json:"created_in_period"`
	UploadedBefore  int `json:"uploaded_before"`
	Qualified       int `json:"qualified"`
	NotQualified    int `json:"not_qualified"`
	Selected        int `json:"selected"`
	Failed          int `json:"failed"`
	UploadedNow     int `json:"uploaded_now"`
}

type BatchResponse struct {
	RunID   string          `json:"run_id"`
	Summary SummaryResponse `json:"summary"`
	Items   []ItemEntry     `json:"items"`
}

type HandleOrderParams struct {
	Dir    string `json:"dir" jsonschema:"absolute path of the order directory"`
	Upload bool   `json:"upload,omitempty" jsonschema:"upload the order when it is new and qualifies"`
}

type HandleOrderResponse struct {
	OrderID    string `json:"order_id"`
	State      string `json:"state"`
	Message    string `json:"message"`
	Kind       string `json:"kind,omitempty"`
	Status     string `json:"status,omitempty"`
	InspectURL string `json:"inspect_url,omitempty"`
}

type RecentActivityParams struct {
	RunID   string `json:"run_id,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Outcome string `json:"outcome,omitempty" jsonschema:"one of selected, uploaded, uploaded_before, not_qualified, failed, cancelled"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

type ActivityEntry struct {
	RunID     string `json:"run_id"`
	OrderID   string `json:"order_id"`
	Outcome   string `json:"outcome"`
	Message   string `json:"message,omitempty"`
	CreatedAt string `json:"created_at"`
}

type RecentActivityResponse struct {
	Entries []ActivityEntry `json:"entries"`
}
