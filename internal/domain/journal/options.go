package journal

// ListOptions filters journal listings.
type ListOptions struct {
	RunID   string
	OrderID string
	Outcome *Outcome
	Limit   int
	Offset  int
}
