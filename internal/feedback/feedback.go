// Package feedback defines the review feedback schema and the defensive
// parser that recovers it from free-form model output.
package feedback

// Severity levels accepted from the model.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Item is one piece of review feedback. The id is synthesized post-parse;
// ids supplied by the model are never trusted. NodeID is an unverified
// claim about a live node id and may be absent, stale, or a compound
// instance-chain string; the resolver deals with all three.
type Item struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Location    string `json:"location,omitempty"`
	NodeID      string `json:"nodeId,omitempty"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// Summary is the post-parse distribution report. OffCategory counts items
// whose category falls outside the session's allowed set; such items are
// counted, not dropped (soft enforcement).
type Summary struct {
	Total       int            `json:"total"`
	BySeverity  map[string]int `json:"bySeverity"`
	ByCategory  map[string]int `json:"byCategory"`
	OffCategory int            `json:"offCategory"`
}

// Summarize computes the severity/category distribution for a parsed batch.
func Summarize(items []Item, allowed []string) Summary {
	allowedSet := make(map[string]bool, len(allowed))
	for _, c := range allowed {
		allowedSet[c] = true
	}

	s := Summary{
		Total:      len(items),
		BySeverity: make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, it := range items {
		s.BySeverity[it.Severity]++
		s.ByCategory[it.Category]++
		if len(allowedSet) > 0 && !allowedSet[it.Category] {
			s.OffCategory++
		}
	}
	return s
}
