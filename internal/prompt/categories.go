package prompt

import "strings"

// Category ids the pipeline knows about. The prompt restricts the model to
// the session's allowed set; the parser only soft-enforces it downstream.
const (
	CategoryUX            = "ux"
	CategoryVisual        = "visual"
	CategoryAccessibility = "accessibility"
	CategoryContent       = "content"
	CategoryConsistency   = "consistency"
	CategoryLayout        = "layout"
	CategoryInteraction   = "interaction"
)

// DefaultCategories is the baseline set used when neither the request nor
// the free-text instructions restrict the review.
var DefaultCategories = []string{
	CategoryUX,
	CategoryVisual,
	CategoryAccessibility,
	CategoryContent,
}

// labelToID maps human category labels (as typed in free-text
// instructions or shown in the checkbox UI) onto category ids. Lookup is
// case-insensitive; unrecognized labels pass through lower-cased as their
// own id.
var labelToID = map[string]string{
	"ux":                 CategoryUX,
	"usability":          CategoryUX,
	"user experience":    CategoryUX,
	"visual":             CategoryVisual,
	"visual design":      CategoryVisual,
	"aesthetics":         CategoryVisual,
	"accessibility":      CategoryAccessibility,
	"a11y":               CategoryAccessibility,
	"content":            CategoryContent,
	"copy":               CategoryContent,
	"writing":            CategoryContent,
	"text":               CategoryContent,
	"typos":              CategoryContent,
	"consistency":        CategoryConsistency,
	"cross-screen":       CategoryConsistency,
	"layout":             CategoryLayout,
	"spacing":            CategoryLayout,
	"alignment":          CategoryLayout,
	"interaction":        CategoryInteraction,
	"interaction design": CategoryInteraction,
}

// categoryTriggers are the phrases that, when found in free-text
// instructions, introduce an explicit category list. The same instruction
// text is reused for the checkbox UI and free-form prompts, so this parse
// is the only place a free-text restriction becomes machine-checkable.
var categoryTriggers = []string{
	"focus on",
	"only check",
	"categories:",
	"limit feedback to",
}

// ResolveCategories returns the effective category set for a session. If
// freeText names categories after a recognized trigger phrase, that list
// wins; otherwise requested is used when non-empty, falling back to
// DefaultCategories.
func ResolveCategories(requested []string, freeText string) []string {
	if cats := categoriesFromText(freeText); len(cats) > 0 {
		return cats
	}
	if len(requested) > 0 {
		out := make([]string, 0, len(requested))
		for _, r := range requested {
			out = append(out, mapLabel(r))
		}
		return dedupe(out)
	}
	return append([]string(nil), DefaultCategories...)
}

func categoriesFromText(text string) []string {
	lower := strings.ToLower(text)
	for _, trigger := range categoryTriggers {
		idx := strings.Index(lower, trigger)
		if idx < 0 {
			continue
		}
		rest := text[idx+len(trigger):]
		// The label list ends at a sentence boundary.
		if end := strings.IndexAny(rest, ".!?\n"); end >= 0 {
			rest = rest[:end]
		}
		// "a, b and c" lists are common in free text.
		rest = strings.ReplaceAll(rest, " and ", ",")
		var cats []string
		for _, label := range strings.Split(rest, ",") {
			label = strings.TrimSpace(strings.Trim(label, " \t:;"))
			if label == "" {
				continue
			}
			cats = append(cats, mapLabel(label))
		}
		if len(cats) > 0 {
			return dedupe(cats)
		}
	}
	return nil
}

func mapLabel(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if id, ok := labelToID[key]; ok {
		return id
	}
	return key
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, c := range in {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
