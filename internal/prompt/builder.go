// Package prompt assembles the system and user prompts for a design
// review call and resolves the session's effective category set.
package prompt

import (
	"fmt"
	"strings"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/extract"
)

// Options configures one prompt build.
type Options struct {
	// Categories requested by the caller (checkbox UI). May be overridden
	// by a category list embedded in FreeText.
	Categories []string

	// IncludeSuggestions asks the model for an actionable suggestion per
	// item, which the auto-fix path later mines for concrete values.
	IncludeSuggestions bool

	// FreeText is the user's custom instruction, appended verbatim.
	FreeText string
}

// Prompt is the system+user pair sent to the model.
type Prompt struct {
	System string
	User   string

	// AllowedCategories is the resolved effective category set, recorded
	// so the parser and summary can check the model's output against it.
	AllowedCategories []string
}

const systemPreamble = `You are a senior product designer performing a design review of a Figma canvas.
You give precise, actionable feedback grounded in the exact elements you are shown.

Output rules (hard constraints):
- Respond with a single JSON array and NOTHING else. No prose, no markdown.
- Start your response with [ and end it with ].
- Each element: {"category","title","description","severity","location","nodeId","suggestion"}.
- "severity" is one of "low", "medium", "high".
- "nodeId" MUST be copied verbatim from a node id in the provided canvas data.
- Prefer the most specific (deepest) applicable node over its ancestors.
- Never put node ids or id-like tokens in "title", "description", or "location";
  those fields are read by humans.`

// minPerCategory..maxPerCategory is the per-category volume target emitted
// in the prompt. Without an explicit target the model under-serves
// categories with less salient content.
const (
	minPerCategory = 2
	maxPerCategory = 4
)

// Build assembles the prompt pair for one review session.
func Build(payload extract.CanvasPayload, opts Options) Prompt {
	allowed := ResolveCategories(opts.Categories, opts.FreeText)

	var sb strings.Builder

	sb.WriteString("## Canvas\n\n")
	fmt.Fprintf(&sb, "Reviewing %q (%d elements).\n", payload.Name, len(payload.Nodes))
	sb.WriteString("Each element: id | type | path | text.\n\n")
	for _, n := range payload.Nodes {
		fmt.Fprintf(&sb, "- %s | %s | %s", n.ID, n.Type, n.Path)
		if n.Text != "" {
			fmt.Fprintf(&sb, " | %q", n.Text)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Review scope\n\n")
	fmt.Fprintf(&sb, "Restrict feedback to these categories: %s.\n", strings.Join(allowed, ", "))
	fmt.Fprintf(&sb, "Aim for %d-%d items per category and at least %d items total.\n",
		minPerCategory, maxPerCategory, totalFloor(allowed))

	for _, block := range elaborations(allowed) {
		sb.WriteString("\n")
		sb.WriteString(block)
		sb.WriteString("\n")
	}

	if strings.TrimSpace(opts.FreeText) != "" {
		sb.WriteString("\n## Additional instructions\n\n")
		sb.WriteString(strings.TrimSpace(opts.FreeText))
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Output format\n\n")
	sb.WriteString("Return the JSON array now. Remember: start with [, end with ], no other text.\n")
	if opts.IncludeSuggestions {
		sb.WriteString("Every item must include a concrete \"suggestion\" with explicit values where possible (e.g. \"increase padding to 16px\").\n")
	} else {
		sb.WriteString("Omit the \"suggestion\" field.\n")
	}

	return Prompt{
		System:            systemPreamble,
		User:              sb.String(),
		AllowedCategories: allowed,
	}
}

func totalFloor(allowed []string) int {
	floor := 2 * len(allowed)
	if floor < 6 {
		floor = 6
	}
	return floor
}

// elaborations returns extra instruction blocks for categories that need
// them, only when the category is in the allowed set.
func elaborations(allowed []string) []string {
	var blocks []string
	for _, c := range allowed {
		switch c {
		case CategoryConsistency:
			blocks = append(blocks, `## Consistency review
Compare repeated elements across the canvas: buttons, headers, cards, spacing
scales, type styles. Flag any two elements that should look identical but do
not, naming both locations in the description.`)
		case CategoryContent:
			blocks = append(blocks, `## Writing review
Read every text element literally. Flag typos, grammar errors, inconsistent
capitalization or terminology, placeholder copy left in ("Lorem ipsum",
"TODO"), and truncation risks. Quote the offending text in the description.`)
		}
	}
	return blocks
}
