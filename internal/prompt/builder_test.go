package prompt

import (
	"strings"
	"testing"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/extract"
)

func testPayload() extract.CanvasPayload {
	return extract.CanvasPayload{
		Name: "Checkout",
		Nodes: []extract.NodeDescriptor{
			{ID: "1:2", Name: "Title", Type: "TEXT", Path: "Checkout > Title", Text: "Pay now"},
			{ID: "1:3", Name: "Card", Type: "FRAME", Path: "Checkout > Card"},
		},
	}
}

func TestBuild_ContainsNodesAndCategories(t *testing.T) {
	pr := Build(testPayload(), Options{Categories: []string{"ux", "content"}})

	for _, want := range []string{"1:2", "1:3", `"Pay now"`, "ux, content"} {
		if !strings.Contains(pr.User, want) {
			t.Fatalf("user prompt missing %q", want)
		}
	}
	if !strings.Contains(pr.System, "JSON array") {
		t.Fatalf("system prompt missing output constraint")
	}
	if len(pr.AllowedCategories) != 2 {
		t.Fatalf("AllowedCategories = %v, want 2 entries", pr.AllowedCategories)
	}
}

func TestBuild_VolumeTargets(t *testing.T) {
	pr := Build(testPayload(), Options{Categories: []string{"ux", "visual", "content", "layout"}})
	if !strings.Contains(pr.User, "2-4 items per category") {
		t.Fatalf("missing per-category volume target")
	}
	if !strings.Contains(pr.User, "at least 8 items total") {
		t.Fatalf("missing total floor, got:\n%s", pr.User)
	}
}

func TestBuild_ElaborationOnlyWhenAllowed(t *testing.T) {
	withConsistency := Build(testPayload(), Options{Categories: []string{"consistency"}})
	if !strings.Contains(withConsistency.User, "Consistency review") {
		t.Fatalf("consistency block missing when category allowed")
	}

	without := Build(testPayload(), Options{Categories: []string{"ux"}})
	if strings.Contains(without.User, "Consistency review") {
		t.Fatalf("consistency block present when category not allowed")
	}
	if strings.Contains(without.User, "Writing review") {
		t.Fatalf("writing block present when category not allowed")
	}
}

func TestBuild_SuggestionToggle(t *testing.T) {
	with := Build(testPayload(), Options{IncludeSuggestions: true})
	if !strings.Contains(with.User, `"suggestion"`) {
		t.Fatalf("suggestion instructions missing")
	}
	without := Build(testPayload(), Options{IncludeSuggestions: false})
	if !strings.Contains(without.User, "Omit the \"suggestion\" field") {
		t.Fatalf("suggestion omission instruction missing")
	}
}

func TestBuild_FreeTextAppended(t *testing.T) {
	pr := Build(testPayload(), Options{FreeText: "Pay attention to the empty states."})
	if !strings.Contains(pr.User, "Pay attention to the empty states.") {
		t.Fatalf("free text not appended")
	}
}
