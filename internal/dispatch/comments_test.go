package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/feedback"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/resolve"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingCommenter struct {
	anchors  []figma.CommentAnchor
	messages []string
	failAt   map[int]error
}

func (c *recordingCommenter) PostComment(_ context.Context, _ string, message string, anchor figma.CommentAnchor) error {
	call := len(c.anchors)
	c.anchors = append(c.anchors, anchor)
	c.messages = append(c.messages, message)
	if err, ok := c.failAt[call]; ok {
		return err
	}
	return nil
}

func dispatchTree() *figma.Node {
	return &figma.Node{
		ID: "0:1", Name: "Page", Type: figma.TypeCanvas,
		Children: []*figma.Node{
			{
				ID: "20:1", Name: "Home Screen", Type: figma.TypeFrame,
				Children: []*figma.Node{
					{ID: "20:2", Name: "CTA", Type: figma.TypeFrame},
				},
			},
		},
	}
}

func newDispatcherForTest(c Commenter) *Dispatcher {
	r := resolve.NewResolver(resolve.NewLiveIndex(dispatchTree()), nil)
	d := NewDispatcher(c, r, nil)
	d.sleep = func(time.Duration) {}
	return d
}

func sameTargetItems(n int) []feedback.Item {
	items := make([]feedback.Item, n)
	for i := range items {
		items[i] = feedback.Item{
			Category:    "ux",
			Title:       "Issue",
			Description: "d",
			Severity:    feedback.SeverityLow,
			NodeID:      "20:1",
		}
	}
	return items
}

func TestPostComments_SpreadsSameTarget(t *testing.T) {
	c := &recordingCommenter{}
	d := newDispatcherForTest(c)

	res := d.PostComments(context.Background(), "key", sameTargetItems(5))
	if res.Posted != 5 || len(res.Errors) != 0 {
		t.Fatalf("Result = %+v, want 5 posted", res)
	}
	if len(c.anchors) != 5 {
		t.Fatalf("got %d anchors", len(c.anchors))
	}
	for i := 1; i < len(c.anchors); i++ {
		if c.anchors[i].OffsetX <= c.anchors[i-1].OffsetX {
			t.Fatalf("anchor %d OffsetX %v not greater than previous %v",
				i, c.anchors[i].OffsetX, c.anchors[i-1].OffsetX)
		}
		if c.anchors[i].OffsetY <= c.anchors[i-1].OffsetY {
			t.Fatalf("anchor %d OffsetY %v not greater than previous %v",
				i, c.anchors[i].OffsetY, c.anchors[i-1].OffsetY)
		}
	}
}

func TestPostComments_DistinctTargetsRestartSpread(t *testing.T) {
	c := &recordingCommenter{}
	d := newDispatcherForTest(c)

	items := []feedback.Item{
		{Category: "ux", Title: "a", Severity: feedback.SeverityLow, NodeID: "20:1"},
		{Category: "ux", Title: "b", Severity: feedback.SeverityLow, NodeID: "20:2"},
	}
	d.PostComments(context.Background(), "key", items)
	if c.anchors[0].OffsetX != c.anchors[1].OffsetX {
		t.Fatalf("first comment per target should share the base X offset: %v vs %v",
			c.anchors[0].OffsetX, c.anchors[1].OffsetX)
	}
	if c.anchors[0].NodeID == c.anchors[1].NodeID {
		t.Fatalf("targets collapsed onto one node %q", c.anchors[0].NodeID)
	}
}

func TestPostComments_ErrorIsolation(t *testing.T) {
	c := &recordingCommenter{failAt: map[int]error{1: errors.New("rate limited")}}
	d := newDispatcherForTest(c)

	res := d.PostComments(context.Background(), "key", sameTargetItems(4))
	if res.Posted != 3 {
		t.Fatalf("Posted = %d, want 3", res.Posted)
	}
	if res.Total != 4 {
		t.Fatalf("Total = %d, want 4", res.Total)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "item 1") {
		t.Fatalf("Errors = %v, want one entry naming item 1", res.Errors)
	}
	if len(c.anchors) != 4 {
		t.Fatalf("loop stopped early: %d calls", len(c.anchors))
	}
}

func TestPostComments_SleepsBetweenItems(t *testing.T) {
	c := &recordingCommenter{}
	r := resolve.NewResolver(resolve.NewLiveIndex(dispatchTree()), nil)
	d := NewDispatcher(c, r, nil)

	var waits []time.Duration
	d.sleep = func(wait time.Duration) { waits = append(waits, wait) }

	d.PostComments(context.Background(), "key", sameTargetItems(3))
	if len(waits) != 2 {
		t.Fatalf("got %d sleeps, want one between each pair", len(waits))
	}
	for _, w := range waits {
		if w != interItemWait {
			t.Fatalf("slept %v, want %v", w, interItemWait)
		}
	}
}

func TestFormatComment(t *testing.T) {
	item := feedback.Item{
		Category:    "visual",
		Title:       "Low contrast",
		Description: "Text fails AA.",
		Severity:    feedback.SeverityHigh,
		Suggestion:  "Darken the text color",
		Location:    "Home Screen > CTA",
	}
	got := FormatComment(item)
	if !strings.HasPrefix(got, "[visual] Low contrast (high)") {
		t.Fatalf("header wrong:\n%s", got)
	}
	for _, want := range []string{"Text fails AA.", "Suggestion: Darken", "Location: Home Screen > CTA"} {
		if !strings.Contains(got, want) {
			t.Fatalf("FormatComment missing %q:\n%s", want, got)
		}
	}

	bare := FormatComment(feedback.Item{Category: "ux", Title: "t", Severity: feedback.SeverityLow, Description: "d"})
	if strings.Contains(bare, "Suggestion:") || strings.Contains(bare, "Location:") {
		t.Fatalf("optional sections rendered empty:\n%s", bare)
	}
}
