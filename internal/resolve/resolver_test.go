package resolve

import (
	"testing"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
)

// testTree builds:
//
//	0:1 CANVAS "Page"
//	└── 10:1 FRAME "Login Screen"
//	    ├── 11:20 INSTANCE "Submit Button"
//	    │   └── 11:21 TEXT "Submit"
//	    └── 12:5 VECTOR "Decoration"
func testTree() *figma.Node {
	return &figma.Node{
		ID: "0:1", Name: "Page", Type: figma.TypeCanvas,
		Children: []*figma.Node{
			{
				ID: "10:1", Name: "Login Screen", Type: figma.TypeFrame,
				Children: []*figma.Node{
					{
						ID: "11:20", Name: "Submit Button", Type: figma.TypeInstance,
						Children: []*figma.Node{
							{ID: "11:21", Name: "Submit", Type: figma.TypeText, Characters: "Submit"},
						},
					},
					{ID: "12:5", Name: "Decoration", Type: figma.TypeVector},
				},
			},
		},
	}
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(NewLiveIndex(testTree()), nil)
}

func TestResolve_DirectHit(t *testing.T) {
	r := newTestResolver(t)
	got := r.Resolve(Claim{NodeID: "11:20"})
	if got.NodeID != "11:20" || got.Tier != TierDirect {
		t.Fatalf("Resolve() = %+v, want direct 11:20", got)
	}
}

func TestResolve_InstanceChain(t *testing.T) {
	r := newTestResolver(t)
	// The chain carries an instance prefix, a stale segment, and a root
	// sentinel; the live middle segment must win.
	got := r.Resolve(Claim{NodeID: "I9:27;11:20;0:1"})
	if got.NodeID != "11:20" {
		t.Fatalf("Resolve() = %+v, want 11:20", got)
	}
	if got.Tier != TierDirect {
		t.Fatalf("Tier = %q, want direct", got.Tier)
	}
}

func TestNormalizeID(t *testing.T) {
	idx := NewLiveIndex(testTree())
	tests := []struct {
		raw  string
		want string
	}{
		{"11:20", "11:20"},
		{"I11:20", "11:20"},
		{"I9:27;11:20;0:1", "11:20"},
		{"9:27;0:1", "9:27"}, // nothing live, last non-sentinel verbatim
		{"0:1;0:2", "0:1;0:2"},
		{"", ""},
		{"  11:21  ", "11:21"},
	}
	for _, tt := range tests {
		if got := NormalizeID(tt.raw, idx); got != tt.want {
			t.Fatalf("NormalizeID(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestResolve_NameMatch(t *testing.T) {
	r := newTestResolver(t)
	got := r.Resolve(Claim{NodeID: "99:99", Location: "login screen"})
	if got.NodeID != "10:1" || got.Tier != TierName {
		t.Fatalf("Resolve() = %+v, want name-tier 10:1", got)
	}
}

func TestResolve_NameMatchSubstringBothWays(t *testing.T) {
	r := newTestResolver(t)
	// Location longer than the node name also matches.
	got := r.Resolve(Claim{Location: "the Submit Button in the form"})
	if got.NodeID != "11:20" {
		t.Fatalf("Resolve() = %+v, want 11:20", got)
	}
}

func TestResolve_FallbackDeterministic(t *testing.T) {
	r := newTestResolver(t)
	first := r.Resolve(Claim{NodeID: "nope", Location: "zzz nothing"})
	if first.Tier != TierFallback {
		t.Fatalf("Tier = %q, want fallback", first.Tier)
	}
	if first.NodeID == "" || first.NodeID == "0:1" {
		t.Fatalf("fallback picked %q", first.NodeID)
	}
	for i := 0; i < 10; i++ {
		again := r.Resolve(Claim{NodeID: "nope", Location: "zzz nothing"})
		if again.NodeID != first.NodeID {
			t.Fatalf("fallback not deterministic: %q vs %q", again.NodeID, first.NodeID)
		}
	}
}

func TestResolve_TotalityOnIndex(t *testing.T) {
	idx := NewLiveIndex(testTree())
	r := NewResolver(idx, nil)
	claims := []Claim{
		{},
		{NodeID: "garbage"},
		{NodeID: ";;;"},
		{Location: "no such layer"},
		{NodeID: "I0:1;0:2"},
	}
	for _, c := range claims {
		got := r.Resolve(c)
		if got.NodeID == "" || !idx.Has(got.NodeID) {
			t.Fatalf("Resolve(%+v) = %q, not a live node", c, got.NodeID)
		}
	}
}

func TestResolve_PromotesLeafToContainer(t *testing.T) {
	r := newTestResolver(t)
	got := r.Resolve(Claim{NodeID: "11:21"})
	if got.NodeID != "11:20" {
		t.Fatalf("text leaf should promote to instance ancestor, got %+v", got)
	}
	if got.NodeType != figma.TypeInstance {
		t.Fatalf("NodeType = %q, want INSTANCE", got.NodeType)
	}
}

func TestResolve_PromotionSkipsContainers(t *testing.T) {
	r := newTestResolver(t)
	got := r.Resolve(Claim{NodeID: "10:1"})
	if got.NodeID != "10:1" {
		t.Fatalf("frame should not be promoted, got %+v", got)
	}
}

func TestResolve_PromotionDisabled(t *testing.T) {
	r := newTestResolver(t)
	r.PromoteToContainer = false
	got := r.Resolve(Claim{NodeID: "11:21"})
	if got.NodeID != "11:21" {
		t.Fatalf("promotion disabled but got %+v", got)
	}
}

func TestResolve_VectorPromotes(t *testing.T) {
	r := newTestResolver(t)
	got := r.Resolve(Claim{NodeID: "12:5"})
	if got.NodeID != "10:1" {
		t.Fatalf("vector should promote to frame, got %+v", got)
	}
}
