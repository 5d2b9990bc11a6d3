package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/feedback"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/resolve"
)

// FixAction reports what the auto-fix path did for one item.
type FixAction string

const (
	// FixApplied means at least one property was mutated.
	FixApplied FixAction = "applied"
	// FixSelectOnly means nothing structured could be extracted; the
	// node is handed back for manual editing instead of a silent no-op.
	FixSelectOnly FixAction = "select"
)

// FixResult describes the outcome of ApplyFix for one feedback item.
type FixResult struct {
	NodeID     string    `json:"nodeId"`
	Action     FixAction `json:"action"`
	Properties []string  `json:"properties,omitempty"`
}

// Editor applies suggestion-derived edits to live nodes.
type Editor struct {
	resolver *resolve.Resolver
	nodes    map[string]*figma.Node
	logger   *zap.Logger
}

// NewEditor builds an Editor over the document tree. The id→node map is
// built once so repeated fixes do not re-walk the tree.
func NewEditor(root *figma.Node, resolver *resolve.Resolver, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Editor{
		resolver: resolver,
		nodes:    make(map[string]*figma.Node),
		logger:   logger,
	}
	e.indexNodes(root)
	return e
}

func (e *Editor) indexNodes(n *figma.Node) {
	if n == nil {
		return
	}
	e.nodes[n.ID] = n
	for _, c := range n.Children {
		e.indexNodes(c)
	}
}

// ApplyFix resolves the item's target and applies whichever extracted
// properties are valid for the node's type. Properties the node type
// cannot carry are skipped, not errors.
func (e *Editor) ApplyFix(item feedback.Item) (FixResult, error) {
	target := e.resolver.Resolve(resolve.Claim{NodeID: item.NodeID, Location: item.Location})
	node, ok := e.nodes[target.NodeID]
	if !ok {
		return FixResult{}, fmt.Errorf("resolved node %s not in edit index", target.NodeID)
	}

	values := ExtractDesignValues(item.Suggestion)
	if values.IsEmpty() {
		e.logger.Debug("no structured values in suggestion, selecting node",
			zap.String("node", node.ID))
		return FixResult{NodeID: node.ID, Action: FixSelectOnly}, nil
	}

	var applied []string
	lower := strings.ToLower(item.Suggestion)

	if node.HasLayout() {
		if v := resolved(values.Padding, values.Relative, node.PaddingLeft, lower, "padding"); v != nil {
			node.PaddingLeft, node.PaddingRight = v, cloneFloat(v)
			node.PaddingTop, node.PaddingBottom = cloneFloat(v), cloneFloat(v)
			applied = append(applied, "padding")
		}
		if v := resolved(values.Spacing, values.Relative, node.ItemSpacing, lower, "spacing", "gap"); v != nil {
			node.ItemSpacing = v
			applied = append(applied, "itemSpacing")
		}
	}

	if values.CornerRadius != nil && node.Type != figma.TypeText {
		node.CornerRadius = values.CornerRadius
		applied = append(applied, "cornerRadius")
	}

	if values.Opacity != nil {
		node.Opacity = values.Opacity
		applied = append(applied, "opacity")
	}

	if node.Type == figma.TypeText {
		if v := resolved(values.FontSize, values.Relative, node.FontSize, lower, "font", "text size"); v != nil {
			node.FontSize = v
			applied = append(applied, "fontSize")
		}
	}

	if values.ColorHex != "" && node.HasFill() {
		if color, ok := parseHexColor(values.ColorHex); ok {
			node.Fills = []figma.Paint{{Type: "SOLID", Color: &color, Opacity: 1}}
			applied = append(applied, "fills")
		}
	}

	if values.Visible != nil {
		node.Visible = values.Visible
		applied = append(applied, "visible")
	}

	if box := node.AbsoluteBoundingBox; box != nil {
		if values.Width != nil {
			box.Width = *values.Width
			applied = append(applied, "width")
		}
		if values.Height != nil {
			box.Height = *values.Height
			applied = append(applied, "height")
		}
		if values.Width == nil && values.Height == nil {
			if scale := dimensionScale(values.Relative, lower); scale != 0 {
				box.Width *= scale
				box.Height *= scale
				applied = append(applied, "width", "height")
			}
		}
	}

	if len(applied) == 0 {
		// Values were extracted but none fit this node type.
		return FixResult{NodeID: node.ID, Action: FixSelectOnly}, nil
	}

	e.logger.Info("applied suggestion fix",
		zap.String("node", node.ID),
		zap.Strings("properties", applied))
	return FixResult{NodeID: node.ID, Action: FixApplied, Properties: applied}, nil
}

// resolved prefers an absolute value; with only an intensifier it scales
// the current value, and only when the suggestion actually names the
// property: "make it larger" must not rescale every numeric field.
func resolved(abs *float64, relative float64, current *float64, lower string, keywords ...string) *float64 {
	if abs != nil {
		v := *abs
		return &v
	}
	if relative == 0 || current == nil {
		return nil
	}
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			v := *current * relative
			return &v
		}
	}
	return nil
}

// dimensionScale decides whether an intensifier targets the node's
// overall size. A suggestion naming a more specific property ("make the
// padding larger") must not also resize the node, so those keywords veto
// the scale; a bare "make it larger" applies to both dimensions.
func dimensionScale(relative float64, lower string) float64 {
	if relative == 0 {
		return 0
	}
	for _, kw := range []string{"padding", "spacing", "gap", "font", "text size", "radius", "opacity"} {
		if strings.Contains(lower, kw) {
			return 0
		}
	}
	return relative
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func parseHexColor(hex string) (figma.Color, bool) {
	s := hex
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return figma.Color{}, false
	}
	r, err1 := strconv.ParseUint(s[0:2], 16, 8)
	g, err2 := strconv.ParseUint(s[2:4], 16, 8)
	b, err3 := strconv.ParseUint(s[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return figma.Color{}, false
	}
	return figma.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: 1,
	}, true
}
