// Package figma models the subset of the Figma document tree the review
// pipeline needs, and provides the REST client for the file, node, and
// comment endpoints.
package figma

import "strings"

// NodeType tags the variant of a document node. Figma nodes are
// duck-typed JSON objects; the tag plus the capability predicates below
// replace ad hoc property-presence checks.
type NodeType string

const (
	TypeDocument  NodeType = "DOCUMENT"
	TypeCanvas    NodeType = "CANVAS"
	TypeFrame     NodeType = "FRAME"
	TypeGroup     NodeType = "GROUP"
	TypeComponent NodeType = "COMPONENT"
	TypeInstance  NodeType = "INSTANCE"
	TypeText      NodeType = "TEXT"
	TypeVector    NodeType = "VECTOR"
	TypeRectangle NodeType = "RECTANGLE"
	TypeEllipse   NodeType = "ELLIPSE"
	TypeLine      NodeType = "LINE"
	TypeSection   NodeType = "SECTION"
)

// Paint is a solid fill. Gradient and image paints are carried opaque;
// the edit path only rewrites solid colors.
type Paint struct {
	Type    string  `json:"type"`
	Visible *bool   `json:"visible,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
	Color   *Color  `json:"color,omitempty"`
}

// Color is an RGBA color with 0..1 channels, as Figma serializes it.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Rect is an absolute bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is one element of a Figma document tree. Optional fields are
// pointers so absent-vs-zero survives the JSON round trip; the file API
// omits most of them for most node types.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     NodeType `json:"type"`
	Visible  *bool    `json:"visible,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Children []*Node  `json:"children,omitempty"`

	// TEXT nodes only.
	Characters string   `json:"characters,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`

	// Geometry/style, used by the edit path only.
	AbsoluteBoundingBox *Rect    `json:"absoluteBoundingBox,omitempty"`
	Fills               []Paint  `json:"fills,omitempty"`
	CornerRadius        *float64 `json:"cornerRadius,omitempty"`
	PaddingLeft         *float64 `json:"paddingLeft,omitempty"`
	PaddingRight        *float64 `json:"paddingRight,omitempty"`
	PaddingTop          *float64 `json:"paddingTop,omitempty"`
	PaddingBottom       *float64 `json:"paddingBottom,omitempty"`
	ItemSpacing         *float64 `json:"itemSpacing,omitempty"`
	LayoutMode          string   `json:"layoutMode,omitempty"`
}

// IsVisible reports whether the node participates in rendering. Figma
// omits the visible flag for visible nodes, so nil means true. A resolved
// opacity of exactly 0 also hides the node and its subtree.
func (n *Node) IsVisible() bool {
	if n.Visible != nil && !*n.Visible {
		return false
	}
	if n.Opacity != nil && *n.Opacity == 0 {
		return false
	}
	return true
}

// IsTextBearing reports whether the node carries literal text content.
func (n *Node) IsTextBearing() bool {
	return n.Type == TypeText && strings.TrimSpace(n.Characters) != ""
}

// IsContainer reports whether the node is a grouping construct that
// comments anchor to sensibly (vs a single glyph or vector path).
func (n *Node) IsContainer() bool {
	switch n.Type {
	case TypeFrame, TypeComponent, TypeInstance, TypeGroup, TypeSection:
		return true
	}
	return false
}

// HasFill reports whether the node type accepts solid fill edits.
func (n *Node) HasFill() bool {
	switch n.Type {
	case TypeFrame, TypeComponent, TypeInstance, TypeText, TypeRectangle, TypeEllipse, TypeVector:
		return true
	}
	return false
}

// HasLayout reports whether the node type accepts padding/spacing edits.
// Only auto-layout frames (and frame-like nodes) do.
func (n *Node) HasLayout() bool {
	switch n.Type {
	case TypeFrame, TypeComponent, TypeInstance:
		return true
	}
	return false
}
