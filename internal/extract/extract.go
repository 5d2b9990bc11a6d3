// Package extract flattens a Figma document tree into the bounded,
// prioritized node payload the review prompt is built from.
package extract

import (
	"strings"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
)

// MaxDepth caps traversal depth. Nodes nested deeper are omitted along
// with their descendants to bound payload size against pathological trees.
const MaxDepth = 10

// NodeDescriptor is the flattened view of one node sent to the model.
type NodeDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path"`
	Text string `json:"text,omitempty"`
}

// CanvasPayload is the bounded extraction result.
type CanvasPayload struct {
	Name  string           `json:"name"`
	Nodes []NodeDescriptor `json:"nodes"`
}

// Extract walks the tree depth-first and returns at most maxNodes
// descriptors. Invisible nodes (visible=false or resolved opacity 0) are
// skipped together with their entire subtree. Text-bearing nodes are
// ordered before all other nodes so that truncation drops decorative and
// structural nodes first: copy issues are the cheapest feedback for the
// model and the first thing lost when text is interleaved.
func Extract(root *figma.Node, maxNodes int) CanvasPayload {
	if root == nil || maxNodes <= 0 {
		return CanvasPayload{Nodes: []NodeDescriptor{}}
	}

	var textNodes, otherNodes []NodeDescriptor
	walk(root, "", 0, &textNodes, &otherNodes)

	nodes := make([]NodeDescriptor, 0, len(textNodes)+len(otherNodes))
	nodes = append(nodes, textNodes...)
	nodes = append(nodes, otherNodes...)
	if len(nodes) > maxNodes {
		nodes = nodes[:maxNodes]
	}

	return CanvasPayload{Name: root.Name, Nodes: nodes}
}

func walk(n *figma.Node, parentPath string, depth int, textNodes, otherNodes *[]NodeDescriptor) {
	if n == nil || depth > MaxDepth {
		return
	}
	// Exclusion happens before recursing, so an invisible ancestor prunes
	// its whole subtree.
	if !n.IsVisible() {
		return
	}

	path := n.Name
	if parentPath != "" {
		path = parentPath + " > " + n.Name
	}

	desc := NodeDescriptor{
		ID:   n.ID,
		Name: n.Name,
		Type: string(n.Type),
		Path: path,
	}
	if n.IsTextBearing() {
		desc.Text = strings.TrimSpace(n.Characters)
		*textNodes = append(*textNodes, desc)
	} else {
		*otherNodes = append(*otherNodes, desc)
	}

	for _, child := range n.Children {
		walk(child, path, depth+1, textNodes, otherNodes)
	}
}
