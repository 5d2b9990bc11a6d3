// Package resolve maps feedback node references (possibly stale,
// compound, or missing) back onto live document nodes.
package resolve

import (
	"sort"
	"strings"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
)

// LiveIndex is a precomputed view over ALL nodes of one document
// snapshot. It is built separately from extraction: the analysis payload
// is bounded and prioritized, but resolution must find nodes the payload
// may have truncated away.
type LiveIndex struct {
	root    *figma.Node
	nameOf  map[string]string
	typeOf  map[string]figma.NodeType
	parent  map[string]string
	ids     map[string]bool
	idsSort []string // stable iteration order for the fallback tier
}

// NewLiveIndex builds the index in a single traversal.
func NewLiveIndex(root *figma.Node) *LiveIndex {
	idx := &LiveIndex{
		root:   root,
		nameOf: make(map[string]string),
		typeOf: make(map[string]figma.NodeType),
		parent: make(map[string]string),
		ids:    make(map[string]bool),
	}
	idx.walk(root, "")
	idx.idsSort = make([]string, 0, len(idx.ids))
	for id := range idx.ids {
		idx.idsSort = append(idx.idsSort, id)
	}
	sort.Strings(idx.idsSort)
	return idx
}

func (idx *LiveIndex) walk(n *figma.Node, parentID string) {
	if n == nil {
		return
	}
	idx.ids[n.ID] = true
	idx.nameOf[n.ID] = n.Name
	idx.typeOf[n.ID] = n.Type
	if parentID != "" {
		idx.parent[n.ID] = parentID
	}
	for _, c := range n.Children {
		idx.walk(c, n.ID)
	}
}

// Len returns the number of indexed nodes.
func (idx *LiveIndex) Len() int { return len(idx.ids) }

// Has reports whether id belongs to the live document.
func (idx *LiveIndex) Has(id string) bool { return idx.ids[id] }

// Name returns the name of a live node, or "".
func (idx *LiveIndex) Name(id string) string { return idx.nameOf[id] }

// Type returns the type of a live node, or "".
func (idx *LiveIndex) Type(id string) figma.NodeType { return idx.typeOf[id] }

// Parent returns the parent id of a live node, or "".
func (idx *LiveIndex) Parent(id string) string { return idx.parent[id] }

// findByName returns the first node (depth-first) whose name contains
// location or whose name is contained in location, case-insensitively.
// First hit wins; there is no best-match scoring.
func (idx *LiveIndex) findByName(location string) string {
	needle := strings.ToLower(strings.TrimSpace(location))
	if needle == "" {
		return ""
	}
	return findByNameDFS(idx.root, needle)
}

func findByNameDFS(n *figma.Node, needle string) string {
	if n == nil {
		return ""
	}
	name := strings.ToLower(n.Name)
	if name != "" && (strings.Contains(name, needle) || strings.Contains(needle, name)) {
		return n.ID
	}
	for _, c := range n.Children {
		if id := findByNameDFS(c, needle); id != "" {
			return id
		}
	}
	return ""
}
