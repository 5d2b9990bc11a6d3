package resolve

import (
	"strings"

	"go.uber.org/zap"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
)

// rootSentinelPrefix marks Figma's canvas/document root ids ("0:0",
// "0:1", ...). Chain segments and fallback candidates with this prefix
// are never useful comment anchors.
const rootSentinelPrefix = "0:"

// maxPromotionHops bounds the parent walk during contextual promotion.
const maxPromotionHops = 10

// Claim is a feedback item's node reference: an unverified id plus a
// human-readable location string to fall back on.
type Claim struct {
	NodeID   string
	Location string
}

// Tier records which resolution strategy produced the target.
type Tier string

const (
	TierDirect   Tier = "direct"   // (possibly normalized) id found live
	TierName     Tier = "name"     // matched via location substring
	TierFallback Tier = "fallback" // arbitrary deterministic anchor
)

// Target is the resolved anchor. Resolve always returns one for a
// non-empty index; the fallback tier guarantees totality.
type Target struct {
	NodeID   string
	NodeName string
	NodeType figma.NodeType
	Tier     Tier
}

// Resolver applies the tiered resolution policy against one LiveIndex.
type Resolver struct {
	index  *LiveIndex
	logger *zap.Logger

	// PromoteToContainer replaces a resolved leaf node with its nearest
	// frame/component/instance ancestor. Comments anchored to a single
	// glyph or vector path are visually meaningless in the Figma UI.
	PromoteToContainer bool
}

// NewResolver creates a Resolver with promotion enabled.
func NewResolver(index *LiveIndex, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{index: index, logger: logger, PromoteToContainer: true}
}

// Resolve finds the best-matching live node for a claim. Tiers, first
// success wins: normalize compound/instance ids, direct id hit, name
// match on the location string, deterministic arbitrary fallback.
func (r *Resolver) Resolve(claim Claim) Target {
	id := NormalizeID(claim.NodeID, r.index)

	var tier Tier
	switch {
	case id != "" && r.index.Has(id):
		tier = TierDirect
	default:
		if byName := r.index.findByName(claim.Location); byName != "" {
			id, tier = byName, TierName
		} else {
			id, tier = r.fallbackID(), TierFallback
			r.logger.Debug("node claim unresolvable, using fallback anchor",
				zap.String("claimed", claim.NodeID),
				zap.String("location", claim.Location),
				zap.String("fallback", id))
		}
	}

	if r.PromoteToContainer {
		id = r.promote(id)
	}

	return Target{
		NodeID:   id,
		NodeName: r.index.Name(id),
		NodeType: r.index.Type(id),
		Tier:     tier,
	}
}

// NormalizeID reduces instance-prefixed and semicolon-chained ids to a
// single candidate id. Chains like "I9:27;11:20;0:1" reflect nested
// component instancing: segments are scanned from last (most specific) to
// first, skipping root sentinels, and the first live segment wins. If no
// segment is live the last non-sentinel segment is returned verbatim so
// later tiers see a stable value.
func NormalizeID(raw string, index *LiveIndex) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return ""
	}
	id = strings.TrimPrefix(id, "I")

	if !strings.Contains(id, ";") {
		return id
	}

	segments := make([]string, 0, 4)
	for _, seg := range strings.Split(id, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" || strings.HasPrefix(seg, rootSentinelPrefix) {
			continue
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return id
	}
	for i := len(segments) - 1; i >= 0; i-- {
		if index != nil && index.Has(segments[i]) {
			return segments[i]
		}
	}
	return segments[len(segments)-1]
}

// fallbackID picks a deterministic anchor so every feedback item lands
// somewhere instead of being dropped: the lexicographically first id that
// is neither a root sentinel nor a compound id. Sorting makes repeated
// runs anchor to the same node.
func (r *Resolver) fallbackID() string {
	for _, id := range r.index.idsSort {
		if strings.HasPrefix(id, rootSentinelPrefix) || strings.Contains(id, ";") {
			continue
		}
		return id
	}
	// Degenerate index (roots only); anchor to whatever exists.
	if len(r.index.idsSort) > 0 {
		return r.index.idsSort[0]
	}
	return ""
}

// promote walks parents until a frame/component/instance ancestor is
// found, bounded to maxPromotionHops. Container nodes (including groups)
// are kept as-is.
func (r *Resolver) promote(id string) string {
	t := r.index.Type(id)
	switch t {
	case figma.TypeFrame, figma.TypeComponent, figma.TypeInstance, figma.TypeGroup:
		return id
	}

	cur := id
	for hops := 0; hops < maxPromotionHops; hops++ {
		parent := r.index.Parent(cur)
		if parent == "" {
			break
		}
		switch r.index.Type(parent) {
		case figma.TypeFrame, figma.TypeComponent, figma.TypeInstance:
			r.logger.Debug("promoted leaf node to container ancestor",
				zap.String("leaf", id), zap.String("container", parent))
			return parent
		}
		cur = parent
	}
	return id
}
