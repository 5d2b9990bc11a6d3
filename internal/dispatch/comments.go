// Package dispatch applies resolved feedback against the document:
// posting anchored comments, or mutating node properties for the
// auto-fix path. Per-item failures are collected, never fatal.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/apperr"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/feedback"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/resolve"
)

// Commenter posts one anchored comment. Satisfied by *figma.Client.
type Commenter interface {
	PostComment(ctx context.Context, fileKey, message string, anchor figma.CommentAnchor) error
}

// Placement constants. Comments on the same target are spread
// horizontally so they do not stack at one point; the whole batch also
// steps down vertically.
const (
	baseOffsetX   = 24.0
	baseOffsetY   = 24.0
	spreadStepX   = 48.0
	stackStepY    = 32.0
	interItemWait = 350 * time.Millisecond
)

// Result reports a batch outcome. Partial success is the steady state,
// not an exception.
type Result struct {
	Posted int      `json:"commentsPosted"`
	Total  int      `json:"total"`
	Errors []string `json:"errors,omitempty"`
}

// Dispatcher posts feedback comments sequentially. The fixed inter-item
// delay is a backpressure policy toward the Figma comment API, not a
// performance knob.
type Dispatcher struct {
	commenter Commenter
	resolver  *resolve.Resolver
	logger    *zap.Logger

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(commenter Commenter, resolver *resolve.Resolver, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		commenter: commenter,
		resolver:  resolver,
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// PostComments resolves and posts every item. One failed item is
// downgraded to a collected diagnostic and the loop continues.
func (d *Dispatcher) PostComments(ctx context.Context, fileKey string, items []feedback.Item) Result {
	res := Result{Total: len(items)}
	perTarget := make(map[string]int)

	for i, item := range items {
		if i > 0 {
			d.sleep(interItemWait)
		}

		target := d.resolver.Resolve(resolve.Claim{NodeID: item.NodeID, Location: item.Location})
		anchor := figma.CommentAnchor{
			NodeID:  target.NodeID,
			OffsetX: baseOffsetX + float64(perTarget[target.NodeID])*spreadStepX,
			OffsetY: baseOffsetY + float64(i)*stackStepY,
		}
		perTarget[target.NodeID]++

		if err := d.commenter.PostComment(ctx, fileKey, FormatComment(item), anchor); err != nil {
			derr := &apperr.DispatchError{Index: i, Cause: err}
			res.Errors = append(res.Errors, derr.Error())
			d.logger.Warn("comment post failed",
				zap.Int("index", i),
				zap.String("node", target.NodeID),
				zap.Error(err))
			continue
		}
		res.Posted++
	}

	d.logger.Info("comment batch dispatched",
		zap.String("file", fileKey),
		zap.Int("posted", res.Posted),
		zap.Int("failed", len(res.Errors)))
	return res
}

// FormatComment renders the structured comment body.
func FormatComment(item feedback.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s (%s)\n\n", item.Category, item.Title, item.Severity)
	sb.WriteString(item.Description)
	if item.Suggestion != "" {
		sb.WriteString("\n\nSuggestion: ")
		sb.WriteString(item.Suggestion)
	}
	if item.Location != "" {
		sb.WriteString("\n\nLocation: ")
		sb.WriteString(item.Location)
	}
	return sb.String()
}
