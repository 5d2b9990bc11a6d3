// Package pipeline wires the review stages together: extraction, prompt
// construction, the model call, parsing, and node resolution. Every
// stage except the comment dispatch is a pure transformation, so one run
// is a function of its inputs plus one document fetch and one model call.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/apperr"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/extract"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/feedback"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/llm"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/prompt"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/resolve"
)

// FileFetcher loads a document tree. Satisfied by *figma.Client.
type FileFetcher interface {
	GetFile(ctx context.Context, fileKey string) (*figma.File, error)
	GetNode(ctx context.Context, fileKey, nodeID string) (*figma.File, error)
}

// UsageRecorder persists per-model call telemetry. Satisfied by
// *store.Store. Recording failures are logged, never fatal.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, model string, inputTokens, outputTokens int64, rateLimited bool) error
}

// Request is one review run.
type Request struct {
	// FileKey names a remote file; DesignData supplies a tree directly.
	// Exactly one must be set.
	FileKey    string
	DesignData *figma.Node

	// NodeID optionally restricts the review to one subtree.
	NodeID string

	CustomPrompt       string
	Categories         []string
	IncludeSuggestions bool
	MaxNodes           int
}

// ResolvedItem pairs a feedback item with its resolved anchor.
type ResolvedItem struct {
	feedback.Item
	Resolved resolve.Target `json:"resolved"`
}

// Report is the outcome of one run.
type Report struct {
	RequestID string           `json:"requestId"`
	FileName  string           `json:"fileName"`
	Items     []ResolvedItem   `json:"feedback"`
	Summary   feedback.Summary `json:"summary"`

	// Index is kept so the comment dispatcher can reuse the resolution
	// pass instead of re-walking the document.
	Index *resolve.LiveIndex `json:"-"`
	Root  *figma.Node        `json:"-"`
}

// Pipeline runs review requests.
type Pipeline struct {
	fetcher FileFetcher
	client  llm.Client
	parser  *feedback.Parser
	usage   UsageRecorder
	logger  *zap.Logger
}

// New creates a Pipeline. usage may be nil.
func New(fetcher FileFetcher, client llm.Client, usage UsageRecorder, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher: fetcher,
		client:  client,
		parser:  feedback.NewParser(logger),
		usage:   usage,
		logger:  logger,
	}
}

// Run executes the full pipeline for one request.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	requestID := uuid.NewString()
	log := p.logger.With(zap.String("request_id", requestID))

	root, fileName, err := p.document(ctx, req)
	if err != nil {
		return nil, err
	}

	maxNodes := req.MaxNodes
	if maxNodes <= 0 {
		maxNodes = 200
	}
	payload := extract.Extract(root, maxNodes)
	if len(payload.Nodes) == 0 {
		return nil, apperr.ErrNodeNotFound
	}
	if fileName != "" {
		payload.Name = fileName
	}
	log.Info("extracted canvas payload",
		zap.String("name", payload.Name),
		zap.Int("nodes", len(payload.Nodes)))

	pr := prompt.Build(payload, prompt.Options{
		Categories:         req.Categories,
		IncludeSuggestions: req.IncludeSuggestions,
		FreeText:           req.CustomPrompt,
	})

	raw, err := p.client.CompleteWithSystem(ctx, pr.System, pr.User)
	p.recordUsage(ctx, pr, raw, err)
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	items, err := p.parser.Parse(raw, pr.AllowedCategories)
	if err != nil {
		return nil, err
	}

	index := resolve.NewLiveIndex(root)
	resolver := resolve.NewResolver(index, log)
	resolved := make([]ResolvedItem, 0, len(items))
	for _, item := range items {
		target := resolver.Resolve(resolve.Claim{NodeID: item.NodeID, Location: item.Location})
		resolved = append(resolved, ResolvedItem{Item: item, Resolved: target})
	}

	summary := feedback.Summarize(items, pr.AllowedCategories)
	log.Info("review complete",
		zap.Int("items", summary.Total),
		zap.Int("off_category", summary.OffCategory))

	return &Report{
		RequestID: requestID,
		FileName:  payload.Name,
		Items:     resolved,
		Summary:   summary,
		Index:     index,
		Root:      root,
	}, nil
}

func (p *Pipeline) document(ctx context.Context, req Request) (*figma.Node, string, error) {
	if req.DesignData != nil {
		return req.DesignData, req.DesignData.Name, nil
	}
	if req.FileKey == "" {
		return nil, "", &apperr.ConfigError{Key: "request", Msg: "either fileKey or designData is required"}
	}
	var (
		file *figma.File
		err  error
	)
	if req.NodeID != "" {
		file, err = p.fetcher.GetNode(ctx, req.FileKey, req.NodeID)
	} else {
		file, err = p.fetcher.GetFile(ctx, req.FileKey)
	}
	if err != nil {
		return nil, "", err
	}
	return file.Root, file.Name, nil
}

// recordUsage stores approximate token telemetry for the call. Providers
// report exact counts in their envelopes, but the pipeline only sees the
// completion text, so counts are estimated at 4 chars/token.
func (p *Pipeline) recordUsage(ctx context.Context, pr prompt.Prompt, raw string, callErr error) {
	if p.usage == nil {
		return
	}
	var rl *apperr.RateLimitError
	rateLimited := errors.As(callErr, &rl)
	in := int64(len(pr.System)+len(pr.User)) / 4
	out := int64(len(raw)) / 4
	if err := p.usage.RecordUsage(ctx, p.client.Model(), in, out, rateLimited); err != nil {
		p.logger.Warn("usage recording failed", zap.Error(err))
	}
}
