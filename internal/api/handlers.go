// Package api exposes the review pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/apperr"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/dispatch"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/pipeline"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/resolve"
)

// maxBodyBytes bounds inbound request bodies. Design trees can be large
// but are still documents, not uploads.
const maxBodyBytes = 20 << 20

// Handler holds the API route handlers.
type Handler struct {
	pipe      *pipeline.Pipeline
	figma     *figma.Client
	commenter dispatch.Commenter
	logger    *zap.Logger
}

// NewHandler creates a Handler. commenter defaults to the figma client.
func NewHandler(pipe *pipeline.Pipeline, fc *figma.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{pipe: pipe, figma: fc, commenter: fc, logger: logger}
}

// Analyze handles POST /api/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	report, err := h.pipe.Run(r.Context(), pipeline.Request{
		FileKey:            req.FileKey,
		DesignData:         req.DesignData,
		NodeID:             req.NodeID,
		CustomPrompt:       req.CustomPrompt,
		Categories:         req.Categories,
		IncludeSuggestions: req.IncludeSuggestions,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, AnalyzeResponse{
		Success:  true,
		Feedback: report.Items,
		Summary:  report.Summary,
	})
}

// PostComments handles POST /api/comments.
func (h *Handler) PostComments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CommentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	// Comments need the full live index, not the bounded analysis
	// payload, so the document is fetched fresh.
	file, err := h.figma.GetFile(r.Context(), req.FileKey)
	if err != nil {
		h.writeError(w, err)
		return
	}
	index := resolve.NewLiveIndex(file.Root)
	resolver := resolve.NewResolver(index, h.logger)

	d := dispatch.NewDispatcher(h.commenter, resolver, h.logger)
	res := d.PostComments(r.Context(), req.FileKey, req.Feedback)

	writeJSON(w, h.logger, http.StatusOK, CommentsResponse{
		Success:        true,
		CommentsPosted: res.Posted,
		Total:          res.Total,
		Errors:         res.Errors,
	})
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps pipeline failures onto HTTP statuses. The caller
// always receives a structured {error} body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		cfgErr   *apperr.ConfigError
		rlErr    *apperr.RateLimitError
		parseErr *apperr.ParseError
		emptyErr *apperr.EmptyResponseError
	)

	switch {
	case errors.As(err, &cfgErr):
		writeJSON(w, h.logger, http.StatusUnauthorized, errorBody(cfgErr.Error()))
	case errors.Is(err, apperr.ErrUpstreamAuth):
		writeJSON(w, h.logger, http.StatusUnauthorized, errorBody("upstream rejected credentials; check your API keys"))
	case errors.Is(err, apperr.ErrQuotaExhausted):
		writeJSON(w, h.logger, http.StatusPaymentRequired, errorBody("provider quota exhausted"))
	case errors.As(err, &rlErr):
		writeJSON(w, h.logger, http.StatusTooManyRequests, errorBody(rlErr.Error()))
	case errors.As(err, &emptyErr):
		writeJSON(w, h.logger, http.StatusUnprocessableEntity, errorBody(emptyErr.Error()))
	case errors.As(err, &parseErr):
		writeJSON(w, h.logger, http.StatusUnprocessableEntity, errorBody(parseErr.Error()))
	case errors.Is(err, apperr.ErrNodeNotFound), errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, h.logger, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, h.logger, http.StatusInternalServerError, errorBody("internal error"))
	}
}
