package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/feedback"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
)

// AnalyzeRequest is the inbound review request. Exactly one of FileKey
// and DesignData must be provided.
type AnalyzeRequest struct {
	FileKey            string      `json:"fileKey,omitempty"`
	DesignData         *figma.Node `json:"designData,omitempty"`
	NodeID             string      `json:"nodeId,omitempty"`
	CustomPrompt       string      `json:"customPrompt,omitempty"`
	Categories         []string    `json:"categories,omitempty"`
	IncludeSuggestions bool        `json:"includeSuggestions,omitempty"`
}

// Validate enforces the request contract.
func (r AnalyzeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FileKey,
			validation.Required.When(r.DesignData == nil).Error("either fileKey or designData is required"),
			validation.Empty.When(r.DesignData != nil).Error("fileKey and designData are mutually exclusive"),
			validation.Length(0, 128),
		),
		validation.Field(&r.CustomPrompt, validation.Length(0, 4000)),
		validation.Field(&r.Categories, validation.Length(0, 12)),
	)
}

// AnalyzeResponse is the success envelope for POST /api/analyze.
type AnalyzeResponse struct {
	Success  bool             `json:"success"`
	Feedback any              `json:"feedback"`
	Summary  feedback.Summary `json:"summary"`
}

// CommentsRequest is the inbound comment-posting request.
type CommentsRequest struct {
	FileKey  string          `json:"fileKey"`
	Feedback []feedback.Item `json:"feedback"`
}

// Validate enforces the request contract.
func (r CommentsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FileKey, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Feedback, validation.Required.Error("feedback must not be empty")),
	)
}

// CommentsResponse is the envelope for POST /api/comments. A partial
// batch failure is still a success envelope with Errors populated.
type CommentsResponse struct {
	Success        bool     `json:"success"`
	CommentsPosted int      `json:"commentsPosted"`
	Total          int      `json:"total"`
	Errors         []string `json:"errors,omitempty"`
}
