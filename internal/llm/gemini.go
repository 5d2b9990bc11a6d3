package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/apperr"
)

// GeminiClient implements Client on the official genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client for the public Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &apperr.ConfigError{Key: "llm.api_key", Msg: "API key not configured"}
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Model returns the configured model identifier.
func (c *GeminiClient) Model() string { return c.model }

// CompleteWithSystem sends one generateContent request.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: defaultMaxTokens,
		Temperature:     genai.Ptr[float32](defaultTemperature),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", mapGeminiError(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &apperr.EmptyResponseError{}
	}
	return strings.TrimSpace(text), nil
}

// mapGeminiError folds SDK errors onto the shared taxonomy so the retry
// wrapper treats Gemini like the HTTP providers.
func mapGeminiError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return &apperr.RateLimitError{}
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "PERMISSION_DENIED") || strings.Contains(msg, "UNAUTHENTICATED"):
		return fmt.Errorf("gemini: %w", apperr.ErrUpstreamAuth)
	default:
		return fmt.Errorf("gemini: %w", err)
	}
}
