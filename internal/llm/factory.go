package llm

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/apperr"
)

// Provider identifies a model backend.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGemini     Provider = "gemini"
	ProviderOpenRouter Provider = "openrouter"
)

// ProviderConfig is the resolved provider selection.
type ProviderConfig struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
}

// DetectProvider resolves a provider from explicit config first, then
// environment variables in priority order.
func DetectProvider(cfg ProviderConfig) (ProviderConfig, error) {
	if cfg.Provider != "" && cfg.APIKey != "" {
		return cfg, nil
	}

	envs := []struct {
		envVar   string
		provider Provider
	}{
		{"ANTHROPIC_API_KEY", ProviderAnthropic},
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"GEMINI_API_KEY", ProviderGemini},
		{"OPENROUTER_API_KEY", ProviderOpenRouter},
	}
	for _, e := range envs {
		if key := os.Getenv(e.envVar); key != "" {
			cfg.Provider = e.provider
			cfg.APIKey = key
			return cfg, nil
		}
	}
	return cfg, &apperr.ConfigError{Key: "llm", Msg: "no provider API key found in config or environment"}
}

// NewClient builds the concrete client for a provider config, wrapped in
// the default retry policy.
func NewClient(ctx context.Context, cfg ProviderConfig, logger *zap.Logger) (Client, error) {
	var inner Client
	switch cfg.Provider {
	case ProviderOpenAI:
		oc := DefaultOpenAIConfig(cfg.APIKey)
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		inner = NewOpenAIClient(oc)
	case ProviderOpenRouter:
		oc := DefaultOpenAIConfig(cfg.APIKey)
		oc.BaseURL = "https://openrouter.ai/api/v1"
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		inner = NewOpenAIClient(oc)
	case ProviderAnthropic:
		ac := DefaultAnthropicConfig(cfg.APIKey)
		if cfg.Model != "" {
			ac.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			ac.BaseURL = cfg.BaseURL
		}
		inner = NewAnthropicClient(ac)
	case ProviderGemini:
		gc, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		inner = gc
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return NewRetrier(inner, logger), nil
}
