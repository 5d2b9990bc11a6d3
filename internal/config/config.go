// Package config loads service configuration from a yaml file, a local
// .env file, and environment variable overrides, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	Figma  FigmaConfig  `yaml:"figma"`
	LLM    LLMConfig    `yaml:"llm"`
	Review ReviewConfig `yaml:"review"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
}

// FigmaConfig configures the Figma REST boundary.
type FigmaConfig struct {
	Token   string        `yaml:"token"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig configures the model provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, anthropic, gemini, openrouter
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// ReviewConfig configures the extraction/review pipeline.
type ReviewConfig struct {
	MaxNodes           int  `yaml:"max_nodes"`
	IncludeSuggestions bool `yaml:"include_suggestions"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig configures the settings/usage store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Figma: FigmaConfig{
			BaseURL: "https://api.figma.com/v1",
			Timeout: 60 * time.Second,
		},
		Review: ReviewConfig{
			MaxNodes:           200,
			IncludeSuggestions: true,
		},
		Server: ServerConfig{
			Addr: ":8787",
		},
		Store: StoreConfig{
			Path: filepath.Join(".figrev", "figrev.db"),
		},
	}
}

// Load reads the yaml file at path (a missing file is fine), loads a
// .env file next to it if present, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults + env only.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
		// .env sits next to the config file; absence is not an error.
		_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	} else {
		_ = godotenv.Load()
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FIGMA_TOKEN"); v != "" {
		c.Figma.Token = v
	}
	if v := os.Getenv("FIGREV_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("FIGREV_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("FIGREV_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("FIGREV_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FIGREV_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("FIGREV_MAX_NODES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Review.MaxNodes = n
		}
	}
}
