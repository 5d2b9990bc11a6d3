package figma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/apperr"
)

// Client talks to the Figma REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientConfig holds configuration for the Figma client.
type ClientConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:   token,
		BaseURL: "https://api.figma.com/v1",
		Timeout: 60 * time.Second,
	}
}

// NewClient creates a Figma client with default config.
func NewClient(token string, logger *zap.Logger) *Client {
	return NewClientWithConfig(DefaultClientConfig(token), logger)
}

// NewClientWithConfig creates a Figma client with custom config.
func NewClientWithConfig(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:   cfg.Token,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// fileResponse is the envelope of GET /files/:key.
type fileResponse struct {
	Name     string `json:"name"`
	Document *Node  `json:"document"`
	Err      string `json:"err,omitempty"`
}

// nodesResponse is the envelope of GET /files/:key/nodes.
type nodesResponse struct {
	Name  string `json:"name"`
	Nodes map[string]struct {
		Document *Node `json:"document"`
	} `json:"nodes"`
	Err string `json:"err,omitempty"`
}

// File is a fetched document: its display name and the root node.
type File struct {
	Name string
	Root *Node
}

// GetFile fetches the full document tree for a file key.
func (c *Client) GetFile(ctx context.Context, fileKey string) (*File, error) {
	var fr fileResponse
	if err := c.get(ctx, fmt.Sprintf("/files/%s", fileKey), &fr); err != nil {
		return nil, err
	}
	if fr.Document == nil {
		return nil, fmt.Errorf("file %s: %w", fileKey, apperr.ErrNotFound)
	}
	return &File{Name: fr.Name, Root: fr.Document}, nil
}

// GetNode fetches the subtree rooted at a single node id.
func (c *Client) GetNode(ctx context.Context, fileKey, nodeID string) (*File, error) {
	var nr nodesResponse
	if err := c.get(ctx, fmt.Sprintf("/files/%s/nodes?ids=%s", fileKey, nodeID), &nr); err != nil {
		return nil, err
	}
	entry, ok := nr.Nodes[nodeID]
	if !ok || entry.Document == nil {
		return nil, fmt.Errorf("node %s in file %s: %w", nodeID, fileKey, apperr.ErrNotFound)
	}
	return &File{Name: nr.Name, Root: entry.Document}, nil
}

// CommentAnchor places a comment at an offset inside a node.
type CommentAnchor struct {
	NodeID  string
	OffsetX float64
	OffsetY float64
}

// PostComment posts one comment anchored to a node.
func (c *Client) PostComment(ctx context.Context, fileKey, message string, anchor CommentAnchor) error {
	body := map[string]any{
		"message": message,
		"client_meta": map[string]any{
			"node_id":     anchor.NodeID,
			"node_offset": map[string]float64{"x": anchor.OffsetX, "y": anchor.OffsetY},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+fmt.Sprintf("/files/%s/comments", fileKey), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Figma-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post comment: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.token == "" {
		return &apperr.ConfigError{Key: "figma.token", Msg: "access token not configured"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Figma-Token", c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("figma request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("figma api call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse figma response: %w", err)
	}
	return nil
}

// checkStatus maps HTTP failures onto the shared error taxonomy.
func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("figma API status %d: %w", resp.StatusCode, apperr.ErrUpstreamAuth)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("figma API status 404: %w", apperr.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &apperr.RateLimitError{RetryAfter: 30 * time.Second}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("figma API status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}
