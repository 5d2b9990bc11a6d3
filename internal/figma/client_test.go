package figma

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/apperr"
)

func testClient(srvURL string) *Client {
	return NewClientWithConfig(ClientConfig{
		Token:   "tok",
		BaseURL: srvURL,
		Timeout: 5 * time.Second,
	}, nil)
}

func TestGetFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Figma-Token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"name":"My File","document":{"id":"0:1","name":"Page","type":"CANVAS"}}`))
	}))
	defer srv.Close()

	file, err := testClient(srv.URL).GetFile(context.Background(), "key123")
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if file.Name != "My File" || file.Root == nil || file.Root.ID != "0:1" {
		t.Fatalf("file = %+v", file)
	}
}

func TestGetNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "10:5" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"name":"My File","nodes":{"10:5":{"document":{"id":"10:5","name":"Card","type":"FRAME"}}}}`))
	}))
	defer srv.Close()

	file, err := testClient(srv.URL).GetNode(context.Background(), "key123", "10:5")
	if err != nil {
		t.Fatalf("GetNode() error = %v", err)
	}
	if file.Root.ID != "10:5" {
		t.Fatalf("Root = %+v", file.Root)
	}
}

func TestGetNode_MissingEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"My File","nodes":{}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GetNode(context.Background(), "key123", "10:5")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestGetFile_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, func(err error) bool { return errors.Is(err, apperr.ErrUpstreamAuth) }},
		{http.StatusForbidden, func(err error) bool { return errors.Is(err, apperr.ErrUpstreamAuth) }},
		{http.StatusNotFound, func(err error) bool { return errors.Is(err, apperr.ErrNotFound) }},
		{http.StatusTooManyRequests, func(err error) bool {
			var rl *apperr.RateLimitError
			return errors.As(err, &rl)
		}},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := testClient(srv.URL).GetFile(context.Background(), "key")
		if !tt.check(err) {
			t.Fatalf("status %d mapped to %v", tt.status, err)
		}
		srv.Close()
	}
}

func TestGetFile_NoToken(t *testing.T) {
	c := NewClient("", nil)
	_, err := c.GetFile(context.Background(), "key")
	var cfgErr *apperr.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want ConfigError", err)
	}
}

func TestPostComment(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(srv.URL).PostComment(context.Background(), "key123", "msg",
		CommentAnchor{NodeID: "5:1", OffsetX: 24, OffsetY: 24})
	if err != nil {
		t.Fatalf("PostComment() error = %v", err)
	}
	if gotPath != "/files/key123/comments" {
		t.Fatalf("path = %q", gotPath)
	}
}
