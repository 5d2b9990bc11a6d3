// Package store persists the small amount of mutable state the service
// keeps between runs: the selected model and per-model usage telemetry.
// SQLite via the CGo-free driver; writes use upsert-with-merge so
// concurrent writers converge without locking (last-write-wins is
// acceptable for telemetry).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DefaultModel is the read-through fallback when no model has been
// selected yet.
const DefaultModel = "gpt-4o-mini"

const settingSelectedModel = "selected_model"

// Store is the SQLite-backed settings and usage store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// ModelUsage is the telemetry row for one model, keyed by model id.
type ModelUsage struct {
	Model        string    `json:"model"`
	InputTokens  int64     `json:"inputTokens"`
	OutputTokens int64     `json:"outputTokens"`
	Calls        int64     `json:"calls"`
	RateLimited  int64     `json:"rateLimited"`
	LastUsed     time.Time `json:"lastUsed"`
}

// Open initializes the database at path, creating directories and schema
// as needed.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logger.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS model_usage (
	model         TEXT PRIMARY KEY,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	calls         INTEGER NOT NULL DEFAULT 0,
	rate_limited  INTEGER NOT NULL DEFAULT 0,
	last_used     INTEGER NOT NULL DEFAULT 0
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SelectedModel returns the stored model selection, or DefaultModel when
// none was stored.
func (s *Store) SelectedModel(ctx context.Context) string {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingSelectedModel).Scan(&value)
	if err != nil || value == "" {
		return DefaultModel
	}
	return value
}

// SetSelectedModel stores the model selection.
func (s *Store) SetSelectedModel(ctx context.Context, model string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingSelectedModel, model)
	if err != nil {
		return fmt.Errorf("set selected model: %w", err)
	}
	return nil
}

// RecordUsage merges one call's token counts into the model's row.
func (s *Store) RecordUsage(ctx context.Context, model string, inputTokens, outputTokens int64, rateLimited bool) error {
	limited := int64(0)
	if rateLimited {
		limited = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO model_usage (model, input_tokens, output_tokens, calls, rate_limited, last_used)
VALUES (?, ?, ?, 1, ?, ?)
ON CONFLICT(model) DO UPDATE SET
	input_tokens  = input_tokens + excluded.input_tokens,
	output_tokens = output_tokens + excluded.output_tokens,
	calls         = calls + 1,
	rate_limited  = rate_limited + excluded.rate_limited,
	last_used     = excluded.last_used`,
		model, inputTokens, outputTokens, limited, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("record usage for %s: %w", model, err)
	}
	return nil
}

// Usage returns telemetry for every model seen so far, most recent first.
func (s *Store) Usage(ctx context.Context) ([]ModelUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT model, input_tokens, output_tokens, calls, rate_limited, last_used
FROM model_usage ORDER BY last_used DESC`)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		var lastUsed int64
		if err := rows.Scan(&u.Model, &u.InputTokens, &u.OutputTokens, &u.Calls, &u.RateLimited, &lastUsed); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		u.LastUsed = time.UnixMilli(lastUsed)
		out = append(out, u)
	}
	return out, rows.Err()
}
