package feedback

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/apperr"
)

// excerptLen bounds the diagnostic excerpt carried by ParseError.
const excerptLen = 200

// Parser recovers feedback items from raw model output. It holds no
// state beyond a logger; Parse is idempotent and side-effect free so it
// can be exercised against a corpus of recorded responses without the
// network call.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a Parser. A nil logger is replaced with a no-op one.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse extracts a validated feedback array from raw model text.
// Recovery attempts, first success wins: strip markdown fences, then scan
// for the first top-level [...] span. allowed is used only for the
// off-category warning; out-of-set items are kept.
func (p *Parser) Parse(raw string, allowed []string) ([]Item, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &apperr.EmptyResponseError{}
	}

	candidate := stripFences(trimmed)
	if !strings.HasPrefix(candidate, "[") {
		span := firstArraySpan(trimmed)
		if span == "" {
			return nil, &apperr.ParseError{Excerpt: excerpt(trimmed)}
		}
		candidate = span
	}

	var items []Item
	if err := json.Unmarshal([]byte(candidate), &items); err != nil {
		// The candidate may start with a valid array but carry trailing
		// prose ("[...] Hope this helps!"), which fails a whole-string
		// unmarshal. Cut the first balanced span and retry before giving up.
		span := firstArraySpan(trimmed)
		if span == "" || span == candidate {
			return nil, &apperr.ParseError{Excerpt: excerpt(candidate), Cause: err}
		}
		if err := json.Unmarshal([]byte(span), &items); err != nil {
			return nil, &apperr.ParseError{Excerpt: excerpt(span), Cause: err}
		}
	}

	now := time.Now().UnixMilli()
	allowedSet := make(map[string]bool, len(allowed))
	for _, c := range allowed {
		allowedSet[c] = true
	}
	for i := range items {
		// Model-supplied ids are overwritten unconditionally.
		items[i].ID = fmt.Sprintf("feedback-%d-%d", i, now)
		if len(allowedSet) > 0 && !allowedSet[items[i].Category] {
			p.logger.Warn("feedback item outside allowed categories",
				zap.String("id", items[i].ID),
				zap.String("category", items[i].Category))
		}
	}

	p.logger.Debug("parsed feedback", zap.Int("items", len(items)))
	return items, nil
}

// stripFences removes a leading/trailing markdown code fence if present.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// firstArraySpan returns the first top-level [...] span in s, or "".
// It is a byte-level state machine that tracks string and escape state so
// brackets inside string values do not confuse the depth count. Scanning
// bytes is safe for ASCII delimiters: UTF-8 never encodes them inside a
// multi-byte sequence.
func firstArraySpan(s string) string {
	var depth int
	var start = -1
	var inString, escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			// Only strings opened inside the array matter; quotes in the
			// surrounding prose cannot contain a top-level bracket we care
			// about more than the one we are already tracking.
			if depth > 0 {
				inString = true
			}
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func excerpt(s string) string {
	if len(s) > excerptLen {
		return s[:excerptLen]
	}
	return s
}
