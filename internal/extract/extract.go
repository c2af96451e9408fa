// Package extract recovers a single JSON document from a model's free-text reply.
package extract

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"review_insights/internal/domain"
)

var (
	// first complete fenced block, optional language tag
	fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")
	// dangling markers left by truncated replies
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*")
	trailingFence = regexp.MustCompile("```$")

	errTrailingData = errors.New("trailing data after JSON document")
)

// JSON recovers one JSON value from raw. Attempts, first success wins:
// the cleaned text as a whole, the longest complete bracketed value inside
// it, then a repair of the text from its first opening bracket (for truncated
// replies). Numbers decode as json.Number.
//
// On failure the error is a *domain.ExtractionError carrying the cleaned text.
func JSON(raw string) (any, error) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return nil, &domain.ExtractionError{Cleaned: cleaned}
	}
	if v, err := decode(cleaned); err == nil {
		return v, nil
	}
	if v, ok := outermost(cleaned); ok {
		return v, nil
	}
	if v, ok := repaired(cleaned); ok {
		return v, nil
	}
	return nil, &domain.ExtractionError{Cleaned: cleaned}
}

// Clean returns the body of the first fenced block in raw, or raw without
// dangling fence markers, trimmed of surrounding whitespace.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}

// outermost decodes the first complete value at every opening bracket and
// keeps the longest. Prose brackets before the payload fail to decode or lose
// on length, and brackets in trailing prose only yield shorter fragments.
// Ties go to the later candidate, nearest the end of the reply.
func outermost(s string) (any, bool) {
	var (
		best    any
		bestLen int
		found   bool
	)
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			continue
		}
		n := int(dec.InputOffset())
		if n >= bestLen {
			best, bestLen, found = v, n, true
		}
		// anything opening inside v is nested in it, so shorter
		i += n - 1
	}
	return best, found
}

// repaired closes truncated documents. Only non-empty objects or arrays are
// accepted; anything else would be a guess, not a recovery.
func repaired(s string) (any, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, false
	}
	fixed, err := jsonrepair.RepairJSON(s[start:])
	if err != nil {
		return nil, false
	}
	v, err := decode(strings.TrimSpace(fixed))
	if err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case map[string]any:
		return v, len(t) > 0
	case []any:
		return v, len(t) > 0
	}
	return nil, false
}
