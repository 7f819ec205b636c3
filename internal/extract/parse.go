package extract

import (
	"encoding/json"
	"errors"
	"strings"

	"calbot/internal/models"
)

// ErrUnparseable means the model reply contained no JSON the pipeline could
// use. Surfaced to the user as a translated error, never retried.
var ErrUnparseable = errors.New("no parseable event found in model response")

// parseDescriptors recovers event descriptors from a model reply that may
// be fenced as markdown or wrapped in explanatory prose. Ordered fallback
// chain: first well-formed non-empty JSON array, then first well-formed
// object, then salvage of every balanced {...} span (recovers partial
// results when the overall array is malformed but individual objects are
// fine). Each attempt's failure is silent; only full exhaustion surfaces.
func parseDescriptors(reply string) ([]models.EventDescriptor, error) {
	if span, ok := firstBalanced(reply, '[', ']'); ok {
		var many []models.EventDescriptor
		if err := json.Unmarshal([]byte(span), &many); err == nil && len(many) > 0 {
			return many, nil
		}
	}

	// When an array opener precedes the first object the model meant to
	// emit a list; taking just the first object would silently drop events,
	// so go straight to span salvage instead.
	arrStart := strings.IndexByte(reply, '[')
	objStart := strings.IndexByte(reply, '{')
	intendedArray := arrStart >= 0 && (objStart < 0 || arrStart < objStart)

	if !intendedArray {
		if span, ok := firstBalanced(reply, '{', '}'); ok {
			var one models.EventDescriptor
			if err := json.Unmarshal([]byte(span), &one); err == nil {
				return []models.EventDescriptor{one}, nil
			}
		}
	}

	var salvaged []models.EventDescriptor
	for _, span := range allBalanced(reply, '{', '}') {
		var one models.EventDescriptor
		if err := json.Unmarshal([]byte(span), &one); err == nil {
			salvaged = append(salvaged, one)
		}
	}
	if len(salvaged) > 0 {
		return salvaged, nil
	}

	return nil, ErrUnparseable
}

// firstBalanced returns the first balanced open...close span in s,
// ignoring brackets inside JSON string literals.
func firstBalanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	for start >= 0 {
		if end := matchBalanced(s, start, open, close); end > start {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], open)
		if next < 0 {
			break
		}
		start += 1 + next
	}
	return "", false
}

// allBalanced returns every non-overlapping balanced open...close span.
func allBalanced(s string, open, close byte) []string {
	var spans []string
	for i := 0; i < len(s); {
		start := strings.IndexByte(s[i:], open)
		if start < 0 {
			break
		}
		start += i
		end := matchBalanced(s, start, open, close)
		if end > start {
			spans = append(spans, s[start:end+1])
			i = end + 1
		} else {
			i = start + 1
		}
	}
	return spans
}

// matchBalanced returns the index of the bracket closing the one at start,
// or -1. Tracks string literals and escapes so braces in values don't
// confuse the count.
func matchBalanced(s string, start int, open, close byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
