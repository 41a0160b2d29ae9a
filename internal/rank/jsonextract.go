// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"encoding/json"

	"github.com/pdiddy/deep-research/internal/faults"
)

// ExtractJSON locates the first well-formed JSON object substring in raw
// model output and unmarshals it into out. Model responses routinely wrap
// the JSON in prose or code fences, so the text is treated as untrusted
// and scanned rather than parsed optimistically. A Parse fault is returned
// when no balanced, valid object is found.
func ExtractJSON(raw string, out any) error {
	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' {
			continue
		}
		end, ok := balancedEnd(raw, start)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), out); err == nil {
			return nil
		}
	}
	return faults.New(faults.Parse, "no valid JSON object found in model response")
}

// balancedEnd returns the index of the brace closing the object opened at
// start, tracking string literals and escapes.
func balancedEnd(s string, start int) (int, bool) {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
