// Package jsonx extracts structured payloads from free-form model
// output. Completions are prose-tolerant: the expected JSON array may
// be preceded or followed by commentary, markdown fences, or partial
// fragments, so extraction scans for the first balanced top-level
// array rather than parsing the whole text.
package jsonx

import "encoding/json"

// ExtractArray locates the first well-formed top-level JSON array in
// text and returns its elements as raw messages. Bracket matching is
// string-aware: brackets inside JSON strings (and escaped quotes) do
// not count. If no parseable array exists, it returns an empty slice
// and false; it never returns an error.
func ExtractArray(text string) ([]json.RawMessage, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '[' {
			continue
		}

		end, ok := matchBracket(text, start)
		if !ok {
			// No balanced close for this open bracket; later opens
			// are nested inside it and cannot be top-level either,
			// but a '[' inside a string literal before this one may
			// still start a valid array, so keep scanning.
			continue
		}

		candidate := text[start : end+1]
		var elems []json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &elems); err == nil {
			return elems, true
		}
		// Balanced but not valid JSON (e.g. "[1, 2" inside prose
		// brackets). Try the next open bracket.
	}

	return nil, false
}

// ExtractObjects parses the first array in text into generic objects,
// dropping elements that are not JSON objects.
func ExtractObjects(text string) ([]map[string]any, bool) {
	raws, ok := ExtractArray(text)
	if !ok {
		return nil, false
	}

	objs := make([]map[string]any, 0, len(raws))
	for _, raw := range raws {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}
		objs = append(objs, obj)
	}
	return objs, true
}

// ExtractStrings parses the first array in text and collects the given
// string field from each object element. Elements missing the field,
// or with a non-string value, are dropped rather than substituted.
func ExtractStrings(text, field string) ([]string, bool) {
	objs, ok := ExtractObjects(text)
	if !ok {
		return nil, false
	}

	values := make([]string, 0, len(objs))
	for _, obj := range objs {
		v, present := obj[field]
		if !present {
			continue
		}
		s, isString := v.(string)
		if !isString || s == "" {
			continue
		}
		values = append(values, s)
	}
	return values, true
}

// matchBracket returns the index of the ']' closing the '[' at start,
// skipping brackets that occur inside string literals.
func matchBracket(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

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
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}
