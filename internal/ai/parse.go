package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/autofiller/internal/form"
)

// ParseValues extracts the first JSON object from a model answer and converts its
// members to strings.
func ParseValues(raw string) (form.Mapping, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(obj), &data); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	return CoerceValues(data), nil
}

// ExtractJSONObject returns the first well-formed JSON object embedded in raw, after
// stripping Markdown code fences. Braces inside JSON strings are ignored while
// scanning.
func ExtractJSONObject(raw string) (string, error) {
	text := stripFences(raw)

	for start := strings.IndexByte(text, '{'); start != -1; {
		if end := matchBrace(text, start); end != -1 {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}

	return "", ErrNoJSON
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}

	return strings.TrimSpace(raw)
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(s string, start int) int {
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
				return i
			}
		}
	}

	return -1
}

// CoerceValues converts decoded JSON members to strings. Null and empty members are
// dropped, arrays are joined with ", ", nested objects are kept as JSON text.
func CoerceValues(data map[string]any) form.Mapping {
	values := make(form.Mapping, len(data))
	for key, v := range data {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if s := coerceString(v); s != "" {
			values[key] = s
		}
	}

	return values
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		bytes, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(bytes)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	default:
		var s string
		if err := mapstructure.WeakDecode(val, &s); err != nil {
			return fmt.Sprintf("%v", val)
		}
		return strings.TrimSpace(s)
	}
}
