package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"gmtracker/app/tracker"
)

// ParseSnapshot turns raw model output into a snapshot. Tagged blocks are the
// primary wire format; a lenient JSON fallback handles models that answer
// with a (possibly malformed) object instead.
func ParseSnapshot(raw string) (tracker.Snapshot, error) {
	cleaned := cleanup(raw)

	if snap, ok := parseBlocks(cleaned); ok {
		return snap, nil
	}

	snap, err := parseJSON(cleaned)
	if err != nil {
		return tracker.Snapshot{}, fmt.Errorf("no tracker data found: %w", err)
	}

	return snap, nil
}

func cleanup(raw string) string {
	result := strings.TrimSpace(raw)
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")
	result = strings.TrimSpace(result)

	return result
}

func parseBlocks(text string) (tracker.Snapshot, bool) {
	var snap tracker.Snapshot
	found := false

	for _, name := range tracker.FieldNames {
		tag := tracker.BlockTag(name)

		open := strings.Index(text, "<"+tag+">")
		if open < 0 {
			continue
		}

		rest := text[open+len(tag)+2:]

		closeIdx := strings.Index(rest, "</"+tag+">")
		if closeIdx < 0 {
			continue
		}

		value := strings.TrimSpace(rest[:closeIdx])
		if value == "" {
			continue
		}

		if err := snap.Set(name, value); err != nil {
			continue
		}

		found = true
	}

	return snap, found
}

func parseJSON(text string) (tracker.Snapshot, error) {
	payload := make(map[string]json.RawMessage)

	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		repaired := repairJSON(text)
		if err = json.Unmarshal([]byte(repaired), &payload); err != nil {
			return tracker.Snapshot{}, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	var snap tracker.Snapshot
	found := false

	for _, name := range tracker.FieldNames {
		raw, ok := payload[name]
		if !ok {
			continue
		}

		var value string
		if len(raw) > 0 && raw[0] == '"' {
			if err := json.Unmarshal(raw, &value); err != nil {
				continue
			}
		} else {
			value = string(raw)
		}

		if strings.TrimSpace(value) == "" || value == "null" {
			continue
		}

		if err := snap.Set(name, value); err != nil {
			continue
		}

		found = true
	}

	if !found {
		return tracker.Snapshot{}, fmt.Errorf("payload carried no known fields")
	}

	return snap, nil
}

// repairJSON fixes the structural damage models typically leave behind:
// trailing commas and dropped closing brackets. Anything worse still fails.
func repairJSON(text string) string {
	text = strings.TrimSpace(text)

	var (
		builder  strings.Builder
		stack    []byte
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			builder.WriteByte(c)

			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		case ',':
			if next := nextNonSpace(text, i+1); next == '}' || next == ']' || next == 0 {
				continue
			}
		}

		builder.WriteByte(c)
	}

	if inString {
		builder.WriteByte('"')
	}

	for i := len(stack) - 1; i >= 0; i-- {
		builder.WriteByte(stack[i])
	}

	return builder.String()
}

func nextNonSpace(text string, from int) byte {
	for i := from; i < len(text); i++ {
		switch text[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return text[i]
		}
	}

	return 0
}
