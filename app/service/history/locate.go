package history

import "strings"

// Hosts truncate and reformat long messages inside assembled prompts, so an
// exact match is tried first and then progressively shorter trailing
// substrings. The tail survives truncation; the head rarely does.
var suffixLengths = []int{500, 300, 200, 100, 50}

type span struct {
	start int
	end   int
}

// locate finds content inside haystack, preferring the most recent occurrence
// when content repeats. Returns the matched span, shortened to whichever
// suffix actually matched.
func locate(content, haystack string) (span, bool) {
	if content == "" {
		return span{}, false
	}

	if idx := strings.LastIndex(haystack, content); idx >= 0 {
		return span{start: idx, end: idx + len(content)}, true
	}

	for _, length := range suffixLengths {
		if len(content) <= length {
			continue
		}

		suffix := content[len(content)-length:]
		if idx := strings.LastIndex(haystack, suffix); idx >= 0 {
			return span{start: idx, end: idx + length}, true
		}
	}

	return span{}, false
}
