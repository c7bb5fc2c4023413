package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocateExactMatch(t *testing.T) {
	haystack := "prefix HELLO suffix"

	sp, ok := locate("HELLO", haystack)
	require.True(t, ok)
	require.Equal(t, 7, sp.start)
	require.Equal(t, 12, sp.end)
}

func TestLocatePrefersLastOccurrence(t *testing.T) {
	haystack := "HELLO middle HELLO end"

	sp, ok := locate("HELLO", haystack)
	require.True(t, ok)
	require.Equal(t, 13, sp.start)
}

func TestLocateEmptyContent(t *testing.T) {
	_, ok := locate("", "anything")
	require.False(t, ok)
}

func TestLocateNoMatch(t *testing.T) {
	_, ok := locate("needle", "pure haystack")
	require.False(t, ok)
}

func TestLocateSuffixFallbackOnTruncation(t *testing.T) {
	// A long message of which the assembled prompt only kept the last 80
	// characters. No suffix step fits inside 80 except the 50-character one.
	content := strings.Repeat("x", 520) + strings.Repeat("y", 80)
	kept := content[len(content)-80:]
	haystack := "before|" + kept + "|after"

	sp, ok := locate(content, haystack)
	require.True(t, ok)

	// The match snaps to the 50-character suffix inside the kept fragment.
	require.Equal(t, strings.Repeat("y", 50), haystack[sp.start:sp.end])
	require.Equal(t, len("before|")+80, sp.end)
}

func TestLocateSkipsSuffixesLongerThanContent(t *testing.T) {
	// Content shorter than every suffix step: exact match or nothing.
	content := strings.Repeat("z", 40)

	_, ok := locate(content, "no z runs here")
	require.False(t, ok)

	sp, ok := locate(content, "pad "+content)
	require.True(t, ok)
	require.Equal(t, 4, sp.start)
}
