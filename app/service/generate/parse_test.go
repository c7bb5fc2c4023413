package generate

import (
	"testing"

	"gmtracker/app/tracker"

	"github.com/stretchr/testify/require"
)

func TestParseTaggedBlocks(t *testing.T) {
	raw := "The goblin retreats into the shadows.\n\n" +
		"<UserStats>\nHP: 8/10\n</UserStats>\n" +
		"<InfoBox>\nLocation: Cave\nTime: Night\n</InfoBox>\n"

	snap, err := ParseSnapshot(raw)
	require.NoError(t, err)

	require.Equal(t, "HP: 8/10", snap.UserStats.Value)
	require.Equal(t, "Location: Cave\nTime: Night", snap.InfoBox.Value)
	require.True(t, snap.CharacterThoughts.IsZero())
}

func TestParseIgnoresUnclosedBlock(t *testing.T) {
	raw := "<UserStats>\nHP: 8/10\n" +
		"<InfoBox>\nLocation: Cave\n</InfoBox>"

	snap, err := ParseSnapshot(raw)
	require.NoError(t, err)

	require.True(t, snap.UserStats.IsZero())
	require.Equal(t, "Location: Cave", snap.InfoBox.Value)
}

func TestParseFencedJSON(t *testing.T) {
	raw := "```json\n" +
		`{"info_box": "Location: Cave", "user_stats": {"hp":8}}` +
		"\n```"

	snap, err := ParseSnapshot(raw)
	require.NoError(t, err)

	require.Equal(t, "Location: Cave", snap.InfoBox.Value)
	require.Equal(t, tracker.FormatText, snap.InfoBox.Format)

	// Structured values pass through as raw JSON.
	require.Equal(t, `{"hp":8}`, snap.UserStats.Value)
	require.Equal(t, tracker.FormatJSON, snap.UserStats.Format)
}

func TestParseRepairsTrailingCommaAndMissingBrace(t *testing.T) {
	raw := `{"info_box": "Location: Cave", "character_thoughts": "Alice: wary",`

	snap, err := ParseSnapshot(raw)
	require.NoError(t, err)

	require.Equal(t, "Location: Cave", snap.InfoBox.Value)
	require.Equal(t, "Alice: wary", snap.CharacterThoughts.Value)
}

func TestParseRepairsUnterminatedString(t *testing.T) {
	raw := `{"info_box": "Location: Cave`

	snap, err := ParseSnapshot(raw)
	require.NoError(t, err)

	require.Equal(t, "Location: Cave", snap.InfoBox.Value)
}

func TestParseSkipsNullAndEmptyValues(t *testing.T) {
	raw := `{"info_box": "Location: Cave", "user_stats": null, "spotify_url": ""}`

	snap, err := ParseSnapshot(raw)
	require.NoError(t, err)

	require.Equal(t, "Location: Cave", snap.InfoBox.Value)
	require.True(t, snap.UserStats.IsZero())
	require.True(t, snap.SpotifyURL.IsZero())
}

func TestParseUnknownFieldsOnlyFails(t *testing.T) {
	_, err := ParseSnapshot(`{"mana": "lots"}`)
	require.Error(t, err)
}

func TestParseGarbageFails(t *testing.T) {
	_, err := ParseSnapshot("The goblin retreats into the shadows.")
	require.Error(t, err)
}

func TestRepairJSONLeavesValidInputAlone(t *testing.T) {
	valid := `{"a": "b", "c": [1, 2]}`
	require.Equal(t, valid, repairJSON(valid))
}

func TestRepairJSONKeepsBracketsInsideStrings(t *testing.T) {
	raw := `{"info_box": "Cave {damp}"`
	require.Equal(t, `{"info_box": "Cave {damp}"}`, repairJSON(raw))
}
