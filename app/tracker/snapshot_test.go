package tracker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	require.Equal(t, FormatJSON, DetectFormat(`{"hp": 10}`))
	require.Equal(t, FormatJSON, DetectFormat("  [1, 2]"))
	require.Equal(t, FormatText, DetectFormat("HP: 10"))
	require.Equal(t, FormatText, DetectFormat(""))
}

func TestSetClassifiesFreshField(t *testing.T) {
	var snap Snapshot

	require.NoError(t, snap.Set(FieldUserStats, `{"hp": 10}`))
	require.Equal(t, FormatJSON, snap.UserStats.Format)

	require.NoError(t, snap.Set(FieldInfoBox, "Location: Cave"))
	require.Equal(t, FormatText, snap.InfoBox.Format)
}

func TestSetKeepsExistingFormat(t *testing.T) {
	var snap Snapshot

	require.NoError(t, snap.Set(FieldUserStats, `{"hp": 10}`))
	require.NoError(t, snap.Set(FieldUserStats, "hp is ten now"))

	// An edit never flips the representation the field already uses.
	require.Equal(t, FormatJSON, snap.UserStats.Format)
	require.Equal(t, "hp is ten now", snap.UserStats.Value)
}

func TestSetUnknownField(t *testing.T) {
	var snap Snapshot

	require.Error(t, snap.Set("mana", "lots"))

	_, err := snap.Get("mana")
	require.Error(t, err)
}

func TestSnapshotIsZero(t *testing.T) {
	var snap Snapshot
	require.True(t, snap.IsZero())

	require.NoError(t, snap.Set(FieldSpotifyURL, "https://open.spotify.com/track/x"))
	require.False(t, snap.IsZero())
}

func TestRenderBlocksSkipsEmptyFields(t *testing.T) {
	var snap Snapshot
	require.NoError(t, snap.Set(FieldInfoBox, "Location: Cave\nTime: Night\n"))

	out := RenderBlocks(snap, FieldNames)
	require.Equal(t, "<InfoBox>\nLocation: Cave\nTime: Night\n</InfoBox>", out)
}

func TestRenderBlocksOrder(t *testing.T) {
	var snap Snapshot
	require.NoError(t, snap.Set(FieldUserStats, "HP: 10"))
	require.NoError(t, snap.Set(FieldCharacterThoughts, "Alice: curious"))

	out := RenderBlocks(snap, FieldNames)
	require.Equal(t, "<UserStats>\nHP: 10\n</UserStats>\n<CharacterThoughts>\nAlice: curious\n</CharacterThoughts>", out)
}

func TestRenderBlocksEmptySnapshot(t *testing.T) {
	require.Equal(t, "", RenderBlocks(Snapshot{}, FieldNames))
}

func TestRenderCompact(t *testing.T) {
	var snap Snapshot
	require.NoError(t, snap.Set(FieldUserStats, "HP: 10"))
	require.NoError(t, snap.Set(FieldInfoBox, "  Location: Cave  "))

	require.Equal(t, "Location: Cave", RenderCompact(snap, []string{FieldInfoBox}))
	require.Equal(t, "HP: 10\nLocation: Cave", RenderCompact(snap, []string{FieldUserStats, FieldInfoBox}))
	require.Equal(t, "", RenderCompact(snap, []string{FieldCharacterThoughts}))
}

func TestBlockTag(t *testing.T) {
	require.Equal(t, "InfoBox", BlockTag(FieldInfoBox))
	require.Equal(t, "", BlockTag("mana"))
}
