package tracker

import "strings"

// blockTags maps field names to the wire tags the roleplay model reads and
// writes. The tag set is fixed: renderers and the response parser must agree.
var blockTags = map[string]string{
	FieldUserStats:         "UserStats",
	FieldInfoBox:           "InfoBox",
	FieldCharacterThoughts: "CharacterThoughts",
	FieldSpotifyURL:        "SpotifyURL",
}

func BlockTag(name string) string {
	return blockTags[name]
}

// RenderBlocks renders the requested fields as tagged blocks, skipping empty
// ones. Values pass through unchanged whatever their format.
func RenderBlocks(s Snapshot, fields []string) string {
	var builder strings.Builder

	for _, name := range fields {
		f, err := s.Get(name)
		if err != nil || f.IsZero() {
			continue
		}

		tag := blockTags[name]

		builder.WriteString("<" + tag + ">\n")
		builder.WriteString(strings.TrimRight(f.Value, "\n"))
		builder.WriteString("\n</" + tag + ">\n")
	}

	return strings.TrimRight(builder.String(), "\n")
}

// RenderCompact renders the requested fields as a flat block without tags,
// the form used for historical context where the full live layout is too
// verbose.
func RenderCompact(s Snapshot, fields []string) string {
	var parts []string

	for _, name := range fields {
		f, err := s.Get(name)
		if err != nil || f.IsZero() {
			continue
		}

		parts = append(parts, strings.TrimSpace(f.Value))
	}

	return strings.Join(parts, "\n")
}
