package tracker

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModeTogether Mode = "together"
	ModeSeparate Mode = "separate"
	ModeExternal Mode = "external"
)

type FieldFormat string

const (
	FormatText FieldFormat = "text"
	FormatJSON FieldFormat = "json"
)

// Field carries one snapshot value together with the representation it arrived
// in. The engine never interprets the value, it only hands it through; the
// format tag exists so that edits keep whichever representation was already in
// use.
type Field struct {
	Format FieldFormat `json:"format"`
	Value  string      `json:"value"`
}

func (f Field) IsZero() bool {
	return f.Value == ""
}

func TextField(value string) Field {
	return Field{Format: FormatText, Value: value}
}

// DetectFormat classifies a raw value for fields that have no prior format.
func DetectFormat(value string) FieldFormat {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}

	return FormatText
}

const (
	FieldUserStats         = "user_stats"
	FieldInfoBox           = "info_box"
	FieldCharacterThoughts = "character_thoughts"
	FieldSpotifyURL        = "spotify_url"
)

// FieldNames lists snapshot fields in render order.
var FieldNames = []string{FieldUserStats, FieldInfoBox, FieldCharacterThoughts, FieldSpotifyURL}

// Snapshot is one side-channel view of world state: stats, location/time,
// thoughts of present characters and an optional music suggestion. Fields are
// replaced wholesale, never merged.
type Snapshot struct {
	UserStats         Field `json:"user_stats"`
	InfoBox           Field `json:"info_box"`
	CharacterThoughts Field `json:"character_thoughts"`
	SpotifyURL        Field `json:"spotify_url,omitempty"`
}

func (s Snapshot) IsZero() bool {
	return s.UserStats.IsZero() && s.InfoBox.IsZero() && s.CharacterThoughts.IsZero() && s.SpotifyURL.IsZero()
}

func (s *Snapshot) field(name string) (*Field, error) {
	switch name {
	case FieldUserStats:
		return &s.UserStats, nil
	case FieldInfoBox:
		return &s.InfoBox, nil
	case FieldCharacterThoughts:
		return &s.CharacterThoughts, nil
	case FieldSpotifyURL:
		return &s.SpotifyURL, nil
	default:
		return nil, fmt.Errorf("unknown tracker field %q", name)
	}
}

func (s Snapshot) Get(name string) (Field, error) {
	f, err := s.field(name)
	if err != nil {
		return Field{}, err
	}

	return *f, nil
}

// Set replaces a field wholesale. The format already in use wins; a previously
// empty field gets classified by content.
func (s *Snapshot) Set(name, value string) error {
	f, err := s.field(name)
	if err != nil {
		return err
	}

	format := f.Format
	if f.IsZero() || format == "" {
		format = DetectFormat(value)
	}

	*f = Field{Format: format, Value: value}

	return nil
}
