package injector

import (
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"gmtracker/app/config"
	"gmtracker/app/host"
	"gmtracker/app/tracker"

	"github.com/samber/do"
)

//go:embed templates/*.txt
var templates embed.FS

// Slot names are fixed; every Apply call accounts for each of them, either
// writing a fragment or clearing it, so nothing carries over from a turn
// where a feature was still enabled.
const (
	SlotInstructions = "tracker_instructions"
	SlotExample      = "tracker_example"
	SlotSummary      = "tracker_summary"
	SlotImmersive    = "tracker_immersive_markup"
	SlotDialogue     = "tracker_dialogue_coloring"
	SlotDeception    = "tracker_deception"
	SlotOmniscience  = "tracker_omniscience_filter"
	SlotMusic        = "tracker_music_suggestion"
	SlotAdventure    = "tracker_adventure_choices"
)

var AllSlots = []string{
	SlotInstructions,
	SlotExample,
	SlotSummary,
	SlotImmersive,
	SlotDialogue,
	SlotDeception,
	SlotOmniscience,
	SlotMusic,
	SlotAdventure,
}

var featureTemplates = map[string]string{
	SlotImmersive:   "templates/immersive_markup.txt",
	SlotDialogue:    "templates/dialogue_coloring.txt",
	SlotDeception:   "templates/deception.txt",
	SlotOmniscience: "templates/omniscience_filter.txt",
	SlotMusic:       "templates/music_suggestion.txt",
	SlotAdventure:   "templates/adventure_choices.txt",
}

type Service struct {
	cfg   *config.Config
	slots host.SlotWriter
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:   do.MustInvoke[*config.Config](di),
		slots: do.MustInvoke[host.SlotWriter](di),
	}, nil
}

// Apply writes every slot for the upcoming generation from the committed
// snapshot. Writes are plain assignments in the host, so repeating a call
// with identical inputs leaves identical host state.
func (s *Service) Apply(mode tracker.Mode, committed tracker.Snapshot, suppressed bool, msgs []host.Message) {
	if suppressed {
		s.ClearAll()
		return
	}

	switch mode {
	case tracker.ModeTogether:
		s.applyInstructions()
		s.applyExample(committed, msgs)
		s.clear(SlotSummary)
	default:
		s.clear(SlotInstructions)
		s.clear(SlotExample)
		s.applySummary(committed)
	}

	s.applyFeatures()
}

// ClearAll empties every named slot; used on suppression and on shutdown of
// the extension so no stale instructions leak into later generations.
func (s *Service) ClearAll() {
	for _, name := range AllSlots {
		s.clear(name)
	}
}

func (s *Service) clear(name string) {
	s.slots.SetSlot(name, "", host.SlotInChat, 0, false, host.RoleSystem)
}

func (s *Service) applyInstructions() {
	text, err := render("templates/instructions.txt", map[string]string{
		"fields": fieldTagList(),
	})
	if err != nil {
		slog.Warn("Skipping instructions slot", "error", err)
		s.clear(SlotInstructions)
		return
	}

	s.slots.SetSlot(SlotInstructions, text, host.SlotInChat, 0, false, host.RoleSystem)
}

// applyExample plants the committed snapshot as if the model had produced it,
// at the depth of the most recent true assistant message. The newest entry is
// the in-flight placeholder and is never the example anchor.
func (s *Service) applyExample(committed tracker.Snapshot, msgs []host.Message) {
	depth := lastAssistantDepth(msgs)

	if depth < 0 || committed.IsZero() {
		s.clear(SlotExample)
		return
	}

	text := tracker.RenderBlocks(committed, tracker.FieldNames)

	s.slots.SetSlot(SlotExample, text, host.SlotInChat, depth, false, host.RoleAssistant)
}

func (s *Service) applySummary(committed tracker.Snapshot) {
	if committed.IsZero() {
		s.clear(SlotSummary)
		return
	}

	text, err := render("templates/summary.txt", map[string]string{
		"tracker": tracker.RenderBlocks(committed, tracker.FieldNames),
	})
	if err != nil {
		slog.Warn("Skipping summary slot", "error", err)
		s.clear(SlotSummary)
		return
	}

	// Informational context, not a pattern to imitate: right before the
	// newest user message, never as a fake assistant turn.
	s.slots.SetSlot(SlotSummary, text, host.SlotInChat, 1, false, host.RoleSystem)
}

// applyFeatures handles each toggle independently; a broken fragment skips
// that one slot and never the others.
func (s *Service) applyFeatures() {
	features := s.cfg.Tracker.Features

	enabled := map[string]bool{
		SlotImmersive:   features.ImmersiveMarkup,
		SlotDialogue:    features.DialogueColoring,
		SlotDeception:   features.Deception,
		SlotOmniscience: features.OmniscienceFilter,
		SlotMusic:       features.MusicSuggestion,
		SlotAdventure:   features.AdventureChoices,
	}

	for _, name := range AllSlots {
		path, ok := featureTemplates[name]
		if !ok {
			continue
		}

		if !enabled[name] {
			s.clear(name)
			continue
		}

		text, err := render(path, nil)
		if err != nil {
			slog.Warn("Skipping feature slot", "slot", name, "error", err)
			s.clear(name)
			continue
		}

		s.slots.SetSlot(name, text, host.SlotInChat, 0, false, host.RoleSystem)
	}
}

func render(path string, values map[string]string) (string, error) {
	data, err := templates.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", path, err)
	}

	text := strings.TrimRight(string(data), "\n")
	for key, value := range values {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}

	return text, nil
}

func fieldTagList() string {
	tags := make([]string, 0, len(tracker.FieldNames))
	for _, name := range tracker.FieldNames {
		tags = append(tags, "<"+tracker.BlockTag(name)+">")
	}

	return strings.Join(tags, " ")
}

// lastAssistantDepth returns the injection depth of the most recent real
// assistant message, skipping the newest entry, or -1 when none exists yet.
func lastAssistantDepth(msgs []host.Message) int {
	for i := len(msgs) - 2; i >= 0; i-- {
		if msgs[i].Role == host.RoleAssistant {
			return len(msgs) - 1 - i
		}
	}

	return -1
}
