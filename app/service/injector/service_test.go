package injector

import (
	"testing"

	"gmtracker/app/config"
	"gmtracker/app/host"
	"gmtracker/app/tracker"

	"github.com/samber/do"
	"github.com/stretchr/testify/require"
)

func newTestInjector(t *testing.T, mutate func(cfg *config.Config)) (*Service, *host.Runtime) {
	t.Helper()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	if mutate != nil {
		mutate(cfg)
	}

	di := do.New()
	t.Cleanup(func() {
		_ = di.Shutdown()
	})

	do.ProvideValue(di, cfg)
	do.Provide(di, host.NewRuntime)
	do.Provide(di, func(i *do.Injector) (host.SlotWriter, error) {
		return do.MustInvoke[*host.Runtime](i), nil
	})
	do.Provide(di, New)

	return do.MustInvoke[*Service](di), do.MustInvoke[*host.Runtime](di)
}

func committedSnapshot() tracker.Snapshot {
	var snap tracker.Snapshot
	_ = snap.Set(tracker.FieldInfoBox, "Location: Tavern")
	_ = snap.Set(tracker.FieldUserStats, "HP: 10")

	return snap
}

func chatWithHistory() []host.Message {
	return []host.Message{
		{Role: host.RoleUser, Text: "Hello"},
		{Role: host.RoleAssistant, Text: "Hi there"},
		{Role: host.RoleUser, Text: "What next?"},
		{Role: host.RoleAssistant, Text: ""},
	}
}

func TestTogetherModeWritesInstructionsAndExample(t *testing.T) {
	svc, runtime := newTestInjector(t, nil)

	committed := committedSnapshot()
	svc.Apply(tracker.ModeTogether, committed, false, chatWithHistory())

	instructions := runtime.Slot(SlotInstructions)
	require.NotEmpty(t, instructions)
	require.Contains(t, instructions, "<InfoBox>")
	require.Contains(t, instructions, "<UserStats>")

	example := runtime.Slot(SlotExample)
	require.Equal(t, tracker.RenderBlocks(committed, tracker.FieldNames), example)
	require.Equal(t, host.RoleAssistant, runtime.SlotRole(SlotExample))

	// The newest entry is the in-flight placeholder; the anchor is the real
	// assistant reply at index 1, depth 4-1-1.
	require.Equal(t, 2, runtime.SlotDepth(SlotExample))

	require.Empty(t, runtime.Slot(SlotSummary))
}

func TestTogetherModeWithoutAnchorClearsExample(t *testing.T) {
	svc, runtime := newTestInjector(t, nil)

	msgs := []host.Message{
		{Role: host.RoleUser, Text: "Hello"},
		{Role: host.RoleAssistant, Text: ""},
	}

	svc.Apply(tracker.ModeTogether, committedSnapshot(), false, msgs)

	require.NotEmpty(t, runtime.Slot(SlotInstructions))
	require.Empty(t, runtime.Slot(SlotExample))
}

func TestTogetherModeWithEmptyCommittedClearsExample(t *testing.T) {
	svc, runtime := newTestInjector(t, nil)

	svc.Apply(tracker.ModeTogether, tracker.Snapshot{}, false, chatWithHistory())

	require.NotEmpty(t, runtime.Slot(SlotInstructions))
	require.Empty(t, runtime.Slot(SlotExample))
}

func TestSeparateModeWritesSummary(t *testing.T) {
	svc, runtime := newTestInjector(t, nil)

	committed := committedSnapshot()
	svc.Apply(tracker.ModeSeparate, committed, false, chatWithHistory())

	summary := runtime.Slot(SlotSummary)
	require.Contains(t, summary, "Location: Tavern")
	require.Equal(t, 1, runtime.SlotDepth(SlotSummary))
	require.Equal(t, host.RoleSystem, runtime.SlotRole(SlotSummary))

	require.Empty(t, runtime.Slot(SlotInstructions))
	require.Empty(t, runtime.Slot(SlotExample))
}

func TestSeparateModeWithEmptyCommittedClearsSummary(t *testing.T) {
	svc, runtime := newTestInjector(t, nil)

	svc.Apply(tracker.ModeSeparate, tracker.Snapshot{}, false, chatWithHistory())

	require.Empty(t, runtime.Slot(SlotSummary))
}

func TestSuppressionClearsEverySlot(t *testing.T) {
	svc, runtime := newTestInjector(t, func(cfg *config.Config) {
		cfg.Tracker.Features.ImmersiveMarkup = true
		cfg.Tracker.Features.MusicSuggestion = true
	})

	svc.Apply(tracker.ModeTogether, committedSnapshot(), false, chatWithHistory())
	require.NotEmpty(t, runtime.Slot(SlotInstructions))
	require.NotEmpty(t, runtime.Slot(SlotImmersive))

	svc.Apply(tracker.ModeTogether, committedSnapshot(), true, chatWithHistory())

	for _, name := range AllSlots {
		require.Empty(t, runtime.Slot(name), "slot %s", name)
	}
}

func TestFeatureTogglesAreIndependent(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Tracker.Features.Deception = true
	cfg.Tracker.Features.AdventureChoices = true

	di := do.New()
	t.Cleanup(func() {
		_ = di.Shutdown()
	})

	do.ProvideValue(di, cfg)
	do.Provide(di, host.NewRuntime)
	do.Provide(di, func(i *do.Injector) (host.SlotWriter, error) {
		return do.MustInvoke[*host.Runtime](i), nil
	})
	do.Provide(di, New)

	svc := do.MustInvoke[*Service](di)
	runtime := do.MustInvoke[*host.Runtime](di)

	svc.Apply(tracker.ModeTogether, committedSnapshot(), false, chatWithHistory())

	require.NotEmpty(t, runtime.Slot(SlotDeception))
	require.NotEmpty(t, runtime.Slot(SlotAdventure))
	require.Empty(t, runtime.Slot(SlotImmersive))
	require.Empty(t, runtime.Slot(SlotDialogue))

	// Disabling one feature clears only its slot on the next pass.
	cfg.Tracker.Features.Deception = false
	svc.Apply(tracker.ModeTogether, committedSnapshot(), false, chatWithHistory())

	require.Empty(t, runtime.Slot(SlotDeception))
	require.NotEmpty(t, runtime.Slot(SlotAdventure))
}

func TestApplyIsIdempotent(t *testing.T) {
	svc, runtime := newTestInjector(t, nil)

	committed := committedSnapshot()
	msgs := chatWithHistory()

	svc.Apply(tracker.ModeTogether, committed, false, msgs)
	first := runtime.Slot(SlotExample)

	svc.Apply(tracker.ModeTogether, committed, false, msgs)
	require.Equal(t, first, runtime.Slot(SlotExample))
}
