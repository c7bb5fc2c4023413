// Package host defines the contracts between the tracker engine and the chat
// application it augments: the transcript, the extension-prompt slot API, the
// generation lifecycle hooks and the suppression evaluator. The engine owns
// none of these; it is handed implementations at construction time.
package host

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Assistant messages carry alternate replies
// ("swipes"); Text always mirrors Swipes[SwipeID] for those.
type Message struct {
	Role    Role
	Name    string
	Text    string
	SwipeID int
	Swipes  []string
}

// TranscriptReader exposes the host-owned message list. The engine only ever
// reads it; implementations return a copy safe to scan.
type TranscriptReader interface {
	Messages() []Message
}

type SlotKind int

const (
	SlotInChat SlotKind = iota
	SlotBeforePrompt
)

// SlotWriter is the host's extension-prompt slot API. Depth counts backward
// from the newest transcript entry; writing an empty string clears the slot.
type SlotWriter interface {
	SetSlot(name, text string, kind SlotKind, depth int, volatile bool, role Role)
}

type Family string

const (
	FamilyText Family = "text"
	FamilyChat Family = "chat"
)

// GenerationRequest describes one upcoming generation. IsSwipe is scoped to
// the request rather than shared state, so overlapping generations cannot
// clear each other's swipe signal.
type GenerationRequest struct {
	DryRun  bool
	IsSwipe bool
	Family  Family
	// Flags lists instruction sources active for this request, the input to
	// suppression evaluation.
	Flags []string
}

type SuppressionDecision struct {
	ShouldSuppress bool
	SkipMode       string
	Reason         string
}

// SuppressionEvaluator decides whether tracker injection should be skipped
// for a turn. Pure, called once per generation start.
type SuppressionEvaluator interface {
	Evaluate(req GenerationRequest) SuppressionDecision
}

// CompiledMessage is one entry of the host's mutable pre-assembly list. The
// list mirrors transcript order but also contains non-transcript filler such
// as author's notes.
type CompiledMessage struct {
	Text string
}

// ChatMessage is one entry of an assembled chat-completion payload.
type ChatMessage struct {
	Role    Role
	Content string
}

// LifecycleSink receives the host's generation lifecycle events. The engine
// implements it; assembly hooks may fire zero or more times per generation
// depending on API family and must stay idempotent.
type LifecycleSink interface {
	OnGenerationStart(ctx context.Context, req GenerationRequest)
	OnPreAssembly(msgs []*CompiledMessage)
	OnPostAssembly(prompt string) string
	OnChatCompletionReady(msgs []ChatMessage) []ChatMessage
}
