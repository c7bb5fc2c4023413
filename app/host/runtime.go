package host

import (
	"context"
	"strings"
	"sync"

	"github.com/samber/do"
)

type slotEntry struct {
	Text     string
	Kind     SlotKind
	Depth    int
	Volatile bool
	Role     Role
}

// Runtime is an in-memory reference host: transcript, slot store and
// lifecycle dispatch. The real chat frontend replaces it; the demo binary and
// the test suite drive the engine through it.
type Runtime struct {
	mu       sync.RWMutex
	messages []Message
	slots    map[string]slotEntry
	sink     LifecycleSink
}

var (
	_ TranscriptReader = (*Runtime)(nil)
	_ SlotWriter       = (*Runtime)(nil)
)

func NewRuntime(_ *do.Injector) (*Runtime, error) {
	return &Runtime{
		slots: make(map[string]slotEntry),
	}, nil
}

func (r *Runtime) SetSink(sink LifecycleSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sink = sink
}

func (r *Runtime) Messages() []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)

	return out
}

func (r *Runtime) AppendUser(name, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, Message{Role: RoleUser, Name: name, Text: text})
}

func (r *Runtime) AppendAssistant(name, text string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, Message{
		Role:   RoleAssistant,
		Name:   name,
		Text:   text,
		Swipes: []string{text},
	})

	return len(r.messages) - 1
}

// AddSwipe appends an alternate reply to the newest assistant message and
// selects it.
func (r *Runtime) AddSwipe(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Role != RoleAssistant {
			continue
		}

		msg := &r.messages[i]
		msg.Swipes = append(msg.Swipes, text)
		msg.SwipeID = len(msg.Swipes) - 1
		msg.Text = text

		return
	}
}

// ReplaceLast overwrites the currently selected swipe of the newest
// assistant message, the shape of a completed regeneration.
func (r *Runtime) ReplaceLast(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Role != RoleAssistant {
			continue
		}

		msg := &r.messages[i]
		msg.Text = text
		if len(msg.Swipes) == 0 {
			msg.Swipes = []string{text}
		} else {
			msg.Swipes[msg.SwipeID] = text
		}

		return
	}
}

func (r *Runtime) SetSlot(name, text string, kind SlotKind, depth int, volatile bool, role Role) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots[name] = slotEntry{Text: text, Kind: kind, Depth: depth, Volatile: volatile, Role: role}
}

func (r *Runtime) Slot(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.slots[name].Text
}

func (r *Runtime) SlotDepth(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.slots[name].Depth
}

func (r *Runtime) SlotRole(name string) Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.slots[name].Role
}

func (r *Runtime) SlotNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}

	return names
}

// BeginGeneration mimics the host pipeline: for a fresh turn it appends the
// placeholder assistant message first, then fires the start hook.
func (r *Runtime) BeginGeneration(ctx context.Context, req GenerationRequest) {
	if !req.IsSwipe {
		r.AppendAssistant("", "")
	}

	r.mu.RLock()
	sink := r.sink
	r.mu.RUnlock()

	if sink != nil {
		sink.OnGenerationStart(ctx, req)
	}
}

// AssembleFlat renders the transcript into a single prompt string and runs it
// through the post-assembly hook, the text-completion family path.
func (r *Runtime) AssembleFlat() string {
	msgs := r.Messages()

	var builder strings.Builder
	for _, msg := range msgs {
		if msg.Text == "" {
			continue
		}
		builder.WriteString(msg.Text)
		builder.WriteString("\n")
	}

	prompt := builder.String()

	r.mu.RLock()
	sink := r.sink
	r.mu.RUnlock()

	if sink != nil {
		prompt = sink.OnPostAssembly(prompt)
	}

	return prompt
}

// AssembleChat renders the transcript into role/content pairs and runs them
// through the chat-completion hook.
func (r *Runtime) AssembleChat() []ChatMessage {
	msgs := r.Messages()

	out := make([]ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Text == "" {
			continue
		}
		out = append(out, ChatMessage{Role: msg.Role, Content: msg.Text})
	}

	r.mu.RLock()
	sink := r.sink
	r.mu.RUnlock()

	if sink != nil {
		out = sink.OnChatCompletionReady(out)
	}

	return out
}

// CompleteGeneration writes the finished reply into the placeholder (or the
// regenerated swipe) appended by BeginGeneration.
func (r *Runtime) CompleteGeneration(text string) int {
	r.ReplaceLast(text)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Role == RoleAssistant {
			return i
		}
	}

	return -1
}
