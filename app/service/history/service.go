package history

import (
	"log/slog"
	"strings"

	"gmtracker/app/config"
	"gmtracker/app/host"
	"gmtracker/app/service/archive"
	"gmtracker/app/tracker"

	"github.com/samber/do"
)

const positionUserMessageEnd = "user_message_end"

type Service struct {
	cfg     *config.Config
	archive *archive.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:     do.MustInvoke[*config.Config](di),
		archive: do.MustInvoke[*archive.Service](di),
	}, nil
}

// Prepare builds the index→context map for one generation: archived
// snapshots of past assistant replies (their currently selected swipe),
// trimmed to the persisted fields, preamble-wrapped, keyed by the assistant
// message itself or by the user message that prompted it.
func (s *Service) Prepare(msgs []host.Message) Map {
	m := newMap()

	limit := s.cfg.Tracker.HistoryDepth
	count := 0

	for i := len(msgs) - 1; i >= 0; i-- {
		if limit > 0 && count >= limit {
			break
		}

		msg := msgs[i]
		if msg.Role != host.RoleAssistant {
			continue
		}

		snap, ok := s.archive.Archived(i, msg.SwipeID)
		if !ok {
			continue
		}

		body := tracker.RenderCompact(snap, s.cfg.Tracker.PersistFields)
		if body == "" {
			continue
		}

		target := i
		if s.cfg.Tracker.InjectionPosition == positionUserMessageEnd {
			target = precedingUserIndex(msgs, i)
			if target < 0 {
				slog.Debug("No preceding user message for historical context", "index", i)
				continue
			}
		}

		entry := "\n" + s.cfg.Tracker.Preamble + "\n" + body

		// Several sources can land on one target; concatenate, never
		// overwrite.
		m.entries[target] += entry
		count++
	}

	return m
}

func precedingUserIndex(msgs []host.Message, from int) int {
	for i := from - 1; i >= 0; i-- {
		if msgs[i].Role == host.RoleUser {
			return i
		}
	}

	return -1
}

// InjectMessages appends context strings into the host's mutable
// pre-assembly list. The list mirrors transcript order but carries extra
// filler entries (author's notes, out-of-character insertions), so transcript
// entries are aligned positionally by forward scan and anything that does not
// match is skipped as filler. Reports whether anything was injected.
func (s *Service) InjectMessages(m Map, transcript []host.Message, compiled []*host.CompiledMessage) bool {
	injected := false
	next := 0

	for ti, msg := range transcript {
		if msg.Text == "" {
			continue
		}

		found := -1
		for k := next; k < len(compiled); k++ {
			if _, ok := locate(msg.Text, compiled[k].Text); ok {
				found = k
				break
			}
		}

		entry, wants := m.Context(ti)

		if found < 0 {
			if wants {
				slog.Debug("Transcript message missing from pre-assembly list", "index", ti)
			}
			continue
		}

		next = found + 1

		if !wants || strings.Contains(compiled[found].Text, entry) {
			continue
		}

		compiled[found].Text += entry
		injected = true
	}

	return injected
}

// InjectFlat splices context strings into an already-assembled flat prompt by
// locating each target message's text. Highest index first: an insertion
// never shifts the offsets of a lower-index insertion later in the pass.
func (s *Service) InjectFlat(m Map, transcript []host.Message, prompt string) string {
	for _, idx := range m.TargetsDesc() {
		entry, _ := m.Context(idx)

		if idx >= len(transcript) || transcript[idx].Text == "" {
			continue
		}

		if strings.Contains(prompt, entry) {
			continue
		}

		sp, ok := locate(transcript[idx].Text, prompt)
		if !ok {
			slog.Debug("History target not found in assembled prompt", "index", idx)
			continue
		}

		prompt = prompt[:sp.end] + entry + prompt[sp.end:]
	}

	return prompt
}

// FixupFlat is the reduced mode the flat adapter runs in once the
// pre-assembly adapter already injected this generation: no re-injection,
// just whitespace normalization around the preamble wrapper.
func (s *Service) FixupFlat(prompt string) string {
	pre := s.cfg.Tracker.Preamble
	if pre == "" {
		return prompt
	}

	for strings.Contains(prompt, "\n\n\n"+pre) {
		prompt = strings.ReplaceAll(prompt, "\n\n\n"+pre, "\n\n"+pre)
	}

	return prompt
}

// InjectChat appends context strings into assembled role/content pairs,
// scanning in encounter order and appending to the first matching entry.
func (s *Service) InjectChat(m Map, transcript []host.Message, msgs []host.ChatMessage) []host.ChatMessage {
	next := 0

	for _, idx := range m.TargetsAsc() {
		entry, _ := m.Context(idx)

		if idx >= len(transcript) || transcript[idx].Text == "" {
			continue
		}

		found := -1
		for k := next; k < len(msgs); k++ {
			if _, ok := locate(transcript[idx].Text, msgs[k].Content); ok {
				found = k
				break
			}
		}

		if found < 0 {
			slog.Debug("History target not found in chat messages", "index", idx)
			continue
		}

		next = found + 1

		if !strings.Contains(msgs[found].Content, entry) {
			msgs[found].Content += entry
		}
	}

	return msgs
}
