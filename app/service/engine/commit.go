package engine

import (
	"log/slog"

	"gmtracker/app/host"
	"gmtracker/app/tracker"
)

// maybeCommit promotes pending to committed when this generation starts a new
// turn, and leaves it untouched for regenerations so every swipe of a turn is
// grounded in identical world state. Callers hold e.mu.
//
// The host appends a placeholder assistant message before the start hook
// fires, so authorship of the actual last turn lives in the second-to-last
// entry. A chat of fewer than two messages has no prior turn to source from.
// When authorship cannot be determined the safe answer is no commit: stale
// data beats committing garbage.
func (e *Service) maybeCommit(mode tracker.Mode, req host.GenerationRequest, msgs []host.Message) {
	if len(msgs) < 2 {
		return
	}

	// The engine's own companion tracker call re-enters the start hook; it
	// must not commit against itself.
	if e.generatingTracker {
		return
	}

	chatLength := len(msgs)

	switch mode {
	case tracker.ModeTogether:
		secondToLastIsUser := msgs[len(msgs)-2].Role == host.RoleUser

		if !secondToLastIsUser || req.IsSwipe || chatLength == e.lastCommitLength {
			return
		}
	default:
		if req.IsSwipe {
			return
		}
	}

	e.committed = e.pending
	e.lastCommitLength = chatLength

	slog.Debug("Committed tracker snapshot", "chat_length", chatLength, "mode", string(mode))
}
