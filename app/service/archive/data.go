package archive

import "gmtracker/app/tracker"

// SessionState is the session-level tracker state that survives restarts:
// the two named snapshots plus the commit guard.
type SessionState struct {
	Pending   tracker.Snapshot `json:"pending"`
	Committed tracker.Snapshot `json:"committed"`
	// Chat length at which the last commit happened; re-fired start hooks at
	// the same length must not commit again.
	LastCommitLength int `json:"last_commit_length"`
}

// persistedState is the on-disk layout. Archives are keyed by
// "<messageIndex>:<swipeID>": one snapshot per alternate reply, written when
// that reply was generated and never touched by later turns.
type persistedState struct {
	Session  SessionState                `json:"session"`
	Archives map[string]tracker.Snapshot `json:"archives"`
}
