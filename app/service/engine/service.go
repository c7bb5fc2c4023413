// Package engine sequences the tracker state machine against the host's
// generation lifecycle: IDLE → STARTED → (ASSEMBLING)* → COMPLETED → IDLE.
// All hooks run synchronously on the host's event callbacks; the engine owns
// no background work.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"gmtracker/app/config"
	"gmtracker/app/host"
	"gmtracker/app/service/archive"
	"gmtracker/app/service/history"
	"gmtracker/app/service/injector"
	"gmtracker/app/tracker"

	"github.com/samber/do"
)

type Service struct {
	cfg        *config.Config
	transcript host.TranscriptReader
	suppress   host.SuppressionEvaluator
	injector   *injector.Service
	history    *history.Service
	archive    *archive.Service

	mu                sync.Mutex
	pending           tracker.Snapshot
	committed         tracker.Snapshot
	lastCommitLength  int
	generatingTracker bool
	gen               *generationState
}

var _ host.LifecycleSink = (*Service)(nil)

func New(di *do.Injector) (*Service, error) {
	archiveSvc := do.MustInvoke[*archive.Service](di)
	session := archiveSvc.Session()

	return &Service{
		cfg:              do.MustInvoke[*config.Config](di),
		transcript:       do.MustInvoke[host.TranscriptReader](di),
		suppress:         do.MustInvoke[host.SuppressionEvaluator](di),
		injector:         do.MustInvoke[*injector.Service](di),
		history:          do.MustInvoke[*history.Service](di),
		archive:          archiveSvc,
		pending:          session.Pending,
		committed:        session.Committed,
		lastCommitLength: session.LastCommitLength,
	}, nil
}

func (e *Service) Mode() tracker.Mode {
	return tracker.Mode(e.cfg.Tracker.Mode)
}

// OnGenerationStart runs the STARTED sequence: suppression, commit, slot
// injection, historical-context preparation — in that order. A dry run
// short-circuits everything.
func (e *Service) OnGenerationStart(_ context.Context, req host.GenerationRequest) {
	if req.DryRun {
		e.mu.Lock()
		e.gen = nil
		e.mu.Unlock()

		return
	}

	decision := e.suppress.Evaluate(req)
	if decision.ShouldSuppress {
		slog.Info("Tracker injection suppressed for this turn", "reason", decision.Reason)
	}

	msgs := e.transcript.Messages()
	mode := e.Mode()

	state := &generationState{suppressed: decision.ShouldSuppress}

	e.mu.Lock()
	e.maybeCommit(mode, req, msgs)
	committed := e.committed
	e.gen = state
	e.mu.Unlock()

	e.injector.Apply(mode, committed, state.suppressed, msgs)

	if !state.suppressed {
		state.history = e.history.Prepare(msgs)
	}

	e.persistSession()
}

// OnPreAssembly splices historical context into the host's mutable message
// list before assembly. Safe to fire more than once per generation.
func (e *Service) OnPreAssembly(msgs []*host.CompiledMessage) {
	state := e.currentGeneration()
	if state == nil || state.suppressed || state.history.Len() == 0 {
		return
	}

	if e.history.InjectMessages(state.history, e.transcript.Messages(), msgs) {
		state.preInjected = true
	}
}

// OnPostAssembly splices historical context into a flat assembled prompt, or
// only normalizes whitespace when the pre-assembly adapter already ran.
func (e *Service) OnPostAssembly(prompt string) string {
	state := e.currentGeneration()
	if state == nil || state.suppressed || state.history.Len() == 0 {
		return prompt
	}

	if state.preInjected {
		return e.history.FixupFlat(prompt)
	}

	return e.history.InjectFlat(state.history, e.transcript.Messages(), prompt)
}

// OnChatCompletionReady splices historical context into assembled
// role/content pairs for chat-completion APIs.
func (e *Service) OnChatCompletionReady(msgs []host.ChatMessage) []host.ChatMessage {
	state := e.currentGeneration()
	if state == nil || state.suppressed || state.history.Len() == 0 || state.preInjected {
		return msgs
	}

	return e.history.InjectChat(state.history, e.transcript.Messages(), msgs)
}

func (e *Service) currentGeneration() *generationState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.gen
}

func (e *Service) Pending() tracker.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.pending
}

func (e *Service) Committed() tracker.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.committed
}

// SetPending replaces the display snapshot with freshly parsed tracker data.
// Committed stays as is until the next turn advances.
func (e *Service) SetPending(snap tracker.Snapshot) {
	e.mu.Lock()
	e.pending = snap
	e.mu.Unlock()

	e.persistSession()
}

// CompleteTurn records the snapshot produced by a finished generation: it
// becomes the new pending state and is archived against the reply (and the
// specific alternate reply) it was generated with.
func (e *Service) CompleteTurn(msgIndex, swipeID int, snap tracker.Snapshot) {
	e.mu.Lock()
	e.pending = snap
	e.mu.Unlock()

	e.archive.Archive(msgIndex, swipeID, snap)
	e.persistSession()
}

// EditField applies a direct user edit. Edits are ground truth, not a
// proposal, so they bypass the commit protocol and land in both slots at
// once; a swipe after an edit still sees the edited state.
func (e *Service) EditField(name, value string) error {
	e.mu.Lock()

	if err := e.pending.Set(name, value); err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.committed.Set(name, value); err != nil {
		e.mu.Unlock()
		return err
	}

	e.mu.Unlock()

	e.persistSession()

	return nil
}

// ClearCache resets both snapshots and deletes every archived snapshot for
// the session.
func (e *Service) ClearCache() error {
	e.mu.Lock()
	e.pending = tracker.Snapshot{}
	e.committed = tracker.Snapshot{}
	e.lastCommitLength = 0
	e.gen = nil
	e.mu.Unlock()

	e.injector.ClearAll()

	return e.archive.Clear()
}

// BeginTrackerGeneration claims the single companion-generation slot for
// separate/external modes. Returns false when one is already in flight.
func (e *Service) BeginTrackerGeneration() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generatingTracker {
		return false
	}

	e.generatingTracker = true

	return true
}

func (e *Service) EndTrackerGeneration() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.generatingTracker = false
}

func (e *Service) persistSession() {
	e.mu.Lock()
	session := archive.SessionState{
		Pending:          e.pending,
		Committed:        e.committed,
		LastCommitLength: e.lastCommitLength,
	}
	e.mu.Unlock()

	e.archive.PutSession(session)
}

func (e *Service) Close() error {
	return nil
}
