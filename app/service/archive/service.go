package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gmtracker/app/config"
	"gmtracker/app/tracker"

	"github.com/samber/do"
)

const (
	stateFileName = "tracker_state.json"
	saveDebounce  = 2 * time.Second
)

var _ do.Shutdownable = (*Service)(nil)

type Service struct {
	filePath string

	mu        sync.Mutex
	state     persistedState
	saveTimer *time.Timer
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	s := &Service{
		filePath: filepath.Join(cfg.Data.Dir, stateFileName),
		state: persistedState{
			Archives: make(map[string]tracker.Snapshot),
		},
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if err = json.Unmarshal(data, &s.state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	if s.state.Archives == nil {
		s.state.Archives = make(map[string]tracker.Snapshot)
	}

	return nil
}

func archiveKey(msgIndex, swipeID int) string {
	return fmt.Sprintf("%d:%d", msgIndex, swipeID)
}

func (s *Service) Session() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Session
}

func (s *Service) PutSession(session SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Session = session
	s.scheduleSave()
}

// Archive stores the snapshot produced alongside one specific alternate reply.
func (s *Service) Archive(msgIndex, swipeID int, snap tracker.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Archives[archiveKey(msgIndex, swipeID)] = snap
	s.scheduleSave()
}

func (s *Service) Archived(msgIndex, swipeID int) (tracker.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.state.Archives[archiveKey(msgIndex, swipeID)]

	return snap, ok
}

// Clear wipes session snapshots and every archived snapshot, the "clear
// cache" action. Persists immediately rather than debounced.
func (s *Service) Clear() error {
	s.mu.Lock()
	s.state = persistedState{
		Archives: make(map[string]tracker.Snapshot),
	}
	s.mu.Unlock()

	return s.Flush()
}

// scheduleSave debounces disk writes; callers hold s.mu.
func (s *Service) scheduleSave() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}

	s.saveTimer = time.AfterFunc(saveDebounce, func() {
		if err := s.Flush(); err != nil {
			slog.Error("Failed to persist tracker state", "error", err)
		}
	})
}

func (s *Service) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err = os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.mu.Unlock()

	return s.Flush()
}
