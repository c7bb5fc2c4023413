// Package bridge exposes tracker operations to the rest of the host's
// extension ecosystem: as langchaingo tools for agent frameworks and over a
// stdio MCP server for everything else.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"gmtracker/app/service/archive"
	"gmtracker/app/service/engine"
	"gmtracker/app/tracker"

	"github.com/samber/do"
	"github.com/tmc/langchaingo/tools"
)

type Service struct {
	engine  *engine.Service
	archive *archive.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		engine:  do.MustInvoke[*engine.Service](di),
		archive: do.MustInvoke[*archive.Service](di),
	}, nil
}

type trackerTool struct {
	name        string
	description string
	call        func(ctx context.Context, input string) (string, error)
}

func (t *trackerTool) Name() string {
	return t.name
}

func (t *trackerTool) Description() string {
	return t.description
}

func (t *trackerTool) Call(ctx context.Context, input string) (string, error) {
	return t.call(ctx, input)
}

// Tools lists the tracker operations in langchaingo's tool shape.
func (s *Service) Tools() []tools.Tool {
	return []tools.Tool{
		&trackerTool{
			name:        "tracker_get_state",
			description: `Get a tracker snapshot. Input must be JSON: {"slot": "pending"} or {"slot": "committed"}.`,
			call: func(_ context.Context, input string) (string, error) {
				var request struct {
					Slot string `json:"slot"`
				}
				if err := json.Unmarshal([]byte(input), &request); err != nil {
					return "", fmt.Errorf("invalid request JSON: %w", err)
				}

				var snap tracker.Snapshot
				switch request.Slot {
				case "pending":
					snap = s.engine.Pending()
				case "committed":
					snap = s.engine.Committed()
				default:
					return "", fmt.Errorf("unknown slot %q", request.Slot)
				}

				result, _ := json.Marshal(snap)
				return string(result), nil
			},
		},
		&trackerTool{
			name:        "tracker_edit_field",
			description: `Edit one tracker field; the edit applies to both pending and committed state. Input must be JSON with field (string) and value (string).`,
			call: func(_ context.Context, input string) (string, error) {
				var request struct {
					Field string `json:"field"`
					Value string `json:"value"`
				}
				if err := json.Unmarshal([]byte(input), &request); err != nil {
					return "", fmt.Errorf("invalid request JSON: %w", err)
				}

				if err := s.engine.EditField(request.Field, request.Value); err != nil {
					return "", err
				}

				return "ok", nil
			},
		},
		&trackerTool{
			name:        "tracker_get_archived",
			description: `Get the snapshot archived with a past assistant message. Input must be JSON with message_index (int) and swipe_id (int).`,
			call: func(_ context.Context, input string) (string, error) {
				var request struct {
					MessageIndex int `json:"message_index"`
					SwipeID      int `json:"swipe_id"`
				}
				if err := json.Unmarshal([]byte(input), &request); err != nil {
					return "", fmt.Errorf("invalid request JSON: %w", err)
				}

				snap, ok := s.archive.Archived(request.MessageIndex, request.SwipeID)
				if !ok {
					return "", fmt.Errorf("no archived snapshot for message %d swipe %d", request.MessageIndex, request.SwipeID)
				}

				result, _ := json.Marshal(snap)
				return string(result), nil
			},
		},
		&trackerTool{
			name:        "tracker_clear",
			description: `Reset tracker state and delete all archived snapshots for the session. Input is ignored.`,
			call: func(_ context.Context, _ string) (string, error) {
				if err := s.engine.ClearCache(); err != nil {
					return "", err
				}

				return "ok", nil
			},
		},
	}
}
