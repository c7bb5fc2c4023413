package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gmtracker/app/config"
	"gmtracker/app/host"
	"gmtracker/app/service/engine"
	"gmtracker/app/tracker"

	_ "embed"

	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/sashabaranov/go-openai"
)

//go:embed tracker_prompt_template.txt
var trackerPromptTemplate string

const (
	maxReasonDuration  = 30 * time.Second
	defaultTemperature = 0.2
	historyWindow      = 6
)

// Service issues the dedicated follow-up call that produces tracker data in
// separate/external modes. In together mode the narrative reply carries the
// tracker inline and this service only parses it.
type Service struct {
	cfg        *config.Config
	engine     *engine.Service
	transcript host.TranscriptReader
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:        do.MustInvoke[*config.Config](di),
		engine:     do.MustInvoke[*engine.Service](di),
		transcript: do.MustInvoke[host.TranscriptReader](di),
	}, nil
}

// CompleteInline handles a finished together-mode reply: the tracker blocks
// are parsed out of the narrative text itself.
func (s *Service) CompleteInline(msgIndex, swipeID int, replyText string) error {
	snap, err := ParseSnapshot(replyText)
	if err != nil {
		slog.Warn("Reply carried no parsable tracker data", "error", err, "telegram", true)
		return fmt.Errorf("failed to parse inline tracker data: %w", err)
	}

	s.engine.CompleteTurn(msgIndex, swipeID, snap)

	return nil
}

// GenerateTracker runs the companion tracker call for the newest assistant
// reply. At most one companion call is in flight at a time; a second request
// is skipped rather than queued. On any failure pending and committed stay at
// their pre-call values.
func (s *Service) GenerateTracker(ctx context.Context) error {
	mode := s.engine.Mode()
	if mode == tracker.ModeTogether {
		return nil
	}

	modelCfg, err := s.modelFor(mode)
	if err != nil {
		slog.Error("Tracker generation not configured", "error", err, "telegram", true)
		return err
	}

	if !s.engine.BeginTrackerGeneration() {
		slog.Warn("Tracker generation already in flight, skipping")
		return nil
	}
	defer s.engine.EndTrackerGeneration()

	msgs := s.transcript.Messages()

	idx := lastAssistantIndex(msgs)
	if idx < 0 {
		return nil
	}

	prompt := s.buildPrompt(msgs, idx)

	ctx, cancel := context.WithTimeout(ctx, maxReasonDuration)
	defer cancel()

	raw, err := s.complete(ctx, modelCfg, prompt)
	if err != nil {
		slog.Error("Tracker generation failed", "error", err, "telegram", true)
		return fmt.Errorf("tracker completion failed: %w", err)
	}

	snap, err := ParseSnapshot(raw)
	if err != nil {
		slog.Warn("Tracker response could not be parsed", "error", err, "telegram", true)
		return fmt.Errorf("failed to parse tracker response: %w", err)
	}

	s.engine.CompleteTurn(idx, msgs[idx].SwipeID, snap)

	return nil
}

// modelFor resolves the endpoint profile for the mode. Misconfiguration is a
// synchronous error raised before any network call.
func (s *Service) modelFor(mode tracker.Mode) (config.ModelConfig, error) {
	var modelCfg config.ModelConfig

	switch mode {
	case tracker.ModeSeparate:
		modelCfg = s.cfg.OpenAI.Tracker
	case tracker.ModeExternal:
		modelCfg = s.cfg.OpenAI.External
	default:
		return config.ModelConfig{}, oops.Errorf("mode %q issues no companion call", string(mode))
	}

	if modelCfg.BaseURL == "" || modelCfg.Model == "" {
		return config.ModelConfig{}, oops.Errorf("tracker endpoint for mode %q is not configured", string(mode))
	}

	return modelCfg, nil
}

func (s *Service) buildPrompt(msgs []host.Message, idx int) string {
	templateValues := map[string]string{
		"tracker":    tracker.RenderBlocks(s.engine.Committed(), tracker.FieldNames),
		"history":    formatHistory(msgs, idx, historyWindow),
		"last_reply": msgs[idx].Text,
		"fields":     fieldTagList(),
	}

	prompt := trackerPromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", value)
	}

	return prompt
}

func (s *Service) complete(ctx context.Context, modelCfg config.ModelConfig, prompt string) (string, error) {
	client := createClient(modelCfg)

	request := openai.ChatCompletionRequest{
		Model: modelCfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxCompletionTokens: 2000,
		Temperature:         defaultTemperature,
	}

	if s.cfg.Tracker.Stream {
		return s.collectStream(ctx, client, request)
	}

	aiResponse, err := client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", fmt.Errorf("no chat completion found")
	}

	return strings.TrimSpace(aiResponse.Choices[0].Message.Content), nil
}

func formatHistory(msgs []host.Message, upTo, window int) string {
	start := upTo - window
	if start < 0 {
		start = 0
	}

	var builder strings.Builder
	for _, msg := range msgs[start:upTo] {
		if msg.Text == "" {
			continue
		}

		name := msg.Name
		if name == "" {
			name = string(msg.Role)
		}

		builder.WriteString(fmt.Sprintf("%s: %s\n", name, msg.Text))
	}

	return strings.TrimRight(builder.String(), "\n")
}

func fieldTagList() string {
	tags := make([]string, 0, len(tracker.FieldNames))
	for _, name := range tracker.FieldNames {
		tags = append(tags, "<"+tracker.BlockTag(name)+">")
	}

	return strings.Join(tags, " ")
}

func lastAssistantIndex(msgs []host.Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == host.RoleAssistant && msgs[i].Text != "" {
			return i
		}
	}

	return -1
}

func (s *Service) Close() error {
	return nil
}
