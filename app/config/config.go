package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log     Log     `yaml:"log"`
	Data    Data    `yaml:"data"`
	Tracker Tracker `yaml:"tracker"`
	OpenAI  OpenAI  `yaml:"openai"`
	MCP     MCP     `yaml:"mcp"`
}

type Tracker struct {
	// Generation mode: together emits tracker data inline with the narrative
	// reply, separate/external issue a dedicated follow-up call
	Mode string `yaml:"mode" example:"together" validate:"required,oneof=together separate external"`
	// How many past assistant messages receive historical context, 0 = all
	HistoryDepth int `yaml:"history_depth" example:"5"`
	// Where historical context attaches: the assistant message itself or the
	// user message that prompted it
	InjectionPosition string `yaml:"injection_position" example:"assistant_message_end" validate:"omitempty,oneof=assistant_message_end user_message_end"`
	// Snapshot fields worth carrying into past-turn context
	PersistFields []string `yaml:"persist_fields" example:"info_box"`
	// Preamble line wrapped around every historical context block
	Preamble string `yaml:"preamble" example:"[World state at this point]"`
	// Request flags that suppress tracker injection for a turn
	SuppressFlags []string `yaml:"suppress_flags" example:"guided_generation"`
	// Stream the companion tracker call instead of waiting for the full body
	Stream bool `yaml:"stream" example:"false"`

	Features Features `yaml:"features"`
}

type Features struct {
	ImmersiveMarkup   bool `yaml:"immersive_markup" example:"false"`
	DialogueColoring  bool `yaml:"dialogue_coloring" example:"false"`
	Deception         bool `yaml:"deception" example:"false"`
	OmniscienceFilter bool `yaml:"omniscience_filter" example:"false"`
	MusicSuggestion   bool `yaml:"music_suggestion" example:"false"`
	AdventureChoices  bool `yaml:"adventure_choices" example:"false"`
}

type OpenAI struct {
	// Model profile for separate-mode tracker calls
	Tracker ModelConfig `yaml:"tracker"`
	// User-configured OpenAI-compatible endpoint for external mode
	External ModelConfig `yaml:"external"`
}

type ModelConfig struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX"`
	// OpenAI model
	Model string `yaml:"model" example:"deepseek/deepseek-chat-v3-0324:free"`
}

type MCP struct {
	// Serve tracker tools over stdio MCP
	Serve bool `yaml:"serve" example:"false"`
}

type Data struct {
	// Directory for persisted tracker state
	Dir string `yaml:"dir" example:"data"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	ApplyDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

// ApplyDefaults fills the optional blocks. External-endpoint completeness is
// checked at call time instead, so a together-mode setup never needs it.
func ApplyDefaults(cfg *Config) {
	if cfg.Tracker.Mode == "" {
		cfg.Tracker.Mode = "together"
	}
	if cfg.Tracker.InjectionPosition == "" {
		cfg.Tracker.InjectionPosition = "assistant_message_end"
	}
	if len(cfg.Tracker.PersistFields) == 0 {
		cfg.Tracker.PersistFields = []string{"info_box"}
	}
	if cfg.Tracker.Preamble == "" {
		cfg.Tracker.Preamble = "[World state at this point]"
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
}
