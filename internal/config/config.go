// Package config loads the weeekbot YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alekspetrov/weeekbot/internal/adapters/telegram"
	"github.com/alekspetrov/weeekbot/internal/adapters/weeek"
	"github.com/alekspetrov/weeekbot/internal/dialog"
	"github.com/alekspetrov/weeekbot/internal/extraction"
	"github.com/alekspetrov/weeekbot/internal/gateway"
	"github.com/alekspetrov/weeekbot/internal/logging"
	"github.com/alekspetrov/weeekbot/internal/submission"
	"github.com/alekspetrov/weeekbot/internal/transcription"
)

// Environment variables consulted when the file leaves a secret empty.
const (
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvWeeekToken    = "WEEEK_API_TOKEN"
	EnvOpenAIKey     = "OPENAI_API_KEY"
)

// Config represents the main configuration
type Config struct {
	Version       string                `yaml:"version"`
	Logging       *logging.Config       `yaml:"logging"`
	Telegram      *telegram.Config      `yaml:"telegram"`
	Weeek         *weeek.Config         `yaml:"weeek"`
	OpenAI        *extraction.Config    `yaml:"openai"`
	Transcription *transcription.Config `yaml:"transcription"`
	Dialog        *DialogConfig         `yaml:"dialog"`
	Gateway       *gateway.Config       `yaml:"gateway"`
	History       *HistoryConfig        `yaml:"history"`
}

// DialogConfig tunes the conversation engine.
type DialogConfig struct {
	CancelPhrases []string `yaml:"cancel_phrases"`
	BacklogColumn string   `yaml:"backlog_column"`
	// MaxChoices above zero makes the bot ask for a name instead of listing
	// a roster longer than this.
	MaxChoices int `yaml:"max_choices"`
	// IdleTTL of zero keeps abandoned dialogs forever.
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

// HistoryConfig holds the submission log settings. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version:  "1.0",
		Logging:  logging.DefaultConfig(),
		Telegram: telegram.DefaultConfig(),
		Weeek:    weeek.DefaultConfig(),
		OpenAI: &extraction.Config{
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Transcription: transcription.DefaultConfig(),
		Dialog: &DialogConfig{
			CancelPhrases: append([]string(nil), dialog.DefaultCancelPhrases...),
			BacklogColumn: submission.DefaultBacklogColumn,
			IdleTTL:       24 * time.Hour,
			SweepSchedule: dialog.DefaultSweepSchedule,
		},
		Gateway: gateway.DefaultConfig(),
		History: &HistoryConfig{
			Path: filepath.Join(DefaultDir(), "history.db"),
		},
	}
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.applyEnv()
	if config.Dialog == nil {
		config.Dialog = DefaultConfig().Dialog
	}
	if config.Gateway == nil {
		config.Gateway = gateway.DefaultConfig()
	}

	if config.History != nil {
		config.History.Path = expandPath(config.History.Path)
	}
	if config.Logging != nil && config.Logging.Output != "stdout" && config.Logging.Output != "stderr" {
		config.Logging.Output = expandPath(config.Logging.Output)
	}

	return config, nil
}

// applyEnv fills empty secrets from the environment and shares the OpenAI
// key with transcription.
func (c *Config) applyEnv() {
	if c.Telegram == nil {
		c.Telegram = telegram.DefaultConfig()
	}
	if c.Telegram.BotToken == "" {
		c.Telegram.BotToken = os.Getenv(EnvTelegramToken)
	}
	if c.Weeek == nil {
		c.Weeek = weeek.DefaultConfig()
	}
	if c.Weeek.APIToken == "" {
		c.Weeek.APIToken = os.Getenv(EnvWeeekToken)
	}
	if c.OpenAI == nil {
		c.OpenAI = &extraction.Config{}
	}
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv(EnvOpenAIKey)
	}
	if c.Transcription == nil {
		c.Transcription = transcription.DefaultConfig()
	}
	if c.Transcription.OpenAIAPIKey == "" {
		c.Transcription.OpenAIAPIKey = c.OpenAI.APIKey
	}
}

// Save saves configuration to a file
func Save(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultDir returns ~/.weeekbot.
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".weeekbot")
}

// DefaultConfigPath returns the default configuration path
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Validate checks the settings needed by every command.
func (c *Config) Validate() error {
	if c.Weeek == nil || c.Weeek.APIToken == "" {
		return fmt.Errorf("weeek API token is required (weeek.api_token or %s)", EnvWeeekToken)
	}
	if c.Dialog != nil {
		if c.Dialog.MaxChoices < 0 {
			return fmt.Errorf("invalid dialog.max_choices: %d", c.Dialog.MaxChoices)
		}
		if c.Dialog.IdleTTL < 0 {
			return fmt.Errorf("invalid dialog.idle_ttl: %s", c.Dialog.IdleTTL)
		}
	}
	if c.Gateway != nil && c.Gateway.Enabled {
		if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
			return fmt.Errorf("invalid gateway port: %d", c.Gateway.Port)
		}
		if c.Gateway.Auth != nil && c.Gateway.Auth.Type == gateway.AuthTypeAPIToken && c.Gateway.Auth.Token == "" {
			return fmt.Errorf("API token is required when auth type is api-token")
		}
	}
	return nil
}

// ValidateServe additionally checks what the long-running bot needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	telegramOn := c.Telegram != nil && c.Telegram.Enabled
	gatewayOn := c.Gateway != nil && c.Gateway.Enabled
	if !telegramOn && !gatewayOn {
		return fmt.Errorf("nothing to serve: enable telegram or gateway")
	}
	if telegramOn && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required (telegram.bot_token or %s)", EnvTelegramToken)
	}
	return nil
}
