// Package telegram connects the dialog engine to a Telegram bot.
package telegram

// Transport name used in conversation ids ("telegram:<chat id>").
const Name = "telegram"

// Config holds Telegram adapter configuration
type Config struct {
	Enabled     bool    `yaml:"enabled"`
	BotToken    string  `yaml:"bot_token"`
	AllowedIDs  []int64 `yaml:"allowed_ids"`  // chat or user ids; empty allows everyone
	PollTimeout int     `yaml:"poll_timeout"` // seconds
}

// DefaultConfig returns default Telegram configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:     false,
		PollTimeout: 30,
	}
}
