package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alekspetrov/weeekbot/internal/gateway"
	"github.com/alekspetrov/weeekbot/internal/testutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("Dialog", func(t *testing.T) {
		if got := cfg.Dialog.CancelPhrases; len(got) != 2 || got[0] != "cancel" || got[1] != "отмена" {
			t.Errorf("CancelPhrases = %v", got)
		}
		if cfg.Dialog.BacklogColumn != "Backlog" {
			t.Errorf("BacklogColumn = %q", cfg.Dialog.BacklogColumn)
		}
		if cfg.Dialog.IdleTTL != 24*time.Hour {
			t.Errorf("IdleTTL = %v", cfg.Dialog.IdleTTL)
		}
		if cfg.Dialog.MaxChoices != 0 {
			t.Errorf("MaxChoices = %d", cfg.Dialog.MaxChoices)
		}
	})

	t.Run("Gateway", func(t *testing.T) {
		if cfg.Gateway.Enabled {
			t.Error("gateway enabled by default")
		}
		if cfg.Gateway.Host != "127.0.0.1" || cfg.Gateway.Port != 9090 {
			t.Errorf("Gateway = %s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
		}
	})

	t.Run("History", func(t *testing.T) {
		if !strings.HasSuffix(cfg.History.Path, filepath.Join(".weeekbot", "history.db")) {
			t.Errorf("History.Path = %q", cfg.History.Path)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvTelegramToken, "")
	t.Setenv(EnvWeeekToken, "")
	t.Setenv(EnvOpenAIKey, "")
	t.Setenv("TEST_WEEEK_TOKEN", testutil.FakeWeeekAPIToken)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
telegram:
  enabled: true
  bot_token: "` + testutil.FakeTelegramBotToken + `"
  allowed_ids: [42, -100]
weeek:
  api_token: ${TEST_WEEEK_TOKEN}
openai:
  api_key: "` + testutil.FakeOpenAIKey + `"
  model: gpt-4o
dialog:
  cancel_phrases: [stop]
  max_choices: 8
  idle_ttl: 2h
history:
  path: ~/bot/history.db
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken != testutil.FakeTelegramBotToken {
		t.Errorf("Telegram = %+v", cfg.Telegram)
	}
	if len(cfg.Telegram.AllowedIDs) != 2 || cfg.Telegram.AllowedIDs[1] != -100 {
		t.Errorf("AllowedIDs = %v", cfg.Telegram.AllowedIDs)
	}
	if cfg.Weeek.APIToken != testutil.FakeWeeekAPIToken {
		t.Errorf("Weeek.APIToken = %q, want expanded env var", cfg.Weeek.APIToken)
	}
	if cfg.Weeek.BaseURL == "" {
		t.Error("Weeek.BaseURL default lost")
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("OpenAI.Model = %q", cfg.OpenAI.Model)
	}
	if cfg.Transcription.OpenAIAPIKey != testutil.FakeOpenAIKey {
		t.Errorf("Transcription key = %q, want the openai key", cfg.Transcription.OpenAIAPIKey)
	}
	if len(cfg.Dialog.CancelPhrases) != 1 || cfg.Dialog.CancelPhrases[0] != "stop" {
		t.Errorf("CancelPhrases = %v", cfg.Dialog.CancelPhrases)
	}
	if cfg.Dialog.MaxChoices != 8 || cfg.Dialog.IdleTTL != 2*time.Hour {
		t.Errorf("Dialog = %+v", cfg.Dialog)
	}
	if cfg.Dialog.BacklogColumn != "Backlog" {
		t.Errorf("BacklogColumn default lost: %q", cfg.Dialog.BacklogColumn)
	}
	if strings.HasPrefix(cfg.History.Path, "~") || !strings.HasSuffix(cfg.History.Path, filepath.Join("bot", "history.db")) {
		t.Errorf("History.Path = %q", cfg.History.Path)
	}
}

func TestLoadMissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv(EnvTelegramToken, testutil.FakeTelegramBotToken)
	t.Setenv(EnvWeeekToken, testutil.FakeWeeekAPIToken)
	t.Setenv(EnvOpenAIKey, testutil.FakeOpenAIKey)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.BotToken != testutil.FakeTelegramBotToken {
		t.Errorf("BotToken = %q", cfg.Telegram.BotToken)
	}
	if cfg.Weeek.APIToken != testutil.FakeWeeekAPIToken {
		t.Errorf("APIToken = %q", cfg.Weeek.APIToken)
	}
	if cfg.OpenAI.APIKey != testutil.FakeOpenAIKey || cfg.Transcription.OpenAIAPIKey != testutil.FakeOpenAIKey {
		t.Errorf("OpenAI key not applied: %q / %q", cfg.OpenAI.APIKey, cfg.Transcription.OpenAIAPIKey)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("dialog: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() of invalid yaml succeeded")
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv(EnvWeeekToken, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Weeek.APIToken = testutil.FakeWeeekAPIToken
	cfg.Dialog.IdleTTL = 90 * time.Minute
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Weeek.APIToken != testutil.FakeWeeekAPIToken || loaded.Dialog.IdleTTL != 90*time.Minute {
		t.Errorf("loaded = %+v %+v", loaded.Weeek, loaded.Dialog)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Weeek.APIToken = testutil.FakeWeeekAPIToken
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		serve     bool
		errSubstr string
	}{
		{name: "defaults with token", mutate: func(*Config) {}},
		{name: "missing weeek token", mutate: func(c *Config) { c.Weeek.APIToken = "" }, errSubstr: "weeek API token"},
		{name: "negative max choices", mutate: func(c *Config) { c.Dialog.MaxChoices = -1 }, errSubstr: "max_choices"},
		{name: "negative idle ttl", mutate: func(c *Config) { c.Dialog.IdleTTL = -time.Second }, errSubstr: "idle_ttl"},
		{
			name: "bad gateway port",
			mutate: func(c *Config) {
				c.Gateway.Enabled = true
				c.Gateway.Port = 70000
			},
			errSubstr: "gateway port",
		},
		{
			name: "gateway token auth without token",
			mutate: func(c *Config) {
				c.Gateway.Enabled = true
				c.Gateway.Auth = &gateway.AuthConfig{Type: gateway.AuthTypeAPIToken}
			},
			errSubstr: "API token is required",
		},
		{name: "serve with nothing enabled", mutate: func(*Config) {}, serve: true, errSubstr: "nothing to serve"},
		{
			name: "serve telegram without token",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.BotToken = ""
			},
			serve:     true,
			errSubstr: "telegram bot token",
		},
		{
			name: "serve telegram",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.BotToken = testutil.FakeTelegramBotToken
			},
			serve: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			var err error
			if tt.serve {
				err = cfg.ValidateServe()
			} else {
				err = cfg.Validate()
			}

			if tt.errSubstr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errSubstr) {
				t.Errorf("error = %v, want substring %q", err, tt.errSubstr)
			}
		})
	}
}
