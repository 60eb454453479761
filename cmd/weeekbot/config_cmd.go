package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alekspetrov/weeekbot/internal/config"
)

func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage weeekbot configuration",
		Long: `Create, view and validate the weeekbot configuration.

Configuration File Location:
  Default: ~/.weeekbot/config.yaml
  Override with --config flag

Secrets left empty in the file are read from TELEGRAM_BOT_TOKEN,
WEEEK_API_TOKEN and OPENAI_API_KEY.`,
	}

	cmd.AddCommand(
		newConfigInitCmd(configPath),
		newConfigShowCmd(configPath),
		newConfigValidateCmd(configPath),
		newConfigPathCmd(configPath),
	)
	return cmd
}

func newConfigInitCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(*configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", *configPath)
			}
			if err := config.Save(config.DefaultConfig(), *configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", *configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(maskSecrets(cfg))
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
			return nil
		},
	}
}

func newConfigPathCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), *configPath)
		},
	}
}

// maskSecrets returns a copy of cfg safe to print.
func maskSecrets(cfg *config.Config) *config.Config {
	out := *cfg
	if cfg.Telegram != nil {
		t := *cfg.Telegram
		t.BotToken = mask(t.BotToken)
		out.Telegram = &t
	}
	if cfg.Weeek != nil {
		w := *cfg.Weeek
		w.APIToken = mask(w.APIToken)
		out.Weeek = &w
	}
	if cfg.OpenAI != nil {
		o := *cfg.OpenAI
		o.APIKey = mask(o.APIKey)
		out.OpenAI = &o
	}
	if cfg.Transcription != nil {
		tr := *cfg.Transcription
		tr.OpenAIAPIKey = mask(tr.OpenAIAPIKey)
		out.Transcription = &tr
	}
	if cfg.Gateway != nil && cfg.Gateway.Auth != nil {
		g := *cfg.Gateway
		auth := *cfg.Gateway.Auth
		auth.Token = mask(auth.Token)
		g.Auth = &auth
		out.Gateway = &g
	}
	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
