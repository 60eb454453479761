package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alekspetrov/weeekbot/internal/adapters/console"
	"github.com/alekspetrov/weeekbot/internal/logging"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

func newChatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot in the terminal",
		Long:  `Run one conversation in the terminal against the configured Weeek workspace. Tasks are really created.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			// Log lines would interleave with the conversation.
			logging.Suppress()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cmd.OutOrStdout()
			con := console.New(cmd.InOrStdin(), out, a.controller)
			a.router.Register(console.Name, con)

			fmt.Fprintln(out)
			fmt.Fprintln(out, titleStyle.Render("  weeekbot chat"))
			fmt.Fprintln(out, dimStyle.Render("  "+a.cfg.Weeek.BaseURL))
			return con.Run(cmd.Context())
		},
	}
}
