package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alekspetrov/weeekbot/internal/history"
)

var (
	createdStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7ec699"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d48a8a"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
)

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent task submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.History == nil || cfg.History.Path == "" {
				return fmt.Errorf("history is disabled (history.path is empty)")
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return printHistory(cmd.Context(), cmd.OutOrStdout(), store, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func printHistory(ctx context.Context, w io.Writer, store *history.Store, limit int) error {
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No submissions yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(w, renderEntry(e))
	}
	return nil
}

func renderEntry(e history.Entry) string {
	var b strings.Builder

	status := createdStyle.Render("✓ #" + fmt.Sprint(e.TaskID))
	if e.Status != history.StatusCreated {
		status = failedStyle.Render("✗ failed")
	}
	fmt.Fprintf(&b, "%s  %s  %s\n", labelStyle.Render(e.CreatedAt.Local().Format("2006-01-02 15:04")), status, e.Title)

	details := []string{}
	if e.Deadline != "" {
		details = append(details, "deadline "+e.Deadline)
	}
	if e.AssigneeName != "" {
		details = append(details, "assignee "+e.AssigneeName)
	}
	if e.ProjectTitle != "" {
		details = append(details, e.ProjectTitle+" / "+e.BoardName)
	}
	if len(details) > 0 {
		b.WriteString("    " + labelStyle.Render(strings.Join(details, " · ")) + "\n")
	}
	if e.Error != "" {
		b.WriteString("    " + failedStyle.Render(e.Error) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
