package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alekspetrov/weeekbot/internal/config"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "weeekbot",
		Short: "Create Weeek tasks from chat messages",
		Long: `weeekbot turns a free-form task description, typed or spoken, into a Weeek task.
It asks in the chat for whatever the message did not say: deadline, assignee,
project and board.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "path to the config file")

	rootCmd.AddCommand(
		newStartCmd(&configPath),
		newChatCmd(&configPath),
		newHistoryCmd(&configPath),
		newConfigCmd(&configPath),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show weeekbot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "weeekbot v%s\n", version)
		},
	}
}
