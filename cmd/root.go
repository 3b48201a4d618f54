// Package cmd wires configuration, the session store, the inference engine,
// and the adapters into the CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hybridchat",
	Short: "Private AI chat with file and web-search grounding",
	Long: `hybridchat is a terminal chat client for a local Ollama model.

A reply can be grounded in one of two mutually exclusive context sources:
an attached file (text, HTML, PDF, or an image via OCR) or live web search
results. Sessions persist across runs.

Running hybridchat without arguments opens the interactive chat.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runChat(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd.Execute()
}
