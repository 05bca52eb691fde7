// Package cmd contains the herald CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "herald",
	Short: "Herald is a conversational AI assistant",
	Long: `Herald is a conversational AI assistant built on Gemini's
OpenAI-compatible chat completions endpoint.

Commands:
  serve    Run the HTTP chat API
  news     Interactive news search loop
  ask      Ask the assistant a single question`,
	SilenceUsage: true,
}

// Execute runs the root command. Called from main.
func Execute() error {
	return rootCmd.Execute()
}
