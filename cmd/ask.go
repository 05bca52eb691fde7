package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, cmd *cobra.Command, question string) error {
	d, err := setup()
	if err != nil {
		return err
	}

	ag, err := d.assistantAgent()
	if err != nil {
		return fmt.Errorf("creating assistant agent: %w", err)
	}

	result, err := d.runner.RunQuery(ctx, ag, question, d.runCfg)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.FinalOutput)
	return nil
}
