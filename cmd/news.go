package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/herald0/herald/internal/news"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Interactive news search loop",
	Long: `Starts an interactive loop that searches the web for news on a
topic and prints a one-paragraph summary. Type 'exit' to quit.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runNews(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(newsCmd)
}

func runNews(ctx context.Context) error {
	d, err := setup()
	if err != nil {
		return err
	}

	ag, err := d.newsAgent()
	if err != nil {
		return fmt.Errorf("creating news agent: %w", err)
	}

	loop, err := news.NewLoop(news.Config{
		Search: func(ctx context.Context, topic string) (string, error) {
			result, err := d.runner.RunQuery(ctx, ag, topic, d.runCfg)
			if err != nil {
				return "", err
			}
			return result.FinalOutput, nil
		},
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		Logger: d.logger,
	})
	if err != nil {
		return fmt.Errorf("creating news loop: %w", err)
	}

	return loop.Run(ctx)
}
