package commands

import (
	"context"
	"fmt"
	"os"

	"reviewcms/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reviewcms",
	Short: "Review CMS - content API for reviews, comparisons and articles",
	Long: `Review CMS serves the JSON API behind a product review site: categories,
articles, reviews, comparisons, comments, newsletter subscribers and
contact messages, with local and OAuth sign-in and image uploads.

Running without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}
