package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"thebanscraper/pkg/logger"
	"thebanscraper/pkg/scraper"
	"thebanscraper/pkg/tombs"
)

var tombsCmd = &cobra.Command{
	Use:   "tombs",
	Short: "List the tomb pages found on the Valley of the Kings index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return &exitError{code: ExitFailure, err: fmt.Errorf("failed to load configuration: %w", err)}
		}

		log := logger.GetLogger()
		enumerator, err := tombs.NewEnumerator(scraper.NewClient(cfg, log), cfg.Site.BaseURL, cfg.Site.IndexPath, log)
		if err != nil {
			return &exitError{code: ExitFailure, err: err}
		}

		ctx, stop := signalContext()
		defer stop()

		pages, err := enumerator.ListTombs(ctx)
		if err != nil {
			return &exitError{code: ExitFailure, err: describeDiscovery(err)}
		}

		out := cmd.OutOrStdout()
		for _, p := range pages {
			fmt.Fprintf(out, "%-8s %s\n", p.ID, p.URL)
		}
		fmt.Fprintf(out, "%d tombs\n", len(pages))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tombsCmd)
}
