package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	errs "thebanscraper/pkg/errors"
	"thebanscraper/pkg/logger"
	"thebanscraper/pkg/metadata"
	"thebanscraper/pkg/report"
	"thebanscraper/pkg/scraper"
	"thebanscraper/pkg/texts"
	"thebanscraper/pkg/ui"
)

func runScrape(cmd *cobra.Command, args []string) error {
	text, err := texts.Lookup(args[0])
	if err != nil {
		return &exitError{code: ExitFailure, err: err}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return &exitError{code: ExitFailure, err: fmt.Errorf("failed to load configuration: %w", err)}
	}

	log := logger.GetLogger()
	log.WithField("version", version).Info("thebanscraper starting")

	s, err := scraper.New(cfg, text, log)
	if err != nil {
		return &exitError{code: ExitFailure, err: err}
	}

	ctx, stop := signalContext()
	defer stop()

	ui.PrintBanner()
	ui.PrintInfo("Target", s.Describe())

	if dryRun {
		plan, err := s.Plan(ctx)
		if err != nil {
			return &exitError{code: ExitFailure, err: describeDiscovery(err)}
		}
		printPlan(cmd, plan)
		if len(plan.Failures) > 0 {
			return &exitError{code: ExitPartial}
		}
		return nil
	}

	if !ui.IsQuietMode() {
		s.SetReporter(ui.NewProgressDisplay(ui.Output(), text.Key, cfg.Logging.Level == "debug"))
	}

	summary, err := s.Run(ctx)
	code := exitCodeFor(summary, err)
	if code == ExitFailure {
		return &exitError{code: code, err: describeDiscovery(err)}
	}

	printSummary(summary, cfg.Output.BaseDirectory)
	if reportFile != "" {
		if err := writeReport(reportFile, text, summary); err != nil {
			log.WithError(err).Warn("Failed to write report")
			ui.PrintWarning("Report", err.Error())
		} else {
			ui.PrintInfo("Report", reportFile)
		}
	}
	if code == ExitPartial {
		return &exitError{code: code}
	}
	return nil
}

// describeDiscovery adds a hint to discovery errors
func describeDiscovery(err error) error {
	var de *errs.DiscoveryError
	if !errors.As(err, &de) {
		return err
	}
	if de.Kind == errs.DiscoveryFormatChanged {
		return fmt.Errorf("%w (the site layout may have changed)", err)
	}
	return err
}

func printSummary(s *scraper.Summary, outputDir string) {
	fmt.Fprintln(ui.Output())
	ui.PrintHighlight("Summary")
	ui.PrintInfo("Status", s.Status().String())
	ui.PrintInfo("Tombs", fmt.Sprintf("%d listed, %d processed, %d failed, %d with %s", s.TombsListed, s.TombsProcessed, s.TombsFailed, s.PagesMatched, s.Text))
	ui.PrintInfo("Images", fmt.Sprintf("%d downloaded, %d duplicates, %d failed, %d unclassified", s.ImagesDownloaded, s.ImagesSkipped, s.ImagesFailed, s.ImagesUnclassified))
	ui.PrintInfo("Written", fmt.Sprintf("%s to %s", humanize.Bytes(uint64(s.BytesWritten)), filepath.Join(outputDir, s.Text)))
	if s.ManifestPath != "" {
		ui.PrintInfo("Manifest", s.ManifestPath)
	}
	ui.PrintInfo("Duration", s.Duration.Round(time.Millisecond).String())

	for _, f := range s.TombFailures {
		ui.PrintWarning("Tomb failed", f.String())
	}
	for _, f := range s.ImageFailures {
		ui.PrintWarning("Image failed", f.String())
	}
	if s.Interrupted {
		ui.PrintWarning("Run interrupted")
	}
}

// writeReport renders the Markdown report of a run to path
func writeReport(path string, text *texts.TextType, summary *scraper.Summary) error {
	var manifest *metadata.Manifest
	if summary.ManifestPath != "" {
		m, err := metadata.Load(filepath.Dir(summary.ManifestPath))
		if err != nil {
			return err
		}
		manifest = m
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	return report.NewMarkdownWriter(f).Write(text, summary, manifest)
}

func printPlan(cmd *cobra.Command, plan *scraper.Plan) {
	out := cmd.OutOrStdout()
	for _, t := range plan.Tombs {
		fmt.Fprintf(out, "%s  %s\n", ui.Cyan(t.Tomb.ID), t.Tomb.Title)
		for _, ref := range t.References {
			fmt.Fprintf(out, "  %-12s %s\n", ref.Section, ref.ResolvedURL)
		}
		for _, w := range t.Warnings {
			fmt.Fprintf(out, "  %-12s %s %s\n", ui.Yellow("unclassified"), w.ImageURL, ui.Dim("("+w.State+")"))
		}
	}
	fmt.Fprintf(out, "\n%d of %d tombs carry the %s, %d images\n", len(plan.Tombs), plan.Listed, plan.Text, plan.ImageCount())
	for _, f := range plan.Failures {
		ui.PrintWarning("Tomb failed", f.String())
	}
}
