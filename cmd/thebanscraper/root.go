package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"thebanscraper/pkg/config"
	"thebanscraper/pkg/logger"
	"thebanscraper/pkg/scraper"
	"thebanscraper/pkg/texts"
	"thebanscraper/pkg/ui"
)

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitPartial = 2
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool

	// Run flags
	outputDir     string
	delay         time.Duration
	maxRetries    int
	persistRecord bool
	dryRun        bool
	noRobots      bool
	reportFile    string
)

// exitError carries the process exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// rootCmd downloads the imagery of one funerary text
var rootCmd = &cobra.Command{
	Use:   "thebanscraper <text-type>",
	Short: "Download Valley of the Kings tomb imagery of a funerary text, grouped by section",
	Long: `thebanscraper walks the Valley of the Kings tomb pages of the Theban Mapping
Project, finds the pages that document a funerary text and downloads the
highest-resolution version of every image of that text, once, into
<output>/<text-type>/<section>/<file>.

Supported text types: ` + strings.Join(texts.Keys(), ", ") + `

Exit status is 0 on success (individual image failures allowed), 2 when
some tomb pages could not be processed and 1 when the tomb index could not
be read or the configuration is invalid.`,
	Example: `  # Download the Amduat into the current directory
  thebanscraper amduat

  # Book of Caverns into ./images, two seconds between requests
  thebanscraper caverns --output ./images --delay 2s

  # Show what would be downloaded
  thebanscraper amduat --dry-run

  # Keep a download record across runs
  thebanscraper amduat --persist-record

  # Write a Markdown report of the run
  thebanscraper caverns --report caverns.md`,
	Args:          cobra.ExactArgs(1),
	ValidArgs:     texts.Keys(),
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		if noColor {
			os.Setenv("NO_COLOR", "1")
			ui.SetOutput(os.Stdout)
		}
	},
	RunE: runScrape,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			ui.PrintError("Error", ee.err)
		}
		return ee.code
	}
	ui.PrintError("Error", err)
	return ExitFailure
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.thebanscraper.yaml or $XDG_CONFIG_HOME/thebanscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: current directory)")
	rootCmd.Flags().DurationVar(&delay, "delay", 0, "minimum delay between requests, retries included (default 1s)")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "retries per request after the first attempt")
	rootCmd.Flags().BoolVar(&persistRecord, "persist-record", false, "remember downloaded images across runs")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the images that would be downloaded")
	rootCmd.Flags().BoolVar(&noRobots, "no-robots", false, "ignore robots.txt")
	rootCmd.Flags().StringVar(&reportFile, "report", "", "write a Markdown run report to this file")

	rootCmd.SetVersionTemplate(`thebanscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with the command line overrides of cmd
// and initializes the global logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := config.Flags{LogLevel: logLevel}
	if f := cmd.Flags().Lookup("output"); f != nil {
		flags.OutputDir = outputDir
		flags.Delay = delay
		flags.PersistRecord = persistRecord
		flags.NoRobots = noRobots
		if cmd.Flags().Changed("max-retries") {
			n := maxRetries
			flags.MaxRetries = &n
		}
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// exitCodeFor maps the result of a run to the process exit code
func exitCodeFor(summary *scraper.Summary, err error) int {
	if err != nil {
		// An interrupted run still has a partial summary; discovery and
		// setup failures do not.
		if errors.Is(err, context.Canceled) && summary != nil {
			return ExitPartial
		}
		return ExitFailure
	}
	if summary != nil && summary.Status() == scraper.StatusPartial {
		return ExitPartial
	}
	return ExitOK
}
