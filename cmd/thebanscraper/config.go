package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"thebanscraper/pkg/config"
	"thebanscraper/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage thebanscraper configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (THEBAN_*)
  - .env files (./.env and $XDG_CONFIG_HOME/thebanscraper/.env)
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Long: `Create a configuration file with every option set to its default.

The file is written to ./.thebanscraper.yaml unless a different path is
given with --config. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "." + config.AppName + ".yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return &exitError{code: ExitFailure, err: fmt.Errorf("configuration file already exists: %s", path)}
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return &exitError{code: ExitFailure, err: err}
	}

	ui.PrintSuccess("Configuration file created: " + path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, config.Flags{LogLevel: logLevel})
	if err != nil {
		return &exitError{code: ExitFailure, err: fmt.Errorf("failed to load configuration: %w", err)}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return &exitError{code: ExitFailure, err: fmt.Errorf("failed to format configuration: %w", err)}
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))
	fmt.Fprintf(out, "\n# record path: %s\n", cfg.RecordPath())
	if path := configFile; path != "" {
		fmt.Fprintf(out, "# config file: %s\n", path)
	} else if path := config.FindConfigFile(); path != "" {
		fmt.Fprintf(out, "# config file: %s\n", path)
	} else {
		fmt.Fprintln(out, "# config file: (none, defaults in use)")
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		return &exitError{code: ExitFailure, err: fmt.Errorf("no configuration file found, specify one with --config")}
	}

	ui.PrintInfo("Validating configuration", path)
	if _, err := config.Load(path, config.Flags{}); err != nil {
		return &exitError{code: ExitFailure, err: err}
	}

	ui.PrintSuccess("Configuration is valid")
	return nil
}
