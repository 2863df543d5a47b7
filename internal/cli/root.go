// Package cli implements the safecheck command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrz1836/safecheck/internal/config"
	"github.com/mrz1836/safecheck/internal/output"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	cmdCtx    *CommandContext

	// buildInfo is set by Execute.
	buildInfo BuildInfo
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "safecheck",
	Short: "Diagnose why a Safe account looks wrong",
	Long: `safecheck resolves a Safe account step by step and shows where things break.

Given an account identifier it looks up the chain in the client gateway, reads
the Safe, checks the transaction service's indexing and caching progress, and
asks the chain's RPC for its latest block. Each step is reported on its own,
so a failure in one lookup never hides the others.`,
	Example: `  safecheck check eth:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed
  safecheck check gno:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed -o json
  safecheck token set
  safecheck interactive`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute(info BuildInfo) error {
	buildInfo = info
	rootCmd.Version = formatVersion(info)

	err := rootCmd.Execute()
	if err != nil {
		formatErr(err)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return checkerr.ExitCode(err)
}

// formatErr writes err to stderr in the active output format.
func formatErr(err error) {
	format := output.FormatText
	if formatter != nil {
		format = formatter.Format()
	}
	_ = output.FormatError(os.Stderr, err, format)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals(cmd *cobra.Command) error {
	// Determine home directory
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.LoadOrDefault(config.Path(home))
	if err != nil {
		return err
	}
	cfg.Home = home

	// Apply environment variable overrides
	config.ApplyEnvironment(cfg)

	// Override with command-line flags
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	// Keep the default log next to a relocated home
	if cfg.Logging.File == config.Defaults().Logging.File && cfg.Home != config.DefaultHome() {
		cfg.Logging.File = filepath.Join(cfg.Home, "safecheck.log")
	}

	// Initialize logger
	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	logger, err = config.NewLogger(logLevel, cfg.Logging.File)
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}

	// Initialize formatter
	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	w := cmd.OutOrStdout()
	formatter = output.NewFormatter(output.DetectFormat(w, explicitFormat), w)
	formatter.SetColor(output.DetectColor(w, cfg.Output.Color))

	cmdCtx = NewCommandContext(cfg, logger, formatter)
	SetCmdContext(cmd, cmdCtx)

	logger.Debug("safecheck %s starting: home=%s format=%s", formatVersion(buildInfo), cfg.Home, formatter.Format())
	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

// Context returns the global command context.
func Context() *CommandContext {
	return cmdCtx
}

// out is a helper for CLI output that ignores write errors.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "safecheck data directory (default: ~/.safecheck)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
