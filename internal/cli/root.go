// Package cli implements the crossdrop command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrz1836/crossdrop/internal/config"
	"github.com/mrz1836/crossdrop/internal/output"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// Command group IDs for root help.
const (
	groupAirdrop = "airdrop"
	groupQuery   = "query"
	groupOps     = "ops"
	groupConfig  = "config"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	keyFile      string

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	cmdCtx    *CommandContext

	buildInfo  BuildInfo
	enrichOnce sync.Once
)

// BuildInfo is stamped into the binary at build time.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "crossdrop",
	Short: "Cross-chain token airdrops over Axelar",
	Long: `crossdrop approves an ERC-20 on the source chain and airdrops it to a list
of recipients on the destination chain through the Axelar gateway.

The default setup sends aUSDC from Polygon to Avalanche testnets. The Airdrop
contract must be deployed on both chains (see 'crossdrop deploy').`,
	Example: `  crossdrop approve --amount 10
  crossdrop send --amount 10 --recipients 0xAbc...,0xDef...
  crossdrop status --watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context so watch and serve stop cleanly.
func Execute(info BuildInfo) error {
	buildInfo = info
	enrichOnce.Do(func() { walkCommands(rootCmd, enrichParentLong) })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PersistentPostRun is skipped when a command fails.
	defer cleanup()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		formatErr(err)
		return err
	}
	return nil
}

// formatErr prints err on stderr in the active output format.
func formatErr(err error) {
	format := output.FormatText
	if formatter != nil {
		format = formatter.Format()
	}
	_ = output.FormatError(os.Stderr, err, format)
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return droperr.ExitCode(err)
}

// formatVersion renders build info for humans.
func formatVersion(info BuildInfo) string {
	v, commit, date := info.Version, info.Commit, info.Date
	if v == "" {
		v = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}

// initGlobals loads configuration, then layers environment and flags on
// top, and builds the logger, formatter and command context.
func initGlobals(cmd *cobra.Command) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(config.ExpandHome(home)))
	if err != nil {
		// Use defaults if config doesn't exist
		cfg = config.Defaults()
		cfg.Home = home
	}

	config.ApplyEnvironment(cfg)

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
	if keyFile != "" {
		cfg.Tx.Keystore = keyFile
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.GetLoggingLevel()), cfg.GetLoggingFile())
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	explicit := output.ParseFormat(cfg.GetOutputFormat())
	formatter = output.NewFormatter(output.DetectFormat(stdout, explicit), stdout).
		WithNotifications(stderr).
		WithColor(cfg.ColorEnabled() && output.ColorEnabled(stderr, cfg.Output.Color))

	cmdCtx = NewCommandContext(cfg, logger, formatter)
	return nil
}

// cleanup releases resources.
func cleanup() {
	if cmdCtx != nil {
		cmdCtx.Close()
		cmdCtx = nil
	}
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

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupAirdrop, Title: "Airdrop:"},
		&cobra.Group{ID: groupQuery, Title: "Queries:"},
		&cobra.Group{ID: groupOps, Title: "Deployment & Serving:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(groupConfig)

	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "crossdrop data directory (default: ~/.crossdrop)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	_ = rootCmd.RegisterFlagCompletionFunc("output", completeOutputFlag)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&keyFile, "key-file", "", "encrypted keystore file used to sign transactions")
}
