package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"gagsync/pkg/config"
	"gagsync/pkg/logger"
	"gagsync/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	debug         bool
	quiet         bool
	verbose       bool
	noColor       bool
	notifications bool
)

var rootCmd = &cobra.Command{
	Use:   "gagsync",
	Short: "Harvest the 9GAG feed into a local cache and a Notion catalog",
	Long: `gagsync scrolls the 9GAG feed of a logged-in account and stores every post
in two places: a local cache of cover and media files, and a Notion database.

Features:
  - Persistent browser session with automatic form login
  - Skip or stop at posts that are already stored
  - Rate limited Notion access with exponential backoff
  - Replay of the Notion catalog into the local cache
  - Run history kept in a local sqlite journal`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.NewConsole(os.Stderr).Error("gagsync", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/gagsync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging and a visible browser window")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every sink action")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when a run ends")

	rootCmd.SetVersionTemplate(`gagsync {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags in the form config expects
func globalFlags() map[string]interface{} {
	return map[string]interface{}{
		"log-level": logLevel,
		"debug":     debug,
		"quiet":     quiet,
	}
}

// setup loads and validates configuration, then builds the logger
func setup(extra map[string]interface{}) (*config.Config, logger.Logger, error) {
	return setupWith(config.Load, extra)
}

// setupUnchecked is setup for commands that touch no remote service
func setupUnchecked(extra map[string]interface{}) (*config.Config, logger.Logger, error) {
	return setupWith(config.Read, extra)
}

func setupWith(load func(string, map[string]interface{}) (*config.Config, error), extra map[string]interface{}) (*config.Config, logger.Logger, error) {
	flags := globalFlags()
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}
	if noColor {
		cfg.Logging.NoColor = true
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("version", version).Debug("gagsync starting")

	return cfg, log, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
