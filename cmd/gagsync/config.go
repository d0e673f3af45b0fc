package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gagsync/pkg/config"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/ui"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage gagsync configuration files.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (NOTION_TOKEN, NOTION_DATABASE, GAGSYNC_*)
  - .env files
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write every option with its default value to --config, or to
$HOME/.config/gagsync/config.yaml when no path is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the merged configuration for a sync run",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)

	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return errs.New(errs.ErrorTypeConfig, "configuration file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return errs.Wrap(errs.ErrorTypeConfig, err, "failed to write configuration")
	}

	console := ui.NewConsole(nil)
	console.Success("configuration written: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set catalog.token and catalog.database_id, or NOTION_TOKEN and NOTION_DATABASE")
	fmt.Println("2. Store a 9GAG login with 'gagsync auth login'")
	fmt.Println("3. Check everything with 'gagsync config validate'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Read(configFile, globalFlags())
	if err != nil {
		return err
	}

	display := *cfg
	display.Catalog.Token = mask(display.Catalog.Token)
	display.Session.Password = mask(display.Session.Password)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeConfig, err, "failed to format configuration")
	}

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none, defaults only)"
	}
	ui.NewConsole(nil).Info("Configuration file", source)
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return errs.Wrap(errs.ErrorTypeConfig, err, "configuration is invalid")
	}

	console := ui.NewConsole(nil)
	if !cfg.Catalog.Enabled && !cfg.Cache.Enabled {
		console.Warning("both the catalog and the cache are disabled, sync has nowhere to write")
	}
	if cfg.Session.Username == "" && cfg.Session.Account == "" {
		console.Warning("no login configured, sync relies on saved cookies or the credential store")
	}

	console.Success("configuration is valid")
	console.Info("Feed", cfg.Feed.URL)
	console.Info("Catalog", enabled(cfg.Catalog.Enabled, cfg.Catalog.DatabaseID))
	console.Info("Cache", enabled(cfg.Cache.Enabled, cfg.Cache.CoversDir))
	console.Info("Journal", enabled(cfg.Journal.Enabled, cfg.Journal.Path))
	return nil
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

func enabled(on bool, detail string) string {
	if !on {
		return "disabled"
	}
	return detail
}
