package main

import (
	"github.com/spf13/cobra"

	errs "gagsync/pkg/errors"
	"gagsync/pkg/harvest"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Rebuild the local cache from the Notion catalog",
	Long: `Page through every record of the Notion catalog and download the cover of
each one into the local cache. The feed is not opened.

Catalog records carry no media link, so only covers are restored. The same
--skip-existing and --stop-existing policies as sync apply to the cache.`,
	Example: `  # Fill in covers missing from the cache
  gagsync replay --skip-existing`,
	Args: cobra.NoArgs,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	addPolicyFlags(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, log, err := setup(map[string]interface{}{"tui": useTUI})
	if err != nil {
		return err
	}
	if !cfg.Cache.Enabled {
		return errs.New(errs.ErrorTypeConfig, "replay writes to the local cache, which is disabled")
	}

	remote, err := requireCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}

	local, err := newCache(cfg, log)
	if err != nil {
		return err
	}

	return runHarvest(ctx, cfg, log, harvestRun{
		name:   "replay",
		source: remote.Pages(),
		sinks:  harvest.Sinks{Local: local},
		policy: policy(),
		useTUI: useTUI,
	})
}
