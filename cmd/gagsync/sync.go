package main

import (
	"github.com/spf13/cobra"

	"gagsync/pkg/feed"
	"gagsync/pkg/harvest"
)

var (
	// Harvest flags shared by sync, replay and fetch
	skipExisting bool
	stopExisting bool
	useTUI       bool

	// Sync flags
	accountName string
	feedURL     string
	noRemote    bool
	noLocal     bool
	noJournal   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scroll the feed and store every post",
	Long: `Scroll the 9GAG feed batch by batch and store every post in the local cache
and the Notion catalog, local cache first.

Without a policy flag every post is written to every sink, updating records
that already exist. With --skip-existing a post a sink already holds is left
alone and the run goes on. With --stop-existing the run ends at the first post
a sink already holds, which makes a quick incremental sync after a full one.`,
	Example: `  # Full harvest, overwriting what is stored
  gagsync sync

  # Incremental harvest: stop at the first known post
  gagsync sync --stop-existing

  # Only fill the local cache, skipping known posts
  gagsync sync --no-remote --skip-existing

  # Use a stored account and the full screen dashboard
  gagsync sync --account me --tui`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	addPolicyFlags(syncCmd)
	syncCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	syncCmd.Flags().StringVar(&feedURL, "feed-url", "", "feed page to scroll (default https://9gag.com/)")
	syncCmd.Flags().BoolVar(&noRemote, "no-remote", false, "do not write to the Notion catalog")
	syncCmd.Flags().BoolVar(&noLocal, "no-local", false, "do not write to the local cache")
	syncCmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not record the run")
}

func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip posts a sink already holds")
	cmd.Flags().BoolVar(&stopExisting, "stop-existing", false, "stop at the first post a sink already holds")
	cmd.Flags().BoolVar(&stopExisting, "ignore-existing", false, "alias for --stop-existing")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show the full screen dashboard")
}

func policy() harvest.Policy {
	return harvest.Policy{SkipExisting: skipExisting, StopExisting: stopExisting}
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, log, err := setup(map[string]interface{}{
		"account":    accountName,
		"feed-url":   feedURL,
		"no-remote":  noRemote,
		"no-local":   noLocal,
		"no-journal": noJournal,
		"tui":        useTUI,
	})
	if err != nil {
		return err
	}

	sinks, _, err := buildSinks(ctx, cfg, log)
	if err != nil {
		return err
	}

	handle, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer handle.Close()

	cursor, err := feed.NewCursor(handle.Page(), feed.OptionsFromConfig(cfg.Feed), log)
	if err != nil {
		return err
	}

	return runHarvest(ctx, cfg, log, harvestRun{
		name:   "sync",
		source: feed.NewBatches(cursor),
		sinks:  sinks,
		policy: policy(),
		useTUI: useTUI,
	})
}
