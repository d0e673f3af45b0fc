package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gagsync/pkg/extract"
	"gagsync/pkg/feed"
	"gagsync/pkg/harvest"
	"gagsync/pkg/ui"
)

var dryRun bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <post-url>",
	Short: "Store a single post",
	Long: `Open one post page, extract it the same way as a feed entry and write it
through the enabled sinks. With --dry-run the post is only printed.`,
	Example: `  gagsync fetch https://9gag.com/gag/aXyZ123
  gagsync fetch https://9gag.com/gag/aXyZ123 --dry-run --no-remote`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the extracted post without storing it")
	fetchCmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "leave the post alone where it is already stored")
	fetchCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	fetchCmd.Flags().BoolVar(&noRemote, "no-remote", false, "do not write to the Notion catalog")
	fetchCmd.Flags().BoolVar(&noLocal, "no-local", false, "do not write to the local cache")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, log, err := setup(map[string]interface{}{
		"account":   accountName,
		"no-remote": noRemote || dryRun,
		"no-local":  noLocal || dryRun,
	})
	if err != nil {
		return err
	}

	var sinks harvest.Sinks
	if !dryRun {
		if sinks, _, err = buildSinks(ctx, cfg, log); err != nil {
			return err
		}
	}

	extractor, err := extract.New(cfg.Feed.HomeURL)
	if err != nil {
		return err
	}

	handle, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer handle.Close()

	item, err := feed.FetchPost(ctx, handle.Page(), extractor, args[0])
	if err != nil {
		return err
	}

	fmt.Println(ui.RenderItem(item))
	if dryRun {
		return nil
	}

	return runHarvest(ctx, cfg, log, harvestRun{
		name:   "fetch",
		source: harvest.Batch(item),
		sinks:  sinks,
		policy: harvest.Policy{SkipExisting: skipExisting},
	})
}
