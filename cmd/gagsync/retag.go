package main

import (
	"strings"

	"github.com/spf13/cobra"

	"gagsync/pkg/models"
	"gagsync/pkg/ui"
)

var retagCmd = &cobra.Command{
	Use:   "retag <post-id> <tag>...",
	Short: "Replace the tags of a catalog record",
	Long: `Replace the tag set of the Notion record whose external id is post-id.
Tags are trimmed and de-duplicated. Other properties are left untouched.`,
	Example: `  gagsync retag aXyZ123 Funny "Wholesome Memes"`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runRetag,
}

func init() {
	rootCmd.AddCommand(retagCmd)
}

func runRetag(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, log, err := setup(nil)
	if err != nil {
		return err
	}

	remote, err := requireCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}

	id, tags := args[0], models.NormalizeTags(args[1:])
	if err := remote.UpdateTags(ctx, id, tags); err != nil {
		return err
	}

	ui.NewConsole(nil).Success("retagged " + id + ": " + strings.Join(tags, ", "))
	return nil
}
