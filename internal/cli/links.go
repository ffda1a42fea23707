package cli

import (
	"fmt"

	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/library"
	"github.com/agentx-labs/agentq/internal/links"
	"github.com/spf13/cobra"
)

var linksCmd = &cobra.Command{
	Use:   "links [file|dir]...",
	Short: "Validate links in templates",
	Long: `Check every inline link in the templates. Relative links must point at an
existing file, anchors must match a heading, and external URLs must be well
formed. External URLs are not fetched.`,
	RunE: runLinks,
}

func init() {
	rootCmd.AddCommand(linksCmd)
}

func runLinks(cmd *cobra.Command, args []string) error {
	root := rootFor(args)
	paths, err := library.Resolve(root, args)
	if err != nil {
		return err
	}
	docs, err := readAll(root, paths)
	if err != nil {
		return err
	}

	results := links.CheckAll(docs)
	total := 0
	for _, r := range results {
		total += r.Links
	}
	failures := links.Failures(results)
	if err := errs.Validation("broken links", failures); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d links in %d templates OK\n", total, len(results))
	return nil
}
