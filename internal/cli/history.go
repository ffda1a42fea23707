package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyJSON   bool
	historyVerify bool
)

var historyCmd = &cobra.Command{
	Use:   "history [document-id]",
	Short: "Show the version history of a template",
	Long: `With a document id, list every recorded version of that template. Without
one, list every template in the history with its latest version.
--verify checks the whole log for broken hashes and non-increasing versions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
	historyCmd.Flags().BoolVar(&historyVerify, "verify", false, "Check history invariants")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	h, err := openStore().Load()
	if err != nil {
		return err
	}

	if historyVerify {
		if err := errs.Validation("history is inconsistent", history.Verify(h)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "History OK: %d versions of %d templates\n", len(h.Versions), len(h.DocumentIDs()))
		return nil
	}

	if len(args) == 0 {
		return printHistorySummary(cmd, h)
	}

	id := args[0]
	versions := h.VersionsOf(id)
	if len(versions) == 0 {
		return errs.NotFound(fmt.Sprintf("no history for %q", id), openStore().Path())
	}
	if historyJSON {
		return printJSON(cmd, versions)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "VERSION\tBUMP\tRECORDED\tOVERALL\tHASH\tCHANGES")
	for _, v := range versions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\t%s\n",
			v.Version, v.Bump, v.CreatedAt.Format("2006-01-02 15:04"), v.Score.Overall, shortHash(v.ContentHash), describeChanges(v.Changes))
	}
	return w.Flush()
}

func printHistorySummary(cmd *cobra.Command, h history.History) error {
	ids := h.DocumentIDs()
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "History is empty.")
		return nil
	}
	if historyJSON {
		return printJSON(cmd, h.Usage)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DOCUMENT\tVERSION\tVERSIONS\tLAST RECORDED")
	for _, id := range ids {
		latest, _ := h.Latest(id)
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", id, latest.Version, len(h.VersionsOf(id)), latest.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func describeChanges(changes []history.Change) string {
	if len(changes) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		switch c.Kind {
		case history.ChangeAddition:
			parts = append(parts, fmt.Sprintf("+%d", c.Count))
		case history.ChangeRemoval:
			parts = append(parts, fmt.Sprintf("-%d", c.Count))
		default:
			parts = append(parts, fmt.Sprintf("%s %d lines", c.Kind, c.Count))
		}
	}
	return strings.Join(parts, " ")
}

func shortHash(h string) string {
	h = strings.TrimPrefix(h, "sha256:")
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
