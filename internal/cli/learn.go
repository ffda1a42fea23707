package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/agentx-labs/agentq/internal/history"
	"github.com/spf13/cobra"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Rebuild usage counters from the version history",
	Long: `Replay every recorded version in chronological order and rebuild the
per-template usage counters: recordings, bump counts and score movement.`,
	Args: cobra.NoArgs,
	RunE: runLearn,
}

func init() {
	rootCmd.AddCommand(learnCmd)
}

func runLearn(cmd *cobra.Command, args []string) error {
	h, err := openStore().Update(cmd.Context(), func(h history.History) (history.History, error) {
		return history.Learn(h), nil
	})
	if err != nil {
		return err
	}

	ids := h.DocumentIDs()
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "History is empty.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DOCUMENT\tVERSION\tRECORDINGS\tMAJOR\tMINOR\tPATCH\tSCORE\tDELTA")
	for _, id := range ids {
		u := h.Usage[id]
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%.1f\t%+.1f\n",
			id, u.LastVersion, u.Recordings, u.Major, u.Minor, u.Patch, u.LastOverall, u.ScoreDelta)
	}
	return w.Flush()
}
