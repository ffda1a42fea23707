package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/agentx-labs/agentq/internal/history"
	"github.com/agentx-labs/agentq/internal/library"
	"github.com/spf13/cobra"
)

var recordJSON bool

var recordCmd = &cobra.Command{
	Use:   "record [file|dir]...",
	Short: "Record new versions of changed templates",
	Long: `Score each template and append a version to the history when its content
changed since the last recording. Identical content is reported as unchanged.
With no arguments the whole library is recorded.`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().BoolVar(&recordJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	root := rootFor(args)
	paths, err := library.Resolve(root, args)
	if err != nil {
		return err
	}
	scorer, err := loadScorer()
	if err != nil {
		return err
	}

	results, err := recordPaths(cmd.Context(), history.NewRecorder(scorer), root, paths)
	if err != nil {
		return err
	}
	if recordJSON {
		return printJSON(cmd, results)
	}
	return printRecordResults(cmd, results)
}

// recordPaths records every path inside one locked history update. Any
// failure aborts the whole batch and nothing is written.
func recordPaths(ctx context.Context, r *history.Recorder, root string, paths []string) ([]history.Result, error) {
	var results []history.Result
	_, err := openStore().Update(ctx, func(h history.History) (history.History, error) {
		results = results[:0]
		for _, path := range paths {
			var res history.Result
			var err error
			h, res, err = r.RecordFile(h, root, path)
			if err != nil {
				return h, err
			}
			results = append(results, res)
		}
		return h, nil
	})
	return results, err
}

func printRecordResults(cmd *cobra.Command, results []history.Result) error {
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No templates found.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STATUS\tDOCUMENT\tVERSION\tCHANGE")
	for _, r := range results {
		change := "-"
		switch r.Status {
		case history.StatusUpdated:
			change = fmt.Sprintf("%s from %s", r.Bump, r.Previous)
		case history.StatusCreated:
			change = "new"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Status, r.DocumentID, r.Version, change)
	}
	return w.Flush()
}
