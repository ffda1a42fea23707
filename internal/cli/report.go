package cli

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/agentx-labs/agentq/internal/config"
	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/history"
	"github.com/agentx-labs/agentq/internal/library"
	"github.com/agentx-labs/agentq/internal/platform"
	"github.com/agentx-labs/agentq/internal/report"
	"github.com/spf13/cobra"
)

var (
	reportFormat string
	reportOutput string
	reportTop    int
)

var reportCmd = &cobra.Command{
	Use:   "report [dir]",
	Short: "Score the library and render a quality report",
	Long: `Score every template in the library and render corpus averages, tier counts
and the most frequent issues and strengths. Versions and the historical trend
come from the version history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "table", "Output format: json, markdown, html or table")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to a file instead of stdout")
	reportCmd.Flags().IntVar(&reportTop, "top", 0, "Number of issues and strengths to list (default from config)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	r, err := buildReport(args, time.Now())
	if err != nil {
		return err
	}

	output := reportOutput
	if output == "" && config.ReportDir() != "" {
		output = filepath.Join(config.ReportDir(), "report"+format.Extension())
	}
	if output == "" {
		return report.Render(cmd.OutOrStdout(), format, r)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, format, r); err != nil {
		return err
	}
	if err := platform.WriteFileAtomic(output, buf.Bytes(), 0644); err != nil {
		return errs.IO(err, "writing report", output)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s report for %d templates to %s\n", format, r.Documents, output)
	return nil
}

// buildReport scores the library and joins it with the history.
func buildReport(args []string, now time.Time) (report.Report, error) {
	root := config.Library()
	if len(args) == 1 {
		root = args[0]
	}
	docs, err := library.Load(root)
	if err != nil {
		return report.Report{}, err
	}
	scorer, err := loadScorer()
	if err != nil {
		return report.Report{}, err
	}
	h, err := openStore().Load()
	if err != nil {
		return report.Report{}, err
	}

	entries := make([]report.Entry, 0, len(docs))
	for _, doc := range docs {
		e := report.Entry{ID: doc.ID, Path: doc.Path, Score: scorer.Score(doc)}
		if latest, ok := h.Latest(doc.ID); ok && latest.ContentHash == doc.Hash {
			e.Version = latest.Version
		}
		entries = append(entries, e)
	}

	top := reportTop
	if top <= 0 {
		top = config.ReportTop()
	}
	return report.Aggregate(entries, scorer.Policy(), report.Options{
		TopN:  top,
		Now:   now,
		Trend: history.Trend(h),
	}), nil
}

