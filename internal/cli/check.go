package cli

import (
	"fmt"
	"sort"

	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/library"
	"github.com/agentx-labs/agentq/internal/quality"
	"github.com/spf13/cobra"
)

var checkMin = map[string]*float64{}

var checkMinOverall float64

var checkCmd = &cobra.Command{
	Use:   "check [file|dir]...",
	Short: "Fail when templates score below minimum thresholds",
	Long: `Score each template and compare the overall score and each dimension with
the configured minimums. Every failing condition is reported, and the command
exits non-zero if there is at least one.`,
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.Float64Var(&checkMinOverall, "min-overall", 0, "Minimum overall score")
	for _, dim := range quality.Default().DimensionNames() {
		v := new(float64)
		checkMin[dim] = v
		f.Float64Var(v, "min-"+dim, 0, fmt.Sprintf("Minimum %s score", dim))
	}
	rootCmd.AddCommand(checkCmd)
}

// gate is one minimum score condition.
type gate struct {
	dimension string // "" for overall
	min       float64
}

func runCheck(cmd *cobra.Command, args []string) error {
	root := rootFor(args)
	paths, err := library.Resolve(root, args)
	if err != nil {
		return err
	}
	scorer, err := loadScorer()
	if err != nil {
		return err
	}
	docs, err := readAll(root, paths)
	if err != nil {
		return err
	}

	gates := activeGates()
	var failures []string
	for _, doc := range docs {
		failures = append(failures, checkScore(doc.ID, scorer.Score(doc), gates)...)
	}
	if err := errs.Validation(fmt.Sprintf("%d of %d checks failed", len(failures), len(docs)*len(gates)), failures); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "All %d templates pass %d checks\n", len(docs), len(gates))
	return nil
}

func activeGates() []gate {
	var gates []gate
	if checkMinOverall > 0 {
		gates = append(gates, gate{min: checkMinOverall})
	}
	dims := make([]string, 0, len(checkMin))
	for d := range checkMin {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	for _, d := range dims {
		if v := *checkMin[d]; v > 0 {
			gates = append(gates, gate{dimension: d, min: v})
		}
	}
	return gates
}

// checkScore returns one message per gate the score does not meet.
func checkScore(id string, s quality.Score, gates []gate) []string {
	var failures []string
	for _, g := range gates {
		name, got := "overall", s.Overall
		if g.dimension != "" {
			name, got = g.dimension, s.Dimension(g.dimension)
		}
		if got < g.min {
			failures = append(failures, fmt.Sprintf("%s: %s %.1f < %.1f", id, name, got, g.min))
		}
	}
	return failures
}
