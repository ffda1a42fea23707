package cli

import (
	"fmt"
	"strings"

	"github.com/agentx-labs/agentq/internal/config"
	"github.com/agentx-labs/agentq/internal/fixer"
	"github.com/agentx-labs/agentq/internal/library"
	"github.com/agentx-labs/agentq/internal/logger"
	"github.com/agentx-labs/agentq/internal/quality"
	"github.com/spf13/cobra"
)

var (
	fixDryRun   bool
	fixNoBackup bool
)

var fixCmd = &cobra.Command{
	Use:   "fix [file|dir]...",
	Short: "Insert missing required sections into templates",
	Long: `Append a placeholder for every required section a template is missing.
The original content, frontmatter included, is kept unchanged. A .bak copy
of each modified file is written unless --no-backup is given.`,
	RunE: runFix,
}

func init() {
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "Show what would be inserted without writing")
	fixCmd.Flags().BoolVar(&fixNoBackup, "no-backup", false, "Do not keep a .bak copy of modified files")
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	root := rootFor(args)
	paths, err := library.Resolve(root, args)
	if err != nil {
		return err
	}
	p, err := quality.LoadPolicy(config.PolicyPath())
	if err != nil {
		return err
	}
	fx, err := fixer.New(p)
	if err != nil {
		return err
	}

	log := logger.Named("fix")
	opts := fixer.Options{DryRun: fixDryRun, Backup: !fixNoBackup}
	out := cmd.OutOrStdout()
	changed := 0
	for _, path := range paths {
		if opts.Backup && !opts.DryRun && fixer.HasBackup(path) {
			log.Warn().Str("path", path).Msg("overwriting existing backup")
		}
		res, err := fx.FixFile(root, path, opts)
		if err != nil {
			return err
		}
		if !res.Changed() {
			continue
		}
		changed++
		verb := "Fixed"
		if opts.DryRun {
			verb = "Would fix"
		}
		fmt.Fprintf(out, "%s %s: + %s\n", verb, res.ID, strings.Join(res.Inserted, ", "))
	}
	if changed == 0 {
		fmt.Fprintln(out, "All templates have every required section.")
	}
	return nil
}
