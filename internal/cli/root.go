package cli

import (
	"fmt"
	"io"

	"github.com/agentx-labs/agentq/internal/branding"
	"github.com/agentx-labs/agentq/internal/config"
	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagConfig    string
	flagVerbose   bool
	flagLogFormat string
	flagLibrary   string
	flagHistory   string
	flagPolicy    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` scores agent templates against a quality policy, keeps a
semantic version history of every template, and renders corpus reports.

Settings come from ~/` + branding.HomeDir() + `/config.yaml and from environment variables
such as ` + branding.EnvVar("library") + ` and ` + branding.EnvVar("history") + `. Flags take precedence.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default ~/"+branding.HomeDir()+"/config.yaml)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: console or json")
	pf.StringVar(&flagLibrary, "library", "", "Template library directory")
	pf.StringVar(&flagHistory, "history", "", "Version history file")
	pf.StringVar(&flagPolicy, "policy", "", "Scoring policy YAML (default: built-in)")
}

// setup loads configuration, applies flag overrides and initializes the
// logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.Load(flagConfig); err != nil {
		return err
	}
	pf := cmd.Root().PersistentFlags()
	for key, name := range map[string]string{
		config.KeyLibrary:   "library",
		config.KeyHistory:   "history",
		config.KeyPolicy:    "policy",
		config.KeyLogFormat: "log-format",
	} {
		if f := pf.Lookup(name); f != nil && f.Changed {
			viper.Set(key, f.Value.String())
		}
	}

	level := config.LogLevel()
	if flagVerbose {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Format: config.LogFormat(), Writer: cmd.ErrOrStderr()})
	logger.Named("cli").Debug().
		Str("command", cmd.CommandPath()).
		Str("library", config.Library()).
		Str("history", config.HistoryPath()).
		Msg("configured")
	return nil
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		return err
	}
	return nil
}

// printError writes err and, for validation errors, every failing
// condition on its own line.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if e, ok := errs.As(err); ok {
		for _, f := range e.Failures {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
}
