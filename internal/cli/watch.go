package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentx-labs/agentq/internal/config"
	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/history"
	"github.com/agentx-labs/agentq/internal/logger"
	"github.com/agentx-labs/agentq/internal/watch"
	"github.com/spf13/cobra"
)

var watchDebounce = watch.DefaultDebounce

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Record versions whenever templates change",
	Long: `Watch the library and record a new version of each template shortly after
it is saved. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before recording a batch of changes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := config.Library()
	if len(args) == 1 {
		root = args[0]
	}
	scorer, err := loadScorer()
	if err != nil {
		return err
	}
	recorder := history.NewRecorder(scorer)
	log := logger.Named("watch")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.New(root, func(ctx context.Context, paths []string) error {
		var present []string
		for _, p := range paths {
			if _, err := os.Stat(p); err == nil {
				present = append(present, p)
			} else {
				log.Debug().Str("path", p).Msg("skipping vanished file")
			}
		}
		if len(present) == 0 {
			return nil
		}
		results, err := recordPaths(ctx, recorder, root, present)
		if err != nil {
			if errs.Is(err, errs.KindIO) || errs.Is(err, errs.KindParse) {
				return err
			}
			log.Warn().Err(err).Msg("recording changes")
			return nil
		}
		return printRecordResults(cmd, results)
	}, watch.WithDebounce(watchDebounce))

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", root)
	return w.Run(ctx)
}
