package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/japaniel/wordcoverage/pkg/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompute coverage whenever the corpus or a word list changes",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&statsJSON, "json", false, "Print reports and chart data as JSON")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before recomputing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	refresh := func(ctx context.Context) {
		cov, err := a.Stats(ctx)
		if err != nil {
			// A failed run prints nothing; the previous report stands.
			logger.Error("coverage run failed", "error", err)
			return
		}
		if err := printCoverage(out, cov); err != nil {
			logger.Error("print coverage", "error", err)
		}
	}

	w, err := watch.New(cfg.Database.Path, cfg.Wordlists.LevelsPath, cfg.Wordlists.FrequencyPath)
	if err != nil {
		return err
	}
	defer w.Stop()
	w.Debounce = watchDebounce
	w.Logger = logger

	refresh(cmd.Context())
	fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes. Press Ctrl+C to stop.")

	err = w.Run(cmd.Context(), refresh)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
