package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/japaniel/wordcoverage/pkg/app"
	"github.com/japaniel/wordcoverage/pkg/config"
)

var (
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "wordcoverage",
	Short:        "Vocabulary coverage of a study corpus",
	Long:         "Tracks which HSK and frequency-list words a study corpus contains and when each was first studied.",
	Version:      app.BuildVersion(),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger = app.NewLogger(cfg.Log)
		return nil
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	return app.New(cmd.Context(), cfg, logger)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./wordcoverage.yaml or $WC_CONFIG)")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(addArticleCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(watchCmd)
}
