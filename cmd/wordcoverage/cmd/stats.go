package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/japaniel/wordcoverage/pkg/app"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute coverage of both word lists",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print reports and chart data as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cov, err := a.Stats(cmd.Context())
	if err != nil {
		return err
	}
	return printCoverage(cmd.OutOrStdout(), cov)
}

func printCoverage(w io.Writer, cov *app.Coverage) error {
	if statsJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cov)
	}
	return app.WriteText(w, cov)
}
