package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/japaniel/wordcoverage/pkg/corpus"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List deck/model pairs and the field searched in each",
	Long:  "Shows every deck and model in the corpus with its field names, to help fill in search_fields.",
	Args:  cobra.NoArgs,
	RunE:  runFields,
}

func runFields(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	pairs, err := a.Fields(cmd.Context())
	if err != nil {
		return err
	}

	search := corpus.SearchFields(cfg.SearchFields)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DECK\tMODEL\tSEARCHED\tFIELDS")
	for _, p := range pairs {
		field, ok := search.Field(p.DeckName, p.ModelName)
		if !ok {
			field = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.DeckName, p.ModelName, field, strings.Join(p.Fields, ", "))
	}
	return tw.Flush()
}
