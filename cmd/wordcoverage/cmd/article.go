package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addArticleCmd = &cobra.Command{
	Use:   "add-article <url>",
	Short: "Fetch a web article and add its sentences to the corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddArticle,
}

func runAddArticle(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	art, n, err := a.AddArticle(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Title: %s\n", art.Title)
	fmt.Fprintf(out, "Captured %d sentences into %s/%s\n", n, cfg.Article.Deck, cfg.Article.Model)
	return nil
}
