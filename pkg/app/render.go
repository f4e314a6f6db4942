package app

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteText prints the final per-category coverage of every report.
func WriteText(w io.Writer, cov *Coverage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Corpus entries:\t%d\n", cov.Entries)
	for _, r := range cov.Reports {
		fmt.Fprintf(tw, "\n%s: %d entries, %d skipped\n", r.List, r.Entries, r.Skipped)
		for _, st := range r.Stats {
			if st.Percent == nil {
				fmt.Fprintf(tw, "  %s\t%d\tn/a\n", st.Name, st.Found)
				continue
			}
			fmt.Fprintf(tw, "  %s\t%d/%d\t%.1f%%\n", st.Name, st.Found, st.Total, *st.Percent)
		}
	}
	return tw.Flush()
}
