package coverage

import (
	"fmt"
	"time"

	"github.com/japaniel/wordcoverage/pkg/classify"
)

// CategoryStat is the final coverage for one category.
type CategoryStat struct {
	Category classify.Category `json:"category"`
	Name     string            `json:"name"`
	Found    int               `json:"found"`
	Total    int               `json:"total,omitempty"`
	// Percent is nil when the category has no meaningful total.
	Percent *float64 `json:"percent"`
}

// Column describes one series in Chart.
type Column struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Category classify.Category `json:"category"`
}

// Row is one day of cumulative values, keyed by column ID.
type Row struct {
	Date   string         `json:"date"`
	Values map[string]int `json:"values"`
}

// Chart is a plot-ready cumulative series: one row per day with a value for
// every column.
type Chart struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Report is the coverage of one target list over the whole corpus.
type Report struct {
	List    string          `json:"list"`
	Entries int             `json:"entries"`
	Skipped int             `json:"skipped"`
	Stats   []CategoryStat  `json:"stats"`
	Daily   []DailySnapshot `json:"-"`
	Chart   Chart           `json:"chart"`
}

// NewReport runs the daily aggregation for res and attaches the
// classifier's normalization and labels.
func NewReport(list string, res *Result, c classify.Classifier, loc *time.Location) (*Report, error) {
	cats := c.Categories()
	daily, err := res.Daily(loc, cats...)
	if err != nil {
		return nil, err
	}

	r := &Report{
		List:    list,
		Entries: len(res.Entries),
		Skipped: res.Skipped,
		Daily:   daily,
	}

	var final map[classify.Category]int
	if len(daily) > 0 {
		final = daily[len(daily)-1].Totals
	}
	for _, cat := range cats {
		st := CategoryStat{Category: cat, Name: c.ColumnName(cat), Found: final[cat]}
		if total, ok := c.Size(cat); ok {
			st.Total = total
			p := Percent(st.Found, total)
			st.Percent = &p
		}
		r.Stats = append(r.Stats, st)
	}

	r.Chart = NewChart(daily, cats, c.ColumnName)
	return r, nil
}

// Percent returns found/total as a percentage; a zero total yields 0.
func Percent(found, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(found) * 100 / float64(total)
}

// NewChart lays snapshots out as columns and rows.
func NewChart(daily []DailySnapshot, cats []classify.Category, name func(classify.Category) string) Chart {
	ch := Chart{Rows: make([]Row, 0, len(daily))}
	for _, cat := range cats {
		ch.Columns = append(ch.Columns, Column{
			ID:       fmt.Sprintf("col%d", cat),
			Label:    name(cat),
			Category: cat,
		})
	}
	for _, snap := range daily {
		row := Row{Date: snap.Day.String(), Values: make(map[string]int, len(ch.Columns))}
		for _, col := range ch.Columns {
			row.Values[col.ID] = snap.Totals[col.Category]
		}
		ch.Rows = append(ch.Rows, row)
	}
	return ch
}
