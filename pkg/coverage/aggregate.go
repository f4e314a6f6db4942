package coverage

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/japaniel/wordcoverage/pkg/classify"
)

// ErrUnknownEntry means a credit points at an entry with no known study day.
var ErrUnknownEntry = errors.New("coverage: credit for entry without a day")

// Day is a calendar date in whatever location the caller bucketed with.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf converts an epoch-millisecond timestamp to its calendar day in loc.
func DayOf(ms int64, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	t := time.UnixMilli(ms).In(loc)
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Compare orders days chronologically.
func (d Day) Compare(o Day) int {
	if c := cmp.Compare(d.Year, o.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, o.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, o.Day)
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of the day in loc.
func (d Day) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// MarshalText renders the day as YYYY-MM-DD.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DailySnapshot carries cumulative totals for every category as of Day.
type DailySnapshot struct {
	Day    Day                       `json:"day"`
	Totals map[classify.Category]int `json:"totals"`
}

// Aggregate buckets per-entry credits by day and accumulates them.
// Every snapshot holds every category that was seeded or credited at any
// point, so the series is a complete step function. Days with no credits are
// not emitted.
func Aggregate(byEntry map[int64][]classify.Category, days map[int64]Day, seed ...classify.Category) ([]DailySnapshot, error) {
	perDay := make(map[Day]map[classify.Category]int)
	running := make(map[classify.Category]int, len(seed))
	for _, c := range seed {
		running[c] = 0
	}

	for id, cats := range byEntry {
		if len(cats) == 0 {
			continue
		}
		d, ok := days[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownEntry, id)
		}
		inc := perDay[d]
		if inc == nil {
			inc = make(map[classify.Category]int)
			perDay[d] = inc
		}
		for _, c := range cats {
			inc[c]++
			if _, ok := running[c]; !ok {
				running[c] = 0
			}
		}
	}

	ordered := slices.SortedFunc(maps.Keys(perDay), Day.Compare)
	out := make([]DailySnapshot, 0, len(ordered))
	for _, d := range ordered {
		for c, n := range perDay[d] {
			running[c] += n
		}
		out = append(out, DailySnapshot{Day: d, Totals: maps.Clone(running)})
	}
	return out, nil
}

// Days maps every processed entry to its calendar day in loc.
func (r *Result) Days(loc *time.Location) map[int64]Day {
	out := make(map[int64]Day, len(r.Entries))
	for _, e := range r.Entries {
		out[e.ID] = DayOf(e.StudiedAt, loc)
	}
	return out
}

// Daily aggregates the run's credits by day in loc.
func (r *Result) Daily(loc *time.Location, seed ...classify.Category) ([]DailySnapshot, error) {
	return Aggregate(r.ByEntry(), r.Days(loc), seed...)
}
