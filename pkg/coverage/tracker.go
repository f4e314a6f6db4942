// Package coverage credits vocabulary words to the earliest corpus entry that
// contains them and rolls those credits up into cumulative per-day series.
package coverage

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/japaniel/wordcoverage/pkg/automaton"
	"github.com/japaniel/wordcoverage/pkg/classify"
)

// ErrUnclassified means the matcher reported a word its classifier does not
// know. The word list and the classifier table have diverged.
var ErrUnclassified = errors.New("coverage: matched word has no category")

// Entry is one studied corpus item.
type Entry struct {
	ID        int64
	Text      string
	StudiedAt int64 // epoch milliseconds of first study
}

// Credit records the single entry a word is attributed to.
type Credit struct {
	EntryID   int64
	Word      string
	Category  classify.Category
	StudiedAt int64
}

// Matcher scans text for the words of one target list.
type Matcher interface {
	SearchAll(text string) iter.Seq[automaton.Match]
}

// CreditSet holds the words already credited during one tracking run.
// It is owned by a single Track call and never shared.
type CreditSet map[string]struct{}

// Add records word and reports whether it was new.
func (s CreditSet) Add(word string) bool {
	if _, ok := s[word]; ok {
		return false
	}
	s[word] = struct{}{}
	return true
}

// Result is the output of one tracking run over one target list.
type Result struct {
	// Credits are ordered by entry processing order, then by first match.
	Credits []Credit
	// Entries are the usable entries in processing order.
	Entries []Entry
	// Skipped counts entries dropped for missing text or timestamp.
	Skipped int
}

// Usable reports whether an entry can take part in a run.
func Usable(e Entry) bool {
	return e.StudiedAt > 0 && strings.TrimSpace(e.Text) != ""
}

// SortEntries orders entries by study time, breaking ties by ID.
func SortEntries(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.StudiedAt, b.StudiedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// Track scans entries in (StudiedAt, ID) order and credits every word of the
// matcher's list to the first entry containing it. The input slice is not
// modified.
func Track(entries []Entry, m Matcher, c classify.Classifier) (*Result, error) {
	res := &Result{Entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		if !Usable(e) {
			res.Skipped++
			continue
		}
		res.Entries = append(res.Entries, e)
	}
	SortEntries(res.Entries)

	seen := make(CreditSet)
	for _, e := range res.Entries {
		for match := range m.SearchAll(e.Text) {
			if !seen.Add(match.Word) {
				continue
			}
			cat, ok := c.Classify(match.Word)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnclassified, match.Word)
			}
			res.Credits = append(res.Credits, Credit{
				EntryID:   e.ID,
				Word:      match.Word,
				Category:  cat,
				StudiedAt: e.StudiedAt,
			})
		}
	}
	return res, nil
}

// ByEntry groups the credited categories by entry ID. Entries without any
// new credit are absent.
func (r *Result) ByEntry() map[int64][]classify.Category {
	out := make(map[int64][]classify.Category)
	for _, cr := range r.Credits {
		out[cr.EntryID] = append(out[cr.EntryID], cr.Category)
	}
	return out
}

// Found counts distinct credited words per category.
func (r *Result) Found() map[classify.Category]int {
	out := make(map[classify.Category]int)
	for _, cr := range r.Credits {
		out[cr.Category]++
	}
	return out
}
