// Package corpus turns studied notes into coverage entries using the
// per-deck, per-model search-field configuration.
package corpus

import (
	"context"
	"log/slog"

	"github.com/japaniel/wordcoverage/pkg/coverage"
	"github.com/japaniel/wordcoverage/pkg/db"
)

// SearchFields maps deck name -> model name -> the field whose text is scanned.
// An empty field name disables the model in that deck.
type SearchFields map[string]map[string]string

// Field returns the configured field for a deck and model.
func (s SearchFields) Field(deck, model string) (string, bool) {
	f := s[deck][model]
	return f, f != ""
}

// Stats counts why notes were left out of the corpus.
type Stats struct {
	Studied      int
	Unconfigured int
	MissingField int
}

// Select converts studied notes to entries. Notes without a configured field,
// or whose configured field is absent, are skipped.
func Select(notes []db.StudiedNote, fields SearchFields) ([]coverage.Entry, Stats) {
	st := Stats{Studied: len(notes)}
	entries := make([]coverage.Entry, 0, len(notes))
	for _, n := range notes {
		name, ok := fields.Field(n.DeckName, n.ModelName)
		if !ok {
			st.Unconfigured++
			continue
		}
		text, ok := n.Fields[name]
		if !ok {
			st.MissingField++
			continue
		}
		entries = append(entries, coverage.Entry{
			ID:        n.NoteID,
			Text:      text,
			StudiedAt: n.FirstStudyMs,
		})
	}
	return entries, st
}

// Loader reads the corpus from the store.
type Loader struct {
	DB     db.DBExecutor
	Fields SearchFields
	Logger *slog.Logger
}

// Load fetches studied notes and selects their configured text.
func (l *Loader) Load(ctx context.Context) ([]coverage.Entry, error) {
	notes, err := db.StudiedNotes(ctx, l.DB)
	if err != nil {
		return nil, err
	}
	entries, st := Select(notes, l.Fields)
	if l.Logger != nil {
		l.Logger.Debug("corpus loaded",
			"studied", st.Studied,
			"entries", len(entries),
			"unconfigured", st.Unconfigured,
			"missing_field", st.MissingField)
	}
	return entries, nil
}
