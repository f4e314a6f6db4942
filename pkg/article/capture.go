package article

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/japaniel/wordcoverage/pkg/ingest"
)

// Target names where captured sentences are stored.
type Target struct {
	Deck  string
	Model string
	Field string
}

// Records turns an article into one corpus record per sentence, each
// reviewed at studiedAt. The title, when present, is the first record.
func Records(a *Article, t Target, studiedAt time.Time) []ingest.Record {
	texts := Sentences(a.Text)
	if a.Title != "" {
		texts = append([]string{a.Title}, texts...)
	}
	at := studiedAt.UnixMilli()
	recs := make([]ingest.Record, 0, len(texts))
	for _, s := range texts {
		recs = append(recs, ingest.Record{
			Deck:    t.Deck,
			Model:   t.Model,
			Fields:  map[string]string{t.Field: s},
			Reviews: []int64{at},
			Source:  a.URL,
		})
	}
	return recs
}

// Capture stores the records through the corpus importer and returns the
// number of notes written.
func Capture(ctx context.Context, conn *sql.DB, recs []ingest.Record) (int, error) {
	st, err := ingest.NewImporter(conn).ImportRecords(ctx, recs)
	if err != nil {
		return st.Notes, err
	}
	if st.Skipped > 0 {
		return st.Notes, fmt.Errorf("capture: %d sentences rejected", st.Skipped)
	}
	return st.Notes, nil
}
