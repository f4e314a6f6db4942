package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateOrGetDeck returns the id of the named deck, creating it if needed.
func CreateOrGetDeck(ctx context.Context, db DBExecutor, name string) (int64, error) {
	return createOrGetNamed(ctx, db, "decks", name)
}

// CreateOrGetModel returns the id of the named note model, creating it if needed.
func CreateOrGetModel(ctx context.Context, db DBExecutor, name string) (int64, error) {
	return createOrGetNamed(ctx, db, "models", name)
}

func createOrGetNamed(ctx context.Context, db DBExecutor, table, name string) (int64, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return 0, fmt.Errorf("%s: name must be non-empty", table)
	}
	query, args, err := sq.Insert(table).
		Columns("name").
		Values(trimmed).
		Suffix("ON CONFLICT(name) DO UPDATE SET name = excluded.name RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", table, err)
	}
	return id, nil
}

// UpsertNote inserts the note or, when its GUID already exists, replaces its
// fields. It returns the note id.
func UpsertNote(ctx context.Context, db DBExecutor, n Note) (int64, error) {
	if strings.TrimSpace(n.GUID) == "" {
		return 0, fmt.Errorf("note guid must be non-empty")
	}
	if n.ModelID <= 0 {
		return 0, fmt.Errorf("modelID must be positive")
	}
	flds, err := json.Marshal(n.Fields)
	if err != nil {
		return 0, fmt.Errorf("encode fields: %w", err)
	}
	createdAt := n.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	var id int64
	err = db.QueryRowContext(ctx, `INSERT INTO notes (guid, mid, flds, source, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
		  mid = excluded.mid,
		  flds = excluded.flds,
		  source = COALESCE(NULLIF(excluded.source, ''), notes.source)
		RETURNING id`, n.GUID, n.ModelID, string(flds), n.Source, createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert note: %w", err)
	}
	return id, nil
}

// UpsertCard places card ord of a note in a deck and queue, returning its id.
func UpsertCard(ctx context.Context, db DBExecutor, noteID, deckID int64, ord, queue int) (int64, error) {
	if noteID <= 0 {
		return 0, fmt.Errorf("noteID must be positive")
	}
	if deckID <= 0 {
		return 0, fmt.Errorf("deckID must be positive")
	}
	var id int64
	err := db.QueryRowContext(ctx, `INSERT INTO cards (nid, did, ord, queue)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(nid, ord) DO UPDATE SET did = excluded.did, queue = excluded.queue
		RETURNING id`, noteID, deckID, ord, queue).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert card: %w", err)
	}
	return id, nil
}

// InsertReview records a review of a card at studiedAt (epoch ms). A review
// already recorded at the same moment is ignored; the return value reports
// whether a row was added.
func InsertReview(ctx context.Context, db DBExecutor, cardID, studiedAt int64) (bool, error) {
	if cardID <= 0 {
		return false, fmt.Errorf("cardID must be positive")
	}
	if studiedAt <= 0 {
		return false, fmt.Errorf("studiedAt must be positive, got %d", studiedAt)
	}
	res, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO revlog (cid, studied_at) VALUES (?, ?)`, cardID, studiedAt)
	if err != nil {
		return false, fmt.Errorf("insert review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// StudiedNotes returns every note with at least one reviewed card in a
// non-new queue, with the time of its earliest review, ordered by that time.
func StudiedNotes(ctx context.Context, db DBExecutor) ([]StudiedNote, error) {
	// SQLite fills bare columns from the row that supplied MIN(), so the deck
	// reported is the one of the first-reviewed card.
	query, args, err := sq.Select(
		"n.id", "n.mid", "m.name", "c.did", "d.name", "n.flds",
		"MIN(r.studied_at) AS first_study",
	).
		From("notes n").
		Join("cards c ON c.nid = n.id").
		Join("revlog r ON r.cid = c.id").
		Join("models m ON m.id = n.mid").
		Join("decks d ON d.id = c.did").
		Where(sq.Gt{"c.queue": QueueNew}).
		GroupBy("n.id").
		OrderBy("first_study", "n.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query studied notes: %w", err)
	}
	defer rows.Close()

	var out []StudiedNote
	for rows.Next() {
		var s StudiedNote
		var flds string
		if err := rows.Scan(&s.NoteID, &s.ModelID, &s.ModelName, &s.DeckID, &s.DeckName, &flds, &s.FirstStudyMs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(flds), &s.Fields); err != nil {
			return nil, fmt.Errorf("note %d: decode fields: %w", s.NoteID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeckModels lists, per deck and model, the field names present on its notes.
func DeckModels(ctx context.Context, db DBExecutor) ([]DeckModel, error) {
	query, args, err := sq.Select("d.name", "m.name", "j.key").
		Distinct().
		From("notes n").
		Join("cards c ON c.nid = n.id").
		Join("decks d ON d.id = c.did").
		Join("models m ON m.id = n.mid").
		Join("json_each(n.flds) j").
		OrderBy("d.name", "m.name", "j.key").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deck models: %w", err)
	}
	defer rows.Close()

	var out []DeckModel
	for rows.Next() {
		var deck, model, field string
		if err := rows.Scan(&deck, &model, &field); err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].DeckName == deck && out[n-1].ModelName == model {
			out[n-1].Fields = append(out[n-1].Fields, field)
			continue
		}
		out = append(out, DeckModel{DeckName: deck, ModelName: model, Fields: []string{field}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
