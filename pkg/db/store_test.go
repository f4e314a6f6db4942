package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(context.Background(), ":memory:")
	require.NoError(t, err, "open db")
	t.Cleanup(func() { conn.Close() })
	return conn
}

type fixture struct {
	t    *testing.T
	db   *sql.DB
	ctx  context.Context
	guid int
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, db: setupTestDB(t), ctx: context.Background()}
}

// note creates a note in model with one card per deck, and returns the card ids.
func (f *fixture) note(model string, fields map[string]string, queue int, decks ...string) (int64, []int64) {
	f.t.Helper()
	mid, err := CreateOrGetModel(f.ctx, f.db, model)
	require.NoError(f.t, err)
	f.guid++
	nid, err := UpsertNote(f.ctx, f.db, Note{GUID: string(rune('a' + f.guid)), ModelID: mid, Fields: fields})
	require.NoError(f.t, err)
	var cards []int64
	for ord, deck := range decks {
		did, err := CreateOrGetDeck(f.ctx, f.db, deck)
		require.NoError(f.t, err)
		cid, err := UpsertCard(f.ctx, f.db, nid, did, ord, queue)
		require.NoError(f.t, err)
		cards = append(cards, cid)
	}
	return nid, cards
}

func (f *fixture) review(cid, at int64) {
	f.t.Helper()
	_, err := InsertReview(f.ctx, f.db, cid, at)
	require.NoError(f.t, err)
}

func TestCreateOrGetDeck(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id1, err := CreateOrGetDeck(ctx, db, "Chinese::Sentences")
	require.NoError(t, err)
	id2, err := CreateOrGetDeck(ctx, db, " Chinese::Sentences ")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	_, err = CreateOrGetDeck(ctx, db, "  ")
	assert.Error(t, err)
}

func TestUpsertNote_ReplacesFieldsByGUID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	mid, err := CreateOrGetModel(ctx, db, "Basic")
	require.NoError(t, err)

	id1, err := UpsertNote(ctx, db, Note{GUID: "g1", ModelID: mid, Fields: map[string]string{"Front": "你好"}})
	require.NoError(t, err)
	id2, err := UpsertNote(ctx, db, Note{GUID: "g1", ModelID: mid, Fields: map[string]string{"Front": "谢谢"}})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	var flds string
	require.NoError(t, db.QueryRow(`SELECT flds FROM notes WHERE id = ?`, id1).Scan(&flds))
	assert.JSONEq(t, `{"Front":"谢谢"}`, flds)
}

func TestInsertReview_IgnoresDuplicate(t *testing.T) {
	f := newFixture(t)
	_, cards := f.note("Basic", map[string]string{"Front": "你好"}, QueueReview, "Deck")

	added, err := InsertReview(f.ctx, f.db, cards[0], 1000)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = InsertReview(f.ctx, f.db, cards[0], 1000)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = InsertReview(f.ctx, f.db, cards[0], 0)
	assert.Error(t, err)
}

func TestStudiedNotes(t *testing.T) {
	f := newFixture(t)

	// Two cards in different decks; the later deck's card was reviewed first.
	n1, c1 := f.note("Sentence", map[string]string{"Hanzi": "你好吗"}, QueueReview, "A", "B")
	f.review(c1[0], 5000)
	f.review(c1[1], 3000)
	f.review(c1[1], 9000)

	n2, c2 := f.note("Basic", map[string]string{"Front": "谢谢"}, QueueLearning, "A")
	f.review(c2[0], 2000)

	// New cards and unreviewed notes are not studied.
	_, c3 := f.note("Basic", map[string]string{"Front": "再见"}, QueueNew, "A")
	f.review(c3[0], 1000)
	f.note("Basic", map[string]string{"Front": "他们"}, QueueReview, "A")

	notes, err := StudiedNotes(f.ctx, f.db)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	assert.Equal(t, n2, notes[0].NoteID)
	assert.Equal(t, int64(2000), notes[0].FirstStudyMs)
	assert.Equal(t, "Basic", notes[0].ModelName)

	assert.Equal(t, n1, notes[1].NoteID)
	assert.Equal(t, int64(3000), notes[1].FirstStudyMs)
	assert.Equal(t, "B", notes[1].DeckName)
	assert.Equal(t, "Sentence", notes[1].ModelName)
	assert.Equal(t, map[string]string{"Hanzi": "你好吗"}, notes[1].Fields)
}

func TestStudiedNotes_Empty(t *testing.T) {
	db := setupTestDB(t)

	notes, err := StudiedNotes(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestDeckModels(t *testing.T) {
	f := newFixture(t)
	f.note("Basic", map[string]string{"Front": "a", "Back": "b"}, QueueReview, "Vocab")
	f.note("Basic", map[string]string{"Front": "c", "Extra": "d"}, QueueReview, "Vocab")
	f.note("Sentence", map[string]string{"Hanzi": "e"}, QueueReview, "Reading")

	got, err := DeckModels(f.ctx, f.db)
	require.NoError(t, err)

	assert.Equal(t, []DeckModel{
		{DeckName: "Reading", ModelName: "Sentence", Fields: []string{"Hanzi"}},
		{DeckName: "Vocab", ModelName: "Basic", Fields: []string{"Back", "Extra", "Front"}},
	}, got)
}

func TestCreateOrGetModelConcurrency(t *testing.T) {
	db := setupTestDB(t)
	const n = 8
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		go func() {
			id, err := CreateOrGetModel(context.Background(), db, "Basic")
			if err != nil {
				t.Errorf("create or get model: %v", err)
				ids <- 0
				return
			}
			ids <- id
		}()
	}
	var first int64
	for i := 0; i < n; i++ {
		id := <-ids
		require.NotZero(t, id, "error in goroutine")
		if i == 0 {
			first = id
		}
		assert.Equal(t, first, id)
	}
	var cnt int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM models WHERE name = ?`, "Basic").Scan(&cnt))
	assert.Equal(t, 1, cnt)
}
