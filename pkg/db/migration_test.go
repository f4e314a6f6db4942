package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableColumns(t *testing.T, conn *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := conn.Query("PRAGMA table_info(" + table + ")")
	require.NoError(t, err)
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var colName, ctype string
		var notnull, pk int
		var dfltVal any
		require.NoError(t, rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk))
		cols[colName] = true
	}
	require.NoError(t, rows.Err())
	return cols
}

// TestInitDBCreatesSchema verifies a fresh database gets the corpus tables.
func TestInitDBCreatesSchema(t *testing.T) {
	conn := setupTestDB(t)

	for _, table := range []string{"decks", "models", "notes", "cards", "revlog"} {
		var name string
		err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "%s table missing", table)
	}

	cols := tableColumns(t, conn, "revlog")
	assert.True(t, cols["cid"] && cols["studied_at"], "revlog columns: %v", cols)
	cols = tableColumns(t, conn, "cards")
	assert.True(t, cols["nid"] && cols["did"] && cols["queue"], "cards columns: %v", cols)
}

// TestInitDBIsIdempotent reopens a file database and expects no migration errors.
func TestInitDBIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	ctx := context.Background()

	conn, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = CreateOrGetDeck(ctx, conn, "Deck")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	conn, err = Open(ctx, path)
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM decks`).Scan(&n))
	assert.Equal(t, 1, n)
}
