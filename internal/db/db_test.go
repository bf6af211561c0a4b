package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesTables(t *testing.T) {
	database := NewTestDB(t)

	for _, table := range []string{"users", "items", "swaps", "wishlists", "reviews", "images", "settings", "revoked_tokens"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestFoldLowercasesUnicode(t *testing.T) {
	database := NewTestDB(t)

	var got string
	require.NoError(t, database.QueryRow(`SELECT fold(?)`, "ĆEVAP Šal").Scan(&got))
	assert.Equal(t, "ćevap šal", got)

	var null *string
	require.NoError(t, database.QueryRow(`SELECT fold(NULL)`).Scan(&null))
	assert.Nil(t, null)
}

func TestMigrateIdempotent(t *testing.T) {
	database := NewTestDB(t)
	require.NoError(t, Migrate(context.Background(), database))
}

func TestForeignKeysEnabled(t *testing.T) {
	database := NewTestDB(t)

	var on int
	require.NoError(t, database.QueryRow(`PRAGMA foreign_keys`).Scan(&on))
	assert.Equal(t, 1, on)

	_, err := database.Exec(`INSERT INTO items (user_id, title, description, category, type, size, condition, points_value)
		VALUES (999, 't', 'd', 'c', 'x', 'M', 'Good', 10)`)
	assert.Error(t, err)
}

func TestActiveRequiresApproval(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO users (email, password_hash) VALUES ('a@example.com', 'x')`)
	require.NoError(t, err)

	_, err = database.Exec(`INSERT INTO items (user_id, title, description, category, type, size, condition, points_value, status)
		VALUES (1, 't', 'd', 'c', 'x', 'M', 'Good', 10, 'active')`)
	assert.Error(t, err)
}
