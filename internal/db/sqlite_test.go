package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/wablast/internal/db"
)

func TestNewSQLiteConnection(t *testing.T) {
	sdb, err := db.NewSQLiteConnection(":memory:", db.SQLiteOpts{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sdb.Close() })

	var one int
	require.NoError(t, sdb.Get(&one, "SELECT 1"))
	assert.Equal(t, 1, one)
}

func TestNewSQLiteConnectionEmptyDSN(t *testing.T) {
	_, err := db.NewSQLiteConnection("", db.SQLiteOpts{})
	assert.Error(t, err)
}
