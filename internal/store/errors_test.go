package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"medeasy/pharmacy/domain"
)

func TestIsDBClosed(t *testing.T) {
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.ExecContext(context.Background(), `SELECT 1`)
	require.Error(t, err)
	assert.True(t, isDBClosed(err))
	assert.ErrorIs(t, mapErr("exec on closed pool", err), domain.ErrStorageUnavailable)

	assert.False(t, isDBClosed(errors.New("disk I/O error")))
	assert.NotErrorIs(t, mapErr("other", errors.New("boom")), domain.ErrStorageUnavailable)
}
