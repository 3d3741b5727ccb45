// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkazmin/go-media-cache/internal/config"
	"github.com/pkazmin/go-media-cache/internal/logger"
)

// newTestDB opens a migrated SQLite cache in a per-test temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "cache.db")
	db, err := NewConnectSQLite(context.Background(), config.Storage{DSN: dsn}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func newTestRepos(t *testing.T) (*Repositories, *DB) {
	t.Helper()

	db := newTestDB(t)
	return NewRepositories(db, logger.Nop()), db
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()

	var n int
	err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}
