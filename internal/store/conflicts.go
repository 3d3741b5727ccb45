// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ConflictClassifier recognises backend-specific driver errors that signal a
// uniqueness constraint violation. Repositories use it where an insert
// racing an identical insert must be resolved by reading the winning row
// instead of failing the sync.
type ConflictClassifier interface {
	IsUniqueViolation(err error) bool
}

// SQLiteConflictClassifier implements [ConflictClassifier] for the
// mattn/go-sqlite3 driver.
type SQLiteConflictClassifier struct{}

// NewSQLiteConflictClassifier constructs a [SQLiteConflictClassifier] ready for use.
func NewSQLiteConflictClassifier() *SQLiteConflictClassifier {
	return &SQLiteConflictClassifier{}
}

// IsUniqueViolation reports whether err unwraps to a SQLite constraint error
// with the unique (or primary key) extended code.
func (c *SQLiteConflictClassifier) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}

// PostgresConflictClassifier implements [ConflictClassifier] for the pgx
// driver. It inspects the pgconn error code and matches the unique_violation
// class 23 code.
type PostgresConflictClassifier struct{}

// NewPostgresConflictClassifier constructs a [PostgresConflictClassifier] ready for use.
func NewPostgresConflictClassifier() *PostgresConflictClassifier {
	return &PostgresConflictClassifier{}
}

// IsUniqueViolation reports whether err unwraps to a *pgconn.PgError carrying
// pgerrcode.UniqueViolation (23505).
func (c *PostgresConflictClassifier) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	return false
}
