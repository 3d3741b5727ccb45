// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pkazmin/go-media-cache/internal/config"
	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/migrations"
)

// DB wraps the raw database handle together with the pieces every repository
// needs: a statement builder configured for the backend's placeholder format
// and a classifier that recognises uniqueness violations for that backend.
type DB struct {
	*sql.DB
	builder   sq.StatementBuilderType
	conflicts ConflictClassifier
	dialect   string
	logger    *logger.Logger
}

// NewConnect opens the cache database described by cfg. A DSN starting with
// postgres:// (or postgresql://) selects the PostgreSQL backend; anything
// else is treated as a SQLite file path.
func NewConnect(ctx context.Context, cfg config.Storage, log *logger.Logger) (*DB, error) {
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		return NewConnectPostgres(ctx, cfg, log)
	}

	return NewConnectSQLite(ctx, cfg, log)
}

func NewConnectSQLite(ctx context.Context, cfg config.Storage, log *logger.Logger) (*DB, error) {
	// db will be in file
	if err := createLocalDBFileIfNotExists(cfg.DSN); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file")
	}

	// foreign_keys is off by default in SQLite and the schema relies on
	// ON DELETE CASCADE for search results and media set contents.
	conn, err := sql.Open("sqlite3", cfg.DSN+"?_foreign_keys=on")
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB")
	}

	// ping database
	err = conn.PingContext(ctx)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, err
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("connected to database successfully")

	// construct a DB struct
	db := &DB{
		DB:        conn,
		builder:   sq.StatementBuilder.PlaceholderFormat(sq.Question),
		conflicts: NewSQLiteConflictClassifier(),
		dialect:   "sqlite3",
		logger:    log,
	}

	return db, nil
}

func NewConnectPostgres(ctx context.Context, cfg config.Storage, log *logger.Logger) (*DB, error) {
	// establish connection
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error occured during database connection")
		return nil, fmt.Errorf("error occured during database connection: %w", err)
	}

	// setup connections
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(4)

	// ping database
	err = conn.PingContext(ctx)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error connecting database (ping)")
		return nil, err
	}
	log.Info().Str("func", "NewConnectPostgres").Msg("connected to database successfully")

	// construct a DB struct
	db := &DB{
		DB:        conn,
		builder:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		conflicts: NewPostgresConflictClassifier(),
		dialect:   "pgx",
		logger:    log,
	}

	return db, nil
}

// Migrate applies all pending schema migrations for the connected backend.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		// if not found - create
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	// file already exists
	return nil
}
