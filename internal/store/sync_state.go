// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/pkazmin/go-media-cache/models"
)

// runner is the subset of *sql.DB and *sql.Tx the sync-state helpers need,
// so the same code serves both standalone calls and calls inside an open
// page-application transaction.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) getResumePoint(ctx context.Context, run runner, domain models.Domain, source models.SyncSource, targetKey string) (models.ResumePoint, error) {
	query, args, err := db.builder.
		Select("resume_token", "authority", "collection_id").
		From("sync_state").
		Where(sq.Eq{"domain": string(domain), "source": source.String(), "target_key": targetKey}).
		ToSql()
	if err != nil {
		return models.ResumePoint{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var resume models.ResumePoint
	row := run.QueryRowContext(ctx, query, args...)
	if scanErr := row.Scan(&resume.Token, &resume.Authority, &resume.CollectionID); scanErr != nil {
		// never-synced targets start from scratch
		if errors.Is(scanErr, sql.ErrNoRows) {
			return models.ResumePoint{}, nil
		}
		return models.ResumePoint{}, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
	}

	return resume, nil
}

func (db *DB) setResumePoint(ctx context.Context, run runner, domain models.Domain, source models.SyncSource, targetKey string, resume models.ResumePoint) error {
	query, args, err := db.builder.
		Insert("sync_state").
		Columns("domain", "source", "target_key", "resume_token", "authority", "collection_id", "updated_at_ms").
		Values(string(domain), source.String(), targetKey, resume.Token, resume.Authority, resume.CollectionID, time.Now().UnixMilli()).
		Suffix("ON CONFLICT (domain, source, target_key) DO UPDATE SET " +
			"resume_token = excluded.resume_token, " +
			"authority = excluded.authority, " +
			"collection_id = excluded.collection_id, " +
			"updated_at_ms = excluded.updated_at_ms").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, execErr := run.ExecContext(ctx, query, args...); execErr != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	return nil
}

func (db *DB) clearResumePoint(ctx context.Context, run runner, domain models.Domain, source models.SyncSource, targetKey string) error {
	query, args, err := db.builder.
		Delete("sync_state").
		Where(sq.Eq{"domain": string(domain), "source": source.String(), "target_key": targetKey}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, execErr := run.ExecContext(ctx, query, args...); execErr != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	return nil
}
