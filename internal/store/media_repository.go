// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/models"
)

type mediaRepository struct {
	*DB
	logger *logger.Logger
}

// NewMediaRepository constructs the repository backing the main media grid
// and album membership tables.
func NewMediaRepository(db *DB, logger *logger.Logger) MediaRepository {
	return &mediaRepository{
		DB:     db,
		logger: logger,
	}
}

// Conflict suffixes for the (local_id, cloud_id) identity of a media row.
// A fresh local row replaces whatever the cache holds for the same identity;
// a fresh cloud row defers to the existing row. This keeps re-applying the
// same page idempotent in both directions.
const (
	mediaConflictReplace = "ON CONFLICT (local_id, cloud_id) DO UPDATE SET " +
		"authority = excluded.authority, " +
		"date_taken_ms = excluded.date_taken_ms, " +
		"size_bytes = excluded.size_bytes, " +
		"mime_type = excluded.mime_type"
	mediaConflictIgnore = "ON CONFLICT (local_id, cloud_id) DO NOTHING"
)

func (r *mediaRepository) ApplyMediaPage(ctx context.Context, source models.SyncSource, items []models.MediaItem, resume models.ResumePoint) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "mediaRepository.ApplyMediaPage").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for _, item := range items {
		suffix := mediaConflictIgnore
		if item.IsLocalRow() {
			suffix = mediaConflictReplace
		}

		query, args, buildErr := r.builder.
			Insert("media").
			Columns("local_id", "cloud_id", "authority", "date_taken_ms", "size_bytes", "mime_type").
			Values(nullableText(item.LocalID), nullableText(item.CloudID), item.Authority, item.DateTakenMS, item.SizeBytes, item.MimeType).
			Suffix(suffix).
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}

		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).
				Str("func", "mediaRepository.ApplyMediaPage").
				Str("source", source.String()).
				Str("local_id", item.LocalID).
				Str("cloud_id", item.CloudID).
				Msg("failed to execute upsert for media row")
			return fmt.Errorf("failed to save media row: %w", execErr)
		}
	}

	if stateErr := r.setResumePoint(ctx, tx, models.DomainMedia, source, "", resume); stateErr != nil {
		log.Err(stateErr).
			Str("func", "mediaRepository.ApplyMediaPage").
			Str("source", source.String()).
			Msg("failed to store resume point for media page")
		return stateErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "mediaRepository.ApplyMediaPage").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *mediaRepository) ApplyAlbumMediaPage(ctx context.Context, albumID string, source models.SyncSource, items []models.AlbumMediaItem, resume models.ResumePoint) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "mediaRepository.ApplyAlbumMediaPage").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for _, item := range items {
		// membership rows carry no payload beyond their identity, so the
		// replace and ignore policies collapse to the same upsert
		query, args, buildErr := r.builder.
			Insert("album_media").
			Columns("album_id", "local_id", "cloud_id").
			Values(albumID, nullableText(item.LocalID), nullableText(item.CloudID)).
			Suffix("ON CONFLICT (album_id, local_id, cloud_id) DO NOTHING").
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}

		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).
				Str("func", "mediaRepository.ApplyAlbumMediaPage").
				Str("album_id", albumID).
				Str("source", source.String()).
				Msg("failed to execute upsert for album media row")
			return fmt.Errorf("failed to save album media row (album_id=%s): %w", albumID, execErr)
		}
	}

	if stateErr := r.setResumePoint(ctx, tx, models.DomainAlbumMedia, source, albumID, resume); stateErr != nil {
		log.Err(stateErr).
			Str("func", "mediaRepository.ApplyAlbumMediaPage").
			Str("album_id", albumID).
			Str("source", source.String()).
			Msg("failed to store resume point for album media page")
		return stateErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "mediaRepository.ApplyAlbumMediaPage").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

// sourceRowPredicate distinguishes rows by origin: a row without a cloud
// identifier was produced by the local provider, everything else came from
// a cloud provider.
func sourceRowPredicate(source models.SyncSource) sq.Sqlizer {
	if source.IsLocal() {
		return sq.Eq{"cloud_id": PlaceholderForAbsent}
	}

	return sq.NotEq{"cloud_id": PlaceholderForAbsent}
}

func (r *mediaRepository) ClearMedia(ctx context.Context, source models.SyncSource) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "mediaRepository.ClearMedia").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, buildErr := r.builder.
		Delete("media").
		Where(sourceRowPredicate(source)).
		ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}

	if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
		log.Err(execErr).
			Str("func", "mediaRepository.ClearMedia").
			Str("source", source.String()).
			Msg("failed to delete media rows")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	if stateErr := r.clearResumePoint(ctx, tx, models.DomainMedia, source, ""); stateErr != nil {
		return stateErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "mediaRepository.ClearMedia").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *mediaRepository) ClearAlbumMedia(ctx context.Context, albumID string, source models.SyncSource) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "mediaRepository.ClearAlbumMedia").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, buildErr := r.builder.
		Delete("album_media").
		Where(sq.And{sq.Eq{"album_id": albumID}, sourceRowPredicate(source)}).
		ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}

	if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
		log.Err(execErr).
			Str("func", "mediaRepository.ClearAlbumMedia").
			Str("album_id", albumID).
			Str("source", source.String()).
			Msg("failed to delete album media rows")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	if stateErr := r.clearResumePoint(ctx, tx, models.DomainAlbumMedia, source, albumID); stateErr != nil {
		return stateErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "mediaRepository.ClearAlbumMedia").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *mediaRepository) ClearAllAlbumMedia(ctx context.Context) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "mediaRepository.ClearAllAlbumMedia").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	deleteRows, args, buildErr := r.builder.Delete("album_media").ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}
	if _, execErr := tx.ExecContext(ctx, deleteRows, args...); execErr != nil {
		log.Err(execErr).Str("func", "mediaRepository.ClearAllAlbumMedia").Msg("failed to delete album media rows")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	deleteState, args, buildErr := r.builder.
		Delete("sync_state").
		Where(sq.Eq{"domain": string(models.DomainAlbumMedia)}).
		ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}
	if _, execErr := tx.ExecContext(ctx, deleteState, args...); execErr != nil {
		log.Err(execErr).Str("func", "mediaRepository.ClearAllAlbumMedia").Msg("failed to delete album sync state")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "mediaRepository.ClearAllAlbumMedia").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *mediaRepository) GetResumePoint(ctx context.Context, domain models.Domain, source models.SyncSource, targetKey string) (models.ResumePoint, error) {
	return r.getResumePoint(ctx, r.DB.DB, domain, source, targetKey)
}

func (r *mediaRepository) SetResumePoint(ctx context.Context, domain models.Domain, source models.SyncSource, targetKey string, resume models.ResumePoint) error {
	return r.setResumePoint(ctx, r.DB.DB, domain, source, targetKey, resume)
}

func (r *mediaRepository) ClearResumePoint(ctx context.Context, domain models.Domain, source models.SyncSource, targetKey string) error {
	return r.clearResumePoint(ctx, r.DB.DB, domain, source, targetKey)
}
