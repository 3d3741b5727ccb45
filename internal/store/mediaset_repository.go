// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/models"
)

type mediaSetRepository struct {
	*DB
	logger *logger.Logger
}

// NewMediaSetRepository constructs the repository backing media sets and
// their membership rows.
func NewMediaSetRepository(db *DB, logger *logger.Logger) MediaSetRepository {
	return &mediaSetRepository{
		DB:     db,
		logger: logger,
	}
}

// MediaSetsTargetKey derives the sync-state key of one category pull. The
// category, authority and mime filter together identify the paging cursor.
func MediaSetsTargetKey(params models.MediaSetsSyncParams) string {
	return strings.Join([]string{
		params.CategoryID,
		params.Authority,
		models.NormalizedMimeTypes(params.MimeTypes),
	}, "|")
}

func (r *mediaSetRepository) ApplyMediaSetsPage(ctx context.Context, source models.SyncSource, params models.MediaSetsSyncParams, sets []models.MediaSet, resume models.ResumePoint) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "mediaSetRepository.ApplyMediaSetsPage").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	mimeTypes := models.NormalizedMimeTypes(params.MimeTypes)
	for _, set := range sets {
		// a set already present keeps its row and, crucially, its picker id
		// and resume token; re-synced metadata never resets contents paging
		query, args, buildErr := r.builder.
			Insert("media_set").
			Columns("category_id", "media_set_id", "authority", "mime_types", "display_name", "cover_media_id").
			Values(params.CategoryID, set.MediaSetID, set.Authority, mimeTypes, set.DisplayName, set.CoverMediaID).
			Suffix("ON CONFLICT (category_id, media_set_id, authority, mime_types) DO NOTHING").
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}

		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).
				Str("func", "mediaSetRepository.ApplyMediaSetsPage").
				Str("category_id", params.CategoryID).
				Str("media_set_id", set.MediaSetID).
				Msg("failed to execute upsert for media set")
			return fmt.Errorf("failed to save media set (media_set_id=%s): %w", set.MediaSetID, execErr)
		}
	}

	if stateErr := r.setResumePoint(ctx, tx, models.DomainMediaSets, source, MediaSetsTargetKey(params), resume); stateErr != nil {
		log.Err(stateErr).
			Str("func", "mediaSetRepository.ApplyMediaSetsPage").
			Str("category_id", params.CategoryID).
			Msg("failed to store resume point for media sets page")
		return stateErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "mediaSetRepository.ApplyMediaSetsPage").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *mediaSetRepository) GetMediaSet(ctx context.Context, pickerID int64) (models.MediaSet, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("id", "category_id", "media_set_id", "authority", "mime_types", "display_name", "cover_media_id", "resume_token", "resume_authority").
		From("media_set").
		Where(sq.Eq{"id": pickerID}).
		ToSql()
	if err != nil {
		return models.MediaSet{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		set                    models.MediaSet
		token, resumeAuthority sql.NullString
	)
	row := r.DB.QueryRowContext(ctx, query, args...)
	scanErr := row.Scan(
		&set.PickerID,
		&set.CategoryID,
		&set.MediaSetID,
		&set.Authority,
		&set.MimeTypes,
		&set.DisplayName,
		&set.CoverMediaID,
		&token,
		&resumeAuthority,
	)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return models.MediaSet{}, ErrMediaSetNotFound
		}
		log.Err(scanErr).
			Str("func", "mediaSetRepository.GetMediaSet").
			Int64("picker_id", pickerID).
			Msg("failed to scan media set row")
		return models.MediaSet{}, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
	}

	set.Resume = models.ResumePoint{
		Token:     textOrEmpty(token),
		Authority: textOrEmpty(resumeAuthority),
	}

	return set, nil
}

func (r *mediaSetRepository) ListMediaSets(ctx context.Context, categoryID, authority string) ([]models.MediaSet, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("id", "category_id", "media_set_id", "authority", "mime_types", "display_name", "cover_media_id", "resume_token", "resume_authority").
		From("media_set").
		Where(sq.Eq{"category_id": categoryID, "authority": authority}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, queryErr := r.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", "mediaSetRepository.ListMediaSets").
			Str("category_id", categoryID).
			Msg("failed to query media sets")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	var sets []models.MediaSet
	for rows.Next() {
		var (
			set                    models.MediaSet
			token, resumeAuthority sql.NullString
		)

		scanErr := rows.Scan(
			&set.PickerID,
			&set.CategoryID,
			&set.MediaSetID,
			&set.Authority,
			&set.MimeTypes,
			&set.DisplayName,
			&set.CoverMediaID,
			&token,
			&resumeAuthority,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "mediaSetRepository.ListMediaSets").
				Str("category_id", categoryID).
				Msg("failed to scan media set row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, scanErr)
		}
		set.Resume = models.ResumePoint{
			Token:     textOrEmpty(token),
			Authority: textOrEmpty(resumeAuthority),
		}

		sets = append(sets, set)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "mediaSetRepository.ListMediaSets").
			Str("category_id", categoryID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating media set rows: %w", rowsErr)
	}

	return sets, nil
}

func (r *mediaSetRepository) updateMediaSetResume(ctx context.Context, run runner, pickerID int64, resume models.ResumePoint) error {
	query, args, err := r.builder.
		Update("media_set").
		Set("resume_token", textOrNull(resume.Token)).
		Set("resume_authority", textOrNull(resume.Authority)).
		Where(sq.Eq{"id": pickerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, execErr := run.ExecContext(ctx, query, args...)
	if execErr != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrMediaSetNotFound
	}

	return nil
}

func (r *mediaSetRepository) ApplyMediaInMediaSetPage(ctx context.Context, pickerID int64, source models.SyncSource, items []models.MediaInMediaSetItem, resume models.ResumePoint) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "mediaSetRepository.ApplyMediaInMediaSetPage").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for _, item := range items {
		query, args, buildErr := r.builder.
			Insert("media_in_media_set").
			Columns("media_set_picker_id", "local_id", "cloud_id").
			Values(pickerID, nullableText(item.LocalID), nullableText(item.CloudID)).
			Suffix("ON CONFLICT (media_set_picker_id, local_id, cloud_id) DO NOTHING").
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}

		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).
				Str("func", "mediaSetRepository.ApplyMediaInMediaSetPage").
				Int64("picker_id", pickerID).
				Str("source", source.String()).
				Msg("failed to execute upsert for media set membership row")
			return fmt.Errorf("failed to save media set membership row (picker_id=%d): %w", pickerID, execErr)
		}
	}

	if resumeErr := r.updateMediaSetResume(ctx, tx, pickerID, resume); resumeErr != nil {
		log.Err(resumeErr).
			Str("func", "mediaSetRepository.ApplyMediaInMediaSetPage").
			Int64("picker_id", pickerID).
			Msg("failed to store resume point for media set contents page")
		return resumeErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "mediaSetRepository.ApplyMediaInMediaSetPage").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *mediaSetRepository) ClearMediaInMediaSet(ctx context.Context, pickerID int64, source models.SyncSource) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "mediaSetRepository.ClearMediaInMediaSet").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, buildErr := r.builder.
		Delete("media_in_media_set").
		Where(sq.And{sq.Eq{"media_set_picker_id": pickerID}, sourceRowPredicate(source)}).
		ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}

	if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
		log.Err(execErr).
			Str("func", "mediaSetRepository.ClearMediaInMediaSet").
			Int64("picker_id", pickerID).
			Str("source", source.String()).
			Msg("failed to delete media set membership rows")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	if resumeErr := r.updateMediaSetResume(ctx, tx, pickerID, models.ResumePoint{}); resumeErr != nil {
		return resumeErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "mediaSetRepository.ClearMediaInMediaSet").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *mediaSetRepository) ClearMediaSets(ctx context.Context, source models.SyncSource, params models.MediaSetsSyncParams) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "mediaSetRepository.ClearMediaSets").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, buildErr := r.builder.
		Delete("media_set").
		Where(sq.Eq{
			"category_id": params.CategoryID,
			"authority":   params.Authority,
			"mime_types":  models.NormalizedMimeTypes(params.MimeTypes),
		}).
		ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}

	if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
		log.Err(execErr).
			Str("func", "mediaSetRepository.ClearMediaSets").
			Str("category_id", params.CategoryID).
			Str("authority", params.Authority).
			Msg("failed to delete media sets")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	if stateErr := r.clearResumePoint(ctx, tx, models.DomainMediaSets, source, MediaSetsTargetKey(params)); stateErr != nil {
		return stateErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "mediaSetRepository.ClearMediaSets").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *mediaSetRepository) ClearAllMediaSetData(ctx context.Context) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "mediaSetRepository.ClearAllMediaSetData").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	// deleting the sets cascades to their membership rows
	deleteSets, args, buildErr := r.builder.Delete("media_set").ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}
	if _, execErr := tx.ExecContext(ctx, deleteSets, args...); execErr != nil {
		log.Err(execErr).Str("func", "mediaSetRepository.ClearAllMediaSetData").Msg("failed to delete media sets")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	deleteState, args, buildErr := r.builder.
		Delete("sync_state").
		Where(sq.Eq{"domain": []string{string(models.DomainMediaSets), string(models.DomainMediaSetContents)}}).
		ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}
	if _, execErr := tx.ExecContext(ctx, deleteState, args...); execErr != nil {
		log.Err(execErr).Str("func", "mediaSetRepository.ClearAllMediaSetData").Msg("failed to delete media set sync state")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "mediaSetRepository.ClearAllMediaSetData").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}
