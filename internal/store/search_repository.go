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

type searchRepository struct {
	*DB
	logger *logger.Logger
}

// NewSearchRepository constructs the repository backing search requests,
// their result rows, suggestions and history.
func NewSearchRepository(db *DB, logger *logger.Logger) SearchRepository {
	return &searchRepository{
		DB:     db,
		logger: logger,
	}
}

// searchRequestKey is the persisted identity tuple of a logical search
// request. Absent parts are stored as the empty placeholder so that two
// requests differing only in which parts are absent still compare equal
// under the table's uniqueness constraint.
type searchRequestKey struct {
	searchText          string
	mimeTypes           string
	mediaSetID          string
	suggestionAuthority string
	suggestionType      string
}

func keyOfSearchRequest(req models.SearchRequest) (searchRequestKey, error) {
	switch v := req.(type) {
	case *models.SearchTextRequest:
		return searchRequestKey{
			searchText: v.SearchText,
			mimeTypes:  models.NormalizedMimeTypes(v.MimeTypes),
		}, nil
	case *models.SearchSuggestionRequest:
		return searchRequestKey{
			searchText:          v.SearchText,
			mimeTypes:           models.NormalizedMimeTypes(v.MimeTypes),
			mediaSetID:          nullableText(v.MediaSetID),
			suggestionAuthority: nullableText(v.SuggestionAuthority),
			suggestionType:      string(v.Type),
		}, nil
	default:
		return searchRequestKey{}, fmt.Errorf("%w: %T", ErrUnknownSearchRequestKind, req)
	}
}

func (r *searchRepository) SaveSearchRequest(ctx context.Context, req models.SearchRequest) (int64, error) {
	log := logger.FromContext(ctx)

	key, err := keyOfSearchRequest(req)
	if err != nil {
		return 0, err
	}

	query, args, buildErr := r.builder.
		Insert("search_request").
		Columns("search_text", "mime_types", "media_set_id", "suggestion_authority", "suggestion_type").
		Values(key.searchText, key.mimeTypes, key.mediaSetID, key.suggestionAuthority, key.suggestionType).
		Suffix("RETURNING id").
		ToSql()
	if buildErr != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}

	var id int64
	scanErr := r.DB.QueryRowContext(ctx, query, args...).Scan(&id)
	if scanErr == nil {
		req.Base().ID = id
		return id, nil
	}

	// an equal logical request already exists: resolve to its id
	if !r.conflicts.IsUniqueViolation(scanErr) {
		log.Err(scanErr).
			Str("func", "searchRepository.SaveSearchRequest").
			Str("search_text", key.searchText).
			Msg("failed to insert search request")
		return 0, fmt.Errorf("failed to save search request: %w", scanErr)
	}

	id, err = r.findSearchRequestID(ctx, key)
	if err != nil {
		log.Err(err).
			Str("func", "searchRepository.SaveSearchRequest").
			Str("search_text", key.searchText).
			Msg("failed to resolve conflicting search request")
		return 0, err
	}

	req.Base().ID = id
	return id, nil
}

func (r *searchRepository) findSearchRequestID(ctx context.Context, key searchRequestKey) (int64, error) {
	query, args, err := r.builder.
		Select("id").
		From("search_request").
		Where(sq.Eq{
			"search_text":          key.searchText,
			"mime_types":           key.mimeTypes,
			"media_set_id":         key.mediaSetID,
			"suggestion_authority": key.suggestionAuthority,
			"suggestion_type":      key.suggestionType,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var id int64
	if scanErr := r.DB.QueryRowContext(ctx, query, args...).Scan(&id); scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return 0, ErrSearchRequestNotFound
		}
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
	}

	return id, nil
}

func (r *searchRepository) GetSearchRequest(ctx context.Context, id int64) (models.SearchRequest, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("search_text", "mime_types", "media_set_id", "suggestion_authority", "suggestion_type",
			"local_resume_token", "local_authority", "cloud_resume_token", "cloud_authority").
		From("search_request").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		key                                                          searchRequestKey
		localToken, localAuthority, cloudToken, cloudAuthorityColumn sql.NullString
	)
	row := r.DB.QueryRowContext(ctx, query, args...)
	scanErr := row.Scan(
		&key.searchText,
		&key.mimeTypes,
		&key.mediaSetID,
		&key.suggestionAuthority,
		&key.suggestionType,
		&localToken,
		&localAuthority,
		&cloudToken,
		&cloudAuthorityColumn,
	)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return nil, ErrSearchRequestNotFound
		}
		log.Err(scanErr).
			Str("func", "searchRepository.GetSearchRequest").
			Int64("id", id).
			Msg("failed to scan search request row")
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
	}

	base := models.SearchRequestBase{
		ID:        id,
		MimeTypes: splitMimeTypes(key.mimeTypes),
		Local: models.ResumePoint{
			Token:     textOrEmpty(localToken),
			Authority: textOrEmpty(localAuthority),
		},
		Cloud: models.ResumePoint{
			Token:     textOrEmpty(cloudToken),
			Authority: textOrEmpty(cloudAuthorityColumn),
		},
	}

	// a request without suggestion provenance is a plain text search
	if key.suggestionType == "" && key.suggestionAuthority == "" && key.mediaSetID == "" {
		return &models.SearchTextRequest{
			SearchRequestBase: base,
			SearchText:        key.searchText,
		}, nil
	}

	if key.suggestionType == "" {
		return nil, fmt.Errorf("%w: request %d has a media set but no suggestion type", ErrUnknownSearchRequestKind, id)
	}

	return &models.SearchSuggestionRequest{
		SearchRequestBase:   base,
		SearchText:          key.searchText,
		MediaSetID:          key.mediaSetID,
		SuggestionAuthority: key.suggestionAuthority,
		Type:                models.SuggestionType(key.suggestionType),
	}, nil
}

func splitMimeTypes(normalized string) []string {
	if normalized == "" {
		return nil
	}

	return strings.Fields(normalized)
}

// resumeColumns returns the per-role resume column names of the
// search_request table.
func resumeColumns(source models.SyncSource) (tokenColumn, authorityColumn string) {
	if source.IsLocal() {
		return "local_resume_token", "local_authority"
	}

	return "cloud_resume_token", "cloud_authority"
}

func (r *searchRepository) updateSearchResume(ctx context.Context, run runner, requestID int64, source models.SyncSource, resume models.ResumePoint) error {
	tokenColumn, authorityColumn := resumeColumns(source)

	query, args, err := r.builder.
		Update("search_request").
		Set(tokenColumn, textOrNull(resume.Token)).
		Set(authorityColumn, textOrNull(resume.Authority)).
		Where(sq.Eq{"id": requestID}).
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
		return ErrSearchRequestNotFound
	}

	return nil
}

func (r *searchRepository) ApplySearchResultsPage(ctx context.Context, requestID int64, source models.SyncSource, items []models.SearchResultItem, resume models.ResumePoint) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "searchRepository.ApplySearchResultsPage").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for _, item := range items {
		query, args, buildErr := r.builder.
			Insert("search_result_media").
			Columns("search_request_id", "local_id", "cloud_id").
			Values(requestID, nullableText(item.LocalID), nullableText(item.CloudID)).
			Suffix("ON CONFLICT (search_request_id, local_id, cloud_id) DO NOTHING").
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}

		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).
				Str("func", "searchRepository.ApplySearchResultsPage").
				Int64("request_id", requestID).
				Str("source", source.String()).
				Msg("failed to execute upsert for search result row")
			return fmt.Errorf("failed to save search result row (request_id=%d): %w", requestID, execErr)
		}
	}

	if resumeErr := r.updateSearchResume(ctx, tx, requestID, source, resume); resumeErr != nil {
		log.Err(resumeErr).
			Str("func", "searchRepository.ApplySearchResultsPage").
			Int64("request_id", requestID).
			Str("source", source.String()).
			Msg("failed to store resume point for search results page")
		return resumeErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "searchRepository.ApplySearchResultsPage").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *searchRepository) ClearSearchResume(ctx context.Context, requestID int64, source models.SyncSource) error {
	return r.updateSearchResume(ctx, r.DB.DB, requestID, source, models.ResumePoint{})
}

func (r *searchRepository) ClearObsoleteResults(ctx context.Context, requestID int64, source models.SyncSource) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "searchRepository.ClearObsoleteResults").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, buildErr := r.builder.
		Delete("search_result_media").
		Where(sq.And{sq.Eq{"search_request_id": requestID}, sourceRowPredicate(source)}).
		ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}

	if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
		log.Err(execErr).
			Str("func", "searchRepository.ClearObsoleteResults").
			Int64("request_id", requestID).
			Str("source", source.String()).
			Msg("failed to delete obsolete search result rows")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	if resumeErr := r.updateSearchResume(ctx, tx, requestID, source, models.ResumePoint{}); resumeErr != nil {
		return resumeErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "searchRepository.ClearObsoleteResults").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *searchRepository) ClearAllSearchData(ctx context.Context) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "searchRepository.ClearAllSearchData").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	// deleting the requests cascades to their result rows
	for _, table := range []string{"search_request", "search_suggestion", "search_history"} {
		query, args, buildErr := r.builder.Delete(table).ToSql()
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}

		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).
				Str("func", "searchRepository.ClearAllSearchData").
				Str("table", table).
				Msg("failed to clear search table")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "searchRepository.ClearAllSearchData").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *searchRepository) ClearCloudSearchData(ctx context.Context, cloudAuthority string) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "searchRepository.ClearCloudSearchData").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	deleteResults, args, buildErr := r.builder.
		Delete("search_result_media").
		Where(sq.NotEq{"cloud_id": PlaceholderForAbsent}).
		ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}
	if _, execErr := tx.ExecContext(ctx, deleteResults, args...); execErr != nil {
		log.Err(execErr).Str("func", "searchRepository.ClearCloudSearchData").Msg("failed to delete cloud search result rows")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	clearResume, args, buildErr := r.builder.
		Update("search_request").
		Set("cloud_resume_token", nil).
		Set("cloud_authority", nil).
		ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}
	if _, execErr := tx.ExecContext(ctx, clearResume, args...); execErr != nil {
		log.Err(execErr).Str("func", "searchRepository.ClearCloudSearchData").Msg("failed to clear cloud resume columns")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	deleteSuggestions, args, buildErr := r.builder.
		Delete("search_suggestion").
		Where(sq.Eq{"authority": cloudAuthority}).
		ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}
	if _, execErr := tx.ExecContext(ctx, deleteSuggestions, args...); execErr != nil {
		log.Err(execErr).Str("func", "searchRepository.ClearCloudSearchData").Msg("failed to delete cloud suggestions")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "searchRepository.ClearCloudSearchData").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *searchRepository) SaveSuggestions(ctx context.Context, suggestions []models.SearchSuggestion) error {
	log := logger.FromContext(ctx)

	for _, s := range suggestions {
		query, args, buildErr := r.builder.
			Insert("search_suggestion").
			Columns("authority", "media_set_id", "search_text", "suggestion_type", "cover_media_id", "created_at_ms").
			Values(s.Authority, nullableText(s.MediaSetID), s.SearchText, string(s.Type), s.CoverMediaID, s.CreatedAtMS).
			Suffix("ON CONFLICT (authority, media_set_id, suggestion_type) DO UPDATE SET " +
				"search_text = excluded.search_text, " +
				"cover_media_id = excluded.cover_media_id, " +
				"created_at_ms = excluded.created_at_ms").
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}

		if _, execErr := r.DB.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).
				Str("func", "searchRepository.SaveSuggestions").
				Str("authority", s.Authority).
				Str("media_set_id", s.MediaSetID).
				Msg("failed to execute upsert for search suggestion")
			return fmt.Errorf("failed to save search suggestion: %w", execErr)
		}
	}

	return nil
}

func (r *searchRepository) GetSuggestions(ctx context.Context, limit int) ([]models.SearchSuggestion, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("id", "authority", "media_set_id", "search_text", "suggestion_type", "cover_media_id", "created_at_ms").
		From("search_suggestion").
		OrderBy("created_at_ms DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, queryErr := r.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).Str("func", "searchRepository.GetSuggestions").Msg("failed to query suggestions")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	var suggestions []models.SearchSuggestion
	for rows.Next() {
		var s models.SearchSuggestion
		var suggestionType string

		scanErr := rows.Scan(&s.ID, &s.Authority, &s.MediaSetID, &s.SearchText, &suggestionType, &s.CoverMediaID, &s.CreatedAtMS)
		if scanErr != nil {
			log.Err(scanErr).Str("func", "searchRepository.GetSuggestions").Msg("failed to scan suggestion row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, scanErr)
		}
		s.Type = models.SuggestionType(suggestionType)

		suggestions = append(suggestions, s)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", "searchRepository.GetSuggestions").Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating suggestion rows: %w", rowsErr)
	}

	return suggestions, nil
}

func (r *searchRepository) SaveSearchHistory(ctx context.Context, entry models.SearchHistoryEntry) error {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Insert("search_history").
		Columns("search_text", "media_set_id", "authority", "suggestion_type", "created_at_ms").
		Values(entry.SearchText, nullableText(entry.MediaSetID), nullableText(entry.Authority), string(entry.Type), entry.CreatedAtMS).
		Suffix("ON CONFLICT (search_text, media_set_id, authority) DO UPDATE SET " +
			"suggestion_type = excluded.suggestion_type, " +
			"created_at_ms = excluded.created_at_ms").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, execErr := r.DB.ExecContext(ctx, query, args...); execErr != nil {
		log.Err(execErr).
			Str("func", "searchRepository.SaveSearchHistory").
			Str("search_text", entry.SearchText).
			Msg("failed to execute upsert for search history entry")
		return fmt.Errorf("failed to save search history entry: %w", execErr)
	}

	return nil
}

func (r *searchRepository) GetSearchHistory(ctx context.Context, limit int) ([]models.SearchHistoryEntry, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("id", "search_text", "media_set_id", "authority", "suggestion_type", "created_at_ms").
		From("search_history").
		OrderBy("created_at_ms DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, queryErr := r.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).Str("func", "searchRepository.GetSearchHistory").Msg("failed to query search history")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	var entries []models.SearchHistoryEntry
	for rows.Next() {
		var e models.SearchHistoryEntry
		var suggestionType string

		scanErr := rows.Scan(&e.ID, &e.SearchText, &e.MediaSetID, &e.Authority, &suggestionType, &e.CreatedAtMS)
		if scanErr != nil {
			log.Err(scanErr).Str("func", "searchRepository.GetSearchHistory").Msg("failed to scan history row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, scanErr)
		}
		e.Type = models.SuggestionType(suggestionType)

		entries = append(entries, e)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", "searchRepository.GetSearchHistory").Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating history rows: %w", rowsErr)
	}

	return entries, nil
}

func (r *searchRepository) PruneExpired(ctx context.Context, cutoffMS int64) (int64, error) {
	log := logger.FromContext(ctx)

	var pruned int64
	for _, table := range []string{"search_suggestion", "search_history"} {
		query, args, buildErr := r.builder.
			Delete(table).
			Where(sq.Lt{"created_at_ms": cutoffMS}).
			ToSql()
		if buildErr != nil {
			return pruned, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}

		result, execErr := r.DB.ExecContext(ctx, query, args...)
		if execErr != nil {
			log.Err(execErr).
				Str("func", "searchRepository.PruneExpired").
				Str("table", table).
				Msg("failed to prune expired rows")
			return pruned, fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return pruned, fmt.Errorf("failed to get rows affected: %w", err)
		}
		pruned += affected
	}

	return pruned, nil
}
