// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package store

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/models"
)

// MediaQuery describes one keyset-paginated read.
type MediaQuery struct {
	// PageSize caps the number of rows returned. Zero means unbounded: the
	// whole remaining result set comes back as a single page with no keys.
	PageSize int

	// Key is the composite sort key the page starts at (inclusive). Nil
	// starts at the newest row.
	Key *models.PageKey

	// MimeTypes restricts results to the given types; nil means no filter.
	MimeTypes []string
}

type pager struct {
	*DB
	logger *logger.Logger
}

// NewPager constructs the paginated read side of the cache. All reads order
// by (date_taken_ms DESC, id DESC); the boundary keys returned in a page are
// valid start keys for the adjacent pages regardless of concurrent writes.
func NewPager(db *DB, logger *logger.Logger) Pager {
	return &pager{
		DB:     db,
		logger: logger,
	}
}

const mediaColumns = "m.id, m.local_id, m.cloud_id, m.authority, m.date_taken_ms, m.size_bytes, m.mime_type"

// membershipSource renders the FROM clause of a membership read: the union
// of local rows (joined on local_id) and cloud rows (joined on cloud_id),
// each resolved against the media table. The two placeholders both take the
// owning key of the membership table.
func membershipSource(table, fkColumn string) string {
	return fmt.Sprintf(`(SELECT %[1]s FROM media m
		JOIN %[2]s t ON t.cloud_id = '' AND t.local_id = m.local_id AND m.local_id <> ''
		WHERE t.%[3]s = ?
	UNION ALL
	SELECT %[1]s FROM media m
		JOIN %[2]s t ON t.cloud_id <> '' AND t.cloud_id = m.cloud_id
		WHERE t.%[3]s = ?) AS m`, mediaColumns, table, fkColumn)
}

// toDialect rewrites ? placeholders for the connected backend.
func (p *pager) toDialect(query string) (string, error) {
	if p.dialect == "pgx" {
		return sq.Dollar.ReplacePlaceholders(query)
	}

	return query, nil
}

func (p *pager) MediaPage(ctx context.Context, q MediaQuery) (models.MediaPage, error) {
	return p.readPage(ctx, "media m", nil, q)
}

func (p *pager) AlbumMediaPage(ctx context.Context, albumID string, q MediaQuery) (models.MediaPage, error) {
	return p.readPage(ctx, membershipSource("album_media", "album_id"), []any{albumID, albumID}, q)
}

func (p *pager) SearchResultsPage(ctx context.Context, requestID int64, q MediaQuery) (models.MediaPage, error) {
	return p.readPage(ctx, membershipSource("search_result_media", "search_request_id"), []any{requestID, requestID}, q)
}

func (p *pager) MediaInMediaSetPage(ctx context.Context, pickerID int64, q MediaQuery) (models.MediaPage, error) {
	return p.readPage(ctx, membershipSource("media_in_media_set", "media_set_picker_id"), []any{pickerID, pickerID}, q)
}

func (p *pager) readPage(ctx context.Context, from string, fromArgs []any, q MediaQuery) (models.MediaPage, error) {
	log := logger.FromContext(ctx)

	var (
		conditions []string
		args       []any
	)
	args = append(args, fromArgs...)

	if q.Key != nil {
		conditions = append(conditions, "(m.date_taken_ms < ? OR (m.date_taken_ms = ? AND m.id <= ?))")
		args = append(args, q.Key.DateTakenMS, q.Key.DateTakenMS, q.Key.ID)
	}
	if len(q.MimeTypes) > 0 {
		conditions = append(conditions, "m.mime_type IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(q.MimeTypes)), ", ")+")")
		for _, m := range q.MimeTypes {
			args = append(args, strings.ToLower(strings.TrimSpace(m)))
		}
	}

	query := "SELECT " + mediaColumns + " FROM " + from
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY m.date_taken_ms DESC, m.id DESC"

	// one extra row past the page marks where the next page starts
	if q.PageSize > 0 {
		query += " LIMIT ?"
		args = append(args, q.PageSize+1)
	}

	query, err := p.toDialect(query)
	if err != nil {
		return models.MediaPage{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, queryErr := p.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).Str("func", "pager.readPage").Msg("failed to execute page query")
		return models.MediaPage{}, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	var items []models.MediaItem
	for rows.Next() {
		var item models.MediaItem

		scanErr := rows.Scan(
			&item.ID,
			&item.LocalID,
			&item.CloudID,
			&item.Authority,
			&item.DateTakenMS,
			&item.SizeBytes,
			&item.MimeType,
		)
		if scanErr != nil {
			log.Err(scanErr).Str("func", "pager.readPage").Msg("failed to scan media row")
			return models.MediaPage{}, fmt.Errorf("%w: %w", ErrScanningRows, scanErr)
		}

		items = append(items, item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", "pager.readPage").Msg("error occurred during rows iteration")
		return models.MediaPage{}, fmt.Errorf("error iterating media rows: %w", rowsErr)
	}

	page := models.MediaPage{Items: items}

	if q.PageSize > 0 && len(items) > q.PageSize {
		boundary := items[q.PageSize]
		page.NextKey = &models.PageKey{DateTakenMS: boundary.DateTakenMS, ID: boundary.ID}
		page.Items = items[:q.PageSize]
	}

	if q.Key != nil && q.PageSize > 0 {
		prevKey, prevErr := p.previousKey(ctx, from, fromArgs, q)
		if prevErr != nil {
			return models.MediaPage{}, prevErr
		}
		page.PrevKey = prevKey
	}

	return page, nil
}

// previousKey walks backwards from the current start key: reading up to one
// page of rows in reversed order, the furthest row reached is where the
// previous page starts.
func (p *pager) previousKey(ctx context.Context, from string, fromArgs []any, q MediaQuery) (*models.PageKey, error) {
	log := logger.FromContext(ctx)

	var (
		conditions []string
		args       []any
	)
	args = append(args, fromArgs...)

	conditions = append(conditions, "(m.date_taken_ms > ? OR (m.date_taken_ms = ? AND m.id > ?))")
	args = append(args, q.Key.DateTakenMS, q.Key.DateTakenMS, q.Key.ID)

	if len(q.MimeTypes) > 0 {
		conditions = append(conditions, "m.mime_type IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(q.MimeTypes)), ", ")+")")
		for _, m := range q.MimeTypes {
			args = append(args, strings.ToLower(strings.TrimSpace(m)))
		}
	}

	query := "SELECT m.date_taken_ms, m.id FROM " + from +
		" WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY m.date_taken_ms ASC, m.id ASC LIMIT ?"
	args = append(args, q.PageSize)

	query, err := p.toDialect(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, queryErr := p.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).Str("func", "pager.previousKey").Msg("failed to execute reversed page query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	var key *models.PageKey
	for rows.Next() {
		var k models.PageKey
		if scanErr := rows.Scan(&k.DateTakenMS, &k.ID); scanErr != nil {
			log.Err(scanErr).Str("func", "pager.previousKey").Msg("failed to scan sort key row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, scanErr)
		}
		key = &k
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", "pager.previousKey").Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating sort key rows: %w", rowsErr)
	}

	return key, nil
}
