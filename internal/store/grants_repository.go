package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/pkazmin/go-media-cache/internal/logger"
	"github.com/pkazmin/go-media-cache/models"
)

type grantsRepository struct {
	*DB
	logger *logger.Logger
}

// NewGrantsRepository constructs the repository backing package access grants.
func NewGrantsRepository(db *DB, logger *logger.Logger) GrantsRepository {
	return &grantsRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *grantsRepository) ReplaceGrants(ctx context.Context, grants []models.AccessGrant) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "grantsRepository.ReplaceGrants").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	deleteAll, args, buildErr := r.builder.Delete("access_grant").ToSql()
	if buildErr != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
	}
	if _, execErr := tx.ExecContext(ctx, deleteAll, args...); execErr != nil {
		log.Err(execErr).Str("func", "grantsRepository.ReplaceGrants").Msg("failed to delete prior grant set")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
	}

	for _, grant := range grants {
		query, args, buildErr := r.builder.
			Insert("access_grant").
			Columns("package_uid", "local_id").
			Values(grant.PackageUID, grant.LocalID).
			Suffix("ON CONFLICT (package_uid, local_id) DO NOTHING").
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}

		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).
				Str("func", "grantsRepository.ReplaceGrants").
				Int("package_uid", grant.PackageUID).
				Str("local_id", grant.LocalID).
				Msg("failed to insert access grant")
			return fmt.Errorf("failed to save access grant: %w", execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", "grantsRepository.ReplaceGrants").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (r *grantsRepository) GetGrants(ctx context.Context, packageUID int) ([]models.AccessGrant, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("id", "package_uid", "local_id").
		From("access_grant").
		Where(sq.Eq{"package_uid": packageUID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, queryErr := r.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", "grantsRepository.GetGrants").
			Int("package_uid", packageUID).
			Msg("failed to query access grants")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	var grants []models.AccessGrant
	for rows.Next() {
		var grant models.AccessGrant

		scanErr := rows.Scan(&grant.ID, &grant.PackageUID, &grant.LocalID)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "grantsRepository.GetGrants").
				Int("package_uid", packageUID).
				Msg("failed to scan access grant row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, scanErr)
		}

		grants = append(grants, grant)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "grantsRepository.GetGrants").
			Int("package_uid", packageUID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating access grant rows: %w", rowsErr)
	}

	return grants, nil
}
