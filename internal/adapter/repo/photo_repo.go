package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"photoshoot-server/internal/domain"
)

// PhotoRepositoryPG implements domain.PhotoRepository.
type PhotoRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPhotoRepository creates a photo repository backed by PostgreSQL.
func NewPhotoRepository(pool *pgxpool.Pool) *PhotoRepositoryPG {
	return &PhotoRepositoryPG{pool: pool}
}

const photoColumns = `id, user_id, storage_key, validation_status, warnings, created_at, updated_at`

// GetByID fetches a photo by its identifier.
func (r *PhotoRepositoryPG) GetByID(ctx context.Context, photoID string) (*domain.SourcePhoto, error) {
	query := `
SELECT ` + photoColumns + `
FROM source_photos
WHERE id = $1;
`
	return scanPhoto(r.pool.QueryRow(ctx, query, photoID))
}

// ListByIDs returns the user's photos in the requested order. Any missing or
// foreign ID fails the whole lookup so fan-out never runs on a partial set.
func (r *PhotoRepositoryPG) ListByIDs(ctx context.Context, userID string, photoIDs []string) ([]domain.SourcePhoto, error) {
	query := `
SELECT ` + photoColumns + `
FROM source_photos
WHERE user_id = $1 AND id = ANY($2);
`
	rows, err := r.pool.Query(ctx, query, userID, photoIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]domain.SourcePhoto, len(photoIDs))
	for rows.Next() {
		var photo domain.SourcePhoto
		if err := rows.Scan(
			&photo.ID,
			&photo.UserID,
			&photo.StorageKey,
			&photo.ValidationStatus,
			&photo.Warnings,
			&photo.CreatedAt,
			&photo.UpdatedAt,
		); err != nil {
			return nil, err
		}
		byID[photo.ID] = photo
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]domain.SourcePhoto, 0, len(photoIDs))
	for _, id := range photoIDs {
		photo, ok := byID[id]
		if !ok {
			return nil, domain.ErrNotFound
		}
		ordered = append(ordered, photo)
	}
	return ordered, nil
}

// SetValidation records a validation outcome and its warnings.
func (r *PhotoRepositoryPG) SetValidation(ctx context.Context, photoID string, status domain.ValidationStatus, warnings []domain.Warning) error {
	query := `
UPDATE source_photos
SET validation_status = $2, warnings = $3, updated_at = NOW()
WHERE id = $1;
`
	if warnings == nil {
		warnings = []domain.Warning{}
	}
	_, err := r.pool.Exec(ctx, query, photoID, status, warnings)
	return err
}

func scanPhoto(row pgx.Row) (*domain.SourcePhoto, error) {
	var photo domain.SourcePhoto
	if err := row.Scan(
		&photo.ID,
		&photo.UserID,
		&photo.StorageKey,
		&photo.ValidationStatus,
		&photo.Warnings,
		&photo.CreatedAt,
		&photo.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &photo, nil
}

var _ domain.PhotoRepository = (*PhotoRepositoryPG)(nil)
