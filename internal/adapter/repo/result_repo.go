package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"photoshoot-server/internal/domain"
)

// ResultRepositoryPG implements domain.ResultRepository.
type ResultRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a result repository backed by PostgreSQL.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepositoryPG {
	return &ResultRepositoryPG{pool: pool}
}

const resultColumns = `id, user_id, job_id, photo_id, scenario, prompt, storage_key, COALESCE(profile_order, 0), is_sample, created_at`

// Create persists one generated result.
func (r *ResultRepositoryPG) Create(ctx context.Context, result *domain.GeneratedResult) error {
	query := `
INSERT INTO generated_results (id, user_id, job_id, photo_id, scenario, prompt, storage_key, profile_order, is_sample, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, 0), $9, $10);
`
	_, err := r.pool.Exec(ctx, query,
		result.ID,
		result.UserID,
		result.JobID,
		result.PhotoID,
		result.Scenario,
		result.Prompt,
		result.StorageKey,
		result.ProfileOrder,
		result.IsSample,
		result.CreatedAt,
	)
	return err
}

// ListByUser returns all of the user's results, oldest first.
func (r *ResultRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.GeneratedResult, error) {
	query := `
SELECT ` + resultColumns + `
FROM generated_results
WHERE user_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

// ListByJob returns the results produced by one job.
func (r *ResultRepositoryPG) ListByJob(ctx context.Context, jobID string) ([]domain.GeneratedResult, error) {
	query := `
SELECT ` + resultColumns + `
FROM generated_results
WHERE job_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

// CountSelected counts the user's results holding a profile slot.
func (r *ResultRepositoryPG) CountSelected(ctx context.Context, userID string) (int, error) {
	query := `
SELECT COUNT(*)
FROM generated_results
WHERE user_id = $1 AND profile_order IS NOT NULL;
`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// AssignProfileOrders replaces the user's entire selection with the given
// result->slot mapping in one transaction. Clearing first means the last
// committed assignment fully wins, so overlapping writers can never stack
// into duplicate slots or more than six selected results.
func (r *ResultRepositoryPG) AssignProfileOrders(ctx context.Context, userID string, orders map[string]int) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	clear := `
UPDATE generated_results
SET profile_order = NULL
WHERE user_id = $1 AND profile_order IS NOT NULL;
`
	if _, err := tx.Exec(ctx, clear, userID); err != nil {
		return err
	}

	query := `
UPDATE generated_results
SET profile_order = $3
WHERE id = $1 AND user_id = $2;
`
	for resultID, slot := range orders {
		if slot < 1 || slot > domain.MaxProfileSlots {
			return fmt.Errorf("assign profile order: slot %d out of range", slot)
		}
		if _, err := tx.Exec(ctx, query, resultID, userID, slot); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// SetProfileSlot clears the slot's previous holder and assigns it to the
// given result in one transaction.
func (r *ResultRepositoryPG) SetProfileSlot(ctx context.Context, userID, resultID string, slot int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	clear := `
UPDATE generated_results
SET profile_order = NULL
WHERE user_id = $1 AND profile_order = $2;
`
	if _, err := tx.Exec(ctx, clear, userID, slot); err != nil {
		return err
	}

	assign := `
UPDATE generated_results
SET profile_order = $3
WHERE id = $1 AND user_id = $2;
`
	tag, err := tx.Exec(ctx, assign, resultID, userID, slot)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit(ctx)
}

func scanResults(rows pgx.Rows) ([]domain.GeneratedResult, error) {
	defer rows.Close()

	var results []domain.GeneratedResult
	for rows.Next() {
		var result domain.GeneratedResult
		if err := rows.Scan(
			&result.ID,
			&result.UserID,
			&result.JobID,
			&result.PhotoID,
			&result.Scenario,
			&result.Prompt,
			&result.StorageKey,
			&result.ProfileOrder,
			&result.IsSample,
			&result.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

var _ domain.ResultRepository = (*ResultRepositoryPG)(nil)
