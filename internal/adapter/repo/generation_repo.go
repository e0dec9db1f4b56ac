package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"photoshoot-server/internal/domain"
)

// GenerationJobRepositoryPG implements domain.GenerationJobRepository.
type GenerationJobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGenerationJobRepository creates a job repository backed by PostgreSQL.
func NewGenerationJobRepository(pool *pgxpool.Pool) *GenerationJobRepositoryPG {
	return &GenerationJobRepositoryPG{pool: pool}
}

// Create inserts the job record ahead of any task work.
func (r *GenerationJobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	query := `
INSERT INTO generation_jobs (id, user_id, credit_id, status, total_tasks, completed_tasks, scenarios, is_sample, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.CreditID,
		job.Status,
		job.TotalTasks,
		job.CompletedTasks,
		job.Scenarios,
		job.IsSample,
		job.CreatedAt,
	)
	return err
}

// Finalize writes the terminal status. The status guard keeps finalized jobs
// immutable: a second call changes nothing and reports an error.
func (r *GenerationJobRepositoryPG) Finalize(ctx context.Context, jobID string, completedTasks int, status domain.JobStatus, at time.Time) error {
	query := `
UPDATE generation_jobs
SET completed_tasks = $2, status = $3, completed_at = $4
WHERE id = $1 AND status = $5;
`
	tag, err := r.pool.Exec(ctx, query, jobID, completedTasks, status, at, domain.JobStatusInProgress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finalize job %s: not in progress", jobID)
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *GenerationJobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	query := `
SELECT id, user_id, COALESCE(credit_id::text, ''), status, total_tasks, completed_tasks, scenarios, is_sample, created_at, completed_at
FROM generation_jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var job domain.GenerationJob
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.CreditID,
		&job.Status,
		&job.TotalTasks,
		&job.CompletedTasks,
		&job.Scenarios,
		&job.IsSample,
		&job.CreatedAt,
		&job.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

var _ domain.GenerationJobRepository = (*GenerationJobRepositoryPG)(nil)
