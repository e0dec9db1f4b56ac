package generation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"photoshoot-server/internal/domain"
)

// Tracker owns the generation job state machine: a job opens in_progress
// before any task executes and is finalized exactly once as completed or
// failed. There is no path back to in_progress.
type Tracker struct {
	jobs domain.GenerationJobRepository
	now  func() time.Time
}

// NewTracker constructs a tracker over the job repository.
func NewTracker(jobs domain.GenerationJobRepository) *Tracker {
	return &Tracker{jobs: jobs, now: time.Now}
}

// Open inserts the job record ahead of any task work. creditID is empty for
// sample runs.
func (t *Tracker) Open(ctx context.Context, userID, creditID string, totalTasks int, scenarios []string, sample bool) (*domain.GenerationJob, error) {
	job := &domain.GenerationJob{
		ID:         uuid.NewString(),
		UserID:     userID,
		CreditID:   creditID,
		Status:     domain.JobStatusInProgress,
		TotalTasks: totalTasks,
		Scenarios:  scenarios,
		IsSample:   sample,
		CreatedAt:  t.now(),
	}
	if err := t.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Close finalizes the job from the aggregate outcome. The job completes only
// when every task succeeded; a single failure marks the whole job failed
// while successful results stay persisted.
func (t *Tracker) Close(ctx context.Context, jobID string, successCount, totalTasks int) (domain.JobStatus, error) {
	status := domain.JobStatusFailed
	if successCount == totalTasks {
		status = domain.JobStatusCompleted
	}
	if err := t.jobs.Finalize(ctx, jobID, successCount, status, t.now()); err != nil {
		return status, err
	}
	return status, nil
}
