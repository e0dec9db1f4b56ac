package domain

import "time"

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// GenerationJob is the aggregate unit of work covering all (photo, scenario)
// tasks of one user request. The record is inserted before any task executes
// and finalized exactly once: CompletedTasks <= TotalTasks always holds, and
// the status is completed iff every task succeeded. A job stuck in
// in_progress (crash before finalization) is a recoverable orphan that a
// maintenance sweep can detect through CreatedAt.
type GenerationJob struct {
	ID             string
	UserID         string
	CreditID       string
	Status         JobStatus
	TotalTasks     int
	CompletedTasks int
	Scenarios      []string
	IsSample       bool
	CreatedAt      time.Time
	CompletedAt    *time.Time
}
