// Package generation orchestrates the (photo x scenario) fan-out: credit
// reservation, job tracking, batched synthesis calls with per-task retries,
// and the default profile selection that follows a first successful run.
package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"photoshoot-server/internal/domain"
	"photoshoot-server/internal/payment"
	"photoshoot-server/internal/providers/synthesis"
	"photoshoot-server/internal/retry"
	"photoshoot-server/internal/selection"
)

// PromptResolver resolves a scenario name to its synthesis prompt. The
// scenario catalog itself lives outside this core.
type PromptResolver interface {
	ResolvePrompt(ctx context.Context, scenario string) (string, error)
}

// Request describes one generation run.
type Request struct {
	UserID           string
	PhotoIDs         []string
	Scenarios        []string
	PaymentReference string
	// Sample runs skip the payment gate and mark their results as samples.
	Sample bool
}

// Summary reports the settled run: the finalized job plus every per-task
// outcome in fan-out order.
type Summary struct {
	Job       *domain.GenerationJob
	Outcomes  []Outcome
	Succeeded int
}

// Service wires the orchestration pipeline together.
type Service struct {
	gate      *payment.Gate
	tracker   *Tracker
	scheduler *BatchScheduler
	retry     *retry.Executor
	selection *selection.Service

	photos    domain.PhotoRepository
	results   domain.ResultRepository
	scenarios PromptResolver
	synth     synthesis.Generator

	logger zerolog.Logger
	now    func() time.Time
}

// NewService constructs the generation service with default scheduling and
// retry policies.
func NewService(
	gate *payment.Gate,
	tracker *Tracker,
	sel *selection.Service,
	photos domain.PhotoRepository,
	results domain.ResultRepository,
	scenarios PromptResolver,
	synth synthesis.Generator,
	logger zerolog.Logger,
) *Service {
	return &Service{
		gate:      gate,
		tracker:   tracker,
		scheduler: NewBatchScheduler(),
		retry:     retry.New(),
		selection: sel,
		photos:    photos,
		results:   results,
		scenarios: scenarios,
		synth:     synth,
		logger:    logger,
		now:       time.Now,
	}
}

// WithBatchSize overrides the scheduler's batch width. Non-positive values
// keep the default.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.scheduler.BatchSize = n
	}
	return s
}

// Generate runs one request end to end. Photos are loaded and the fan-out
// validated before the credit is redeemed, so a malformed request never
// consumes a credit. Payment-gating errors abort before any task executes;
// individual task failures are absorbed into the outcome list and only
// surface through the finalized job status. Partial results are never
// discarded and the reserved credit is never rolled back.
func (s *Service) Generate(ctx context.Context, req Request) (*Summary, error) {
	photos, err := s.photos.ListByIDs(ctx, req.UserID, req.PhotoIDs)
	if err != nil {
		return nil, fmt.Errorf("load photos: %w", err)
	}

	tasks, err := ExpandTasks(photos, req.Scenarios)
	if err != nil {
		return nil, err
	}

	var creditID string
	if !req.Sample {
		credit, err := s.gate.Reserve(ctx, req.UserID, req.PaymentReference)
		if err != nil {
			return nil, err
		}
		creditID = credit.ID
	}

	job, err := s.tracker.Open(ctx, req.UserID, creditID, len(tasks), req.Scenarios, req.Sample)
	if err != nil {
		return nil, fmt.Errorf("open job: %w", err)
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("user_id", req.UserID).
		Int("tasks", len(tasks)).
		Bool("sample", req.Sample).
		Msg("generation: job started")

	outcomes := s.scheduler.Run(ctx, tasks, s.taskWorker(job))

	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			succeeded++
			continue
		}
		s.logger.Warn().
			Err(outcome.Err).
			Str("job_id", job.ID).
			Str("photo_id", outcome.Task.Photo.ID).
			Str("scenario", outcome.Task.Scenario).
			Msg("generation: task failed")
	}

	status, err := s.tracker.Close(ctx, job.ID, succeeded, len(tasks))
	if err != nil {
		return nil, fmt.Errorf("finalize job: %w", err)
	}
	job.Status = status
	job.CompletedTasks = succeeded
	at := s.now()
	job.CompletedAt = &at

	s.logger.Info().
		Str("job_id", job.ID).
		Str("status", string(status)).
		Int("completed", succeeded).
		Int("total", len(tasks)).
		Msg("generation: job finished")

	if succeeded > 0 {
		// Best-effort: a failed default selection never fails the run.
		if err := s.selection.EnsureDefault(ctx, req.UserID); err != nil {
			s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("generation: default profile selection failed")
		}
	}

	return &Summary{Job: job, Outcomes: outcomes, Succeeded: succeeded}, nil
}

// taskWorker builds the per-task unit of work: resolve the scenario prompt,
// call synthesis under the retry executor, persist the result.
func (s *Service) taskWorker(job *domain.GenerationJob) WorkerFunc {
	return func(ctx context.Context, task Task) error {
		prompt, err := s.scenarios.ResolvePrompt(ctx, task.Scenario)
		if err != nil {
			return fmt.Errorf("resolve scenario %q: %w", task.Scenario, err)
		}

		generated, err := retry.Value(ctx, s.retry, func(ctx context.Context) (synthesis.Result, error) {
			return s.synth.Generate(ctx, synthesis.Request{
				SourceKey: task.Photo.StorageKey,
				Prompt:    prompt,
				RequestID: job.ID,
			})
		})
		if err != nil {
			return fmt.Errorf("synthesize photo %s scenario %q: %w", task.Photo.ID, task.Scenario, err)
		}

		result := &domain.GeneratedResult{
			ID:         uuid.NewString(),
			UserID:     job.UserID,
			JobID:      job.ID,
			PhotoID:    task.Photo.ID,
			Scenario:   task.Scenario,
			Prompt:     prompt,
			StorageKey: generated.Locator,
			IsSample:   job.IsSample,
			CreatedAt:  s.now(),
		}
		if err := s.results.Create(ctx, result); err != nil {
			return fmt.Errorf("persist result: %w", err)
		}
		return nil
	}
}
