package generation

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize keeps each concurrent burst under the synthesis provider's
// quota limits.
const DefaultBatchSize = 30

// Outcome is the settled result of one task. Err is nil on success.
type Outcome struct {
	Task Task
	Err  error
}

// WorkerFunc executes one task. Retries are the worker's responsibility; the
// scheduler only batches.
type WorkerFunc func(ctx context.Context, task Task) error

// BatchScheduler runs tasks in fixed-size concurrent batches. A batch must
// fully settle before the next one starts, and one task's failure never
// cancels its siblings.
type BatchScheduler struct {
	BatchSize int
}

// NewBatchScheduler returns a scheduler with the default batch size.
func NewBatchScheduler() *BatchScheduler {
	return &BatchScheduler{BatchSize: DefaultBatchSize}
}

// Run executes every task and returns one outcome per task, in input order
// regardless of completion order.
func (s *BatchScheduler) Run(ctx context.Context, tasks []Task, work WorkerFunc) []Outcome {
	size := s.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	outcomes := make([]Outcome, len(tasks))
	for start := 0; start < len(tasks); start += size {
		end := start + size
		if end > len(tasks) {
			end = len(tasks)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				outcomes[i] = Outcome{Task: tasks[i], Err: work(ctx, tasks[i])}
				return nil
			})
		}
		// Workers record failures in their outcome slot, so Wait never
		// returns an error and never cancels a sibling.
		_ = g.Wait()
	}
	return outcomes
}
