package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"photoshoot-server/internal/adapter/repo"
	"photoshoot-server/internal/generation"
	"photoshoot-server/internal/infra"
	"photoshoot-server/internal/payment"
	"photoshoot-server/internal/providers/analysis"
	"photoshoot-server/internal/providers/synthesis"
	"photoshoot-server/internal/queue"
	"photoshoot-server/internal/selection"
	"photoshoot-server/internal/storage"
	"photoshoot-server/internal/validation"
)

const dequeueTimeout = 5 * time.Second

type jobWorker struct {
	ctx       context.Context
	queue     *queue.Queue
	generator *generation.Service
	validator *validation.Validator
	logger    infra.Logger
}

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	redisClient, err := queue.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: redis connection failed")
	}
	defer redisClient.Close()

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	synthClient, err := synthesis.NewClient(synthesis.Options{
		APIKey:     cfg.SynthesisAPIKey,
		BaseURL:    cfg.SynthesisBaseURL,
		Model:      cfg.SynthesisModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure synthesis client")
	}
	analysisClient, err := analysis.NewClient(analysis.Options{
		APIKey:     cfg.AnalysisAPIKey,
		BaseURL:    cfg.AnalysisBaseURL,
		Model:      cfg.AnalysisModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure analysis client")
	}

	photos := repo.NewPhotoRepository(pool)
	results := repo.NewResultRepository(pool)
	sel := selection.NewService(results, logger)

	generator := generation.NewService(
		payment.NewGate(repo.NewCreditLedger(pool)),
		generation.NewTracker(repo.NewGenerationJobRepository(pool)),
		sel,
		photos,
		results,
		repo.NewScenarioRepository(pool),
		synthClient,
		logger,
	).WithBatchSize(cfg.BatchSize)
	validator := validation.NewValidator(photos, fileStore, analysisClient, logger)

	worker := &jobWorker{
		ctx:       ctx,
		queue:     queue.New(redisClient, cfg.QueueKey),
		generator: generator,
		validator: validator,
		logger:    logger,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		env, err := w.queue.Dequeue(w.ctx, dequeueTimeout)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			w.logger.Error().Err(err).Msg("worker: dequeue failed")
			time.Sleep(time.Second)
			continue
		}

		w.handle(env)
	}
}

func (w *jobWorker) handle(env queue.Envelope) {
	w.logger.Info().Str("envelope_id", env.ID).Str("kind", env.Kind).Msg("worker: picked job")
	if err := w.dispatch(env); err != nil {
		w.logger.Error().Err(err).Str("envelope_id", env.ID).Msg("worker: job failed")
	}
}

func (w *jobWorker) dispatch(env queue.Envelope) error {
	switch env.Kind {
	case queue.KindGeneration:
		if env.Generation == nil {
			return fmt.Errorf("generation envelope %s missing payload", env.ID)
		}
		summary, err := w.generator.Generate(w.ctx, generation.Request{
			UserID:           env.Generation.UserID,
			PhotoIDs:         env.Generation.PhotoIDs,
			Scenarios:        env.Generation.Scenarios,
			PaymentReference: env.Generation.PaymentReference,
			Sample:           env.Generation.Sample,
		})
		if err != nil {
			return fmt.Errorf("generation: %w", err)
		}
		w.logger.Info().
			Str("job_id", summary.Job.ID).
			Str("status", string(summary.Job.Status)).
			Int("succeeded", summary.Succeeded).
			Int("total", summary.Job.TotalTasks).
			Msg("worker: generation settled")
		return nil
	case queue.KindValidation:
		if env.Validation == nil {
			return fmt.Errorf("validation envelope %s missing payload", env.ID)
		}
		result, err := w.validator.Validate(w.ctx, env.Validation.PhotoID)
		if err != nil {
			return fmt.Errorf("validation: %w", err)
		}
		w.logger.Info().
			Str("photo_id", env.Validation.PhotoID).
			Str("status", string(result.Status)).
			Int("warnings", len(result.Warnings)).
			Msg("worker: validation settled")
		return nil
	default:
		return fmt.Errorf("unsupported job kind %q", env.Kind)
	}
}
