package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cbcgrab/internal/domain"
	"cbcgrab/internal/ports"
)

type WorkerOptions struct {
	PollInterval time.Duration
}

func DefaultWorkerOptions() WorkerOptions {
	return WorkerOptions{PollInterval: 750 * time.Millisecond}
}

type Worker struct {
	logger zerolog.Logger
	repo   ports.JobRepository
	bus    ports.EventBus
	opts   WorkerOptions
	execs  ExecutorRegistry
}

func NewWorker(logger zerolog.Logger, repo ports.JobRepository, bus ports.EventBus, execs ExecutorRegistry, opts WorkerOptions) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultWorkerOptions().PollInterval
	}
	return &Worker{logger: logger, repo: repo, bus: bus, opts: opts, execs: execs}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextQueued(ctx)
			if err != nil {
				// Adapter-specific: any "not found" means nothing to do.
				if errors.Is(err, ErrNotFound) {
					continue
				}
				w.logger.Error().Err(err).Msg("claim next job failed")
				continue
			}

			w.execute(ctx, job)
		}
	}
}

func (w *Worker) execute(ctx context.Context, job domain.Job) {
	w.logger.Info().Str("job_id", job.ID).Str("type", job.Type).Msg("job claimed")
	PublishJobEvent(w.bus, "job.started", job)

	isCanceled := func() (bool, error) {
		current, err := w.repo.Get(ctx, job.ID)
		if err != nil {
			return false, err
		}
		return current.State == domain.JobCanceled, nil
	}

	updateProgress := func(progress float64) error {
		updated, err := w.repo.UpdateProgress(ctx, job.ID, progress)
		if err != nil {
			return err
		}
		PublishJobEvent(w.bus, "job.progress", updated)
		return nil
	}

	setResult := func(v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.repo.UpdateResult(ctx, job.ID, b)
		return err
	}

	exec, ok := w.execs.Get(job.Type)
	if !ok {
		w.fail(ctx, job.ID, fmt.Errorf("unknown job type %q", job.Type))
		return
	}

	err := exec.Execute(ctx, job, ExecEnv{
		UpdateProgress: updateProgress,
		IsCanceled:     isCanceled,
		SetResult:      setResult,
	})
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("executor failed")
		w.fail(ctx, job.ID, err)
		return
	}

	canceled, err := isCanceled()
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to reload job")
		return
	}
	if canceled {
		w.logger.Info().Str("job_id", job.ID).Msg("job canceled")
		return
	}

	finished, err := w.repo.UpdateState(ctx, job.ID, domain.JobRunning, domain.JobCompleted)
	if err != nil {
		w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to mark job completed")
		return
	}
	finished, _ = w.repo.UpdateProgress(ctx, job.ID, 1)
	PublishJobEvent(w.bus, "job.completed", finished)
}

// fail records the error code and message before the state flip so the DTO
// published on job.failed carries them.
func (w *Worker) fail(ctx context.Context, id string, cause error) {
	if _, err := w.repo.UpdateError(ctx, id, ErrorCode(cause), cause.Error()); err != nil {
		w.logger.Warn().Err(err).Str("job_id", id).Msg("failed to record job error")
	}
	failed, err := w.repo.UpdateState(ctx, id, domain.JobRunning, domain.JobFailed)
	if err != nil {
		return
	}
	PublishJobEvent(w.bus, "job.failed", failed)
}
