package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cbcgrab/internal/domain"
	"cbcgrab/internal/ports"
)

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: map[string]domain.Job{}}
}

func (m *memJobs) Create(ctx context.Context, job domain.Job) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return job, nil
}

func (m *memJobs) Get(ctx context.Context, id string) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.Job{}, ports.ErrNotFound
	}
	return j, nil
}

func (m *memJobs) List(ctx context.Context, limit int) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (m *memJobs) ClaimNextQueued(ctx context.Context) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *domain.Job
	for id := range m.jobs {
		j := m.jobs[id]
		if j.State != domain.JobQueued {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = &j
		}
	}
	if oldest == nil {
		return domain.Job{}, ports.ErrNotFound
	}
	oldest.State = domain.JobRunning
	m.jobs[oldest.ID] = *oldest
	return *oldest, nil
}

func (m *memJobs) UpdateProgress(ctx context.Context, id string, progress float64) (domain.Job, error) {
	return m.mutate(id, func(j *domain.Job) { j.Progress = progress })
}

func (m *memJobs) UpdateResult(ctx context.Context, id string, resultJSON []byte) (domain.Job, error) {
	return m.mutate(id, func(j *domain.Job) { j.ResultJSON = resultJSON })
}

func (m *memJobs) UpdateError(ctx context.Context, id string, code, message string) (domain.Job, error) {
	return m.mutate(id, func(j *domain.Job) { j.ErrorCode = code; j.ErrorMessage = message })
}

func (m *memJobs) UpdateState(ctx context.Context, id string, expected, next domain.JobState) (domain.Job, error) {
	if !domain.CanTransition(expected, next) {
		return domain.Job{}, domain.ErrInvalidTransition
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.State != expected {
		return domain.Job{}, ports.ErrNotFound
	}
	j.State = next
	m.jobs[id] = j
	return j, nil
}

func (m *memJobs) mutate(id string, fn func(*domain.Job)) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.Job{}, ports.ErrNotFound
	}
	fn(&j)
	m.jobs[id] = j
	return j, nil
}

type funcExecutor func(ctx context.Context, job domain.Job, env ExecEnv) error

func (f funcExecutor) Execute(ctx context.Context, job domain.Job, env ExecEnv) error {
	return f(ctx, job, env)
}

func testRegistry(name string, fn funcExecutor) ExecutorRegistry {
	return ExecutorRegistry{byType: map[string]JobExecutor{name: fn}}
}

func seedJob(t *testing.T, repo *memJobs, id, typ string) {
	t.Helper()
	now := time.Now().UTC()
	_, err := repo.Create(context.Background(), domain.Job{
		ID: id, Type: typ, State: domain.JobQueued, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestWorker_ExecutesToCompletion(t *testing.T) {
	repo := newMemJobs()
	seedJob(t, repo, "j1", "probe")

	execs := testRegistry("probe", func(ctx context.Context, job domain.Job, env ExecEnv) error {
		if err := env.SetResult(map[string]string{"answer": "42"}); err != nil {
			return err
		}
		return env.UpdateProgress(1)
	})

	w := NewWorker(zerolog.Nop(), repo, nil, execs, DefaultWorkerOptions())
	job, err := repo.ClaimNextQueued(context.Background())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	w.execute(context.Background(), job)

	final, _ := repo.Get(context.Background(), "j1")
	if final.State != domain.JobCompleted {
		t.Fatalf("expected completed, got %q", final.State)
	}
	if string(final.ResultJSON) == "" {
		t.Fatalf("result should be recorded")
	}
	if final.Progress != 1 {
		t.Fatalf("progress should be 1, got %v", final.Progress)
	}
}

func TestWorker_FailureRecordsErrorCode(t *testing.T) {
	repo := newMemJobs()
	seedJob(t, repo, "j1", "probe")

	execs := testRegistry("probe", func(ctx context.Context, job domain.Job, env ExecEnv) error {
		return &domain.Error{Kind: domain.KindNotFound, Message: "no feed"}
	})

	w := NewWorker(zerolog.Nop(), repo, nil, execs, DefaultWorkerOptions())
	job, _ := repo.ClaimNextQueued(context.Background())
	w.execute(context.Background(), job)

	final, _ := repo.Get(context.Background(), "j1")
	if final.State != domain.JobFailed {
		t.Fatalf("expected failed, got %q", final.State)
	}
	if final.ErrorCode != "not_found" {
		t.Fatalf("expected not_found code, got %q", final.ErrorCode)
	}
	if final.ErrorMessage == "" {
		t.Fatalf("error message should be recorded")
	}
}

func TestWorker_UnknownTypeFails(t *testing.T) {
	repo := newMemJobs()
	seedJob(t, repo, "j1", "mystery")

	w := NewWorker(zerolog.Nop(), repo, nil, ExecutorRegistry{}, DefaultWorkerOptions())
	job, _ := repo.ClaimNextQueued(context.Background())
	w.execute(context.Background(), job)

	final, _ := repo.Get(context.Background(), "j1")
	if final.State != domain.JobFailed {
		t.Fatalf("expected failed, got %q", final.State)
	}
	if final.ErrorCode != "internal_error" {
		t.Fatalf("expected internal_error, got %q", final.ErrorCode)
	}
}

func TestWorker_CanceledJobStaysCanceled(t *testing.T) {
	repo := newMemJobs()
	seedJob(t, repo, "j1", "probe")

	execs := testRegistry("probe", func(ctx context.Context, job domain.Job, env ExecEnv) error {
		// Simulate a cancel arriving mid-run.
		if _, err := repo.UpdateState(ctx, job.ID, domain.JobRunning, domain.JobCanceled); err != nil {
			return err
		}
		canceled, err := env.IsCanceled()
		if err != nil {
			return err
		}
		if !canceled {
			return errors.New("expected cancel to be visible")
		}
		return nil
	})

	w := NewWorker(zerolog.Nop(), repo, nil, execs, DefaultWorkerOptions())
	job, _ := repo.ClaimNextQueued(context.Background())
	w.execute(context.Background(), job)

	final, _ := repo.Get(context.Background(), "j1")
	if final.State != domain.JobCanceled {
		t.Fatalf("canceled job must not be completed, got %q", final.State)
	}
}

func TestJobService_CancelCascade(t *testing.T) {
	repo := newMemJobs()
	svc := NewJobService(repo, nil)

	seedJob(t, repo, "queued-job", "resolve")
	dto, err := svc.Cancel(context.Background(), "queued-job")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if dto.State != domain.JobCanceled {
		t.Fatalf("expected canceled, got %q", dto.State)
	}

	// A terminal job is returned unchanged.
	dto, err = svc.Cancel(context.Background(), "queued-job")
	if err != nil {
		t.Fatalf("Cancel twice: %v", err)
	}
	if dto.State != domain.JobCanceled {
		t.Fatalf("expected canceled, got %q", dto.State)
	}
}

func TestDecodeStoryParams(t *testing.T) {
	cases := []struct {
		params string
		kind   domain.ErrorKind
	}{
		{``, domain.KindInvalidParams},
		{`{"url":""}`, domain.KindInvalidParams},
		{`{"url":"ftp://example.org/x"}`, domain.KindInvalidParams},
		{`not json`, domain.KindInvalidParams},
		{`{"url":"https://www.cbc.ca/radio/ideas/x-1.7"}`, ""},
	}
	for _, c := range cases {
		_, err := decodeStoryParams(domain.Job{ParamsJSON: []byte(c.params)})
		if domain.KindOf(err) != c.kind {
			t.Fatalf("params %q: expected kind %q, got %v", c.params, c.kind, err)
		}
	}
}
