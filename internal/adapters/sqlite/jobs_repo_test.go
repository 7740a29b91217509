package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"cbcgrab/internal/domain"
	"cbcgrab/internal/ports"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestJobsRepository_ClaimNextQueued(t *testing.T) {
	ctx := context.Background()
	repo := NewJobsRepository(openTestDB(t).SQL)

	// No jobs -> not found.
	if _, err := repo.ClaimNextQueued(ctx); err == nil || !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound when no queued jobs, got %v", err)
	}

	now := time.Now().UTC()
	for i, id := range []string{"job1", "job2"} {
		_, err := repo.Create(ctx, domain.Job{
			ID:        id,
			Type:      "resolve",
			State:     domain.JobQueued,
			CreatedAt: now.Add(time.Duration(i-2) * time.Minute),
			UpdatedAt: now.Add(time.Duration(i-2) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create(%s): %v", id, err)
		}
	}

	claimed, err := repo.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}
	if claimed.ID != "job1" {
		t.Fatalf("expected to claim oldest (job1), got %q", claimed.ID)
	}
	if claimed.State != domain.JobRunning {
		t.Fatalf("expected claimed state running, got %q", claimed.State)
	}

	updated, err := repo.UpdateProgress(ctx, claimed.ID, 0.5)
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if updated.Progress != 0.5 {
		t.Fatalf("expected progress=0.5, got %v", updated.Progress)
	}
}

func TestJobsRepository_UpdateStateCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewJobsRepository(openTestDB(t).SQL)

	now := time.Now().UTC()
	if _, err := repo.Create(ctx, domain.Job{
		ID: "j", Type: "resolve", State: domain.JobQueued, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Wrong expected state: no-op, not found.
	if _, err := repo.UpdateState(ctx, "j", domain.JobRunning, domain.JobCompleted); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on stale expected state, got %v", err)
	}

	// Disallowed transition rejected up front.
	if _, err := repo.UpdateState(ctx, "j", domain.JobQueued, domain.JobCompleted); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	job, err := repo.UpdateState(ctx, "j", domain.JobQueued, domain.JobCanceled)
	if err != nil {
		t.Fatalf("UpdateState: %v", err)
	}
	if job.State != domain.JobCanceled {
		t.Fatalf("expected canceled, got %q", job.State)
	}
}

func TestJobsRepository_UpdateErrorAndResult(t *testing.T) {
	ctx := context.Background()
	repo := NewJobsRepository(openTestDB(t).SQL)

	now := time.Now().UTC()
	if _, err := repo.Create(ctx, domain.Job{
		ID: "j", Type: "resolve", State: domain.JobQueued, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	job, err := repo.UpdateError(ctx, "j", "fetch_error", "http status 500")
	if err != nil {
		t.Fatalf("UpdateError: %v", err)
	}
	if job.ErrorCode != "fetch_error" || job.ErrorMessage != "http status 500" {
		t.Fatalf("unexpected error fields: %q %q", job.ErrorCode, job.ErrorMessage)
	}

	job, err = repo.UpdateResult(ctx, "j", []byte(`{"enclosureUrl":"x"}`))
	if err != nil {
		t.Fatalf("UpdateResult: %v", err)
	}
	if string(job.ResultJSON) != `{"enclosureUrl":"x"}` {
		t.Fatalf("unexpected result: %s", job.ResultJSON)
	}
}

func TestSettingsRepository_RoundTripAndDefaults(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(openTestDB(t).SQL)

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != domain.DefaultSettings() {
		t.Fatalf("empty table should return defaults, got %+v", got)
	}

	want := got
	want.DefaultShow = "thecurrent"
	want.MaxWorkers = 4
	stored, err := repo.Put(ctx, want)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if stored != want {
		t.Fatalf("Put round trip: got %+v want %+v", stored, want)
	}
}
