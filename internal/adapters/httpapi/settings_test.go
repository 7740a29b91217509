package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"cbcgrab/internal/adapters/sqlite"
	"cbcgrab/internal/app"
	"cbcgrab/internal/domain"
)

func TestSettingsHandler_PutUpdatesResolveLimiter(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := sqlite.NewSettingsRepository(db.SQL)
	svc := app.NewSettingsService(repo)
	lim := app.NewDynamicLimiter(1)

	h := NewSettingsHandler(svc, func(updated domain.Settings) {
		lim.SetLimit(updated.MaxConcurrentResolves)
	})

	r := chi.NewRouter()
	h.Routes(r)

	body := []byte(`{"defaultShow":"ideas","cacheTtlSeconds":600,"maxWorkers":2,"maxConcurrentResolves":3,"outputDir":"downloads","audioFormat":"mp3"}`)
	req := httptest.NewRequest(http.MethodPut, "/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: want %d, got %d", http.StatusOK, rr.Code)
	}
	if lim.Limit() != 3 {
		t.Fatalf("limiter limit: want 3, got %d", lim.Limit())
	}
}

func TestSettingsHandler_PutClampsBlankFields(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := app.NewSettingsService(sqlite.NewSettingsRepository(db.SQL))
	h := NewSettingsHandler(svc, nil)

	r := chi.NewRouter()
	h.Routes(r)

	req := httptest.NewRequest(http.MethodPut, "/settings", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}

	stored, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored != domain.DefaultSettings() {
		t.Fatalf("blank settings should clamp to defaults, got %+v", stored)
	}
}
