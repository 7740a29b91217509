package app

import (
	"context"

	"cbcgrab/internal/domain"
	"cbcgrab/internal/ports"
)

type SettingsService struct {
	repo ports.SettingsRepository
}

func NewSettingsService(repo ports.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	return s.repo.Get(ctx)
}

func (s *SettingsService) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	defaults := domain.DefaultSettings()
	if settings.DefaultShow == "" {
		settings.DefaultShow = defaults.DefaultShow
	}
	if settings.CacheTTLSeconds <= 0 {
		settings.CacheTTLSeconds = defaults.CacheTTLSeconds
	}
	if settings.MaxWorkers <= 0 {
		settings.MaxWorkers = defaults.MaxWorkers
	}
	if settings.MaxConcurrentResolves <= 0 {
		settings.MaxConcurrentResolves = defaults.MaxConcurrentResolves
	}
	if settings.OutputDir == "" {
		settings.OutputDir = defaults.OutputDir
	}
	if settings.AudioFormat == "" {
		settings.AudioFormat = defaults.AudioFormat
	}
	return s.repo.Put(ctx, settings)
}
