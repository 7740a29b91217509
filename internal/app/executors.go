package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"cbcgrab/internal/domain"
	"cbcgrab/internal/download"
	"cbcgrab/internal/fetch"
	"cbcgrab/internal/ports"
	"cbcgrab/internal/tag"
)

type JobExecutor interface {
	Execute(ctx context.Context, job domain.Job, env ExecEnv) error
}

// ExecEnv is the executor's view of the surrounding worker: progress and
// result reporting plus cooperative cancellation.
type ExecEnv struct {
	UpdateProgress func(progress float64) error
	IsCanceled     func() (bool, error)
	SetResult      func(v any) error
}

type ExecutorRegistry struct {
	byType map[string]JobExecutor
}

func (r ExecutorRegistry) Get(jobType string) (JobExecutor, bool) {
	ex, ok := r.byType[jobType]
	return ex, ok
}

// NewExecutorRegistry wires the job types the worker understands. The
// limiter caps concurrent resolutions across all workers; settings supply
// the download defaults a request leaves blank.
func NewExecutorRegistry(logger zerolog.Logger, resolver *Resolver, limiter *DynamicLimiter, client *fetch.Client, settings ports.SettingsRepository) ExecutorRegistry {
	return ExecutorRegistry{
		byType: map[string]JobExecutor{
			"resolve": &ResolveExecutor{resolver: resolver, limiter: limiter},
			"download": &DownloadExecutor{
				logger:   logger,
				resolver: resolver,
				limiter:  limiter,
				client:   client,
				settings: settings,
			},
		},
	}
}

// ResolveParams are shared by resolve and download jobs: a story page URL
// plus the optional overrides of a CLI invocation.
type ResolveParams struct {
	URL         string `json:"url"`
	Show        string `json:"show,omitempty"`
	FeedURL     string `json:"feedUrl,omitempty"`
	Title       string `json:"title,omitempty"`
	Provider    string `json:"provider,omitempty"`
	IgnoreCache bool   `json:"ignoreCache,omitempty"`
}

func (p ResolveParams) options() Options {
	return Options{
		ShowOverride:    p.Show,
		FeedURLOverride: p.FeedURL,
		TitleOverride:   p.Title,
		Provider:        p.Provider,
		IgnoreCache:     p.IgnoreCache,
	}
}

func decodeStoryParams(job domain.Job) (ResolveParams, error) {
	var p ResolveParams
	if len(job.ParamsJSON) > 0 {
		if err := json.Unmarshal(job.ParamsJSON, &p); err != nil {
			return p, &domain.Error{Kind: domain.KindInvalidParams, Message: "malformed job params", Err: err}
		}
	}
	if p.URL == "" {
		return p, &domain.Error{Kind: domain.KindInvalidParams, Message: "missing params.url"}
	}
	u, err := url.Parse(p.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return p, &domain.Error{Kind: domain.KindInvalidParams, Message: "invalid params.url"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return p, &domain.Error{Kind: domain.KindInvalidParams, Message: "unsupported url scheme"}
	}
	return p, nil
}

// ResolveExecutor resolves a story page to its enclosure URL and stores the
// full resolution as the job result.
type ResolveExecutor struct {
	resolver *Resolver
	limiter  *DynamicLimiter
}

func (e *ResolveExecutor) Execute(ctx context.Context, job domain.Job, env ExecEnv) error {
	p, err := decodeStoryParams(job)
	if err != nil {
		return err
	}

	if err := e.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer e.limiter.Release()

	if canceled, err := env.IsCanceled(); err != nil || canceled {
		return err
	}
	if err := env.UpdateProgress(0.1); err != nil {
		return err
	}

	res, err := e.resolver.ResolveStory(ctx, p.URL, p.options())
	if err != nil {
		return err
	}
	if err := env.SetResult(res); err != nil {
		return err
	}
	return env.UpdateProgress(1)
}

// DownloadParams extend ResolveParams with output placement. Blank fields
// fall back to the stored settings.
type DownloadParams struct {
	ResolveParams
	OutputDir   string `json:"outputDir,omitempty"`
	AudioFormat string `json:"audioFormat,omitempty"`
	NoTag       bool   `json:"noTag,omitempty"`
}

// DownloadResult is what a completed download job records.
type DownloadResult struct {
	Resolution Resolution `json:"resolution"`
	Path       string     `json:"path"`
	Tagged     bool       `json:"tagged"`
}

// DownloadExecutor runs the whole pipeline: resolve, fetch the enclosure
// through yt-dlp, then write ID3 tags from the story metadata.
type DownloadExecutor struct {
	logger   zerolog.Logger
	resolver *Resolver
	limiter  *DynamicLimiter
	client   *fetch.Client
	settings ports.SettingsRepository
}

func (e *DownloadExecutor) Execute(ctx context.Context, job domain.Job, env ExecEnv) error {
	var p DownloadParams
	if len(job.ParamsJSON) > 0 {
		if err := json.Unmarshal(job.ParamsJSON, &p); err != nil {
			return &domain.Error{Kind: domain.KindInvalidParams, Message: "malformed job params", Err: err}
		}
	}
	base, err := decodeStoryParams(job)
	if err != nil {
		return err
	}
	p.ResolveParams = base

	stored, err := e.settings.Get(ctx)
	if err != nil {
		stored = domain.DefaultSettings()
	}
	if p.OutputDir == "" {
		p.OutputDir = stored.OutputDir
	}
	if p.AudioFormat == "" {
		p.AudioFormat = stored.AudioFormat
	}

	if !download.Available() {
		return fmt.Errorf("yt-dlp not found in PATH")
	}

	if err := e.limiter.Acquire(ctx); err != nil {
		return err
	}
	res, err := e.resolver.ResolveStory(ctx, p.URL, p.options())
	e.limiter.Release()
	if err != nil {
		return err
	}
	if err := env.UpdateProgress(0.3); err != nil {
		return err
	}
	if canceled, err := env.IsCanceled(); err != nil || canceled {
		return err
	}

	runner := download.NewRunner(e.logger)
	path, err := runner.Run(ctx, res.EnclosureURL, download.Options{
		OutputDir:   p.OutputDir,
		AudioFormat: p.AudioFormat,
	})
	if err != nil {
		return err
	}
	if err := env.UpdateProgress(0.9); err != nil {
		return err
	}

	result := DownloadResult{Resolution: res, Path: path}
	if !p.NoTag {
		md := tag.Metadata{
			Title:    res.Entry.Title,
			Album:    res.Feed.Title,
			Artist:   "CBC",
			PubDate:  res.Entry.PubDate,
			CoverURL: coverURL(res),
		}
		if err := tag.Apply(ctx, e.client, path, md); err != nil {
			// Tagging is best effort: the audio is already on disk.
			e.logger.Warn().Err(err).Str("path", path).Msg("tagging failed")
		} else {
			result.Tagged = true
		}
	}

	if err := env.SetResult(result); err != nil {
		return err
	}
	return env.UpdateProgress(1)
}

// coverURL prefers the story's own image over the feed channel art.
func coverURL(res Resolution) string {
	if res.Target.ImageURL != "" {
		return res.Target.ImageURL
	}
	return res.Feed.ImageURL
}
