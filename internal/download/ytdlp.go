// Package download shells out to yt-dlp for audio retrieval. The enclosure
// URLs already point at plain MP3 files, but yt-dlp handles redirects,
// resumption, and the occasional HLS enclosure for free.
package download

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const binary = "yt-dlp"

// Available reports whether yt-dlp is on PATH.
func Available() bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

type Options struct {
	// AudioFormat passed to -x --audio-format; empty means mp3.
	AudioFormat string
	// FormatSelector is yt-dlp's -f value; empty lets yt-dlp choose.
	FormatSelector string
	// OutputTemplate is a yt-dlp -o template relative to OutputDir; empty
	// means the default "%(title)s.%(ext)s".
	OutputTemplate string
	OutputDir      string
}

func (o Options) normalized() Options {
	if o.AudioFormat == "" {
		o.AudioFormat = "mp3"
	}
	if o.OutputTemplate == "" {
		o.OutputTemplate = "%(title)s.%(ext)s"
	}
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	return o
}

func (o Options) args(url string) []string {
	args := []string{"-x", "--audio-format", o.AudioFormat}
	if o.FormatSelector != "" {
		args = append(args, "-f", o.FormatSelector)
	}
	args = append(args, "-o", filepath.Join(o.OutputDir, o.OutputTemplate), url)
	return args
}

type Runner struct {
	logger zerolog.Logger
}

func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{logger: logger}
}

// ExpectedPath asks yt-dlp where Run would place the file, without
// downloading anything.
func (r *Runner) ExpectedPath(ctx context.Context, url string, opts Options) (string, error) {
	opts = opts.normalized()
	args := append([]string{"--get-filename"}, opts.args(url)...)
	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp --get-filename: %w", err)
	}
	path := strings.TrimSpace(string(out))
	// -x rewrites the extension after extraction; --get-filename reports
	// the pre-extraction name.
	ext := filepath.Ext(path)
	if ext != "" && ext != "."+opts.AudioFormat {
		path = strings.TrimSuffix(path, ext) + "." + opts.AudioFormat
	}
	return path, nil
}

// Run downloads url and returns the path of the resulting audio file.
// yt-dlp's own output goes to stderr so progress stays visible when run
// from a terminal.
func (r *Runner) Run(ctx context.Context, url string, opts Options) (string, error) {
	opts = opts.normalized()
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", err
	}

	path, err := r.ExpectedPath(ctx, url, opts)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, binary, opts.args(url)...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	r.logger.Debug().Str("url", url).Str("path", path).Msg("starting yt-dlp")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("yt-dlp reported success but %s is missing: %w", path, err)
	}
	return path, nil
}
