package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cbcgrab/internal/app"
	"cbcgrab/internal/buildinfo"
	"cbcgrab/internal/cache"
	"cbcgrab/internal/config"
	"cbcgrab/internal/fetch"
)

type rootFlags struct {
	show           string
	rssURL         string
	provider       string
	title          string
	printURL       bool
	dryRun         bool
	list           int
	jsonOut        bool
	nonInteractive bool
	cacheTTL       time.Duration
	noCache        bool
	repair         bool
	rssOnly        bool
	audioFormat    string
	formatSelector string
	outputDir      string
	noTag          bool
	verbose        bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "cbcgrab [flags] URL",
		Short:         "Download CBC Radio story audio from its podcast feed",
		Long:          "cbcgrab resolves a cbc.ca story page to the matching episode in the show's podcast feed, downloads the enclosure, and tags the file.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runGrab(cmd, flags, args[0])
		},
	}

	f := rootCmd.Flags()
	f.StringVarP(&flags.show, "show", "s", "", "Show slug to use for the feed lookup (e.g. ideas)")
	f.StringVar(&flags.rssURL, "rss-url", "", "Explicit feed URL, skips discovery")
	f.StringVar(&flags.provider, "provider", "", "Show preset: ideas, thecurrent, q, asithappens, day6, auto")
	f.StringVar(&flags.title, "title", "", "Override the story title used for matching")
	f.BoolVar(&flags.printURL, "print-url", false, "Print the resolved enclosure URL and exit")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Resolve and report without downloading")
	f.IntVar(&flags.list, "list", 0, "List the top N scored candidates and exit")
	f.BoolVar(&flags.jsonOut, "json", false, "Emit the resolution as JSON")
	f.BoolVar(&flags.nonInteractive, "non-interactive", false, "Never prompt; fail instead")
	f.DurationVar(&flags.cacheTTL, "cache-ttl", 0, "Fetch cache lifetime (e.g. 30m); 0 uses the default")
	f.BoolVar(&flags.noCache, "no-cache", false, "Bypass the fetch cache")
	f.BoolVar(&flags.repair, "repair", false, "Refetch everything and retry the download once")
	f.BoolVar(&flags.rssOnly, "rss-discover-only", false, "Print the discovered feed URL and exit")
	f.StringVar(&flags.audioFormat, "audio-format", "mp3", "Audio format passed to yt-dlp")
	f.StringVar(&flags.formatSelector, "format", "", "yt-dlp format selector (-f)")
	f.StringVarP(&flags.outputDir, "output-dir", "o", ".", "Directory for downloaded files")
	f.BoolVar(&flags.noTag, "no-tag", false, "Skip ID3 tagging after download")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(newFeedCommand(flags))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildinfo.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "cbcgrab %s (%s, %s)\n", info.Version, info.Commit, info.Date)
			return nil
		},
	}
}

// env bundles what every command needs once flags are settled.
type env struct {
	logger   zerolog.Logger
	client   *fetch.Client
	resolver *app.Resolver
	cfg      config.Config
}

func newEnv(flags *rootFlags) *env {
	level := zerolog.WarnLevel
	if flags.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	cfg := config.Default()
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if flags.cacheTTL > 0 {
		ttl = flags.cacheTTL
	}
	defaultShow := cfg.DefaultShow
	if flags.show != "" {
		defaultShow = flags.show
	}

	store, err := cache.New(cfg.CacheDir, ttl)
	if err != nil {
		logger.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache disabled")
		store = nil
	}
	client := fetch.New(store, logger)
	resolver := app.NewResolver(logger, client, cfg.SiteURL, defaultShow)

	return &env{logger: logger, client: client, resolver: resolver, cfg: cfg}
}

func (f *rootFlags) options() app.Options {
	return app.Options{
		ShowOverride:    f.show,
		FeedURLOverride: f.rssURL,
		TitleOverride:   f.title,
		Provider:        f.provider,
		IgnoreCache:     f.noCache || f.repair,
	}
}

func (f *rootFlags) interactive() bool {
	return !f.nonInteractive && !f.jsonOut && stdinIsTerminal()
}
