package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbcgrab/internal/domain"
	"cbcgrab/internal/download"
	"cbcgrab/internal/tag"
)

func newFeedCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "feed SLUG",
		Short: "List a show's podcast feed and optionally download an episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv(flags)
			ctx := cmd.Context()

			feed, err := e.resolver.ResolveShow(ctx, args[0], flags.options())
			if err != nil {
				return err
			}
			if flags.rssOnly {
				fmt.Println(feed.FeedURL)
				return nil
			}
			if flags.jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(feed)
			}
			if !flags.interactive() {
				printFeed(feed.Entries, flags.list)
				return nil
			}
			return grabFromShow(ctx, e, flags, args[0])
		},
	}
}

func printFeed(entries []domain.FeedEntry, limit int) {
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	rows := make([][]string, 0, limit)
	for i, entry := range entries[:limit] {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), entry.PubDate, entry.Title})
	}
	fmt.Println(renderTable(
		[]string{"#", "Published", "Title"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	))
}

// downloadEntry fetches one feed episode directly, with tags built from the
// feed metadata alone.
func downloadEntry(ctx context.Context, e *env, flags *rootFlags, slug string, entry domain.FeedEntry, album, coverURL string) error {
	if !download.Available() {
		return fmt.Errorf("yt-dlp not found in PATH")
	}
	if flags.dryRun || flags.printURL {
		fmt.Println(entry.EnclosureURL)
		return nil
	}

	runner := download.NewRunner(e.logger)
	opts := download.Options{
		AudioFormat:    flags.audioFormat,
		FormatSelector: flags.formatSelector,
		OutputDir:      flags.outputDir,
	}
	path, err := runner.Run(ctx, entry.EnclosureURL, opts)
	if err != nil && flags.repair {
		e.logger.Warn().Err(err).Msg("download failed, refreshing the feed and retrying once")
		entry = refreshEntry(ctx, e, flags, slug, entry)
		path, err = runner.Run(ctx, entry.EnclosureURL, opts)
	}
	if err != nil {
		return err
	}

	if !flags.noTag {
		md := tag.Metadata{
			Title:    entry.Title,
			Album:    album,
			Artist:   "CBC",
			PubDate:  entry.PubDate,
			CoverURL: coverURL,
		}
		if err := tag.Apply(ctx, e.client, path, md); err != nil {
			e.logger.Warn().Err(err).Str("path", path).Msg("tagging failed")
		}
	}

	fmt.Println(path)
	return nil
}

// refreshEntry refetches the show feed with the cache bypassed and returns
// the current entry matching the picked one by title, falling back to the
// original when the feed no longer lists it.
func refreshEntry(ctx context.Context, e *env, flags *rootFlags, slug string, entry domain.FeedEntry) domain.FeedEntry {
	opts := flags.options()
	opts.IgnoreCache = true
	fresh, err := e.resolver.ResolveShow(ctx, slug, opts)
	if err != nil {
		e.logger.Warn().Err(err).Str("show", slug).Msg("feed refresh failed")
		return entry
	}
	for _, cand := range fresh.Entries {
		if cand.Title == entry.Title {
			return cand
		}
	}
	return entry
}
