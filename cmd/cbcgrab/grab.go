package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cbcgrab/internal/app"
	"cbcgrab/internal/domain"
	"cbcgrab/internal/download"
	"cbcgrab/internal/tag"
)

func runGrab(cmd *cobra.Command, flags *rootFlags, url string) error {
	e := newEnv(flags)
	ctx := cmd.Context()

	if !e.resolver.IsStoryURL(url) {
		return runListing(ctx, e, flags, url)
	}
	return grabStory(ctx, e, flags, url)
}

func grabStory(ctx context.Context, e *env, flags *rootFlags, url string) error {
	res, err := e.resolver.ResolveStory(ctx, url, flags.options())

	// These outputs only need the feed, which survives a failed match.
	if flags.rssOnly && res.FeedURL != "" {
		fmt.Println(res.FeedURL)
		return nil
	}
	if flags.list > 0 && len(res.Candidates) > 0 {
		printCandidates(res.Candidates, flags.list)
		return nil
	}

	if err != nil {
		if domain.KindOf(err) == domain.KindNotConfident && flags.interactive() && len(res.Candidates) > 0 {
			fmt.Fprintln(os.Stderr, "no confident match; pick the episode yourself:")
			entry, ok, perr := chooseEntry(res.Candidates)
			if perr != nil {
				return perr
			}
			if !ok {
				return errCanceled
			}
			res.Entry = entry
			res.EnclosureURL = entry.EnclosureURL
		} else {
			return err
		}
	} else if res.Ambiguous && flags.interactive() && !flags.printURL && !flags.jsonOut && !flags.dryRun {
		fmt.Fprintf(os.Stderr, "close scores; confirm the episode (blank keeps %q):\n", res.Entry.Title)
		entry, ok, perr := chooseEntry(res.Candidates)
		if perr != nil {
			return perr
		}
		if ok {
			res.Entry = entry
			res.EnclosureURL = entry.EnclosureURL
		}
	}

	if flags.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if flags.printURL {
		fmt.Println(res.EnclosureURL)
		return nil
	}

	fmt.Fprintf(os.Stderr, "matched %q (score %d) in %s\n", res.Entry.Title, res.Entry.Score, res.FeedURL)
	if flags.dryRun {
		return nil
	}

	return downloadAndTag(ctx, e, flags, url, res)
}

func downloadAndTag(ctx context.Context, e *env, flags *rootFlags, url string, res app.Resolution) error {
	if !download.Available() {
		return fmt.Errorf("yt-dlp not found in PATH")
	}

	opts := download.Options{
		AudioFormat:    flags.audioFormat,
		FormatSelector: flags.formatSelector,
		OutputDir:      flags.outputDir,
	}
	runner := download.NewRunner(e.logger)

	path, err := runner.Run(ctx, res.EnclosureURL, opts)
	if err != nil && flags.repair {
		e.logger.Warn().Err(err).Msg("download failed, re-resolving and retrying once")
		fresh, rerr := repairResolution(ctx, e, flags, url)
		if rerr != nil {
			return rerr
		}
		res = fresh
		path, err = runner.Run(ctx, res.EnclosureURL, opts)
	}
	if err != nil {
		return err
	}

	if !flags.noTag {
		md := tag.Metadata{
			Title:    res.Entry.Title,
			Album:    res.Feed.Title,
			Artist:   "CBC",
			PubDate:  res.Entry.PubDate,
			CoverURL: coverArtURL(res),
		}
		if err := tag.Apply(ctx, e.client, path, md); err != nil {
			e.logger.Warn().Err(err).Str("path", path).Msg("tagging failed")
		}
	}

	fmt.Println(path)
	return nil
}

// repairResolution redoes the whole pipeline with the cache bypassed, so a
// retried download gets a freshly resolved enclosure URL instead of the one
// that just failed.
func repairResolution(ctx context.Context, e *env, flags *rootFlags, url string) (app.Resolution, error) {
	opts := flags.options()
	opts.IgnoreCache = true
	return e.resolver.ResolveStory(ctx, url, opts)
}

func coverArtURL(res app.Resolution) string {
	if res.Target.ImageURL != "" {
		return res.Target.ImageURL
	}
	return res.Feed.ImageURL
}

func printCandidates(entries []domain.FeedEntry, limit int) {
	if limit > len(entries) {
		limit = len(entries)
	}
	rows := make([][]string, 0, limit)
	for i, entry := range entries[:limit] {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(entry.Score),
			entry.PubDate,
			entry.Title,
		})
	}
	fmt.Println(renderTable(
		[]string{"#", "Score", "Published", "Title"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
	))
}

// entryMatches filters feed entries on title or description.
func entryMatches(entry domain.FeedEntry, query string) bool {
	return strings.Contains(strings.ToLower(entry.Title), query) ||
		strings.Contains(strings.ToLower(entry.Description), query)
}

func chooseEntry(entries []domain.FeedEntry) (domain.FeedEntry, bool, error) {
	p := newPrompter()
	render := func(page []domain.FeedEntry, start, total int) {
		rows := make([][]string, 0, len(page))
		for i, entry := range page {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(entry.Score),
				entry.PubDate,
				entry.Title,
			})
		}
		fmt.Fprintln(p.out, renderTable(
			[]string{"#", "Score", "Published", "Title"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
		))
		fmt.Fprintf(p.out, "showing %d-%d of %d\n", start, start+len(page)-1, total)
	}
	return choose(p, entries, entryMatches, render)
}
