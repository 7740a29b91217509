package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cbcgrab/internal/domain"
)

// errCanceled means the user backed out of an interactive prompt.
var errCanceled = errors.New("no selection made")

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, errCanceled) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, errCanceled) {
		return 1
	}
	switch domain.KindOf(err) {
	case domain.KindFetch:
		return 2
	case domain.KindParse:
		return 3
	case domain.KindNotFound:
		return 4
	case domain.KindNotConfident:
		return 5
	case domain.KindInvalidParams:
		return 6
	}
	return 1
}
