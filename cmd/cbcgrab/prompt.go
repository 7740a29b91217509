package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"cbcgrab/internal/pick"
)

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter() *prompter {
	return &prompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.in.ReadString('\n')
	if err != nil && s == "" {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// choose drives a paged selection loop. render receives the current page
// plus its 1-based offset within the visible list.
func choose[T any](p *prompter, items []T, matches func(T, string) bool, render func(page []T, start, total int)) (T, bool, error) {
	var zero T
	if len(items) == 0 {
		return zero, false, nil
	}

	c := pick.NewChooser(items, matches)
	for {
		start, _ := c.PageBounds()
		render(c.PageItems(), start+1, c.Total())

		input, err := p.line("pick a number, n/p to page, /text to filter, blank to cancel: ")
		if err != nil {
			return zero, false, err
		}

		outcome, picked, note := c.Apply(input)
		if note != "" {
			fmt.Fprintln(p.out, note)
		}
		switch outcome {
		case pick.Picked:
			return picked, true, nil
		case pick.Canceled:
			return zero, false, nil
		}
	}
}
