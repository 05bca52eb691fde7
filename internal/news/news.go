// Package news runs the interactive news-search loop: read a topic,
// invoke the news agent, print the summary, repeat until "exit".
package news

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/herald0/herald/internal/log"
)

// Prompt is printed before each topic is read. The trailing space keeps
// the cursor on the prompt line.
const Prompt = "Enter a topic to search for news (or 'exit' to quit): "

// separatorWidth is the length of the "=" rule printed after each result.
const separatorWidth = 50

// Searcher produces a news summary for one topic. Satisfied by a
// closure over the runner; stubbed in tests.
type Searcher func(ctx context.Context, topic string) (string, error)

// Config contains the loop's dependencies. In and Out default to the
// process streams in the command layer; tests inject buffers.
type Config struct {
	Search Searcher
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
	Logger log.Logger
}

// Loop is the interactive session state.
type Loop struct {
	search Searcher
	in     *bufio.Scanner
	out    io.Writer
	errOut io.Writer
	logger log.Logger
}

// NewLoop creates the loop.
func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Search == nil {
		return nil, errors.New("searcher is required")
	}
	if cfg.In == nil || cfg.Out == nil {
		return nil, errors.New("input and output streams are required")
	}
	errOut := cfg.ErrOut
	if errOut == nil {
		errOut = cfg.Out
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Loop{
		search: cfg.Search,
		in:     bufio.NewScanner(cfg.In),
		out:    cfg.Out,
		errOut: errOut,
		logger: logger,
	}, nil
}

// Run drives the loop until the user types "exit" (any case), input is
// exhausted, or the context is canceled. A failed search is reported
// and the loop continues; it never terminates the session.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(l.out, Prompt)
		if !l.in.Scan() {
			if err := l.in.Err(); err != nil {
				return fmt.Errorf("reading topic: %w", err)
			}
			fmt.Fprintln(l.out)
			return nil
		}

		topic := strings.TrimSpace(l.in.Text())
		if topic == "" {
			continue
		}
		if strings.EqualFold(topic, "exit") {
			return nil
		}

		summary, err := l.search(ctx, topic)
		if err != nil {
			l.logger.Warn("news search failed", "topic", topic, "error", err)
			fmt.Fprintf(l.errOut, "Search failed: %v\n", err)
			continue
		}

		fmt.Fprintf(l.out, "\nResult:\n%s\n\n%s\n\n", summary, strings.Repeat("=", separatorWidth))
	}
}
