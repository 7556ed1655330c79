package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/crawl"
	"github.com/fwojciec/webcrawl/sqlite"
)

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	URL         string        `arg:"" help:"Seed URL to start crawling from"`
	Depth       int           `short:"d" default:"${depth}" help:"Maximum link depth from the seed"`
	MaxPages    int           `name:"max-pages" default:"${max_pages}" help:"Maximum pages to store per host"`
	Concurrency int           `short:"c" default:"${concurrency}" help:"Maximum concurrent fetches"`
	Delay       time.Duration `default:"${delay}" help:"Minimum interval between requests to one host"`
	UserAgent   string        `name:"user-agent" default:"${user_agent}" help:"User-Agent header sent with every request"`
	Timeout     time.Duration `short:"t" default:"${timeout}" help:"Timeout per request"`

	Output string `short:"o" type:"path" help:"Export pages to this directory"`
	DB     string `name:"db" type:"path" help:"Export pages to this SQLite database"`
	Report int    `default:"5" help:"Number of pages listed in the report"`

	Verbose  bool            `short:"v" help:"Enable debug logging"`
	JSONLogs bool            `name:"json-logs" help:"Write logs as JSON"`
	Config   kong.ConfigFlag `placeholder:"FILE" help:"Load flag values from a YAML file"`
}

// CrawlConfig returns the crawl configuration described by the flags.
func (c *CLI) CrawlConfig() webcrawl.Config {
	return webcrawl.Config{
		MaxDepth:           c.Depth,
		MaxPagesPerDomain:  c.MaxPages,
		Concurrency:        c.Concurrency,
		MinRequestInterval: c.Delay,
		UserAgent:          c.UserAgent,
		RequestTimeout:     c.Timeout,
	}
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Now    func() time.Time

	Crawler *crawl.Crawler
	Writers []webcrawl.PageWriter
	DB      *sqlite.DB
}

// CrawlCmd runs a crawl and reports the result.
type CrawlCmd struct {
	URL    string
	Report int
}

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	start := deps.Now()

	progress := func(e crawl.ProgressEvent) {
		switch e.Type {
		case crawl.ProgressCompleted, crawl.ProgressFailed, crawl.ProgressSkipped:
			fmt.Fprintf(deps.Stderr, "\r[%d done, %d queued] %-50s", e.Completed, e.Queued, crawl.TruncateURL(e.URL, 50))
		case crawl.ProgressFinished:
			// Clear progress line
			fmt.Fprintf(deps.Stderr, "\r%80s\r", "")
		}
	}

	result, err := deps.Crawler.Crawl(deps.Ctx, c.URL, progress)
	if result == nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webcrawl.ErrorMessage(err))
		return err
	}

	writeReport(deps.Stdout, result, deps.Now().Sub(start), c.Report)

	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webcrawl.ErrorMessage(err))
		return err
	}

	return c.export(deps, result.Pages)
}

// export saves pages to every configured writer and commits them together.
func (c *CrawlCmd) export(deps *Dependencies, pages []*webcrawl.Page) error {
	writers := deps.Writers
	if deps.DB != nil {
		w, err := sqlite.NewPageWriter(deps.Ctx, deps.DB, c.URL)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error starting export: %v\n", err)
			return err
		}
		writers = append(writers, w)
	}
	if len(writers) == 0 {
		return nil
	}

	abortAll := func() {
		for _, w := range writers {
			_ = w.Abort()
		}
	}

	if len(pages) == 0 {
		abortAll()
		fmt.Fprintln(deps.Stdout, "No pages saved")
		return nil
	}

	for _, w := range writers {
		for _, page := range pages {
			if err := w.Save(deps.Ctx, page); err != nil {
				abortAll()
				fmt.Fprintf(deps.Stderr, "error saving %s: %v\n", page.URL, err)
				return err
			}
		}
	}

	for _, w := range writers {
		if err := w.Commit(); err != nil {
			abortAll()
			fmt.Fprintf(deps.Stderr, "error committing: %v\n", err)
			return err
		}
	}

	fmt.Fprintf(deps.Stdout, "Saved %d pages\n", len(pages))
	return nil
}

// writeReport prints a summary of the crawl listing the first n pages.
func writeReport(w io.Writer, result *crawl.Result, elapsed time.Duration, n int) {
	pages := result.Pages
	fmt.Fprintf(w, "Crawled %d pages in %s (%d failed, %d skipped, %s)\n",
		len(pages), elapsed.Round(time.Millisecond), result.Failed, result.Skipped, crawl.FormatBytes(result.Bytes))

	if len(pages) == 0 || n <= 0 {
		return
	}

	fmt.Fprintf(w, "--- Crawl Report (Top %d pages) ---\n", n)
	for _, page := range pages[:min(n, len(pages))] {
		fmt.Fprintf(w, "- URL: %s | Depth: %d | Content Size: %d bytes\n", page.URL, page.Depth, len(page.Content))
	}
	if len(pages) > n {
		fmt.Fprintf(w, "...and %d more pages were found.\n", len(pages)-n)
	}
	fmt.Fprintln(w, "--- End of Report ---")
}
