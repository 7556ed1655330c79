package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/crawl"
	"github.com/fwojciec/webcrawl/fs"
	"github.com/fwojciec/webcrawl/goquery"
	crawlhttp "github.com/fwojciec/webcrawl/http"
	"github.com/fwojciec/webcrawl/inmem"
	crawlslog "github.com/fwojciec/webcrawl/slog"
	"github.com/fwojciec/webcrawl/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Now returns the current time. Used to measure elapsed crawl time.
	Now func() time.Time
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Now: time.Now}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("webcrawl"),
		kong.Description("Crawl a site breadth-first from a seed URL"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Configuration(YAMLLoader),
		kong.Vars{
			"depth":       strconv.Itoa(webcrawl.DefaultMaxDepth),
			"max_pages":   strconv.Itoa(webcrawl.DefaultMaxPagesPerDomain),
			"concurrency": strconv.Itoa(webcrawl.DefaultConcurrency),
			"delay":       webcrawl.DefaultMinRequestInterval.String(),
			"user_agent":  webcrawl.DefaultUserAgent,
			"timeout":     webcrawl.DefaultRequestTimeout.String(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle no arguments
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	cfg := cli.CrawlConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", webcrawl.ErrorMessage(err))
		return err
	}

	logger := buildLogger(stderr, cli.Verbose, cli.JSONLogs)

	// Wire dependencies
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
		Now:    m.Now,
	}

	var fetcher webcrawl.Fetcher = crawlhttp.NewFetcher(crawlhttp.WithConfig(cfg))
	var extractor webcrawl.LinkExtractor = goquery.NewLinkExtractor()
	var registry webcrawl.VisitedRegistry = inmem.NewRegistry()
	if cli.Verbose {
		fetcher = crawlslog.NewLoggingFetcher(fetcher, logger)
		extractor = crawlslog.NewLoggingLinkExtractor(extractor, logger)
		registry = crawlslog.NewLoggingRegistry(registry, logger)
	}

	deps.Crawler = &crawl.Crawler{
		Fetcher:   fetcher,
		Extractor: extractor,
		Registry:  registry,
		Store:     inmem.NewResultStore(),
		Config:    cfg,
		Logger:    logger,
	}

	// Export targets
	if cli.Output != "" {
		deps.Writers = append(deps.Writers, newFileStore(cli.Output))
	}
	if cli.DB != "" {
		db := sqlite.NewDB(cli.DB)
		if err := db.Open(); err != nil {
			fmt.Fprintf(stderr, "error opening database: %v\n", err)
			return err
		}
		defer db.Close()
		deps.DB = db
	}

	cmd := &CrawlCmd{
		URL:    cli.URL,
		Report: cli.Report,
	}

	return cmd.Run(deps)
}

// buildLogger creates the logger for the run. Verbose enables debug output.
func buildLogger(w io.Writer, verbose, structured bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if structured {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// newFileStore creates a FileStore writing to the directory at path.
func newFileStore(path string) *fs.FileStore {
	return fs.NewFileStore(filepath.Dir(path), filepath.Base(path))
}
