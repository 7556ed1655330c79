// Package crawl provides breadth-first crawl orchestration.
// It coordinates claiming, fetching, link extraction, and result
// aggregation across a bounded set of concurrently running tasks.
package crawl

import (
	"context"
	"log/slog"

	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/inmem"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Crawler orchestrates a breadth-first crawl from a seed address.
//
// Registry and Store hold the crawl's shared state. When nil, each call to
// Crawl uses fresh in-memory instances. When set, they are used as-is, so a
// Registry shared between crawls suppresses addresses already claimed, and
// a shared Store keeps counting earlier pages toward each host's quota.
// Result.Pages holds only the pages stored by the current call.
//
// Config holds the crawl limits. Build the Fetcher from the same Config
// (http.WithConfig) so requests honor its interval, agent and timeout.
type Crawler struct {
	Fetcher   webcrawl.Fetcher
	Extractor webcrawl.LinkExtractor
	Registry  webcrawl.VisitedRegistry
	Store     webcrawl.ResultStore
	Config    webcrawl.Config
	Logger    *slog.Logger
}

// Result holds the outcome of a crawl.
type Result struct {
	// Pages are the stored pages in completion order.
	Pages []*webcrawl.Page

	Stored     int // pages fetched, parsed and recorded
	Failed     int // tasks that failed to fetch or parse
	Skipped    int // tasks skipped because their host met its page quota
	Scheduled  int // tasks claimed and queued, including the seed
	Discovered int // links found on stored pages, duplicates included
	Bytes      int // total content size of stored pages
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type      ProgressType
	URL       string
	Depth     int
	Completed int // tasks finished so far
	Queued    int // tasks waiting in the frontier
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressSkipped
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
// It is always called from the goroutine that called Crawl.
type ProgressFunc func(event ProgressEvent)

// taskResult holds the outcome of processing a single task.
type taskResult struct {
	task    webcrawl.Task
	page    *webcrawl.Page
	skipped bool
	err     error
}

// Crawl fetches the seed address and every address reachable from it
// within Config.MaxDepth links.
//
// Every address is claimed in the registry before it is scheduled, so no
// address is fetched twice. At most Config.Concurrency tasks run at once.
// A failing task is logged and counted but never stops the crawl; the only
// errors returned are EINVALID for a bad seed or configuration and
// EABORTED when ctx is canceled. On EABORTED the result holds the pages
// stored before cancellation.
func (c *Crawler) Crawl(ctx context.Context, seed string, progress ProgressFunc) (*Result, error) {
	cfg := c.Config
	if cfg == (webcrawl.Config{}) {
		cfg = webcrawl.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seedURL, err := webcrawl.ParseAddress(seed)
	if err != nil {
		return nil, err
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := c.Registry
	if registry == nil {
		registry = inmem.NewRegistry()
	}
	store := c.Store
	if store == nil {
		store = inmem.NewResultStore()
	}

	emit := func(event ProgressEvent) {
		if progress != nil {
			progress(event)
		}
	}

	// Pages recorded before this call belong to earlier crawls.
	prior := len(store.Pages())

	var result Result
	frontier := NewFrontier()
	if addr := seedURL.String(); registry.Claim(addr) {
		frontier.Push(webcrawl.Task{URL: addr, Depth: 0})
		result.Scheduled++
	}

	emit(ProgressEvent{Type: ProgressStarted, URL: seedURL.String(), Queued: frontier.Len()})

	// The gate bounds running tasks. A task releases its slot before it
	// reports, so once every task has reported no slot is held.
	gate := semaphore.NewWeighted(int64(cfg.Concurrency))
	results := make(chan taskResult)
	var g errgroup.Group

	pending := 0
	completed := 0
	var abortErr error

coordinatorLoop:
	for {
		if err := ctx.Err(); err != nil {
			abortErr = err
			break coordinatorLoop
		}

		// Dispatch as much work as the gate admits
		for frontier.Len() > 0 && gate.TryAcquire(1) {
			task, _ := frontier.Pop()
			pending++
			g.Go(func() error {
				var res taskResult
				func() {
					defer gate.Release(1)
					res = c.processTask(ctx, task, cfg, store, logger)
				}()
				select {
				case results <- res:
				case <-ctx.Done():
				}
				return nil
			})
		}

		// Fixed point: nothing queued and nothing in flight
		if pending == 0 {
			break coordinatorLoop
		}

		select {
		case <-ctx.Done():
			abortErr = ctx.Err()
			break coordinatorLoop
		case res := <-results:
			pending--
			completed++
			c.handleResult(res, &result, frontier, registry, cfg, logger)

			event := ProgressEvent{
				URL:       res.task.URL,
				Depth:     res.task.Depth,
				Completed: completed,
				Queued:    frontier.Len(),
				Error:     res.err,
			}
			switch {
			case res.skipped:
				event.Type = ProgressSkipped
			case res.err != nil:
				event.Type = ProgressFailed
			default:
				event.Type = ProgressCompleted
			}
			emit(event)
		}
	}

	_ = g.Wait()
	result.Pages = store.Pages()[prior:]

	emit(ProgressEvent{Type: ProgressFinished, Completed: completed})

	if abortErr != nil {
		logger.Warn("crawl aborted", "seed", seedURL.String(), "stored", len(result.Pages), "err", abortErr)
		return &result, webcrawl.Errorf(webcrawl.EABORTED, "crawl aborted: %v", abortErr)
	}

	logger.Info("crawl finished",
		"seed", seedURL.String(),
		"stored", result.Stored,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"discovered", result.Discovered,
	)
	return &result, nil
}

// processTask fetches, parses and records a single task.
// It runs on a task goroutine while holding a gate slot.
func (c *Crawler) processTask(ctx context.Context, task webcrawl.Task, cfg webcrawl.Config, store webcrawl.ResultStore, logger *slog.Logger) taskResult {
	result := taskResult{task: task}

	// Best-effort quota: the count may trail pages being recorded right now.
	host := webcrawl.Host(task.URL)
	if host != "" && store.DomainCount(host) >= cfg.MaxPagesPerDomain {
		result.skipped = true
		return result
	}

	logger.Debug("fetching", "url", task.URL, "depth", task.Depth)

	content, err := c.Fetcher.Fetch(ctx, task.URL)
	if err != nil {
		result.err = err
		return result
	}

	links, err := c.Extractor.ExtractLinks(ctx, content, task.URL)
	if err != nil {
		result.err = err
		return result
	}
	logger.Debug("found links", "url", task.URL, "count", len(links))

	page := &webcrawl.Page{
		URL:     task.URL,
		Host:    host,
		Depth:   task.Depth,
		Content: content,
		Links:   links,
	}
	store.RecordPage(page)
	result.page = page

	return result
}

// handleResult folds a finished task into the crawl.
// It runs only on the coordinator goroutine.
func (c *Crawler) handleResult(
	res taskResult,
	result *Result,
	frontier *Frontier,
	registry webcrawl.VisitedRegistry,
	cfg webcrawl.Config,
	logger *slog.Logger,
) {
	if res.skipped {
		result.Skipped++
		logger.Debug("skipping: domain page limit reached", "url", res.task.URL)
		return
	}

	if res.err != nil {
		result.Failed++
		logger.Warn("crawl task failed",
			"url", res.task.URL,
			"depth", res.task.Depth,
			"code", webcrawl.ErrorCode(res.err),
			"err", res.err,
		)
		return
	}

	result.Stored++
	result.Bytes += len(res.page.Content)

	next := res.task.Depth + 1
	for _, link := range res.page.Links {
		result.Discovered++
		if next > cfg.MaxDepth {
			continue
		}
		if registry.Claim(link) {
			frontier.Push(webcrawl.Task{URL: link, Depth: next})
			result.Scheduled++
		}
	}
}
