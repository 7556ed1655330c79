package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/crawl"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ webcrawl.PageWriter = (*PageWriter)(nil)

// PageWriter exports the pages of one crawl inside a single transaction.
// Nothing is visible to other readers until Commit.
// It is safe for concurrent use by multiple goroutines.
type PageWriter struct {
	mu       sync.Mutex
	tx       *sql.Tx
	crawlID  string
	position int
	done     bool
}

// NewPageWriter begins a transaction and records a new crawl of seedURL.
func NewPageWriter(ctx context.Context, db *DB, seedURL string) (*PageWriter, error) {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO crawls (id, seed_url, started_at)
		VALUES (?, ?, ?)
	`, id, seedURL, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	return &PageWriter{tx: tx, crawlID: id}, nil
}

// CrawlID returns the identifier of the crawl being written.
func (w *PageWriter) CrawlID() string {
	return w.crawlID
}

// Save inserts the page and its links.
func (w *PageWriter) Save(ctx context.Context, page *webcrawl.Page) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return webcrawl.Errorf(webcrawl.EINVALID, "page writer is closed")
	}

	host := page.Host
	if host == "" {
		host = webcrawl.Host(page.URL)
	}

	pageID := uuid.New().String()
	if _, err := w.tx.ExecContext(ctx, `
		INSERT INTO pages (id, crawl_id, url, host, depth, content, content_hash, position, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, pageID, w.crawlID, page.URL, host, page.Depth, page.Content, crawl.ComputeHash(page.Content),
		w.position, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	w.position++

	for i, link := range page.Links {
		if _, err := w.tx.ExecContext(ctx, `
			INSERT INTO links (page_id, position, url)
			VALUES (?, ?, ?)
		`, pageID, i, link); err != nil {
			return err
		}
	}

	return nil
}

// Commit stamps the crawl as finished and commits the transaction.
func (w *PageWriter) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return webcrawl.Errorf(webcrawl.EINVALID, "page writer is closed")
	}
	w.done = true

	if _, err := w.tx.Exec(`UPDATE crawls SET finished_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), w.crawlID); err != nil {
		_ = w.tx.Rollback()
		return err
	}
	return w.tx.Commit()
}

// Abort rolls back the transaction. Calling Abort after Commit is a no-op.
func (w *PageWriter) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return nil
	}
	w.done = true
	return w.tx.Rollback()
}
