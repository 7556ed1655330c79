package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/webcrawl"
)

// Crawl is an exported crawl run.
type Crawl struct {
	ID         string
	SeedURL    string
	StartedAt  time.Time
	FinishedAt time.Time // zero until committed
	Pages      int
}

// PageFilter represents a filter for FindPages.
type PageFilter struct {
	CrawlID *string
	Host    *string

	Limit  int
	Offset int
}

// PageService reads exported crawl results.
type PageService struct {
	db *DB
}

// NewPageService creates a new PageService.
func NewPageService(db *DB) *PageService {
	return &PageService{db: db}
}

// FindCrawlByID retrieves a crawl by ID.
func (s *PageService) FindCrawlByID(ctx context.Context, id string) (*Crawl, error) {
	var c Crawl
	var startedAt string
	var finishedAt sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.seed_url, c.started_at, c.finished_at,
			(SELECT COUNT(*) FROM pages p WHERE p.crawl_id = c.id)
		FROM crawls c
		WHERE c.id = ?
	`, id).Scan(&c.ID, &c.SeedURL, &startedAt, &finishedAt, &c.Pages)

	if err == sql.ErrNoRows {
		return nil, webcrawl.Errorf(webcrawl.ENOTFOUND, "crawl not found")
	}
	if err != nil {
		return nil, err
	}

	if c.StartedAt, err = parseTimestamp(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		if c.FinishedAt, err = parseTimestamp(finishedAt.String, "finished_at"); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

// FindPages retrieves pages matching the filter in the order they were saved.
func (s *PageService) FindPages(ctx context.Context, filter PageFilter) ([]*webcrawl.Page, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, url, host, depth, content FROM pages WHERE 1=1")

	if filter.CrawlID != nil {
		query.WriteString(" AND crawl_id = ?")
		args = append(args, *filter.CrawlID)
	}
	if filter.Host != nil {
		query.WriteString(" AND host = ?")
		args = append(args, *filter.Host)
	}

	query.WriteString(" ORDER BY position ASC")
	paginate(&query, &args, filter)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	var pages []*webcrawl.Page
	for rows.Next() {
		var id string
		var p webcrawl.Page
		if err := rows.Scan(&id, &p.URL, &p.Host, &p.Depth, &p.Content); err != nil {
			return nil, err
		}
		ids = append(ids, id)
		pages = append(pages, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// One connection: rows must be closed before the links query.
	rows.Close()

	for i, id := range ids {
		links, err := s.findLinks(ctx, id)
		if err != nil {
			return nil, err
		}
		pages[i].Links = links
	}

	return pages, nil
}

func (s *PageService) findLinks(ctx context.Context, pageID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url FROM links WHERE page_id = ? ORDER BY position ASC
	`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// parseTimestamp parses a stored crawl timestamp.
func parseTimestamp(value, column string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, webcrawl.Errorf(webcrawl.EINTERNAL, "bad %s %q: %v", column, value, err)
	}
	return t, nil
}

// paginate adds the filter's LIMIT and OFFSET. SQLite accepts OFFSET only
// after a LIMIT, so an offset alone is paired with LIMIT -1.
func paginate(query *strings.Builder, args *[]any, filter PageFilter) {
	switch {
	case filter.Limit > 0:
		query.WriteString(" LIMIT ?")
		*args = append(*args, filter.Limit)
	case filter.Offset > 0:
		query.WriteString(" LIMIT -1")
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, filter.Offset)
	}
}
