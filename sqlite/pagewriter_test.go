package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPageWriter(t *testing.T) {
	t.Parallel()

	t.Run("implements webcrawl.PageWriter interface", func(t *testing.T) {
		t.Parallel()
		var _ webcrawl.PageWriter = (*sqlite.PageWriter)(nil)
	})

	t.Run("commits pages with links in save order", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := openTestDB(t)

		w, err := sqlite.NewPageWriter(ctx, db, "https://example.com/")
		require.NoError(t, err)
		require.NotEmpty(t, w.CrawlID())

		require.NoError(t, w.Save(ctx, &webcrawl.Page{
			URL:     "https://example.com/",
			Host:    "example.com",
			Depth:   0,
			Content: "<a href=/a>a</a><a href=/b>b</a>",
			Links:   []string{"https://example.com/a", "https://example.com/b"},
		}))
		require.NoError(t, w.Save(ctx, &webcrawl.Page{
			URL:     "https://example.com/a",
			Depth:   1,
			Content: "<p>a</p>",
		}))
		require.NoError(t, w.Commit())

		svc := sqlite.NewPageService(db)
		crawlID := w.CrawlID()
		pages, err := svc.FindPages(ctx, sqlite.PageFilter{CrawlID: &crawlID})
		require.NoError(t, err)
		require.Len(t, pages, 2)

		assert.Equal(t, "https://example.com/", pages[0].URL)
		assert.Equal(t, "example.com", pages[0].Host)
		assert.Equal(t, 0, pages[0].Depth)
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, pages[0].Links)

		assert.Equal(t, "https://example.com/a", pages[1].URL)
		assert.Equal(t, "example.com", pages[1].Host, "host derived from URL")
		assert.Equal(t, "<p>a</p>", pages[1].Content)
		assert.Empty(t, pages[1].Links)
	})

	t.Run("stamps the crawl when committed", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := openTestDB(t)

		w, err := sqlite.NewPageWriter(ctx, db, "https://example.com/")
		require.NoError(t, err)
		require.NoError(t, w.Save(ctx, &webcrawl.Page{URL: "https://example.com/"}))
		require.NoError(t, w.Commit())

		c, err := sqlite.NewPageService(db).FindCrawlByID(ctx, w.CrawlID())
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/", c.SeedURL)
		assert.Equal(t, 1, c.Pages)
		assert.False(t, c.StartedAt.IsZero())
		assert.False(t, c.FinishedAt.IsZero())
	})

	t.Run("abort discards the crawl", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := openTestDB(t)

		w, err := sqlite.NewPageWriter(ctx, db, "https://example.com/")
		require.NoError(t, err)
		require.NoError(t, w.Save(ctx, &webcrawl.Page{URL: "https://example.com/"}))
		require.NoError(t, w.Abort())

		_, err = sqlite.NewPageService(db).FindCrawlByID(ctx, w.CrawlID())
		require.Error(t, err)
		assert.Equal(t, webcrawl.ENOTFOUND, webcrawl.ErrorCode(err))

		pages, err := sqlite.NewPageService(db).FindPages(ctx, sqlite.PageFilter{})
		require.NoError(t, err)
		assert.Empty(t, pages)
	})

	t.Run("abort after commit is a no-op", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := openTestDB(t)

		w, err := sqlite.NewPageWriter(ctx, db, "https://example.com/")
		require.NoError(t, err)
		require.NoError(t, w.Commit())

		require.NoError(t, w.Abort())
	})

	t.Run("rejects saves after commit", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := openTestDB(t)

		w, err := sqlite.NewPageWriter(ctx, db, "https://example.com/")
		require.NoError(t, err)
		require.NoError(t, w.Commit())

		err = w.Save(ctx, &webcrawl.Page{URL: "https://example.com/"})
		require.Error(t, err)
		assert.Equal(t, webcrawl.EINVALID, webcrawl.ErrorCode(err))
	})
}

func TestPageService_FindPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)

	w, err := sqlite.NewPageWriter(ctx, db, "http://a.test/")
	require.NoError(t, err)
	for _, u := range []string{"http://a.test/", "http://a.test/1", "http://b.test/", "http://a.test/2"} {
		require.NoError(t, w.Save(ctx, &webcrawl.Page{URL: u}))
	}
	require.NoError(t, w.Commit())

	svc := sqlite.NewPageService(db)

	t.Run("filters by host", func(t *testing.T) {
		t.Parallel()

		host := "a.test"
		pages, err := svc.FindPages(ctx, sqlite.PageFilter{Host: &host})

		require.NoError(t, err)
		require.Len(t, pages, 3)
		for _, p := range pages {
			assert.Equal(t, "a.test", p.Host)
		}
	})

	t.Run("applies limit and offset", func(t *testing.T) {
		t.Parallel()

		pages, err := svc.FindPages(ctx, sqlite.PageFilter{Limit: 2, Offset: 1})

		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, "http://a.test/1", pages[0].URL)
		assert.Equal(t, "http://b.test/", pages[1].URL)
	})

	t.Run("applies offset without limit", func(t *testing.T) {
		t.Parallel()

		pages, err := svc.FindPages(ctx, sqlite.PageFilter{Offset: 3})

		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Equal(t, "http://a.test/2", pages[0].URL)
	})

	t.Run("returns not found for unknown crawl", func(t *testing.T) {
		t.Parallel()

		_, err := svc.FindCrawlByID(ctx, "missing")

		require.Error(t, err)
		assert.Equal(t, webcrawl.ENOTFOUND, webcrawl.ErrorCode(err))
	})
}
