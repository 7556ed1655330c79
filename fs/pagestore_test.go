package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/crawl"
	"github.com/fwojciec/webcrawl/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Story: Atomic File Export
// The store uses temp directory for atomic updates

func TestFileStore_SaveWritesToTempDirectory(t *testing.T) {
	t.Parallel()

	// Given a store targeting a directory
	base := t.TempDir()
	store := fs.NewFileStore(base, "output")

	// When I save a page
	err := store.Save(context.Background(), &webcrawl.Page{
		URL:     "https://example.com/docs/api",
		Content: "<h1>API</h1>",
	})

	// Then no error occurs
	require.NoError(t, err)

	// And the file exists in the temp directory (not final)
	tempPath := filepath.Join(base, "output.tmp", "example.com", "docs", "api.html")
	_, err = os.Stat(tempPath)
	require.NoError(t, err, "file should exist in temp directory")

	// And final directory does not exist yet
	_, err = os.Stat(filepath.Join(base, "output"))
	assert.True(t, os.IsNotExist(err), "final directory should not exist until commit")
}

func TestFileStore_CommitMovesFromTempToFinal(t *testing.T) {
	t.Parallel()

	// Given a store with saved pages
	base := t.TempDir()
	store := fs.NewFileStore(base, "output")
	err := store.Save(context.Background(), &webcrawl.Page{
		URL:     "https://example.com/a",
		Content: "<p>A</p>",
	})
	require.NoError(t, err)

	// When I commit
	err = store.Commit()

	// Then no error occurs
	require.NoError(t, err)

	// And final directory exists with content
	finalPath := filepath.Join(base, "output", "example.com", "a.html")
	_, err = os.Stat(finalPath)
	require.NoError(t, err, "file should exist in final directory after commit")

	// And temp directory is gone
	_, err = os.Stat(filepath.Join(base, "output.tmp"))
	assert.True(t, os.IsNotExist(err), "temp directory should be removed after commit")
}

func TestFileStore_CommitReplacesPreviousExport(t *testing.T) {
	t.Parallel()

	// Given a previous export on disk
	base := t.TempDir()
	stale := filepath.Join(base, "output", "old.example.com", "index.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0644))

	// When I export and commit a new crawl
	store := fs.NewFileStore(base, "output")
	require.NoError(t, store.Save(context.Background(), &webcrawl.Page{URL: "https://example.com/"}))
	require.NoError(t, store.Commit())

	// Then only the new crawl remains
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "previous export should be replaced")
	_, err = os.Stat(filepath.Join(base, "output", "example.com", "index.html"))
	require.NoError(t, err)
}

func TestFileStore_AbortCleansUpTempDirectory(t *testing.T) {
	t.Parallel()

	// Given a store with saved pages
	base := t.TempDir()
	store := fs.NewFileStore(base, "output")
	err := store.Save(context.Background(), &webcrawl.Page{
		URL:     "https://example.com/a",
		Content: "<p>A</p>",
	})
	require.NoError(t, err)

	// When I abort
	err = store.Abort()

	// Then no error occurs
	require.NoError(t, err)

	// And temp directory is cleaned up
	_, err = os.Stat(filepath.Join(base, "output.tmp"))
	assert.True(t, os.IsNotExist(err), "temp directory should be removed after abort")

	// And final directory doesn't exist
	_, err = os.Stat(filepath.Join(base, "output"))
	assert.True(t, os.IsNotExist(err), "final directory should not exist after abort")
}

func TestFileStore_IncludesFrontMatter(t *testing.T) {
	t.Parallel()

	// Given a page with metadata
	base := t.TempDir()
	store := fs.NewFileStore(base, "output")
	err := store.Save(context.Background(), &webcrawl.Page{
		URL:     "https://example.com/intro",
		Depth:   2,
		Content: "<h1>Welcome</h1>",
		Links:   []string{"https://example.com/a", "https://example.com/b"},
	})
	require.NoError(t, err)
	require.NoError(t, store.Commit())

	// When I read the file
	content, err := os.ReadFile(filepath.Join(base, "output", "example.com", "intro.html"))
	require.NoError(t, err)

	// Then it has YAML front matter
	assert.Contains(t, string(content), "---")
	assert.Contains(t, string(content), "source: https://example.com/intro")
	assert.Contains(t, string(content), "depth: 2")
	assert.Contains(t, string(content), "links: 2")
	assert.Contains(t, string(content), "hash: "+crawl.ComputeHash("<h1>Welcome</h1>"))
	// And content follows the front matter
	assert.Contains(t, string(content), "<h1>Welcome</h1>")
}

func TestFileStore_SeparatesHosts(t *testing.T) {
	t.Parallel()

	// Given pages from two hosts with the same path
	base := t.TempDir()
	store := fs.NewFileStore(base, "output")
	require.NoError(t, store.Save(context.Background(), &webcrawl.Page{URL: "http://a.test/docs/"}))
	require.NoError(t, store.Save(context.Background(), &webcrawl.Page{URL: "http://b.test:8080/docs/"}))

	// When I commit
	require.NoError(t, store.Commit())

	// Then each host has its own directory
	_, err := os.Stat(filepath.Join(base, "output", "a.test", "docs", "index.html"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "output", "b.test_8080", "docs", "index.html"))
	require.NoError(t, err)
}

func TestFileStore_KeepsPagesWithCollidingPaths(t *testing.T) {
	t.Parallel()

	// Given pages whose addresses differ only by query or extension
	base := t.TempDir()
	store := fs.NewFileStore(base, "output")
	urls := []string{
		"http://h.test/list?page=1",
		"http://h.test/list?page=2",
		"http://h.test/list.html",
		"http://h.test/list",
		"http://h.test/list#top",
	}

	// When I save and commit them all
	for _, u := range urls {
		require.NoError(t, store.Save(context.Background(), &webcrawl.Page{URL: u, Content: u}))
	}
	require.NoError(t, store.Commit())

	// Then every page has its own file
	var sources []string
	err := filepath.WalkDir(filepath.Join(base, "output"), func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, u := range urls {
			if strings.HasSuffix(string(content), "---\n\n"+u) {
				sources = append(sources, u)
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, urls, sources)
}

func TestFileStore_SavingSamePageTwiceOverwrites(t *testing.T) {
	t.Parallel()

	// Given a page saved once
	base := t.TempDir()
	store := fs.NewFileStore(base, "output")
	require.NoError(t, store.Save(context.Background(), &webcrawl.Page{URL: "http://h.test/a", Content: "old"}))

	// When I save the same address again
	require.NoError(t, store.Save(context.Background(), &webcrawl.Page{URL: "http://h.test/a", Content: "new"}))
	require.NoError(t, store.Commit())

	// Then a single file holds the latest content
	entries, err := os.ReadDir(filepath.Join(base, "output", "h.test"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	content, err := os.ReadFile(filepath.Join(base, "output", "h.test", "a.html"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "new")
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	// Given a store
	base := t.TempDir()
	store := fs.NewFileStore(base, "output")

	// When I try to save a page with path traversal
	err := store.Save(context.Background(), &webcrawl.Page{
		URL:     "https://example.com/../../../etc/passwd",
		Content: "bad content",
	})

	// Then an error is returned
	require.Error(t, err, "path traversal should be rejected")
	assert.Contains(t, err.Error(), "path traversal")
}

func TestURLToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"root", "https://example.com", "example.com/index.html"},
		{"root slash", "https://example.com/", "example.com/index.html"},
		{"trailing slash", "https://example.com/docs/", "example.com/docs/index.html"},
		{"nested path", "https://example.com/docs/api/users", "example.com/docs/api/users.html"},
		{"keeps extension", "https://example.com/feed.xml", "example.com/feed.xml"},
		{"hashes query", "https://example.com/search?q=go", "example.com/search_" + crawl.ComputeHash("q=go") + ".html"},
		{"hashes query on root", "https://example.com/?page=2", "example.com/index_" + crawl.ComputeHash("page=2") + ".html"},
		{"port", "http://localhost:8080/a", "localhost_8080/a.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fs.URLToPath(tt.url)

			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}

	t.Run("distinct queries map to distinct paths", func(t *testing.T) {
		t.Parallel()

		p1, err := fs.URLToPath("http://h.test/list?page=1")
		require.NoError(t, err)
		p2, err := fs.URLToPath("http://h.test/list?page=2")
		require.NoError(t, err)
		plain, err := fs.URLToPath("http://h.test/list.html")
		require.NoError(t, err)

		assert.NotEqual(t, p1, p2)
		assert.NotEqual(t, p1, plain)
		assert.NotEqual(t, p2, plain)
	})

	t.Run("rejects address without host", func(t *testing.T) {
		t.Parallel()

		_, err := fs.URLToPath("/relative")

		require.Error(t, err)
		assert.Equal(t, webcrawl.EMISSINGHOST, webcrawl.ErrorCode(err))
	})
}
