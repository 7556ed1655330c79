// Package fs provides file-based export of crawled pages.
package fs

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/crawl"
	"gopkg.in/yaml.v3"
)

// Ensure FileStore implements webcrawl.PageWriter at compile time.
var _ webcrawl.PageWriter = (*FileStore)(nil)

// FileStore implements webcrawl.PageWriter with atomic update semantics.
// Pages are saved to a temporary directory, then moved atomically on Commit.
type FileStore struct {
	baseDir string
	name    string

	mu    sync.Mutex
	paths map[string]string // relative path -> URL saved there
}

// NewFileStore creates a new FileStore.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewFileStore(baseDir, name string) *FileStore {
	return &FileStore{
		baseDir: baseDir,
		name:    name,
		paths:   make(map[string]string),
	}
}

func (s *FileStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *FileStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes the page under <host>/<path> in the temporary directory.
// A page whose path is already taken by a different URL is written under
// the path suffixed with a hash of its URL.
func (s *FileStore) Save(ctx context.Context, page *webcrawl.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, err := URLToPath(page.URL)
	if err != nil {
		return err
	}
	if relPath, err = s.claimPath(relPath, page.URL); err != nil {
		return err
	}

	root := s.tempDir()
	fullPath := filepath.Join(root, relPath)
	if !strings.HasPrefix(fullPath, root+string(filepath.Separator)) {
		return webcrawl.Errorf(webcrawl.EINVALID, "path traversal in %q", page.URL)
	}

	// Create parent directories
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	content, err := FormatPage(page)
	if err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(content), 0644)
}

// claimPath reserves relPath for rawURL, falling back to a URL-hashed path
// when another URL holds it.
func (s *FileStore) claimPath(relPath, rawURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range []string{relPath, withSuffix(relPath, crawl.ComputeHash(rawURL))} {
		if owner, ok := s.paths[p]; !ok || owner == rawURL {
			s.paths[p] = rawURL
			return p, nil
		}
	}
	return "", webcrawl.Errorf(webcrawl.EINTERNAL, "path collision for %q", rawURL)
}

// withSuffix inserts _suffix before the extension of p.
func withSuffix(p, suffix string) string {
	ext := filepath.Ext(p)
	return strings.TrimSuffix(p, ext) + "_" + suffix + ext
}

func (s *FileStore) Commit() error {
	// Remove existing final directory if present
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}

	// Atomically rename temp to final
	if err := os.Rename(s.tempDir(), s.finalDir()); err != nil {
		return err
	}

	return nil
}

func (s *FileStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}

// frontMatter is the metadata header written before each page body.
type frontMatter struct {
	Source  string `yaml:"source"`
	Depth   int    `yaml:"depth"`
	Links   int    `yaml:"links"`
	Hash    string `yaml:"hash"`
	Crawled string `yaml:"crawled"`
}

// FormatPage formats a page with YAML front matter.
func FormatPage(page *webcrawl.Page) (string, error) {
	meta, err := yaml.Marshal(frontMatter{
		Source:  page.URL,
		Depth:   page.Depth,
		Links:   len(page.Links),
		Hash:    crawl.ComputeHash(page.Content),
		Crawled: time.Now().Format("2006-01-02"),
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	b.WriteString(page.Content)
	return b.String(), nil
}

// URLToPath converts a page URL to a relative file path under its host.
// Example: https://example.com/docs/api/users -> example.com/docs/api/users.html
// A query string is kept as a hash suffix, so /list?page=2 becomes
// list_<hash>.html.
func URLToPath(rawURL string) (string, error) {
	p, u, err := urlToPath(rawURL)
	if err != nil {
		return "", err
	}
	if u.RawQuery != "" {
		p = withSuffix(p, crawl.ComputeHash(u.RawQuery))
	}
	return p, nil
}

func urlToPath(rawURL string) (string, *url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, webcrawl.Errorf(webcrawl.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if u.Host == "" {
		return "", nil, webcrawl.Errorf(webcrawl.EMISSINGHOST, "missing host in %q", rawURL)
	}

	host := strings.ReplaceAll(u.Host, ":", "_")
	path := u.Path

	// Handle root or trailing slash -> index.html
	if path == "" || path == "/" {
		return filepath.Join(host, "index.html"), u, nil
	}

	// Remove leading slash
	path = strings.TrimPrefix(path, "/")

	// Trailing slash becomes index.html in that directory
	if strings.HasSuffix(path, "/") {
		return filepath.Join(host, filepath.FromSlash(path), "index.html"), u, nil
	}

	if filepath.Ext(path) == "" {
		path += ".html"
	}
	return filepath.Join(host, filepath.FromSlash(path)), u, nil
}
