// Package goquery implements webcrawl.LinkExtractor on top of
// github.com/PuerkitoBio/goquery.
package goquery

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/webcrawl"
)

var _ webcrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor extracts outbound links from HTML anchors.
type LinkExtractor struct{}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks parses html and returns the absolute http and https
// addresses of its anchors in document order.
// Relative references are resolved against baseURL. Hrefs that cannot be
// parsed or resolve to another scheme are skipped. Each address appears at
// most once.
func (e *LinkExtractor) ExtractLinks(ctx context.Context, html string, baseURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := webcrawl.ParseAddress(baseURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, webcrawl.Errorf(webcrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || isNonHTTPLink(href) {
			return
		}

		resolved, ok := resolveURL(base, href)
		if !ok {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})

	return links, nil
}

// resolveURL resolves href against base and reports whether the result is
// an http or https address.
func resolveURL(base *url.URL, href string) (string, bool) {
	u, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// isNonHTTPLink returns true for links that should not be crawled.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
