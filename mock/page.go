package mock

import (
	"context"

	"github.com/fwojciec/webcrawl"
)

// Compile-time interface verification.
var (
	_ webcrawl.ResultStore = (*ResultStore)(nil)
	_ webcrawl.PageWriter  = (*PageWriter)(nil)
)

// ResultStore is a mock implementation of webcrawl.ResultStore.
type ResultStore struct {
	RecordPageFn  func(page *webcrawl.Page)
	DomainCountFn func(host string) int
	PagesFn       func() []*webcrawl.Page
}

func (s *ResultStore) RecordPage(page *webcrawl.Page) {
	s.RecordPageFn(page)
}

func (s *ResultStore) DomainCount(host string) int {
	return s.DomainCountFn(host)
}

func (s *ResultStore) Pages() []*webcrawl.Page {
	return s.PagesFn()
}

// PageWriter is a mock implementation of webcrawl.PageWriter.
type PageWriter struct {
	SaveFn   func(ctx context.Context, page *webcrawl.Page) error
	CommitFn func() error
	AbortFn  func() error
}

func (w *PageWriter) Save(ctx context.Context, page *webcrawl.Page) error {
	return w.SaveFn(ctx, page)
}

func (w *PageWriter) Commit() error {
	return w.CommitFn()
}

func (w *PageWriter) Abort() error {
	return w.AbortFn()
}
