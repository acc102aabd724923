package crawler

//go:generate mockgen -package mocks -destination mocks/mock_crawler.go github.com/mycok/siteSearch/crawler Fetcher,PageIndexer

import (
	"context"

	"github.com/mycok/siteSearch/fetcher"
	"github.com/mycok/siteSearch/store"
)

// Fetcher should be implemented by objects that retrieve and parse a single
// web page.
type Fetcher interface {
	// Fetch retrieves the page at url. Failures wrap fetcher.ErrFetchFailure.
	Fetch(ctx context.Context, url string) (*fetcher.Document, error)
}

// PageIndexer should be implemented by objects that can store a fetched page
// and rebuild its lemma index.
type PageIndexer interface {
	// IndexPage upserts the page identified by (site, path) and rebuilds
	// its index entries.
	IndexPage(ctx context.Context, site *store.Site, path string, code int, text string) (*store.Page, error)
}
