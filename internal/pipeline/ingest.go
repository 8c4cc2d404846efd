package pipeline

import (
	"context"

	"codearch/internal/crawler"
	"codearch/internal/git"
)

// Ingester makes a repository's files available to a run.
type Ingester interface {
	Fetch(ctx context.Context, source string) (*git.Checkout, error)
	Scan(ctx context.Context, root string) ([]crawler.FileInfo, error)
}

// SourceIngester fetches with git and scans with the crawler.
type SourceIngester struct {
	fetcher *git.Fetcher
	crawler *crawler.Crawler
}

func NewSourceIngester(fetcher *git.Fetcher, c *crawler.Crawler) *SourceIngester {
	return &SourceIngester{fetcher: fetcher, crawler: c}
}

func (s *SourceIngester) Fetch(ctx context.Context, source string) (*git.Checkout, error) {
	return s.fetcher.Fetch(ctx, source)
}

func (s *SourceIngester) Scan(ctx context.Context, root string) ([]crawler.FileInfo, error) {
	return s.crawler.Scan(ctx, root)
}
