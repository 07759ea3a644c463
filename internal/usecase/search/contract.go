package search

import (
	"context"

	"github.com/kailas-cloud/serprank/internal/domain/search/page"
	"github.com/kailas-cloud/serprank/internal/domain/search/result"
)

// PageFetcher fetches one page of provider results starting at a 1-based offset.
type PageFetcher interface {
	FetchPage(ctx context.Context, phrase string, start int) (page.Page, error)
}

// RecordWriter persists the record of a finished run and returns its path.
type RecordWriter interface {
	Write(ctx context.Context, out *result.Outcome) (string, error)
}
