package search

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serprank/internal/domain/search/page"
	"github.com/kailas-cloud/serprank/internal/domain/search/query"
	"github.com/kailas-cloud/serprank/internal/domain/search/result"
	"github.com/kailas-cloud/serprank/internal/logger"
	"github.com/kailas-cloud/serprank/internal/metrics"
)

// Pagination bounds of the Custom Search API.
const (
	// FirstStartOffset is the offset of the first result page.
	FirstStartOffset = 1
	// MaxStartOffset is the highest start offset the provider serves.
	MaxStartOffset = 91
)

// Service runs a paginated search, tracks the target website rank and saves the record.
type Service struct {
	fetcher PageFetcher
	records RecordWriter
}

// New creates a search service.
func New(fetcher PageFetcher, records RecordWriter) *Service {
	return &Service{fetcher: fetcher, records: records}
}

// Run fetches every page for q, ranks the links in received order and writes the record.
// Any fetch error aborts the run before anything is written.
func (s *Service) Run(ctx context.Context, q query.Query) (result.Outcome, error) {
	log := logger.FromContext(ctx).With(
		zap.String("phrase", q.Phrase()),
		zap.String("website", q.Website()),
	)

	b := result.NewBuilder(q)
	fetched := 0
	for p, err := range s.pages(ctx, q.Phrase()) {
		if err != nil {
			metrics.SearchRunsTotal.WithLabelValues("error").Inc()
			return result.Outcome{}, err
		}
		fetched++
		for _, link := range p.Links {
			b.Add(link)
		}
		log.Debug("page collected",
			zap.Int("page", fetched),
			zap.Int("links", len(p.Links)),
			zap.Int("total", b.Len()),
		)
	}

	draft := b.Build("")
	path, err := s.records.Write(ctx, &draft)
	if err != nil {
		metrics.SearchRunsTotal.WithLabelValues("error").Inc()
		return result.Outcome{}, fmt.Errorf("write record: %w", err)
	}
	out := b.Build(path)

	rank, matched := out.MatchedRank()
	metrics.SearchRunsTotal.WithLabelValues(runLabel(q, matched)).Inc()
	log.Info("search run finished",
		zap.Int("pages", fetched),
		zap.Int("links", len(out.Links())),
		zap.Bool("matched", matched),
		zap.Int("matched_rank", rank),
		zap.String("record", path),
	)
	return out, nil
}

// pages yields provider pages starting at FirstStartOffset. It stops when the
// next offset exceeds MaxStartOffset, a page is empty, or the provider does not
// advertise a next page. A fetch error is yielded once and ends the sequence.
func (s *Service) pages(ctx context.Context, phrase string) iter.Seq2[page.Page, error] {
	return func(yield func(page.Page, error) bool) {
		for start := FirstStartOffset; start <= MaxStartOffset; {
			if err := ctx.Err(); err != nil {
				yield(page.Page{}, fmt.Errorf("search canceled: %w", err))
				return
			}

			p, err := s.fetcher.FetchPage(ctx, phrase, start)
			if err != nil {
				yield(page.Page{}, fmt.Errorf("fetch page at offset %d: %w", start, err))
				return
			}
			if p.IsEmpty() {
				return
			}
			if !yield(p, nil) {
				return
			}
			if !p.HasNext {
				return
			}
			start = p.NextStart
		}
	}
}

func runLabel(q query.Query, matched bool) string {
	switch {
	case !q.TracksWebsite():
		return "untracked"
	case matched:
		return "matched"
	default:
		return "not_found"
	}
}
