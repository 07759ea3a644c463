package serprank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/serprank/internal/domain"
	"github.com/kailas-cloud/serprank/internal/domain/search/query"
	"github.com/kailas-cloud/serprank/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/serprank/internal/logger"
	"github.com/kailas-cloud/serprank/internal/repository/record"
	"github.com/kailas-cloud/serprank/internal/transport/google"
	healthuc "github.com/kailas-cloud/serprank/internal/usecase/health"
	searchuc "github.com/kailas-cloud/serprank/internal/usecase/search"
)

const defaultTimeout = 10 * time.Second

// Internal interfaces swapped out in tests.
type searchUseCase interface {
	Run(ctx context.Context, q query.Query) (result.Outcome, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the serprank SDK entry point.
type Client struct {
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. Credentials are required; no network call is made.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout:   defaultTimeout,
		outputDir: ".",
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if strings.TrimSpace(cfg.apiKey) == "" || strings.TrimSpace(cfg.cx) == "" {
		return nil, fmt.Errorf("serprank: %w (use WithCredentials)", domain.ErrNotConfigured)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	gc := google.NewClient(&google.Config{
		APIKey:     cfg.apiKey,
		CX:         cfg.cx,
		BaseURL:    cfg.baseURL,
		Timeout:    cfg.timeout,
		HTTPClient: cfg.httpClient,
		Logger:     cfg.logger,
	})
	store := record.New(cfg.outputDir)
	if cfg.now != nil {
		store = store.WithClock(cfg.now)
	}

	return &Client{
		searchSvc: searchuc.New(gc, store),
		healthSvc: healthuc.New(gc, store),
		obs:       obs,
	}, nil
}

// Link is one ranked result.
type Link struct {
	Rank  int
	URL   string
	Match bool
}

// Result is the outcome of one search run.
type Result struct {
	Phrase      string
	Website     string
	Links       []Link
	Found       bool
	MatchedRank int    // zero unless Found
	File        string // path of the written record
}

// Search pages through results for phrase, looks for website among the links
// and writes the record file. An empty website skips matching.
func (c *Client) Search(ctx context.Context, phrase, website string) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.searchDone(phrase, &res, start, err) }()

	if strings.TrimSpace(phrase) == "" {
		return Result{}, fmt.Errorf("search: %w: phrase must not be empty", ErrInvalidQuery)
	}
	if c.obs != nil && c.obs.logger != nil {
		ctx = logpkg.ContextWithLogger(ctx, c.obs.logger)
	}

	q := query.New(phrase, website)
	out, err := c.searchSvc.Run(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	return fromOutcome(&out), nil
}

// HealthStatus represents the aggregated component health.
type HealthStatus struct {
	Status string            // "ok", "degraded"
	Checks map[string]string // component → "ok"/"error"
}

// Health checks provider configuration and the output directory.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	h := HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
	c.obs.healthDone(&h, start)
	return h
}

// IsProviderStatus reports whether err came from a provider response with the given status.
func IsProviderStatus(err error, status int) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.StatusCode == status
}

func fromOutcome(out *result.Outcome) Result {
	q := out.Query()
	res := Result{
		Phrase:  q.Phrase(),
		Website: q.Website(),
		Links:   make([]Link, len(out.Links())),
		File:    out.FilePath(),
	}
	for i, l := range out.Links() {
		res.Links[i] = Link{Rank: l.Rank(), URL: l.URL(), Match: out.IsMatch(l)}
	}
	res.MatchedRank, res.Found = out.MatchedRank()
	return res
}
