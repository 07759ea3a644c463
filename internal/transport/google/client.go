package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serprank/internal/domain"
	"github.com/kailas-cloud/serprank/internal/domain/search/page"
	"github.com/kailas-cloud/serprank/internal/metrics"
)

const (
	// DefaultBaseURL is the Custom Search JSON API host.
	DefaultBaseURL = "https://www.googleapis.com"
	searchPath     = "/customsearch/v1"
	// logBodyLimit caps response bytes kept in logs and errors.
	logBodyLimit = 4096
)

// Client fetches result pages from the Google Custom Search JSON API.
type Client struct {
	apiKey   string
	cx       string
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// Config holds the Custom Search client settings.
type Config struct {
	APIKey  string
	CX      string
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a Custom Search client. Credentials are fixed at construction.
func NewClient(cfg *Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		cx:       strings.TrimSpace(cfg.CX),
		endpoint: base + searchPath,
		http:     hc,
		logger:   logger.Named("google_search"),
	}
}

// searchResponse is the subset of the Custom Search response serprank reads.
type searchResponse struct {
	Queries struct {
		NextPage []struct {
			StartIndex int `json:"startIndex"`
		} `json:"nextPage"`
	} `json:"queries"`
	Items []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"items"`
}

// FetchPage implements search.PageFetcher.
// A non-200 response yields *domain.ProviderError carrying the status and body.
func (c *Client) FetchPage(ctx context.Context, phrase string, start int) (page.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, http.NoBody)
	if err != nil {
		return page.Page{}, fmt.Errorf("create request to %s: %w", c.endpoint, err)
	}

	params := req.URL.Query()
	params.Set("key", c.apiKey)
	params.Set("cx", c.cx)
	params.Set("q", phrase)
	params.Set("start", strconv.Itoa(start))
	req.URL.RawQuery = params.Encode()

	c.logger.Debug("outgoing search request",
		zap.String("phrase", phrase),
		zap.Int("start", start),
	)

	startAt := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.SearchAPIRequestsTotal.WithLabelValues("transport_error").Inc()
		return page.Page{}, fmt.Errorf("%w: send request: %w", domain.ErrProviderError, c.redact(err))
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	metrics.SearchAPIRequestsTotal.WithLabelValues(status).Inc()
	metrics.SearchAPIRequestDuration.WithLabelValues(status).Observe(time.Since(startAt).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return page.Page{}, fmt.Errorf("%w: read response body: %w", domain.ErrProviderError, err)
	}

	truncated, wasTruncated := truncateForLog(body, logBodyLimit)
	c.logger.Debug("incoming search response",
		zap.Int("status", resp.StatusCode),
		zap.Int("start", start),
		zap.String("body", truncated),
		zap.Bool("body_truncated", wasTruncated),
		zap.Duration("cost", time.Since(startAt)),
	)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("search provider returned an error",
			zap.Int("status", resp.StatusCode),
			zap.Int("start", start),
		)
		return page.Page{}, domain.NewProviderError(resp.StatusCode, truncated)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return page.Page{}, fmt.Errorf("%w: decode response: %w", domain.ErrProviderError, err)
	}

	p := page.Page{Links: make([]string, 0, len(parsed.Items))}
	for _, item := range parsed.Items {
		p.Links = append(p.Links, item.Link)
	}
	if next := parsed.Queries.NextPage; len(next) > 0 {
		p.NextStart = next[0].StartIndex
		p.HasNext = true
	}
	metrics.SearchAPIResultsTotal.Add(float64(len(p.Links)))

	return p, nil
}

// HealthCheck reports whether credentials are configured. It does not call the billed API.
func (c *Client) HealthCheck(_ context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("api key is empty: %w", domain.ErrNotConfigured)
	}
	if c.cx == "" {
		return fmt.Errorf("search engine id (cx) is empty: %w", domain.ErrNotConfigured)
	}
	return nil
}

// redact drops the request URL from transport errors; its query carries the API key.
func (c *Client) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s %s: %w", ue.Op, c.endpoint, ue.Err)
	}
	return err
}

func truncateForLog(body []byte, limit int) (string, bool) {
	if len(body) <= limit {
		return string(body), false
	}
	return string(body[:limit]), true
}
