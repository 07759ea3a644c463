package serprank

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiKey     string
	cx         string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client

	outputDir string
	now       func() time.Time

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithCredentials sets the Custom Search API key and search engine id. Required.
func WithCredentials(apiKey, cx string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.cx = cx
	})
}

// WithBaseURL overrides the API host. Default: https://www.googleapis.com.
func WithBaseURL(u string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = u
	})
}

// WithTimeout sets the per-request HTTP timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithHTTPClient replaces the HTTP client used for API calls.
// WithTimeout is ignored when this is set.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithOutputDir sets the directory records are written to. Default: current directory.
func WithOutputDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.outputDir = dir
	})
}

// WithClock overrides the clock used to date record file names.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(c *clientConfig) {
		c.now = now
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
