package serprank

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Operation names used as metric labels and log fields.
const (
	opSearch = "search"
	opHealth = "health"
)

// clientMetrics counts embedded searches by outcome.
type clientMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "serprank",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Embedded client calls by operation and outcome (ok, invalid_query, not_configured, provider_error, error).",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "serprank",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Embedded client call duration, including every provider page of a search.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or points it at the collector a previous client registered.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("serprank: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("serprank: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// outcomeStatus maps an error to its metric label.
func outcomeStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidQuery):
		return "invalid_query"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrProviderError):
		return "provider_error"
	default:
		return "error"
	}
}

// observer reports client calls. A nil observer, or one without logger
// and metrics, does nothing.
type observer struct {
	logger  *zap.Logger
	metrics *clientMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// searchDone records a finished Search call.
func (o *observer) searchDone(phrase string, res *Result, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := outcomeStatus(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(opSearch, status).Inc()
		o.metrics.duration.WithLabelValues(opSearch).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}

	if err != nil {
		o.logger.Warn("search failed",
			zap.String("phrase", phrase),
			zap.String("status", status),
			zap.Duration("duration", dur),
			zap.Error(err),
		)
		return
	}
	o.logger.Debug("search finished",
		zap.String("phrase", phrase),
		zap.Int("links", len(res.Links)),
		zap.Bool("found", res.Found),
		zap.Int("matched_rank", res.MatchedRank),
		zap.String("record", res.File),
		zap.Duration("duration", dur),
	)
}

// healthDone records a Health call.
func (o *observer) healthDone(h *HealthStatus, start time.Time) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		status := "ok"
		if h.Status != "ok" {
			status = h.Status
		}
		o.metrics.calls.WithLabelValues(opHealth, status).Inc()
		o.metrics.duration.WithLabelValues(opHealth).Observe(time.Since(start).Seconds())
	}
	if o.logger != nil && h.Status != "ok" {
		o.logger.Warn("serprank degraded", zap.Any("checks", h.Checks))
	}
}
