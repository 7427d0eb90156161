// Package metrics exports circuit-breaker runtime metrics to Prometheus.
//
// Every collector owns a private registry so that independent exporters, and
// tests, never collide on metric identity. The scrape layer obtains the
// registry via Registry() and serves it however it likes (promhttp, push,
// manual Gather).
//
// Exported families and their label conventions:
//   - calls histogram:       (name, kind), kind one of failed, successful,
//     ignored, not_permitted
//   - state gauge:           (name, state), 1 for the current state, 0 otherwise
//   - buffered-calls gauge:  (name)
//   - failure-rate gauge:    (name)
//   - slow-call-rate gauge:  (name)
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Kind classifies a recorded call for the "kind" label of the calls
// histogram. The set is closed; extending it breaks scrape compatibility.
type Kind string

const (
	// KindFailed marks calls that completed with a counted error.
	KindFailed Kind = "failed"

	// KindSuccessful marks calls that completed without error.
	KindSuccessful Kind = "successful"

	// KindIgnored marks calls whose error was excluded from failure accounting.
	KindIgnored Kind = "ignored"

	// KindNotPermitted marks calls rejected by an open circuit breaker.
	KindNotPermitted Kind = "not_permitted"
)

// Label names shared by all exported families.
const (
	labelName  = "name"
	labelKind  = "kind"
	labelState = "state"
)

// Collector is the shared base of every circuit-breaker metrics exporter.
// It owns the registry and the calls histogram; concrete exporters add the
// per-breaker gauge families on top by registering themselves into the
// owned registry.
type Collector struct {
	names    MetricNames
	registry *prometheus.Registry
	calls    *prometheus.HistogramVec
}

// NewCollector allocates a private registry and registers the calls
// histogram into it. It fails with ErrEmptyMetricName when names is
// incomplete (for example the zero value); nothing is registered on failure.
func NewCollector(names MetricNames) (*Collector, error) {
	if err := names.validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()

	calls := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    names.CallsMetricName(),
		Help:    "Total number of calls by kind",
		Buckets: prometheus.DefBuckets,
	}, []string{labelName, labelKind})

	if err := registry.Register(calls); err != nil {
		return nil, fmt.Errorf("register calls histogram: %w", err)
	}

	return &Collector{
		names:    names,
		registry: registry,
		calls:    calls,
	}, nil
}

// ObserveCall records one call of the given kind for the named breaker.
// Safe for concurrent callers.
func (c *Collector) ObserveCall(name string, kind Kind, duration time.Duration) {
	c.calls.WithLabelValues(name, string(kind)).Observe(duration.Seconds())
}

// MetricNames returns the names this collector exports under.
func (c *Collector) MetricNames() MetricNames {
	return c.names
}

// Registry returns the collector's private registry. Use it to serve the
// scrape endpoint or to register additional families scraped together with
// this exporter.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
