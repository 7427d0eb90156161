package metrics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/maximiliend-s4m/resilience4j/pkg/circuitbreaker"
)

// ErrDuplicateSource is returned when a breaker name is registered twice on
// the same collector.
var ErrDuplicateSource = errors.New("circuit breaker already registered")

// Source produces breaker snapshots on demand. *circuitbreaker.CircuitBreaker
// satisfies it; alternative breaker bindings only need to implement these two
// methods to be scraped by a CircuitBreakerCollector.
type Source interface {
	Name() string
	Snapshot() circuitbreaker.Snapshot
}

// states enumerated for the state gauge; one series per state per breaker.
var states = []circuitbreaker.State{
	circuitbreaker.StateClosed,
	circuitbreaker.StateOpen,
	circuitbreaker.StateHalfOpen,
}

// CircuitBreakerCollector exports the full set of circuit-breaker families:
// the shared calls histogram plus state, buffered-calls, failure-rate, and
// slow-call-rate gauges, one sample per registered breaker per scrape.
type CircuitBreakerCollector struct {
	*Collector

	stateDesc       *prometheus.Desc
	bufferedDesc    *prometheus.Desc
	failureRateDesc *prometheus.Desc
	slowRateDesc    *prometheus.Desc

	mu      sync.RWMutex
	sources map[string]Source
}

// NewCircuitBreakerCollector creates a collector with its own registry and
// registers the gauge families under the given names.
func NewCircuitBreakerCollector(names MetricNames) (*CircuitBreakerCollector, error) {
	base, err := NewCollector(names)
	if err != nil {
		return nil, err
	}

	c := &CircuitBreakerCollector{
		Collector: base,
		stateDesc: prometheus.NewDesc(
			names.StateMetricName(),
			"The state of the circuit breaker",
			[]string{labelName, labelState}, nil,
		),
		bufferedDesc: prometheus.NewDesc(
			names.BufferedCallsMetricName(),
			"The number of buffered calls",
			[]string{labelName}, nil,
		),
		failureRateDesc: prometheus.NewDesc(
			names.FailureRateMetricName(),
			"The failure rate",
			[]string{labelName}, nil,
		),
		slowRateDesc: prometheus.NewDesc(
			names.SlowCallRateMetricName(),
			"The slow call rate",
			[]string{labelName}, nil,
		),
		sources: make(map[string]Source),
	}

	if err := base.Registry().Register(c); err != nil {
		return nil, fmt.Errorf("register circuit breaker collector: %w", err)
	}

	return c, nil
}

// Register adds a breaker to be sampled on every scrape.
func (c *CircuitBreakerCollector) Register(src Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := src.Name()
	if _, exists := c.sources[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrDuplicateSource)
	}
	c.sources[name] = src
	return nil
}

// RecordCall feeds one classified call into the calls histogram. Its
// signature matches circuitbreaker.Config.OnCall, so wiring the event
// stream is a single assignment:
//
//	cfg.OnCall = collector.RecordCall
func (c *CircuitBreakerCollector) RecordCall(name string, outcome circuitbreaker.Outcome, duration time.Duration) {
	c.ObserveCall(name, kindOf(outcome), duration)
}

// Describe implements prometheus.Collector.
func (c *CircuitBreakerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stateDesc
	ch <- c.bufferedDesc
	ch <- c.failureRateDesc
	ch <- c.slowRateDesc
}

// Collect implements prometheus.Collector. It snapshots every registered
// breaker; scrapes may run concurrently with ongoing call recording.
func (c *CircuitBreakerCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, src := range c.sources {
		snap := src.Snapshot()

		for _, state := range states {
			var value float64
			if snap.State == state {
				value = 1
			}
			ch <- prometheus.MustNewConstMetric(
				c.stateDesc, prometheus.GaugeValue, value, name, state.String())
		}

		ch <- prometheus.MustNewConstMetric(
			c.bufferedDesc, prometheus.GaugeValue, float64(snap.BufferedCalls), name)
		ch <- prometheus.MustNewConstMetric(
			c.failureRateDesc, prometheus.GaugeValue, snap.FailureRate, name)
		ch <- prometheus.MustNewConstMetric(
			c.slowRateDesc, prometheus.GaugeValue, snap.SlowCallRate, name)
	}
}

// kindOf maps a breaker outcome onto the histogram's kind label.
func kindOf(outcome circuitbreaker.Outcome) Kind {
	switch outcome {
	case circuitbreaker.OutcomeSuccessful:
		return KindSuccessful
	case circuitbreaker.OutcomeIgnored:
		return KindIgnored
	case circuitbreaker.OutcomeNotPermitted:
		return KindNotPermitted
	default:
		return KindFailed
	}
}
