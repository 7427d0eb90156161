package metrics

import (
	"errors"
	"fmt"
)

// Default metric family names. Renaming a family changes the scrape output
// only; label conventions stay fixed.
const (
	// DefaultCallsMetricName is the default name of the calls histogram.
	DefaultCallsMetricName = "resilience4j_circuitbreaker_calls"

	// DefaultStateMetricName is the default name of the state gauge.
	DefaultStateMetricName = "resilience4j_circuitbreaker_state"

	// DefaultBufferedCallsMetricName is the default name of the buffered-calls gauge.
	DefaultBufferedCallsMetricName = "resilience4j_circuitbreaker_buffered_calls"

	// DefaultFailureRateMetricName is the default name of the failure-rate gauge.
	DefaultFailureRateMetricName = "resilience4j_circuitbreaker_failure_rate"

	// DefaultSlowCallRateMetricName is the default name of the slow-call-rate gauge.
	DefaultSlowCallRateMetricName = "resilience4j_circuitbreaker_slow_call_rate"
)

// ErrEmptyMetricName is returned when a metric family name is overridden with
// an empty value, or when a collector is constructed from an incomplete
// MetricNames value.
var ErrEmptyMetricName = errors.New("metric name must not be empty")

// MetricNames holds the names of the five exported metric families.
// The zero value is not usable; construct instances with DefaultMetricNames
// or CustomMetricNames. Once built, a MetricNames value never changes.
type MetricNames struct {
	calls         string
	state         string
	bufferedCalls string
	failureRate   string
	slowCallRate  string
}

// DefaultMetricNames returns the documented default name for every family.
func DefaultMetricNames() MetricNames {
	return MetricNames{
		calls:         DefaultCallsMetricName,
		state:         DefaultStateMetricName,
		bufferedCalls: DefaultBufferedCallsMetricName,
		failureRate:   DefaultFailureRateMetricName,
		slowCallRate:  DefaultSlowCallRateMetricName,
	}
}

// CallsMetricName returns the name of the calls histogram.
func (n MetricNames) CallsMetricName() string { return n.calls }

// StateMetricName returns the name of the state gauge.
func (n MetricNames) StateMetricName() string { return n.state }

// BufferedCallsMetricName returns the name of the buffered-calls gauge.
func (n MetricNames) BufferedCallsMetricName() string { return n.bufferedCalls }

// FailureRateMetricName returns the name of the failure-rate gauge.
func (n MetricNames) FailureRateMetricName() string { return n.failureRate }

// SlowCallRateMetricName returns the name of the slow-call-rate gauge.
func (n MetricNames) SlowCallRateMetricName() string { return n.slowCallRate }

// validate rejects values with any empty field, which also catches the
// zero value being passed to a collector constructor.
func (n MetricNames) validate() error {
	fields := map[string]string{
		"calls":          n.calls,
		"state":          n.state,
		"buffered_calls": n.bufferedCalls,
		"failure_rate":   n.failureRate,
		"slow_call_rate": n.slowCallRate,
	}
	for field, value := range fields {
		if value == "" {
			return fmt.Errorf("%s: %w", field, ErrEmptyMetricName)
		}
	}
	return nil
}

// MetricNamesBuilder builds a MetricNames value starting from the defaults,
// so only the families that need renaming have to be set.
type MetricNamesBuilder struct {
	names MetricNames
	err   error
}

// CustomMetricNames returns a builder seeded with all five defaults.
func CustomMetricNames() *MetricNamesBuilder {
	return &MetricNamesBuilder{names: DefaultMetricNames()}
}

// set records the first empty-name error and otherwise applies the override.
func (b *MetricNamesBuilder) set(target *string, name string) *MetricNamesBuilder {
	if name == "" {
		if b.err == nil {
			b.err = ErrEmptyMetricName
		}
		return b
	}
	*target = name
	return b
}

// CallsMetricName overrides the calls histogram name.
func (b *MetricNamesBuilder) CallsMetricName(name string) *MetricNamesBuilder {
	return b.set(&b.names.calls, name)
}

// StateMetricName overrides the state gauge name.
func (b *MetricNamesBuilder) StateMetricName(name string) *MetricNamesBuilder {
	return b.set(&b.names.state, name)
}

// BufferedCallsMetricName overrides the buffered-calls gauge name.
func (b *MetricNamesBuilder) BufferedCallsMetricName(name string) *MetricNamesBuilder {
	return b.set(&b.names.bufferedCalls, name)
}

// FailureRateMetricName overrides the failure-rate gauge name.
func (b *MetricNamesBuilder) FailureRateMetricName(name string) *MetricNamesBuilder {
	return b.set(&b.names.failureRate, name)
}

// SlowCallRateMetricName overrides the slow-call-rate gauge name.
func (b *MetricNamesBuilder) SlowCallRateMetricName(name string) *MetricNamesBuilder {
	return b.set(&b.names.slowCallRate, name)
}

// Build returns the immutable MetricNames snapshot of the builder's current
// values. It fails with the first error recorded by a setter, in which case
// no MetricNames value is produced.
func (b *MetricNamesBuilder) Build() (MetricNames, error) {
	if b.err != nil {
		return MetricNames{}, b.err
	}
	return b.names, nil
}
