package circuitbreaker

import (
	"fmt"
	"time"
)

// Config holds the circuit breaker configuration.
type Config struct {
	// Name identifies the breaker. It becomes the "name" label on every
	// exported metric series (REQUIRED).
	Name string

	// MaxRequests is the number of probe calls allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period in the closed state after which the
	// call counts are cleared. Zero keeps counts for the whole closed phase.
	Interval time.Duration

	// OpenTimeout is how long the breaker stays open before moving to half-open.
	OpenTimeout time.Duration

	// FailureRateThreshold is the failure ratio (0.0-1.0] that trips the
	// breaker once MinimumRequests calls have been recorded.
	FailureRateThreshold float64

	// MinimumRequests is the number of calls that must be recorded in the
	// current window before the rate thresholds are evaluated.
	MinimumRequests uint32

	// SlowCallDurationThreshold is the duration above which a completed call
	// counts as slow. Zero disables slow-call tracking.
	SlowCallDurationThreshold time.Duration

	// SlowCallRateThreshold is the slow-call ratio (0.0-1.0] that trips the
	// breaker. Only evaluated when SlowCallDurationThreshold is set.
	SlowCallRateThreshold float64

	// IsIgnored classifies errors that should neither count as failures nor
	// as successes for tripping purposes. Ignored calls still surface their
	// error to the caller and are reported with the "ignored" outcome.
	IsIgnored func(err error) bool

	// OnStateChange is invoked after every state transition.
	OnStateChange func(name string, from, to State)

	// OnCall is invoked after every call attempt with its classified outcome
	// and duration. This is the hook a metrics exporter attaches to.
	OnCall func(name string, outcome Outcome, duration time.Duration)
}

// DefaultConfig returns a safe default configuration for the given breaker name.
func DefaultConfig(name string) Config {
	return Config{
		Name:                      name,
		MaxRequests:               10,
		OpenTimeout:               60 * time.Second,
		FailureRateThreshold:      0.5,
		MinimumRequests:           10,
		SlowCallDurationThreshold: 60 * time.Second,
		SlowCallRateThreshold:     1.0,
	}
}

// withDefaults fills zero values with the defaults used by DefaultConfig.
func (c Config) withDefaults() Config {
	if c.MaxRequests == 0 {
		c.MaxRequests = 10
	}
	if c.OpenTimeout == 0 {
		c.OpenTimeout = 60 * time.Second
	}
	if c.FailureRateThreshold == 0 {
		c.FailureRateThreshold = 0.5
	}
	if c.MinimumRequests == 0 {
		c.MinimumRequests = 10
	}
	if c.SlowCallDurationThreshold > 0 && c.SlowCallRateThreshold == 0 {
		c.SlowCallRateThreshold = 1.0
	}
	return c
}

// validate checks the configuration after defaults have been applied.
func (c Config) validate() error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.FailureRateThreshold <= 0 || c.FailureRateThreshold > 1 {
		return fmt.Errorf("failure_rate_threshold %v: %w", c.FailureRateThreshold, ErrInvalidThreshold)
	}
	if c.SlowCallDurationThreshold > 0 && (c.SlowCallRateThreshold <= 0 || c.SlowCallRateThreshold > 1) {
		return fmt.Errorf("slow_call_rate_threshold %v: %w", c.SlowCallRateThreshold, ErrInvalidThreshold)
	}
	if c.Interval < 0 || c.OpenTimeout < 0 || c.SlowCallDurationThreshold < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}
