// Package circuitbreaker wraps sony/gobreaker with outcome classification,
// slow-call tracking, and state snapshots suitable for metrics export.
package circuitbreaker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/maximiliend-s4m/resilience4j/pkg/logging"
)

// State represents the circuit breaker state.
type State string

const (
	// StateClosed lets calls pass through and records their outcomes.
	StateClosed State = "closed"

	// StateOpen rejects all calls immediately.
	StateOpen State = "open"

	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen State = "half_open"
)

// String returns the state label value.
func (s State) String() string {
	return string(s)
}

// Outcome classifies the result of a single protected call. Every call maps
// to exactly one outcome.
type Outcome string

const (
	// OutcomeSuccessful marks a call that completed without error.
	OutcomeSuccessful Outcome = "successful"

	// OutcomeFailed marks a call that returned an error counted as a failure.
	OutcomeFailed Outcome = "failed"

	// OutcomeIgnored marks a call whose error matched the IsIgnored predicate.
	OutcomeIgnored Outcome = "ignored"

	// OutcomeNotPermitted marks a call rejected by the breaker itself.
	OutcomeNotPermitted Outcome = "not_permitted"
)

// String returns the kind label value.
func (o Outcome) String() string {
	return string(o)
}

// Snapshot is a point-in-time view of a breaker, read on each scrape.
// Rates are ratios in [0.0, 1.0] over the current aggregation window.
type Snapshot struct {
	State         State
	BufferedCalls uint32
	FailureRate   float64
	SlowCallRate  float64
}

// CircuitBreaker protects calls to a single downstream dependency.
type CircuitBreaker struct {
	cfg    Config
	logger zerolog.Logger
	cb     *gobreaker.CircuitBreaker[any]

	// Slow-call counters for the current window. gobreaker does not track
	// call durations, so these are kept beside its counts and cleared
	// whenever gobreaker clears its own: on state transitions and on the
	// closed-state interval roll.
	slowCalls     atomic.Uint64
	measuredCalls atomic.Uint64

	// windowExpiry is the unix-nano deadline of the current closed-state
	// window. Zero when Interval is unset or the breaker is not closed.
	windowExpiry atomic.Int64
}

// errSlowCall marks a successful call that exceeded SlowCallDurationThreshold.
// gobreaker evaluates ReadyToTrip only after a failed call, so slowness has to
// travel through its failure accounting to trip the breaker. Callers never
// observe this error; classify and translate strip it again.
var errSlowCall = errors.New("call exceeded slow call duration threshold")

// New creates a circuit breaker from the given configuration.
// Zero values fall back to the DefaultConfig defaults.
func New(cfg Config) (*CircuitBreaker, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := logging.NewBreakerLogger("circuitbreaker", cfg.Name)

	b := &CircuitBreaker{
		cfg:    cfg,
		logger: logger,
	}

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.OpenTimeout,
		ReadyToTrip:   b.readyToTrip,
		OnStateChange: b.onStateChange,
		IsSuccessful:  b.isSuccessful,
	})

	if cfg.Interval > 0 {
		b.windowExpiry.Store(time.Now().Add(cfg.Interval).UnixNano())
	}

	return b, nil
}

// Name returns the breaker name.
func (b *CircuitBreaker) Name() string {
	return b.cfg.Name
}

// Execute runs fn under breaker protection. Rejected calls return
// ErrOpenState or ErrTooManyRequests without invoking fn.
func (b *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	// A cancelled context must not consume breaker budget.
	if err := ctx.Err(); err != nil {
		return err
	}

	b.rollWindow()

	start := time.Now()
	_, err := b.cb.Execute(func() (any, error) {
		callStart := time.Now()
		callErr := fn()
		// Counted inside the protected call so that a state transition
		// triggered by this very call resets a fully up-to-date window.
		slow := b.recordDuration(time.Since(callStart))
		if callErr == nil && slow {
			return nil, errSlowCall
		}
		return nil, callErr
	})
	duration := time.Since(start)

	b.observe(err, duration)

	return b.translate(err)
}

// recordDuration updates the slow-call counters for one completed call and
// reports whether the call was slow.
func (b *CircuitBreaker) recordDuration(d time.Duration) bool {
	b.measuredCalls.Add(1)
	if b.cfg.SlowCallDurationThreshold > 0 && d >= b.cfg.SlowCallDurationThreshold {
		b.slowCalls.Add(1)
		return true
	}
	return false
}

// rollWindow restarts the slow-call window when the closed-state interval has
// elapsed, mirroring gobreaker clearing its own counts on the same cadence.
func (b *CircuitBreaker) rollWindow() {
	exp := b.windowExpiry.Load()
	if exp == 0 || time.Now().UnixNano() < exp {
		return
	}
	if b.windowExpiry.CompareAndSwap(exp, time.Now().Add(b.cfg.Interval).UnixNano()) {
		b.slowCalls.Store(0)
		b.measuredCalls.Store(0)
	}
}

// Call runs fn under the breaker's protection and returns its result.
// It is the typed counterpart of Execute.
func Call[T any](ctx context.Context, b *CircuitBreaker, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var callErr error
		result, callErr = fn()
		return callErr
	})
	return result, err
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() State {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Snapshot returns the current state, buffered call count, and rates.
func (b *CircuitBreaker) Snapshot() Snapshot {
	counts := b.cb.Counts()

	var failureRate float64
	if counts.Requests > 0 {
		failureRate = float64(counts.TotalFailures) / float64(counts.Requests)
	}

	return Snapshot{
		State:         b.State(),
		BufferedCalls: counts.Requests,
		FailureRate:   failureRate,
		SlowCallRate:  b.slowCallRate(),
	}
}

// observe classifies the finished call and fires the OnCall hook.
func (b *CircuitBreaker) observe(err error, duration time.Duration) {
	outcome := b.classify(err)

	if outcome == OutcomeNotPermitted {
		b.logger.Debug().
			Dur("duration", duration).
			Msg("Call rejected by circuit breaker")
	}

	if b.cfg.OnCall != nil {
		b.cfg.OnCall(b.cfg.Name, outcome, duration)
	}
}

// classify maps a call error onto exactly one outcome.
func (b *CircuitBreaker) classify(err error) Outcome {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return OutcomeNotPermitted
	case err == nil, errors.Is(err, errSlowCall):
		return OutcomeSuccessful
	case b.cfg.IsIgnored != nil && b.cfg.IsIgnored(err):
		return OutcomeIgnored
	default:
		return OutcomeFailed
	}
}

// translate maps gobreaker rejection errors onto this package's sentinels.
func (b *CircuitBreaker) translate(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return ErrOpenState
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return ErrTooManyRequests
	case errors.Is(err, errSlowCall):
		return nil
	default:
		return err
	}
}

// isSuccessful decides which call errors count against the failure rate.
// Errors matched by IsIgnored are excluded from failure accounting. A slow
// successful call counts as a failure only once the slow-call rate would trip
// the breaker, so the failure rate stays clean below that point.
func (b *CircuitBreaker) isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, errSlowCall) {
		return !b.slowRateExceeded()
	}
	return b.cfg.IsIgnored != nil && b.cfg.IsIgnored(err)
}

// slowRateExceeded reports whether the slow-call window has reached
// MinimumRequests and its rate is at or above the configured threshold.
func (b *CircuitBreaker) slowRateExceeded() bool {
	return b.cfg.SlowCallDurationThreshold > 0 &&
		b.measuredCalls.Load() >= uint64(b.cfg.MinimumRequests) &&
		b.slowCallRate() >= b.cfg.SlowCallRateThreshold
}

// readyToTrip evaluates the failure and slow-call rates against their thresholds.
func (b *CircuitBreaker) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < b.cfg.MinimumRequests {
		return false
	}

	failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
	if failureRate >= b.cfg.FailureRateThreshold {
		return true
	}

	return b.slowRateExceeded()
}

// onStateChange resets the slow-call window and notifies the configured hook.
func (b *CircuitBreaker) onStateChange(name string, from, to gobreaker.State) {
	b.slowCalls.Store(0)
	b.measuredCalls.Store(0)

	// Interval rolls only happen while closed; gobreaker's open and
	// half-open generations end on transitions, never on the interval.
	if to == gobreaker.StateClosed && b.cfg.Interval > 0 {
		b.windowExpiry.Store(time.Now().Add(b.cfg.Interval).UnixNano())
	} else {
		b.windowExpiry.Store(0)
	}

	fromState := toState(from)
	toStateVal := toState(to)

	b.logger.Info().
		Str("from", fromState.String()).
		Str("to", toStateVal.String()).
		Msg("Circuit breaker state changed")

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(name, fromState, toStateVal)
	}
}

// slowCallRate returns the slow-call ratio for the current window.
func (b *CircuitBreaker) slowCallRate() float64 {
	measured := b.measuredCalls.Load()
	if measured == 0 {
		return 0
	}
	return float64(b.slowCalls.Load()) / float64(measured)
}

// toState converts a gobreaker state to this package's State.
func toState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
