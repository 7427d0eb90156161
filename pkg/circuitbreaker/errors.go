package circuitbreaker

import "errors"

// Common errors returned by the circuit breaker.
var (
	// ErrOpenState is returned when a call is rejected because the breaker is open.
	ErrOpenState = errors.New("circuit breaker is open")

	// ErrTooManyRequests is returned when the half-open probe budget is exhausted.
	ErrTooManyRequests = errors.New("too many requests in half-open state")

	// ErrNameRequired is returned when a breaker is configured without a name.
	ErrNameRequired = errors.New("circuit breaker name is required")

	// ErrInvalidThreshold is returned when a rate threshold is outside (0.0, 1.0].
	ErrInvalidThreshold = errors.New("rate threshold must be within (0.0, 1.0]")
)
