// Package testutil provides testing utilities for the circuit breaker library.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// FlakyUpstream is an HTTP server whose behavior can be switched between
// healthy, failing, and slow. It is used to drive circuit breakers through
// their state transitions in tests.
type FlakyUpstream struct {
	server *httptest.Server

	mu      sync.RWMutex
	failing bool
	delay   time.Duration

	// requestCount tracks how many requests reached the upstream. Calls
	// rejected by a breaker never arrive here.
	requestCount int
}

// NewFlakyUpstream starts a healthy upstream server.
func NewFlakyUpstream() *FlakyUpstream {
	f := &FlakyUpstream{}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requestCount++
		failing := f.failing
		delay := f.delay
		f.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}

		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"upstream unavailable"}`)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	}))

	return f
}

// URL returns the upstream base URL.
func (f *FlakyUpstream) URL() string {
	return f.server.URL
}

// SetFailing switches the upstream between healthy and failing responses.
func (f *FlakyUpstream) SetFailing(failing bool) {
	f.mu.Lock()
	f.failing = failing
	f.mu.Unlock()
}

// SetDelay makes every response take at least d.
func (f *FlakyUpstream) SetDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

// Requests returns how many requests reached the upstream.
func (f *FlakyUpstream) Requests() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.requestCount
}

// Close shuts the upstream down.
func (f *FlakyUpstream) Close() {
	f.server.Close()
}
