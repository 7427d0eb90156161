// Command breaker-proxy is a pass-through HTTP proxy that guards a single
// upstream service with a circuit breaker and exposes the breaker's metrics
// for Prometheus to scrape.
package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/maximiliend-s4m/resilience4j/pkg/circuitbreaker"
	"github.com/maximiliend-s4m/resilience4j/pkg/logging"
	"github.com/maximiliend-s4m/resilience4j/pkg/metrics"
)

func main() {
	// Configuration from environment
	port := getEnv("PORT", "8080")
	upstreamURL := getEnv("UPSTREAM_URL", "http://localhost:9090")
	breakerName := getEnv("BREAKER_NAME", "upstream")
	logLevel := getEnv("LOG_LEVEL", "info")

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(logLevel),
		Pretty: false,
		Output: os.Stderr,
	})

	// One collector per process; its private registry backs /metrics.
	collector, err := metrics.NewCircuitBreakerCollector(metrics.DefaultMetricNames())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create metrics collector")
	}

	cfg := circuitbreaker.DefaultConfig(breakerName)
	cfg.MinimumRequests = 5
	cfg.OpenTimeout = 15 * time.Second
	cfg.SlowCallDurationThreshold = 5 * time.Second
	cfg.OnCall = collector.RecordCall

	breaker, err := circuitbreaker.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create circuit breaker")
	}

	if err := collector.Register(breaker); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register breaker with collector")
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/proxy/", proxyHandler(breaker, httpClient, upstreamURL, logger))
	http.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("upstream", upstreamURL).
		Str("breaker", breakerName).
		Msg("Starting breaker proxy")

	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// proxyHandler forwards GET requests to the upstream under breaker
// protection. Upstream 5xx responses count as failures; while the breaker
// is open, requests are answered with 503 without touching the upstream.
func proxyHandler(breaker *circuitbreaker.CircuitBreaker, httpClient *http.Client, upstreamURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Example: /proxy/v1/orders -> <upstream>/v1/orders
		path := r.URL.Path[len("/proxy"):]

		body, err := circuitbreaker.Call(r.Context(), breaker, func() ([]byte, error) {
			resp, err := httpClient.Get(upstreamURL + path)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= http.StatusInternalServerError {
				return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
			}

			return io.ReadAll(resp.Body)
		})

		switch {
		case err == nil:
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write(body); err != nil {
				logger.Error().Err(err).Msg("Failed to write response")
			}
		case errors.Is(err, circuitbreaker.ErrOpenState), errors.Is(err, circuitbreaker.ErrTooManyRequests):
			http.Error(w, "upstream circuit breaker is open", http.StatusServiceUnavailable)
		default:
			http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
