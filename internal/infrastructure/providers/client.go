// Package providers contains the upstream data clients: Helius for on-chain
// holder data, Moralis for wallet portfolios and DexScreener for market
// pairs. Each client wraps its HTTP calls in a circuit breaker and records
// request metrics.
package providers

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	baseBackoff    = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return gobreaker.NewCircuitBreaker(st)
}

func backoffDelay(attempt int) time.Duration {
	backoff := time.Duration(1<<uint(attempt-1)) * baseBackoff
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}
