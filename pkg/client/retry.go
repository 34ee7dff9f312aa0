package client

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brawl_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "brawl_retry_backoff_seconds",
		Help:    "Backoff duration before a retry after throttling",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 4, 8, 16, 30},
	})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brawl_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})

	credentialRotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brawl_credential_rotations_total",
		Help: "Total number of credential rotations after access denied",
	})
)

// retryAction is what the attempt loop does after a failed attempt.
type retryAction int

const (
	// actionFail surfaces the error immediately.
	actionFail retryAction = iota

	// actionRotate moves on to the next credential without waiting.
	actionRotate

	// actionBackoff waits before the next attempt.
	actionBackoff
)

// retryActionFor returns the recovery policy for an error class. Only
// credential and throttling failures are recovered.
func retryActionFor(class ErrorClass) retryAction {
	switch class {
	case ErrorClassAccessDenied:
		return actionRotate
	case ErrorClassRateLimited:
		return actionBackoff
	default:
		return actionFail
	}
}

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int

	// BackoffBase is the wait before the second attempt after throttling.
	// The wait before attempt i+1 is BackoffBase * 2^i.
	BackoffBase time.Duration

	// MaxBackoff caps a single wait. Zero means no cap.
	MaxBackoff time.Duration
}

// Backoff returns the wait after the attempt with the given 0-based index.
func (rc RetryConfig) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	wait := rc.BackoffBase
	for i := 0; i < attempt; i++ {
		if rc.MaxBackoff > 0 && wait >= rc.MaxBackoff {
			return rc.MaxBackoff
		}
		wait *= 2
	}

	if rc.MaxBackoff > 0 && wait > rc.MaxBackoff {
		return rc.MaxBackoff
	}
	return wait
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
