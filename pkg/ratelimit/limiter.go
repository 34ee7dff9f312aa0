// Package ratelimit implements the outbound token bucket that bounds how
// fast the client calls the upstream API, regardless of how many goroutines
// issue requests.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for limiter acquisitions.
var (
	acquisitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brawl_ratelimit_acquisitions_total",
		Help: "Total token acquisitions by outcome (immediate, waited, cancelled)",
	}, []string{"outcome"})

	waitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "brawl_ratelimit_wait_seconds",
		Help:    "Time spent waiting for a rate limit token",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})
)

// Config holds the token bucket parameters.
type Config struct {
	// Rate is the number of tokens restored per Period. It is also the
	// bucket capacity.
	Rate int

	// Period is the window over which Rate tokens are restored.
	Period time.Duration
}

// DefaultConfig returns 20 requests per second.
func DefaultConfig() Config {
	return Config{
		Rate:   20,
		Period: time.Second,
	}
}

// RefillInterval is the time needed to earn one token.
func (c Config) RefillInterval() time.Duration {
	return c.Period / time.Duration(c.Rate)
}

func (c Config) validate() error {
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be > 0 (got %d)", c.Rate)
	}
	if c.Period <= 0 {
		return fmt.Errorf("period must be > 0 (got %v)", c.Period)
	}
	if c.RefillInterval() <= 0 {
		return fmt.Errorf("period %v too short for rate %d", c.Period, c.Rate)
	}
	return nil
}

// Limiter is a continuously refilled token bucket. It starts full.
//
// Tokens accrue from elapsed wall-clock time and are clamped at capacity.
// A caller finding less than one token reserves the next one and sleeps for
// exactly the time needed to earn it; reservations are handed out in
// arrival order, so no waiter is overtaken indefinitely.
type Limiter struct {
	bucket *rate.Limiter
	config Config
	logger zerolog.Logger
}

// New creates a limiter from cfg.
func New(cfg Config, logger zerolog.Logger) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Limiter{
		bucket: rate.NewLimiter(rate.Every(cfg.RefillInterval()), cfg.Rate),
		config: cfg,
		logger: logger,
	}, nil
}

// Acquire blocks until one token is available and consumes it. It returns
// an error only when ctx ends first, in which case no token is consumed.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.bucket.Allow() {
		acquisitionsTotal.WithLabelValues("immediate").Inc()
		return nil
	}

	reservation := l.bucket.Reserve()
	delay := reservation.Delay()

	l.logger.Debug().
		Dur("wait", delay).
		Msg("Rate limit bucket empty, waiting for token")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		reservation.Cancel()
		acquisitionsTotal.WithLabelValues("cancelled").Inc()
		return ctx.Err()
	case <-timer.C:
	}

	acquisitionsTotal.WithLabelValues("waited").Inc()
	waitSeconds.Observe(delay.Seconds())
	return nil
}

// Available returns the current fractional token count.
func (l *Limiter) Available() float64 {
	return l.bucket.Tokens()
}

// Config returns the limiter parameters.
func (l *Limiter) Config() Config {
	return l.config
}
