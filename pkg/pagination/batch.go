package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel fetches. The client's
	// rate limiter still bounds the request rate.
	MaxConcurrency int

	// Timeout bounds each key's fetch.
	Timeout time.Duration
}

// DefaultConfig returns 10 workers with a 15 second per-key timeout.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = def.MaxConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}

// FetchFunc fetches the value for one key.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// FetchAll fetches every key with at most cfg.MaxConcurrency fetches in
// flight. Duplicate keys are fetched once.
//
// It returns the values of all successful keys. Failed keys are absent from
// the map and reported together in the joined error, so callers receive
// partial results alongside the error.
func FetchAll[K comparable, V any](ctx context.Context, cfg Config, keys []K, fn FetchFunc[K, V]) (map[K]V, error) {
	cfg = cfg.withDefaults()
	start := time.Now()

	results := make(map[K]V, len(keys))
	if len(keys) == 0 {
		return results, nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	g := new(errgroup.Group)
	g.SetLimit(cfg.MaxConcurrency)

	seen := make(map[K]struct{}, len(keys))
	for _, key := range keys {
		key := key // per-iteration copy for the goroutine (go 1.21 loop semantics)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if ctx.Err() != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("%v: %w", key, ctx.Err()))
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			keyCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()

			value, err := fn(keyCtx, key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().
					Err(err).
					Str("key", fmt.Sprint(key)).
					Msg("Batch fetch failed")
				errs = append(errs, fmt.Errorf("%v: %w", key, err))
				return nil
			}
			results[key] = value
			return nil
		})
	}

	// Workers never return errors; failures are collected in errs.
	_ = g.Wait()

	log.Debug().
		Int("keys", len(seen)).
		Int("fetched", len(results)).
		Int("failed", len(errs)).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	if len(errs) > 0 {
		return results, fmt.Errorf("batch fetch (partial data: %d/%d): %w",
			len(results), len(seen), errors.Join(errs...))
	}
	return results, nil
}
