// Package client provides the resilient Brawl Stars API client: an
// in-memory TTL cache, an outbound token bucket, credential rotation and
// exponential backoff wrapped around plain GET requests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/brawl-client/pkg/cache"
	"github.com/Sternrassler/brawl-client/pkg/logging"
	"github.com/Sternrassler/brawl-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the public Brawl Stars API.
const DefaultBaseURL = "https://api.brawlstars.com/v1"

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brawl_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brawl_request_duration_seconds",
		Help:    "Logical request duration in seconds by endpoint, including retries",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brawl_errors_total",
		Help: "Total failed attempts by error class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// Tokens is the credential pool. At least one token is required.
	Tokens []string

	// BaseURL is the API root without a trailing slash.
	BaseURL string

	// UserAgent is sent on every request when set.
	UserAgent string

	// RequestTimeout bounds a single attempt.
	RequestTimeout time.Duration

	// Caching
	CacheTTL        time.Duration // default entry lifetime
	CacheMaxEntries int           // 0 means unbounded

	// Retry
	MaxRetries  int           // attempts per logical request, including the first
	BackoffBase time.Duration // wait after the first throttled attempt
	MaxBackoff  time.Duration // 0 means no cap

	// Rate limiting
	RateLimit  int           // requests per RatePeriod, also the burst size
	RatePeriod time.Duration // refill window

	// HTTPClient is an externally owned transport. When nil the client
	// creates and owns its own.
	HTTPClient Doer

	// Redis enables the shared cache tier when set.
	Redis *redis.Client

	// CoalesceRequests lets concurrent identical cache misses share one
	// upstream call.
	CoalesceRequests bool

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration with the given tokens and default
// limits: 10s timeout, 60s cache TTL, 3 attempts, 20 requests per second.
func DefaultConfig(tokens ...string) Config {
	return Config{
		Tokens:         tokens,
		BaseURL:        DefaultBaseURL,
		RequestTimeout: 10 * time.Second,
		CacheTTL:       cache.DefaultTTL,
		MaxRetries:     3,
		BackoffBase:    time.Second,
		RateLimit:      20,
		RatePeriod:     time.Second,
	}
}

// Client is the resilient API client. It is safe for concurrent use.
type Client struct {
	tokens  []string
	baseURL string
	config  Config
	retry   RetryConfig

	memory  *cache.TTLCache[[]byte]
	shared  *cache.RedisStore
	limiter *ratelimit.Limiter
	session *session
	group   singleflight.Group

	closed atomic.Bool
	logger zerolog.Logger

	// wait is the backoff sleep, replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	tokens := make([]string, 0, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("at least one API token is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request_timeout must be > 0 (got %v)", cfg.RequestTimeout)
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("max_retries must be >= 1 (got %d)", cfg.MaxRetries)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if cfg.BackoffBase < 0 {
		return nil, fmt.Errorf("backoff_base must be >= 0 (got %v)", cfg.BackoffBase)
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = logging.NewLogger("brawl-client")
	}

	limiter, err := ratelimit.New(ratelimit.Config{
		Rate:   cfg.RateLimit,
		Period: cfg.RatePeriod,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	c := &Client{
		tokens:  tokens,
		baseURL: baseURL,
		config:  cfg,
		retry: RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BackoffBase: cfg.BackoffBase,
			MaxBackoff:  cfg.MaxBackoff,
		},
		memory:  cache.NewTTLCache[[]byte](cfg.CacheTTL, cfg.CacheMaxEntries),
		limiter: limiter,
		session: newSession(cfg.HTTPClient, cfg.RequestTimeout),
		logger:  logger,
		wait:    sleep,
	}
	if cfg.Redis != nil {
		c.shared = cache.NewRedisStore(cfg.Redis)
	}

	return c, nil
}

// Execute performs a logical request and returns the raw JSON body.
//
// A live cache entry is returned without touching the limiter or the
// network. Otherwise one limiter token is acquired and up to MaxRetries
// attempts are made: access denied rotates to the next credential at once,
// rate limited waits BackoffBase*2^attempt first, anything else fails
// immediately. Exhaustion returns the last attempt's error.
func (c *Client) Execute(ctx context.Context, r Request) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	method := r.method()
	if method != http.MethodGet {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	endpoint := r.endpoint()
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	rawURL := c.baseURL + r.Path
	query := r.Query.Values()
	key := cache.CacheKey{Method: method, URL: rawURL, QueryParams: query}.String()

	ttl := r.TTL
	if ttl <= 0 {
		ttl = c.config.CacheTTL
	}

	rc := &call{
		endpoint: endpoint,
		url:      rawURL,
		query:    query,
		key:      key,
		ttl:      ttl,
		useCache: !r.NoCache,
	}

	if rc.useCache {
		if data, ok := c.lookup(ctx, key); ok {
			requestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			return data, nil
		}
	}

	if !c.config.CoalesceRequests || !rc.useCache {
		return c.fetch(ctx, rc)
	}

	// The shared fetch outlives any single caller; each caller only gives
	// up its own wait.
	ch := c.group.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout())
		defer cancel()
		return c.fetch(flightCtx, rc)
	})

	select {
	case <-ctx.Done():
		return nil, networkError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		data := res.Val.(json.RawMessage)
		if res.Shared {
			c.logger.Debug().Str("endpoint", endpoint).Msg("Shared in-flight response")
			data = bytes.Clone(data)
		}
		return data, nil
	}
}

// flightTimeout bounds a coalesced fetch: every attempt at its full timeout
// plus every backoff wait between them.
func (c *Client) flightTimeout() time.Duration {
	limit := c.config.RequestTimeout * time.Duration(c.retry.MaxAttempts)
	for attempt := 0; attempt < c.retry.MaxAttempts-1; attempt++ {
		limit += c.retry.Backoff(attempt)
	}
	return limit
}

// Get is Execute for a GET of path with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query Params) (json.RawMessage, error) {
	return c.Execute(ctx, Request{Path: path, Query: query})
}

// Fetch executes r and decodes the body into T.
func Fetch[T any](ctx context.Context, c *Client, r Request) (T, error) {
	var result T

	data, err := c.Execute(ctx, r)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, &APIError{
			StatusCode: http.StatusOK,
			Class:      ErrorClassDecode,
			Reason:     "Decode Error",
			Message:    fmt.Sprintf("decode %s into %T", r.endpoint(), result),
			Err:        err,
		}
	}
	return result, nil
}

// Close marks the client closed and releases the transport if the client
// created it. It is safe to call more than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.session.close()
	c.logger.Debug().Bool("owned_transport", c.session.owned).Msg("Client closed")
	return nil
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Cache returns the in-memory cache tier.
func (c *Client) Cache() *cache.TTLCache[[]byte] {
	return c.memory
}

// Limiter returns the outbound rate limiter.
func (c *Client) Limiter() *ratelimit.Limiter {
	return c.limiter
}

// Ping checks the shared cache tier. It is a no-op without Redis.
func (c *Client) Ping(ctx context.Context) error {
	if c.shared == nil {
		return nil
	}
	return c.shared.Ping(ctx)
}

// call is the resolved form of a Request.
type call struct {
	endpoint string
	url      string
	query    url.Values
	key      string
	ttl      time.Duration
	useCache bool
}

// fetch runs the limiter and the attempt loop for a cache miss.
func (c *Client) fetch(ctx context.Context, rc *call) (json.RawMessage, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, networkError(err)
	}

	var lastErr *APIError
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		tokenIndex := attempt % len(c.tokens)

		c.logger.Debug().
			Str("endpoint", rc.endpoint).
			Int("attempt", attempt).
			Int("token_index", tokenIndex).
			Msg("Executing request")

		data, apiErr := c.attempt(ctx, rc, c.tokens[tokenIndex])
		if apiErr == nil {
			requestsTotal.WithLabelValues(rc.endpoint, "ok").Inc()
			if attempt > 0 {
				c.logger.Info().
					Str("endpoint", rc.endpoint).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			if rc.useCache {
				c.store(ctx, rc, data)
			}
			return data, nil
		}

		lastErr = apiErr
		errorsTotal.WithLabelValues(string(apiErr.Class)).Inc()
		requestsTotal.WithLabelValues(rc.endpoint, statusLabel(apiErr)).Inc()

		last := attempt+1 >= c.retry.MaxAttempts
		switch retryActionFor(apiErr.Class) {
		case actionRotate:
			if last {
				continue
			}
			credentialRotationsTotal.Inc()
			retriesTotal.WithLabelValues(string(apiErr.Class)).Inc()
			c.logger.Warn().
				Str("endpoint", rc.endpoint).
				Int("token_index", tokenIndex).
				Int("attempt", attempt).
				Msg("Token rejected (403), rotating to next token")

		case actionBackoff:
			if last {
				continue
			}
			backoff := c.retry.Backoff(attempt)
			retriesTotal.WithLabelValues(string(apiErr.Class)).Inc()
			retryBackoffSeconds.Observe(backoff.Seconds())
			c.logger.Warn().
				Str("endpoint", rc.endpoint).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Rate limited (429), backing off")

			if err := c.wait(ctx, backoff); err != nil {
				return nil, networkError(err)
			}

		default:
			c.logger.Debug().
				Str("endpoint", rc.endpoint).
				Int("status", apiErr.StatusCode).
				Str("error_class", string(apiErr.Class)).
				Msg("Request failed")
			return nil, apiErr
		}
	}

	if lastErr == nil {
		return nil, &APIError{
			StatusCode: http.StatusInternalServerError,
			Class:      ErrorClassInternal,
			Reason:     "Unknown Error",
			Message:    "Request failed after all retries.",
			Err:        ErrNoAttempts,
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastErr.Class)).Inc()
	c.logger.Error().
		Str("endpoint", rc.endpoint).
		Str("error_class", string(lastErr.Class)).
		Int("max_attempts", c.retry.MaxAttempts).
		Msg("Retry attempts exhausted")

	return nil, lastErr
}

// attempt performs one HTTP round trip with token and classifies the result.
func (c *Client) attempt(ctx context.Context, rc *call, token string) (json.RawMessage, *APIError) {
	doer := c.session.get()
	if doer == nil {
		return nil, networkError(ErrClientClosed)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rc.url, nil)
	if err != nil {
		return nil, &APIError{
			Class:   ErrorClassBadRequest,
			Reason:  "Invalid URL",
			Message: err.Error(),
			Err:     err,
		}
	}
	if len(rc.query) > 0 {
		req.URL.RawQuery = rc.query.Encode()
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := doer.Do(req)
	if err != nil {
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(fmt.Errorf("read body: %w", err))
	}

	c.logger.Debug().
		Str("endpoint", rc.endpoint).
		Int("status", resp.StatusCode).
		Msg("Response received")

	if apiErr := classifyResponse(resp, body); apiErr != nil {
		return nil, apiErr
	}

	if !json.Valid(body) {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassDecode,
			Reason:     "Invalid JSON",
			Message:    "response body is not valid JSON",
			Err:        ErrDecode,
		}
	}

	return json.RawMessage(body), nil
}

// lookup checks memory, then the shared tier. A shared hit back-fills
// memory with the entry's remaining lifetime.
func (c *Client) lookup(ctx context.Context, key string) (json.RawMessage, bool) {
	if data, ok := c.memory.Lookup(key); ok {
		c.logger.Debug().Str("key", key).Msg("Cache hit")
		return bytes.Clone(data), true
	}

	if c.shared == nil {
		return nil, false
	}

	entry, err := c.shared.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Shared cache get failed")
		}
		return nil, false
	}

	remaining := entry.TTL()
	if remaining <= 0 {
		return nil, false
	}
	c.memory.Store(key, entry.Data, remaining)
	c.logger.Debug().Str("key", key).Dur("ttl", remaining).Msg("Shared cache hit")
	return bytes.Clone(entry.Data), true
}

// store writes a successful body to every configured tier.
func (c *Client) store(ctx context.Context, rc *call, data json.RawMessage) {
	stored := bytes.Clone(data)
	c.memory.Store(rc.key, stored, rc.ttl)

	if c.shared != nil {
		if err := c.shared.Set(ctx, rc.key, stored, rc.ttl); err != nil {
			c.logger.Warn().Err(err).Str("key", rc.key).Msg("Shared cache set failed")
		}
	}

	c.logger.Debug().
		Str("endpoint", rc.endpoint).
		Dur("ttl", rc.ttl).
		Msg("Cached response")
}

func statusLabel(err *APIError) string {
	if err.StatusCode == 0 {
		return string(err.Class)
	}
	return strconv.Itoa(err.StatusCode)
}
