package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/brawl-client/pkg/client"
	"github.com/Sternrassler/brawl-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Config is the proxy configuration. It is read from an optional YAML file
// and then overridden by environment variables.
type Config struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Log logging.Config `yaml:"log"`

	API struct {
		Tokens         []string      `yaml:"tokens"`
		BaseURL        string        `yaml:"base_url"`
		UserAgent      string        `yaml:"user_agent"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		MaxRetries     int           `yaml:"max_retries"`
		BackoffBase    time.Duration `yaml:"backoff_base"`
	} `yaml:"api"`

	Cache struct {
		TTL        time.Duration `yaml:"ttl"`
		MaxEntries int           `yaml:"max_entries"`
		RedisURL   string        `yaml:"redis_url"`
		Coalesce   bool          `yaml:"coalesce"`
	} `yaml:"cache"`

	RateLimit struct {
		Rate   int           `yaml:"rate"`
		Period time.Duration `yaml:"period"`
	} `yaml:"rate_limit"`
}

// defaultConfig mirrors client.DefaultConfig.
func defaultConfig() Config {
	def := client.DefaultConfig()

	var cfg Config
	cfg.Port = "8080"
	cfg.ShutdownTimeout = 10 * time.Second
	cfg.Log = logging.DefaultConfig()
	cfg.API.BaseURL = def.BaseURL
	cfg.API.UserAgent = "brawl-proxy/0.1.0"
	cfg.API.RequestTimeout = def.RequestTimeout
	cfg.API.MaxRetries = def.MaxRetries
	cfg.API.BackoffBase = def.BackoffBase
	cfg.Cache.TTL = def.CacheTTL
	cfg.RateLimit.Rate = def.RateLimit
	cfg.RateLimit.Period = def.RatePeriod
	return cfg
}

// loadConfig builds the configuration from defaults, the YAML file at path
// (skipped when empty) and the environment.
func loadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}

		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}

	if len(cfg.API.Tokens) == 0 {
		return cfg, fmt.Errorf("no API tokens configured (set BRAWL_TOKENS or api.tokens)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("BRAWL_TOKENS"); v != "" {
		cfg.API.Tokens = splitList(v)
	}
	if v := getenv("BRAWL_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := getenv("USER_AGENT"); v != "" {
		cfg.API.UserAgent = v
	}
	if v := getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = logging.LogLevel(v)
	}
	if v := getenv("BRAWL_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BRAWL_RATE_LIMIT: %w", err)
		}
		cfg.RateLimit.Rate = n
	}
	if v := getenv("BRAWL_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BRAWL_CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = d
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// clientConfig converts cfg into a client configuration.
func (cfg Config) clientConfig() client.Config {
	cc := client.DefaultConfig(cfg.API.Tokens...)
	cc.BaseURL = cfg.API.BaseURL
	cc.UserAgent = cfg.API.UserAgent
	cc.RequestTimeout = cfg.API.RequestTimeout
	cc.MaxRetries = cfg.API.MaxRetries
	cc.BackoffBase = cfg.API.BackoffBase
	cc.CacheTTL = cfg.Cache.TTL
	cc.CacheMaxEntries = cfg.Cache.MaxEntries
	cc.CoalesceRequests = cfg.Cache.Coalesce
	cc.RateLimit = cfg.RateLimit.Rate
	cc.RatePeriod = cfg.RateLimit.Period
	return cc
}

// redisOptions accepts either a redis:// URL or a plain host:port.
func redisOptions(raw string) (*redis.Options, error) {
	if strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: raw}, nil
}
