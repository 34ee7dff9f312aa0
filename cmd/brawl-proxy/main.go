package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/brawl-client/pkg/client"
	"github.com/Sternrassler/brawl-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("brawl-proxy failed")
	}
}

func run() error {
	cfg, err := loadConfig(getEnv("BRAWL_CONFIG", ""), os.Getenv)
	if err != nil {
		return err
	}

	logging.Setup(cfg.Log)
	logger := logging.NewLogger("brawl-proxy")

	clientCfg := cfg.clientConfig()

	if cfg.Cache.RedisURL != "" {
		opts, err := redisOptions(cfg.Cache.RedisURL)
		if err != nil {
			return err
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return err
		}
		logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
		clientCfg.Redis = redisClient
	}

	brawlClient, err := client.New(clientCfg)
	if err != nil {
		return err
	}
	defer brawlClient.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(brawlClient, cfg.API.RequestTimeout*time.Duration(cfg.API.MaxRetries+1)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Int("tokens", len(clientCfg.Tokens)).
			Str("base_url", clientCfg.BaseURL).
			Bool("redis", clientCfg.Redis != nil).
			Msg("Starting brawl proxy server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
