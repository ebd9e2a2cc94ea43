// Command pokedex-proxy serves cached PokeAPI lookups, the starter list and
// player registration over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/pokeapi-client/pkg/cache"
	"github.com/Sternrassler/pokeapi-client/pkg/client"
	"github.com/Sternrassler/pokeapi-client/pkg/logging"
	"github.com/Sternrassler/pokeapi-client/pkg/registration"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// proxyConfig holds the proxy settings. Client settings come from
// client.ConfigFromEnv.
type proxyConfig struct {
	Port           string        `env:"PORT"            envDefault:"8080"`
	CacheBackend   string        `env:"CACHE_BACKEND"   envDefault:"disk"` // disk or redis
	RedisURL       string        `env:"REDIS_URL"       envDefault:"localhost:6379"`
	DatabasePath   string        `env:"DATABASE_PATH"   envDefault:"pokedex.db"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

func loadProxyConfig() (proxyConfig, error) {
	var cfg proxyConfig
	if err := env.Parse(&cfg); err != nil {
		return proxyConfig{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.CacheBackend {
	case "disk", "redis":
	default:
		return proxyConfig{}, fmt.Errorf("unknown cache backend %q (want disk or redis)", cfg.CacheBackend)
	}
	return cfg, nil
}

// buildStore returns the store selected by cfg, or nil for the client's own
// disk store. The returned func releases backend connections.
func buildStore(ctx context.Context, cfg proxyConfig) (cache.Store, func(), error) {
	if cfg.CacheBackend != "redis" {
		return nil, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisURL, err)
	}
	log.Info().Str("addr", cfg.RedisURL).Msg("Connected to Redis")
	return cache.NewRedisStore(redisClient), func() { redisClient.Close() }, nil
}

func main() {
	logCfg, err := logging.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging config: %v\n", err)
		os.Exit(1)
	}
	if logCfg.Service == "" {
		logCfg.Service = "pokedex-proxy"
	}
	logging.Setup(logCfg)

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Proxy failed")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadProxyConfig()
	if err != nil {
		return err
	}
	clientCfg, err := client.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	clientCfg.Store = store

	pokeClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer pokeClient.Close()

	players, err := registration.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open registration store: %w", err)
	}
	defer players.Close()

	srv := newServer(pokeClient, players, func() (*client.Client, error) {
		workerCfg := clientCfg
		// Memory layers are per client, workers only share the backing store.
		workerCfg.MemoryCache = false
		return client.New(workerCfg)
	})
	srv.timeout = cfg.RequestTimeout

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Str("cache_backend", cfg.CacheBackend).
			Str("base_url", clientCfg.BaseURL).
			Msg("Starting pokedex proxy")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
