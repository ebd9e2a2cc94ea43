// Package client provides the caching PokeAPI client.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/pokeapi-client/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_requests_total",
		Help: "Total PokeAPI network requests by resource kind and status",
	}, []string{"kind", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokeapi_request_duration_seconds",
		Help:    "PokeAPI network request duration in seconds by resource kind",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"kind"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_errors_total",
		Help: "Total failed fetches by error class",
	}, []string{"class"})

	freshHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokeapi_cache_fresh_hits_total",
		Help: "Total fetches answered from a fresh cache record without network I/O",
	})

	revalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_cache_revalidations_total",
		Help: "Total conditional requests by outcome",
	}, []string{"result"}) // "not_modified", "modified"

	storeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_cache_store_failures_total",
		Help: "Total cache store errors ignored by the client",
	}, []string{"operation"})
)

// Client fetches PokeAPI resources through a persistent HTTP cache.
//
// A Client is not safe for concurrent use. Serialize access to a shared
// Client or give every goroutine its own; independent clients may share the
// same cache directory.
type Client struct {
	httpClient *http.Client
	store      cache.Store
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
	now        func() time.Time
	closers    []func()
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" || baseURL.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.Timeout <= 0 {
			return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
		}
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		config:     cfg,
		logger:     log.With().Str("component", "pokeapi-client").Logger(),
		now:        time.Now,
	}

	store := cfg.Store
	if store == nil {
		disk, err := cache.NewDiskStore(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("cache store: %w", err)
		}
		c.logger.Debug().Str("dir", disk.Root()).Msg("Using disk cache")
		store = disk
	}
	if cfg.MemoryCache {
		mem, err := cache.NewMemoryStore(cfg.Memory)
		if err != nil {
			return nil, fmt.Errorf("memory cache: %w", err)
		}
		c.closers = append(c.closers, mem.Close)
		store = cache.NewLayeredStore(mem, store)
	}
	c.store = store

	return c, nil
}

// BaseURL returns a copy of the catalog root.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Store returns the cache store (for testing).
func (c *Client) Store() cache.Store {
	return c.store
}

// Close releases resources held by the client. The underlying store stays
// usable by other clients.
func (c *Client) Close() error {
	for _, closeFn := range c.closers {
		closeFn()
	}
	c.closers = nil
	return nil
}

// fetch returns the body for u, consulting the cache first. Cache read
// failures degrade to a miss and cache write failures are only logged.
func (c *Client) fetch(ctx context.Context, u *url.URL, kind string) ([]byte, error) {
	key := cache.NewKey(u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &APIError{Class: ErrorClassNetwork, URL: u.String(), Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	record, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			storeFailuresTotal.WithLabelValues("get").Inc()
			c.logger.Warn().Err(err).Str("url", u.String()).Msg("Cache read failed, fetching from network")
		}
		record = nil
	}

	if record == nil {
		c.logger.Debug().Str("url", u.String()).Msg("Cache miss")
		return c.fetchFromNetwork(ctx, key, req, nil, kind)
	}

	if record.Policy.SatisfiedWithoutRevalidation(req, c.now()) {
		freshHitsTotal.Inc()
		c.logger.Debug().
			Str("url", u.String()).
			Dur("ttl", record.Policy.TimeToLive(c.now())).
			Msg("Serving fresh cache record")
		return record.Body, nil
	}

	c.logger.Debug().
		Str("url", u.String()).
		Bool("stale", record.Policy.IsStale(c.now())).
		Msg("Revalidating cache record")
	return c.fetchFromNetwork(ctx, key, req, record, kind)
}

// fetchFromNetwork sends req, conditionally when a stale record is given,
// and stores the outcome when its policy allows it.
func (c *Client) fetchFromNetwork(ctx context.Context, key cache.Key, req *http.Request, stale *cache.Record, kind string) ([]byte, error) {
	sent := req
	if stale != nil {
		sent = req.Clone(ctx)
		sent.Header = stale.Policy.RevalidationHeaders(req)
	}

	requestTime := c.now()
	resp, body, err := c.do(sent, kind)
	if err != nil {
		return nil, err
	}
	responseTime := c.now()

	var policy *cache.Policy
	switch {
	case stale != nil:
		updated, modified := stale.Policy.Revalidate(req, resp, responseTime)
		policy = updated
		if modified {
			revalidationsTotal.WithLabelValues("modified").Inc()
		} else {
			revalidationsTotal.WithLabelValues("not_modified").Inc()
			body = stale.Body
			c.logger.Debug().Str("url", req.URL.String()).Msg("Cache record not modified")
		}
		if modified && !isSuccess(resp.StatusCode) {
			return nil, c.statusError(req, resp.StatusCode)
		}
	default:
		if !isSuccess(resp.StatusCode) {
			return nil, c.statusError(req, resp.StatusCode)
		}
		policy = cache.NewPolicy(req, resp, responseTime, cache.PrivatePolicyOptions())
	}
	policy.RequestTime = requestTime

	if policy.Storable() {
		if err := c.store.Put(ctx, key, &cache.Record{Policy: policy, Body: body}); err != nil {
			storeFailuresTotal.WithLabelValues("put").Inc()
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to store cache record")
		}
	} else {
		c.logger.Debug().Str("url", req.URL.String()).Msg("Response is not storable")
	}

	return body, nil
}

// do executes req and reads the whole body.
func (c *Client) do(req *http.Request, kind string) (*http.Response, []byte, error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(kind, "network_error").Inc()
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		c.logger.Error().Err(err).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, nil, &APIError{Class: ErrorClassNetwork, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(kind, "network_error").Inc()
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, nil, &APIError{Class: ErrorClassNetwork, StatusCode: resp.StatusCode, URL: req.URL.String(), Err: fmt.Errorf("read body: %w", err)}
	}

	requestsTotal.WithLabelValues(kind, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, body, nil
}

func (c *Client) statusError(req *http.Request, status int) error {
	class := classifyStatus(status)
	errorsTotal.WithLabelValues(string(class)).Inc()
	c.logger.Warn().
		Str("url", req.URL.String()).
		Int("status", status).
		Str("error_class", string(class)).
		Msg("PokeAPI request error")
	return &APIError{Class: class, StatusCode: status, URL: req.URL.String()}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
