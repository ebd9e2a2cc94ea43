package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/pokeapi-client/pkg/cache"
	"github.com/Sternrassler/pokeapi-client/pkg/resource"
	"github.com/caarlos0/env/v11"
)

// DefaultUserAgent identifies the client to the API.
const DefaultUserAgent = "pokeapi-client/1.0 (+https://github.com/Sternrassler/pokeapi-client)"

// Config holds the client configuration.
type Config struct {
	// BaseURL is the catalog root, e.g. https://pokeapi.co/api/v2/
	BaseURL string

	UserAgent string

	// Caching
	CacheDir    string      // Disk store root, used when Store is nil
	Store       cache.Store // Overrides the disk store
	MemoryCache bool        // Put a bounded memory layer in front of the store
	Memory      cache.MemoryConfig

	// Transport
	Timeout    time.Duration
	HTTPClient *http.Client // Optional, Timeout is ignored when set
}

// DefaultConfig returns a configuration for the public PokeAPI with a disk
// cache in the working directory.
func DefaultConfig() Config {
	return Config{
		BaseURL:   resource.DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		CacheDir:  cache.DefaultDir,
		Memory:    cache.DefaultMemoryConfig(),
		Timeout:   30 * time.Second,
	}
}

// clientEnv holds raw env values for the client configuration.
type clientEnv struct {
	BaseURL          string        `env:"POKEAPI_BASE_URL"           envDefault:"https://pokeapi.co/api/v2/"`
	UserAgent        string        `env:"POKEAPI_USER_AGENT"`
	CacheDir         string        `env:"POKEAPI_CACHE_DIR"          envDefault:".pokecache"`
	MemoryCache      bool          `env:"POKEAPI_MEMORY_CACHE"       envDefault:"false"`
	MemoryCacheBytes int64         `env:"POKEAPI_MEMORY_CACHE_BYTES" envDefault:"67108864"`
	Timeout          time.Duration `env:"POKEAPI_TIMEOUT"            envDefault:"30s"`
}

// ConfigFromEnv builds a Config from POKEAPI_* environment variables on top
// of DefaultConfig.
func ConfigFromEnv() (Config, error) {
	var raw clientEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := DefaultConfig()
	cfg.BaseURL = raw.BaseURL
	if raw.UserAgent != "" {
		cfg.UserAgent = raw.UserAgent
	}
	cfg.CacheDir = raw.CacheDir
	cfg.MemoryCache = raw.MemoryCache
	cfg.Memory.MaxBytes = raw.MemoryCacheBytes
	cfg.Timeout = raw.Timeout
	return cfg, nil
}
