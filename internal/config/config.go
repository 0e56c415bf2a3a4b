package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const DefaultAPIBaseURL = "http://localhost:8000"

type Config struct {
	APIBaseURL string `env:"PULSECART_API_BASE_URL"`
	Origin     string `env:"PULSECART_ORIGIN"`
	SiteURL    string `env:"PULSECART_SITE_URL,    default=http://localhost:3000"`
	DevAPIURL  string `env:"PULSECART_DEV_API_URL, default=http://localhost:8000"`
	DevAddr    string `env:"PULSECART_DEV_ADDR,    default=:3000"`
	DistDir    string `env:"PULSECART_DIST_DIR,    default=dist"`
	Home       string `env:"PULSECART_HOME"`

	HTTPTimeout time.Duration `env:"PULSECART_HTTP_TIMEOUT, default=0s"`

	Query QueryConfig
	Redis RedisConfig
	Log   LogConfig
}

type QueryConfig struct {
	Retries    int           `env:"PULSECART_QUERY_RETRIES,     default=3"`
	RetryDelay time.Duration `env:"PULSECART_QUERY_RETRY_DELAY, default=1s"`
}

type RedisConfig struct {
	Addr string `env:"PULSECART_REDIS_ADDR"`
	DB   int    `env:"PULSECART_REDIS_DB, default=0"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL,  default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=false"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads the configuration through the given lookuper; tests pass a map.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

var (
	baseURLOnce sync.Once
	baseURL     string
)

// ResolveAPIBaseURL picks the API base URL once for the process lifetime:
// the explicit override, then the app's own origin, then the local default.
func ResolveAPIBaseURL(cfg *Config) string {
	baseURLOnce.Do(func() {
		baseURL = cfg.resolveAPIBaseURL()
	})
	return baseURL
}

func (c *Config) resolveAPIBaseURL() string {
	if raw := strings.TrimSpace(c.APIBaseURL); raw != "" {
		return strings.TrimRight(raw, "/")
	}
	if origin := strings.TrimSpace(c.Origin); origin != "" {
		return strings.TrimRight(origin, "/")
	}
	return DefaultAPIBaseURL
}
