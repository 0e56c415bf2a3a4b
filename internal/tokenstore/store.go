// Package tokenstore holds the single auth token slot of a storefront process.
//
// Two kinds of Store exist: durable ones (file, redis) that survive restarts and
// the ephemeral MemoryStore used when nothing durable is available, such as in the
// pre-render tool. Open picks one once at startup.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"pulsecart/internal/config"
)

type Store interface {
	// Get returns the stored token, "" when the slot is empty.
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Kind names the strategy a Store implements.
type Kind string

const (
	KindRedis  Kind = "redis"
	KindFile   Kind = "file"
	KindMemory Kind = "memory"
)

// Open selects the durable store the environment supports, falling back to memory.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, Kind) {
	if cfg.Redis.Addr != "" {
		store, err := NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err == nil {
			log.Debug().Str("addr", cfg.Redis.Addr).Msg("token store: redis")
			return store, KindRedis
		}
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis token store unavailable")
	}

	dir, err := tokenDir(cfg.Home)
	if err == nil {
		if err = probeWritable(dir); err == nil {
			log.Debug().Str("dir", dir).Msg("token store: file")
			return NewFileStore(filepath.Join(dir, tokenFileName)), KindFile
		}
	}
	log.Warn().Err(err).Msg("no durable token storage, token will not survive restart")

	return NewMemoryStore(), KindMemory
}

func tokenDir(home string) (string, error) {
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
	}
	return filepath.Join(home, ".pulsecart"), nil
}

func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// ExpiresAt reads the exp claim of a JWT without verifying it.
// ok is false for opaque tokens and tokens without exp.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether token carries an exp claim in the past.
func Expired(token string, now time.Time) bool {
	exp, ok := ExpiresAt(token)
	return ok && !now.Before(exp)
}

var errEmptyToken = errors.New("empty token")
