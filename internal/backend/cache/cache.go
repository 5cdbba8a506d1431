package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// AvatarCache stores rendered avatars keyed by upload content and pipeline
type AvatarCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config selects the cache backend
type Config struct {
	Type     string
	Address  string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// Key derives a cache key from the upload bytes and a pipeline fingerprint
func Key(upload []byte, fingerprint string) string {
	sum := sha256.Sum256(upload)
	return hex.EncodeToString(sum[:]) + ":" + fingerprint
}

// NewCache creates the cache named by cfg.Type
func NewCache(ctx context.Context, cfg Config) (AvatarCache, error) {
	switch cfg.Type {
	case "", "none":
		slog.Info("avatar cache disabled")
		return NoopCache{}, nil
	case "redis":
		redisCache, err := NewRedisCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return redisCache, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// NoopCache never stores anything
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(ctx context.Context, key string, value []byte) error {
	return nil
}

func (NoopCache) Close() error {
	return nil
}
