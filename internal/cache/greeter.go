// Package cache performs the page's cache round-trip: write the greeting
// under a fixed key and read it straight back.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	apperrors "github.com/Aidin1998/greeter/common/errors"
	"github.com/Aidin1998/greeter/internal/config"
)

// Greeting is the value written to the cache on every request
const Greeting = "Hello from Flask via Redis!"

// Greeter writes and reads the greeting. Every call dials its own
// connection and closes it before returning.
type Greeter struct {
	cfg    config.RedisConfig
	logger *zap.Logger
}

// NewGreeter creates a greeter for the cache described by cfg
func NewGreeter(cfg config.RedisConfig, logger *zap.Logger) *Greeter {
	return &Greeter{cfg: cfg, logger: logger}
}

func (g *Greeter) options() *redis.Options {
	return &redis.Options{
		Addr:         g.cfg.Addr(),
		Password:     g.cfg.Password,
		DB:           g.cfg.DB,
		PoolSize:     1,
		MaxRetries:   -1,
		DialTimeout:  g.cfg.Timeout,
		ReadTimeout:  g.cfg.Timeout,
		WriteTimeout: g.cfg.Timeout,
	}
}

// Greet stores Greeting under the configured key and returns what the
// cache hands back for that key.
func (g *Greeter) Greet(ctx context.Context) (string, error) {
	ctx, span := otel.Tracer("greeter/cache").Start(ctx, "cache.Greet")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("net.peer.name", g.cfg.Addr()),
		attribute.String("cache.key", g.cfg.Key),
	)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	client := redis.NewClient(g.options())
	defer func() {
		if err := client.Close(); err != nil {
			g.logger.Debug("failed to close redis connection", zap.Error(err))
		}
	}()

	msg, err := g.roundTrip(ctx, client)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return msg, nil
}

func (g *Greeter) roundTrip(ctx context.Context, client *redis.Client) (string, error) {
	key := g.cfg.Key

	if err := client.Set(ctx, key, Greeting, 0).Err(); err != nil {
		return "", apperrors.NewDependencyError(apperrors.DependencyRedis, "set "+key, err)
	}

	msg, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.NewDependencyError(apperrors.DependencyRedis, "get "+key, fmt.Errorf("key %q not found", key))
	}
	if err != nil {
		return "", apperrors.NewDependencyError(apperrors.DependencyRedis, "get "+key, err)
	}

	return msg, nil
}
