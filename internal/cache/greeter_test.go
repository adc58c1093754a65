package cache

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/Aidin1998/greeter/common/errors"
	"github.com/Aidin1998/greeter/internal/config"
)

func newTestGreeter(t *testing.T, s *miniredis.Miniredis) *Greeter {
	t.Helper()
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)

	return NewGreeter(config.RedisConfig{
		Host:    s.Host(),
		Port:    port,
		Key:     "message",
		Timeout: time.Second,
	}, zap.NewNop())
}

func TestGreet_StoresAndReturnsGreeting(t *testing.T) {
	s := miniredis.RunT(t)
	g := newTestGreeter(t, s)

	msg, err := g.Greet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Greeting, msg)

	stored, err := s.Get("message")
	require.NoError(t, err)
	assert.Equal(t, Greeting, stored)
	assert.Zero(t, s.TTL("message"), "greeting must not expire")
}

func TestGreet_OverwritesExistingValue(t *testing.T) {
	s := miniredis.RunT(t)
	require.NoError(t, s.Set("message", "stale"))
	g := newTestGreeter(t, s)

	msg, err := g.Greet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Greeting, msg)
}

func TestGreet_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	g := newTestGreeter(t, s)
	s.Close()

	_, err := g.Greet(context.Background())
	require.Error(t, err)

	depErr, ok := apperrors.AsDependencyError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.DependencyRedis, depErr.Dependency)
	assert.Contains(t, err.Error(), "Redis Error")
}

func TestGreet_ServerError(t *testing.T) {
	s := miniredis.RunT(t)
	g := newTestGreeter(t, s)
	s.SetError("ERR injected failure")

	_, err := g.Greet(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis Error: set message")
	assert.Contains(t, err.Error(), "injected failure")
}

func TestGreet_CancelledContext(t *testing.T) {
	s := miniredis.RunT(t)
	g := newTestGreeter(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Greet(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// evictAfterSet removes key from the server as soon as a SET completes
type evictAfterSet struct {
	s   *miniredis.Miniredis
	key string
}

func (h evictAfterSet) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h evictAfterSet) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err == nil && cmd.Name() == "set" {
			h.s.Del(h.key)
		}
		return err
	}
}

func (h evictAfterSet) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRoundTrip_KeyMissingAfterSet(t *testing.T) {
	s := miniredis.RunT(t)
	g := newTestGreeter(t, s)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()
	client.AddHook(evictAfterSet{s: s, key: "message"})

	_, err := g.roundTrip(context.Background(), client)
	require.Error(t, err)
	assert.EqualError(t, err, `Redis Error: get message: key "message" not found`)

	depErr, ok := apperrors.AsDependencyError(err)
	require.True(t, ok)
	assert.Equal(t, "get message", depErr.Op)
}
