package app

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aidin1998/greeter/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.Mode = "test"
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Log.Level = "error"
	return cfg
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, testConfig(t), Options{Name: "greeter-visits", WithVisits: true})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	err = Run(context.Background(), cfg, Options{Name: "greeter"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server failed")
}

func TestRun_BadLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "loud"

	err := Run(context.Background(), cfg, Options{Name: "greeter"})
	assert.ErrorContains(t, err, "failed to create logger")
}
