package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/volcano-map/internal/config"
	"github.com/couchcryptid/volcano-map/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeAddr reserves a loopback port and releases it for the server to bind.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func serveConfig(t *testing.T, addr string) *config.Config {
	t.Helper()
	output := filepath.Join(t.TempDir(), "map.html")
	require.NoError(t, os.WriteFile(output, []byte("<!DOCTYPE html><html>volcanoes</html>"), 0o600))
	return &config.Config{
		OutputPath:      output,
		ServeAddr:       addr,
		ShutdownTimeout: 5 * time.Second,
	}
}

func TestServe_PublishesAndShutsDownOnCancel(t *testing.T) {
	addr := freeAddr(t)
	cfg := serveConfig(t, addr)
	metrics := observability.NewMetricsForTesting()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, metrics, logger) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		body = string(data)
		return true
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, "<!DOCTYPE html><html>volcanoes</html>", body)
	// The counter moves after the body is written.
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.DocumentsServed) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	assert.Contains(t, logs.String(), `msg="shutting down"`)
	assert.Contains(t, logs.String(), `msg="shutdown complete"`)

	_, err := http.Get("http://" + addr + "/")
	assert.Error(t, err)
}

func TestServe_MissingSavedMap(t *testing.T) {
	cfg := serveConfig(t, freeAddr(t))
	cfg.OutputPath = filepath.Join(t.TempDir(), "missing.html")

	err := serve(context.Background(), cfg, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read saved map")
}

func TestServe_AddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := serveConfig(t, ln.Addr().String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = serve(ctx, cfg, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http server")
}
