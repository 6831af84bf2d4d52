package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainmapper.org/internal/logging"
	"trainmapper.org/internal/metrics"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(nil, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Registry.Driver)
	assert.Equal(t, 7, cfg.Resolver.FuzzyThreshold)
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Setenv("TRAINMAPPER_PORT", "5000")
	t.Setenv("TRAINMAPPER_REGISTRY_DRIVER", "memory")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 6000\nresolver:\n  fuzzyThreshold: 3\n"), 0o600))

	cfg, err := loadConfig([]string{"-config", path, "-fuzzy-threshold", "2"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Port, "file overrides environment")
	assert.Equal(t, "memory", cfg.Registry.Driver, "environment kept when the file is silent")
	assert.Equal(t, 2, cfg.Resolver.FuzzyThreshold, "explicit flags win")
}

func TestLoadConfigTrustedProxies(t *testing.T) {
	t.Setenv("TRAINMAPPER_TRUSTED_PROXIES", "10.0.0.1")

	cfg, err := loadConfig(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.TrustedProxies)

	cfg, err = loadConfig([]string{"-trusted-proxies", "192.0.2.1, 10.0.0.0/8"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.1", "10.0.0.0/8"}, cfg.TrustedProxies)

	_, err = loadConfig([]string{"-trusted-proxies", "proxy.internal"}, io.Discard)
	assert.Error(t, err)
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := loadConfig([]string{"-port", "0"}, io.Discard)
	assert.Error(t, err)

	_, err = loadConfig([]string{"-registry", "mongo"}, io.Discard)
	assert.Error(t, err)

	_, err = loadConfig([]string{"-unknown"}, io.Discard)
	assert.Error(t, err)
}

func TestBuildApplication(t *testing.T) {
	cfg, err := loadConfig([]string{
		"-env", "test",
		"-stops", "../../testdata/stops.txt",
		"-stop-times", "../../testdata/stop_times.txt",
		"-registry", "sqlite",
		"-registry-dsn", ":memory:",
		"-cache-ttl", "1m",
	}, io.Discard)
	require.NoError(t, err)

	application, store, err := buildApplication(context.Background(), cfg, logging.Discard(), metrics.NewCollector())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Equal(t, 6, application.Graph.NodeCount())

	total, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, total)

	result, err := application.Planner.FindRoutes(context.Background(), "pariss", "marseille")
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
}

func TestBuildApplicationMissingSchedule(t *testing.T) {
	cfg, err := loadConfig([]string{"-env", "test", "-stops", "missing.txt", "-registry", "memory"}, io.Discard)
	require.NoError(t, err)

	_, _, err = buildApplication(context.Background(), cfg, logging.Discard(), nil)
	assert.ErrorContains(t, err, "error loading schedule")
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg, err := loadConfig([]string{
		"-env", "test",
		"-port", "38417",
		"-stops", "../../testdata/stops.txt",
		"-stop-times", "../../testdata/stop_times.txt",
		"-registry", "memory",
	}, io.Discard)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, run(ctx, cfg, logging.Discard()))
}
