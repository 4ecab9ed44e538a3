package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/specialistvlad/pagegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, mutate func(*Config)) *Config {
	t.Helper()
	cfg := Config{LogLevel: "debug", LogFormat: "text", Addr: "127.0.0.1:0"}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewConfig(cfg)
	require.NoError(t, err)
	return c
}

// setupAppTest creates a new app instance whose logs are captured.
func setupAppTest(t *testing.T, cfg *Config) (*App, *testutil.SafeBuffer) {
	t.Helper()
	logBuffer := &testutil.SafeBuffer{}
	a, err := NewApp(logBuffer, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("PAGEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return a, logBuffer
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Empty(t, cfg.DBPath)
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("PAGEGRID_LOG_LEVEL", "DEBUG")
		t.Setenv("PAGEGRID_ADDR", "127.0.0.1:9999")
		t.Setenv("PAGEGRID_DB_PATH", "/tmp/pages.db")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9999", cfg.Addr)
		assert.Equal(t, "/tmp/pages.db", cfg.DBPath)

		valid, err := NewConfig(cfg)
		require.NoError(t, err)
		assert.Equal(t, "debug", valid.LogLevel)
	})
}

func TestNewConfig(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"Success", Config{LogLevel: "warn", LogFormat: "JSON", Addr: ":80"}, ""},
		{"Failure: level", Config{LogLevel: "loud", LogFormat: "text", Addr: ":80"}, "invalid log-level"},
		{"Failure: format", Config{LogLevel: "info", LogFormat: "xml", Addr: ":80"}, "invalid log-format"},
		{"Failure: addr", Config{LogLevel: "info", LogFormat: "text"}, "Addr is a required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewConfig(tc.cfg)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	t.Parallel()
	buf := &testutil.SafeBuffer{}
	newLogger("warn", "json", buf).Info("hidden")
	newLogger("warn", "json", buf).Warn("shown", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "pagegrid", line["service"])
}

func TestNewApp_EmbeddedIndex(t *testing.T) {
	t.Parallel()
	a, logs := setupAppTest(t, testConfig(t, nil))
	assert.Equal(t, 7, a.Registry().Len())
	assert.Contains(t, logs.String(), "Organism registry built.")
}

func TestNewApp_DescriptorsDirProblems(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.hcl"), []byte(`organism "hero-section" {}`), 0o644))

	_, err := NewApp(io.Discard, testConfig(t, func(c *Config) { c.DescriptorsDir = dir }))
	var derr *registry.DiscoveryError
	require.ErrorAs(t, err, &derr)
	assert.NotEmpty(t, derr.Errors)
}

func TestApp_ServeListener(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, func(c *Config) { c.DBPath = filepath.Join(t.TempDir(), "pages.db") })
	a, logs := setupAppTest(t, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.ServeListener(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Post(base+"/api/pages/home/instances", "application/json", strings.NewReader(`{"organism_id":"cta"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Contains(t, logs.String(), "HTTP server stopped.")
	assert.FileExists(t, cfg.DBPath)
}

func TestApp_Serve_BadAddress(t *testing.T) {
	t.Parallel()
	a, _ := setupAppTest(t, testConfig(t, func(c *Config) { c.Addr = "not-an-address" }))
	err := a.Serve(context.Background())
	require.ErrorContains(t, err, "listening on")
}
