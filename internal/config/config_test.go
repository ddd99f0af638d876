package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

// writeConfig writes data to a temp config.toml and returns its path.
func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
body_max_bytes = 5242880

[proxy]
path_prefix = "/api"
backends = ["http://10.0.0.1:8080", "http://10.0.0.2:8080"]

[cache]
enabled = true
redis_addr = "127.0.0.1:6379"
ttl_seconds = 300

[upstream]
timeout_seconds = 60
idle_connections = 50

[log]
level = "debug"
format = "text"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.Proxy.PathPrefix != "/api" {
		t.Errorf("Proxy.PathPrefix = %q, want %q", cfg.Proxy.PathPrefix, "/api")
	}
	if len(cfg.Proxy.Backends) != 2 {
		t.Errorf("len(Proxy.Backends) = %d, want 2", len(cfg.Proxy.Backends))
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true")
	}
	if cfg.Cache.TTLSeconds != 300 {
		t.Errorf("Cache.TTLSeconds = %d, want 300", cfg.Cache.TTLSeconds)
	}
	if cfg.Upstream.TimeoutSeconds != 60 {
		t.Errorf("Upstream.TimeoutSeconds = %d, want 60", cfg.Upstream.TimeoutSeconds)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
[proxy]
backends = ["http://10.0.0.1:8080"]
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default Server.Port = %d, want %d", cfg.Server.Port, 8000)
	}
	if cfg.Server.BodyMaxBytes != 10*1024*1024 {
		t.Errorf("default Server.BodyMaxBytes = %d, want %d", cfg.Server.BodyMaxBytes, 10*1024*1024)
	}
	if cfg.Proxy.PathPrefix != "/api" {
		t.Errorf("default Proxy.PathPrefix = %q, want %q", cfg.Proxy.PathPrefix, "/api")
	}
	if cfg.Cache.RedisAddr != "127.0.0.1:6379" {
		t.Errorf("default Cache.RedisAddr = %q, want %q", cfg.Cache.RedisAddr, "127.0.0.1:6379")
	}
	if cfg.Cache.TTLSeconds != 0 {
		t.Errorf("default Cache.TTLSeconds = %d, want 0 (no expiry)", cfg.Cache.TTLSeconds)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("default Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(cliWithPath("/nonexistent/config.toml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoad_NoBackends(t *testing.T) {
	path := writeConfig(t, `
[proxy]
path_prefix = "/api"
backends = []
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for empty backends, got nil")
	}
}

func TestLoad_InvalidBackendURL(t *testing.T) {
	path := writeConfig(t, `
[proxy]
backends = ["ftp://10.0.0.1"]
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for non-http backend, got nil")
	}
}

func TestLoad_PrefixWithoutLeadingSlash(t *testing.T) {
	path := writeConfig(t, `
[proxy]
path_prefix = "api"
backends = ["http://10.0.0.1:8080"]
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for prefix without leading '/', got nil")
	}
}

func TestLoad_PrefixWithTrailingSlash(t *testing.T) {
	path := writeConfig(t, `
[proxy]
path_prefix = "/api/"
backends = ["http://10.0.0.1:8080"]
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for prefix with trailing '/', got nil")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `
[proxy]
backends = ["http://10.0.0.1:8080"]

[log]
level = "verbose"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for invalid log level, got nil")
	}
}

func TestLoad_NegativePort(t *testing.T) {
	path := writeConfig(t, `
[server]
port = -1

[proxy]
backends = ["http://10.0.0.1:8080"]
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for negative port, got nil")
	}
}

func TestLoad_NegativeTTL(t *testing.T) {
	path := writeConfig(t, `
[proxy]
backends = ["http://10.0.0.1:8080"]

[cache]
ttl_seconds = -10
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for negative cache TTL, got nil")
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 8000

[proxy]
path_prefix = "/api"
backends = ["http://10.0.0.1:8080"]

[log]
level = "info"
`)

	cli := &CLI{
		Config:     path,
		Host:       "127.0.0.1",
		Port:       3000,
		PathPrefix: "/v2",
		Backend:    []string{"http://10.1.0.1:9090"},
		LogLevel:   "debug",
	}

	cfg, err := Load(cli)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q (CLI override)", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d (CLI override)", cfg.Server.Port, 3000)
	}
	if cfg.Proxy.PathPrefix != "/v2" {
		t.Errorf("Proxy.PathPrefix = %q, want %q (CLI override)", cfg.Proxy.PathPrefix, "/v2")
	}
	if len(cfg.Proxy.Backends) != 1 || cfg.Proxy.Backends[0] != "http://10.1.0.1:9090" {
		t.Errorf("Proxy.Backends = %v, want CLI override", cfg.Proxy.Backends)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (CLI override)", cfg.Log.Level, "debug")
	}
}

func TestLoad_MetricsPathConflictsWithPrefix(t *testing.T) {
	path := writeConfig(t, `
[proxy]
path_prefix = "/api"
backends = ["http://10.0.0.1:8080"]

[metrics]
enabled = true
path = "/api/metrics"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for metrics path under proxy prefix, got nil")
	}
}

func TestAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 9000}
	if got := s.Addr(); got != "127.0.0.1:9000" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:9000")
	}
}

func TestWarnPermissions_WorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX file modes are not meaningful on Windows")
	}

	path := writeConfig(t, `
[proxy]
backends = ["http://10.0.0.1:8080"]
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cfg.WarnPermissions(logger)

	if !strings.Contains(buf.String(), "readable by group/others") {
		t.Errorf("expected permissions warning for 0644 config, log output: %s", buf.String())
	}
}
