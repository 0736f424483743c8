package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"XIANGQI_CONFIG", "REDIS_URL", "MAX_CONCURRENT_MATCHES", "OPENING_BOOK_TIMEOUT", "XIANGQI_STALEMATE_DRAW"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxConcurrentMatches != 200 || cfg.OpeningBookTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.StalemateIsDraw || cfg.RedisURL != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xiangqi.yaml")
	body := `
node_id: node-a
redis_url: redis://127.0.0.1:6379/1
opening_book_timeout: 3s
max_concurrent_matches: 10
stalemate_is_draw: true
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("XIANGQI_CONFIG", path)
	t.Setenv("MAX_CONCURRENT_MATCHES", "25")
	t.Setenv("LOG_LEVEL", " warn ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NodeID != "node-a" || cfg.RedisURL != "redis://127.0.0.1:6379/1" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.OpeningBookTimeout != 3*time.Second || !cfg.StalemateIsDraw {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.MaxConcurrentMatches != 25 {
		t.Errorf("env should override file: got %d", cfg.MaxConcurrentMatches)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Errorf("log config = %+v", cfg.Log)
	}
	if cfg.RelayChannelPrefix != "xiangqi:relay" {
		t.Errorf("default prefix lost: %q", cfg.RelayChannelPrefix)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XIANGQI_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidateAggregates(t *testing.T) {
	cfg := Defaults()
	cfg.RedisURL = "http://example.com"
	cfg.RelayChannelPrefix = " "
	cfg.MaxConcurrentMatches = 0
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	merr, ok := err.(*multierror.Error)
	if !ok {
		t.Fatalf("Validate() = %T %v, want *multierror.Error", err, err)
	}
	if len(merr.Errors) != 4 {
		t.Fatalf("got %d errors, want 4: %v", len(merr.Errors), err)
	}
	for _, want := range []string{"REDIS_URL", "XIANGQI_RELAY_PREFIX", "MAX_CONCURRENT_MATCHES", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err.Error(), want)
		}
	}
}

func TestLoadReportsUnparsableEnv(t *testing.T) {
	t.Setenv("XIANGQI_CONFIG", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("OPENING_BOOK_TIMEOUT", "abc")
	t.Setenv("MAX_CONCURRENT_MATCHES", "x")
	t.Setenv("LOG_TO_FILE", "maybe")

	_, err := Load()
	merr, ok := err.(*multierror.Error)
	if !ok {
		t.Fatalf("Load() = %T %v, want *multierror.Error", err, err)
	}
	if len(merr.Errors) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(merr.Errors), err)
	}
	for _, want := range []string{`OPENING_BOOK_TIMEOUT "abc"`, `MAX_CONCURRENT_MATCHES "x"`, `LOG_TO_FILE "maybe"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err.Error(), want)
		}
	}
}
