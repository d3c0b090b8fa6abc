package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.RoundLength() != 20*time.Second {
		t.Errorf("got round length %v, want 20s", cfg.RoundLength())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`port: "9090"
round_seconds: 45
allowed_origins:
  - https://example.com
gateway:
  ping_interval_seconds: 15
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Keys absent from the file keep their defaults.
	want := Config{
		Port:           "9090",
		RoundSeconds:   45,
		AllowedOrigins: []string{"https://example.com"},
		Gateway: GatewayConfig{
			PingIntervalSeconds: 15,
			ReadTimeoutSeconds:  60,
			WriteTimeoutSeconds: 10,
			MaxMessageBytes:     1024,
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Gateway.PingInterval() != 15*time.Second {
		t.Errorf("got ping interval %v, want 15s", cfg.Gateway.PingInterval())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"9090\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("PORT", "7070")
	t.Setenv("ROUND_SECONDS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("got port %q, want env override 7070", cfg.Port)
	}
	if cfg.RoundSeconds != 5 {
		t.Errorf("got round_seconds %d, want env override 5", cfg.RoundSeconds)
	}
}

func TestLoadRejectsNonPositiveRound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("round_seconds: 0\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load must reject a non-positive round length")
	}
}

func TestLoadRejectsNonPositiveGatewaySettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("gateway:\n  read_timeout_seconds: -1\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load must reject non-positive gateway settings")
	}
}
