package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server settings. Values come from an optional YAML file,
// with environment variables taking precedence over both the file and
// the built-in defaults.
type Config struct {
	Port           string        `yaml:"port"`
	RoundSeconds   int           `yaml:"round_seconds"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	Gateway        GatewayConfig `yaml:"gateway"`
}

// GatewayConfig holds WebSocket connection tuning.
type GatewayConfig struct {
	PingIntervalSeconds int   `yaml:"ping_interval_seconds"`
	ReadTimeoutSeconds  int   `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int   `yaml:"write_timeout_seconds"`
	MaxMessageBytes     int64 `yaml:"max_message_bytes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:           "8080",
		RoundSeconds:   20,
		AllowedOrigins: []string{"*"},
		Gateway: GatewayConfig{
			PingIntervalSeconds: 30,
			ReadTimeoutSeconds:  60,
			WriteTimeoutSeconds: 10,
			MaxMessageBytes:     1024,
		},
	}
}

// Load reads configuration from the YAML file at path (missing file is
// fine), then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file; defaults and env apply.
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.RoundSeconds = getEnvAsInt("ROUND_SECONDS", cfg.RoundSeconds)

	if cfg.RoundSeconds <= 0 {
		return cfg, fmt.Errorf("round_seconds must be positive, got %d", cfg.RoundSeconds)
	}
	if cfg.Gateway.PingIntervalSeconds <= 0 || cfg.Gateway.ReadTimeoutSeconds <= 0 ||
		cfg.Gateway.WriteTimeoutSeconds <= 0 || cfg.Gateway.MaxMessageBytes <= 0 {
		return cfg, fmt.Errorf("gateway settings must be positive, got %+v", cfg.Gateway)
	}

	return cfg, nil
}

// RoundLength returns the voting round duration.
func (c Config) RoundLength() time.Duration {
	return time.Duration(c.RoundSeconds) * time.Second
}

// PingInterval returns how often idle connections are pinged.
func (g GatewayConfig) PingInterval() time.Duration {
	return time.Duration(g.PingIntervalSeconds) * time.Second
}

// ReadTimeout returns how long a connection may stay silent before it
// is considered dead.
func (g GatewayConfig) ReadTimeout() time.Duration {
	return time.Duration(g.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the per-message write deadline.
func (g GatewayConfig) WriteTimeout() time.Duration {
	return time.Duration(g.WriteTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
