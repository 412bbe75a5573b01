package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every runtime setting variable.
const EnvPrefix = "APC_"

// DefaultGracePeriod is how long a terminated check may take to exit
// before its process group is killed.
const DefaultGracePeriod = 5 * time.Second

// Settings are per-invocation knobs read from APC_* environment variables,
// as opposed to the project policy in agent-precommit.toml.
//
//	APC_CONFIG=path/to/agent-precommit.toml
//	APC_LOG_LEVEL=debug
//	APC_GRACE_PERIOD=10s
//	APC_REDACT_OUTPUT=0
type Settings struct {
	ConfigPath   string   `koanf:"config"`
	Skip         bool     `koanf:"skip"`
	LogLevel     string   `koanf:"log_level"`
	LogFormat    string   `koanf:"log_format"`
	GracePeriod  Duration `koanf:"grace_period"`
	MetricsFile  string   `koanf:"metrics_file"`
	RedactOutput bool     `koanf:"redact_output"`
	Allowlist    string   `koanf:"secrets_allowlist"`
	OTELEnabled  bool     `koanf:"otel_enabled"`
	OTELEndpoint string   `koanf:"otel_endpoint"`
	OTELProtocol string   `koanf:"otel_protocol"`
}

// DefaultSettings returns settings used when no variable is set.
func DefaultSettings() *Settings {
	return &Settings{
		LogLevel:     "warn",
		LogFormat:    "console",
		GracePeriod:  Duration(DefaultGracePeriod),
		RedactOutput: true,
		OTELEndpoint: "localhost:4317",
		OTELProtocol: "grpc",
	}
}

// LoadSettings overlays APC_* environment variables on DefaultSettings.
// APC_LOG_LEVEL maps to log_level; APC_MODE is read by the detector, not here.
func LoadSettings() (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	s := DefaultSettings()
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return s, nil
}

// Validate checks settings for errors.
func (s *Settings) Validate() error {
	if s.LogFormat != "console" && s.LogFormat != "json" {
		return fmt.Errorf("APC_LOG_FORMAT must be 'console' or 'json', got %q", s.LogFormat)
	}
	if s.GracePeriod.Duration() <= 0 {
		return fmt.Errorf("APC_GRACE_PERIOD must be positive")
	}
	switch s.OTELProtocol {
	case "grpc", "http/protobuf":
	default:
		return fmt.Errorf("APC_OTEL_PROTOCOL must be 'grpc' or 'http/protobuf', got %q", s.OTELProtocol)
	}
	if s.OTELEnabled && s.OTELEndpoint == "" {
		return fmt.Errorf("APC_OTEL_ENDPOINT is required when APC_OTEL_ENABLED is set")
	}
	return nil
}
