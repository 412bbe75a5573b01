package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, "console", s.LogFormat)
	assert.Equal(t, DefaultGracePeriod, s.GracePeriod.Duration())
	assert.False(t, s.OTELEnabled)
	assert.True(t, s.RedactOutput)
}

func TestLoadSettings_FromEnv(t *testing.T) {
	t.Setenv("APC_LOG_LEVEL", "debug")
	t.Setenv("APC_LOG_FORMAT", "json")
	t.Setenv("APC_GRACE_PERIOD", "250ms")
	t.Setenv("APC_METRICS_FILE", "/tmp/apc.prom")
	t.Setenv("APC_CONFIG", "ci/agent-precommit.toml")
	t.Setenv("APC_SKIP", "1")
	t.Setenv("APC_REDACT_OUTPUT", "false")
	t.Setenv("APC_SECRETS_ALLOWLIST", "/home/dev/.config/apc/allowlist.toml")

	s, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, 250*time.Millisecond, s.GracePeriod.Duration())
	assert.Equal(t, "/tmp/apc.prom", s.MetricsFile)
	assert.Equal(t, "ci/agent-precommit.toml", s.ConfigPath)
	assert.True(t, s.Skip)
	assert.False(t, s.RedactOutput)
	assert.Equal(t, "/home/dev/.config/apc/allowlist.toml", s.Allowlist)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"bad format", func(s *Settings) { s.LogFormat = "xml" }, true},
		{"zero grace", func(s *Settings) { s.GracePeriod = 0 }, true},
		{"bad protocol", func(s *Settings) { s.OTELProtocol = "udp" }, true},
		{"otel without endpoint", func(s *Settings) { s.OTELEnabled = true; s.OTELEndpoint = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			if tt.wantErr {
				assert.Error(t, s.Validate())
			} else {
				assert.NoError(t, s.Validate())
			}
		})
	}
}
