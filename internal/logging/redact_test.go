package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) *Logger {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Level = zapcore.DebugLevel
	cfg.Format = "json"
	cfg.Output.Writer = buf
	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	return logger
}

func TestRedactingEncoder_FieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	logger.Info(context.Background(), "auth", zap.String("token", "abc123"), zap.String("user", "dev"))

	assert.Contains(t, buf.String(), `"token":"[REDACTED]"`)
	assert.Contains(t, buf.String(), `"user":"dev"`)
	assert.NotContains(t, buf.String(), "abc123")
}

func TestRedactingEncoder_Patterns(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	logger.Info(context.Background(), "cmd", zap.String("run", "curl -H 'Authorization: Bearer s3cr3t' x"))

	assert.Contains(t, buf.String(), `"run":"[REDACTED:pattern]"`)
	assert.NotContains(t, buf.String(), "s3cr3t")
}

func TestNewRedactingEncoder_InvalidPattern(t *testing.T) {
	_, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{
		Enabled:  true,
		Patterns: []string{"[invalid("},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redaction pattern")
}

func TestNewRedactingEncoder_DisabledSkipsValidation(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{Patterns: []string{"[invalid("}})
	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestEnv(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	logger.Debug(context.Background(), "spawn", Env("env", map[string]string{
		"GOFLAGS":      "-mod=mod",
		"GITHUB_TOKEN": "ghp_abcdef",
	}))

	out := buf.String()
	assert.Contains(t, out, `"GOFLAGS":"-mod=mod"`)
	assert.Contains(t, out, `"GITHUB_TOKEN":"[REDACTED:10]"`)
	assert.NotContains(t, out, "ghp_abcdef")
}

