// internal/logging/context.go
package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if runID := RunIDFromContext(ctx); runID != "" {
		fields = append(fields, zap.String("run.id", runID))
	}
	if m := ModeFromContext(ctx); m != "" {
		fields = append(fields, zap.String("run.mode", m))
	}
	if check := CheckFromContext(ctx); check != "" {
		fields = append(fields, zap.String("check", check))
	}

	return fields
}

type runIDCtxKey struct{}
type modeCtxKey struct{}
type checkCtxKey struct{}

// WithRunID adds the run identifier to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDCtxKey{}, runID)
}

// RunIDFromContext extracts the run identifier from context.
func RunIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(runIDCtxKey{}).(string)
	return s
}

// WithMode adds the detected mode to context.
func WithMode(ctx context.Context, mode string) context.Context {
	return context.WithValue(ctx, modeCtxKey{}, mode)
}

// ModeFromContext extracts the mode from context.
func ModeFromContext(ctx context.Context) string {
	s, _ := ctx.Value(modeCtxKey{}).(string)
	return s
}

// WithCheck adds the name of the running check to context.
func WithCheck(ctx context.Context, check string) context.Context {
	return context.WithValue(ctx, checkCtxKey{}, check)
}

// CheckFromContext extracts the check name from context.
func CheckFromContext(ctx context.Context) string {
	s, _ := ctx.Value(checkCtxKey{}).(string)
	return s
}
