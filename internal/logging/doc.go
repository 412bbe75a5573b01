// Package logging provides structured logging with OpenTelemetry integration.
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Output to stderr (stdout belongs to check output) and optionally the
//     OpenTelemetry log bridge
//   - Context field injection (trace_id, run.id, run.mode, check)
//   - Encoder-level secret redaction
//
// Log with context:
//
//	ctx = logging.WithRunID(ctx, report.ID)
//	ctx = logging.WithCheck(ctx, "lint")
//	logger.Debug(ctx, "check finished", zap.Duration("duration", d))
//
// Check environments go through Env so that token-like values never reach
// the log:
//
//	logger.Trace(ctx, "spawning", logging.Env("env", def.Env))
//
// Use TestLogger for assertions in tests:
//
//	tl := logging.NewTestLogger()
//	tl.AssertLogged(t, zapcore.WarnLevel, "condition evaluation failed")
package logging
