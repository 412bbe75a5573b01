// Package telemetry exports run traces and metrics over OTLP.
//
// Telemetry is off by default. When APC_OTEL_ENABLED is set, New installs
// global tracer and meter providers so the executor's apc.run and apc.check
// spans and its apc.* instruments reach the collector at APC_OTEL_ENDPOINT:
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(settings, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// apc exits right after a run, so Shutdown flushes both providers; the
// periodic metric reader alone would drop the final collection.
//
// Provider failures never fail the run. The instance is marked degraded
// and the global no-op providers stay in place.
//
// Tests use NewTestTelemetry, which records spans and metrics in memory:
//
//	tt := telemetry.NewTestTelemetry()
//	exec := executor.New(executor.WithTracer(tt.Tracer("test")))
//	...
//	tt.AssertSpanExists(t, "apc.run")
package telemetry
