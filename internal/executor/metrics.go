package executor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agent-precommit/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/agent-precommit/internal/executor"

// runMetrics holds the OpenTelemetry instruments recorded per run. With no
// meter provider installed they are no-ops.
type runMetrics struct {
	checksTotal   metric.Int64Counter
	checkDuration metric.Float64Histogram
	runsTotal     metric.Int64Counter
	runDuration   metric.Float64Histogram
}

func newRunMetrics(meter metric.Meter, logger *logging.Logger) *runMetrics {
	ctx := context.Background()
	m := &runMetrics{}
	var err error

	m.checksTotal, err = meter.Int64Counter(
		"apc.checks_total",
		metric.WithDescription("Checks finished, labeled by check name, mode and status."),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create checks counter", zap.Error(err))
	}

	m.checkDuration, err = meter.Float64Histogram(
		"apc.check_duration_seconds",
		metric.WithDescription("Wall-clock duration of a check subprocess."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 900),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create check duration histogram", zap.Error(err))
	}

	m.runsTotal, err = meter.Int64Counter(
		"apc.runs_total",
		metric.WithDescription("Runs finished, labeled by mode and overall status."),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create runs counter", zap.Error(err))
	}

	m.runDuration, err = meter.Float64Histogram(
		"apc.run_duration_seconds",
		metric.WithDescription("Wall-clock duration of a whole run."),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create run duration histogram", zap.Error(err))
	}

	return m
}

func defaultMeter() metric.Meter {
	return otel.Meter(instrumentationName)
}

func (m *runMetrics) recordCheck(ctx context.Context, mode string, res CheckResult) {
	attrs := metric.WithAttributes(
		attribute.String("check", res.Name),
		attribute.String("mode", mode),
		attribute.String("status", string(res.Status)),
	)
	if m.checksTotal != nil {
		m.checksTotal.Add(ctx, 1, attrs)
	}
	if m.checkDuration != nil && res.Status != StatusSkipped {
		m.checkDuration.Record(ctx, res.Duration.Seconds(), attrs)
	}
}

func (m *runMetrics) recordRun(ctx context.Context, mode string, status Status, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", string(status)),
	)
	if m.runsTotal != nil {
		m.runsTotal.Add(ctx, 1, attrs)
	}
	if m.runDuration != nil {
		m.runDuration.Record(ctx, d.Seconds(), attrs)
	}
}
