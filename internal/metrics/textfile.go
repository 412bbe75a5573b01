// Package metrics writes the outcome of a run as a Prometheus textfile,
// for collection by node_exporter's textfile collector.
//
// Metrics:
//   - apc_run_timestamp_seconds{mode} - Unix time the run started
//   - apc_run_duration_seconds{mode} - Wall-clock run duration
//   - apc_run_success{mode} - 1 if the run passed, else 0
//   - apc_run_status{mode,status} - 1 for the run's status
//   - apc_check_status{mode,check,status} - 1 for each check's status
//   - apc_check_duration_seconds{mode,check} - Duration of each check that ran
//   - apc_check_exit_code{mode,check} - Exit code of each check that exited
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fyrsmithlabs/agent-precommit/internal/executor"
)

// RunMetrics holds the gauges describing one run.
type RunMetrics struct {
	registry *prometheus.Registry

	RunTimestamp  *prometheus.GaugeVec
	RunDuration   *prometheus.GaugeVec
	RunSuccess    *prometheus.GaugeVec
	RunStatus     *prometheus.GaugeVec
	CheckStatus   *prometheus.GaugeVec
	CheckDuration *prometheus.GaugeVec
	CheckExitCode *prometheus.GaugeVec
}

// NewRunMetrics creates gauges on a private registry, so repeated runs in
// one process never collide.
func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		RunTimestamp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "apc_run_timestamp_seconds",
			Help: "Unix time the last run started",
		}, []string{"mode"}),
		RunDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "apc_run_duration_seconds",
			Help: "Wall-clock duration of the last run in seconds",
		}, []string{"mode"}),
		RunSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "apc_run_success",
			Help: "Whether the last run passed (1) or not (0)",
		}, []string{"mode"}),
		RunStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "apc_run_status",
			Help: "Status of the last run, as a 1-valued series per status",
		}, []string{"mode", "status"}),
		CheckStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "apc_check_status",
			Help: "Status of each check in the last run, as a 1-valued series",
		}, []string{"mode", "check", "status"}),
		CheckDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "apc_check_duration_seconds",
			Help: "Duration of each check that ran in the last run",
		}, []string{"mode", "check"}),
		CheckExitCode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "apc_check_exit_code",
			Help: "Exit code of each check that exited in the last run",
		}, []string{"mode", "check"}),
	}

	m.registry.MustRegister(
		m.RunTimestamp,
		m.RunDuration,
		m.RunSuccess,
		m.RunStatus,
		m.CheckStatus,
		m.CheckDuration,
		m.CheckExitCode,
	)
	return m
}

// Observe records report. Earlier observations are replaced.
func (m *RunMetrics) Observe(report *executor.RunReport) {
	for _, vec := range []*prometheus.GaugeVec{
		m.RunTimestamp, m.RunDuration, m.RunSuccess, m.RunStatus,
		m.CheckStatus, m.CheckDuration, m.CheckExitCode,
	} {
		vec.Reset()
	}

	mode := report.Mode.String()
	m.RunTimestamp.WithLabelValues(mode).Set(float64(report.StartedAt.UnixNano()) / 1e9)
	m.RunDuration.WithLabelValues(mode).Set(report.Duration.Seconds())
	m.RunStatus.WithLabelValues(mode, string(report.Status)).Set(1)
	success := 0.0
	if report.Passed() {
		success = 1
	}
	m.RunSuccess.WithLabelValues(mode).Set(success)

	for _, res := range report.Results {
		m.CheckStatus.WithLabelValues(mode, res.Name, string(res.Status)).Set(1)
		if res.Status != executor.StatusSkipped {
			m.CheckDuration.WithLabelValues(mode, res.Name).Set(res.Duration.Seconds())
		}
		if res.ExitCode != nil {
			m.CheckExitCode.WithLabelValues(mode, res.Name).Set(float64(*res.ExitCode))
		}
	}
}

// WriteTextfile atomically writes the current metrics to path.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

// WriteReport records report and writes it to path.
func WriteReport(path string, report *executor.RunReport) error {
	m := NewRunMetrics()
	m.Observe(report)
	return m.WriteTextfile(path)
}
