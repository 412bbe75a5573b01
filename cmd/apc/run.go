package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agent-precommit/internal/detector"
	"github.com/fyrsmithlabs/agent-precommit/internal/executor"
	"github.com/fyrsmithlabs/agent-precommit/internal/hooks"
	"github.com/fyrsmithlabs/agent-precommit/internal/metrics"
	"github.com/fyrsmithlabs/agent-precommit/internal/runner"
	"github.com/fyrsmithlabs/agent-precommit/pkg/secrets"
)

var (
	runMode        string
	runChecks      []string
	runJSON        bool
	runTimeout     time.Duration
	runMetricsFile string
)

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "", "force a mode: human, agent or ci")
	runCmd.Flags().StringSliceVar(&runChecks, "check", nil, "run only these checks (repeatable)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the report as JSON on stdout")
	runCmd.Flags().DurationVar(&runTimeout, "run-timeout", 0, "bound the whole run (overrides the mode's run_timeout)")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "write Prometheus textfile metrics here (default: $APC_METRICS_FILE)")
	rootCmd.AddCommand(runCmd)
}

// runCmd runs the checks for the detected mode
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the checks for the detected mode",
	Long: `Detect the mode and run its checks from the repository root.

Exit codes: 0 passed, 1 failed, 64 bad mode or check name, 78 bad
configuration, 124 timed out, 130 interrupted. APC_SKIP=1 skips all checks.
Secrets in check output are redacted unless APC_REDACT_OUTPUT=0.

Examples:
  # From a git pre-commit hook
  apc run

  # Run one check in agent mode
  apc run --mode agent --check test-unit

  # Machine-readable report
  apc run --json`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

// runOutput is the --json document.
type runOutput struct {
	Detection detector.Detection  `json:"detection"`
	Report    *executor.RunReport `json:"report"`
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if settings.Skip {
		fmt.Fprintln(cmd.ErrOrStderr(), "apc: APC_SKIP is set, skipping checks")
		return nil
	}

	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}

	lifecycle := hooks.NewManager()
	if !runJSON {
		(&progressPrinter{w: out}).register(lifecycle)
	}
	execOpts := []executor.Option{
		executor.WithLogger(logger),
		executor.WithHooks(lifecycle),
		executor.WithTracer(tel.Tracer("github.com/fyrsmithlabs/agent-precommit/internal/executor")),
		executor.WithMeter(tel.Meter("github.com/fyrsmithlabs/agent-precommit/internal/executor")),
	}
	if settings.RedactOutput {
		redactor, err := secrets.NewRedactor(secrets.RedactOptions{
			ProjectDir: ws.Root,
			UserPath:   settings.Allowlist,
		})
		if err != nil {
			return &exitError{code: exitConfig, err: err}
		}
		execOpts = append(execOpts, executor.WithRedactor(redactor))
	}
	exec := executor.New(execOpts...)
	r := runner.New(ws, runner.WithExecutor(exec), runner.WithLogger(logger))

	det, report, err := r.Run(ctx, runner.RunOptions{
		Mode:        runMode,
		Only:        runChecks,
		RunTimeout:  runTimeout,
		GracePeriod: settings.GracePeriod.Duration(),
	})
	if err != nil {
		return err
	}

	metricsFile := runMetricsFile
	if metricsFile == "" {
		metricsFile = settings.MetricsFile
	}
	if metricsFile != "" {
		if err := metrics.WriteReport(metricsFile, report); err != nil {
			logger.Warn(ctx, "metrics textfile not written", zap.Error(err))
		}
	}

	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(runOutput{Detection: det, Report: report}); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	} else {
		renderReport(out, report)
	}

	return reportError(report)
}
