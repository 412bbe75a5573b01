// Package main implements apc, a pre-commit runner that picks its checks by
// who is committing: a human, an AI agent or CI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agent-precommit/internal/config"
	"github.com/fyrsmithlabs/agent-precommit/internal/logging"
	"github.com/fyrsmithlabs/agent-precommit/internal/runner"
	"github.com/fyrsmithlabs/agent-precommit/internal/telemetry"
)

var (
	// configPath overrides config discovery
	configPath string
	// version information
	version = "dev"

	settings *config.Settings
	logger   = logging.NewNop()
	tel      *telemetry.Telemetry
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and maps the outcome to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	teardown(ctx)
	if err == nil {
		return exitOK
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(stderr, "apc: %s\n", msg)
	}
	return exitCodeFor(err)
}

var rootCmd = &cobra.Command{
	Use:   "apc",
	Short: "Mode-aware pre-commit checks for humans, agents and CI",
	Long: `apc runs a different set of checks depending on who is committing.

Humans get fast checks on staged files. AI agents and CI get the thorough
set, run in parallel groups with every failure reported at once.

Examples:
  # Install as the git pre-commit hook
  echo 'exec apc run' > .git/hooks/pre-commit

  # See which mode would be used and why
  apc explain

  # Run the agent checks explicitly
  apc run --mode agent`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to "+config.FileName+" (default: search upwards from the working directory)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &exitError{code: exitUsage, err: err}
	})
	rootCmd.AddCommand(versionCmd)
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the apc version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "apc %s\n", version)
	},
}

// setup loads APC_* settings and builds the logger and telemetry shared by
// every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	s, err := config.LoadSettings()
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	settings = s
	if configPath == "" {
		configPath = s.ConfigPath
	}

	t, err := telemetry.New(cmd.Context(), telemetry.FromSettings(s, version))
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	tel = t

	logCfg := logging.NewDefaultConfig()
	logCfg.Format = s.LogFormat
	logCfg.Output.Writer = cmd.ErrOrStderr()
	logCfg.Output.OTEL = tel.IsEnabled()
	level, err := logging.LevelFromString(s.LogLevel)
	if err != nil {
		return &exitError{code: exitConfig, err: fmt.Errorf("APC_LOG_LEVEL: %w", err)}
	}
	logCfg.Level = level

	l, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	logger = l

	if health := tel.Health(); health.Degraded {
		logger.Warn(cmd.Context(), "telemetry degraded", zap.Strings("reasons", health.Reasons))
	}
	return nil
}

func teardown(ctx context.Context) {
	// The run context may already be cancelled; flushing must still happen.
	if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = logger.Sync()
}

// resolveWorkspace finds the repository and configuration for the working
// directory.
func resolveWorkspace() (*runner.Workspace, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	ws, err := runner.Resolve(wd, configPath)
	if err != nil {
		return nil, &exitError{code: exitConfig, err: err}
	}
	return ws, nil
}
