// Package runner is the entry point used by the apc command: it detects the
// mode, resolves the repository and configuration, and runs the mode's
// checks.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agent-precommit/internal/config"
	"github.com/fyrsmithlabs/agent-precommit/internal/detector"
	"github.com/fyrsmithlabs/agent-precommit/internal/executor"
	"github.com/fyrsmithlabs/agent-precommit/internal/logging"
	"github.com/fyrsmithlabs/agent-precommit/internal/precommit"
	"github.com/fyrsmithlabs/agent-precommit/pkg/git"
)

// RunOptions tune one Run.
type RunOptions struct {
	// Mode forces a mode, like APC_MODE but with higher precedence.
	Mode string

	// Only restricts the run to the named checks.
	Only []string

	RunTimeout  time.Duration
	GracePeriod time.Duration
}

// Workspace is where checks run and where their configuration came from.
type Workspace struct {
	// Root is the repository root, or the start directory outside a repository.
	Root string
	// InRepo reports whether Root is a git working tree.
	InRepo bool
	Branch string
	Config *config.Config
}

// Resolve finds the workspace for startDir. explicitConfig, when set,
// bypasses config discovery.
func Resolve(startDir, explicitConfig string) (*Workspace, error) {
	ws := &Workspace{Root: startDir}

	repo, err := git.Open(startDir)
	switch {
	case err == nil:
		ws.Root = repo.Root()
		ws.InRepo = true
		if branch, err := repo.Branch(); err == nil {
			ws.Branch = branch
		}
	case errors.Is(err, git.ErrNotGitRepo):
	default:
		return nil, err
	}

	cfg, err := config.Discover(startDir, explicitConfig)
	if err != nil {
		return nil, err
	}
	ws.Config = cfg
	return ws, nil
}

// Runner runs checks for one workspace.
type Runner struct {
	ws       *Workspace
	detector *detector.Detector
	exec     *executor.Executor
	snapshot func() detector.Snapshot
	logger   *logging.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor replaces the default executor.
func WithExecutor(e *executor.Executor) Option {
	return func(r *Runner) { r.exec = e }
}

// WithSnapshot replaces the live environment capture.
func WithSnapshot(fn func() detector.Snapshot) Option {
	return func(r *Runner) { r.snapshot = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a runner for ws.
func New(ws *Workspace, opts ...Option) *Runner {
	r := &Runner{
		ws:       ws,
		detector: detector.New(ws.Config.Detection.AgentEnvVars),
		snapshot: detector.CaptureSnapshot,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.exec == nil {
		r.exec = executor.New(executor.WithLogger(r.logger))
	}
	return r
}

// Explain reports which mode would be used and why.
func (r *Runner) Explain(override string) (detector.Detection, error) {
	return r.detector.Detect(r.snapshot(), override)
}

// Plan reports what a run with opts would execute.
func (r *Runner) Plan(opts RunOptions) (detector.Detection, *executor.Plan, error) {
	det, err := r.Explain(opts.Mode)
	if err != nil {
		return det, nil, err
	}
	plan, err := r.exec.Plan(r.ws.Config, det.Mode, executor.Options{
		Only: opts.Only,
		Dir:  r.ws.Root,
	})
	return det, plan, err
}

// Run detects the mode and runs its checks from the workspace root. The
// returned Detection explains the mode the report ran under.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (detector.Detection, *executor.RunReport, error) {
	det, err := r.Explain(opts.Mode)
	if err != nil {
		return detector.Detection{}, nil, err
	}
	r.logger.Info(ctx, "mode detected",
		zap.String("mode", det.Mode.String()),
		zap.String("reason", det.Reason()),
		zap.String("root", r.ws.Root),
	)

	if r.ws.Config.Integration.PreCommit {
		if _, err := r.PreCommit(); err != nil {
			r.logger.Warn(ctx, "pre-commit integration unavailable", zap.Error(err))
		}
	}

	report, err := r.exec.Execute(ctx, r.ws.Config, det.Mode, executor.Options{
		Only:        opts.Only,
		RunTimeout:  opts.RunTimeout,
		GracePeriod: opts.GracePeriod,
		Dir:         r.ws.Root,
	})
	if err != nil {
		return det, nil, fmt.Errorf("running %s checks: %w", det.Mode, err)
	}
	return det, report, nil
}

// PreCommit inspects the pre-commit framework config named by the
// integration settings.
func (r *Runner) PreCommit() (*precommit.Info, error) {
	return precommit.Inspect(r.ws.Root, r.ws.Config.Integration.PreCommitPath)
}
