package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/agent-precommit/internal/condition"
	"github.com/fyrsmithlabs/agent-precommit/internal/config"
	"github.com/fyrsmithlabs/agent-precommit/internal/hooks"
	"github.com/fyrsmithlabs/agent-precommit/internal/logging"
	"github.com/fyrsmithlabs/agent-precommit/internal/mode"
)

var (
	// ErrRunTimeout is the cancellation cause when the whole run exceeds its bound.
	ErrRunTimeout = errors.New("run timeout exceeded")

	// ErrCheckTimeout is the cancellation cause when one check exceeds its timeout.
	ErrCheckTimeout = errors.New("check timeout exceeded")

	// ErrUnknownCheck is returned when Options.Only names an undefined check.
	ErrUnknownCheck = errors.New("unknown check")
)

// Options tune a single run.
type Options struct {
	// Only restricts the run to these checks, each as its own stage, in the
	// given order. Parallel groups are ignored.
	Only []string

	// RunTimeout overrides the mode's run_timeout when non-zero.
	RunTimeout time.Duration

	// GracePeriod between SIGTERM and SIGKILL. Defaults to config.DefaultGracePeriod.
	GracePeriod time.Duration

	// Dir is the working directory for checks and the root for relative
	// condition paths. Defaults to the current directory.
	Dir string

	// Env is the base environment for checks. Defaults to os.Environ().
	Env []string
}

// Executor builds execution plans and runs them.
type Executor struct {
	runner   CommandRunner
	files    condition.FileProbe
	commands condition.CommandProbe
	hooks    *hooks.Manager
	logger   *logging.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	metrics  *runMetrics
	redactor Redactor
}

// Redactor masks secrets in captured check output.
type Redactor interface {
	RedactString(content string) string
}

// Option configures an Executor.
type Option func(*Executor)

// WithRunner replaces the subprocess runner.
func WithRunner(r CommandRunner) Option {
	return func(e *Executor) { e.runner = r }
}

// WithProbes replaces the probes used for enabled_if conditions. By default
// an OSProbe rooted at Options.Dir is used.
func WithProbes(files condition.FileProbe, commands condition.CommandProbe) Option {
	return func(e *Executor) {
		e.files = files
		e.commands = commands
	}
}

// WithHooks emits lifecycle events to m.
func WithHooks(m *hooks.Manager) Option {
	return func(e *Executor) { e.hooks = m }
}

// WithRedactor filters check stdout and stderr through r before they are
// reported.
func WithRedactor(r Redactor) Option {
	return func(e *Executor) { e.redactor = r }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithTracer sets the tracer. Defaults to the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) { e.tracer = t }
}

// WithMeter sets the meter. Defaults to the global provider.
func WithMeter(m metric.Meter) Option {
	return func(e *Executor) { e.meter = m }
}

// New creates an executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		runner: ShellRunner{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("executor")
	if e.tracer == nil {
		e.tracer = otel.Tracer(instrumentationName)
	}
	if e.meter == nil {
		e.meter = defaultMeter()
	}
	e.metrics = newRunMetrics(e.meter, e.logger)
	return e
}

// Plan evaluates conditions and derives the stages for m without running
// anything.
func (e *Executor) Plan(cfg *config.Config, m mode.Mode, opts Options) (*Plan, error) {
	return e.plan(context.Background(), cfg, m, opts)
}

func (e *Executor) plan(ctx context.Context, cfg *config.Config, m mode.Mode, opts Options) (*Plan, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %q", mode.ErrUnknownMode, m)
	}
	mc := cfg.Mode(m)

	checks, groups := mc.Checks, mc.ParallelGroups
	if len(opts.Only) > 0 {
		checks, groups = nil, nil
		seen := make(map[string]bool, len(opts.Only))
		for _, name := range opts.Only {
			if _, ok := cfg.Check(name); !ok {
				return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownCheck, name, cfg.CheckNames())
			}
			// Repeats collapse to the first occurrence so each check owns one result slot.
			if !seen[name] {
				seen[name] = true
				checks = append(checks, name)
			}
		}
	}

	files, commands := e.files, e.commands
	if files == nil || commands == nil {
		probe := condition.NewOSProbe(opts.Dir)
		if files == nil {
			files = probe
		}
		if commands == nil {
			commands = probe
		}
	}
	ev := condition.NewEvaluator(files, commands)

	p := &Plan{
		Mode:     m,
		Checks:   append([]string(nil), checks...),
		Skipped:  make(map[string]CheckResult),
		FailFast: mc.FailFast,
	}
	scheduled := make(map[string]bool, len(checks))
	for _, name := range checks {
		def, ok := cfg.Check(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
		}

		enabled, err := ev.Eval(def.EnabledIf)
		switch {
		case err != nil:
			e.logger.Warn(logging.WithCheck(ctx, name), "condition evaluation failed, skipping check", zap.Error(err))
			p.Skipped[name] = CheckResult{
				Name:    name,
				Status:  StatusSkipped,
				Stage:   -1,
				Message: "condition evaluation failed: " + err.Error(),
			}
		case !enabled:
			p.Skipped[name] = CheckResult{
				Name:    name,
				Status:  StatusSkipped,
				Stage:   -1,
				Message: "condition not met: " + def.EnabledIf.String(),
			}
		default:
			scheduled[name] = true
		}
	}

	p.Stages = buildStages(checks, groups, scheduled)
	return p, nil
}

type stopReason int

const (
	stopNone stopReason = iota
	stopFailFast
	stopRunTimeout
	stopCancelled
)

// Execute runs the checks of mode m and reports every outcome. Check
// failures, timeouts and cancellation are recorded in the report; an error
// is returned only when the run cannot be planned.
func (e *Executor) Execute(ctx context.Context, cfg *config.Config, m mode.Mode, opts Options) (*RunReport, error) {
	report := &RunReport{
		ID:        uuid.NewString(),
		Mode:      m,
		StartedAt: time.Now(),
	}

	ctx = logging.WithRunID(ctx, report.ID)
	ctx = logging.WithMode(ctx, m.String())
	ctx, span := e.tracer.Start(ctx, "apc.run", trace.WithAttributes(
		attribute.String("run.id", report.ID),
		attribute.String("run.mode", m.String()),
	))
	defer span.End()

	plan, err := e.plan(ctx, cfg, m, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "planning failed")
		return nil, err
	}

	mc := cfg.Mode(m)
	runTimeout := mc.RunTimeout
	if opts.RunTimeout > 0 {
		runTimeout = opts.RunTimeout
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = config.DefaultGracePeriod
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}

	index := make(map[string]int, len(plan.Checks))
	report.Results = make([]CheckResult, len(plan.Checks))
	for i, name := range plan.Checks {
		index[name] = i
		if skipped, ok := plan.Skipped[name]; ok {
			report.Results[i] = skipped
		}
	}

	e.emit(ctx, hooks.Event{Type: hooks.EventRunStart, RunID: report.ID, Mode: m.String(), Checks: plan.Checks})
	for _, name := range sortedKeys(plan.Skipped) {
		e.finish(ctx, report, report.Results[index[name]])
	}

	runCtx := ctx
	if runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeoutCause(ctx, runTimeout, ErrRunTimeout)
		defer cancel()
	}

	e.logger.Debug(ctx, "run planned",
		zap.Int("stages", len(plan.Stages)),
		zap.Int("skipped", len(plan.Skipped)),
		zap.Bool("fail_fast", plan.FailFast),
		zap.Duration("run_timeout", runTimeout),
	)

	stop := stopNone
	for _, stage := range plan.Stages {
		if stop == stopNone {
			stop = stopFor(ctx, runCtx)
		}
		if stop != stopNone {
			for _, name := range stage.Checks {
				res := CheckResult{Name: name, Status: StatusSkipped, Stage: stage.Index, Message: stop.message()}
				report.Results[index[name]] = res
				e.finish(ctx, report, res)
			}
			continue
		}

		e.emit(ctx, hooks.Event{Type: hooks.EventStageStart, RunID: report.ID, Mode: m.String(), Stage: stage.Index, Checks: stage.Checks})

		// A plain group: one check failing must not cancel its siblings.
		var g errgroup.Group
		for _, name := range stage.Checks {
			def, _ := cfg.Check(name)
			slot := index[name]
			timeout := mc.TimeoutFor(def)
			g.Go(func() error {
				res := e.runCheck(runCtx, report.ID, m, stage.Index, def, timeout, opts)
				report.Results[slot] = res
				e.finish(ctx, report, res)
				return nil
			})
		}
		_ = g.Wait()

		stop = stopFor(ctx, runCtx)
		if stop == stopNone && plan.FailFast && stageFailed(report, stage, index) {
			stop = stopFailFast
			e.logger.Debug(ctx, "stage failed, stopping", zap.Int("stage", stage.Index))
		}
	}

	switch {
	case stop == stopCancelled:
		report.Status = StatusCancelled
	case stop == stopRunTimeout:
		report.Status = StatusTimedOut
	case len(report.Failures()) > 0:
		report.Status = StatusFailed
	default:
		report.Status = StatusPassed
	}
	report.Duration = time.Since(report.StartedAt)

	span.SetAttributes(attribute.String("run.status", string(report.Status)))
	if !report.Passed() {
		span.SetStatus(codes.Error, string(report.Status))
	}
	e.metrics.recordRun(ctx, m.String(), report.Status, report.Duration)
	e.emit(ctx, hooks.Event{
		Type:     hooks.EventRunEnd,
		RunID:    report.ID,
		Mode:     m.String(),
		Status:   string(report.Status),
		Duration: report.Duration,
	})
	e.logger.Info(ctx, "run finished",
		zap.String("status", string(report.Status)),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

func (e *Executor) runCheck(ctx context.Context, runID string, m mode.Mode, stage int, def *config.CheckDefinition, timeout time.Duration, opts Options) CheckResult {
	ctx = logging.WithCheck(ctx, def.Name)
	ctx, span := e.tracer.Start(ctx, "apc.check", trace.WithAttributes(
		attribute.String("check", def.Name),
		attribute.Int("stage", stage),
	))
	defer span.End()

	checkCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeoutCause(ctx, timeout, ErrCheckTimeout)
		defer cancel()
	}

	env := opts.Env
	if len(def.Env) > 0 {
		env = make([]string, 0, len(opts.Env)+len(def.Env))
		env = append(env, opts.Env...)
		for _, k := range sortedKeys(def.Env) {
			env = append(env, k+"="+def.Env[k])
		}
	}

	e.emit(ctx, hooks.Event{Type: hooks.EventCheckStart, RunID: runID, Mode: m.String(), Stage: stage, Check: def.Name})
	e.logger.Trace(ctx, "spawning check",
		zap.String("run", def.Run),
		zap.String("dir", opts.Dir),
		zap.Duration("timeout", timeout),
		logging.Env("env", def.Env),
	)

	start := time.Now()
	out := e.runner.Run(checkCtx, Command{
		Script:      def.Run,
		Dir:         opts.Dir,
		Env:         env,
		GracePeriod: opts.GracePeriod,
	})

	res := CheckResult{
		Name:     def.Name,
		Stage:    stage,
		Stdout:   string(out.Stdout),
		Stderr:   string(out.Stderr),
		Duration: time.Since(start),
	}
	if out.Started {
		code := out.ExitCode
		res.ExitCode = &code
	}
	if e.redactor != nil {
		res.Stdout = e.redactor.RedactString(res.Stdout)
		res.Stderr = e.redactor.RedactString(res.Stderr)
	}

	exitedCleanly := out.Started && out.Err == nil && out.ExitCode == 0
	switch {
	case checkCtx.Err() != nil && !exitedCleanly:
		res.ExitCode = nil
		switch cause := context.Cause(checkCtx); {
		case errors.Is(cause, ErrCheckTimeout):
			res.Status = StatusTimedOut
			res.Message = fmt.Sprintf("timed out after %s", timeout)
		case errors.Is(cause, ErrRunTimeout):
			res.Status = StatusTimedOut
			res.Message = ErrRunTimeout.Error()
		default:
			res.Status = StatusCancelled
			res.Message = "cancelled"
		}
	case !out.Started:
		res.Status = StatusErrored
		res.Message = fmt.Sprintf("failed to start: %v", out.Err)
	case out.Err != nil:
		res.Status = StatusErrored
		res.Message = out.Err.Error()
	case out.ExitCode == 0:
		res.Status = StatusPassed
	default:
		res.Status = StatusFailed
		res.Message = fmt.Sprintf("exit code %d", out.ExitCode)
	}

	span.SetAttributes(attribute.String("check.status", string(res.Status)))
	if res.Status.IsFailure() {
		span.SetStatus(codes.Error, res.Message)
	}
	e.logger.Debug(ctx, "check finished",
		zap.String("status", string(res.Status)),
		zap.Duration("duration", res.Duration),
	)
	return res
}

// finish records metrics and emits check_finish for a final result.
func (e *Executor) finish(ctx context.Context, report *RunReport, res CheckResult) {
	e.metrics.recordCheck(ctx, report.Mode.String(), res)
	e.emit(ctx, hooks.Event{
		Type:     hooks.EventCheckFinish,
		RunID:    report.ID,
		Mode:     report.Mode.String(),
		Stage:    res.Stage,
		Check:    res.Name,
		Status:   string(res.Status),
		ExitCode: res.ExitCode,
		Duration: res.Duration,
		Message:  res.Message,
	})
}

func (e *Executor) emit(ctx context.Context, ev hooks.Event) {
	if err := e.hooks.Emit(ctx, ev); err != nil {
		e.logger.Warn(ctx, "lifecycle hook failed", zap.Error(err))
	}
}

func stopFor(ctx, runCtx context.Context) stopReason {
	switch {
	case ctx.Err() != nil:
		return stopCancelled
	case runCtx.Err() != nil:
		return stopRunTimeout
	}
	return stopNone
}

func (s stopReason) message() string {
	switch s {
	case stopFailFast:
		return "fail-fast: an earlier stage failed"
	case stopRunTimeout:
		return "not started: " + ErrRunTimeout.Error()
	case stopCancelled:
		return "not started: run cancelled"
	}
	return ""
}

func stageFailed(report *RunReport, stage Stage, index map[string]int) bool {
	for _, name := range stage.Checks {
		if report.Results[index[name]].Status.IsFailure() {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
