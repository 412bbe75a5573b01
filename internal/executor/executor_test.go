//go:build unix

package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/agent-precommit/internal/config"
	"github.com/fyrsmithlabs/agent-precommit/internal/hooks"
	"github.com/fyrsmithlabs/agent-precommit/internal/logging"
	"github.com/fyrsmithlabs/agent-precommit/internal/mode"
	"github.com/fyrsmithlabs/agent-precommit/internal/telemetry"
)

// MockProbe is a mock implementation of condition.FileProbe and condition.CommandProbe
type MockProbe struct {
	mock.Mock
}

func (m *MockProbe) FileExists(path string) (bool, error) {
	args := m.Called(path)
	return args.Bool(0), args.Error(1)
}

func (m *MockProbe) DirExists(path string) (bool, error) {
	args := m.Called(path)
	return args.Bool(0), args.Error(1)
}

func (m *MockProbe) CommandExists(name string) (bool, error) {
	args := m.Called(name)
	return args.Bool(0), args.Error(1)
}

func mustParse(t *testing.T, src string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(src))
	require.NoError(t, err)
	return cfg
}

func statuses(r *RunReport) map[string]Status {
	out := make(map[string]Status, len(r.Results))
	for _, res := range r.Results {
		out[res.Name] = res.Status
	}
	return out
}

const threeStages = `
[checks.a]
run = "exit 1"
[checks.b]
run = "exit 2"
[checks.c]
run = "true"
`

func TestExecutor_Execute_FailFast(t *testing.T) {
	cfg := mustParse(t, threeStages+`
[human]
checks = ["a", "b", "c"]
fail_fast = true
`)

	report, err := New().Execute(context.Background(), cfg, mode.Human, Options{})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, map[string]Status{
		"a": StatusFailed,
		"b": StatusSkipped,
		"c": StatusSkipped,
	}, statuses(report))

	a, _ := report.Result("a")
	require.NotNil(t, a.ExitCode)
	assert.Equal(t, 1, *a.ExitCode)

	b, _ := report.Result("b")
	assert.Contains(t, b.Message, "fail-fast")
	assert.Equal(t, 1, b.Stage)
}

func TestExecutor_Execute_Aggregate(t *testing.T) {
	cfg := mustParse(t, threeStages+`
[agent]
checks = ["a", "b", "c"]
`)

	report, err := New().Execute(context.Background(), cfg, mode.Agent, Options{})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, map[string]Status{
		"a": StatusFailed,
		"b": StatusFailed,
		"c": StatusPassed,
	}, statuses(report))
	assert.Len(t, report.Failures(), 2)
	assert.Equal(t, 2, report.Counts()[StatusFailed])
}

func TestExecutor_Execute_DeclaredOrder(t *testing.T) {
	cfg := mustParse(t, `
[checks.slow]
run = "sleep 0.3"
[checks.fast]
run = "true"
[checks.last]
run = "true"

[agent]
checks = ["slow", "fast", "last"]
parallel_groups = [["slow", "fast"]]
`)

	report, err := New().Execute(context.Background(), cfg, mode.Agent, Options{})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	assert.Equal(t, StatusPassed, report.Status)
	assert.Equal(t, "slow", report.Results[0].Name)
	assert.Equal(t, "fast", report.Results[1].Name)
	assert.Equal(t, "last", report.Results[2].Name)
	assert.Equal(t, 0, report.Results[0].Stage)
	assert.Equal(t, 0, report.Results[1].Stage)
	assert.Equal(t, 1, report.Results[2].Stage)
}

func TestExecutor_Execute_ParallelStageRunsConcurrently(t *testing.T) {
	cfg := mustParse(t, `
[checks.a]
run = "sleep 0.5"
[checks.b]
run = "sleep 0.5"
[checks.c]
run = "sleep 0.5"

[agent]
checks = ["a", "b", "c"]
parallel_groups = [["a", "b", "c"]]
`)

	start := time.Now()
	report, err := New().Execute(context.Background(), cfg, mode.Agent, Options{})
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, report.Status)
	assert.Less(t, time.Since(start), 1400*time.Millisecond)
}

func TestExecutor_Execute_FailureDoesNotCancelSiblings(t *testing.T) {
	cfg := mustParse(t, `
[checks.broken]
run = "exit 1"
[checks.slow]
run = "sleep 0.3"

[human]
checks = ["broken", "slow"]
parallel_groups = [["broken", "slow"]]
fail_fast = true
`)

	report, err := New().Execute(context.Background(), cfg, mode.Human, Options{})
	require.NoError(t, err)

	assert.Equal(t, map[string]Status{
		"broken": StatusFailed,
		"slow":   StatusPassed,
	}, statuses(report))
}

func TestExecutor_Execute_EnabledIf(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o644))

	cfg := mustParse(t, `
[checks.go]
run = "true"
enabled_if = { file_exists = "go.mod" }
[checks.node]
run = "exit 1"
enabled_if = { file_exists = "package.json" }

[agent]
checks = ["go", "node"]
`)

	report, err := New().Execute(context.Background(), cfg, mode.Agent, Options{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, report.Status)
	node, ok := report.Result("node")
	require.True(t, ok)
	assert.Equal(t, StatusSkipped, node.Status)
	assert.Equal(t, -1, node.Stage)
	assert.Equal(t, `condition not met: file_exists("package.json")`, node.Message)
}

func TestExecutor_Execute_ConditionError(t *testing.T) {
	probe := &MockProbe{}
	probe.On("CommandExists", "docker").Return(false, errors.New("permission denied"))

	cfg := mustParse(t, `
[checks.image]
run = "true"
enabled_if = { command_exists = "docker" }

[agent]
checks = ["image"]
`)

	logger := logging.NewTestLogger()
	exec := New(WithProbes(probe, probe), WithLogger(logger.Logger))

	report, err := exec.Execute(context.Background(), cfg, mode.Agent, Options{})
	require.NoError(t, err)

	res, _ := report.Result("image")
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Contains(t, res.Message, "condition evaluation failed")
	assert.Equal(t, StatusPassed, report.Status)
	logger.AssertLogged(t, zapcore.WarnLevel, "condition evaluation failed")
	entries := logger.FilterMessage("condition evaluation failed, skipping check").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "executor", entries[0].LoggerName)
}

func TestExecutor_Execute_CheckTimeout(t *testing.T) {
	cfg := mustParse(t, `
[checks.hang]
run = "sleep 30"
timeout = "200ms"

[agent]
checks = ["hang"]
`)

	start := time.Now()
	report, err := New().Execute(context.Background(), cfg, mode.Agent, Options{GracePeriod: 200 * time.Millisecond})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, StatusFailed, report.Status)

	res, _ := report.Result("hang")
	assert.Equal(t, StatusTimedOut, res.Status)
	assert.Nil(t, res.ExitCode)
	assert.Equal(t, "timed out after 200ms", res.Message)
}

func TestExecutor_Execute_RunTimeout(t *testing.T) {
	cfg := mustParse(t, `
[checks.hang]
run = "sleep 30"
[checks.after]
run = "true"

[agent]
checks = ["hang", "after"]
run_timeout = "200ms"
`)

	report, err := New().Execute(context.Background(), cfg, mode.Agent, Options{GracePeriod: 100 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, StatusTimedOut, report.Status)
	hang, _ := report.Result("hang")
	assert.Equal(t, StatusTimedOut, hang.Status)
	assert.Equal(t, ErrRunTimeout.Error(), hang.Message)

	after, _ := report.Result("after")
	assert.Equal(t, StatusSkipped, after.Status)
}

func TestExecutor_Execute_RunTimeoutOverride(t *testing.T) {
	cfg := mustParse(t, `
[checks.hang]
run = "sleep 30"

[agent]
checks = ["hang"]
`)

	report, err := New().Execute(context.Background(), cfg, mode.Agent, Options{
		RunTimeout:  150 * time.Millisecond,
		GracePeriod: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, report.Status)
}

func TestExecutor_Execute_Cancelled(t *testing.T) {
	cfg := mustParse(t, `
[checks.hang]
run = "sleep 30"
[checks.after]
run = "true"

[agent]
checks = ["hang", "after"]
`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	report, err := New().Execute(ctx, cfg, mode.Agent, Options{GracePeriod: 100 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, report.Status)
	assert.Equal(t, map[string]Status{
		"hang":  StatusCancelled,
		"after": StatusSkipped,
	}, statuses(report))
}

func TestExecutor_Execute_SpawnFailure(t *testing.T) {
	cfg := mustParse(t, `
[checks.a]
run = "true"

[agent]
checks = ["a"]
`)

	report, err := New().Execute(context.Background(), cfg, mode.Agent, Options{Dir: "/nonexistent/apc"})
	require.NoError(t, err)

	res, _ := report.Result("a")
	assert.Equal(t, StatusErrored, res.Status)
	assert.Nil(t, res.ExitCode)
	assert.Contains(t, res.Message, "failed to start")
	assert.Equal(t, StatusFailed, report.Status)
}

func TestExecutor_Execute_Env(t *testing.T) {
	cfg := mustParse(t, `
[checks.env]
run = 'test "$APC_TEST_VALUE" = "from-check" && test "$BASE" = "1"'
env = { APC_TEST_VALUE = "from-check" }

[agent]
checks = ["env"]
`)

	report, err := New().Execute(context.Background(), cfg, mode.Agent, Options{Env: []string{"BASE=1", "PATH=" + os.Getenv("PATH")}})
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, report.Status)
}

type fakeRedactor struct{}

func (fakeRedactor) RedactString(s string) string {
	return strings.ReplaceAll(s, "hunter2", "[REDACTED:test]")
}

func TestExecutor_Execute_Redactor(t *testing.T) {
	cfg := mustParse(t, `
[checks.leak]
run = "echo password=hunter2; echo token hunter2 >&2; exit 1"

[agent]
checks = ["leak"]
`)

	report, err := New(WithRedactor(fakeRedactor{})).Execute(context.Background(), cfg, mode.Agent, Options{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, "password=[REDACTED:test]\n", res.Stdout)
	assert.Equal(t, "token [REDACTED:test]\n", res.Stderr)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestExecutor_Execute_Only(t *testing.T) {
	cfg := mustParse(t, threeStages+`
[human]
checks = ["a", "b", "c"]
fail_fast = true
`)

	exec := New()

	report, err := exec.Execute(context.Background(), cfg, mode.Human, Options{Only: []string{"c"}})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusPassed, report.Status)

	_, err = exec.Execute(context.Background(), cfg, mode.Human, Options{Only: []string{"missing"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCheck)

	report, err = exec.Execute(context.Background(), cfg, mode.Human, Options{Only: []string{"c", "a", "c"}})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "c", report.Results[0].Name)
	assert.Equal(t, StatusPassed, report.Results[0].Status)
	assert.Equal(t, "a", report.Results[1].Name)
	assert.Equal(t, StatusFailed, report.Results[1].Status)
	assert.Equal(t, StatusFailed, report.Status)
}

func TestExecutor_Execute_InvalidMode(t *testing.T) {
	_, err := New().Execute(context.Background(), config.Default(), mode.Mode("robot"), Options{})
	assert.ErrorIs(t, err, mode.ErrUnknownMode)
}

func TestExecutor_Execute_EmptyMode(t *testing.T) {
	cfg := mustParse(t, `
[checks.a]
run = "true"

[human]
checks = ["a"]
`)

	report, err := New().Execute(context.Background(), cfg, mode.Agent, Options{})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, StatusPassed, report.Status)
}

func TestExecutor_Execute_Hooks(t *testing.T) {
	cfg := mustParse(t, threeStages+`
[human]
checks = ["a", "b", "c"]
fail_fast = true
`)

	var (
		mu     sync.Mutex
		events []hooks.Event
	)
	record := func(_ context.Context, ev hooks.Event) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
		return nil
	}

	m := hooks.NewManager()
	for _, typ := range []hooks.EventType{
		hooks.EventRunStart, hooks.EventStageStart, hooks.EventCheckStart,
		hooks.EventCheckFinish, hooks.EventRunEnd,
	} {
		m.RegisterHandler(typ, record)
	}

	report, err := New(WithHooks(m)).Execute(context.Background(), cfg, mode.Human, Options{})
	require.NoError(t, err)

	var types []hooks.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
		assert.Equal(t, report.ID, ev.RunID)
	}
	assert.Equal(t, []hooks.EventType{
		hooks.EventRunStart,
		hooks.EventStageStart,
		hooks.EventCheckStart,
		hooks.EventCheckFinish,
		hooks.EventCheckFinish,
		hooks.EventCheckFinish,
		hooks.EventRunEnd,
	}, types)

	end := events[len(events)-1]
	assert.Equal(t, string(StatusFailed), end.Status)
	assert.Equal(t, []string{"a", "b", "c"}, events[0].Checks)
}

func TestExecutor_Execute_HookErrorIsLogged(t *testing.T) {
	cfg := mustParse(t, `
[checks.a]
run = "true"

[agent]
checks = ["a"]
`)

	m := hooks.NewManager()
	m.RegisterHandler(hooks.EventRunEnd, func(context.Context, hooks.Event) error {
		return errors.New("sink unavailable")
	})
	logger := logging.NewTestLogger()

	report, err := New(WithHooks(m), WithLogger(logger.Logger)).Execute(context.Background(), cfg, mode.Agent, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, report.Status)
	logger.AssertLogged(t, zapcore.WarnLevel, "lifecycle hook failed")
}

func TestExecutor_Execute_Telemetry(t *testing.T) {
	cfg := mustParse(t, threeStages+`
[agent]
checks = ["a", "b", "c"]
`)

	tt := telemetry.NewTestTelemetry()
	exec := New(WithTracer(tt.Tracer("test")), WithMeter(tt.Meter("test")))

	report, err := exec.Execute(context.Background(), cfg, mode.Agent, Options{})
	require.NoError(t, err)

	tt.AssertSpanExists(t, "apc.run")
	tt.AssertSpanExists(t, "apc.check")
	tt.AssertSpanAttribute(t, "apc.run", "run.id", report.ID)
	tt.AssertSpanAttribute(t, "apc.run", "run.status", string(StatusFailed))

	require.NoError(t, tt.MetricReader.Collect(context.Background()))
	assert.Equal(t, int64(3), tt.MetricReader.Sum("apc.checks_total"))
	assert.Equal(t, int64(1), tt.MetricReader.Sum("apc.runs_total"))
}

func TestExecutor_Plan(t *testing.T) {
	probe := &MockProbe{}
	probe.On("FileExists", "Cargo.toml").Return(false, nil)

	cfg := mustParse(t, `
[checks.fmt]
run = "cargo fmt --check"
enabled_if = { file_exists = "Cargo.toml" }
[checks.lint]
run = "true"
[checks.unit]
run = "true"

[agent]
checks = ["fmt", "lint", "unit"]
parallel_groups = [["lint", "unit"]]
`)

	plan, err := New(WithProbes(probe, probe)).Plan(cfg, mode.Agent, Options{})
	require.NoError(t, err)

	assert.False(t, plan.FailFast)
	assert.Equal(t, []string{"fmt", "lint", "unit"}, plan.Checks)
	assert.Equal(t, []Stage{{Index: 0, Checks: []string{"lint", "unit"}}}, plan.Stages)
	require.Contains(t, plan.Skipped, "fmt")
	assert.Equal(t, StatusSkipped, plan.Skipped["fmt"].Status)
	probe.AssertExpectations(t)
}

func TestRunReport_Helpers(t *testing.T) {
	r := &RunReport{
		Status: StatusFailed,
		Results: []CheckResult{
			{Name: "a", Status: StatusPassed},
			{Name: "b", Status: StatusTimedOut},
			{Name: "c", Status: StatusSkipped},
		},
	}

	assert.False(t, r.Passed())
	assert.Equal(t, []CheckResult{{Name: "b", Status: StatusTimedOut}}, r.Failures())
	_, ok := r.Result("missing")
	assert.False(t, ok)
	assert.False(t, StatusSkipped.IsFailure())
	assert.True(t, StatusErrored.IsFailure())
}
