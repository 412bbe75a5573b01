package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/agent-precommit/internal/detector"
	"github.com/fyrsmithlabs/agent-precommit/internal/executor"
	"github.com/fyrsmithlabs/agent-precommit/internal/hooks"
	"github.com/fyrsmithlabs/agent-precommit/internal/runner"
)

// outputTailLines bounds how much of a failed check's output is shown.
const outputTailLines = 40

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			PaddingLeft(4)
)

func statusSymbol(s executor.Status) string {
	switch s {
	case executor.StatusPassed:
		return passStyle.Render("✓")
	case executor.StatusFailed, executor.StatusErrored:
		return failStyle.Render("✗")
	case executor.StatusTimedOut:
		return warnStyle.Render("⏱")
	case executor.StatusCancelled:
		return warnStyle.Render("⊘")
	}
	return dimStyle.Render("-")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// progressPrinter writes one line per finished check as a run progresses.
type progressPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *progressPrinter) register(m *hooks.Manager) {
	m.RegisterHandler(hooks.EventRunStart, p.handle)
	m.RegisterHandler(hooks.EventCheckFinish, p.handle)
}

func (p *progressPrinter) handle(_ context.Context, ev hooks.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Type {
	case hooks.EventRunStart:
		_, err := fmt.Fprintf(p.w, "%s %s\n",
			titleStyle.Render("apc"),
			dimStyle.Render(fmt.Sprintf("%s mode, %d checks", ev.Mode, len(ev.Checks))))
		return err
	case hooks.EventCheckFinish:
		line := fmt.Sprintf("  %s %s", statusSymbol(executor.Status(ev.Status)), ev.Check)
		switch executor.Status(ev.Status) {
		case executor.StatusSkipped:
			line += " " + dimStyle.Render("("+ev.Message+")")
		default:
			line += " " + dimStyle.Render(formatDuration(ev.Duration))
		}
		_, err := fmt.Fprintln(p.w, line)
		return err
	}
	return nil
}

// renderReport writes failure details and a one-line summary.
func renderReport(w io.Writer, report *executor.RunReport) {
	for _, res := range report.Failures() {
		fmt.Fprintf(w, "\n%s %s %s\n", statusSymbol(res.Status), failStyle.Render(res.Name), dimStyle.Render(res.Message))
		if out := tail(strings.TrimRight(res.Stdout+res.Stderr, "\n"), outputTailLines); out != "" {
			fmt.Fprintln(w, outputStyle.Render(out))
		}
	}

	counts := report.Counts()
	var parts []string
	for _, s := range []executor.Status{
		executor.StatusPassed, executor.StatusFailed, executor.StatusErrored,
		executor.StatusTimedOut, executor.StatusCancelled, executor.StatusSkipped,
	} {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ReplaceAll(string(s), "_", " ")))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "no checks")
	}

	style := passStyle
	switch report.Status {
	case executor.StatusFailed:
		style = failStyle
	case executor.StatusTimedOut, executor.StatusCancelled:
		style = warnStyle
	}
	fmt.Fprintf(w, "\n%s %s %s\n",
		style.Render(strings.ToUpper(strings.ReplaceAll(string(report.Status), "_", " "))),
		strings.Join(parts, ", "),
		dimStyle.Render("in "+formatDuration(report.Duration)))
}

// tail returns the last n lines of s, noting how many were cut.
func tail(s string, n int) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	cut := len(lines) - n
	return fmt.Sprintf("... %d lines omitted\n%s", cut, strings.Join(lines[cut:], "\n"))
}

// renderExplain writes the detection trace and the resulting plan.
func renderExplain(w io.Writer, det detector.Detection, ws *runner.Workspace, plan *executor.Plan) {
	fmt.Fprintf(w, "%s %s %s\n", labelStyle.Render("mode:"), titleStyle.Render(det.Mode.String()), dimStyle.Render("("+det.Reason()+")"))

	fmt.Fprintln(w, labelStyle.Render("signals:"))
	for _, s := range det.Signals {
		mark := dimStyle.Render("·")
		if s.Matched {
			mark = passStyle.Render("→")
		}
		line := fmt.Sprintf("  %s %-17s %s", mark, s.Rule, s.Source)
		if s.Value != "" {
			line += "=" + s.Value
		}
		fmt.Fprintln(w, line)
	}
	if det.ParentProcess != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("parent process:"), det.ParentProcess)
	}

	root := ws.Root
	if ws.InRepo && ws.Branch != "" {
		root += dimStyle.Render(" (" + ws.Branch + ")")
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("root:"), root)
	cfgPath := ws.Config.Path
	if cfgPath == "" {
		cfgPath = dimStyle.Render("built-in defaults")
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("config:"), cfgPath)

	if plan == nil {
		return
	}
	policy := "aggregate"
	if plan.FailFast {
		policy = "fail-fast"
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("policy:"), policy)
	fmt.Fprintln(w, labelStyle.Render("stages:"))
	if len(plan.Stages) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  (none)"))
	}
	for _, st := range plan.Stages {
		fmt.Fprintf(w, "  %d. %s\n", st.Index+1, strings.Join(st.Checks, ", "))
	}
	for _, name := range plan.Checks {
		if res, ok := plan.Skipped[name]; ok {
			fmt.Fprintf(w, "  %s %s %s\n", statusSymbol(executor.StatusSkipped), name, dimStyle.Render(res.Message))
		}
	}
}
