package condition

import (
	"fmt"
	"sync"
)

// FileProbe answers filesystem questions for leaf predicates.
type FileProbe interface {
	FileExists(path string) (bool, error)
	DirExists(path string) (bool, error)
}

// CommandProbe answers whether a command is resolvable.
type CommandProbe interface {
	CommandExists(name string) (bool, error)
}

// EvalError reports that a probe failed while evaluating a leaf predicate.
// The enclosing condition is treated as false.
type EvalError struct {
	Expr Expr
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %s: %v", e.Expr, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

type probeKind int

const (
	probeFile probeKind = iota
	probeDir
	probeCommand
)

type probeKey struct {
	kind probeKind
	arg  string
}

type probeResult struct {
	ok  bool
	err error
}

// Evaluator evaluates expressions, caching leaf results for its lifetime.
// Create one per run. Safe for concurrent use.
type Evaluator struct {
	files    FileProbe
	commands CommandProbe

	mu    sync.Mutex
	cache map[probeKey]probeResult
}

// NewEvaluator creates an evaluator backed by the given probes.
func NewEvaluator(files FileProbe, commands CommandProbe) *Evaluator {
	return &Evaluator{
		files:    files,
		commands: commands,
		cache:    make(map[probeKey]probeResult),
	}
}

// Eval reports whether e holds. A nil expression always holds. On a probe
// failure Eval returns false and an *EvalError.
func (ev *Evaluator) Eval(e Expr) (bool, error) {
	if e == nil {
		return true, nil
	}

	switch v := e.(type) {
	case FileExists:
		return ev.probe(e, probeKey{probeFile, v.Path})
	case DirExists:
		return ev.probe(e, probeKey{probeDir, v.Path})
	case CommandExists:
		return ev.probe(e, probeKey{probeCommand, v.Name})
	case All:
		for _, sub := range v.Exprs {
			ok, err := ev.Eval(sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Any:
		for _, sub := range v.Exprs {
			ok, err := ev.Eval(sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		ok, err := ev.Eval(v.Expr)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
	return false, fmt.Errorf("unsupported condition %T", e)
}

func (ev *Evaluator) probe(e Expr, key probeKey) (bool, error) {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	res, ok := ev.cache[key]
	if !ok {
		switch key.kind {
		case probeFile:
			res.ok, res.err = ev.files.FileExists(key.arg)
		case probeDir:
			res.ok, res.err = ev.files.DirExists(key.arg)
		case probeCommand:
			res.ok, res.err = ev.commands.CommandExists(key.arg)
		}
		ev.cache[key] = res
	}

	if res.err != nil {
		return false, &EvalError{Expr: e, Err: res.err}
	}
	return res.ok, nil
}
