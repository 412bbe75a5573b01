package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// EventType represents different run lifecycle events
type EventType string

const (
	// EventRunStart is emitted once the plan is built, before any check runs
	EventRunStart EventType = "run_start"

	// EventStageStart is emitted before the checks of a stage launch
	EventStageStart EventType = "stage_start"

	// EventCheckStart is emitted when a check's subprocess is about to start
	EventCheckStart EventType = "check_start"

	// EventCheckFinish is emitted when a check's result is final, including skips
	EventCheckFinish EventType = "check_finish"

	// EventRunEnd is emitted after the last result is final
	EventRunEnd EventType = "run_end"
)

// Event carries the details of one lifecycle event. Fields irrelevant to
// the event type are left zero.
type Event struct {
	Type  EventType
	RunID string
	Mode  string

	// Stage is the zero-based stage index for stage and check events.
	Stage  int
	Checks []string

	Check    string
	Status   string
	ExitCode *int
	Duration time.Duration
	Message  string
}

// Handler is a function that handles a lifecycle event
type Handler func(ctx context.Context, ev Event) error

// Manager manages lifecycle handlers
type Manager struct {
	mu       sync.Mutex
	handlers map[EventType][]Handler
}

// NewManager creates a new hook manager
func NewManager() *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
	}
}

// RegisterHandler registers a handler for an event type
func (m *Manager) RegisterHandler(eventType EventType, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Emit runs all handlers for ev.Type in registration order. The first
// handler error stops dispatch. A nil Manager emits nothing.
func (m *Manager) Emit(ctx context.Context, ev Event) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, handler := range m.handlers[ev.Type] {
		if err := handler(ctx, ev); err != nil {
			return fmt.Errorf("hook %s failed: %w", ev.Type, err)
		}
	}
	return nil
}
