package timer

import (
	"time"

	"pomodoro/internal/core/model"
)

// EventType defines the type of Timer event.
type EventType string

const (
	EventStateChange     EventType = "state_change"
	EventTick            EventType = "tick"
	EventSessionComplete EventType = "session_complete"
)

// Event represents a Timer update for observers.
type Event struct {
	Type     EventType
	Snapshot model.Snapshot
	// Completed and Elapsed are set for EventSessionComplete only.
	Completed model.Mode
	Elapsed   time.Duration
	At        time.Time
}
