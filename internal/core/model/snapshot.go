package model

import "fmt"

// Mode is the current pomodoro phase.
type Mode string

const (
	ModeWork       Mode = "work"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

// DefaultTimeLeft is the time left reported before the first snapshot push.
const DefaultTimeLeft uint32 = 25 * 60

// ParseMode converts a wire string into a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeWork, ModeShortBreak, ModeLongBreak:
		return Mode(value), nil
	}
	return "", fmt.Errorf("unknown mode %q", value)
}

// IsBreak reports whether the mode is one of the break phases.
func (mode Mode) IsBreak() bool {
	return mode == ModeShortBreak || mode == ModeLongBreak
}

// Snapshot is the externally visible timer state.
type Snapshot struct {
	Mode              Mode
	TimeLeft          uint32
	IsActive          bool
	SessionsCompleted uint32
}

// DefaultSnapshot returns the state served before the timer pushes anything.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Mode:     ModeWork,
		TimeLeft: DefaultTimeLeft,
	}
}
