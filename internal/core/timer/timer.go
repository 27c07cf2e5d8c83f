package timer

import (
	"context"
	"math"
	"sync"
	"time"

	"pomodoro/internal/core/model"
)

// SnapshotSink receives every state the timer passes through.
type SnapshotSink interface {
	Update(snapshot model.Snapshot)
}

// Config contains runtime options for Timer.
type Config struct {
	TickInterval time.Duration
	Now          func() time.Time
}

// Timer is the pomodoro state machine: work sessions alternate with short
// breaks, and every LongBreakInterval-th break is a long one.
type Timer struct {
	mu           sync.Mutex
	config       model.TimerConfig
	options      Config
	mode         model.Mode
	remaining    uint32
	elapsed      uint32
	active       bool
	sessions     uint32
	pausedByIdle bool
	sink         SnapshotSink
	events       []chan Event
}

// New creates a Timer in the inactive work phase.
func New(config model.TimerConfig, options Config, sink SnapshotSink) *Timer {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	timer := &Timer{
		config:  config,
		options: options,
		mode:    model.ModeWork,
		sink:    sink,
	}
	timer.remaining = timer.fullLocked(model.ModeWork)
	return timer
}

// Subscribe registers a new observer channel.
func (timer *Timer) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	timer.mu.Lock()
	timer.events = append(timer.events, ch)
	timer.mu.Unlock()
	return ch
}

// Snapshot returns the current state.
func (timer *Timer) Snapshot() model.Snapshot {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	return timer.snapshotLocked()
}

// Run pushes the initial snapshot and ticks until ctx is cancelled, then
// closes all observer channels.
func (timer *Timer) Run(ctx context.Context) {
	timer.mu.Lock()
	timer.changedLocked()
	timer.mu.Unlock()

	ticker := time.NewTicker(timer.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.closeObservers()
			return
		case <-ticker.C:
			timer.tick()
		}
	}
}

// Toggle starts a stopped timer or stops a running one.
func (timer *Timer) Toggle() {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	timer.active = !timer.active
	timer.pausedByIdle = false
	timer.changedLocked()
}

// Start resumes the countdown if it is stopped.
func (timer *Timer) Start() {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	if timer.active {
		return
	}
	timer.active = true
	timer.pausedByIdle = false
	timer.changedLocked()
}

// Stop pauses the countdown if it is running.
func (timer *Timer) Stop() {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	if !timer.active {
		return
	}
	timer.active = false
	timer.pausedByIdle = false
	timer.changedLocked()
}

// Skip ends the current phase without recording it. Skipping work still
// counts the session.
func (timer *Timer) Skip() {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	if timer.mode == model.ModeWork {
		timer.sessions++
		timer.enterLocked(timer.config.NextBreak(timer.sessions))
	} else {
		timer.enterLocked(model.ModeWork)
	}
	timer.active = false
	timer.pausedByIdle = false
	timer.changedLocked()
}

// Reset restarts the current phase, stopped.
func (timer *Timer) Reset() {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	timer.enterLocked(timer.mode)
	timer.active = false
	timer.pausedByIdle = false
	timer.changedLocked()
}

// Extend adds seconds to the current phase, saturating at math.MaxUint32.
func (timer *Timer) Extend(seconds uint32) {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	if timer.remaining > math.MaxUint32-seconds {
		timer.remaining = math.MaxUint32
	} else {
		timer.remaining += seconds
	}
	timer.changedLocked()
}

// IdlePause stops a running timer and remembers that idleness stopped it.
func (timer *Timer) IdlePause() {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	if !timer.active {
		return
	}
	timer.active = false
	timer.pausedByIdle = true
	timer.changedLocked()
}

// IdleResume restarts the timer only if IdlePause stopped it.
func (timer *Timer) IdleResume() {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	if !timer.pausedByIdle {
		return
	}
	timer.active = true
	timer.pausedByIdle = false
	timer.changedLocked()
}

// UpdateConfig applies new settings. A phase that has not started yet is
// resized; a phase in progress keeps its remaining time.
func (timer *Timer) UpdateConfig(config model.TimerConfig) {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	untouched := !timer.active && timer.elapsed == 0 && timer.remaining == timer.fullLocked(timer.mode)
	timer.config = config
	if untouched {
		timer.remaining = timer.fullLocked(timer.mode)
		timer.changedLocked()
	}
}

func (timer *Timer) tick() {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	if !timer.active {
		return
	}

	if timer.remaining > 0 {
		timer.remaining--
		timer.elapsed++
	}
	if timer.remaining > 0 {
		timer.pushLocked()
		timer.emitLocked(Event{Type: EventTick, Snapshot: timer.snapshotLocked(), At: timer.options.Now()})
		return
	}
	timer.completeLocked()
}

func (timer *Timer) completeLocked() {
	completed := timer.mode
	elapsed := time.Duration(timer.elapsed) * time.Second

	if completed == model.ModeWork {
		timer.sessions++
		timer.enterLocked(timer.config.NextBreak(timer.sessions))
		timer.active = timer.config.AutoStartBreaks
	} else {
		timer.enterLocked(model.ModeWork)
		timer.active = timer.config.AutoStartWork
	}

	timer.pushLocked()
	snapshot := timer.snapshotLocked()
	now := timer.options.Now()
	timer.emitLocked(Event{
		Type:      EventSessionComplete,
		Snapshot:  snapshot,
		Completed: completed,
		Elapsed:   elapsed,
		At:        now,
	})
	timer.emitLocked(Event{Type: EventStateChange, Snapshot: snapshot, At: now})
}

func (timer *Timer) enterLocked(mode model.Mode) {
	timer.mode = mode
	timer.remaining = timer.fullLocked(mode)
	timer.elapsed = 0
}

func (timer *Timer) fullLocked(mode model.Mode) uint32 {
	seconds := timer.config.Duration(mode) / time.Second
	if seconds <= 0 {
		return 0
	}
	if seconds > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(seconds)
}

func (timer *Timer) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Mode:              timer.mode,
		TimeLeft:          timer.remaining,
		IsActive:          timer.active,
		SessionsCompleted: timer.sessions,
	}
}

func (timer *Timer) changedLocked() {
	timer.pushLocked()
	timer.emitLocked(Event{Type: EventStateChange, Snapshot: timer.snapshotLocked(), At: timer.options.Now()})
}

func (timer *Timer) pushLocked() {
	if timer.sink != nil {
		timer.sink.Update(timer.snapshotLocked())
	}
}

func (timer *Timer) emitLocked(event Event) {
	for _, ch := range timer.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func (timer *Timer) closeObservers() {
	timer.mu.Lock()
	events := timer.events
	timer.events = nil
	timer.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}
