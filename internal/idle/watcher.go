// Package idle pauses and resumes the timer when the user walks away.
package idle

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"pomodoro/internal/control"
)

const (
	// PollInterval is the delay between two idle-time queries.
	PollInterval = 10 * time.Second
	// Threshold is how long the session must be inactive to count as idle.
	Threshold = 300 * time.Second
)

// Oracle reports how long the desktop session has been without user input.
type Oracle interface {
	IdleTime(ctx context.Context) (time.Duration, error)
}

// Watcher polls an Oracle and publishes idle-pause/idle-resume on edges.
// Detection starts disabled.
type Watcher struct {
	oracle    Oracle
	sink      control.Publisher
	logger    *slog.Logger
	interval  time.Duration
	threshold time.Duration

	enabled atomic.Bool
	// wasIdle is only touched by the polling goroutine.
	wasIdle bool
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithInterval overrides PollInterval.
func WithInterval(interval time.Duration) Option {
	return func(watcher *Watcher) {
		if interval > 0 {
			watcher.interval = interval
		}
	}
}

// NewWatcher creates a disabled watcher.
func NewWatcher(oracle Oracle, sink control.Publisher, logger *slog.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	watcher := &Watcher{
		oracle:    oracle,
		sink:      sink,
		logger:    logger,
		interval:  PollInterval,
		threshold: Threshold,
	}
	for _, opt := range opts {
		opt(watcher)
	}
	return watcher
}

// SetEnabled turns detection on or off. Safe to call from any goroutine.
func (watcher *Watcher) SetEnabled(enabled bool) {
	if watcher.enabled.Swap(enabled) != enabled {
		watcher.logger.Info("idle detection toggled", "enabled", enabled)
	}
}

// Enabled reports whether detection is on.
func (watcher *Watcher) Enabled() bool {
	return watcher.enabled.Load()
}

// Run polls until ctx is cancelled. It must be started at most once.
func (watcher *Watcher) Run(ctx context.Context) {
	timer := time.NewTimer(watcher.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			watcher.Tick(ctx)
			timer.Reset(watcher.interval)
		}
	}
}

// Tick performs one polling cycle.
func (watcher *Watcher) Tick(ctx context.Context) {
	if !watcher.enabled.Load() {
		watcher.wasIdle = false
		return
	}

	idleTime, err := watcher.oracle.IdleTime(ctx)
	if err != nil {
		watcher.logger.Debug("idle query failed", "error", err)
		return
	}

	isIdle := Classify(idleTime, watcher.threshold)
	switch {
	case isIdle && !watcher.wasIdle:
		watcher.sink.Publish(control.Event{Name: control.EventIdlePause})
	case !isIdle && watcher.wasIdle:
		watcher.sink.Publish(control.Event{Name: control.EventIdleResume})
	}
	watcher.wasIdle = isIdle
}

// Classify reports whether idleTime, truncated to whole seconds, reaches threshold.
func Classify(idleTime, threshold time.Duration) bool {
	return idleTime.Truncate(time.Second) >= threshold
}
