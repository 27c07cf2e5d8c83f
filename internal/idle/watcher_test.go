package idle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/control"
	"pomodoro/internal/logging"
)

var errQuery = errors.New("screensaver unavailable")

type reading struct {
	idle time.Duration
	err  error
}

type scriptedOracle struct {
	mu       sync.Mutex
	readings []reading
	queries  int
}

func (oracle *scriptedOracle) IdleTime(context.Context) (time.Duration, error) {
	oracle.mu.Lock()
	defer oracle.mu.Unlock()
	oracle.queries++
	if len(oracle.readings) == 0 {
		return 0, errQuery
	}
	next := oracle.readings[0]
	if len(oracle.readings) > 1 {
		oracle.readings = oracle.readings[1:]
	}
	return next.idle, next.err
}

func (oracle *scriptedOracle) push(readings ...reading) {
	oracle.mu.Lock()
	defer oracle.mu.Unlock()
	oracle.readings = append(oracle.readings, readings...)
}

type recorder struct {
	mu     sync.Mutex
	events []control.EventName
}

func (r *recorder) Publish(event control.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.Name)
}

func (r *recorder) names() []control.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]control.EventName(nil), r.events...)
}

func idleFor(seconds int) reading {
	return reading{idle: time.Duration(seconds) * time.Second}
}

func newTestWatcher(readings ...reading) (*Watcher, *scriptedOracle, *recorder) {
	oracle := &scriptedOracle{readings: readings}
	sink := &recorder{}
	return NewWatcher(oracle, sink, logging.Discard()), oracle, sink
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		idle time.Duration
		want bool
	}{
		{"zero", 0, false},
		{"just below", 299 * time.Second, false},
		{"sub-second below", 299*time.Second + 999*time.Millisecond, false},
		{"exactly threshold", 300 * time.Second, true},
		{"above", 310 * time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.idle, Threshold))
		})
	}
}

func TestWatcher_DisabledByDefault(t *testing.T) {
	watcher, oracle, sink := newTestWatcher(idleFor(400))

	watcher.Tick(context.Background())

	assert.False(t, watcher.Enabled())
	assert.Zero(t, oracle.queries)
	assert.Empty(t, sink.names())
}

func TestWatcher_EdgesOnly(t *testing.T) {
	watcher, _, sink := newTestWatcher(
		idleFor(10), idleFor(305), idleFor(315), idleFor(325), idleFor(2), idleFor(3), idleFor(301),
	)
	watcher.SetEnabled(true)

	for i := 0; i < 7; i++ {
		watcher.Tick(context.Background())
	}

	assert.Equal(t, []control.EventName{
		control.EventIdlePause,
		control.EventIdleResume,
		control.EventIdlePause,
	}, sink.names())
}

func TestWatcher_FailedQueriesAreSkipped(t *testing.T) {
	watcher, oracle, sink := newTestWatcher()
	for i := 0; i < 10; i++ {
		oracle.push(reading{err: errQuery})
	}
	oracle.push(idleFor(310))
	watcher.SetEnabled(true)

	for i := 0; i < 10; i++ {
		watcher.Tick(context.Background())
	}
	require.Empty(t, sink.names())

	watcher.Tick(context.Background())

	assert.Equal(t, []control.EventName{control.EventIdlePause}, sink.names())
	assert.Equal(t, 11, oracle.queries)
}

func TestWatcher_FailedQueryKeepsEdge(t *testing.T) {
	watcher, _, sink := newTestWatcher(idleFor(400), reading{err: errQuery}, idleFor(400))
	watcher.SetEnabled(true)

	watcher.Tick(context.Background())
	watcher.Tick(context.Background())
	watcher.Tick(context.Background())

	assert.Equal(t, []control.EventName{control.EventIdlePause}, sink.names())
}

func TestWatcher_ReenableClearsEdge(t *testing.T) {
	watcher, oracle, sink := newTestWatcher(idleFor(400))
	watcher.SetEnabled(true)
	watcher.Tick(context.Background())
	require.Equal(t, []control.EventName{control.EventIdlePause}, sink.names())

	watcher.SetEnabled(false)
	watcher.Tick(context.Background())
	queriesWhileDisabled := oracle.queries

	watcher.SetEnabled(true)
	watcher.Tick(context.Background())

	assert.Equal(t, 1, queriesWhileDisabled)
	assert.Equal(t, []control.EventName{control.EventIdlePause, control.EventIdlePause}, sink.names())
}

func TestWatcher_NoEventsWhileDisabled(t *testing.T) {
	watcher, _, sink := newTestWatcher(idleFor(400), idleFor(0))
	watcher.SetEnabled(true)
	watcher.Tick(context.Background())

	watcher.SetEnabled(false)
	watcher.Tick(context.Background())
	watcher.Tick(context.Background())

	assert.Equal(t, []control.EventName{control.EventIdlePause}, sink.names())
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	oracle := &scriptedOracle{readings: []reading{idleFor(400)}}
	sink := &recorder{}
	watcher := NewWatcher(oracle, sink, logging.Discard(), WithInterval(5*time.Millisecond))
	watcher.SetEnabled(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watcher.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(sink.names()) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []control.EventName{control.EventIdlePause}, sink.names())
}
