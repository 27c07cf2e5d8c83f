package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/control"
	"pomodoro/internal/core/model"
	"pomodoro/internal/core/timer"
	"pomodoro/internal/logging"
	"pomodoro/internal/storage"
)

type recordingController struct {
	calls []string
}

func (controller *recordingController) Toggle() {
	controller.calls = append(controller.calls, "toggle")
}

func (controller *recordingController) Start() {
	controller.calls = append(controller.calls, "start")
}

func (controller *recordingController) Stop() {
	controller.calls = append(controller.calls, "stop")
}

func (controller *recordingController) Skip() {
	controller.calls = append(controller.calls, "skip")
}

func (controller *recordingController) Reset() {
	controller.calls = append(controller.calls, "reset")
}

func (controller *recordingController) IdlePause() {
	controller.calls = append(controller.calls, "idle-pause")
}

func (controller *recordingController) IdleResume() {
	controller.calls = append(controller.calls, "idle-resume")
}

func (controller *recordingController) Extend(seconds uint32) {
	controller.calls = append(controller.calls, "extend")
}

type staticOracle struct {
	mu   sync.Mutex
	idle time.Duration
}

func (oracle *staticOracle) IdleTime(context.Context) (time.Duration, error) {
	oracle.mu.Lock()
	defer oracle.mu.Unlock()
	return oracle.idle, nil
}

func (oracle *staticOracle) set(idle time.Duration) {
	oracle.mu.Lock()
	defer oracle.mu.Unlock()
	oracle.idle = idle
}

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (notifier *recordingNotifier) Notify(title, _ string) {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.titles = append(notifier.titles, title)
}

func (notifier *recordingNotifier) count() int {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return len(notifier.titles)
}

func noBus(context.Context) (*dbus.Conn, error) {
	return nil, errors.New("no session bus")
}

func TestDispatch_MapsEveryEvent(t *testing.T) {
	controller := &recordingController{}
	names := []control.EventName{
		control.EventToggle,
		control.EventStart,
		control.EventStop,
		control.EventSkip,
		control.EventReset,
		control.EventExtend,
		control.EventIdlePause,
		control.EventIdleResume,
	}

	for _, name := range names {
		assert.True(t, Dispatch(controller, control.Event{Name: name}), name)
	}
	assert.False(t, Dispatch(controller, control.Event{Name: "launch"}))

	assert.Equal(t, []string{"toggle", "start", "stop", "skip", "reset", "extend", "idle-pause", "idle-resume"}, controller.calls)
}

func TestDispatch_ExtendForwardsSeconds(t *testing.T) {
	timerState := timer.New(model.DefaultSettings().TimerConfig(), timer.Config{}, nil)

	Dispatch(timerState, control.Event{Name: control.EventExtend, Seconds: 90})

	assert.Equal(t, uint32(1590), timerState.Snapshot().TimeLeft)
}

func newTestApp(t *testing.T, settings model.Settings, options Options) (*App, string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, storage.SaveSettings(settingsPath, settings))

	options.SettingsPath = settingsPath
	if options.HistoryPath == "" {
		options.HistoryPath = filepath.Join(dir, "history.db")
	}
	options.Logger = logging.Discard()
	options.Connect = noBus
	if options.Oracle == nil {
		options.Oracle = &staticOracle{}
	}

	application, err := New(context.Background(), options)
	require.NoError(t, err)
	return application, settingsPath
}

func runApp(t *testing.T, application *App) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = application.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestNew_WithoutBusStillServesRegister(t *testing.T) {
	application, _ := newTestApp(t, model.DefaultSettings(), Options{})

	assert.Equal(t, model.DefaultSnapshot(), application.Register().Read())
}

func TestRun_PublishedEventsDriveTheRegister(t *testing.T) {
	application, _ := newTestApp(t, model.DefaultSettings(), Options{TickInterval: time.Hour})
	runApp(t, application)

	application.Publisher().Publish(control.Event{Name: control.EventToggle})
	require.Eventually(t, func() bool {
		return application.Register().Read().IsActive
	}, time.Second, 5*time.Millisecond)

	application.Publisher().Publish(control.Event{Name: control.EventExtend, Seconds: 60})
	require.Eventually(t, func() bool {
		return application.Register().Read().TimeLeft == 1560
	}, time.Second, 5*time.Millisecond)
}

func TestRun_RecordsCompletedSessions(t *testing.T) {
	settings := model.DefaultSettings()
	settings.Work = time.Second
	notifier := &recordingNotifier{}
	historyPath := filepath.Join(t.TempDir(), "history.db")
	application, _ := newTestApp(t, settings, Options{
		TickInterval: 5 * time.Millisecond,
		Notifier:     notifier,
		HistoryPath:  historyPath,
	})
	cancel := runApp(t, application)

	application.Publisher().Publish(control.Event{Name: control.EventStart})
	require.Eventually(t, func() bool {
		return application.Register().Read().Mode == model.ModeShortBreak
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	require.Eventually(t, func() bool {
		history, err := storage.OpenHistory(context.Background(), historyPath)
		if err != nil {
			return false
		}
		defer history.Close()
		stat, err := history.DailyStats(context.Background(), time.Now().UTC().Format("2006-01-02"))
		return err == nil && stat.Count == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRun_IdleWatcherPausesAndResumes(t *testing.T) {
	settings := model.DefaultSettings()
	settings.PauseWhenIdle = true
	oracle := &staticOracle{}
	application, _ := newTestApp(t, settings, Options{
		TickInterval: time.Hour,
		IdleInterval: 5 * time.Millisecond,
		Oracle:       oracle,
	})
	runApp(t, application)

	application.Publisher().Publish(control.Event{Name: control.EventStart})
	require.Eventually(t, func() bool { return application.Register().Read().IsActive }, time.Second, 5*time.Millisecond)

	oracle.set(10 * time.Minute)
	require.Eventually(t, func() bool { return !application.Register().Read().IsActive }, time.Second, 5*time.Millisecond)

	oracle.set(0)
	require.Eventually(t, func() bool { return application.Register().Read().IsActive }, time.Second, 5*time.Millisecond)
}

func TestApplySettings_TogglesIdleAndResizesTimer(t *testing.T) {
	application, _ := newTestApp(t, model.DefaultSettings(), Options{})

	updated := model.DefaultSettings()
	updated.PauseWhenIdle = true
	updated.Work = 50 * time.Minute
	application.ApplySettings(updated)

	assert.True(t, application.watcher.Enabled())
	assert.Equal(t, uint32(3000), application.Register().Read().TimeLeft)
	assert.Equal(t, updated, application.Settings())
}

func TestApplySettings_NotifiesListeners(t *testing.T) {
	application, _ := newTestApp(t, model.DefaultSettings(), Options{})
	var strict []bool
	application.OnSettingsChange(func(settings model.Settings) {
		strict = append(strict, settings.StrictBreak)
	})

	updated := model.DefaultSettings()
	updated.StrictBreak = true
	application.ApplySettings(updated)
	application.ApplySettings(model.DefaultSettings())

	assert.Equal(t, []bool{true, false}, strict)
}

func TestRun_ReloadsSettingsFile(t *testing.T) {
	application, settingsPath := newTestApp(t, model.DefaultSettings(), Options{TickInterval: time.Hour})
	runApp(t, application)

	updated := model.DefaultSettings()
	updated.PauseWhenIdle = true
	require.Eventually(t, func() bool {
		require.NoError(t, storage.SaveSettings(settingsPath, updated))
		return application.watcher.Enabled()
	}, 3*time.Second, 100*time.Millisecond)
}
