// Package app wires the timer, the control plane, idle detection, settings
// and history into one running process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"pomodoro/internal/control"
	"pomodoro/internal/core/model"
	"pomodoro/internal/core/timer"
	"pomodoro/internal/idle"
	"pomodoro/internal/platform"
	"pomodoro/internal/storage"
)

// Name is used for config, data and autostart locations.
const Name = "pomodoro"

const eventBuffer = 64

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(title, content string)
}

// Controller is the set of timer operations control events map to.
type Controller interface {
	Toggle()
	Start()
	Stop()
	Skip()
	Reset()
	Extend(seconds uint32)
	IdlePause()
	IdleResume()
}

// Options configures an App. Empty paths use the XDG defaults.
type Options struct {
	SettingsPath string
	HistoryPath  string
	Logger       *slog.Logger
	Locale       control.Locale
	Notifier     Notifier
	// Connect opens the session bus. Defaults to dbus.ConnectSessionBus.
	Connect func(ctx context.Context) (*dbus.Conn, error)
	// Oracle overrides the platform idle provider.
	Oracle       idle.Oracle
	TickInterval time.Duration
	IdleInterval time.Duration
}

// App is one running pomodoro process.
type App struct {
	options  Options
	logger   *slog.Logger
	register *control.Register
	bus      *control.Bus
	timer    *timer.Timer
	watcher  *idle.Watcher
	history  *storage.History
	conn     *dbus.Conn

	commands <-chan control.Event
	events   <-chan timer.Event

	mu        sync.Mutex
	settings  model.Settings
	listeners []func(model.Settings)
}

// New loads settings and builds every component. Only unreadable settings
// are fatal; the bus, the idle oracle and history degrade with a warning.
func New(ctx context.Context, options Options) (*App, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if options.Connect == nil {
		options.Connect = func(ctx context.Context) (*dbus.Conn, error) {
			return dbus.ConnectSessionBus(dbus.WithContext(ctx))
		}
	}
	if options.SettingsPath == "" {
		path, err := storage.SettingsPath(Name)
		if err != nil {
			return nil, err
		}
		options.SettingsPath = path
	}

	settings, err := storage.LoadSettings(options.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	application := &App{
		options:  options,
		logger:   logger,
		register: control.NewRegister(logger),
		bus:      control.NewBus(),
		settings: settings,
	}
	application.commands = application.bus.Subscribe(eventBuffer)
	application.timer = timer.New(settings.TimerConfig(), timer.Config{TickInterval: options.TickInterval}, application.register)
	application.events = application.timer.Subscribe(eventBuffer)

	conn, err := options.Connect(ctx)
	if err != nil {
		logger.Warn("session bus unavailable; remote control disabled", "error", err)
	} else {
		application.conn = conn
		service := control.NewService(application.register, application.bus, logger)
		if err := service.Serve(conn); err != nil {
			if errors.Is(err, control.ErrNameTaken) {
				logger.Warn("another instance owns the control service", "name", control.BusName)
			} else {
				logger.Warn("control service registration failed", "error", err)
			}
		}
	}

	oracle := options.Oracle
	if oracle == nil {
		oracle = platform.NewIdleProvider(application.conn)
	}
	var watcherOptions []idle.Option
	if options.IdleInterval > 0 {
		watcherOptions = append(watcherOptions, idle.WithInterval(options.IdleInterval))
	}
	application.watcher = idle.NewWatcher(oracle, application.bus, logger, watcherOptions...)
	application.watcher.SetEnabled(settings.PauseWhenIdle)

	application.openHistory(ctx)
	application.syncAutostart(settings)
	return application, nil
}

// Publisher returns the event sink used by the control service and the tray.
func (application *App) Publisher() control.Publisher {
	return application.bus
}

// Register returns the shared state register.
func (application *App) Register() *control.Register {
	return application.register
}

// Subscribe observes timer events. Call before Run.
func (application *App) Subscribe(buffer int) <-chan timer.Event {
	return application.timer.Subscribe(buffer)
}

// Settings returns the settings currently in effect.
func (application *App) Settings() model.Settings {
	application.mu.Lock()
	defer application.mu.Unlock()
	return application.settings
}

// Run drives every component until ctx is cancelled.
func (application *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { application.timer.Run(ctx) })
	run(func() { application.watcher.Run(ctx) })
	run(func() { application.dispatch() })
	run(func() { application.record(ctx) })

	if err := storage.WatchSettings(ctx, application.options.SettingsPath, application.logger, application.ApplySettings); err != nil {
		application.logger.Warn("settings live reload disabled", "error", err)
	}

	application.logger.Info("pomodoro running", "settings", application.options.SettingsPath)
	<-ctx.Done()
	application.bus.Close()
	wg.Wait()
	application.close()
	return nil
}

// OnSettingsChange registers fn to run after ApplySettings.
func (application *App) OnSettingsChange(fn func(model.Settings)) {
	application.mu.Lock()
	defer application.mu.Unlock()
	application.listeners = append(application.listeners, fn)
}

// ApplySettings puts reloaded settings into effect.
func (application *App) ApplySettings(settings model.Settings) {
	application.mu.Lock()
	application.settings = settings
	listeners := append([]func(model.Settings){}, application.listeners...)
	application.mu.Unlock()

	application.watcher.SetEnabled(settings.PauseWhenIdle)
	application.timer.UpdateConfig(settings.TimerConfig())
	application.syncAutostart(settings)
	for _, listener := range listeners {
		listener(settings)
	}
}

// Dispatch applies one control event to controller. Unknown events are
// reported as not handled.
func Dispatch(controller Controller, event control.Event) bool {
	switch event.Name {
	case control.EventToggle:
		controller.Toggle()
	case control.EventStart:
		controller.Start()
	case control.EventStop:
		controller.Stop()
	case control.EventSkip:
		controller.Skip()
	case control.EventReset:
		controller.Reset()
	case control.EventExtend:
		controller.Extend(event.Seconds)
	case control.EventIdlePause:
		controller.IdlePause()
	case control.EventIdleResume:
		controller.IdleResume()
	default:
		return false
	}
	return true
}

func (application *App) dispatch() {
	for event := range application.commands {
		if !Dispatch(application.timer, event) {
			application.logger.Warn("unknown control event", "event", event.Name)
		}
	}
}

func (application *App) record(ctx context.Context) {
	for event := range application.events {
		if event.Type != timer.EventSessionComplete {
			continue
		}
		application.logger.Info("session complete", "mode", event.Completed, "elapsed", event.Elapsed)

		if application.history != nil {
			if err := application.history.SaveSession(ctx, event.Completed, event.Elapsed); err != nil && ctx.Err() == nil {
				application.logger.Warn("save session failed", "error", err)
			}
		}
		if application.options.Notifier != nil && application.Settings().Notifications {
			title, content := completionMessage(event, application.options.Locale)
			application.options.Notifier.Notify(title, content)
		}
	}
}

func (application *App) openHistory(ctx context.Context) {
	path := application.options.HistoryPath
	if path == "" {
		var err error
		path, err = storage.HistoryPath(Name)
		if err != nil {
			application.logger.Warn("history disabled", "error", err)
			return
		}
	}
	history, err := storage.OpenHistory(ctx, path)
	if err != nil {
		application.logger.Warn("history disabled", "path", path, "error", err)
		return
	}
	application.history = history
}

func (application *App) syncAutostart(settings model.Settings) {
	autostart := platform.NewAutostart(Name)
	enabled, err := autostart.Enabled()
	if err != nil {
		if !errors.Is(err, platform.ErrAutostartUnsupported) {
			application.logger.Warn("autostart check failed", "error", err)
		}
		return
	}
	if enabled == settings.Autostart {
		return
	}
	if settings.Autostart {
		execPath, err := os.Executable()
		if err == nil {
			err = autostart.Enable(execPath)
		}
		if err != nil {
			application.logger.Warn("enable autostart failed", "error", err)
		}
		return
	}
	if err := autostart.Disable(); err != nil {
		application.logger.Warn("disable autostart failed", "error", err)
	}
}

func (application *App) close() {
	if err := application.history.Close(); err != nil {
		application.logger.Warn("close history", "error", err)
	}
	if application.conn != nil {
		if err := application.conn.Close(); err != nil {
			application.logger.Debug("close session bus", "error", err)
		}
	}
}

func completionMessage(event timer.Event, locale control.Locale) (string, string) {
	title := fmt.Sprintf("%s complete", control.ModeLabel(event.Completed, locale))
	next := control.ModeLabel(event.Snapshot.Mode, locale)
	return title, fmt.Sprintf("Next: %s (%s)", next, control.FormatClock(event.Snapshot.TimeLeft))
}
