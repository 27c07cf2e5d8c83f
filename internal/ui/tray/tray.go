package tray

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"pomodoro/internal/control"
	"pomodoro/internal/core/model"
	"pomodoro/internal/core/timer"
)

const (
	menuTitle     = "Pomodoro"
	extendSeconds = 60
)

// App is the part of fyne's desktop.App the tray needs.
type App interface {
	SetSystemTrayMenu(menu *fyne.Menu)
	SetSystemTrayIcon(icon fyne.Resource)
}

// Options configures the tray.
type Options struct {
	Locale control.Locale
	// Icons per mode; a missing icon leaves the current one in place.
	Icons         map[model.Mode]fyne.Resource
	OnPreferences func()
	OnQuit        func()

	// Do runs UI updates on the fyne thread. Defaults to fyne.Do.
	Do func(func())
}

// DefaultIcons returns theme icons for each mode.
func DefaultIcons() map[model.Mode]fyne.Resource {
	return map[model.Mode]fyne.Resource{
		model.ModeWork:       theme.MediaRecordIcon(),
		model.ModeShortBreak: theme.MediaPauseIcon(),
		model.ModeLongBreak:  theme.HistoryIcon(),
	}
}

// Manager handles system tray state.
type Manager struct {
	app        App
	publisher  control.Publisher
	options    Options
	statusItem *fyne.MenuItem
	toggleItem *fyne.MenuItem
	items      []*fyne.MenuItem
	mode       model.Mode
}

// New builds the tray menu. Menu actions publish the same events the
// control bus delivers.
func New(app App, publisher control.Publisher, options Options) *Manager {
	if options.Do == nil {
		options.Do = fyne.Do
	}
	manager := &Manager{
		app:       app,
		publisher: publisher,
		options:   options,
	}

	manager.statusItem = fyne.NewMenuItem(control.FormatStatus(model.DefaultSnapshot(), options.Locale), nil)
	manager.statusItem.Disabled = true

	manager.toggleItem = fyne.NewMenuItem("Start", manager.action(control.Event{Name: control.EventToggle}))
	skip := fyne.NewMenuItem("Skip", manager.action(control.Event{Name: control.EventSkip}))
	reset := fyne.NewMenuItem("Reset", manager.action(control.Event{Name: control.EventReset}))
	extend := fyne.NewMenuItem("+1 minute", manager.action(control.Event{Name: control.EventExtend, Seconds: extendSeconds}))
	preferences := fyne.NewMenuItem("Preferences", func() {
		if manager.options.OnPreferences != nil {
			manager.options.OnPreferences()
		}
	})
	quit := fyne.NewMenuItem("Quit", func() {
		if manager.options.OnQuit != nil {
			manager.options.OnQuit()
		}
	})
	quit.IsQuit = true

	manager.items = []*fyne.MenuItem{
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		manager.toggleItem,
		skip,
		reset,
		extend,
		fyne.NewMenuItemSeparator(),
		preferences,
		quit,
	}
	manager.refreshMenu()
	manager.refreshIcon(model.ModeWork)
	return manager
}

// SetSnapshot updates the status line, the start/pause label and the icon.
func (manager *Manager) SetSnapshot(snapshot model.Snapshot) {
	manager.statusItem.Label = control.FormatStatus(snapshot, manager.options.Locale)
	if snapshot.IsActive {
		manager.toggleItem.Label = "Pause"
	} else {
		manager.toggleItem.Label = "Start"
	}
	manager.refreshIcon(snapshot.Mode)
	manager.refreshMenu()
}

// Follow mirrors timer events into the tray until events closes or ctx ends.
func (manager *Manager) Follow(ctx context.Context, events <-chan timer.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			snapshot := event.Snapshot
			manager.options.Do(func() {
				manager.SetSnapshot(snapshot)
			})
		}
	}
}

// Status returns the current status line.
func (manager *Manager) Status() string {
	return manager.statusItem.Label
}

func (manager *Manager) action(event control.Event) func() {
	return func() {
		manager.publisher.Publish(event)
	}
}

func (manager *Manager) refreshIcon(mode model.Mode) {
	if mode == manager.mode {
		return
	}
	manager.mode = mode
	if icon, ok := manager.options.Icons[mode]; ok && icon != nil && manager.app != nil {
		manager.app.SetSystemTrayIcon(icon)
	}
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(fyne.NewMenu(menuTitle, manager.items...))
	}
}
