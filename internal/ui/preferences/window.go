package preferences

import (
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"pomodoro/internal/core/model"
)

// Window handles the preferences UI.
type Window struct {
	window        fyne.Window
	settings      model.Settings
	onSave        func(model.Settings)
	work          *widget.Entry
	shortBreak    *widget.Entry
	longBreak     *widget.Entry
	interval      *widget.Entry
	autoBreaks    *widget.Check
	autoWork      *widget.Check
	pauseWhenIdle *widget.Check
	strictBreak   *widget.Check
	notifications *widget.Check
	autostart     *widget.Check
}

// Form holds the raw values of the preferences window.
type Form struct {
	WorkMinutes       string
	ShortBreakMinutes string
	LongBreakMinutes  string
	LongBreakInterval string
	AutoStartBreaks   bool
	AutoStartWork     bool
	PauseWhenIdle     bool
	StrictBreak       bool
	Notifications     bool
	Autostart         bool
}

// New creates a hidden preferences window.
func New(app fyne.App, settings model.Settings, onSave func(model.Settings)) *Window {
	window := app.NewWindow("Pomodoro Settings")

	prefs := &Window{
		window:        window,
		onSave:        onSave,
		work:          widget.NewEntry(),
		shortBreak:    widget.NewEntry(),
		longBreak:     widget.NewEntry(),
		interval:      widget.NewEntry(),
		autoBreaks:    widget.NewCheck("Start breaks automatically", nil),
		autoWork:      widget.NewCheck("Start focus sessions automatically", nil),
		pauseWhenIdle: widget.NewCheck("Pause when idle for 5 minutes", nil),
		strictBreak:   widget.NewCheck("Strict breaks (fullscreen, Esc pauses)", nil),
		notifications: widget.NewCheck("Desktop notifications", nil),
		autostart:     widget.NewCheck("Launch at login", nil),
	}
	prefs.UpdateSettings(settings)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Durations", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Focus"), prefs.work, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Short break"), prefs.shortBreak, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break"), prefs.longBreak, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break every"), prefs.interval, widget.NewLabel("sessions")),
		widget.NewLabelWithStyle("Behavior", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.autoBreaks,
		prefs.autoWork,
		prefs.pauseWhenIdle,
		prefs.strictBreak,
		prefs.notifications,
		prefs.autostart,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(380, 420))
	window.SetCloseIntercept(window.Hide)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	prefs.settings = settings
	form := FormFromSettings(settings)
	prefs.work.SetText(form.WorkMinutes)
	prefs.shortBreak.SetText(form.ShortBreakMinutes)
	prefs.longBreak.SetText(form.LongBreakMinutes)
	prefs.interval.SetText(form.LongBreakInterval)
	prefs.autoBreaks.SetChecked(form.AutoStartBreaks)
	prefs.autoWork.SetChecked(form.AutoStartWork)
	prefs.pauseWhenIdle.SetChecked(form.PauseWhenIdle)
	prefs.strictBreak.SetChecked(form.StrictBreak)
	prefs.notifications.SetChecked(form.Notifications)
	prefs.autostart.SetChecked(form.Autostart)
}

func (prefs *Window) handleSave() {
	prefs.settings = ApplyForm(prefs.settings, Form{
		WorkMinutes:       prefs.work.Text,
		ShortBreakMinutes: prefs.shortBreak.Text,
		LongBreakMinutes:  prefs.longBreak.Text,
		LongBreakInterval: prefs.interval.Text,
		AutoStartBreaks:   prefs.autoBreaks.Checked,
		AutoStartWork:     prefs.autoWork.Checked,
		PauseWhenIdle:     prefs.pauseWhenIdle.Checked,
		StrictBreak:       prefs.strictBreak.Checked,
		Notifications:     prefs.notifications.Checked,
		Autostart:         prefs.autostart.Checked,
	})
	if prefs.onSave != nil {
		prefs.onSave(prefs.settings)
	}
	prefs.window.Hide()
}

// FormFromSettings renders settings as form values.
func FormFromSettings(settings model.Settings) Form {
	return Form{
		WorkMinutes:       strconv.Itoa(int(settings.Work / time.Minute)),
		ShortBreakMinutes: strconv.Itoa(int(settings.ShortBreak / time.Minute)),
		LongBreakMinutes:  strconv.Itoa(int(settings.LongBreak / time.Minute)),
		LongBreakInterval: strconv.FormatUint(uint64(settings.LongBreakInterval), 10),
		AutoStartBreaks:   settings.AutoStartBreaks,
		AutoStartWork:     settings.AutoStartWork,
		PauseWhenIdle:     settings.PauseWhenIdle,
		StrictBreak:       settings.StrictBreak,
		Notifications:     settings.Notifications,
		Autostart:         settings.Autostart,
	}
}

// ApplyForm merges form values into settings. Invalid numbers keep the
// previous value.
func ApplyForm(settings model.Settings, form Form) model.Settings {
	if minutes, ok := parsePositiveInt(form.WorkMinutes); ok {
		settings.Work = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(form.ShortBreakMinutes); ok {
		settings.ShortBreak = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(form.LongBreakMinutes); ok {
		settings.LongBreak = time.Duration(minutes) * time.Minute
	}
	if sessions, ok := parsePositiveInt(form.LongBreakInterval); ok {
		settings.LongBreakInterval = uint32(sessions)
	}

	settings.AutoStartBreaks = form.AutoStartBreaks
	settings.AutoStartWork = form.AutoStartWork
	settings.PauseWhenIdle = form.PauseWhenIdle
	settings.StrictBreak = form.StrictBreak
	settings.Notifications = form.Notifications
	settings.Autostart = form.Autostart
	return settings
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 || parsed > 24*60 {
		return 0, false
	}
	return parsed, true
}
