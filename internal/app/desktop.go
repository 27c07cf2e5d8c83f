package app

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"

	"pomodoro/internal/core/model"
	"pomodoro/internal/storage"
	"pomodoro/internal/ui/overlay"
	"pomodoro/internal/ui/preferences"
	"pomodoro/internal/ui/tray"
)

const appID = "com.osmandulundu.pomodoro"

// ErrTrayUnsupported indicates the fyne driver has no system tray.
var ErrTrayUnsupported = errors.New("system tray unsupported on this platform")

type fyneNotifier struct {
	app fyne.App
}

func (notifier fyneNotifier) Notify(title, content string) {
	notifier.app.SendNotification(fyne.NewNotification(title, content))
}

// RunDesktop runs the application with a system tray. It blocks on the fyne
// event loop until Quit is chosen or ctx is cancelled.
func RunDesktop(ctx context.Context, options Options) error {
	fyneApp := fyneapp.NewWithID(appID)
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		return ErrTrayUnsupported
	}
	if options.Notifier == nil {
		options.Notifier = fyneNotifier{app: fyneApp}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	application, err := New(ctx, options)
	if err != nil {
		return err
	}

	prefs := preferences.New(fyneApp, application.Settings(), func(settings model.Settings) {
		if err := storage.SaveSettings(application.options.SettingsPath, settings); err != nil {
			application.logger.Warn("save settings failed", "error", err)
		}
		application.ApplySettings(settings)
	})

	showPreferences := func() {
		prefs.UpdateSettings(application.Settings())
		prefs.Show()
	}
	manager := tray.New(desktopApp, application.Publisher(), tray.Options{
		Locale:        options.Locale,
		Icons:         tray.DefaultIcons(),
		OnPreferences: showPreferences,
		OnQuit:        cancel,
	})
	events := application.Subscribe(eventBuffer)

	breakWindow := overlay.New(fyneApp, application.Publisher(), overlay.DefaultConfig())
	strictBreaks := overlay.NewController(breakWindow, options.Locale, application.Settings().StrictBreak, nil)
	application.OnSettingsChange(func(settings model.Settings) {
		strictBreaks.SetStrict(settings.StrictBreak)
	})
	overlayEvents := application.Subscribe(eventBuffer)

	done := make(chan error, 1)
	go func() {
		done <- application.Run(ctx)
	}()
	go manager.Follow(ctx, events)
	go strictBreaks.Follow(ctx, overlayEvents)
	go func() {
		<-ctx.Done()
		fyne.Do(fyneApp.Quit)
	}()

	fyneApp.Run()
	cancel()
	return <-done
}
