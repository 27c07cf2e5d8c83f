package tray

import (
	"context"
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/control"
	"pomodoro/internal/core/model"
	"pomodoro/internal/core/timer"
)

type fakeApp struct {
	menus []*fyne.Menu
	icons []fyne.Resource
}

func (app *fakeApp) SetSystemTrayMenu(menu *fyne.Menu)    { app.menus = append(app.menus, menu) }
func (app *fakeApp) SetSystemTrayIcon(icon fyne.Resource) { app.icons = append(app.icons, icon) }

func (app *fakeApp) lastMenu() *fyne.Menu { return app.menus[len(app.menus)-1] }

func newTestManager(t *testing.T) (*Manager, *fakeApp, *[]control.Event) {
	t.Helper()
	app := &fakeApp{}
	var published []control.Event
	icons := map[model.Mode]fyne.Resource{
		model.ModeWork:       fyne.NewStaticResource("work.png", []byte("w")),
		model.ModeShortBreak: fyne.NewStaticResource("short.png", []byte("s")),
	}
	manager := New(app, control.PublisherFunc(func(event control.Event) {
		published = append(published, event)
	}), Options{
		Locale: control.LocaleEnglish,
		Icons:  icons,
		Do:     func(fn func()) { fn() },
	})
	return manager, app, &published
}

func findItem(t *testing.T, menu *fyne.Menu, label string) *fyne.MenuItem {
	t.Helper()
	for _, item := range menu.Items {
		if item.Label == label {
			return item
		}
	}
	require.Failf(t, "menu item not found", "label %q", label)
	return nil
}

func TestNew_BuildsMenuWithDefaultStatus(t *testing.T) {
	manager, app, _ := newTestManager(t)

	require.NotEmpty(t, app.menus)
	assert.Equal(t, "Mode: Focus | Paused | 25:00 | Sessions: 0", manager.Status())
	assert.True(t, app.lastMenu().Items[0].Disabled)
	require.Len(t, app.icons, 1)
	assert.Equal(t, "work.png", app.icons[0].Name())
}

func TestMenuActionsPublishControlEvents(t *testing.T) {
	_, app, published := newTestManager(t)
	menu := app.lastMenu()

	findItem(t, menu, "Start").Action()
	findItem(t, menu, "Skip").Action()
	findItem(t, menu, "Reset").Action()
	findItem(t, menu, "+1 minute").Action()

	assert.Equal(t, []control.Event{
		{Name: control.EventToggle},
		{Name: control.EventSkip},
		{Name: control.EventReset},
		{Name: control.EventExtend, Seconds: 60},
	}, *published)
}

func TestSetSnapshot_UpdatesLabelsAndIcon(t *testing.T) {
	manager, app, _ := newTestManager(t)

	manager.SetSnapshot(model.Snapshot{Mode: model.ModeShortBreak, TimeLeft: 299, IsActive: true, SessionsCompleted: 1})

	assert.Equal(t, "Mode: Short Break | Running | 04:59 | Sessions: 1", manager.Status())
	findItem(t, app.lastMenu(), "Pause")
	require.Len(t, app.icons, 2)
	assert.Equal(t, "short.png", app.icons[1].Name())

	manager.SetSnapshot(model.Snapshot{Mode: model.ModeLongBreak, TimeLeft: 900})
	assert.Len(t, app.icons, 2, "modes without an icon keep the current one")
}

func TestFollow_MirrorsTimerEvents(t *testing.T) {
	manager, _, _ := newTestManager(t)
	events := make(chan timer.Event, 2)
	events <- timer.Event{Type: timer.EventStateChange, Snapshot: model.Snapshot{Mode: model.ModeWork, TimeLeft: 1499, IsActive: true}}
	close(events)

	manager.Follow(context.Background(), events)

	assert.Equal(t, "Mode: Focus | Running | 24:59 | Sessions: 0", manager.Status())
}
