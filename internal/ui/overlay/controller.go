// Package overlay shows the strict break screen: a fullscreen window that
// covers the desktop while a break is running.
package overlay

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"

	"pomodoro/internal/control"
	"pomodoro/internal/core/model"
	"pomodoro/internal/core/timer"
)

// Surface is the window the controller drives.
type Surface interface {
	Show()
	Hide()
	Update(title, clock string)
}

// ShouldShow reports whether the strict break screen belongs on screen:
// strict breaks are enabled and a break is running.
func ShouldShow(snapshot model.Snapshot, strict bool) bool {
	return strict && snapshot.Mode.IsBreak() && snapshot.IsActive
}

// Controller decides when the Surface is visible.
type Controller struct {
	surface Surface
	locale  control.Locale
	do      func(func())

	mu       sync.Mutex
	strict   bool
	snapshot model.Snapshot
	visible  bool
}

// NewController creates a controller for surface. do runs UI updates on the
// fyne thread and defaults to fyne.Do.
func NewController(surface Surface, locale control.Locale, strict bool, do func(func())) *Controller {
	if do == nil {
		do = fyne.Do
	}
	return &Controller{
		surface:  surface,
		locale:   locale,
		do:       do,
		strict:   strict,
		snapshot: model.DefaultSnapshot(),
	}
}

// SetStrict turns strict breaks on or off and re-evaluates the last state.
func (controller *Controller) SetStrict(strict bool) {
	controller.mu.Lock()
	controller.strict = strict
	snapshot := controller.snapshot
	controller.mu.Unlock()
	controller.Apply(snapshot)
}

// Apply shows, updates or hides the surface for snapshot.
func (controller *Controller) Apply(snapshot model.Snapshot) {
	controller.mu.Lock()
	controller.snapshot = snapshot
	show := ShouldShow(snapshot, controller.strict)
	wasVisible := controller.visible
	controller.visible = show
	controller.mu.Unlock()

	title := control.ModeLabel(snapshot.Mode, controller.locale)
	clock := control.FormatClock(snapshot.TimeLeft)
	controller.do(func() {
		switch {
		case show:
			controller.surface.Update(title, clock)
			if !wasVisible {
				controller.surface.Show()
			}
		case wasVisible:
			controller.surface.Hide()
		}
	})
}

// Visible reports whether the surface is currently shown.
func (controller *Controller) Visible() bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.visible
}

// Follow applies timer events until events closes or ctx ends.
func (controller *Controller) Follow(ctx context.Context, events <-chan timer.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			controller.Apply(event.Snapshot)
		}
	}
}
