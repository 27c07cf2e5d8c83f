package overlay

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"pomodoro/internal/control"
)

const (
	breakMessage = "Deep breaths. Let go of each thought and any tension in your body."

	overlayWidthFraction  = float32(0.5)
	overlayHeightFraction = float32(0.5)
	defaultScreenWidth    = float32(1920)
	defaultScreenHeight   = float32(1080)
)

// Config defines overlay visuals.
type Config struct {
	Opacity    uint8
	Fullscreen bool
}

// DefaultConfig returns a fullscreen, mostly opaque overlay.
func DefaultConfig() Config {
	return Config{Opacity: 230, Fullscreen: true}
}

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// Window is the fyne Surface of the strict break screen. Escape and the
// pause button publish a toggle, which pauses the running break.
type Window struct {
	window     fyne.Window
	config     Config
	publisher  control.Publisher
	background *canvas.Rectangle
	titleLabel *canvas.Text
	timerLabel *canvas.Text
}

// New creates a hidden overlay window.
func New(app fyne.App, publisher control.Publisher, config Config) *Window {
	window := app.NewWindow("Pomodoro Break")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewRectangle(color.NRGBA{A: config.Opacity})

	titleLabel := canvas.NewText("", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	titleLabel.Alignment = fyne.TextAlignCenter
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 24

	timerLabel := canvas.NewText("--:--", color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	timerLabel.Alignment = fyne.TextAlignCenter
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.TextSize = 72

	messageLabel := widget.NewLabelWithStyle(breakMessage, fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	messageLabel.Wrapping = fyne.TextWrapWord

	overlay := &Window{
		window:     window,
		config:     config,
		publisher:  publisher,
		background: background,
		titleLabel: titleLabel,
		timerLabel: timerLabel,
	}

	pauseButton := widget.NewButton("Pause Break (Esc)", overlay.pause)
	hint := canvas.NewText("Strict Mode Active", color.NRGBA{R: 255, G: 255, B: 255, A: 96})
	hint.Alignment = fyne.TextAlignCenter
	hint.TextSize = 10

	content := container.NewVBox(
		layout.NewSpacer(),
		timerLabel,
		titleLabel,
		messageLabel,
		container.NewCenter(pauseButton),
		hint,
		layout.NewSpacer(),
	)
	window.SetContent(container.NewStack(background, container.NewPadded(content)))
	window.Canvas().SetOnTypedKey(func(event *fyne.KeyEvent) {
		if event.Name == fyne.KeyEscape {
			overlay.pause()
		}
	})
	window.SetCloseIntercept(overlay.pause)
	return overlay
}

// Show implements Surface.
func (overlay *Window) Show() {
	overlay.applyWindowMode()
	overlay.window.Show()
	overlay.window.RequestFocus()
}

// Hide implements Surface.
func (overlay *Window) Hide() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(false)
	}
	overlay.window.Hide()
}

// Update implements Surface.
func (overlay *Window) Update(title, clock string) {
	overlay.titleLabel.Text = title
	overlay.titleLabel.Refresh()
	overlay.timerLabel.Text = clock
	overlay.timerLabel.Refresh()
}

// UpdateConfig updates overlay visuals.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.background.FillColor = color.NRGBA{A: config.Opacity}
	canvas.Refresh(overlay.background)
}

func (overlay *Window) pause() {
	if overlay.publisher != nil {
		overlay.publisher.Publish(control.Event{Name: control.EventToggle})
	}
}

func (overlay *Window) applyWindowMode() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(true)
		return
	}
	overlay.window.SetFullScreen(false)
	overlay.resizeToScreenFraction()
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	// Canvas size can be reused as a proxy for monitor size when it is clearly screen-like.
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	width := screenSize.Width * overlayWidthFraction
	height := screenSize.Height * overlayHeightFraction
	minSize := overlay.window.Content().MinSize()
	if width < minSize.Width {
		width = minSize.Width
	}
	if height < minSize.Height {
		height = minSize.Height
	}

	overlay.window.Resize(fyne.NewSize(width, height))
	overlay.window.CenterOnScreen()
}
