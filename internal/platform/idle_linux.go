//go:build linux

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	screenSaverName      = "org.freedesktop.ScreenSaver"
	screenSaverPath      = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	screenSaverInterface = "org.freedesktop.ScreenSaver"
)

// screenSaverProvider asks the desktop's ScreenSaver service, which reports
// idle time in milliseconds.
type screenSaverProvider struct {
	object dbus.BusObject
}

type xprintidleProvider struct {
	path string
}

func newIdleProvider(conn *dbus.Conn) IdleProvider {
	if conn != nil {
		return &screenSaverProvider{object: conn.Object(screenSaverName, screenSaverPath)}
	}
	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return unsupportedIdleProvider{}
	}
	return &xprintidleProvider{path: path}
}

func (provider *screenSaverProvider) IdleTime(ctx context.Context) (time.Duration, error) {
	var idleMillis uint32
	call := provider.object.CallWithContext(ctx, screenSaverInterface+".GetSessionIdleTime", 0)
	if err := call.Store(&idleMillis); err != nil {
		return 0, fmt.Errorf("get session idle time: %w", err)
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

func (provider *xprintidleProvider) IdleTime(ctx context.Context) (time.Duration, error) {
	output, err := exec.CommandContext(ctx, provider.path).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	return parseIdleMillis(string(output))
}

func parseIdleMillis(output string) (time.Duration, error) {
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(output), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}
