package platform

import (
	"context"
	"errors"
	"time"

	"github.com/godbus/dbus/v5"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleProvider returns the duration since last user input.
type IdleProvider interface {
	IdleTime(ctx context.Context) (time.Duration, error)
}

// NewIdleProvider returns a platform-specific idle provider. conn may be nil
// when no session bus is available.
func NewIdleProvider(conn *dbus.Conn) IdleProvider {
	return newIdleProvider(conn)
}

type unsupportedIdleProvider struct{}

func (unsupportedIdleProvider) IdleTime(context.Context) (time.Duration, error) {
	return 0, ErrIdleUnsupported
}
