//go:build !linux

package platform

import "github.com/godbus/dbus/v5"

func newIdleProvider(*dbus.Conn) IdleProvider {
	return unsupportedIdleProvider{}
}
