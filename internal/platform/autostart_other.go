//go:build !linux

package platform

type unsupportedAutostart struct{}

func newAutostart(string) Autostart {
	return unsupportedAutostart{}
}

func (unsupportedAutostart) Enable(string) error    { return ErrAutostartUnsupported }
func (unsupportedAutostart) Disable() error         { return ErrAutostartUnsupported }
func (unsupportedAutostart) Enabled() (bool, error) { return false, ErrAutostartUnsupported }
