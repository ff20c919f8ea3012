//go:build !linux && !darwin

package hotkey

// New reports that no global hotkey backend exists; the tray menu still works.
func New() (Manager, error) {
	return nil, ErrUnsupported
}
