//go:build !darwin

package permissions

// EnsurePermissions is a no-op on non-macOS platforms; X11 and Win32 allow
// synthetic input and loopback capture without a grant.
func EnsurePermissions() error {
	return nil
}
