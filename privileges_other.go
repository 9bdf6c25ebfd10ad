//go:build !linux

package pingline

// RequirePrivileges is a no-op outside linux; socket creation reports missing rights itself
func RequirePrivileges() error {
	return nil
}
