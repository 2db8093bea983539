//go:build !windows

package link

import "os"

// permissionHint suggests remediation when link operations are denied.
const permissionHint = "check write permissions on the marketplace plugins directory"

// createPlatformLink creates a directory symlink.
func createPlatformLink(linkPath, target string) error {
	if err := os.Symlink(target, linkPath); err != nil {
		return newLinkError("create", linkPath, target, "", err)
	}
	return nil
}

// removePlatformLink removes a symlink without following it.
func removePlatformLink(linkPath string) error {
	if err := os.Remove(linkPath); err != nil {
		return newLinkError("remove", linkPath, "", "", err)
	}
	return nil
}

// isPlatformLink reports whether path is a symlink.
func isPlatformLink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}
