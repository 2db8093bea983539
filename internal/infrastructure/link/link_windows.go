//go:build windows

package link

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// permissionHint suggests remediation when link operations are denied.
// Junctions normally need no elevation; symlink fallback does unless
// Developer Mode is enabled.
const permissionHint = "enable Windows Developer Mode or run from an elevated prompt"

// createPlatformLink creates an NTFS junction via mklink /J, which works
// without administrator rights on NTFS volumes.
func createPlatformLink(linkPath, target string) error {
	out, err := exec.Command("cmd", "/c", "mklink", "/J", linkPath, target).CombinedOutput()
	if err != nil {
		return newLinkError("create", linkPath, target, "",
			fmt.Errorf("mklink /J: %s", firstLine(out, err)))
	}
	return nil
}

// removePlatformLink removes a junction. Junctions are directory entries, so
// rmdir removes the link itself without touching the target's contents.
func removePlatformLink(linkPath string) error {
	out, err := exec.Command("cmd", "/c", "rmdir", linkPath).CombinedOutput()
	if err != nil {
		return newLinkError("remove", linkPath, "", "",
			fmt.Errorf("rmdir: %s", firstLine(out, err)))
	}
	return nil
}

// isPlatformLink reports whether path is a junction or symlink. Readlink
// succeeds for both reparse-point flavors.
func isPlatformLink(path string) bool {
	_, err := os.Readlink(path)
	return err == nil
}

func firstLine(out []byte, fallback error) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return fallback.Error()
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
