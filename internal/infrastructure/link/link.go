// Package link implements directory-link management for the owned
// marketplace's plugins directory: symlinks on Unix, NTFS junctions on
// Windows. Platform dispatch happens here and only here; lifecycle logic
// upstream never branches on GOOS.
package link

import (
	"fmt"
	"os"
	"path/filepath"

	"localdev.tools/cli/internal/core/domain"
)

// Manager implements ports.LinkManager against the local filesystem.
type Manager struct{}

// NewManager creates a link Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Create makes linkPath a directory link pointing at targetPath. The target
// must be an existing directory. An existing link that already resolves to
// the target is a no-op; any other existing path fails, since a link is never
// silently overwritten.
func (m *Manager) Create(linkPath, targetPath string) error {
	target, err := filepath.Abs(targetPath)
	if err != nil {
		return newLinkError("create", linkPath, targetPath, "", err)
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return newLinkError("create", linkPath, target, "",
			fmt.Errorf("target does not exist or is not a directory"))
	}

	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return newLinkError("create", linkPath, target, "", err)
	}

	if _, lerr := os.Lstat(linkPath); lerr == nil {
		if existing, ok := m.Resolve(linkPath); ok && sameDir(existing, target) {
			return nil
		}
		return newLinkError("create", linkPath, target, "",
			fmt.Errorf("link path already exists"))
	}

	return createPlatformLink(linkPath, target)
}

// Remove deletes a directory link. A missing path is a no-op. A path that
// exists but is not a link is refused (domain.ErrNotALink) so a real plugin
// source directory can never be destroyed by mistake.
func (m *Manager) Remove(linkPath string) error {
	if _, err := os.Lstat(linkPath); os.IsNotExist(err) {
		return nil
	}
	if !m.IsLink(linkPath) {
		return fmt.Errorf("%w: %s", domain.ErrNotALink, linkPath)
	}
	return removePlatformLink(linkPath)
}

// Resolve reads a link's target without side effects.
func (m *Manager) Resolve(linkPath string) (string, bool) {
	target, err := os.Readlink(linkPath)
	if err != nil {
		return "", false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(linkPath), target)
	}
	return filepath.Clean(target), true
}

// IsLink reports whether path is a directory link (symlink or junction).
func (m *Manager) IsLink(path string) bool {
	return isPlatformLink(path)
}

// Enumerate returns the names of all link entries directly inside dir. A
// missing dir is treated as empty.
func (m *Manager) Enumerate(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read links directory %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if m.IsLink(filepath.Join(dir, entry.Name())) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// newLinkError builds a *domain.LinkError, attaching a platform remediation
// hint for permission failures.
func newLinkError(op, link, target, hint string, err error) *domain.LinkError {
	if hint == "" && os.IsPermission(err) {
		hint = permissionHint
	}
	return &domain.LinkError{Op: op, Link: link, Target: target, Hint: hint, Err: err}
}

// sameDir reports whether two cleaned paths refer to the same directory.
func sameDir(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ra, err1 := filepath.EvalSymlinks(a)
	rb, err2 := filepath.EvalSymlinks(b)
	return err1 == nil && err2 == nil && ra == rb
}
