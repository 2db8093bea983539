// Package docstore implements the read-modify-write document store for the
// host's JSON registry files.
//
// Critical constraint: NEVER drop unknown keys. Patches are applied with
// sjson against the freshly read bytes, so every region of the document we
// do not own passes through byte-identically: foreign marketplaces, hooks
// and unknown settings are preserved exactly, not merely value-equal.
package docstore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"localdev.tools/cli/internal/core/domain"
	"localdev.tools/cli/internal/core/ports"
)

// emptyDocument is what a missing or empty file loads as.
var emptyDocument = []byte("{}")

// Store manages one JSON document on disk.
type Store struct {
	path string
}

// New creates a Store for the document at path. The file need not exist yet.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the document's location on disk.
func (s *Store) Path() string {
	return s.path
}

// Load returns the document's current bytes. A missing or empty file yields
// an empty JSON object. Content that does not parse is surfaced as a
// *domain.MalformedDocumentError, never silently overwritten.
func (s *Store) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return emptyDocument, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", s.path, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return emptyDocument, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, &domain.MalformedDocumentError{
			Path: s.path,
			Err:  fmt.Errorf("invalid JSON"),
		}
	}
	return trimmed, nil
}

// Apply re-reads the document, applies the given owned-key patches to the
// freshly read bytes, and writes the result atomically. Re-reading
// immediately before the write bounds the damage from concurrent external
// edits to "last write wins for owned keys, foreign keys preserved".
func (s *Store) Apply(patches ...ports.Patch) error {
	raw, err := s.Load()
	if err != nil {
		return err
	}
	for _, p := range patches {
		if p.Delete {
			raw, err = sjson.DeleteBytes(raw, p.Path)
		} else {
			raw, err = sjson.SetBytes(raw, p.Path, p.Value)
		}
		if err != nil {
			return fmt.Errorf("patch %s in %s: %w", p.Path, s.path, err)
		}
	}
	return s.write(raw)
}

// write lands content via temp file, fsync and atomic rename, so a crash
// mid-write never leaves a truncated document.
func (s *Store) write(content []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".localdev-*")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if !bytes.HasSuffix(content, []byte("\n")) {
		content = append(content, '\n')
	}
	if _, err := tmp.Write(content); err != nil {
		cleanup()
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp document: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document %s: %w", s.path, err)
	}
	return nil
}

// pathSpecials are gjson/sjson path metacharacters that must be escaped when
// a document key is used as a path component.
const pathSpecials = `\.|#@*?`

// EscapeKey escapes a raw document key (which may contain dots, '@' and
// other metacharacters, as composite plugin keys do) for use as a single
// gjson/sjson path component.
func EscapeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if strings.ContainsRune(pathSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
