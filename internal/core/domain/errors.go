package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for user-input and lifecycle failures. Operations abort
// before any write when these are returned.
var (
	// ErrNotInitialized indicates the owned marketplace has not been
	// registered yet; init must run first.
	ErrNotInitialized = errors.New("local-dev marketplace is not initialized")

	// ErrDuplicatePlugin indicates an install record already exists for the
	// plugin under the owned marketplace.
	ErrDuplicatePlugin = errors.New("plugin is already registered")

	// ErrUnknownPlugin indicates no install record or link exists for the
	// plugin.
	ErrUnknownPlugin = errors.New("plugin is not registered")

	// ErrSourceNotFound indicates the plugin source path is not an existing
	// directory.
	ErrSourceNotFound = errors.New("plugin source is not an existing directory")

	// ErrNotALink indicates a path expected to be a directory link is a real
	// file or directory. It is never deleted.
	ErrNotALink = errors.New("path exists but is not a directory link")
)

// MalformedDocumentError reports a registry document whose existing content
// does not parse as JSON. It is surfaced to the caller and never auto-repaired.
type MalformedDocumentError struct {
	Path string
	Err  error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed JSON document %s: %v", e.Path, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// LinkError reports a failed link creation or removal. Hint, when set,
// carries a remediation suggestion for permission problems.
type LinkError struct {
	Op     string // "create" or "remove"
	Link   string
	Target string // empty for removals
	Hint   string
	Err    error
}

func (e *LinkError) Error() string {
	msg := fmt.Sprintf("%s link %s", e.Op, e.Link)
	if e.Target != "" {
		msg += " -> " + e.Target
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *LinkError) Unwrap() error {
	return e.Err
}
