// Package ports defines the interfaces between the registry engine and its
// infrastructure adapters.
package ports

// Patch describes one owned-key mutation applied during a document save.
// Path uses gjson path syntax; key components containing special characters
// must be escaped by the caller.
type Patch struct {
	Path   string
	Value  any
	Delete bool
}

// DocumentStore is a read-modify-write wrapper over one JSON document on
// disk. It is the only component permitted to touch JSON files, and it owns
// the byte-preservation discipline for keys the caller does not manage.
type DocumentStore interface {
	// Load returns the document's current bytes. A missing or empty file
	// yields an empty JSON object, not an error. Existing content that does
	// not parse yields a *domain.MalformedDocumentError.
	Load() ([]byte, error)

	// Apply re-reads the document immediately before writing, applies only
	// the given patches to the freshly read bytes, and writes the result via
	// temp-file plus atomic rename. All unpatched content is preserved
	// byte-identically.
	Apply(patches ...Patch) error

	// Path returns the document's location on disk.
	Path() string
}

// LinkManager owns the lifecycle of directory links (symlinks on Unix, NTFS
// junctions on Windows). Lifecycle logic never branches on platform; the
// dispatch happens inside the implementation.
type LinkManager interface {
	// Create makes linkPath a directory link to targetPath. The target must
	// be an existing directory. A link that already resolves to targetPath
	// is a no-op; any other existing path is a *domain.LinkError.
	Create(linkPath, targetPath string) error

	// Remove deletes a directory link. It refuses to delete a path that is
	// not a link (domain.ErrNotALink) and treats a missing path as a no-op.
	Remove(linkPath string) error

	// Resolve reads the link's target without side effects. ok is false when
	// the path does not exist or is not a link.
	Resolve(linkPath string) (target string, ok bool)

	// IsLink reports whether the path is a directory link.
	IsLink(path string) bool

	// Enumerate returns the names of all link entries directly inside dir,
	// in directory order. A missing dir yields an empty slice.
	Enumerate(dir string) ([]string, error)
}
