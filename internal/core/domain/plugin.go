package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MarketplaceName is the name of the marketplace this tool owns. Entries for
// any other marketplace are foreign and are never modified.
const MarketplaceName = "local-dev"

// DefaultVersion is used when a plugin manifest does not declare a version.
const DefaultVersion = "1.0.0"

// Plugin names must be safe as filesystem entries and registry keys.
var pluginNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// PluginName is a value object for a validated plugin name.
type PluginName struct {
	value string
}

// NewPluginName creates a PluginName, rejecting names that are unsafe for
// filesystem or registry-key use.
func NewPluginName(value string) (PluginName, error) {
	err := validation.Validate(value,
		validation.Required.Error("plugin name cannot be empty"),
		validation.Match(pluginNamePattern).Error(
			"must start with a letter or digit and contain only letters, digits, '.', '_' or '-'"),
	)
	if err != nil {
		return PluginName{}, fmt.Errorf("invalid plugin name %q: %w", value, err)
	}
	return PluginName{value: value}, nil
}

// Value returns the string value of the PluginName.
func (n PluginName) Value() string {
	return n.value
}

// Key returns the composite registry key "<name>@local-dev" used in the
// settings and install-records documents.
func (n PluginName) Key() string {
	return n.value + "@" + MarketplaceName
}

// String implements the Stringer interface.
func (n PluginName) String() string {
	return n.value
}

// Manifest is the plugin metadata read from <source>/.plugin/plugin.json.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Author      struct {
		Name string `json:"name"`
	} `json:"author,omitempty"`
}

// ManifestRelPath is the manifest location relative to a plugin source directory.
const ManifestRelPath = ".plugin/plugin.json"

// ReadManifest loads the manifest from a plugin source directory. A missing
// manifest is not an error: the zero Manifest is returned and callers fall
// back to the directory name and DefaultVersion.
func ReadManifest(sourceDir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(sourceDir, filepath.FromSlash(ManifestRelPath)))
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("read plugin manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse plugin manifest: %w", err)
	}
	return m, nil
}

// EffectiveName returns the manifest name, or the source directory basename
// when the manifest does not declare one.
func (m Manifest) EffectiveName(sourceDir string) string {
	if m.Name != "" {
		return m.Name
	}
	return filepath.Base(sourceDir)
}

// EffectiveVersion returns the manifest version or DefaultVersion.
func (m Manifest) EffectiveVersion() string {
	if m.Version != "" {
		return m.Version
	}
	return DefaultVersion
}

// InstallRecord is one entry in the install-records document. Field names
// follow the host's camelCase wire format.
type InstallRecord struct {
	Scope       string `json:"scope"`
	InstallPath string `json:"installPath"`
	Version     string `json:"version"`
	InstalledAt string `json:"installedAt"`
	LastUpdated string `json:"lastUpdated"`
	ProjectPath string `json:"projectPath"`
}

// NewInstallRecord creates an install record for a plugin whose source lives
// at installPath.
func NewInstallRecord(installPath, version, projectPath string, now time.Time) InstallRecord {
	ts := Timestamp(now)
	return InstallRecord{
		Scope:       "project",
		InstallPath: installPath,
		Version:     version,
		InstalledAt: ts,
		LastUpdated: ts,
		ProjectPath: projectPath,
	}
}

// MarketplaceSource describes where a marketplace's content comes from.
type MarketplaceSource struct {
	Source string `json:"source"`
	Repo   string `json:"repo,omitempty"`
	Path   string `json:"path,omitempty"`
}

// MarketplaceEntry is one entry in the marketplace-registry document, keyed
// by marketplace name.
type MarketplaceEntry struct {
	Source          MarketplaceSource `json:"source"`
	InstallLocation string            `json:"installLocation"`
	LastUpdated     string            `json:"lastUpdated"`
}

// NewLocalDevMarketplace creates the owned marketplace entry rooted at
// installLocation.
func NewLocalDevMarketplace(installLocation string, now time.Time) MarketplaceEntry {
	return MarketplaceEntry{
		Source:          MarketplaceSource{Source: "directory", Path: installLocation},
		InstallLocation: installLocation,
		LastUpdated:     Timestamp(now),
	}
}

// PluginStatus is a read-only summary joining all three documents and the
// live filesystem link state for one plugin.
type PluginStatus struct {
	Name       string
	SourcePath string
	Version    string
	Linked     bool
	Healthy    bool
	Enabled    bool
}

// Timestamp formats a time the way the host writes timestamps into its
// registry documents.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
