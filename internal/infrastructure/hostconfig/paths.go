// Package hostconfig resolves the host application's configuration paths.
// Everything flows from the host config directory, which defaults to
// ~/.pluginhost and can be overridden via PLUGINHOST_CONFIG_DIR for test
// isolation.
package hostconfig

import (
	"os"
	"path/filepath"

	"localdev.tools/cli/internal/core/domain"
)

// EnvConfigDir overrides the host config directory when set.
const EnvConfigDir = "PLUGINHOST_CONFIG_DIR"

// Paths locates the three registry documents and the owned marketplace's
// directory tree inside the host config directory.
type Paths struct {
	ConfigDir string
}

// Resolve determines the host config directory from the environment, falling
// back to ~/.pluginhost.
func Resolve() Paths {
	if override := os.Getenv(EnvConfigDir); override != "" {
		return Paths{ConfigDir: override}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// No home directory: fall back to the working directory so path
		// construction stays well-defined. Writes will fail loudly later.
		home = "."
	}
	return Paths{ConfigDir: filepath.Join(home, ".pluginhost")}
}

// SettingsPath is the host settings document (enabledPlugins plus foreign
// settings).
func (p Paths) SettingsPath() string {
	return filepath.Join(p.ConfigDir, "settings.json")
}

// PluginsDir is the host's plugin state directory.
func (p Paths) PluginsDir() string {
	return filepath.Join(p.ConfigDir, "plugins")
}

// InstalledPluginsPath is the install-records document.
func (p Paths) InstalledPluginsPath() string {
	return filepath.Join(p.PluginsDir(), "installed_plugins.json")
}

// KnownMarketplacesPath is the marketplace-registry document.
func (p Paths) KnownMarketplacesPath() string {
	return filepath.Join(p.PluginsDir(), "known_marketplaces.json")
}

// MarketplaceDir is the owned marketplace's storage location.
func (p Paths) MarketplaceDir() string {
	return filepath.Join(p.PluginsDir(), "marketplaces", domain.MarketplaceName)
}

// MarketplacePluginsDir holds one directory link per registered plugin.
func (p Paths) MarketplacePluginsDir() string {
	return filepath.Join(p.MarketplaceDir(), "plugins")
}

// LinkPath is the link location for a plugin inside the owned marketplace.
func (p Paths) LinkPath(pluginName string) string {
	return filepath.Join(p.MarketplacePluginsDir(), pluginName)
}
