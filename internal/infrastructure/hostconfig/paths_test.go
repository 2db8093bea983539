package hostconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_EnvOverrideWins(t *testing.T) {
	t.Setenv(EnvConfigDir, "/custom/host")

	paths := Resolve()

	assert.Equal(t, "/custom/host", paths.ConfigDir)
}

func TestResolve_DefaultsToHomeDir(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv("HOME", "/home/dev")

	paths := Resolve()

	assert.Equal(t, filepath.Join("/home/dev", ".pluginhost"), paths.ConfigDir)
}

func TestPaths_DocumentAndLinkLocations(t *testing.T) {
	paths := Paths{ConfigDir: "/cfg"}

	assert.Equal(t, filepath.Join("/cfg", "settings.json"), paths.SettingsPath())
	assert.Equal(t, filepath.Join("/cfg", "plugins", "installed_plugins.json"), paths.InstalledPluginsPath())
	assert.Equal(t, filepath.Join("/cfg", "plugins", "known_marketplaces.json"), paths.KnownMarketplacesPath())
	assert.Equal(t, filepath.Join("/cfg", "plugins", "marketplaces", "local-dev"), paths.MarketplaceDir())
	assert.Equal(t, filepath.Join("/cfg", "plugins", "marketplaces", "local-dev", "plugins"), paths.MarketplacePluginsDir())
	assert.Equal(t, filepath.Join(paths.MarketplacePluginsDir(), "demo"), paths.LinkPath("demo"))
}
