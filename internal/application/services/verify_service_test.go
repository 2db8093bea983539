package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localdev.tools/cli/internal/core/domain"
)

// consistentFixture returns a fixture with the marketplace initialized and
// one plugin fully registered.
func consistentFixture(t *testing.T, name string) (*fixture, string) {
	t.Helper()
	f := newFixture(t)
	_, err := f.registry.Init()
	require.NoError(t, err)
	source := newPluginSource(t, name, "1.0.0")
	_, err = f.registry.Add("", source)
	require.NoError(t, err)
	return f, source
}

func TestVerify_CleanConsistentState(t *testing.T) {
	f, _ := consistentFixture(t, "demo")

	report, err := f.verifier.Verify(false)

	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 1, report.Checked)
}

func TestVerify_EmptyStateIsClean(t *testing.T) {
	f := newFixture(t)

	report, err := f.verifier.Verify(false)

	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 0, report.Checked)
}

func TestVerify_DetectsOrphanedEnableAndLink(t *testing.T) {
	f, _ := consistentFixture(t, "demo")
	_, err := f.registry.Add("", newPluginSource(t, "untouched", "1.0.0"))
	require.NoError(t, err)

	// Simulate another writer dropping demo's install record while leaving
	// its enabled entry and link in place.
	require.NoError(t, os.WriteFile(f.paths.InstalledPluginsPath(),
		[]byte(`{"version": 2, "plugins": {"untouched@local-dev": [{"installPath": "`+
			mustTarget(t, f, "untouched")+`", "version": "1.0.0"}]}}`), 0o644))

	report, err := f.verifier.Verify(false)

	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, report.Violations[domain.ViolationOrphanedEnable])
	assert.Equal(t, []string{"demo"}, report.Violations[domain.ViolationOrphanedLink])
	assert.NotContains(t, report.Violations[domain.ViolationOrphanedEnable], "untouched")
	assert.NotContains(t, report.Violations[domain.ViolationOrphanedLink], "untouched")
}

func TestVerify_DetectsBrokenLinkWhenSourceRemoved(t *testing.T) {
	f, source := consistentFixture(t, "demo")

	require.NoError(t, os.RemoveAll(source))

	report, err := f.verifier.Verify(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, report.Violations[domain.ViolationBrokenLink])
}

func TestVerify_DetectsBrokenLinkWhenSourceMoved(t *testing.T) {
	f, source := consistentFixture(t, "demo")

	// Move the source: the link dangles even though a directory with the
	// plugin's content now exists elsewhere.
	moved := filepath.Join(t.TempDir(), "demo-moved")
	require.NoError(t, os.Rename(source, moved))

	report, err := f.verifier.Verify(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, report.Violations[domain.ViolationBrokenLink])
}

func TestVerify_DetectsBrokenLinkWhenTargetRedirected(t *testing.T) {
	f, _ := consistentFixture(t, "demo")

	// Point the link at a different existing directory. The install record is
	// the authority, so a target that resolves but disagrees with it is broken.
	other := t.TempDir()
	require.NoError(t, f.links.Remove(f.paths.LinkPath("demo")))
	require.NoError(t, f.links.Create(f.paths.LinkPath("demo"), other))

	report, err := f.verifier.Verify(false)

	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, report.Violations[domain.ViolationBrokenLink])
}

func TestVerifyFix_RelinksRedirectedTarget(t *testing.T) {
	f, source := consistentFixture(t, "demo")
	other := t.TempDir()
	require.NoError(t, f.links.Remove(f.paths.LinkPath("demo")))
	require.NoError(t, f.links.Create(f.paths.LinkPath("demo"), other))

	report, err := f.verifier.Verify(true)

	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, report.Fixed[domain.ViolationBrokenLink])

	target, ok := f.links.Resolve(f.paths.LinkPath("demo"))
	require.True(t, ok)
	assert.Equal(t, filepath.Clean(source), target)
	assert.DirExists(t, other, "relinking must not touch the stale target")

	after, err := f.verifier.Verify(false)
	require.NoError(t, err)
	assert.True(t, after.Clean())
}

func TestVerify_DetectsMissingLink(t *testing.T) {
	f, _ := consistentFixture(t, "demo")
	require.NoError(t, os.Remove(f.paths.LinkPath("demo")))

	report, err := f.verifier.Verify(false)

	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, report.Violations[domain.ViolationMissingLink])
}

func TestVerify_DetectsNotEnabled(t *testing.T) {
	f, _ := consistentFixture(t, "demo")
	// An interrupted add: record and link written, enabled entry never was.
	require.NoError(t, os.WriteFile(f.paths.SettingsPath(), []byte(`{}`), 0o644))

	report, err := f.verifier.Verify(false)

	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, report.Violations[domain.ViolationNotEnabled])
}

func TestVerify_DetectsUnregisteredMarketplace(t *testing.T) {
	f, _ := consistentFixture(t, "demo")
	require.NoError(t, os.WriteFile(f.paths.KnownMarketplacesPath(), []byte(`{}`), 0o644))

	report, err := f.verifier.Verify(false)

	require.NoError(t, err)
	assert.Equal(t, []string{domain.MarketplaceName},
		report.Violations[domain.ViolationMarketplaceUnregistered])
}

func TestVerify_DetectsMalformedEntryButNeverRewritesIt(t *testing.T) {
	f, _ := consistentFixture(t, "demo")
	bad := `{"version": 2, "plugins": {"bad@local-dev": {"installPath": "/x"}}}`
	require.NoError(t, os.WriteFile(f.paths.InstalledPluginsPath(), []byte(bad), 0o644))

	report, err := f.verifier.Verify(true)

	require.NoError(t, err)
	assert.Equal(t, []string{"bad"}, report.Violations[domain.ViolationMalformedEntry])
	assert.Contains(t, report.Unfixable, "bad")

	data, readErr := os.ReadFile(f.paths.InstalledPluginsPath())
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `"bad@local-dev": {"installPath": "/x"}`)
}

func TestVerify_FailsOnMalformedDocument(t *testing.T) {
	f, _ := consistentFixture(t, "demo")
	require.NoError(t, os.WriteFile(f.paths.SettingsPath(), []byte("{bad"), 0o644))

	_, err := f.verifier.Verify(false)

	var malformed *domain.MalformedDocumentError
	assert.ErrorAs(t, err, &malformed)
}

func TestVerifyFix_RemovesOrphanedEnable(t *testing.T) {
	f, _ := consistentFixture(t, "demo")
	require.NoError(t, os.WriteFile(f.paths.InstalledPluginsPath(),
		[]byte(`{"version": 2, "plugins": {}}`), 0o644))
	require.NoError(t, os.Remove(f.paths.LinkPath("demo")))

	report, err := f.verifier.Verify(true)

	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, report.Fixed[domain.ViolationOrphanedEnable])

	after, err := f.verifier.Verify(false)
	require.NoError(t, err)
	assert.True(t, after.Clean())
}

func TestVerifyFix_InvalidEnabledNameIsUnfixable(t *testing.T) {
	f := newFixture(t)
	_, err := f.registry.Init()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.paths.SettingsPath(),
		[]byte(`{"enabledPlugins": {"bad name@local-dev": true}}`), 0o644))

	report, err := f.verifier.Verify(true)

	require.NoError(t, err)
	assert.Equal(t, []string{"bad name"}, report.Violations[domain.ViolationOrphanedEnable])
	assert.Contains(t, report.Unfixable, "bad name")
	assert.Empty(t, report.Fixed[domain.ViolationOrphanedEnable])

	data, readErr := os.ReadFile(f.paths.SettingsPath())
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `"bad name@local-dev"`,
		"an unaddressable entry must be left alone")
}

func TestVerifyFix_RecreatesMissingLink(t *testing.T) {
	f, source := consistentFixture(t, "demo")
	require.NoError(t, os.Remove(f.paths.LinkPath("demo")))

	report, err := f.verifier.Verify(true)

	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, report.Fixed[domain.ViolationMissingLink])

	target, ok := f.links.Resolve(f.paths.LinkPath("demo"))
	require.True(t, ok)
	assert.Equal(t, filepath.Clean(source), target)

	after, err := f.verifier.Verify(false)
	require.NoError(t, err)
	assert.True(t, after.Clean())
}

func TestVerifyFix_MissingSourceIsUnfixable(t *testing.T) {
	f, source := consistentFixture(t, "demo")
	require.NoError(t, os.RemoveAll(source))

	report, err := f.verifier.Verify(true)

	require.NoError(t, err)
	assert.Contains(t, report.Unfixable, "demo")
	assert.Empty(t, report.Fixed[domain.ViolationBrokenLink])
}

func TestVerifyFix_RemovesOrphanedLink(t *testing.T) {
	f := newFixture(t)
	_, err := f.registry.Init()
	require.NoError(t, err)
	stray := newPluginSource(t, "stray", "1.0.0")
	require.NoError(t, f.links.Create(f.paths.LinkPath("stray"), stray))

	report, err := f.verifier.Verify(true)

	require.NoError(t, err)
	assert.Equal(t, []string{"stray"}, report.Fixed[domain.ViolationOrphanedLink])
	assert.False(t, f.links.IsLink(f.paths.LinkPath("stray")))
	assert.DirExists(t, stray, "fixing must only remove the link, not the source")
}

func TestVerifyFix_ReenablesAndReregisters(t *testing.T) {
	f, _ := consistentFixture(t, "demo")
	require.NoError(t, os.WriteFile(f.paths.SettingsPath(), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(f.paths.KnownMarketplacesPath(), []byte(`{}`), 0o644))

	report, err := f.verifier.Verify(true)

	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, report.Fixed[domain.ViolationNotEnabled])
	assert.Equal(t, []string{domain.MarketplaceName},
		report.Fixed[domain.ViolationMarketplaceUnregistered])

	after, err := f.verifier.Verify(false)
	require.NoError(t, err)
	assert.True(t, after.Clean())
}

// mustTarget resolves a plugin's current link target.
func mustTarget(t *testing.T, f *fixture, name string) string {
	t.Helper()
	target, ok := f.links.Resolve(f.paths.LinkPath(name))
	require.True(t, ok)
	return target
}
