package domain

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPluginName_ValidatesInput(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
	}{
		{name: "simple_name", input: "demo", expectError: false},
		{name: "with_digits_and_separators", input: "my-plugin_v2.1", expectError: false},
		{name: "leading_digit", input: "9lives", expectError: false},
		{name: "empty", input: "", expectError: true},
		{name: "leading_dot", input: ".hidden", expectError: true},
		{name: "leading_dash", input: "-flag", expectError: true},
		{name: "path_separator", input: "a/b", expectError: true},
		{name: "spaces", input: "my plugin", expectError: true},
		{name: "parent_traversal", input: "..", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin, err := NewPluginName(tt.input)

			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, plugin.Value())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.input, plugin.Value())
				assert.Equal(t, tt.input+"@local-dev", plugin.Key())
			}
		})
	}
}

func TestReadManifest_MissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()

	m, err := ReadManifest(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), m.EffectiveName(dir))
	assert.Equal(t, DefaultVersion, m.EffectiveVersion())
}

func TestReadManifest_ReadsNameAndVersion(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name": "demo", "version": "0.3.0", "description": "d"}`)

	m, err := ReadManifest(dir)

	require.NoError(t, err)
	assert.Equal(t, "demo", m.EffectiveName(dir))
	assert.Equal(t, "0.3.0", m.EffectiveVersion())
	assert.Equal(t, "d", m.Description)
}

func TestReadManifest_InvalidJSONFails(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{not json`)

	_, err := ReadManifest(dir)

	assert.Error(t, err)
}

func TestTimestamp_MatchesHostFormat(t *testing.T) {
	ts := Timestamp(time.Date(2024, 3, 7, 12, 30, 45, 987654321, time.UTC))

	assert.Equal(t, "2024-03-07T12:30:45.987Z", ts)
}

func TestNewInstallRecord_PopulatesWireFields(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	rec := NewInstallRecord("/src/demo", "1.2.3", "/home/dev", now)

	assert.Equal(t, "project", rec.Scope)
	assert.Equal(t, "/src/demo", rec.InstallPath)
	assert.Equal(t, "1.2.3", rec.Version)
	assert.Equal(t, rec.InstalledAt, rec.LastUpdated)
	assert.Equal(t, "/home/dev", rec.ProjectPath)
}

func TestNewLocalDevMarketplace_IsDirectorySource(t *testing.T) {
	entry := NewLocalDevMarketplace("/cfg/plugins/marketplaces/local-dev", time.Now())

	assert.Equal(t, "directory", entry.Source.Source)
	assert.Equal(t, "/cfg/plugins/marketplaces/local-dev", entry.Source.Path)
	assert.Equal(t, "/cfg/plugins/marketplaces/local-dev", entry.InstallLocation)
}

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	manifestDir := filepath.Join(dir, ".plugin")
	require.NoError(t, os.MkdirAll(manifestDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(manifestDir, "plugin.json"), []byte(content), 0o644))
}
