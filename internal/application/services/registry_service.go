// Package services implements the registry engine's lifecycle operations and
// the verify reconciler. Services never print; presentation belongs to the
// CLI layer.
package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"localdev.tools/cli/internal/core/domain"
	"localdev.tools/cli/internal/core/ports"
	"localdev.tools/cli/internal/infrastructure/docstore"
	"localdev.tools/cli/internal/infrastructure/hostconfig"
)

// RegistryService coordinates the three registry documents and the link
// manager to implement the plugin lifecycle: init, add, remove, list.
//
// Per plugin the states are Absent -> Registered -> Linked -> Enabled. Add
// writes in that order so a crash leaves the plugin "installed but not yet
// enabled"; remove walks the same chain backwards so any interruption leaves
// it strictly less enabled.
type RegistryService struct {
	settings     ports.DocumentStore
	installed    ports.DocumentStore
	marketplaces ports.DocumentStore
	links        ports.LinkManager
	paths        hostconfig.Paths
	now          func() time.Time
}

// NewRegistryService creates a RegistryService over the given stores.
func NewRegistryService(
	settings, installed, marketplaces ports.DocumentStore,
	links ports.LinkManager,
	paths hostconfig.Paths,
) *RegistryService {
	return &RegistryService{
		settings:     settings,
		installed:    installed,
		marketplaces: marketplaces,
		links:        links,
		paths:        paths,
		now:          time.Now,
	}
}

// InitResult reports what Init found and created.
type InitResult struct {
	AlreadyRegistered bool
	MarketplaceDir    string
	PluginsDir        string
}

// Init creates the owned marketplace's directory structure and upserts its
// entry in the marketplace-registry document. It is idempotent: running it
// again refreshes the entry without duplicating it.
func (s *RegistryService) Init() (InitResult, error) {
	res := InitResult{
		MarketplaceDir: s.paths.MarketplaceDir(),
		PluginsDir:     s.paths.MarketplacePluginsDir(),
	}

	if err := os.MkdirAll(res.PluginsDir, 0o755); err != nil {
		return res, fmt.Errorf("init: create plugins directory: %w", err)
	}

	raw, err := s.marketplaces.Load()
	if err != nil {
		return res, fmt.Errorf("init: %w", err)
	}
	res.AlreadyRegistered = gjson.GetBytes(raw, marketplaceKeyPath()).Exists()

	entry := domain.NewLocalDevMarketplace(res.MarketplaceDir, s.now())
	if err := s.marketplaces.Apply(ports.Patch{Path: marketplaceKeyPath(), Value: entry}); err != nil {
		return res, fmt.Errorf("init: %w", err)
	}
	return res, nil
}

// AddResult reports what Add registered.
type AddResult struct {
	Name       string
	SourcePath string
	LinkPath   string
	Version    string
	Refreshed  bool
}

// Add registers a plugin living at sourcePath: install record first, then
// the directory link, then the enabled entry. When name is empty it is taken
// from the plugin manifest, falling back to the directory basename.
//
// Re-running Add for a plugin whose link already points at the same source
// refreshes the registry entries instead of failing; any other existing
// record is a duplicate.
func (s *RegistryService) Add(name, sourcePath string) (AddResult, error) {
	var res AddResult

	source, err := filepath.Abs(sourcePath)
	if err != nil {
		return res, fmt.Errorf("add: resolve source: %w", err)
	}
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return res, fmt.Errorf("add: %w: %s", domain.ErrSourceNotFound, source)
	}

	manifest, err := domain.ReadManifest(source)
	if err != nil {
		return res, fmt.Errorf("add: %w", err)
	}
	if name == "" {
		name = manifest.EffectiveName(source)
	}
	plugin, err := domain.NewPluginName(name)
	if err != nil {
		return res, fmt.Errorf("add: %w", err)
	}

	registered, err := s.marketplaceRegistered()
	if err != nil {
		return res, fmt.Errorf("add: %w", err)
	}
	if !registered {
		return res, fmt.Errorf("add: %w", domain.ErrNotInitialized)
	}

	installedRaw, err := s.installed.Load()
	if err != nil {
		return res, fmt.Errorf("add: %w", err)
	}
	linkPath := s.paths.LinkPath(plugin.Value())
	target, hasLink := s.links.Resolve(linkPath)
	sameTarget := hasLink && target == filepath.Clean(source)

	if gjson.GetBytes(installedRaw, recordKeyPath(plugin)).Exists() && !sameTarget {
		return res, fmt.Errorf("add: %w: %s", domain.ErrDuplicatePlugin, plugin)
	}

	res = AddResult{
		Name:       plugin.Value(),
		SourcePath: source,
		LinkPath:   linkPath,
		Version:    manifest.EffectiveVersion(),
		Refreshed:  sameTarget,
	}

	record := domain.NewInstallRecord(source, res.Version, s.projectPath(), s.now())
	patches := []ports.Patch{
		{Path: recordKeyPath(plugin), Value: []domain.InstallRecord{record}},
	}
	if !gjson.GetBytes(installedRaw, "version").Exists() {
		patches = append([]ports.Patch{{Path: "version", Value: 2}}, patches...)
	}
	if err := s.installed.Apply(patches...); err != nil {
		return res, fmt.Errorf("add: %w", err)
	}

	if err := s.links.Create(linkPath, source); err != nil {
		return res, fmt.Errorf("add: %w", err)
	}

	if err := s.settings.Apply(ports.Patch{Path: enabledKeyPath(plugin), Value: true}); err != nil {
		return res, fmt.Errorf("add: %w", err)
	}
	return res, nil
}

// Remove unregisters a plugin, walking the lifecycle backwards: enabled
// entry first, then the link, then the install record. A failure between
// steps leaves a reconciler-visible state, never a dangling enabled entry.
func (s *RegistryService) Remove(name string) error {
	plugin, err := domain.NewPluginName(name)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	installedRaw, err := s.installed.Load()
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	hasRecord := gjson.GetBytes(installedRaw, recordKeyPath(plugin)).Exists()
	linkPath := s.paths.LinkPath(plugin.Value())
	hasLink := s.links.IsLink(linkPath)

	if !hasRecord && !hasLink {
		return fmt.Errorf("remove: %w: %s", domain.ErrUnknownPlugin, plugin)
	}

	settingsRaw, err := s.settings.Load()
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	// Only write settings when the enabled entry actually exists; removing a
	// never-enabled plugin must not create or rewrite the document.
	if gjson.GetBytes(settingsRaw, enabledKeyPath(plugin)).Exists() {
		if err := s.settings.Apply(ports.Patch{Path: enabledKeyPath(plugin), Delete: true}); err != nil {
			return fmt.Errorf("remove: %w", err)
		}
	}

	if _, err := os.Lstat(linkPath); err == nil {
		if err := s.links.Remove(linkPath); err != nil {
			return fmt.Errorf("remove: %w", err)
		}
	}

	if err := s.installed.Apply(ports.Patch{Path: recordKeyPath(plugin), Delete: true}); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// List joins the three documents and live link state into per-plugin status
// summaries, sorted by name. It mutates nothing.
func (s *RegistryService) List() ([]domain.PluginStatus, error) {
	installedRaw, err := s.installed.Load()
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	settingsRaw, err := s.settings.Load()
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	records := ownedInstallRecords(installedRaw)
	statuses := make([]domain.PluginStatus, 0, len(records))
	for name, rec := range records {
		linkPath := s.paths.LinkPath(name)
		target, linked := s.links.Resolve(linkPath)
		statuses = append(statuses, domain.PluginStatus{
			Name:       name,
			SourcePath: rec.InstallPath,
			Version:    rec.Version,
			Linked:     linked,
			Healthy:    linked && dirExists(target),
			Enabled:    enabledInSettings(settingsRaw, name),
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses, nil
}

// marketplaceRegistered reports whether the owned marketplace entry exists.
func (s *RegistryService) marketplaceRegistered() (bool, error) {
	raw, err := s.marketplaces.Load()
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(raw, marketplaceKeyPath()).Exists(), nil
}

// projectPath is recorded into install records; the host uses it to scope
// project-level installs.
func (s *RegistryService) projectPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// --- document path helpers (owned keys only) ---

func marketplaceKeyPath() string {
	return docstore.EscapeKey(domain.MarketplaceName)
}

func recordKeyPath(p domain.PluginName) string {
	return "plugins." + docstore.EscapeKey(p.Key())
}

func enabledKeyPath(p domain.PluginName) string {
	return "enabledPlugins." + docstore.EscapeKey(p.Key())
}

// --- typed read-only views over raw document bytes ---

// ownedInstallRecords extracts the first install record per plugin for the
// owned marketplace, keyed by bare plugin name.
func ownedInstallRecords(installedRaw []byte) map[string]domain.InstallRecord {
	out := make(map[string]domain.InstallRecord)
	suffix := "@" + domain.MarketplaceName
	gjson.GetBytes(installedRaw, "plugins").ForEach(func(key, value gjson.Result) bool {
		if !strings.HasSuffix(key.Str, suffix) || !value.IsArray() {
			return true
		}
		name := strings.TrimSuffix(key.Str, suffix)
		rec := domain.InstallRecord{Version: domain.DefaultVersion}
		first := value.Get("0")
		if first.Exists() {
			rec.Scope = first.Get("scope").Str
			rec.InstallPath = first.Get("installPath").Str
			if v := first.Get("version").Str; v != "" {
				rec.Version = v
			}
			rec.InstalledAt = first.Get("installedAt").Str
			rec.LastUpdated = first.Get("lastUpdated").Str
			rec.ProjectPath = first.Get("projectPath").Str
		}
		out[name] = rec
		return true
	})
	return out
}

// enabledPluginNames returns the owned-marketplace plugins enabled in the
// settings document.
func enabledPluginNames(settingsRaw []byte) []string {
	var names []string
	suffix := "@" + domain.MarketplaceName
	gjson.GetBytes(settingsRaw, "enabledPlugins").ForEach(func(key, value gjson.Result) bool {
		if strings.HasSuffix(key.Str, suffix) && value.Bool() {
			names = append(names, strings.TrimSuffix(key.Str, suffix))
		}
		return true
	})
	return names
}

// enabledInSettings reports whether one owned plugin is enabled.
func enabledInSettings(settingsRaw []byte, name string) bool {
	for _, n := range enabledPluginNames(settingsRaw) {
		if n == name {
			return true
		}
	}
	return false
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
