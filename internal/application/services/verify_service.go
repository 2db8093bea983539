package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"localdev.tools/cli/internal/core/domain"
	"localdev.tools/cli/internal/core/ports"
	"localdev.tools/cli/internal/infrastructure/hostconfig"
)

// VerifyService is the reconciler: it loads all three documents plus the
// filesystem link state and computes the set of invariant violations for the
// owned marketplace. Inconsistency is data, not failure: Verify only errors
// when a document is unreadable or malformed.
type VerifyService struct {
	settings     ports.DocumentStore
	installed    ports.DocumentStore
	marketplaces ports.DocumentStore
	links        ports.LinkManager
	paths        hostconfig.Paths
	now          func() time.Time
}

// NewVerifyService creates a VerifyService over the given stores.
func NewVerifyService(
	settings, installed, marketplaces ports.DocumentStore,
	links ports.LinkManager,
	paths hostconfig.Paths,
) *VerifyService {
	return &VerifyService{
		settings:     settings,
		installed:    installed,
		marketplaces: marketplaces,
		links:        links,
		paths:        paths,
		now:          time.Now,
	}
}

// Verify audits declared state (the three documents) against observed state
// (links on disk) and reports every violation, keyed by kind with sorted
// plugin names. With fix set, the minimal repair is applied per finding:
// orphaned entries and links are dropped, missing or broken links are
// recreated when the source still exists, and anything else is reported as
// unfixable.
func (s *VerifyService) Verify(fix bool) (*domain.Report, error) {
	settingsRaw, err := s.settings.Load()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	installedRaw, err := s.installed.Load()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	marketplacesRaw, err := s.marketplaces.Load()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	enabled := toSet(enabledPluginNames(settingsRaw))
	records := ownedInstallRecords(installedRaw)
	malformed := malformedRecordEntries(installedRaw)

	linkNames, err := s.links.Enumerate(s.paths.MarketplacePluginsDir())
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	linked := toSet(linkNames)

	report := domain.NewReport()

	registered := gjson.GetBytes(marketplacesRaw, marketplaceKeyPath()).Exists()
	if len(records) > 0 && !registered {
		report.Add(domain.ViolationMarketplaceUnregistered, domain.MarketplaceName)
		if fix {
			entry := domain.NewLocalDevMarketplace(s.paths.MarketplaceDir(), s.now())
			if err := s.marketplaces.Apply(ports.Patch{Path: marketplaceKeyPath(), Value: entry}); err != nil {
				return nil, fmt.Errorf("verify: repair marketplace entry: %w", err)
			}
			report.MarkFixed(domain.ViolationMarketplaceUnregistered, domain.MarketplaceName)
		}
	}

	// Guessing the intended shape risks data loss, so malformed entries are
	// reported but never rewritten, even in fix mode.
	for _, name := range malformed {
		report.Add(domain.ViolationMalformedEntry, name)
		if fix {
			report.MarkUnfixable(name)
		}
	}

	names := sortedUnion(enabled, keys(records), linked)
	report.Checked = len(names)

	for _, name := range names {
		plugin, nameErr := domain.NewPluginName(name)
		_, hasRecord := records[name]

		if enabled[name] && !hasRecord {
			report.Add(domain.ViolationOrphanedEnable, name)
			if fix {
				// A name that fails validation cannot be addressed as an
				// owned settings key; leave the entry alone.
				if nameErr != nil {
					report.MarkUnfixable(name)
				} else {
					if err := s.settings.Apply(ports.Patch{Path: enabledKeyPath(plugin), Delete: true}); err != nil {
						return nil, fmt.Errorf("verify: repair orphaned enable: %w", err)
					}
					report.MarkFixed(domain.ViolationOrphanedEnable, name)
				}
			}
		}

		if hasRecord && !enabled[name] {
			report.Add(domain.ViolationNotEnabled, name)
			if fix {
				if nameErr != nil {
					report.MarkUnfixable(name)
				} else {
					if err := s.settings.Apply(ports.Patch{Path: enabledKeyPath(plugin), Value: true}); err != nil {
						return nil, fmt.Errorf("verify: repair enabled entry: %w", err)
					}
					report.MarkFixed(domain.ViolationNotEnabled, name)
				}
			}
		}

		if hasRecord && !linked[name] {
			report.Add(domain.ViolationMissingLink, name)
			if fix {
				if s.recreateLink(name, records[name]) {
					report.MarkFixed(domain.ViolationMissingLink, name)
				} else {
					report.MarkUnfixable(name)
				}
			}
		}

		if linked[name] && !hasRecord {
			report.Add(domain.ViolationOrphanedLink, name)
			if fix {
				if err := s.links.Remove(s.paths.LinkPath(name)); err != nil {
					return nil, fmt.Errorf("verify: repair orphaned link: %w", err)
				}
				report.MarkFixed(domain.ViolationOrphanedLink, name)
			}
		}

		if linked[name] && hasRecord && s.linkBroken(name, records[name]) {
			report.Add(domain.ViolationBrokenLink, name)
			if fix {
				if s.recreateLink(name, records[name]) {
					report.MarkFixed(domain.ViolationBrokenLink, name)
				} else {
					report.MarkUnfixable(name)
				}
			}
		}
	}

	return report, nil
}

// linkBroken reports whether a plugin's link target is gone or no longer
// matches its install record. A stale target that still resolves to some
// directory counts as broken: the source was moved and the record is the
// authority.
func (s *VerifyService) linkBroken(name string, rec domain.InstallRecord) bool {
	target, ok := s.links.Resolve(s.paths.LinkPath(name))
	if !ok || !dirExists(target) {
		return true
	}
	return rec.InstallPath != "" && target != filepath.Clean(rec.InstallPath)
}

// recreateLink drops any existing link for the plugin and relinks it to the
// record's source path. Returns false when the source no longer exists, in
// which case the violation is unfixable.
func (s *VerifyService) recreateLink(name string, rec domain.InstallRecord) bool {
	if !dirExists(rec.InstallPath) {
		return false
	}
	linkPath := s.paths.LinkPath(name)
	if s.links.IsLink(linkPath) {
		if err := s.links.Remove(linkPath); err != nil {
			return false
		}
	}
	return s.links.Create(linkPath, rec.InstallPath) == nil
}

// malformedRecordEntries returns owned install-record keys whose value does
// not have the expected array shape.
func malformedRecordEntries(installedRaw []byte) []string {
	var names []string
	suffix := "@" + domain.MarketplaceName
	gjson.GetBytes(installedRaw, "plugins").ForEach(func(key, value gjson.Result) bool {
		if strings.HasSuffix(key.Str, suffix) && !value.IsArray() {
			names = append(names, strings.TrimSuffix(key.Str, suffix))
		}
		return true
	})
	sort.Strings(names)
	return names
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func keys(records map[string]domain.InstallRecord) map[string]bool {
	set := make(map[string]bool, len(records))
	for name := range records {
		set[name] = true
	}
	return set
}

func sortedUnion(sets ...map[string]bool) []string {
	union := make(map[string]bool)
	for _, set := range sets {
		for name := range set {
			union[name] = true
		}
	}
	names := make([]string, 0, len(union))
	for name := range union {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
