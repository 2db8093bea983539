package domain

// ViolationKind classifies one way the three documents and the filesystem can
// disagree about a plugin. Violations are findings, not errors: verify reports
// them without failing.
type ViolationKind string

const (
	// ViolationOrphanedEnable is an enabled entry in settings without a
	// matching install record.
	ViolationOrphanedEnable ViolationKind = "orphaned-enable"

	// ViolationNotEnabled is an install record without an enabled entry,
	// typically left behind by an interrupted add.
	ViolationNotEnabled ViolationKind = "not-enabled"

	// ViolationMissingLink is an install record with no link on disk.
	ViolationMissingLink ViolationKind = "missing-link"

	// ViolationBrokenLink is a link whose target is gone or no longer matches
	// the install record's source path.
	ViolationBrokenLink ViolationKind = "broken-link"

	// ViolationOrphanedLink is a link on disk with no install record.
	ViolationOrphanedLink ViolationKind = "orphaned-link"

	// ViolationMarketplaceUnregistered means install records reference the
	// owned marketplace but its registry entry is missing.
	ViolationMarketplaceUnregistered ViolationKind = "marketplace-unregistered"

	// ViolationMalformedEntry is an owned document entry with the wrong
	// shape, e.g. an install record that is not an array. Never auto-repaired.
	ViolationMalformedEntry ViolationKind = "malformed-entry"
)

// ViolationKinds lists all kinds in report order.
var ViolationKinds = []ViolationKind{
	ViolationMarketplaceUnregistered,
	ViolationMalformedEntry,
	ViolationOrphanedEnable,
	ViolationNotEnabled,
	ViolationMissingLink,
	ViolationBrokenLink,
	ViolationOrphanedLink,
}

// Report is the outcome of a verify pass: for each violation kind, the sorted
// plugin names affected. Repair mode additionally records what was fixed and
// what could not be.
type Report struct {
	Violations map[ViolationKind][]string
	Fixed      map[ViolationKind][]string
	Unfixable  []string
	Checked    int
}

// NewReport creates an empty Report.
func NewReport() *Report {
	return &Report{
		Violations: make(map[ViolationKind][]string),
		Fixed:      make(map[ViolationKind][]string),
	}
}

// Add records a violation finding for a plugin.
func (r *Report) Add(kind ViolationKind, name string) {
	r.Violations[kind] = append(r.Violations[kind], name)
}

// MarkFixed records that a violation was repaired.
func (r *Report) MarkFixed(kind ViolationKind, name string) {
	r.Fixed[kind] = append(r.Fixed[kind], name)
}

// MarkUnfixable records a violation repair mode could not resolve.
func (r *Report) MarkUnfixable(name string) {
	r.Unfixable = append(r.Unfixable, name)
}

// Total returns the number of violations found.
func (r *Report) Total() int {
	n := 0
	for _, names := range r.Violations {
		n += len(names)
	}
	return n
}

// Clean reports whether no violations were found.
func (r *Report) Clean() bool {
	return r.Total() == 0
}
