package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"localdev.tools/cli/internal/core/domain"
	"localdev.tools/cli/internal/interfaces/di"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(container *di.Container) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Cross-reference the registry documents and filesystem links",
		Long: `Audit the three registry documents against the links on disk and report every
inconsistency for the local-dev marketplace: orphaned enabled entries, missing
or broken links, links without install records.

With --fix, the minimal repair is applied per finding; anything that cannot be
repaired safely (for example a missing source directory) is reported as
unfixable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := container.Verifier.Verify(fix)
			if err != nil {
				return err
			}

			if report.Clean() {
				fmt.Println(okStyle.Render("No issues found.") +
					fmt.Sprintf(" %d plugin(s) verified.", report.Checked))
				return nil
			}

			printReport(report)

			if fix {
				remaining := report.Total() - fixedCount(report)
				if remaining == 0 {
					fmt.Println(okStyle.Render("All issues repaired."))
					return nil
				}
				return fmt.Errorf("%d issue(s) could not be repaired", remaining)
			}
			return fmt.Errorf("found %d issue(s)", report.Total())
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Apply the minimal repair for each finding")

	return cmd
}

// printReport lists findings grouped by violation kind, in report order.
func printReport(report *domain.Report) {
	fmt.Println(badStyle.Render(fmt.Sprintf("Found %d issue(s):", report.Total())))
	for _, kind := range domain.ViolationKinds {
		names := report.Violations[kind]
		if len(names) == 0 {
			continue
		}
		fmt.Printf("  %s\n", headerStyle.Render(string(kind)))
		fixed := toNameSet(report.Fixed[kind])
		for _, name := range names {
			mark := warnStyle.Render("!")
			suffix := ""
			if fixed[name] {
				mark = okStyle.Render("+")
				suffix = dimStyle.Render(" (fixed)")
			}
			fmt.Printf("    %s %s%s\n", mark, name, suffix)
		}
	}
	for _, name := range report.Unfixable {
		fmt.Printf("  %s %s\n", badStyle.Render("x"), name+dimStyle.Render(" (unfixable)"))
	}
}

func fixedCount(report *domain.Report) int {
	n := 0
	for _, names := range report.Fixed {
		n += len(names)
	}
	return n
}

func toNameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
