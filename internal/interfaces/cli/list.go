package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"localdev.tools/cli/internal/core/domain"
	"localdev.tools/cli/internal/interfaces/di"
)

// NewListCommand creates the list command.
func NewListCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show registered local-dev plugins with status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := container.Registry.List()
			if err != nil {
				return err
			}

			if len(statuses) == 0 {
				fmt.Println(dimStyle.Render("No local-dev plugins registered."))
				return nil
			}

			fmt.Println(renderStatusTable(statuses))
			return nil
		},
	}
}

// renderStatusTable formats plugin statuses as an aligned, styled table.
func renderStatusTable(statuses []domain.PluginStatus) string {
	nameWidth := len("NAME")
	versionWidth := len("VERSION")
	for _, st := range statuses {
		if len(st.Name) > nameWidth {
			nameWidth = len(st.Name)
		}
		if len(st.Version) > versionWidth {
			versionWidth = len(st.Version)
		}
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s  %-*s  %-8s  %-7s  %s",
		nameWidth, "NAME", versionWidth, "VERSION", "ENABLED", "LINK", "TARGET")))
	b.WriteByte('\n')

	for _, st := range statuses {
		enabled := badStyle.Render("no ")
		if st.Enabled {
			enabled = okStyle.Render("yes")
		}

		var linkState, target string
		switch {
		case st.Linked && st.Healthy:
			linkState = okStyle.Render("ok     ")
			target = st.SourcePath
		case st.Linked:
			linkState = badStyle.Render("broken ")
			target = badStyle.Render(st.SourcePath)
		default:
			linkState = badStyle.Render("missing")
			target = dimStyle.Render("-")
		}

		b.WriteString(fmt.Sprintf("%-*s  %-*s  %s       %s  %s\n",
			nameWidth, st.Name, versionWidth, st.Version, enabled, linkState, target))
	}
	return strings.TrimRight(b.String(), "\n")
}
