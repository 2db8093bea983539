package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"localdev.tools/cli/internal/core/domain"
	"localdev.tools/cli/internal/interfaces/di"
)

// NewAddCommand creates the add command.
func NewAddCommand(container *di.Container) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <plugin-dir>",
		Short: "Register a local plugin directory with the marketplace",
		Long: fmt.Sprintf(`Register a plugin from a local directory: write its install record, link the
directory into the marketplace, and enable it in the host settings.

The plugin name is read from %s inside the directory, falling
back to the directory name. Use --name to override.`, domain.ManifestRelPath),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := container.Registry.Add(name, args[0])
			if err != nil {
				return err
			}

			if res.Refreshed {
				fmt.Println(warnStyle.Render("Plugin already registered:") + " " + res.Name)
				fmt.Println("  Registry entries refreshed.")
			} else {
				fmt.Println(okStyle.Render("Plugin registered:") + " " + res.Name)
			}
			fmt.Printf("  Source:  %s\n", res.SourcePath)
			fmt.Printf("  Link:    %s\n", res.LinkPath)
			fmt.Printf("  Version: %s\n", res.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Override the plugin name from the manifest")

	return cmd
}
