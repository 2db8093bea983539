package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"localdev.tools/cli/internal/interfaces/di"
)

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <plugin>",
		Short: "Unregister a plugin from the marketplace",
		Long: `Unregister a plugin: disable it in the host settings, remove its directory
link, and drop its install record. The plugin's source directory is never
touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Registry.Remove(args[0]); err != nil {
				return err
			}
			fmt.Println(okStyle.Render("Plugin removed:") + " " + args[0])
			return nil
		},
	}
}
