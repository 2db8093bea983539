package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"localdev.tools/cli/internal/interfaces/di"
)

// NewInitCommand creates the init command.
func NewInitCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create and register the local-dev marketplace",
		Long: `Create the local-dev marketplace directory structure and register it in the
host's marketplace-registry document.

Running init again is safe: the existing entry is refreshed, not duplicated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := container.Registry.Init()
			if err != nil {
				return err
			}

			if res.AlreadyRegistered {
				fmt.Println(warnStyle.Render("Marketplace already registered.") + " Entry refreshed.")
			} else {
				fmt.Println(okStyle.Render("Marketplace registered:") + " local-dev")
			}
			fmt.Printf("  Directory: %s\n", res.MarketplaceDir)
			fmt.Printf("  Plugins:   %s\n", res.PluginsDir)
			return nil
		},
	}
}
