// Package cli wires the registry engine's operations to cobra commands. All
// user-facing presentation lives here; the services below neither print nor
// log.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"localdev.tools/cli/internal/infrastructure/hostconfig"
	"localdev.tools/cli/internal/interfaces/di"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// Shared output styles.
var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// NewRootCommand creates the base command with all subcommands attached.
func NewRootCommand(container *di.Container) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "localdev",
		Short: "Manage a local-dev marketplace for host plugins",
		Long: `localdev registers in-progress plugins with the plugin host by maintaining
a "local-dev" marketplace: the host's settings, install-records and
marketplace-registry documents plus one directory link per plugin.

Keys these documents hold for other marketplaces or tools are never touched.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("config-dir") {
				return nil
			}
			dir, _ := cmd.Flags().GetString("config-dir")
			rebuilt, err := di.NewContainerAt(hostconfig.Paths{ConfigDir: dir})
			if err != nil {
				return fmt.Errorf("failed to use config dir %s: %w", dir, err)
			}
			*container = *rebuilt
			return nil
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().String("config-dir", "",
		fmt.Sprintf("Host config directory (default is $%s or ~/.pluginhost)", hostconfig.EnvConfigDir))

	rootCmd.AddCommand(NewInitCommand(container))
	rootCmd.AddCommand(NewAddCommand(container))
	rootCmd.AddCommand(NewRemoveCommand(container))
	rootCmd.AddCommand(NewListCommand(container))
	rootCmd.AddCommand(NewVerifyCommand(container))
	rootCmd.AddCommand(NewDashboardCommand(container))

	return rootCmd
}

// goVersion returns the Go version used to build the binary.
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// Execute runs the root command and maps failures to exit code 1.
func Execute(container *di.Container) {
	rootCmd := NewRootCommand(container)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
