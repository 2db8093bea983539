package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"localdev.tools/cli/internal/core/domain"
	"localdev.tools/cli/internal/infrastructure/watch"
	"localdev.tools/cli/internal/interfaces/di"
)

// DashboardFlags holds command-line flags for the dashboard command.
type DashboardFlags struct {
	RefreshRate time.Duration
}

// NewDashboardCommand creates the dashboard command.
func NewDashboardCommand(container *di.Container) *cobra.Command {
	flags := &DashboardFlags{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live terminal view of local-dev plugin status",
		Long: `Launch an interactive terminal view of registered plugins. The display
refreshes when the registry documents or links change on disk, and on a
periodic timer as a fallback.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(container, flags)
		},
	}

	cmd.Flags().DurationVar(&flags.RefreshRate, "refresh", 2*time.Second, "Fallback refresh interval")

	return cmd
}

// runDashboard starts the terminal dashboard.
func runDashboard(container *di.Container, flags *DashboardFlags) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := watch.New(250*time.Millisecond,
		container.Paths.ConfigDir,
		container.Paths.PluginsDir(),
		container.Paths.MarketplacePluginsDir(),
	)
	if err != nil {
		return fmt.Errorf("failed to watch registry files: %w", err)
	}
	go watcher.Run(ctx)

	model := newDashboardModel(container, flags, watcher.Events)
	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}

type tickMsg time.Time

type changedMsg struct{}

type statusesMsg struct {
	statuses []domain.PluginStatus
	err      error
}

// dashboardModel holds the state for the Bubble Tea dashboard.
type dashboardModel struct {
	container    *di.Container
	flags        *DashboardFlags
	changes      <-chan struct{}
	statuses     []domain.PluginStatus
	paused       bool
	lastUpdate   time.Time
	windowWidth  int
	windowHeight int
	err          error
}

// newDashboardModel creates a new dashboard model.
func newDashboardModel(container *di.Container, flags *DashboardFlags, changes <-chan struct{}) dashboardModel {
	return dashboardModel{
		container: container,
		flags:     flags,
		changes:   changes,
	}
}

// Init implements the Bubble Tea init method.
func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.loadStatusesCmd(), m.tickCmd(), m.waitForChangeCmd())
}

// Update implements the Bubble Tea update method.
func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit

		case " ":
			m.paused = !m.paused
			return m, nil

		case "r":
			return m, m.loadStatusesCmd()
		}

	case tickMsg:
		if !m.paused {
			return m, tea.Batch(m.tickCmd(), m.loadStatusesCmd())
		}
		return m, m.tickCmd()

	case changedMsg:
		cmds := []tea.Cmd{m.waitForChangeCmd()}
		if !m.paused {
			cmds = append(cmds, m.loadStatusesCmd())
		}
		return m, tea.Batch(cmds...)

	case statusesMsg:
		m.statuses = msg.statuses
		m.err = msg.err
		m.lastUpdate = time.Now()
		return m, nil
	}

	return m, nil
}

// View implements the Bubble Tea view method.
func (m dashboardModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'q' to quit", m.err)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTable(),
		m.renderFooter(),
	)
}

// renderHeader renders the dashboard header.
func (m dashboardModel) renderHeader() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Render("local-dev plugins")

	status := "LIVE"
	statusStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	if m.paused {
		status = "PAUSED"
		statusStyle = statusStyle.Foreground(lipgloss.Color("196"))
	}

	line1 := lipgloss.JoinHorizontal(lipgloss.Left,
		title,
		fmt.Sprintf("  %d plugin(s)  ", len(m.statuses)),
		statusStyle.Render(status),
	)
	line2 := dimStyle.Render(fmt.Sprintf("Config: %s | Updated: %s",
		m.container.Paths.ConfigDir,
		m.lastUpdate.Format("15:04:05"),
	))

	return lipgloss.JoinVertical(lipgloss.Left, line1, line2, "")
}

// renderTable renders the plugin status table.
func (m dashboardModel) renderTable() string {
	if len(m.statuses) == 0 {
		return dimStyle.Render("\n  No local-dev plugins registered.\n")
	}
	return renderStatusTable(m.statuses)
}

// renderFooter renders the control instructions footer.
func (m dashboardModel) renderFooter() string {
	return "\n" + dimStyle.Render("q quit · space pause · r refresh")
}

// loadStatusesCmd reads the current plugin statuses off the Update loop.
func (m dashboardModel) loadStatusesCmd() tea.Cmd {
	return func() tea.Msg {
		statuses, err := m.container.Registry.List()
		return statusesMsg{statuses: statuses, err: err}
	}
}

// tickCmd schedules the fallback refresh.
func (m dashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.flags.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChangeCmd blocks on the filesystem watcher's channel.
func (m dashboardModel) waitForChangeCmd() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}
