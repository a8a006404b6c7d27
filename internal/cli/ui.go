package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/trellis-dev/trellis/internal/tui"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui [project_id]",
	Short: "Open the interactive board for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}

	projectID, err := parseID(args[0], "project")
	if err != nil {
		s.Close()
		return err
	}

	model := tui.New(s, graphService(s), projectID)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		s.Close()
		return fmt.Errorf("TUI error: %w", err)
	}

	s.Close()
	return nil
}
