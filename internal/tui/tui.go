package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"rio-cli/internal/app"
)

// Run starts the interactive grid on the alternate screen and blocks until
// the user quits.
func Run(ctx context.Context, s *app.Session) error {
	applyThemePreference()
	applyColorProfilePreference()

	m := newAppModel(ctx, s)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
	return err
}
