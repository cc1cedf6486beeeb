// Package testmode's WaitForExit shares the bubbletea dependency already
// wired in internal/geopicker rather than pulling in a second raw-mode
// terminal library just to watch for Escape/Ctrl+C, mirroring
// original_source/src/commands/test.rs's wait_for_user_exit, which puts the
// terminal in raw mode for the same purpose.
package testmode

import (
	tea "github.com/charmbracelet/bubbletea"
)

type waitModel struct{}

func (waitModel) Init() tea.Cmd { return nil }

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (waitModel) View() string { return "" }

// WaitForExit blocks until the user presses Escape or Ctrl+C.
func WaitForExit() error {
	_, err := tea.NewProgram(waitModel{}, tea.WithoutRenderer()).Run()
	return err
}
