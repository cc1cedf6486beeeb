// Package geopicker implements the interactive city picker behind --geo
// (spec.md §4.5/§6): pick a city from an embedded database, resolve its
// coordinates, and persist them to geo.toml via config.WriteGeoOverlay.
//
// The picker is a bubbletea/bubbles/lipgloss TUI, the same stack
// _examples/rochacbruno-danklinux/internal/tui uses for its setup wizard.
// The fuzzy "type to filter" behavior of
// original_source/src/geo/city_selector.rs is carried over using
// bubbles/list's own filter mode rather than reimplementing fuzzy matching,
// since the bubbles list component already does exactly that.
package geopicker

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sunsetr/sunsetr/internal/config"
)

// City is one entry in the embedded database, shaped after
// original_source/src/geo/city_selector.rs's CityInfo.
type City struct {
	Name      string
	Country   string
	Latitude  float64
	Longitude float64
}

func (c City) Title() string       { return fmt.Sprintf("%s, %s", c.Name, c.Country) }
func (c City) Description() string { return fmt.Sprintf("%.4f°, %.4f°", c.Latitude, c.Longitude) }
func (c City) FilterValue() string { return c.Name + " " + c.Country }

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ccbeff")).
		MarginLeft(1).MarginBottom(1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#cac4cf"))
)

type model struct {
	list      list.Model
	chosen    *City
	cancelled bool
}

func newModel() model {
	items := make([]list.Item, len(Cities))
	for i, c := range Cities {
		items[i] = c
	}
	delegate := list.NewDefaultDelegate()
	l := list.New(items, delegate, 0, 0)
	l.Title = "Select the nearest city"
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	return model{list: l}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if c, ok := m.list.SelectedItem().(City); ok {
				m.chosen = &c
			}
			return m, tea.Quit
		case "esc", "q", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	return m.list.View() + "\n" + statusStyle.Render("↑/↓ navigate · / filter · enter select · esc cancel")
}

// ErrCancelled is returned when the user exits the picker without choosing
// a city.
var ErrCancelled = fmt.Errorf("geopicker: selection cancelled")

// Run displays the interactive picker and, on selection, writes the chosen
// city's coordinates to geo.toml.
func Run() (City, error) {
	p := tea.NewProgram(newModel())
	result, err := p.Run()
	if err != nil {
		return City{}, fmt.Errorf("geopicker: %w", err)
	}

	m, ok := result.(model)
	if !ok || m.cancelled || m.chosen == nil {
		return City{}, ErrCancelled
	}

	if err := config.WriteGeoOverlay(m.chosen.Latitude, m.chosen.Longitude); err != nil {
		return City{}, fmt.Errorf("geopicker: write geo.toml: %w", err)
	}
	return *m.chosen, nil
}
