package geopicker

import (
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCity_ListItemFormatting(t *testing.T) {
	c := City{Name: "Reykjavik", Country: "Iceland", Latitude: 64.1466, Longitude: -21.9426}
	assert.Equal(t, "Reykjavik, Iceland", c.Title())
	assert.Equal(t, "64.1466°, -21.9426°", c.Description())
	assert.Equal(t, "Reykjavik Iceland", c.FilterValue())
}

func TestCities_NonEmptyAndWellFormed(t *testing.T) {
	require.NotEmpty(t, Cities)
	for _, c := range Cities {
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Country)
		assert.GreaterOrEqual(t, c.Latitude, -90.0)
		assert.LessOrEqual(t, c.Latitude, 90.0)
		assert.GreaterOrEqual(t, c.Longitude, -180.0)
		assert.LessOrEqual(t, c.Longitude, 180.0)
	}
}

func TestNewModel_BuildsListFromCities(t *testing.T) {
	m := newModel()
	assert.Len(t, m.list.Items(), len(Cities))
	assert.False(t, m.cancelled)
	assert.Nil(t, m.chosen)
}

func TestUpdate_EscCancels(t *testing.T) {
	m := newModel()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	mm := updated.(model)
	assert.True(t, mm.cancelled)
	assert.NotNil(t, cmd)
}

func TestUpdate_EnterSelectsHighlightedItem(t *testing.T) {
	m := newModel()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	mm := updated.(model)
	require.NotNil(t, mm.chosen)
	assert.Equal(t, Cities[0].Name, mm.chosen.Name)
	assert.NotNil(t, cmd)
}

func TestUpdate_SlashEntersFilteringMode(t *testing.T) {
	m := newModel()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	mm := updated.(model)
	assert.Equal(t, list.Filtering, mm.list.FilterState())
}
