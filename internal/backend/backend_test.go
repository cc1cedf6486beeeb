package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_ExplicitHyprlandRequiresInstanceSignature(t *testing.T) {
	t.Setenv(EnvHyprlandInstance, "")
	_, err := Select(Hyprland)
	assert.Error(t, err)

	t.Setenv(EnvHyprlandInstance, "abc123")
	choice, err := Select(Hyprland)
	require.NoError(t, err)
	assert.Equal(t, Hyprland, choice)
}

func TestSelect_ExplicitWaylandRequiresDisplay(t *testing.T) {
	t.Setenv(EnvWaylandDisplay, "")
	_, err := Select(Wayland)
	assert.Error(t, err)

	t.Setenv(EnvWaylandDisplay, "wayland-1")
	choice, err := Select(Wayland)
	require.NoError(t, err)
	assert.Equal(t, Wayland, choice)
}

func TestSelect_AutoPrefersHyprlandOverWayland(t *testing.T) {
	t.Setenv(EnvHyprlandInstance, "abc123")
	t.Setenv(EnvWaylandDisplay, "wayland-1")

	choice, err := Select(Auto)
	require.NoError(t, err)
	assert.Equal(t, Hyprland, choice)
}

func TestSelect_AutoFallsBackToWaylandWithoutHyprland(t *testing.T) {
	t.Setenv(EnvHyprlandInstance, "")
	t.Setenv(EnvWaylandDisplay, "wayland-1")

	choice, err := Select(Auto)
	require.NoError(t, err)
	assert.Equal(t, Wayland, choice)
}

func TestSelect_AutoFailsWithNeitherSet(t *testing.T) {
	t.Setenv(EnvHyprlandInstance, "")
	t.Setenv(EnvWaylandDisplay, "")

	_, err := Select(Auto)
	assert.Error(t, err)
}

func TestError_UnwrapsUnderlyingError(t *testing.T) {
	inner := assert.AnError
	err := NewError(Fatal, inner)
	assert.Equal(t, Fatal, err.Kind)
	assert.Contains(t, err.Error(), "fatal")
	assert.ErrorIs(t, err, inner)
}
