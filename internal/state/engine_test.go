package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunsetr/sunsetr/internal/config"
)

func finishByConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		NightTempK:         3300,
		DayTempK:           6500,
		NightGammaPct:      90,
		DayGammaPct:        100,
		SunsetLocal:        19 * time.Hour,
		SunriseLocal:       6 * time.Hour,
		TransitionDuration: 45 * time.Minute,
		UpdateInterval:     60 * time.Second,
		TransitionMode:     config.ModeFinishBy,
	}
}

func at(hh, mm, ss int) time.Time {
	return time.Date(2026, 6, 21, hh, mm, ss, 0, time.UTC)
}

// Scenario 1: spec.md §8.
func TestEvaluate_Noon_IsDay(t *testing.T) {
	cfg := finishByConfig(t)
	s, err := Evaluate(cfg, at(12, 0, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, Day, s.Kind)

	out := Render(cfg, s)
	assert.Equal(t, 6500, out.TempK)
	assert.InDelta(t, 100, out.GammaPct, 0.01)
}

// Scenario 2: sunset completes exactly at the configured time.
func TestEvaluate_SunsetEnd(t *testing.T) {
	cfg := finishByConfig(t)
	s, err := Evaluate(cfg, at(19, 0, 0), nil)
	require.NoError(t, err)
	require.Equal(t, InSunset, s.Kind)
	assert.InDelta(t, 1.0, s.Progress, 1e-9)

	out := Render(cfg, s)
	assert.InDelta(t, 3300, float64(out.TempK), 5)
	assert.InDelta(t, 90, out.GammaPct, 0.5)
}

// Scenario 3: midpoint of the sunset window, eased non-linearly.
func TestEvaluate_SunsetMidpoint(t *testing.T) {
	cfg := finishByConfig(t)
	s, err := Evaluate(cfg, at(18, 37, 30), nil)
	require.NoError(t, err)
	require.Equal(t, InSunset, s.Kind)
	assert.InDelta(t, 0.5, s.Progress, 1e-6)

	out := Render(cfg, s)
	assert.Greater(t, out.TempK, 3300)
	assert.Less(t, out.TempK, 6500)
	// The Bezier ease is symmetric about (0.5, 0.5), so exact midpoint
	// progress renders exactly the linear midpoint even though the curve is
	// non-linear elsewhere.
	assert.InDelta(t, (3300.0+6500.0)/2, float64(out.TempK), 2)
}

// Scenario 4: deep night.
func TestEvaluate_Night(t *testing.T) {
	cfg := finishByConfig(t)
	s, err := Evaluate(cfg, at(2, 0, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, Night, s.Kind)

	out := Render(cfg, s)
	assert.Equal(t, 3300, out.TempK)
	assert.InDelta(t, 90, out.GammaPct, 0.01)
}

// Scenario 7: Center mode transition midpoint.
func TestEvaluate_CenterMode(t *testing.T) {
	cfg := finishByConfig(t)
	cfg.TransitionMode = config.ModeCenter
	cfg.TransitionDuration = 60 * time.Minute

	s, err := Evaluate(cfg, at(19, 0, 0), nil)
	require.NoError(t, err)
	require.Equal(t, InSunset, s.Kind)
	assert.InDelta(t, 0.5, s.Progress, 1e-9)
}

// Invariant 2: the four windows tile a 24h day without overlap.
func TestWindows_Tile(t *testing.T) {
	cfg := finishByConfig(t)
	w, err := WindowsFor(cfg, at(0, 0, 0), nil)
	require.NoError(t, err)

	assert.True(t, w.SunriseStart.Before(w.SunriseEnd))
	assert.True(t, w.SunsetStart.Before(w.SunsetEnd))
	assert.True(t, w.SunriseEnd.Before(w.SunsetStart))
}

// Invariant 4: continuity across the sunset-end boundary.
func TestEvaluate_ContinuousAcrossBoundary(t *testing.T) {
	cfg := finishByConfig(t)

	just_before, err := Evaluate(cfg, at(18, 59, 59), nil)
	require.NoError(t, err)
	just_after, err := Evaluate(cfg, at(19, 0, 1), nil)
	require.NoError(t, err)

	before := Render(cfg, just_before)
	after := Render(cfg, just_after)
	assert.InDelta(t, float64(before.TempK), float64(after.TempK), 5)
	assert.InDelta(t, before.GammaPct, after.GammaPct, 0.5)
}

func TestEvaluate_Progress_Clamped(t *testing.T) {
	cfg := finishByConfig(t)
	for _, hh := range []int{0, 3, 6, 9, 12, 15, 18, 21, 23} {
		s, err := Evaluate(cfg, at(hh, 30, 0), nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.Progress, 0.0)
		assert.LessOrEqual(t, s.Progress, 1.0)
	}
}

func TestNextEventAfter_InsideTransitionUsesUpdateInterval(t *testing.T) {
	cfg := finishByConfig(t)
	now := at(18, 30, 0)
	next, err := NextEventAfter(cfg, now, nil)
	require.NoError(t, err)
	assert.True(t, next.After(now))
	assert.LessOrEqual(t, next.Sub(now), cfg.UpdateInterval)
}

func TestNextEventAfter_OutsideTransitionUsesBoundary(t *testing.T) {
	cfg := finishByConfig(t)
	now := at(12, 0, 0)
	next, err := NextEventAfter(cfg, now, nil)
	require.NoError(t, err)
	assert.Equal(t, at(18, 15, 0), next)
}
