package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	sunsetrDir := filepath.Join(dir, "sunsetr")
	require.NoError(t, os.MkdirAll(sunsetrDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sunsetrDir, "sunsetr.toml"), []byte(body), 0o644))
}

func TestLoad_NoFileDefaultsToGeoModeAndRequiresCoordinates(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	_, err := Load(nil)
	require.Error(t, err, "default transition_mode is geo, which needs geo.toml or --geo")
	assert.Contains(t, err.Error(), "geo")
}

func TestLoad_DefaultsApplyUnderManualMode(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeConfig(t, dir, `transition_mode = "finish_by"`)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultNightTempK, cfg.NightTempK)
	assert.Equal(t, DefaultDayTempK, cfg.DayTempK)
}

func TestLoad_ReadsPrimaryFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeConfig(t, dir, `
night_temp = 2800
day_temp = 6000
transition_mode = "finish_by"
sunset = "20:00:00"
sunrise = "07:00:00"
`)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 2800, cfg.NightTempK)
	assert.Equal(t, 6000, cfg.DayTempK)
	assert.Equal(t, ModeFinishBy, cfg.TransitionMode)
	assert.Equal(t, 20*time.Hour, cfg.SunsetLocal)
	assert.Equal(t, 7*time.Hour, cfg.SunriseLocal)
}

func TestLoad_UnknownKeyWarns(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeConfig(t, dir, `
transition_mode = "finish_by"
bogus_key = 1
`)

	var warnings []string
	_, err := Load(func(msg string) { warnings = append(warnings, msg) })
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "bogus_key")
}

func TestLoad_GeoOverlayTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeConfig(t, dir, `transition_mode = "geo"`)
	require.NoError(t, WriteGeoOverlay(51.5, -0.12))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.True(t, cfg.HasGeo)
	assert.InDelta(t, 51.5, cfg.Latitude, 1e-9)
	assert.InDelta(t, -0.12, cfg.Longitude, 1e-9)
}

func TestValidate_RejectsOutOfRangeTemp(t *testing.T) {
	cfg := validConfig()
	cfg.NightTempK = MinTempK - 1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsGeoModeWithoutCoordinates(t *testing.T) {
	cfg := validConfig()
	cfg.TransitionMode = ModeGeo
	cfg.HasGeo = false
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func validConfig() *Config {
	return &Config{
		NightTempK: DefaultNightTempK, DayTempK: DefaultDayTempK,
		NightGammaPct: DefaultNightGammaPct, DayGammaPct: DefaultDayGammaPct,
		TransitionDuration: DefaultTransitionDurationMn * time.Minute,
		UpdateInterval:     DefaultUpdateIntervalS * time.Second,
		TransitionMode:     ModeFinishBy,
		StartupDuration:    DefaultStartupDurationS * time.Second,
		BackendChoice:      DefaultBackendChoice,
	}
}

func TestLoader_ReloadKeepsPreviousConfigOnError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeConfig(t, dir, `transition_mode = "finish_by"
night_temp = 3000`)

	loader, err := NewLoader(nil)
	require.NoError(t, err)
	assert.Equal(t, 3000, loader.Current().NightTempK)

	writeConfig(t, dir, `night_temp = 99999`)
	err = loader.Reload()
	assert.Error(t, err)
	assert.Equal(t, 3000, loader.Current().NightTempK, "a bad reload must not replace the good config")
}

func TestPaths_PrefersEnvOverPackageVar(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	primary, legacy, geo := Paths()
	assert.Equal(t, filepath.Join(dir, "sunsetr", "sunsetr.toml"), primary)
	assert.Equal(t, filepath.Join(dir, "hypr", "sunsetr.toml"), legacy)
	assert.Equal(t, filepath.Join(dir, "sunsetr", "geo.toml"), geo)
}
