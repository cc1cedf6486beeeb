// Package config loads and validates sunsetr's TOML configuration, following
// the XDG layout and defaulting rules of spec.md §6: a primary file at
// ${XDG_CONFIG_HOME}/sunsetr/sunsetr.toml, a legacy fallback at
// ${XDG_CONFIG_HOME}/hypr/sunsetr.toml, and an optional sibling geo.toml that
// overrides latitude/longitude.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// TransitionMode selects how the four transition-window instants are derived
// from configuration (spec.md §3, §4.1).
type TransitionMode string

const (
	ModeFinishBy TransitionMode = "finish_by"
	ModeStartAt  TransitionMode = "start_at"
	ModeCenter   TransitionMode = "center"
	ModeGeo      TransitionMode = "geo"
)

// BackendChoice selects which output driver the Supervisor instantiates
// (spec.md §4.5).
type BackendChoice string

const (
	BackendAuto     BackendChoice = "auto"
	BackendHyprland BackendChoice = "hyprland"
	BackendWayland  BackendChoice = "wayland"
)

// Defaults, ground-truthed against original_source/src/constants.rs.
const (
	DefaultNightTempK           = 3300
	DefaultDayTempK             = 6500
	DefaultNightGammaPct        = 90.0
	DefaultDayGammaPct          = 100.0
	DefaultSunset               = "19:00:00"
	DefaultSunrise              = "06:00:00"
	DefaultTransitionDurationMn = 45
	DefaultUpdateIntervalS      = 60
	DefaultTransitionMode       = ModeGeo
	DefaultStartupTransition    = false
	DefaultStartupDurationS     = 10
	DefaultBackendChoice        = BackendAuto
	DefaultStartCompanion       = true

	MinTempK = 1000
	MaxTempK = 20000

	MinGammaPct = 0.0
	MaxGammaPct = 100.0

	MinTransitionDurationMn = 5
	MaxTransitionDurationMn = 120

	MinUpdateIntervalS = 10
	MaxUpdateIntervalS = 300

	MinStartupDurationS = 1
	MaxStartupDurationS = 60
)

// Config is the immutable (per spec.md §3) set of daemon parameters. It is
// produced by Load/Reload and never mutated in place; a reload replaces the
// pointer under Loader's mutex.
type Config struct {
	NightTempK    int
	DayTempK      int
	NightGammaPct float64
	DayGammaPct   float64

	SunsetLocal  time.Duration // offset from local midnight
	SunriseLocal time.Duration

	TransitionDuration time.Duration
	UpdateInterval     time.Duration
	TransitionMode     TransitionMode

	StartupTransition bool
	StartupDuration   time.Duration

	Latitude  float64
	Longitude float64
	HasGeo    bool

	BackendChoice  BackendChoice
	StartCompanion bool
}

// Validate enforces the ranges in spec.md §3. The transition-duration range
// is checked in every mode, Geo included, even though Geo mode ignores the
// value; the fixed sunset/sunrise times are only checked by parsing.
func (c *Config) Validate() error {
	if c.NightTempK < MinTempK || c.NightTempK > MaxTempK {
		return fmt.Errorf("config: night_temp %d out of range [%d,%d]", c.NightTempK, MinTempK, MaxTempK)
	}
	if c.DayTempK < MinTempK || c.DayTempK > MaxTempK {
		return fmt.Errorf("config: day_temp %d out of range [%d,%d]", c.DayTempK, MinTempK, MaxTempK)
	}
	if c.NightGammaPct < MinGammaPct || c.NightGammaPct > MaxGammaPct {
		return fmt.Errorf("config: night_gamma %.1f out of range [%.0f,%.0f]", c.NightGammaPct, MinGammaPct, MaxGammaPct)
	}
	if c.DayGammaPct < MinGammaPct || c.DayGammaPct > MaxGammaPct {
		return fmt.Errorf("config: day_gamma %.1f out of range [%.0f,%.0f]", c.DayGammaPct, MinGammaPct, MaxGammaPct)
	}
	durMin := c.TransitionDuration.Minutes()
	if durMin < MinTransitionDurationMn || durMin > MaxTransitionDurationMn {
		return fmt.Errorf("config: transition_duration %.0fm out of range [%d,%d]", durMin, MinTransitionDurationMn, MaxTransitionDurationMn)
	}
	updS := c.UpdateInterval.Seconds()
	if updS < MinUpdateIntervalS || updS > MaxUpdateIntervalS {
		return fmt.Errorf("config: update_interval %.0fs out of range [%d,%d]", updS, MinUpdateIntervalS, MaxUpdateIntervalS)
	}
	switch c.TransitionMode {
	case ModeFinishBy, ModeStartAt, ModeCenter, ModeGeo:
	default:
		return fmt.Errorf("config: transition_mode %q invalid", c.TransitionMode)
	}
	startS := c.StartupDuration.Seconds()
	if startS < MinStartupDurationS || startS > MaxStartupDurationS {
		return fmt.Errorf("config: startup_transition_duration %.0fs out of range [%d,%d]", startS, MinStartupDurationS, MaxStartupDurationS)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("config: latitude %g out of range [-90,90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("config: longitude %g out of range [-180,180]", c.Longitude)
	}
	switch c.BackendChoice {
	case BackendAuto, BackendHyprland, BackendWayland:
	default:
		return fmt.Errorf("config: backend %q invalid", c.BackendChoice)
	}
	if c.TransitionMode == ModeGeo && !c.HasGeo {
		return fmt.Errorf("config: transition_mode is geo but no latitude/longitude configured (run --geo)")
	}
	return nil
}

// Paths returns the primary config path, the legacy fallback, and the
// sibling geo.toml path, in the order Load checks them. XDG_CONFIG_HOME is
// read directly rather than solely through adrg/xdg's process-start
// snapshot so a changed environment (tests, a re-exec) takes effect
// immediately.
func Paths() (primary, legacy, geo string) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = xdg.ConfigHome
	}
	dir := filepath.Join(configHome, "sunsetr")
	primary = filepath.Join(dir, "sunsetr.toml")
	legacy = filepath.Join(configHome, "hypr", "sunsetr.toml")
	geo = filepath.Join(dir, "geo.toml")
	return
}

// Load reads and validates the configuration from disk, applying defaults
// for any missing key (spec.md §6). Unknown keys are ignored with a warning
// via the provided warn callback (nil to suppress).
func Load(warn func(string)) (*Config, error) {
	primary, legacy, geoPath := Paths()

	path := primary
	if _, err := os.Stat(primary); err != nil {
		if _, err := os.Stat(legacy); err == nil {
			path = legacy
		}
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else if warn != nil {
		warn(fmt.Sprintf("no config file found at %s or %s, using defaults", primary, legacy))
	}

	known := knownKeys()
	for _, k := range v.AllKeys() {
		if !known[k] && warn != nil {
			warn(fmt.Sprintf("unknown config key %q ignored", k))
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}

	if g, err := loadGeoOverlay(geoPath); err == nil && g != nil {
		cfg.Latitude, cfg.Longitude, cfg.HasGeo = g.Latitude, g.Longitude, true
	} else if v.IsSet("latitude") && v.IsSet("longitude") {
		cfg.Latitude, cfg.Longitude, cfg.HasGeo = v.GetFloat64("latitude"), v.GetFloat64("longitude"), true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("night_temp", DefaultNightTempK)
	v.SetDefault("day_temp", DefaultDayTempK)
	v.SetDefault("night_gamma", DefaultNightGammaPct)
	v.SetDefault("day_gamma", DefaultDayGammaPct)
	v.SetDefault("sunset", DefaultSunset)
	v.SetDefault("sunrise", DefaultSunrise)
	v.SetDefault("transition_duration", DefaultTransitionDurationMn)
	v.SetDefault("update_interval", DefaultUpdateIntervalS)
	v.SetDefault("transition_mode", string(DefaultTransitionMode))
	v.SetDefault("startup_transition", DefaultStartupTransition)
	v.SetDefault("startup_transition_duration", DefaultStartupDurationS)
	v.SetDefault("backend", string(DefaultBackendChoice))
	v.SetDefault("start_hyprsunset", DefaultStartCompanion)
}

func knownKeys() map[string]bool {
	return map[string]bool{
		"night_temp": true, "day_temp": true, "night_gamma": true, "day_gamma": true,
		"sunset": true, "sunrise": true, "transition_duration": true, "update_interval": true,
		"transition_mode": true, "startup_transition": true, "startup_transition_duration": true,
		"backend": true, "start_hyprsunset": true, "latitude": true, "longitude": true,
	}
}

func fromViper(v *viper.Viper) (*Config, error) {
	sunset, err := parseClock(v.GetString("sunset"))
	if err != nil {
		return nil, fmt.Errorf("config: sunset: %w", err)
	}
	sunrise, err := parseClock(v.GetString("sunrise"))
	if err != nil {
		return nil, fmt.Errorf("config: sunrise: %w", err)
	}

	return &Config{
		NightTempK:         v.GetInt("night_temp"),
		DayTempK:           v.GetInt("day_temp"),
		NightGammaPct:      v.GetFloat64("night_gamma"),
		DayGammaPct:        v.GetFloat64("day_gamma"),
		SunsetLocal:        sunset,
		SunriseLocal:       sunrise,
		TransitionDuration: time.Duration(v.GetInt64("transition_duration")) * time.Minute,
		UpdateInterval:     time.Duration(v.GetInt64("update_interval")) * time.Second,
		TransitionMode:     TransitionMode(v.GetString("transition_mode")),
		StartupTransition:  v.GetBool("startup_transition"),
		StartupDuration:    time.Duration(v.GetInt64("startup_transition_duration")) * time.Second,
		BackendChoice:      BackendChoice(v.GetString("backend")),
		StartCompanion:     v.GetBool("start_hyprsunset"),
	}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
}

// GeoOverlay is the optional sibling geo.toml (spec.md §6), kept as its own
// small struct so --geo can rewrite it without touching the main file.
type GeoOverlay struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

func loadGeoOverlay(path string) (*GeoOverlay, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return &GeoOverlay{Latitude: v.GetFloat64("latitude"), Longitude: v.GetFloat64("longitude")}, nil
}

// WriteGeoOverlay persists coordinates chosen interactively via --geo.
func WriteGeoOverlay(lat, lon float64) error {
	_, _, geoPath := Paths()
	if err := os.MkdirAll(filepath.Dir(geoPath), 0o755); err != nil {
		return err
	}
	content := fmt.Sprintf("latitude = %g\nlongitude = %g\n", lat, lon)
	return os.WriteFile(geoPath, []byte(content), 0o644)
}

// Loader owns the live, reloadable Config (spec.md §4.5 Reload), guarding
// swaps with a mutex so the Supervisor's main loop always reads a consistent
// snapshot.
type Loader struct {
	mu   sync.RWMutex
	cur  *Config
	warn func(string)
}

func NewLoader(warn func(string)) (*Loader, error) {
	cfg, err := Load(warn)
	if err != nil {
		return nil, err
	}
	return &Loader{cur: cfg, warn: warn}, nil
}

// Current returns the active configuration snapshot.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur
}

// Reload re-parses and validates configuration from disk and, only on
// success, atomically swaps the active Config (spec.md §4.5). A malformed
// file on disk never replaces a good in-memory config.
func (l *Loader) Reload() error {
	cfg, err := Load(l.warn)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.cur = cfg
	l.mu.Unlock()
	return nil
}
