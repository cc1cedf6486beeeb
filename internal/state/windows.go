package state

import (
	"time"

	"github.com/sunsetr/sunsetr/internal/config"
	"github.com/sunsetr/sunsetr/internal/solar"
)

// Windows holds the four instants (spec.md §3 TransitionWindows) bounding a
// single local calendar day's sunrise and sunset transitions.
type Windows struct {
	SunriseStart, SunriseEnd time.Time
	SunsetStart, SunsetEnd   time.Time

	// SolarMethod is set only in Geo mode, recording whether the standard
	// search or the extreme-latitude fallback produced these windows.
	SolarMethod solar.Method
	IsGeo       bool
}

// WindowsFor computes the transition windows anchored to the local calendar
// date of `date` (only its year/month/day/location are used), following the
// four modes of spec.md §4.1. A pathological configuration that would make
// the windows overlap is coalesced by clamping, per spec.md §4.1 failure
// modes; onWarn (if non-nil) is called describing the adjustment.
func WindowsFor(cfg *config.Config, date time.Time, onWarn func(string)) (Windows, error) {
	loc := date.Location()
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

	var w Windows
	if cfg.TransitionMode == config.ModeGeo {
		st, err := solar.Compute(cfg.Latitude, cfg.Longitude, date)
		if err != nil {
			return Windows{}, err
		}
		w = Windows{
			SunsetStart:  st.SunsetStart().In(loc),
			SunsetEnd:    st.SunsetEnd().In(loc),
			SunriseStart: st.SunriseStart().In(loc),
			SunriseEnd:   st.SunriseEnd().In(loc),
			SolarMethod:  st.Method,
			IsGeo:        true,
		}
	} else {
		sunset := midnight.Add(cfg.SunsetLocal)
		sunrise := midnight.Add(cfg.SunriseLocal)
		dur := cfg.TransitionDuration

		switch cfg.TransitionMode {
		case config.ModeStartAt:
			w.SunsetStart, w.SunsetEnd = sunset, sunset.Add(dur)
			w.SunriseStart, w.SunriseEnd = sunrise, sunrise.Add(dur)
		case config.ModeCenter:
			half := dur / 2
			w.SunsetStart, w.SunsetEnd = sunset.Add(-half), sunset.Add(half)
			w.SunriseStart, w.SunriseEnd = sunrise.Add(-half), sunrise.Add(half)
		case config.ModeFinishBy:
			fallthrough
		default:
			w.SunsetStart, w.SunsetEnd = sunset.Add(-dur), sunset
			w.SunriseStart, w.SunriseEnd = sunrise.Add(-dur), sunrise
		}
	}

	return coalesce(w, onWarn), nil
}

// coalesce enforces sunriseStart <= sunriseEnd <= sunsetStart <= sunsetEnd,
// clamping the midpoints together when a short-day configuration would
// otherwise make the sunrise and sunset transitions overlap.
func coalesce(w Windows, onWarn func(string)) Windows {
	if w.SunriseStart.After(w.SunriseEnd) {
		w.SunriseStart, w.SunriseEnd = w.SunriseEnd, w.SunriseStart
	}
	if w.SunsetStart.After(w.SunsetEnd) {
		w.SunsetStart, w.SunsetEnd = w.SunsetEnd, w.SunsetStart
	}
	if w.SunriseEnd.After(w.SunsetStart) {
		if onWarn != nil {
			onWarn("transition windows overlap; clamping day interval to a single instant")
		}
		mid := w.SunriseEnd.Add(w.SunsetStart.Sub(w.SunriseEnd) / 2)
		w.SunriseEnd, w.SunsetStart = mid, mid
		if w.SunriseStart.After(mid) {
			w.SunriseStart = mid
		}
		if w.SunsetEnd.Before(mid) {
			w.SunsetEnd = mid
		}
	}
	return w
}
