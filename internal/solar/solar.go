// Package solar computes the sunrise/sunset twilight instants the state
// engine needs for Geo transition mode. It layers a twilight-angle crossing
// search on top of the solar-elevation astronomy from go-sunrise, the same
// primitive github.com/pgaskin/barlib's redshift.Solar leans on.
package solar

import (
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Method records whether Compute used the standard search or the
// extreme-latitude fallback of spec.md §4.2.
type Method int

const (
	Standard Method = iota
	ExtremeFallback
)

func (m Method) String() string {
	if m == ExtremeFallback {
		return "extreme-fallback"
	}
	return "standard"
}

// Angle is a solar elevation threshold, in degrees above the horizon,
// marking a twilight boundary.
type Angle float64

// Twilight angles used by Geo transition mode (spec.md §4.1, §4.2).
const (
	AngleUpperSunset   Angle = 10 // sunset_start: sun descending through +10°
	AngleLowerSunset   Angle = -2 // sunset_end: sun descending through -2°
	AngleLowerSunrise  Angle = -2 // sunrise_start: sun ascending through -2°
	AngleUpperSunrise  Angle = 10 // sunrise_end: sun ascending through +10°
	AngleCivilUpper    Angle = 6  // +6°, reserved for future transition modes
	AngleCivilTwilight Angle = -6 // -6°, civil twilight boundary
)

// Times holds every twilight instant the state engine might need for a given
// calendar day, in UTC, plus the method used to derive them.
type Times struct {
	// Ascending (sunrise-side) crossings, sun rising through the angle.
	Rise10, Rise6, Rise0, RiseNeg2, RiseNeg6 time.Time
	// Descending (sunset-side) crossings, sun setting through the angle.
	Set10, Set6, Set0, SetNeg2, SetNeg6 time.Time

	Method Method
}

// SunsetStart, SunsetEnd, SunriseStart, SunriseEnd return the four instants
// Geo transition mode feeds into the state engine (spec.md §4.1): sunset
// starts at the descending +10° crossing and ends at the descending -2°
// crossing; sunrise starts at the ascending -2° crossing and ends at the
// ascending +10° crossing.
func (t Times) SunsetStart() time.Time  { return t.Set10 }
func (t Times) SunsetEnd() time.Time    { return t.SetNeg2 }
func (t Times) SunriseStart() time.Time { return t.RiseNeg2 }
func (t Times) SunriseEnd() time.Time   { return t.Rise10 }

// Compute computes the day's twilight instants for the given latitude,
// longitude and local calendar date (date's own time-of-day is ignored; only
// its year/month/day/location matter). It searches the full local day for
// crossings of each angle on both branches; if any required crossing cannot
// be found (polar day or polar night), it falls back to synthesized instants
// per spec.md §4.2 and sets Method to ExtremeFallback.
func Compute(lat, lon float64, date time.Time) (Times, error) {
	if lat < -90 || lat > 90 {
		return Times{}, fmt.Errorf("solar: latitude %g out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return Times{}, fmt.Errorf("solar: longitude %g out of range", lon)
	}

	loc := date.Location()
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	elevation := func(t time.Time) float64 {
		return sunrise.Elevation(lat, lon, t)
	}

	find := func(angle float64, ascending bool) (time.Time, bool) {
		return findCrossing(dayStart, dayEnd, angle, ascending, elevation)
	}

	var (
		t           Times
		missingRise bool
		missingSet  bool
		ok          bool
	)

	if t.Rise10, ok = find(float64(AngleUpperSunrise), true); !ok {
		missingRise = true
	}
	if t.Rise6, ok = find(float64(AngleCivilUpper), true); !ok {
		missingRise = true
	}
	if t.Rise0, ok = find(0, true); !ok {
		missingRise = true
	}
	if t.RiseNeg2, ok = find(float64(AngleLowerSunrise), true); !ok {
		missingRise = true
	}
	if t.RiseNeg6, ok = find(float64(AngleCivilTwilight), true); !ok {
		missingRise = true
	}

	if t.Set10, ok = find(float64(AngleUpperSunset), false); !ok {
		missingSet = true
	}
	if t.Set6, ok = find(float64(AngleCivilUpper), false); !ok {
		missingSet = true
	}
	if t.Set0, ok = find(0, false); !ok {
		missingSet = true
	}
	if t.SetNeg2, ok = find(float64(AngleLowerSunset), false); !ok {
		missingSet = true
	}
	if t.SetNeg6, ok = find(float64(AngleCivilTwilight), false); !ok {
		missingSet = true
	}

	if missingRise || missingSet {
		t = fallback(dayStart, missingRise, missingSet, t, elevation)
		t.Method = ExtremeFallback
		return t, nil
	}

	t.Method = Standard
	return t, nil
}

// findCrossing bisects [from,to) for the instant the sun's elevation crosses
// angle on the requested branch. It first samples at a coarse step to bracket
// a sign change (elevation is not monotone over a full day, so a single
// bisection over the whole interval would miss the wrong branch), then
// refines with bisection to sub-minute precision.
func findCrossing(from, to time.Time, angle float64, ascending bool, elevation func(time.Time) float64) (time.Time, bool) {
	const coarseStep = 2 * time.Minute

	prevT := from
	prevE := elevation(from)
	for t := from.Add(coarseStep); !t.After(to); t = t.Add(coarseStep) {
		e := elevation(t)
		crossed := false
		if ascending && prevE < angle && e >= angle {
			crossed = true
		}
		if !ascending && prevE >= angle && e < angle {
			crossed = true
		}
		if crossed {
			return bisect(prevT, t, angle, ascending, elevation), true
		}
		prevT, prevE = t, e
	}
	return time.Time{}, false
}

func bisect(lo, hi time.Time, angle float64, ascending bool, elevation func(time.Time) float64) time.Time {
	loE := elevation(lo)
	for i := 0; i < 40 && hi.Sub(lo) > time.Second; i++ {
		mid := lo.Add(hi.Sub(lo) / 2)
		midE := elevation(mid)

		var loSide bool
		if ascending {
			loSide = loE < angle
		} else {
			loSide = loE >= angle
		}

		var midMatchesLoSide bool
		if ascending {
			midMatchesLoSide = midE < angle
		} else {
			midMatchesLoSide = midE >= angle
		}

		if loSide == midMatchesLoSide {
			lo, loE = mid, midE
		} else {
			hi = mid
		}
	}
	return lo.Add(hi.Sub(lo) / 2)
}

// fallback synthesizes the missing branch(es) as a short window centered on
// local civil noon (for a permanently missing sunset, i.e. polar day) or
// local civil midnight (for a permanently missing sunrise, i.e. polar
// night), per spec.md §4.2. The window is short enough that the tiling
// invariant in spec.md §3 still holds for any combination of present and
// missing branches.
func fallback(dayStart time.Time, missingRise, missingSet bool, t Times, elevation func(time.Time) float64) Times {
	const halfWindow = 10 * time.Minute

	noon := dayStart.Add(12 * time.Hour)
	midnight := dayStart.Add(24 * time.Hour)

	if missingSet {
		// Polar day (sun never sets) or polar night (sun never rises) at the
		// angles used for sunset. Center a nominal transition on local noon
		// during polar day (so the display never truly goes to night) or on
		// local midnight during polar night (so it never truly goes to day).
		center := noon
		if elevation(noon) < 0 {
			center = midnight
		}
		t.Set10 = center.Add(-halfWindow)
		t.Set6 = center.Add(-halfWindow / 2)
		t.Set0 = center
		t.SetNeg2 = center.Add(halfWindow)
		t.SetNeg6 = center.Add(halfWindow + halfWindow/2)
	}
	if missingRise {
		center := midnight
		if elevation(noon) < 0 {
			center = noon
		}
		// Keep the synthesized sunrise window strictly after the synthesized
		// sunset window when both are missing, so the four instants stay
		// ordered and the day/night tiling invariant holds.
		if missingSet && !t.SetNeg6.Before(center) {
			center = t.SetNeg6.Add(halfWindow)
		}
		t.RiseNeg6 = center.Add(-(halfWindow + halfWindow/2))
		t.RiseNeg2 = center.Add(-halfWindow)
		t.Rise0 = center
		t.Rise6 = center.Add(halfWindow / 2)
		t.Rise10 = center.Add(halfWindow)
	}
	return t
}
