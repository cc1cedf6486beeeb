// Package state implements the pure temporal state engine of spec.md §4.1:
// evaluate(config, now) -> TransitionState, and the companion scheduler that
// tells the Supervisor's main loop when to wake next.
package state

import (
	"sort"
	"time"

	"github.com/sunsetr/sunsetr/internal/config"
)

// Kind tags the variant of TransitionState (spec.md §3).
type Kind int

const (
	Day Kind = iota
	Night
	InSunset
	InSunrise
)

func (k Kind) String() string {
	switch k {
	case Day:
		return "day"
	case Night:
		return "night"
	case InSunset:
		return "sunset"
	case InSunrise:
		return "sunrise"
	default:
		return "unknown"
	}
}

// TransitionState is the tagged variant from spec.md §3. Progress is only
// meaningful for InSunset/InSunrise and is always in [0,1].
type TransitionState struct {
	Kind     Kind
	Progress float64
}

// Output is the rendered (temp, gamma) pair a Backend applies.
type Output struct {
	TempK    int
	GammaPct float64
}

// Evaluate is the pure function from spec.md §4.1: given configuration and
// the current local instant, it returns the current TransitionState.
func Evaluate(cfg *config.Config, now time.Time, onWarn func(string)) (TransitionState, error) {
	w, err := WindowsFor(cfg, now, onWarn)
	if err != nil {
		return TransitionState{}, err
	}
	return classify(w, now), nil
}

func classify(w Windows, now time.Time) TransitionState {
	switch {
	case inClosed(now, w.SunriseStart, w.SunriseEnd):
		return TransitionState{Kind: InSunrise, Progress: progress(now, w.SunriseStart, w.SunriseEnd)}
	case inClosed(now, w.SunsetStart, w.SunsetEnd):
		return TransitionState{Kind: InSunset, Progress: progress(now, w.SunsetStart, w.SunsetEnd)}
	case now.After(w.SunriseEnd) && now.Before(w.SunsetStart):
		return TransitionState{Kind: Day}
	default:
		return TransitionState{Kind: Night}
	}
}

func inClosed(t, lo, hi time.Time) bool {
	return !t.Before(lo) && !t.After(hi)
}

func progress(now, start, end time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		return 1
	}
	p := float64(now.Sub(start)) / float64(total)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

// Render applies the fixed cubic-Bezier ease of spec.md §4.1 to a
// TransitionState to obtain the (temp, gamma) pair a Backend should apply.
func Render(cfg *config.Config, s TransitionState) Output {
	switch s.Kind {
	case Day:
		return Output{TempK: cfg.DayTempK, GammaPct: cfg.DayGammaPct}
	case Night:
		return Output{TempK: cfg.NightTempK, GammaPct: cfg.NightGammaPct}
	case InSunset:
		p := ease(s.Progress)
		return Output{
			TempK:    int(lerp(float64(cfg.DayTempK), float64(cfg.NightTempK), p)),
			GammaPct: lerp(cfg.DayGammaPct, cfg.NightGammaPct, p),
		}
	case InSunrise:
		p := 1 - ease(s.Progress)
		return Output{
			TempK:    int(lerp(float64(cfg.DayTempK), float64(cfg.NightTempK), p)),
			GammaPct: lerp(cfg.DayGammaPct, cfg.NightGammaPct, p),
		}
	default:
		return Output{TempK: cfg.DayTempK, GammaPct: cfg.DayGammaPct}
	}
}

// NextEventAfter implements the scheduler of spec.md §4.1: the minimum of
// the next window boundary strictly greater than now, and now+update_interval
// if now is currently inside a transition.
func NextEventAfter(cfg *config.Config, now time.Time, onWarn func(string)) (time.Time, error) {
	today, err := WindowsFor(cfg, now, onWarn)
	if err != nil {
		return time.Time{}, err
	}
	tomorrow, err := WindowsFor(cfg, now.Add(24*time.Hour), onWarn)
	if err != nil {
		return time.Time{}, err
	}

	boundaries := []time.Time{
		today.SunriseStart, today.SunriseEnd, today.SunsetStart, today.SunsetEnd,
		tomorrow.SunriseStart, tomorrow.SunriseEnd, tomorrow.SunsetStart, tomorrow.SunsetEnd,
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].Before(boundaries[j]) })

	var next time.Time
	for _, b := range boundaries {
		if b.After(now) {
			next = b
			break
		}
	}

	cur := classify(today, now)
	if cur.Kind == InSunset || cur.Kind == InSunrise {
		tick := now.Add(cfg.UpdateInterval)
		if next.IsZero() || tick.Before(next) {
			next = tick
		}
	}
	if next.IsZero() {
		// Degenerate case (e.g. transition windows coalesced to an instant
		// right at `now`): fall back to the update interval so the loop
		// still makes progress.
		next = now.Add(cfg.UpdateInterval)
	}
	return next, nil
}
