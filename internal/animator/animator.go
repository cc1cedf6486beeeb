// Package animator implements the Startup Animator of spec.md §4.6: an
// eased ramp from the day state to whatever the engine says "now" actually
// is, played once at process start so the screen doesn't jump straight to
// night values. It is ground-truthed against
// original_source/src/startup_transition.rs, translated from its polling
// loop with a progress bar into a context-driven loop with structured
// logging, matching how the rest of this codebase replaces the original's
// stdout progress bar with *slog.Logger calls.
package animator

import (
	"context"
	"log/slog"
	"time"

	"github.com/sunsetr/sunsetr/internal/config"
	"github.com/sunsetr/sunsetr/internal/state"
)

// updateInterval is how often the animation recomputes and applies an
// intermediate frame, matching
// original_source/src/constants.rs DEFAULT_STARTUP_UPDATE_INTERVAL_MS.
const updateInterval = 100 * time.Millisecond

// Apply is the shape of backend.Backend.Apply, taken as a plain function so
// this package does not need to import backend.
type Apply func(ctx context.Context, tempK int, gammaPct float64) error

// Animator plays the startup ramp once. It is only constructed by the
// Supervisor when cfg.StartupTransition is true and the selected backend
// does not already own its own startup animation
// (backend.Backend.OwnsStartupAnimation).
type Animator struct {
	cfg    *config.Config
	logger *slog.Logger
	onWarn func(string)

	now func() time.Time
}

// New builds an Animator bound to cfg. onWarn receives the same warnings
// Evaluate/Render would surface, e.g. coalesced transition windows.
func New(cfg *config.Config, logger *slog.Logger, onWarn func(string)) *Animator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if onWarn == nil {
		onWarn = func(string) {}
	}
	return &Animator{
		cfg:    cfg,
		logger: logger,
		onWarn: onWarn,
		now:    time.Now,
	}
}

// Run animates from day values to the engine's current state over
// cfg.StartupDuration, then applies the originally captured final state
// exactly once more, so timing drift during the animation itself never
// changes which state the daemon ends up in (original_source's "final
// applied state is always the originally captured state" invariant).
func (a *Animator) Run(ctx context.Context, apply Apply) error {
	start := a.now()
	final, err := state.Evaluate(a.cfg, start, a.onWarn)
	if err != nil {
		return err
	}
	finalOut := state.Render(a.cfg, final)
	dynamic := final.Kind == state.InSunset || final.Kind == state.InSunrise

	startTemp, startGamma := float64(a.cfg.DayTempK), a.cfg.DayGammaPct
	if float64(startTemp) == float64(finalOut.TempK) && startGamma == finalOut.GammaPct && !dynamic {
		return apply(ctx, finalOut.TempK, finalOut.GammaPct)
	}

	a.logger.Info("startup animation begin",
		"duration", a.cfg.StartupDuration, "dynamic_target", dynamic,
		"from_temp_k", int(startTemp), "to_temp_k", finalOut.TempK)

	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		elapsed := a.now().Sub(start)
		progress := float64(elapsed) / float64(a.cfg.StartupDuration)
		if progress > 1 {
			progress = 1
		}

		targetTempK, targetGammaPct := a.currentTarget(final, finalOut, dynamic)
		eased := state.Ease(progress)
		tempK := int(state.Lerp(startTemp, float64(targetTempK), eased))
		gammaPct := state.Lerp(startGamma, targetGammaPct, eased)

		if err := apply(ctx, tempK, gammaPct); err != nil {
			a.logger.Warn("startup animation: apply failed, continuing", "error", err)
		}

		if progress >= 1 {
			break
		}
	}

	a.logger.Info("startup animation complete")
	return apply(ctx, finalOut.TempK, finalOut.GammaPct)
}

// currentTarget tracks a moving sunrise/sunset target during the animation
// (the dynamic case), falling back to the statically captured final state
// once the live transition changes kind or completes.
func (a *Animator) currentTarget(final state.TransitionState, finalOut state.Output, dynamic bool) (int, float64) {
	if dynamic {
		cur, err := state.Evaluate(a.cfg, a.now(), a.onWarn)
		if err == nil && cur.Kind == final.Kind {
			out := state.Render(a.cfg, cur)
			return out.TempK, out.GammaPct
		}
	}
	return finalOut.TempK, finalOut.GammaPct
}
