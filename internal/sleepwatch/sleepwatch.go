// Package sleepwatch detects system suspend/resume so the Supervisor can
// force an immediate re-apply instead of waiting out a stale
// next_event_after deadline computed before the machine slept (spec.md
// §4.2). Detection is layered: a monotonic-vs-wall-clock divergence
// heuristic that spec.md mandates as the baseline signal, supplemented by
// listening for logind's PrepareForSleep D-Bus signal when available, which
// fires immediately instead of waiting for the next heuristic poll.
//
// The D-Bus wiring follows the signal-matching and pump-goroutine shape of
// _examples/rochacbruno-danklinux/internal/server/loginctl/manager.go,
// trimmed to the single Manager-level signal this package needs.
package sleepwatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
)

// PollInterval is how often the monotonic-vs-wall-clock heuristic samples
// both clocks.
const PollInterval = 10 * time.Second

// slack is how far wall-clock elapsed time may exceed monotonic elapsed
// time before it's treated as a suspend/resume rather than ordinary
// scheduling jitter or an NTP step.
const slack = 2 * PollInterval

// Watcher detects resume events and invokes a callback for each one.
type Watcher struct {
	logger *slog.Logger
}

// New builds a Watcher. logger may be nil.
func New(logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{logger: logger}
}

// Run blocks until ctx is cancelled, calling onResume once per detected
// suspend/resume cycle from either signal source.
func (w *Watcher) Run(ctx context.Context, onResume func()) error {
	dbusDone := make(chan struct{})
	go func() {
		defer close(dbusDone)
		if err := w.watchDBus(ctx, onResume); err != nil {
			w.logger.Debug("sleepwatch: dbus signal unavailable, relying on heuristic only", "error", err)
		}
	}()

	w.watchHeuristic(ctx, onResume)
	<-dbusDone
	return ctx.Err()
}

// watchHeuristic compares elapsed wall-clock time against elapsed monotonic
// time between polls. CLOCK_MONOTONIC does not advance while the machine is
// suspended, but the wall clock jumps forward by the full suspended
// duration, so a gap between the two beyond ordinary scheduling jitter means
// the process just resumed. lastWall.Round(0) strips the monotonic reading
// so its Sub is a pure wall-clock subtraction; lastMono keeps it so its Sub
// stays monotonic (see the time package's "Monotonic Clocks" doc section).
func (w *Watcher) watchHeuristic(ctx context.Context, onResume func()) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	lastWall := time.Now().Round(0)
	lastMono := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		wallElapsed := time.Now().Round(0).Sub(lastWall)
		monoElapsed := time.Now().Sub(lastMono)
		if diverged(wallElapsed, monoElapsed) {
			w.logger.Info("sleepwatch: detected clock divergence, assuming resume from suspend",
				"wall_elapsed", wallElapsed, "mono_elapsed", monoElapsed)
			onResume()
		}
		lastWall = time.Now().Round(0)
		lastMono = time.Now()
	}
}

// diverged reports whether wallElapsed exceeds monoElapsed by more than
// slack, the signature of a suspend/resume cycle.
func diverged(wallElapsed, monoElapsed time.Duration) bool {
	return wallElapsed-monoElapsed > slack
}

func (w *Watcher) watchDBus(ctx context.Context, onResume func()) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath("/org/freedesktop/login1"),
		dbus.WithMatchInterface("org.freedesktop.login1.Manager"),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return err
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if sig == nil || sig.Name != "org.freedesktop.login1.Manager.PrepareForSleep" || len(sig.Body) == 0 {
				continue
			}
			preparing, _ := sig.Body[0].(bool)
			if !preparing {
				w.logger.Info("sleepwatch: logind PrepareForSleep(false), resumed")
				onResume()
			}
		}
	}
}
