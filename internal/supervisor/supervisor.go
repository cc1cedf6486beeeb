// Package supervisor runs the daemon's main loop of spec.md §4.2 and §5:
// evaluate -> apply -> sleep until the next scheduled event, reacting early
// to signals, config-file changes, and suspend/resume. The select-driven
// event loop is ground-truthed against
// _examples/pgaskin-barlib/barlib.go's Main function, which drives its own
// render loop from the same shape: a ticker, a signal channel, and an
// fsnotify watcher all feeding one select statement.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sunsetr/sunsetr/internal/animator"
	"github.com/sunsetr/sunsetr/internal/backend"
	"github.com/sunsetr/sunsetr/internal/config"
	"github.com/sunsetr/sunsetr/internal/sleepwatch"
	"github.com/sunsetr/sunsetr/internal/state"
	"github.com/sunsetr/sunsetr/internal/testmode"
)

// Signal assignments are pinned to original_source/src/signals.rs:
// SIGINT/SIGTERM/SIGHUP request a graceful shutdown, SIGUSR2 triggers a
// config reload, and SIGUSR1 installs or clears the transient test override
// according to the pending testmode payload (see handleTestSignal).
var (
	shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}
	reloadSignal    = syscall.SIGUSR2
	testSignal      = syscall.SIGUSR1
)

// testOverride is the transient state installed by --test: apply fixed
// values instead of whatever Evaluate/Render would produce, until cleared.
type testOverride struct {
	mu       sync.Mutex
	active   bool
	tempK    int
	gammaPct float64
}

func (t *testOverride) set(tempK int, gammaPct float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active, t.tempK, t.gammaPct = true, tempK, gammaPct
}

func (t *testOverride) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
}

func (t *testOverride) get() (bool, int, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active, t.tempK, t.gammaPct
}

// Supervisor owns the running daemon's lifecycle: one backend, one
// reloadable configuration, and the scheduling loop between them.
type Supervisor struct {
	loader  *config.Loader
	backend backend.Backend
	logger  *slog.Logger

	override testOverride
}

// New builds a Supervisor. be is the already-selected output driver
// (spec.md §4.5); loader owns the live configuration.
func New(loader *config.Loader, be backend.Backend, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{loader: loader, backend: be, logger: logger}
}

// SetTestOverride installs a fixed (temp, gamma) pair the loop applies
// instead of the computed state. The real --test CLI path installs this the
// same way the daemon itself does, by signaling SIGUSR1 (handleTestSignal);
// this setter exists so tests can drive the override directly.
func (s *Supervisor) SetTestOverride(tempK int, gammaPct float64) {
	s.override.set(tempK, gammaPct)
}

// Run blocks until ctx is cancelled or a shutdown signal arrives.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		if err := s.backend.Close(); err != nil {
			s.logger.Warn("supervisor: backend close failed", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, append(append([]os.Signal{}, shutdownSignals...), reloadSignal, testSignal)...)
	defer signal.Stop(sigCh)

	resumeCh := make(chan struct{}, 1)
	go sleepwatch.New(s.logger).Run(ctx, func() {
		select {
		case resumeCh <- struct{}{}:
		default:
		}
	})

	watcher, watchErr := s.watchConfig()
	if watchErr != nil {
		s.logger.Warn("supervisor: config file watch unavailable, relying on SIGUSR2", "error", watchErr)
	}
	if watcher != nil {
		defer watcher.Close()
	}

	if err := s.runStartupAnimation(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("supervisor: startup animation failed", "error", err)
	}

	for {
		next, err := s.nextWake()
		if err != nil {
			s.logger.Error("supervisor: scheduling failed, retrying in 1m", "error", err)
			next = time.Now().Add(time.Minute)
		}

		// The apply is bounded by the next scheduled wake-up.
		applyCtx, cancelApply := context.WithDeadline(ctx, next)
		err = s.applyCurrent(applyCtx)
		cancelApply()
		if err != nil {
			var backendErr *backend.Error
			if errors.As(err, &backendErr) && backendErr.Kind == backend.Fatal {
				s.logger.Error("supervisor: fatal backend error, shutting down", "error", err)
				return err
			}
			s.logger.Error("supervisor: apply failed", "error", err)
		}

		timer := time.NewTimer(time.Until(next))

		var fsEvents chan fsnotify.Event
		var fsErrors chan error
		if watcher != nil {
			fsEvents, fsErrors = watcher.Events, watcher.Errors
		}

		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case <-timer.C:

		case <-resumeCh:
			timer.Stop()
			s.logger.Info("supervisor: resumed from suspend, re-applying immediately")

		case sig := <-sigCh:
			timer.Stop()
			if isShutdown(sig) {
				s.logger.Info("supervisor: shutting down", "signal", sig)
				return nil
			}
			switch sig {
			case reloadSignal:
				if err := s.loader.Reload(); err != nil {
					s.logger.Warn("supervisor: config reload rejected, keeping previous config", "error", err)
				} else {
					s.logger.Info("supervisor: config reloaded")
				}
			case testSignal:
				s.handleTestSignal()
			}

		case ev, ok := <-fsEvents:
			timer.Stop()
			if ok && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				if err := s.loader.Reload(); err != nil {
					s.logger.Warn("supervisor: config reload rejected after file change", "error", err)
				} else {
					s.logger.Info("supervisor: config reloaded after file change", "file", ev.Name)
				}
			}

		case err, ok := <-fsErrors:
			timer.Stop()
			if ok {
				s.logger.Warn("supervisor: config watcher error", "error", err)
			}
		}
	}
}

func (s *Supervisor) watchConfig() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	primary, _, geo := config.Paths()
	for _, path := range []string{primary, geo} {
		if _, err := os.Stat(path); err == nil {
			if err := w.Add(path); err != nil {
				s.logger.Warn("supervisor: could not watch config file", "file", path, "error", err)
			}
		}
	}
	return w, nil
}

func (s *Supervisor) runStartupAnimation(ctx context.Context) error {
	cfg := s.loader.Current()
	if !cfg.StartupTransition || s.backend.OwnsStartupAnimation() {
		return nil
	}
	a := animator.New(cfg, s.logger, func(msg string) { s.logger.Warn(msg) })
	return a.Run(ctx, s.backend.Apply)
}

// handleTestSignal reacts to SIGUSR1 by reading the parameters a --test
// invocation wrote to the well-known temp file, per
// original_source/src/signals.rs: a (0, 0) payload means cancel the
// override, anything else installs it.
func (s *Supervisor) handleTestSignal() {
	tempK, gammaPct, active, err := testmode.Read(os.Getpid())
	if err != nil {
		s.logger.Warn("supervisor: could not read test mode parameters", "error", err)
		return
	}
	if !active {
		s.override.clear()
		s.logger.Info("supervisor: test override cleared")
		return
	}
	s.override.set(tempK, gammaPct)
	s.logger.Info("supervisor: test override applied", "temp_k", tempK, "gamma_pct", gammaPct)
}

func (s *Supervisor) applyCurrent(ctx context.Context) error {
	cfg := s.loader.Current()

	active, tempK, gammaPct := s.override.get()
	if active {
		return s.backend.Apply(ctx, tempK, gammaPct)
	}

	onWarn := func(msg string) { s.logger.Warn(msg) }
	ts, err := state.Evaluate(cfg, time.Now(), onWarn)
	if err != nil {
		return fmt.Errorf("supervisor: evaluate: %w", err)
	}
	out := state.Render(cfg, ts)
	s.logger.Debug("supervisor: applying", "kind", ts.Kind, "progress", ts.Progress, "temp_k", out.TempK, "gamma_pct", out.GammaPct)
	return s.backend.Apply(ctx, out.TempK, out.GammaPct)
}

func (s *Supervisor) nextWake() (time.Time, error) {
	cfg := s.loader.Current()
	onWarn := func(msg string) { s.logger.Warn(msg) }
	return state.NextEventAfter(cfg, time.Now(), onWarn)
}

func isShutdown(sig os.Signal) bool {
	for _, s := range shutdownSignals {
		if sig == s {
			return true
		}
	}
	return false
}
