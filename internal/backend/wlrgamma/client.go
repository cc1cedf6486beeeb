//go:build unix

// Package wlrgamma implements the Wayland output driver of spec.md §4.3: a
// client for the compositor's wlr-gamma-control-unstable-v1 extension that
// enumerates outputs, receives each one's ramp size, and pushes a freshly
// built gamma ramp through an anonymous shared-memory file on every apply.
//
// The session lifecycle follows spec.md §4.3 exactly: Disconnected ->
// Binding -> Ready (per output) -> Operational, with Lost/Degraded on
// protocol failure and bounded-backoff reconnect, adapted from
// github.com/pgaskin/barlib's redshift.ColorRampWayland. The reconnect
// backoff doubles up to a cap like internal/backend/hyprsunset's
// sendWithRetry, with its own initial delay, cap and attempt count.
package wlrgamma

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"codeberg.org/tesselslate/wl"

	"github.com/sunsetr/sunsetr/internal/backend"
	"github.com/sunsetr/sunsetr/internal/backend/wlrgamma/wire"
	"github.com/sunsetr/sunsetr/internal/backend/wlrgamma/wire/zwlr"
	"github.com/sunsetr/sunsetr/internal/gamma"
)

// outputStatus tracks one output through the state machine of spec.md §4.3.
type outputStatus int

const (
	statusBinding outputStatus = iota
	statusReady
	statusLost
)

// gammaSetter narrows *zwlr.GammaControlV1 to what outputState needs, so
// tests can exercise applyToOutput/onFailed against a fake instead of a real
// compositor connection.
type gammaSetter interface {
	SetGamma(fd int)
	Destroy()
}

type outputState struct {
	output  wl.Output
	control gammaSetter
	status  outputStatus
	rampN   uint32
	ramp    *sharedRamp
}

// Reconnect backoff after every output is Lost: doubling with a cap, the
// same shape as internal/backend/hyprsunset's sendWithRetry but with
// different values.
const (
	reconnectInitialBackoff = 200 * time.Millisecond
	reconnectMaxBackoff     = 10 * time.Second
	reconnectMaxAttempts    = 5
)

// Backend drives every output on a single compositor connection. All
// protocol I/O happens on the connection's dispatch goroutine, dispatched
// through Do/Enqueue so it stays single-threaded per spec.md §4.3's
// concurrency note even though callers may invoke Apply from elsewhere.
type Backend struct {
	logger  *slog.Logger
	display string

	mu      sync.Mutex
	conn    *wire.Connection
	manager *zwlr.GammaControlManagerV1
	outputs map[uint32]*outputState

	haveTarget bool
	tempK      int
	gammaPct   float64

	degraded     bool
	closing      bool
	reconnecting bool
}

var _ backend.Backend = (*Backend)(nil)

// New connects to the given Wayland display (empty for $WAYLAND_DISPLAY),
// binds the gamma-control manager, and begins enumerating outputs. The
// returned Backend reaches Operational asynchronously as outputs report
// their ramp size; Apply calls made before that simply queue the target
// values.
func New(display string, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := &Backend{
		logger:  logger,
		display: display,
		outputs: make(map[uint32]*outputState),
	}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

// connect opens the display connection, binds the registry listener, and
// starts the goroutine that watches for total connection loss. Called from
// New and again from reconnect after every output has gone Lost.
func (b *Backend) connect() error {
	conn, err := wire.Connect(b.display)
	if err != nil {
		return fmt.Errorf("wlrgamma: connect: %w", err)
	}

	// b.conn is set before Registry so registryGlobal, which can fire from
	// the dispatch goroutine as soon as the listener is attached, never
	// observes a stale or nil connection through getConn.
	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()

	if err := conn.Registry(wl.RegistryListener{
		Global:       b.registryGlobal,
		GlobalRemove: b.registryGlobalRemove,
	}); err != nil {
		conn.Close()
		return fmt.Errorf("wlrgamma: registry: %w", err)
	}

	go b.watchConnection(conn)
	return nil
}

func (b *Backend) getConn() *wire.Connection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn
}

// watchConnection blocks until conn closes and, unless the closure was
// requested by Close or conn has already been superseded by a reconnect,
// triggers one.
func (b *Backend) watchConnection(conn *wire.Connection) {
	err := conn.Closed()

	b.mu.Lock()
	closing := b.closing
	superseded := b.conn != conn
	b.mu.Unlock()
	if closing || superseded {
		return
	}

	b.logger.Warn("wlrgamma: connection lost, reconnecting", "error", err)
	b.triggerReconnect()
}

func (b *Backend) registryGlobal(data any, self wl.Registry, name uint32, iface string, version uint32) error {
	switch iface {
	case zwlr.GammaControlManagerV1Interface.Name:
		b.mu.Lock()
		mgr := zwlr.GammaControlManagerV1(self.Bind(name, &zwlr.GammaControlManagerV1Interface, version))
		b.manager = &mgr
		b.mu.Unlock()
		b.logger.Debug("wlrgamma: bound gamma control manager")

	case wl.OutputInterface.Name:
		// Deferred so the manager has a chance to bind first if both
		// globals arrive in the same registry burst.
		go b.getConn().Enqueue(context.Background(), func() error {
			b.mu.Lock()
			mgr := b.manager
			b.mu.Unlock()
			if mgr == nil {
				return errors.New("wlrgamma: output announced before gamma control manager")
			}
			out := wl.Output(self.Bind(name, &wl.OutputInterface, version))
			ctl := mgr.GetGammaControl(out)
			st := &outputState{output: out, control: &ctl, status: statusBinding}

			b.mu.Lock()
			b.outputs[name] = st
			b.mu.Unlock()

			ctl.SetListener(zwlr.GammaControlV1Listener{
				GammaSize: func(data any, self zwlr.GammaControlV1, size uint32) error {
					return b.onGammaSize(name, size)
				},
				Failed: func(data any, self zwlr.GammaControlV1) error {
					return b.onFailed(name)
				},
			}, nil)
			return nil
		})
	}
	return nil
}

func (b *Backend) registryGlobalRemove(data any, self wl.Registry, name uint32) error {
	b.mu.Lock()
	st, ok := b.outputs[name]
	if ok {
		delete(b.outputs, name)
	}
	b.mu.Unlock()
	if ok && st.control != nil {
		st.control.Destroy()
	}
	if st != nil && st.ramp != nil {
		st.ramp.Close()
	}
	return nil
}

func (b *Backend) onGammaSize(name uint32, size uint32) error {
	b.mu.Lock()
	st, ok := b.outputs[name]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	st.status = statusReady
	st.rampN = size
	haveTarget, tempK, gammaPct := b.haveTarget, b.tempK, b.gammaPct
	b.mu.Unlock()

	b.logger.Debug("wlrgamma: output ready", "output", name, "ramp_size", size)
	if haveTarget && size > 0 {
		return b.applyToOutput(st, tempK, gammaPct)
	}
	return nil
}

func (b *Backend) onFailed(name uint32) error {
	b.mu.Lock()
	st, ok := b.outputs[name]
	if ok {
		st.status = statusLost
		if st.control != nil {
			st.control.Destroy()
			st.control = nil
		}
	}
	allLost := allOutputsLost(b.outputs)
	wasDegraded := b.degraded
	b.degraded = allLost
	b.mu.Unlock()

	b.logger.Warn("wlrgamma: gamma control failed", "output", name)
	if allLost && !wasDegraded {
		b.triggerReconnect()
	}
	return nil
}

func allOutputsLost(outputs map[uint32]*outputState) bool {
	if len(outputs) == 0 {
		return false
	}
	for _, st := range outputs {
		if st.status != statusLost {
			return false
		}
	}
	return true
}

// triggerReconnect starts reconnect in the background unless one is already
// running or Close has been called.
func (b *Backend) triggerReconnect() {
	b.mu.Lock()
	if b.closing || b.reconnecting {
		b.mu.Unlock()
		return
	}
	b.reconnecting = true
	b.mu.Unlock()

	go b.reconnect()
}

// reconnect tears down the dead connection and retries wire.Connect with
// bounded backoff until it succeeds, the backend is closed, or
// reconnectMaxAttempts is exhausted, matching spec.md §4.3's Degraded ->
// reconnect transition.
func (b *Backend) reconnect() {
	defer func() {
		b.mu.Lock()
		b.reconnecting = false
		b.mu.Unlock()
	}()

	b.mu.Lock()
	oldConn := b.conn
	b.mu.Unlock()
	if oldConn != nil {
		oldConn.Close()
	}

	backoff := reconnectInitialBackoff
	for attempt := 1; attempt <= reconnectMaxAttempts; attempt++ {
		b.mu.Lock()
		closing := b.closing
		b.mu.Unlock()
		if closing {
			return
		}

		b.logger.Info("wlrgamma: reconnect attempt", "attempt", attempt)
		err := b.connect()
		if err == nil {
			b.mu.Lock()
			b.outputs = make(map[uint32]*outputState)
			b.manager = nil
			b.degraded = false
			b.mu.Unlock()
			b.logger.Info("wlrgamma: reconnected")
			return
		}
		b.logger.Warn("wlrgamma: reconnect failed", "attempt", attempt, "error", err)

		time.Sleep(backoff)
		backoff *= 2
		if backoff > reconnectMaxBackoff {
			backoff = reconnectMaxBackoff
		}
	}
	b.logger.Error("wlrgamma: giving up reconnecting after exhausting attempts", "attempts", reconnectMaxAttempts)
}

// Apply implements backend.Backend: it stores the target and pushes a fresh
// ramp to every Ready output before returning, per spec.md §5's ordering
// guarantee that all outputs update within the same apply before the loop
// sleeps again.
func (b *Backend) Apply(ctx context.Context, tempK int, gammaPct float64) error {
	err := b.getConn().Enqueue(ctx, func() error {
		b.mu.Lock()
		b.haveTarget, b.tempK, b.gammaPct = true, tempK, gammaPct
		targets := make([]*outputState, 0, len(b.outputs))
		for _, st := range b.outputs {
			if st.status == statusReady && st.rampN > 0 {
				targets = append(targets, st)
			}
		}
		b.mu.Unlock()

		for _, st := range targets {
			if err := b.applyToOutput(st, tempK, gammaPct); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return backend.NewError(backend.Transient, err)
		}
		return backend.NewError(backend.Protocol, err)
	}
	return nil
}

func (b *Backend) applyToOutput(st *outputState, tempK int, gammaPct float64) error {
	ramp := gamma.New(int(st.rampN), tempK, gammaPct)

	if st.ramp == nil || st.ramp.size != int(st.rampN) {
		if st.ramp != nil {
			st.ramp.Close()
		}
		r, err := newSharedRamp(int(st.rampN))
		if err != nil {
			return fmt.Errorf("wlrgamma: allocate shared memory: %w", err)
		}
		st.ramp = r
	}
	if err := st.ramp.Write(ramp); err != nil {
		return fmt.Errorf("wlrgamma: write ramp: %w", err)
	}
	st.control.SetGamma(st.ramp.fd)
	return nil
}

// Probe waits briefly for the manager global to bind, confirming the
// compositor actually advertises wlr-gamma-control-unstable-v1.
func (b *Backend) Probe(ctx context.Context) error {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.mu.Lock()
		has := b.manager != nil
		b.mu.Unlock()
		if has {
			return nil
		}
		select {
		case <-ctx.Done():
			return backend.NewError(backend.Fatal, ctx.Err())
		case <-time.After(20 * time.Millisecond):
		}
	}
	return backend.NewError(backend.Fatal, errors.New("wlrgamma: compositor does not advertise zwlr_gamma_control_manager_v1"))
}

func (b *Backend) OwnsStartupAnimation() bool { return false }

// Close releases every gamma control, the manager proxy, and the display
// connection (spec.md §4.3), and prevents watchConnection/reconnect from
// treating this as a connection loss to recover from.
func (b *Backend) Close() error {
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()

	conn := b.getConn()
	conn.Enqueue(context.Background(), func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, st := range b.outputs {
			if st.control != nil {
				st.control.Destroy()
			}
			if st.ramp != nil {
				st.ramp.Close()
			}
		}
		b.outputs = nil
		if b.manager != nil {
			b.manager.Destroy()
			b.manager = nil
		}
		return nil
	})
	conn.Close()
	return nil
}

// Degraded reports whether every known output has entered Lost state,
// meaning the backend can no longer apply anything until reconnect.
func (b *Backend) Degraded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.degraded
}
