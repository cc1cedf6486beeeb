// Package wire wraps a raw Wayland display connection in a goroutine-safe
// way so the wlr-gamma-control client can issue requests from outside the
// dispatch goroutine while still cooperating with spec.md §5's single
// event-loop-thread model.
package wire

import (
	"context"
	"os"

	"codeberg.org/tesselslate/wl"
)

// [wl.Object] is a handle (it contains a pointer to the actual object data);
// a zero handle causes a nil-deref when using any of its members, and some
// methods require a pointer receiver, so callers should store pointers to
// them.
//
// It's safe to call flush and methods on objects while dispatch is running,
// but not concurrently with other things which touch the write queue, so all
// callbacks that could touch the write queue funnel through a single mutex.

// Connection wraps the main loop of the wl library in a goroutine-safe way.
// All methods on objects (including within callbacks even though those run
// on the main loop) must be called within [Connection.Do], which waits on
// any other callbacks and blocks the main loop, or [Connection.Enqueue],
// which executes on the main goroutine after all other events have been
// processed. Every error returned by a callback is treated as fatal and
// closes the connection.
type Connection struct {
	done      chan struct{}
	closed    chan struct{}
	closedErr error
	mu        chan struct{} // protects the write queue on dpy (chan instead of plain mutex so we can wait on closed too)
	display   *wl.Display
}

// Connect opens a Wayland display connection (empty name for the default
// display) and starts its dispatch loop on a background goroutine.
func Connect(name string) (*Connection, error) {
	display, err := wl.NewDisplay(name)
	if err != nil {
		return nil, err
	}

	c := &Connection{
		done:      make(chan struct{}),
		closed:    make(chan struct{}),
		closedErr: nil,
		mu:        make(chan struct{}, 1),
		display:   display,
	}
	go c.run()

	c.mu <- struct{}{}

	return c, nil
}

func (c *Connection) run() {
	defer close(c.done)
	for {
		// flush any queued messages
		if err := c.Do(func() error {
			return nil
		}); err != nil {
			return // Do will have already called closeWithError
		}
		// read and dispatch messages
		if err := c.display.Dispatch(); err != nil {
			c.closeWithError(err)
			return
		}
	}
}

// Registry binds a registry listener, the entry point for enumerating
// globals (the gamma-control manager, outputs) on the compositor.
func (c *Connection) Registry(cb wl.RegistryListener) error {
	return c.Do(func() error {
		registry := c.display.GetRegistry()
		registry.SetListener(cb, nil)
		return nil
	})
}

// Do runs the provided function while blocking the main loop and any other
// calls to [Connection.Do]. It is not re-entrant and must not be called
// within another call to [Connection.Do] or [Connection.Enqueue]. If an
// error is returned, it is fatal and the connection is closed.
func (c *Connection) Do(fn func() error) error {
	select {
	case <-c.closed:
		if err := c.closedErr; err != nil {
			return err
		}
		return os.ErrClosed
	case <-c.mu: // lock
	}
	if err := fn(); err != nil {
		c.closeWithErrorLocked(err)
		return err
	}
	if err := c.display.Flush(); err != nil {
		c.closeWithErrorLocked(err)
		return err
	}
	c.mu <- struct{}{} // unlock
	return nil
}

// Enqueue waits for all events to be processed, then executes fn on the main
// loop, blocking it, bounded by ctx. Every caller in wlrgamma carries a
// deadline tied to spec.md §5's next scheduled event (Apply) or none at all
// (context.Background(), for the fire-and-forget binds done while
// enumerating outputs and for Close's teardown), so the bound lives on
// Enqueue itself rather than a separate wrapper. If ctx is done before the
// round-trip completes, Enqueue returns ctx.Err() without cancelling the
// round-trip, which still completes asynchronously on the main loop. If fn
// returns an error, it is fatal and the connection is closed.
func (c *Connection) Enqueue(ctx context.Context, fn func() error) error {
	done := make(chan struct{})
	result := make(chan error, 1)

	if err := c.Do(func() error {
		// we use an async callback to ensure we've already processed all events so far
		cb := c.display.Sync()
		cb.SetListener(wl.CallbackListener{
			Done: func(data any, self wl.Callback, callbackData uint32) error {
				defer close(done)
				result <- c.Do(fn)
				return nil
			},
		}, nil)
		return nil
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return <-result
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return c.closedErr
	}
}

// Close closes the connection if it is not already closed, interrupting any
// operations, and waits for any pending callbacks to complete and the main
// loop to return.
func (c *Connection) Close() {
	c.closeWithError(nil)
	<-c.done
}

func (c *Connection) closeWithError(err error) {
	select {
	case <-c.closed:
		return
	case <-c.mu: // lock
		// note: don't unlock it again after so the closed chan is always selected
	}
	c.closeWithErrorLocked(err)
}

// closeWithErrorLocked closes the display if not already closed, setting the
// sticky error to err or a generic error message.
func (c *Connection) closeWithErrorLocked(err error) {
	select {
	case <-c.closed:
		return
	default:
	}
	defer func() {
		c.closedErr = err
		close(c.closed)
	}()
	c.display.Close()
}

// Closed returns when the connection is closed. If the connection was not
// closed by [Connection.Close], the fatal error is returned.
func (c *Connection) Closed() error {
	<-c.closed
	return c.closedErr
}
