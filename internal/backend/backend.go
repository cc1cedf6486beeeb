// Package backend defines the polymorphic output-driver capability of
// spec.md §4/§9: a small interface implemented by the Wayland and Hyprland
// drivers, plus the Auto/Wayland/Hyprland selection logic of §4.5.
package backend

import (
	"context"
	"fmt"
	"os"
)

// Kind classifies an error surfaced from a Backend, per spec.md §7.
type Kind int

const (
	// Transient errors are retried internally by the backend.
	Transient Kind = iota
	// Protocol errors mark the affected output/connection Lost; the
	// Supervisor is informed only once every avenue is exhausted.
	Protocol
	// Fatal errors mean the backend can no longer apply state at all; the
	// Supervisor must begin ordered shutdown.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Protocol:
		return "protocol"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with its Kind classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func NewError(k Kind, err error) *Error { return &Error{Kind: k, Err: err} }

// Backend is the capability set of spec.md §2: apply a (temperature, gamma)
// pair, probe for availability, and release resources on close.
type Backend interface {
	// Apply pushes the given color temperature (Kelvin) and gamma scale
	// (percent) to the compositor or companion. A *Error with Kind==Fatal
	// means the Supervisor must begin shutdown.
	Apply(ctx context.Context, tempK int, gammaPct float64) error

	// Probe checks that the backend's environment is usable without
	// applying any state. The daemon's startup path does not call it.
	Probe(ctx context.Context) error

	// Close releases every resource the backend owns: sockets, file
	// descriptors, shared-memory segments, and any supervised companion
	// process.
	Close() error

	// OwnsStartupAnimation reports whether this backend (or a companion it
	// supervises) already animates its own startup ramp, in which case the
	// Supervisor's Startup Animator must stay disabled (spec.md §4.4, §4.6).
	OwnsStartupAnimation() bool
}

// Choice mirrors config.BackendChoice without importing internal/config, so
// this package stays free of a dependency on configuration parsing.
type Choice int

const (
	Auto Choice = iota
	Hyprland
	Wayland
)

// EnvHyprlandInstance and EnvWaylandDisplay are the environment variables
// spec.md §4.5 uses to detect an available compositor.
const (
	EnvHyprlandInstance = "HYPRLAND_INSTANCE_SIGNATURE"
	EnvWaylandDisplay   = "WAYLAND_DISPLAY"
)

// Select implements the backend-selection logic of spec.md §4.5, returning
// which concrete backend to construct without constructing it (construction
// may fail and needs a specific diagnostic per environment).
func Select(choice Choice) (Choice, error) {
	switch choice {
	case Hyprland:
		if os.Getenv(EnvHyprlandInstance) == "" {
			return 0, fmt.Errorf("backend: hyprland selected but %s is not set", EnvHyprlandInstance)
		}
		return Hyprland, nil
	case Wayland:
		if os.Getenv(EnvWaylandDisplay) == "" {
			return 0, fmt.Errorf("backend: wayland selected but %s is not set", EnvWaylandDisplay)
		}
		return Wayland, nil
	case Auto:
		if os.Getenv(EnvHyprlandInstance) != "" {
			return Hyprland, nil
		}
		if os.Getenv(EnvWaylandDisplay) != "" {
			return Wayland, nil
		}
		return 0, fmt.Errorf("backend: auto-detection failed: neither %s nor %s is set", EnvHyprlandInstance, EnvWaylandDisplay)
	default:
		return 0, fmt.Errorf("backend: unknown choice %d", choice)
	}
}
