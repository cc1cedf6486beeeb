// Package hyprsunset implements the Hyprland output driver of spec.md §4.4:
// a line-based text client to the hyprsunset companion daemon over a
// well-known Unix socket, with optional supervision of the companion
// process itself. Socket path resolution, the wire command grammar, and the
// companion version pin are ground-truthed against
// _examples/original_source/src/hyprsunset.rs and src/process.rs.
package hyprsunset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/adrg/xdg"

	"github.com/sunsetr/sunsetr/internal/backend"
)

// RequiredVersion is the hyprsunset version this client's command grammar is
// pinned to (spec.md §9 Open Questions), ground-truthed against
// original_source/src/constants.rs REQUIRED_HYPRSUNSET_VERSION.
const RequiredVersion = "v0.2.0"

const (
	socketTimeout  = time.Second
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 2 * time.Second
	maxRetries     = 3
)

// Backend is the Hyprland output driver. If StartCompanion is set and no
// companion is already running, it owns the companion's lifetime.
type Backend struct {
	logger     *slog.Logger
	socketPath string

	mu      sync.Mutex
	backoff time.Duration

	companion *exec.Cmd
}

var _ backend.Backend = (*Backend)(nil)

// Options configure how the Hyprland backend connects to, and possibly
// supervises, the companion daemon.
type Options struct {
	StartCompanion bool
	// InitialTempK/InitialGammaPct seed a spawned companion so it never
	// jumps from its own defaults before the first Apply, per
	// original_source/src/process.rs HyprsunsetProcess::new.
	InitialTempK    int
	InitialGammaPct float64
}

// New resolves the companion socket path and, per Options, either attaches
// to an already-running companion or spawns and supervises a new one.
func New(opts Options, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	path, err := SocketPath()
	if err != nil {
		return nil, fmt.Errorf("hyprsunset: %w", err)
	}

	b := &Backend{logger: logger, socketPath: path, backoff: initialBackoff}

	if opts.StartCompanion {
		if IsRunning(path) {
			logger.Info("hyprsunset: companion already running, attaching as client", "socket", path)
		} else {
			if err := b.spawnCompanion(opts.InitialTempK, opts.InitialGammaPct); err != nil {
				return nil, fmt.Errorf("hyprsunset: start companion: %w", err)
			}
		}
	}
	return b, nil
}

// SocketPath resolves the companion's Unix socket the same way hyprsunset
// itself does: {runtime_dir}/hypr/{HYPRLAND_INSTANCE_SIGNATURE}/.hyprsunset.sock,
// falling back to {runtime_dir}/hypr/.hyprsunset.sock when the instance
// signature is unset.
func SocketPath() (string, error) {
	instance := os.Getenv(backend.EnvHyprlandInstance)
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = xdg.RuntimeDir
	}
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	dir := filepath.Join(runtimeDir, "hypr")
	if instance != "" {
		dir = filepath.Join(dir, instance)
	}
	return filepath.Join(dir, ".hyprsunset.sock"), nil
}

// IsRunning reports whether a companion is already listening on path.
func IsRunning(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	conn, err := net.DialTimeout("unix", path, socketTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (b *Backend) spawnCompanion(tempK int, gammaPct float64) error {
	cmd := exec.Command("hyprsunset", "-t", strconv.Itoa(tempK), "-g", fmt.Sprintf("%.1f", gammaPct))
	cmd.Stdout, cmd.Stderr = nil, nil
	if err := cmd.Start(); err != nil {
		return err
	}
	b.mu.Lock()
	b.companion = cmd
	b.mu.Unlock()

	b.logger.Info("hyprsunset: started companion", "pid", cmd.Process.Pid, "temp_k", tempK, "gamma_pct", gammaPct)
	// Give the companion a moment to create its socket before the first Apply.
	time.Sleep(500 * time.Millisecond)
	return nil
}

// Apply sends "temperature <K>" and "gamma <pct>" to the companion, per the
// command grammar pinned in original_source/src/hyprsunset.rs.
func (b *Backend) Apply(ctx context.Context, tempK int, gammaPct float64) error {
	if err := b.sendWithRetry(ctx, fmt.Sprintf("temperature %d", tempK)); err != nil {
		return err
	}
	return b.sendWithRetry(ctx, fmt.Sprintf("gamma %.1f", gammaPct))
}

func (b *Backend) sendWithRetry(ctx context.Context, cmd string) error {
	var lastErr error
	backoffMs := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return backend.NewError(backend.Transient, ctx.Err())
			case <-time.After(backoffMs):
			}
			backoffMs *= 2
			if backoffMs > maxBackoff {
				backoffMs = maxBackoff
			}
		}

		err := b.send(cmd)
		if err == nil {
			b.mu.Lock()
			b.backoff = initialBackoff
			b.mu.Unlock()
			return nil
		}
		lastErr = err

		if classify(err) == backend.Fatal {
			return backend.NewError(backend.Fatal, err)
		}
	}
	return backend.NewError(backend.Protocol, fmt.Errorf("command %q failed after %d attempts: %w", cmd, maxRetries, lastErr))
}

func (b *Backend) send(cmd string) error {
	conn, err := net.DialTimeout("unix", b.socketPath, socketTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(socketTimeout))

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return err
	}

	// hyprsunset may close the connection without writing a response; that
	// is not itself an error (original_source/src/hyprsunset.rs try_send_command).
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil
	}
	b.logger.Debug("hyprsunset: response", "line", line)
	return nil
}

func classify(err error) backend.Kind {
	if errors.Is(err, os.ErrPermission) {
		return backend.Fatal
	}
	return backend.Transient
}

// Probe connects to the socket without sending a command.
func (b *Backend) Probe(ctx context.Context) error {
	if !IsRunning(b.socketPath) {
		return backend.NewError(backend.Fatal, fmt.Errorf("hyprsunset: no companion listening at %s", b.socketPath))
	}
	return nil
}

// OwnsStartupAnimation is true: hyprsunset animates its own startup ramp, so
// the Supervisor's Startup Animator must stay disabled (spec.md §4.4).
func (b *Backend) OwnsStartupAnimation() bool { return true }

// Close terminates a supervised companion, if any.
func (b *Backend) Close() error {
	b.mu.Lock()
	cmd := b.companion
	b.companion = nil
	b.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		b.logger.Warn("hyprsunset: failed to terminate companion", "error", err)
		return err
	}
	_, _ = cmd.Process.Wait()
	b.logger.Info("hyprsunset: companion terminated")
	return nil
}
