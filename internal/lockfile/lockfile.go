// Package lockfile enforces spec.md §4.7's single-instance rule: only one
// sunsetr may run per XDG_RUNTIME_DIR. The exclusive-advisory-lock pattern
// here is ground-truthed against
// _examples/wavetermdev-waveterm/pkg/scbase/scbase.go AcquireSCLock, adapted
// from golang.org/x/sys/unix.Flock to a two-line pid+backend payload so a
// second invocation (--reload, --test, --test-clear) can read it back without
// acquiring the lock itself.
package lockfile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"golang.org/x/sys/unix"
)

// ErrAlreadyRunning is returned by Acquire when another instance holds the
// lock. Callers should exit with status 2 per spec.md §4.7.
var ErrAlreadyRunning = errors.New("lockfile: sunsetr is already running")

// Path returns the well-known lock file location. XDG_RUNTIME_DIR is read
// directly (rather than relying solely on adrg/xdg's process-start snapshot
// of it) so a daemon re-exec or test harness that changes it takes effect
// immediately, falling back to adrg/xdg's resolved value and finally a
// temp directory.
func Path() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = xdg.RuntimeDir
	}
	if runtimeDir == "" {
		runtimeDir = os.TempDir()
	}
	return runtimeDir + "/sunsetr.lock"
}

// Lock is a held advisory lock over the daemon's lifetime. Close releases it
// and removes the file.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the exclusive, non-blocking lock and stamps it with this
// process's pid and the backend name currently in effect, so a concurrent
// --reload/--test/--test-clear invocation can find the running daemon without
// itself racing for the lock.
func Acquire(backendName string) (*Lock, error) {
	path := Path()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("lockfile: open %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("lockfile: flock: %w", err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "%d\n%s\n", os.Getpid(), backendName); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, err
	}

	return &Lock{file: f, path: path}, nil
}

// Close releases the lock and removes the lock file.
func (l *Lock) Close() error {
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	os.Remove(l.path)
	return err
}

// Info is the running daemon's identity as recorded by Acquire.
type Info struct {
	PID     int
	Backend string
}

// Read parses the lock file without taking the lock itself, so --reload,
// --test, and --test-clear can find the running daemon's pid.
func Read() (Info, error) {
	path := Path()
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("lockfile: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return Info{}, err
	}
	if len(lines) < 1 || lines[0] == "" {
		return Info{}, fmt.Errorf("lockfile: %s is empty or malformed", path)
	}

	pid, err := strconv.Atoi(lines[0])
	if err != nil {
		return Info{}, fmt.Errorf("lockfile: invalid pid %q: %w", lines[0], err)
	}
	backend := ""
	if len(lines) > 1 {
		backend = lines[1]
	}
	return Info{PID: pid, Backend: backend}, nil
}

// IsRunning reports whether the process recorded in the lock file is alive,
// using signal 0 to probe without actually delivering a signal.
func IsRunning(info Info) bool {
	proc, err := os.FindProcess(info.PID)
	if err != nil {
		return false
	}
	return proc.Signal(unix.Signal(0)) == nil
}
