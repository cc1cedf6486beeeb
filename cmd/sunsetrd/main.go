// Command sunsetrd is the sunsetr daemon: it evaluates the configured
// day/night transition schedule and pushes the resulting color temperature
// and gamma to the active Wayland compositor, either directly via
// wlr-gamma-control-unstable-v1 or through the hyprsunset companion on
// Hyprland (spec.md §4.5). The CLI surface below follows the flags/commands
// style of _examples/ayoisaiah-focus/src/app.go, built on the same
// github.com/urfave/cli/v2.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/sunsetr/sunsetr/internal/backend"
	"github.com/sunsetr/sunsetr/internal/backend/hyprsunset"
	"github.com/sunsetr/sunsetr/internal/backend/wlrgamma"
	"github.com/sunsetr/sunsetr/internal/config"
	"github.com/sunsetr/sunsetr/internal/geopicker"
	"github.com/sunsetr/sunsetr/internal/lockfile"
	"github.com/sunsetr/sunsetr/internal/logx"
	"github.com/sunsetr/sunsetr/internal/supervisor"
	"github.com/sunsetr/sunsetr/internal/testmode"
)

func main() {
	app := &cli.App{
		Name:                 "sunsetrd",
		Usage:                "automatic blue-light reduction for Wayland and Hyprland",
		UsageText:            "sunsetrd [OPTIONS]\n\tsunsetrd --geo\n\tsunsetrd --reload\n\tsunsetrd --test <kelvin> <gamma-pct>",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "enable debug-level logging"},
			&cli.StringFlag{Name: "log-file", Usage: "also write rotated logs to this path"},
			&cli.BoolFlag{Name: "geo", Usage: "run the interactive city picker and save its coordinates, then exit"},
			&cli.BoolFlag{Name: "reload", Usage: "signal a running sunsetrd to reload its configuration, then exit"},
			&cli.StringSliceFlag{Name: "test", Usage: "apply a fixed <kelvin> <gamma-pct> override through a running sunsetrd (or directly on Wayland if none is running) until Esc or Ctrl+C"},
			&cli.BoolFlag{Name: "test-clear", Usage: "signal a running sunsetrd to clear a --test override, then exit"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "sunsetrd:", err)
		if errors.Is(err, lockfile.ErrAlreadyRunning) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := logx.New(logx.Options{Debug: c.Bool("debug"), FilePath: c.String("log-file")})

	if c.Bool("geo") {
		return runGeoPicker()
	}
	if c.Bool("reload") {
		return signalRunning(syscall.SIGUSR2, "reload")
	}
	if c.Bool("test-clear") {
		return runTestClear()
	}
	if c.IsSet("test") {
		// "--test 4500 90" leaves the second value as a positional argument.
		return runTestOverride(append(c.StringSlice("test"), c.Args().Slice()...))
	}

	return runDaemon(logger)
}

func runGeoPicker() error {
	city, err := geopicker.Run()
	if errors.Is(err, geopicker.ErrCancelled) {
		fmt.Println("cancelled, no location saved")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("saved %s, %s (%.4f°, %.4f°) to geo.toml\n", city.Name, city.Country, city.Latitude, city.Longitude)
	return nil
}

func signalRunning(sig syscall.Signal, verb string) error {
	info, err := lockfile.Read()
	if err != nil {
		return fmt.Errorf("no running sunsetrd found: %w", err)
	}
	if !lockfile.IsRunning(info) {
		return fmt.Errorf("lock file refers to pid %d, which is not running", info.PID)
	}
	proc, err := os.FindProcess(info.PID)
	if err != nil {
		return err
	}
	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("%s: %w", verb, err)
	}
	fmt.Printf("sent %s to pid %d\n", verb, info.PID)
	return nil
}

// runTestClear sends the daemon the same (0, 0) sentinel runSignaledTest
// writes on its own way out, for clearing a --test override left running in
// the background without waiting on it interactively.
func runTestClear() error {
	info, err := lockfile.Read()
	if err != nil {
		return fmt.Errorf("no running sunsetrd found: %w", err)
	}
	if !lockfile.IsRunning(info) {
		return fmt.Errorf("lock file refers to pid %d, which is not running", info.PID)
	}
	proc, err := os.FindProcess(info.PID)
	if err != nil {
		return err
	}
	if err := testmode.Write(info.PID, 0, 0); err != nil {
		return fmt.Errorf("test-clear: write sentinel: %w", err)
	}
	if err := proc.Signal(syscall.SIGUSR1); err != nil {
		return fmt.Errorf("clear test override: %w", err)
	}
	fmt.Printf("sent clear test override to pid %d\n", info.PID)
	return nil
}

// runTestOverride implements --test <kelvin> <gamma-pct> per
// original_source/src/commands/test.rs: if a sunsetrd is already running, it
// is signaled to apply the override rather than started a second time (a
// second daemon would just fail to acquire the lock); otherwise the values
// are previewed directly through a throwaway Wayland backend, since that
// path never needs a running daemon at all.
func runTestOverride(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("--test requires exactly two values: <kelvin> <gamma-pct>")
	}
	tempK, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("--test: invalid kelvin %q: %w", args[0], err)
	}
	gammaPct, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("--test: invalid gamma percent %q: %w", args[1], err)
	}
	if tempK < config.MinTempK || tempK > config.MaxTempK {
		return fmt.Errorf("--test: kelvin %d out of range [%d,%d]", tempK, config.MinTempK, config.MaxTempK)
	}
	if gammaPct < config.MinGammaPct || gammaPct > config.MaxGammaPct {
		return fmt.Errorf("--test: gamma percent %.1f out of range [%.0f,%.0f]", gammaPct, config.MinGammaPct, config.MaxGammaPct)
	}

	info, err := lockfile.Read()
	if err != nil || !lockfile.IsRunning(info) {
		return runDirectTest(tempK, gammaPct)
	}
	return runSignaledTest(info.PID, tempK, gammaPct)
}

// runSignaledTest hands (tempK, gammaPct) to the already-running daemon at
// pid via the testmode temp file and SIGUSR1, waits for the user to press
// Escape or Ctrl+C, then sends the (0, 0) sentinel to restore normal
// evaluation.
func runSignaledTest(pid, tempK int, gammaPct float64) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	if err := testmode.Write(pid, tempK, gammaPct); err != nil {
		return fmt.Errorf("--test: write override: %w", err)
	}
	if err := proc.Signal(syscall.SIGUSR1); err != nil {
		return fmt.Errorf("--test: signal pid %d: %w", pid, err)
	}

	fmt.Printf("applied %dK @ %.1f%% to pid %d, press Esc or Ctrl+C to restore\n", tempK, gammaPct, pid)
	if err := testmode.WaitForExit(); err != nil {
		return fmt.Errorf("--test: %w", err)
	}

	if err := testmode.Write(pid, 0, 0); err != nil {
		return fmt.Errorf("--test: write restore sentinel: %w", err)
	}
	if err := proc.Signal(syscall.SIGUSR1); err != nil {
		return fmt.Errorf("--test: signal pid %d: %w", pid, err)
	}
	fmt.Println("restored")
	return nil
}

// runDirectTest previews (tempK, gammaPct) without a running daemon, using
// the Wayland backend directly the same way
// original_source/src/commands/test.rs's run_direct_test does: it avoids
// spawning hyprsunset just to preview values, which would outlive this
// process and need its own cleanup.
func runDirectTest(tempK int, gammaPct float64) error {
	logger := logx.New(logx.Options{})
	be, err := wlrgamma.New(os.Getenv(backend.EnvWaylandDisplay), logger)
	if err != nil {
		return fmt.Errorf("--test: %w", err)
	}
	defer be.Close()

	ctx := context.Background()
	if err := be.Apply(ctx, tempK, gammaPct); err != nil {
		return fmt.Errorf("--test: apply: %w", err)
	}

	fmt.Printf("applied %dK @ %.1f%% directly, press Esc or Ctrl+C to restore\n", tempK, gammaPct)
	if err := testmode.WaitForExit(); err != nil {
		return fmt.Errorf("--test: %w", err)
	}

	if err := be.Apply(ctx, config.DefaultDayTempK, config.DefaultDayGammaPct); err != nil {
		return fmt.Errorf("--test: restore: %w", err)
	}
	fmt.Printf("restored to day values (%dK, %.0f%%)\n", config.DefaultDayTempK, config.DefaultDayGammaPct)
	return nil
}

func runDaemon(logger *slog.Logger) error {
	loader, err := config.NewLoader(func(msg string) { logger.Warn(msg) })
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg := loader.Current()

	choice, err := backend.Select(choiceFromConfig(cfg.BackendChoice))
	if err != nil {
		return fmt.Errorf("backend selection: %w", err)
	}

	be, backendName, err := buildBackend(choice, cfg, logger)
	if err != nil {
		return fmt.Errorf("backend: %w", err)
	}

	lock, err := lockfile.Acquire(backendName)
	if err != nil {
		if errors.Is(err, lockfile.ErrAlreadyRunning) {
			return fmt.Errorf("sunsetrd is already running: %w", err)
		}
		return err
	}
	defer lock.Close()

	sup := supervisor.New(loader, be, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("sunsetrd: starting", "backend", backendName)
	return sup.Run(ctx)
}

func choiceFromConfig(bc config.BackendChoice) backend.Choice {
	switch bc {
	case config.BackendHyprland:
		return backend.Hyprland
	case config.BackendWayland:
		return backend.Wayland
	default:
		return backend.Auto
	}
}

func buildBackend(choice backend.Choice, cfg *config.Config, logger *slog.Logger) (backend.Backend, string, error) {
	switch choice {
	case backend.Hyprland:
		be, err := hyprsunset.New(hyprsunset.Options{
			StartCompanion:  cfg.StartCompanion,
			InitialTempK:    cfg.DayTempK,
			InitialGammaPct: cfg.DayGammaPct,
		}, logger)
		return be, "hyprland", err
	case backend.Wayland:
		be, err := wlrgamma.New(os.Getenv(backend.EnvWaylandDisplay), logger)
		return be, "wayland", err
	default:
		return nil, "", fmt.Errorf("unresolved backend choice %v", choice)
	}
}
