// Package testmode implements the temp-file handoff behind --test, the only
// way a short-lived CLI invocation can pass parameters to a long-running
// daemon across a Unix signal: SIGUSR1 carries no payload, so the value is
// written to a well-known file first and the signal only tells the daemon to
// go read it. Ground-truthed against
// original_source/src/commands/test.rs and src/signals.rs, which use the
// exact path format and sentinel below.
package testmode

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Path returns the temp file a --test invocation and the daemon at pid
// exchange parameters through.
func Path(pid int) string {
	return fmt.Sprintf("/tmp/sunsetr-test-%d.tmp", pid)
}

// Write persists the (temp, gamma) pair for the daemon at pid to read when it
// receives SIGUSR1. Write(pid, 0, 0) is the sentinel that tells the daemon to
// clear its override and resume normal evaluation.
func Write(pid, tempK int, gammaPct float64) error {
	return os.WriteFile(Path(pid), []byte(fmt.Sprintf("%d\n%g", tempK, gammaPct)), 0o600)
}

// Read parses the (temp, gamma) pair written by Write and removes the file.
// active is false for the sentinel "clear override" payload (temp == 0 &&
// gamma == 0).
func Read(pid int) (tempK int, gammaPct float64, active bool, err error) {
	path := Path(pid)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, false, err
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		return 0, 0, false, fmt.Errorf("testmode: malformed test file %s", path)
	}
	tempK, err = strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return 0, 0, false, fmt.Errorf("testmode: invalid temperature: %w", err)
	}
	gammaPct, err = strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("testmode: invalid gamma: %w", err)
	}
	if tempK == 0 && gammaPct == 0 {
		return 0, 0, false, nil
	}
	return tempK, gammaPct, true, nil
}
