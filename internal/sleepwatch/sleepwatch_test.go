package sleepwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiverged_NoSuspendWithinSlack(t *testing.T) {
	assert.False(t, diverged(PollInterval, PollInterval))
	assert.False(t, diverged(PollInterval+time.Second, PollInterval))
}

func TestDiverged_SuspendDetected(t *testing.T) {
	// Machine slept for an hour between polls: wall jumps, monotonic doesn't.
	assert.True(t, diverged(PollInterval+time.Hour, PollInterval))
}

func TestDiverged_NegativeGapNeverTriggers(t *testing.T) {
	assert.False(t, diverged(PollInterval, PollInterval+time.Hour))
}
