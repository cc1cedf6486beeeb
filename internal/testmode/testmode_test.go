package testmode

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead_RoundTripsAndRemovesFile(t *testing.T) {
	pid := os.Getpid()*1000 + 1
	require.NoError(t, Write(pid, 4500, 87.5))

	tempK, gammaPct, active, err := Read(pid)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 4500, tempK)
	assert.InDelta(t, 87.5, gammaPct, 1e-9)

	_, statErr := os.Stat(Path(pid))
	assert.True(t, os.IsNotExist(statErr), "Read must remove the file after parsing it")
}

func TestWriteRead_ZeroZeroSentinelIsInactive(t *testing.T) {
	pid := os.Getpid()*1000 + 2
	require.NoError(t, Write(pid, 0, 0))

	_, _, active, err := Read(pid)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRead_MissingFileErrors(t *testing.T) {
	pid := os.Getpid()*1000 + 3
	_, _, _, err := Read(pid)
	assert.Error(t, err)
}
