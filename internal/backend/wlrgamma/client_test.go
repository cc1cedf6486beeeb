//go:build unix

package wlrgamma

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGammaSetter stands in for *zwlr.GammaControlV1 so the output state
// machine can be exercised without a real compositor connection.
type fakeGammaSetter struct {
	setGammaFDs []int
	destroyed   bool
}

func (f *fakeGammaSetter) SetGamma(fd int) { f.setGammaFDs = append(f.setGammaFDs, fd) }
func (f *fakeGammaSetter) Destroy()        { f.destroyed = true }

func newTestBackend() *Backend {
	return &Backend{
		logger:  slog.New(slog.DiscardHandler),
		outputs: make(map[uint32]*outputState),
	}
}

func TestOnGammaSize_MarksReadyAndAppliesQueuedTarget(t *testing.T) {
	b := newTestBackend()
	fake := &fakeGammaSetter{}
	b.outputs[1] = &outputState{control: fake, status: statusBinding}
	b.haveTarget, b.tempK, b.gammaPct = true, 4500, 80

	require.NoError(t, b.onGammaSize(1, 10))

	st := b.outputs[1]
	assert.Equal(t, statusReady, st.status)
	assert.Equal(t, uint32(10), st.rampN)
	require.Len(t, fake.setGammaFDs, 1, "a queued target must be pushed as soon as the ramp size is known")
}

func TestOnGammaSize_NoTargetQueuedDoesNotApply(t *testing.T) {
	b := newTestBackend()
	fake := &fakeGammaSetter{}
	b.outputs[1] = &outputState{control: fake, status: statusBinding}

	require.NoError(t, b.onGammaSize(1, 10))

	assert.Empty(t, fake.setGammaFDs)
}

func TestOnGammaSize_UnknownOutputIsNoop(t *testing.T) {
	b := newTestBackend()
	assert.NoError(t, b.onGammaSize(99, 10))
}

func TestOnFailed_MarksLostAndDestroysControl(t *testing.T) {
	b := newTestBackend()
	fake := &fakeGammaSetter{}
	b.outputs[1] = &outputState{control: fake, status: statusReady}

	require.NoError(t, b.onFailed(1))

	st := b.outputs[1]
	assert.Equal(t, statusLost, st.status)
	assert.Nil(t, st.control)
	assert.True(t, fake.destroyed)
}

func TestOnFailed_DegradedOnlyWhenEveryOutputLost(t *testing.T) {
	b := newTestBackend()
	b.outputs[1] = &outputState{control: &fakeGammaSetter{}, status: statusReady}
	b.outputs[2] = &outputState{control: &fakeGammaSetter{}, status: statusReady}

	require.NoError(t, b.onFailed(1))
	assert.False(t, b.Degraded(), "one lost output out of two must not degrade the backend")

	require.NoError(t, b.onFailed(2))
	assert.True(t, b.Degraded(), "once every output is lost the backend must report degraded")
}

func TestOnFailed_TriggersReconnectOnceAllOutputsLost(t *testing.T) {
	b := newTestBackend()
	b.outputs[1] = &outputState{control: &fakeGammaSetter{}, status: statusReady}

	require.NoError(t, b.onFailed(1))

	assert.True(t, b.Degraded())
	b.mu.Lock()
	reconnecting := b.reconnecting
	b.mu.Unlock()
	assert.True(t, reconnecting, "losing the last output must start a reconnect attempt")

	// Let the background reconnect loop give up quickly instead of running
	// its full bounded-backoff schedule past the end of this test.
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()
}

func TestAllOutputsLost(t *testing.T) {
	tests := []struct {
		name    string
		outputs map[uint32]*outputState
		want    bool
	}{
		{"empty", map[uint32]*outputState{}, false},
		{"all lost", map[uint32]*outputState{
			1: {status: statusLost}, 2: {status: statusLost},
		}, true},
		{"mixed", map[uint32]*outputState{
			1: {status: statusLost}, 2: {status: statusReady},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, allOutputsLost(tt.outputs))
		})
	}
}

func TestApplyToOutput_WritesRampAndCallsSetGamma(t *testing.T) {
	fake := &fakeGammaSetter{}
	st := &outputState{control: fake, rampN: 16}

	require.NoError(t, newTestBackend().applyToOutput(st, 4500, 80))

	require.NotNil(t, st.ramp)
	assert.Equal(t, 16, st.ramp.size)
	require.Len(t, fake.setGammaFDs, 1)
	assert.Equal(t, st.ramp.fd, fake.setGammaFDs[0])
}

func TestApplyToOutput_ReallocatesRampWhenSizeChanges(t *testing.T) {
	fake := &fakeGammaSetter{}
	st := &outputState{control: fake, rampN: 8}
	b := newTestBackend()

	require.NoError(t, b.applyToOutput(st, 4500, 80))
	first := st.ramp

	st.rampN = 32
	require.NoError(t, b.applyToOutput(st, 4500, 80))

	assert.Equal(t, 32, st.ramp.size)
	// The old descriptor is closed before the new file is opened, so the
	// kernel may hand back the same fd number; compare the allocations.
	assert.NotSame(t, first, st.ramp, "a ramp size change must allocate a new shared-memory region")
}
