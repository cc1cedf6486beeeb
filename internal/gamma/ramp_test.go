package gamma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Invariant 3 (spec.md §8): the ramp is monotone non-decreasing per channel
// and begins at 0.
func TestNew_MonotoneAndStartsAtZero(t *testing.T) {
	for _, tempK := range []int{1000, 3300, 6500, 9000, 20000} {
		for _, gammaPct := range []float64{0, 25, 90, 100} {
			r := New(256, tempK, gammaPct)
			assert.Equal(t, uint16(0), r.R[0])
			assert.Equal(t, uint16(0), r.G[0])
			assert.Equal(t, uint16(0), r.B[0])
			assertMonotone(t, r.R)
			assertMonotone(t, r.G)
			assertMonotone(t, r.B)
		}
	}
}

func assertMonotone(t *testing.T, ch []uint16) {
	t.Helper()
	for i := 1; i < len(ch); i++ {
		if ch[i] < ch[i-1] {
			t.Fatalf("channel not monotone at index %d: %d < %d", i, ch[i], ch[i-1])
		}
	}
}

func TestNew_ZeroGammaIsAllZero(t *testing.T) {
	r := New(64, 6500, 0)
	for _, v := range r.R {
		assert.Equal(t, uint16(0), v)
	}
}

func TestBytes_ChannelMajorLittleEndian(t *testing.T) {
	r := New(4, 6500, 100)
	b := r.Bytes()
	assert.Len(t, b, 4*3*2)
	// First two bytes are R[0] little-endian, which is always 0.
	assert.Equal(t, byte(0), b[0])
	assert.Equal(t, byte(0), b[1])
}

func TestWhitepoint_ContinuousAtSeam(t *testing.T) {
	below := rgbAt(6599)
	above := rgbAt(6601)
	for i := range below {
		assert.InDelta(t, below[i], above[i], 0.01)
	}
}

func rgbAt(k int) [3]float64 {
	r, g, b := Whitepoint(k)
	return [3]float64{r, g, b}
}
