//go:build unix

package wlrgamma

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sunsetr/sunsetr/internal/gamma"
)

// sharedRamp owns an anonymous file used to hand a gamma ramp's raw bytes to
// the compositor, the transport spec.md §4.3/§6 specifies: channel-major,
// 3*N*u16 little-endian native, passed as a file descriptor via set_gamma.
type sharedRamp struct {
	_    noCopy
	fd   int
	size int
}

func newSharedRamp(size int) (*sharedRamp, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid ramp size %d", size)
	}
	fd, err := unix.Open("/dev/shm", unix.O_TMPFILE|unix.O_RDWR|unix.O_EXCL|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.Ftruncate(fd, int64(size)*3*2); err != nil { // [3*size]uint16
		unix.Close(fd)
		return nil, err
	}
	r := &sharedRamp{fd: fd, size: size}
	runtime.SetFinalizer(r, func(r *sharedRamp) { unix.Close(r.fd) })
	return r, nil
}

// Write seeks to the start of the backing file and writes the ramp's three
// channels in channel-major order.
func (r *sharedRamp) Write(ramp *gamma.Ramp) error {
	if _, err := unix.Seek(r.fd, 0, unix.SEEK_SET); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	_, err := unix.Pwritev(r.fd, [][]byte{
		u16Bytes(ramp.R),
		u16Bytes(ramp.G),
		u16Bytes(ramp.B),
	}, 0)
	return err
}

func (r *sharedRamp) Close() {
	unix.Close(r.fd)
	runtime.SetFinalizer(r, nil)
}

func u16Bytes(v []uint16) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*2)
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
