package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunsetr/sunsetr/internal/config"
)

type fakeBackend struct {
	mu     sync.Mutex
	calls  int
	tempK  int
	gamma  float64
	closed bool
}

func (f *fakeBackend) Apply(ctx context.Context, tempK int, gammaPct float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.tempK, f.gamma = tempK, gammaPct
	return nil
}
func (f *fakeBackend) Probe(ctx context.Context) error  { return nil }
func (f *fakeBackend) Close() error                     { f.closed = true; return nil }
func (f *fakeBackend) OwnsStartupAnimation() bool        { return true } // skip animator in these tests

func (f *fakeBackend) snapshot() (int, int, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.tempK, f.gamma
}

func noonConfig(t *testing.T) *config.Loader {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	confDir := filepath.Join(dir, "sunsetr")
	require.NoError(t, os.MkdirAll(confDir, 0o755))
	toml := "transition_mode = \"finish_by\"\nsunset = \"19:00:00\"\nsunrise = \"06:00:00\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(confDir, "sunsetr.toml"), []byte(toml), 0o644))

	loader, err := config.NewLoader(nil)
	require.NoError(t, err)
	return loader
}

func TestRun_AppliesOnceThenRespondsToCancel(t *testing.T) {
	loader := noonConfig(t)
	be := &fakeBackend{}
	s := New(loader, be, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		calls, _, _ := be.snapshot()
		return calls >= 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, be.closed)
}

func TestRun_TestOverrideAppliesFixedValues(t *testing.T) {
	loader := noonConfig(t)
	be := &fakeBackend{}
	s := New(loader, be, nil)
	s.SetTestOverride(5000, 42)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool {
		_, tempK, gamma := be.snapshot()
		return tempK == 5000 && gamma == 42
	}, time.Second, 5*time.Millisecond)
}
