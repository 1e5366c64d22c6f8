package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingReloader struct {
	count atomic.Int64
	last  atomic.Value
}

func (c *countingReloader) reload(path string) error {
	c.count.Add(1)
	c.last.Store(path)
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestWatcher(t *testing.T, r *countingReloader, opts ...Option) *Watcher {
	t.Helper()
	opts = append([]Option{WithDebounce(50 * time.Millisecond)}, opts...)
	w, err := New(r.reload, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func waitForReloads(t *testing.T, r *countingReloader, want int64) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if r.count.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("reload count = %d, want at least %d", r.count.Load(), want)
}

func TestWatcherDebouncesBurst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.ui.hcl")
	writeFile(t, path, "v0")

	r := &countingReloader{}
	w := newTestWatcher(t, r)
	require.NoError(t, w.Watch(path))

	for i := 0; i < 3; i++ {
		writeFile(t, path, "burst")
		time.Sleep(5 * time.Millisecond)
	}

	waitForReloads(t, r, 1)

	// The burst must collapse to a single reload. Give the debounce
	// window time to prove no second one is coming.
	time.Sleep(200 * time.Millisecond)
	require.EqualValues(t, 1, r.count.Load())
	require.Equal(t, filepath.Clean(path), r.last.Load())
}

func TestWatcherAutoReloadDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.ui.hcl")
	writeFile(t, path, "v0")

	r := &countingReloader{}
	w := newTestWatcher(t, r, WithAutoReload(false))
	require.NoError(t, w.Watch(path))
	require.False(t, w.AutoReloadEnabled())

	writeFile(t, path, "v1")
	time.Sleep(200 * time.Millisecond)
	require.EqualValues(t, 0, r.count.Load())

	// Re-enabling picks up subsequent changes.
	w.SetAutoReload(true)
	writeFile(t, path, "v2")
	waitForReloads(t, r, 1)
}

func TestWatcherUnwatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.ui.hcl")
	writeFile(t, path, "v0")

	r := &countingReloader{}
	w := newTestWatcher(t, r)
	require.NoError(t, w.Watch(path))
	w.Unwatch(path)

	writeFile(t, path, "v1")
	time.Sleep(200 * time.Millisecond)
	require.EqualValues(t, 0, r.count.Load())
	require.Empty(t, w.Watched())
}

func TestWatcherWatchIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.ui.hcl")
	writeFile(t, path, "v0")

	r := &countingReloader{}
	w := newTestWatcher(t, r)
	require.NoError(t, w.Watch(path))
	require.NoError(t, w.Watch(path))
	require.Len(t, w.Watched(), 1)
}

func TestWatcherWatchMissingPath(t *testing.T) {
	r := &countingReloader{}
	w := newTestWatcher(t, r)
	err := w.Watch(filepath.Join(t.TempDir(), "absent.ui.hcl"))
	require.Error(t, err)
}

func TestWatcherClosedRejectsWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.ui.hcl")
	writeFile(t, path, "v0")

	r := &countingReloader{}
	w, err := New(r.reload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Error(t, w.Watch(path))
}
