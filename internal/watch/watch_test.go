package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
	notify  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 16)}
}

func (r *recorder) handle(_ context.Context, paths []string) {
	r.mu.Lock()
	r.batches = append(r.batches, paths)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change batch")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[len(r.batches)-1]
}

func start(t *testing.T, root string, r *recorder) {
	t.Helper()
	w, err := New(root, r.handle, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
}

func TestWatcherCoalescesBurst(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.js")
	require.NoError(t, os.WriteFile(a, []byte("1"), 0o644))

	r := newRecorder()
	start(t, root, r)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(a, []byte{byte('a' + i)}, 0o644))
	}
	assert.Equal(t, []string{a}, r.wait(t))
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	r := newRecorder()
	start(t, root, r)

	sub := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give the loop a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)

	f := filepath.Join(sub, "b.ts")
	require.NoError(t, os.WriteFile(f, []byte("export {}"), 0o644))
	assert.Contains(t, r.wait(t), f)
}

func TestWatcherSkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	nm := filepath.Join(root, "node_modules")
	require.NoError(t, os.Mkdir(nm, 0o755))

	r := newRecorder()
	start(t, root, r)

	require.NoError(t, os.WriteFile(filepath.Join(nm, "x.js"), []byte("x"), 0o644))
	kept := filepath.Join(root, "app.js")
	require.NoError(t, os.WriteFile(kept, []byte("x"), 0o644))
	assert.Equal(t, []string{kept}, r.wait(t))
}

func TestNewValidates(t *testing.T) {
	_, err := New(t.TempDir(), nil, Options{})
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"), func(context.Context, []string) {}, Options{})
	assert.Error(t, err)
}
