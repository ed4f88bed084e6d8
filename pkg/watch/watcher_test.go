package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_RunsActionAfterWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brenda_download.txt")
	require.NoError(t, os.WriteFile(path, []byte("ID\t1.1.1.1\n"), 0o644))

	var runs int32
	seen := make(chan string, 4)
	w, err := New(path, func(ctx context.Context, p string) error {
		atomic.AddInt32(&runs, 1)
		seen <- p
		return nil
	}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("ID\t1.1.1.2\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case p := <-seen:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, p)
	case <-time.After(5 * time.Second):
		t.Fatal("action did not run")
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs), "writes within the debounce window run the action once")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "dump.txt"), func(context.Context, string) error { return nil })
	require.NoError(t, err)

	err = w.Run(context.Background())
	assert.ErrorContains(t, err, "watching directory")
}

func TestNew_Defaults(t *testing.T) {
	w, err := New("dump.txt", nil)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(w.path))
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.NotNil(t, w.logger)
}
