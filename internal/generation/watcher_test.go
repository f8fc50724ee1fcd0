package generation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "server.h")
	require.NoError(t, os.WriteFile(header, []byte("virtual void sync();\n"), 0o644))

	changes := make(chan struct{}, 10)
	watcher := NewWatcher([]string{header, ""}, 50*time.Millisecond, nil, func() {
		changes <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Give the watcher time to register before touching files.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(header, []byte("virtual void flush_queries();\n"), 0o644))
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	// The burst collapses into one notification.
	select {
	case <-changes:
		t.Fatal("burst reported more than once")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
