package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/adlint/internal/metrics"
)

func TestWatcher_DebouncesYAMLChanges(t *testing.T) {
	dir := t.TempDir()
	calls := make(chan []string, 8)
	w, err := New(dir, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)),
		func(_ context.Context, changed []string) { calls <- changed })
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	before := testutil.ToFloat64(metrics.WatchRuns)

	// Ignored files never trigger a run.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".concerns.yaml.tmp"), []byte("x"), 0o600))
	select {
	case got := <-calls:
		t.Fatalf("unexpected run for %v", got)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "concerns.yaml"), []byte("concerns: []\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "risks.yml"), []byte("risks: []\n"), 0o600))

	select {
	case got := <-calls:
		assert.Contains(t, got, "concerns.yaml")
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not fire")
	}
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.WatchRuns), before+1)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent"), 0, slog.Default(), func(context.Context, []string) {})
	assert.Error(t, err)
}

func TestRelevant(t *testing.T) {
	cases := []struct {
		name string
		op   fsnotify.Op
		want bool
	}{
		{"/a/concerns.yaml", fsnotify.Write, true},
		{"/a/concerns.yml", fsnotify.Create, true},
		{"/a/concerns.yaml", fsnotify.Remove, true},
		{"/a/concerns.yaml", fsnotify.Chmod, false},
		{"/a/.concerns.yaml.1234.tmp", fsnotify.Create, false},
		{"/a/.hidden.yaml", fsnotify.Write, false},
		{"/a/readme.md", fsnotify.Write, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, relevant(fsnotify.Event{Name: tc.name, Op: tc.op}), "%s %s", tc.name, tc.op)
	}
}
