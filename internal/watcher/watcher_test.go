package watcher

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

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestFilters(t *testing.T) {
	tests := []struct {
		path    string
		content bool
		visible bool
		notGit  bool
	}{
		{"content/commits.yaml", true, true, true},
		{"content/intro.YML", true, true, true},
		{"content/undo.md", true, true, true},
		{"content/notes.txt", false, true, true},
		{"content/.draft.md", true, false, true},
		{"content/undo.md~", false, false, true},
		{"content/.undo.md.swp", false, false, true},
		{"repo/.git/config", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.content, ContentFilter(tt.path))
			assert.Equal(t, tt.visible, NoHiddenFilter(tt.path))
			assert.Equal(t, tt.notGit, NoGitFilter(tt.path))
		})
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	d := &Debouncer{
		delay:  20 * time.Millisecond,
		events: make(chan ChangeEvent, 10),
		output: make(chan []ChangeEvent, 10),
	}

	d.addEvent(ChangeEvent{Type: EventTypeCreated, Path: "b.yaml"})
	d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "a.yaml"})
	d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "b.yaml"})

	select {
	case events := <-d.output:
		require.Len(t, events, 2)
		assert.Equal(t, "a.yaml", events[0].Path)
		assert.Equal(t, "b.yaml", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type, "latest event per path wins")
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never flushed")
	}

	select {
	case events := <-d.output:
		t.Fatalf("unexpected second batch: %v", events)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDebouncerStop(t *testing.T) {
	d := &Debouncer{
		delay:  20 * time.Millisecond,
		events: make(chan ChangeEvent, 10),
		output: make(chan []ChangeEvent, 10),
	}
	d.addEvent(ChangeEvent{Path: "a.yaml"})
	d.stop()

	select {
	case <-d.output:
		t.Fatal("stopped debouncer flushed")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestFileWatcherReportsContentChanges(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "guides"), 0o755))

	fw, err := NewFileWatcher(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	fw.AddFilter(ContentFilter)
	fw.AddFilter(NoHiddenFilter)

	var mu sync.Mutex
	var batches [][]ChangeEvent
	fw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, events)
		return nil
	})

	require.NoError(t, fw.AddRecursive(dir))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	target := filepath.Join(dir, "guides", "commits.yaml")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("- id: commits\n"), 0o644))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, batch := range batches {
		for _, event := range batch {
			assert.Equal(t, target, event.Path)
		}
	}
	assert.Len(t, batches[0], 1)
}

func TestFileWatcherWatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()

	fw, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()
	fw.AddFilter(ContentFilter)

	seen := make(chan string, 16)
	fw.AddHandler(func(events []ChangeEvent) error {
		for _, e := range events {
			seen <- e.Path
		}
		return nil
	})

	require.NoError(t, fw.AddRecursive(dir))
	require.NoError(t, fw.Start(context.Background()))

	sub := filepath.Join(dir, "advanced")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// The directory watch is installed asynchronously; keep writing until
	// an event from inside it arrives.
	target := filepath.Join(sub, "rebase.md")
	deadline := time.After(5 * time.Second)
	for {
		require.NoError(t, os.WriteFile(target, []byte("---\nid: rebase\n---\n"), 0o644))
		select {
		case path := <-seen:
			if path == target {
				return
			}
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no event from the new directory")
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	fw, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Start(context.Background()))

	require.NoError(t, fw.Stop())
	assert.NoError(t, fw.Stop())
}

func TestAddRecursiveMissingRoot(t *testing.T) {
	fw, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	assert.Error(t, fw.AddRecursive(filepath.Join(t.TempDir(), "missing")))
}
