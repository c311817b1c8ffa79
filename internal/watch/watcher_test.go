package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lycheesync/internal/config"
	"lycheesync/internal/lychee"
)

const (
	testSettle     = 30 * time.Millisecond
	testMoveWindow = 60 * time.Millisecond
	waitTimeout    = 3 * time.Second
	quietPeriod    = 200 * time.Millisecond
)

func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := New(root, Options{Settle: testSettle, MoveWindow: testMoveWindow}, lychee.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(waitTimeout):
			t.Error("Run() did not return after cancel")
		}
	})
	return w
}

func nextEvent(t *testing.T, w *Watcher) lychee.Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for event")
	}
	return lychee.Event{}
}

func expectQuiet(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event %s", ev)
	case <-time.After(quietPeriod):
	}
}

func expectEvent(t *testing.T, w *Watcher, want lychee.Event) {
	t.Helper()
	if got := nextEvent(t, w); got != want {
		t.Errorf("event = %s, want %s", got, want)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_CreatedAfterSettle(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	p := filepath.Join(root, "a.jpg")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := f.Write([]byte("chunk")); err != nil {
			t.Fatal(err)
		}
	}
	f.Close()

	expectEvent(t, w, lychee.Created(p))
	expectQuiet(t, w)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	dir := filepath.Join(root, "trip")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, lychee.Created(dir))

	p := filepath.Join(dir, "a.jpg")
	mustWrite(t, p)
	expectEvent(t, w, lychee.Created(p))
}

func TestWatcher_ExistingSubdirectoriesAreWatched(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "2024", "trip")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, root)

	p := filepath.Join(deep, "a.jpg")
	mustWrite(t, p)
	expectEvent(t, w, lychee.Created(p))
}

func TestWatcher_HiddenDirectoriesAreSkipped(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".cache")
	if err := os.Mkdir(hidden, 0o755); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, root)

	mustWrite(t, filepath.Join(hidden, "a.jpg"))
	expectQuiet(t, w)
}

func TestWatcher_Removed(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "a.jpg")
	mustWrite(t, p)
	w := startWatcher(t, root)

	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, lychee.Deleted(p))
}

func TestWatcher_RenameWithinTree(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "other"), 0o755); err != nil {
		t.Fatal(err)
	}
	from := filepath.Join(root, "a.jpg")
	to := filepath.Join(root, "other", "a.jpg")
	mustWrite(t, from)
	w := startWatcher(t, root)

	if err := os.Rename(from, to); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, lychee.Moved(from, to))
	expectQuiet(t, w)
}

func TestWatcher_RenamedDirectoryKeepsNestedWatches(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "d1", "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, root)

	from, to := filepath.Join(root, "d1"), filepath.Join(root, "d2")
	if err := os.Rename(from, to); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, lychee.Moved(from, to))

	top := filepath.Join(to, "top.jpg")
	mustWrite(t, top)
	expectEvent(t, w, lychee.Created(top))

	nested := filepath.Join(to, "sub", "nested.jpg")
	mustWrite(t, nested)
	expectEvent(t, w, lychee.Created(nested))
}

func TestWatcher_RenamedDirectoryTwice(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, root)

	a, b, c := filepath.Join(root, "a"), filepath.Join(root, "b"), filepath.Join(root, "c")
	if err := os.Rename(a, b); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, lychee.Moved(a, b))
	if err := os.Rename(b, c); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, lychee.Moved(b, c))

	nested := filepath.Join(c, "sub", "x.jpg")
	mustWrite(t, nested)
	expectEvent(t, w, lychee.Created(nested))
}

func TestWatcher_PairedCreateWaitsToSettle(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	a := filepath.Join(root, "a.jpg")
	mustWrite(t, a)
	w := startWatcher(t, root)

	if err := os.Rename(a, filepath.Join(elsewhere, "a.jpg")); err != nil {
		t.Fatal(err)
	}
	b := filepath.Join(root, "b.jpg")
	f, err := os.Create(b)
	if err != nil {
		t.Fatal(err)
	}
	// Keep writing for several settle periods.
	for i := 0; i < 10; i++ {
		if _, err := f.Write([]byte("chunk")); err != nil {
			t.Fatal(err)
		}
		select {
		case ev := <-w.Events():
			t.Fatalf("event %s while b.jpg was still being written", ev)
		case <-time.After(testSettle / 3):
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	expectEvent(t, w, lychee.Moved(a, b))
	expectQuiet(t, w)
}

func TestWatcher_PairedCreateRemovedBeforeSettling(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "other"), 0o755); err != nil {
		t.Fatal(err)
	}
	a := filepath.Join(root, "a.jpg")
	mustWrite(t, a)
	w := startWatcher(t, root)

	b := filepath.Join(root, "other", "a.jpg")
	if err := os.Rename(a, b); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(b); err != nil {
		t.Fatal(err)
	}

	// b may vanish before its create is handled, so the order varies.
	got := map[lychee.Event]bool{nextEvent(t, w): true, nextEvent(t, w): true}
	for _, want := range []lychee.Event{lychee.Deleted(a), lychee.Deleted(b)} {
		if !got[want] {
			t.Errorf("missing %s in %v", want, got)
		}
	}
	expectQuiet(t, w)
}

func TestWatcher_RenameOutOfTree(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	from := filepath.Join(root, "a.jpg")
	mustWrite(t, from)
	w := startWatcher(t, root)

	if err := os.Rename(from, filepath.Join(elsewhere, "a.jpg")); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, lychee.Deleted(from))
}

func TestWatcher_ChmodIsDropped(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "a.jpg")
	mustWrite(t, p)
	w := startWatcher(t, root)

	if err := os.Chmod(p, 0o600); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, w)
}

func TestWatcher_RunClosesEvents(t *testing.T) {
	w, err := New(t.TempDir(), Options{Settle: testSettle, MoveWindow: testMoveWindow}, lychee.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events channel still open after Run returned")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNew_MissingRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), Options{}, lychee.NewNopLogger()); err == nil {
		t.Fatal("New() expected error for missing root")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.WatchConfig{
		Settle:     config.Duration{Duration: time.Second},
		MoveWindow: config.Duration{Duration: 250 * time.Millisecond},
	}
	w, err := NewFromConfig(t.TempDir(), cfg, lychee.NewNopLogger())
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	defer w.Close()

	if w.opts.Settle != time.Second || w.opts.MoveWindow != 250*time.Millisecond {
		t.Errorf("opts = %+v", w.opts)
	}
}
