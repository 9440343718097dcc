package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ladislavh/terminwatch/internal/watcher"
)

func (s *fakeWatcherStore) ListActive(context.Context) ([]watcher.Watcher, error) {
	var out []watcher.Watcher
	for _, w := range s.watchers {
		if w.Active {
			out = append(out, *w)
		}
	}
	return out, nil
}

// signalFetcher notifies a channel on every fetch so tests can observe
// cycles without sleeping.
type signalFetcher struct {
	fetched chan struct{}
}

func (f *signalFetcher) FetchWindow(context.Context, string, string, int) (string, error) {
	select {
	case f.fetched <- struct{}{}:
	default:
	}
	return markupFor(), nil
}

func waitSignal(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cycle")
	}
}

func TestRegistryStartRunsImmediately(t *testing.T) {
	t.Parallel()
	ws := newFakeWatcherStore(testWatcher())
	f := &signalFetcher{fetched: make(chan struct{}, 1)}
	r := newTestReconcilerWithFetcher(ws, f)

	reg := NewRegistry(context.Background(), r, time.Hour, nil)
	defer reg.StopAll()

	reg.Start(1)
	waitSignal(t, f.fetched)

	if !reg.Running(1) {
		t.Error("Running(1) = false after Start")
	}
}

func TestRegistryStartReplacesExistingTask(t *testing.T) {
	t.Parallel()
	ws := newFakeWatcherStore(testWatcher())
	f := &signalFetcher{fetched: make(chan struct{}, 2)}
	r := newTestReconcilerWithFetcher(ws, f)

	reg := NewRegistry(context.Background(), r, time.Hour, nil)
	defer reg.StopAll()

	reg.Start(1)
	waitSignal(t, f.fetched)
	reg.Start(1) // replace, not duplicate
	waitSignal(t, f.fetched)

	if !reg.Running(1) {
		t.Error("Running(1) = false after restart")
	}
}

func TestRegistryStop(t *testing.T) {
	t.Parallel()
	ws := newFakeWatcherStore(testWatcher())
	f := &signalFetcher{fetched: make(chan struct{}, 1)}
	r := newTestReconcilerWithFetcher(ws, f)

	reg := NewRegistry(context.Background(), r, time.Hour, nil)
	reg.Start(1)
	waitSignal(t, f.fetched)

	reg.Stop(1)
	if reg.Running(1) {
		t.Error("Running(1) = true after Stop")
	}

	// Stopping an unknown watcher is a no-op.
	reg.Stop(99)
	reg.StopAll()
}

// gatedFetcher blocks every fetch until released and tracks how many
// fetches run at once.
type gatedFetcher struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	release     chan struct{}
	entered     chan struct{}
}

func (f *gatedFetcher) FetchWindow(context.Context, string, string, int) (string, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	select {
	case f.entered <- struct{}{}:
	default:
	}
	<-f.release
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return markupFor(), nil
}

func TestRegistryStartJoinsReplacedTask(t *testing.T) {
	t.Parallel()
	ws := newFakeWatcherStore(testWatcher())
	f := &gatedFetcher{release: make(chan struct{}), entered: make(chan struct{}, 2)}
	r := newTestReconcilerWithFetcher(ws, f)

	reg := NewRegistry(context.Background(), r, time.Hour, nil)
	defer reg.StopAll()

	reg.Start(1)
	waitSignal(t, f.entered) // first cycle is mid-fetch

	started := make(chan struct{})
	go func() {
		reg.Start(1)
		close(started)
	}()

	// The replacement must wait for the in-flight cycle, not run beside it.
	select {
	case <-started:
		t.Fatal("Start returned while the replaced task's cycle was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.release)
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement Start did not return after the old cycle finished")
	}
	waitSignal(t, f.entered) // replacement's immediate cycle ran

	f.mu.Lock()
	max := f.maxInFlight
	f.mu.Unlock()
	if max != 1 {
		t.Errorf("max concurrent cycles = %d, want 1", max)
	}
}

func TestRegistryResync(t *testing.T) {
	t.Parallel()
	active := testWatcher()
	inactive := testWatcher()
	inactive.ID = 2
	inactive.Active = false

	ws := newFakeWatcherStore(active, inactive)
	f := &signalFetcher{fetched: make(chan struct{}, 1)}
	r := newTestReconcilerWithFetcher(ws, f)

	reg := NewRegistry(context.Background(), r, time.Hour, nil)
	defer reg.StopAll()

	if err := reg.Resync(context.Background(), ws); err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if !reg.Running(1) {
		t.Error("active watcher task not started by Resync")
	}
	if reg.Running(2) {
		t.Error("inactive watcher task started by Resync")
	}
}

func newTestReconcilerWithFetcher(ws *fakeWatcherStore, f Fetcher) *Reconciler {
	r := NewReconciler(ws, newFakeNotifiedStore(), f, &fakeDispatcher{}, nil)
	r.now = func() time.Time { return date(2025, time.December, 20) }
	return r
}
