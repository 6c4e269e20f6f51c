package http

import (
	"context"
	"sync/atomic"
	"testing"

	"khata/internal/core"
	"khata/internal/store"
)

// stubWatcher lets tests control when Watch completes and counts how many
// subscriptions were released.
type stubWatcher struct {
	started  chan struct{}
	release  chan struct{}
	watches  int32
	unsubbed int32
}

func newStubWatcher() *stubWatcher {
	return &stubWatcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (w *stubWatcher) Watch(ctx context.Context, ownerID string, fn func(core.Snapshot)) (store.Unsubscribe, error) {
	if atomic.AddInt32(&w.watches, 1) == 1 {
		close(w.started)
	}
	<-w.release
	fn(core.Snapshot{Name: "Boss"})
	return func() { atomic.AddInt32(&w.unsubbed, 1) }, nil
}

func TestHubCachesOneWatchPerOwner(t *testing.T) {
	w := newStubWatcher()
	close(w.release)
	hub := newSnapshotHub(w)

	for i := 0; i < 3; i++ {
		snap, err := hub.Snapshot(context.Background(), "owner-1")
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		if snap.Name != "Boss" {
			t.Fatalf("snapshot name = %q", snap.Name)
		}
	}
	if got := atomic.LoadInt32(&w.watches); got != 1 {
		t.Fatalf("watches = %d, want 1", got)
	}

	hub.Stop()
	if got := atomic.LoadInt32(&w.unsubbed); got != 1 {
		t.Fatalf("unsubscribed = %d, want 1", got)
	}
}

func TestHubStopDuringFirstSubscription(t *testing.T) {
	w := newStubWatcher()
	hub := newSnapshotHub(w)

	errc := make(chan error, 1)
	go func() {
		_, err := hub.Snapshot(context.Background(), "owner-1")
		errc <- err
	}()

	// Stop the hub while Watch is still in flight, then let it complete.
	<-w.started
	hub.Stop()
	close(w.release)

	if err := <-errc; err == nil {
		t.Fatal("Snapshot on a stopped hub should fail")
	}
	if got := atomic.LoadInt32(&w.unsubbed); got != 1 {
		t.Fatalf("in-flight subscription not released: unsubscribed = %d, want 1", got)
	}

	if _, err := hub.Snapshot(context.Background(), "owner-2"); err == nil {
		t.Fatal("stopped hub should refuse new subscriptions")
	}
	if got := atomic.LoadInt32(&w.watches); got != 1 {
		t.Fatalf("stopped hub started a new watch: watches = %d, want 1", got)
	}
}
