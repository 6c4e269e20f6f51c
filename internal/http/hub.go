package http

import (
	"context"
	"errors"
	"sync"

	"khata/internal/core"
	"khata/internal/store"
)

// snapshotHub keeps one live subscription per owner and serves every page
// render from the cached snapshot, so a request never waits on the backend
// after the first subscription.
type snapshotHub struct {
	watcher store.SnapshotWatcher

	mu      sync.Mutex
	owners  map[string]*ownerFeed
	stopped bool
}

type ownerFeed struct {
	mu    sync.RWMutex
	snap  core.Snapshot
	unsub store.Unsubscribe
}

func newSnapshotHub(watcher store.SnapshotWatcher) *snapshotHub {
	return &snapshotHub{
		watcher: watcher,
		owners:  map[string]*ownerFeed{},
	}
}

// Snapshot returns the owner's current subtree, subscribing on first use.
// The backend delivers the initial snapshot before Watch returns, so the
// feed is populated by the time it is read.
func (h *snapshotHub) Snapshot(ctx context.Context, ownerID string) (core.Snapshot, error) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return core.Snapshot{}, errors.New("snapshot hub stopped")
	}
	feed, ok := h.owners[ownerID]
	if ok {
		h.mu.Unlock()
		feed.mu.RLock()
		defer feed.mu.RUnlock()
		return feed.snap, nil
	}
	feed = &ownerFeed{}
	h.owners[ownerID] = feed
	h.mu.Unlock()

	// Detached context: the subscription outlives the request that
	// triggered it.
	unsub, err := h.watcher.Watch(context.WithoutCancel(ctx), ownerID, func(snap core.Snapshot) {
		feed.mu.Lock()
		feed.snap = snap
		feed.mu.Unlock()
	})
	if err != nil {
		h.mu.Lock()
		delete(h.owners, ownerID)
		h.mu.Unlock()
		return core.Snapshot{}, err
	}

	// Stop may have run while Watch was in flight; it cannot see this
	// subscription, so release it here instead of leaking the watch.
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		unsub()
		return core.Snapshot{}, errors.New("snapshot hub stopped")
	}
	feed.unsub = unsub
	h.mu.Unlock()

	feed.mu.RLock()
	defer feed.mu.RUnlock()
	return feed.snap, nil
}

// Stop releases every owner subscription and refuses new ones.
func (h *snapshotHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for ownerID, feed := range h.owners {
		if feed.unsub != nil {
			feed.unsub()
		}
		delete(h.owners, ownerID)
	}
}
