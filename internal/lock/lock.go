// Package lock serializes mutations per zone.
//
// Every create, update, delete or backend-sync touching a zone must hold
// that zone's lock for the duration of its read-validate-write sequence.
// Locks are keyed by zone id only. Re-entry from the same logical call
// chain is a no-op: the set of held zone ids travels in the context, so a
// locked operation can invoke another locked operation on the same zone
// without deadlocking.
//
// Manager is an interface so a cluster deployment can substitute a
// lease-based distributed lock; the context-carried held set then elides
// redundant round-trips to the coordinator within one call stack.
package lock

import (
	"context"
	"sync"

	"github.com/openstack/designate-sub004/internal/errs"
)

// Manager hands out per-zone exclusive locks.
type Manager interface {
	// Lock acquires the lock for zoneID, blocking until available or ctx
	// is done. The returned context must be passed to nested operations so
	// re-entry is detected. The returned release must be called on all
	// exit paths; on re-entry it is a no-op.
	Lock(ctx context.Context, zoneID string) (context.Context, func(), error)
}

type heldKey struct{}

// heldSet is the set of zone ids locked by the current call chain.
// Contexts are immutable, so each acquisition layers a fresh copy.
type heldSet map[string]struct{}

func held(ctx context.Context) heldSet {
	s, _ := ctx.Value(heldKey{}).(heldSet)
	return s
}

// LocalManager implements Manager with in-process mutexes. Sufficient for
// a single-process deployment; all workers share one instance.
type LocalManager struct {
	mu    sync.Mutex
	zones map[string]*zoneLock
}

type zoneLock struct {
	ch   chan struct{} // 1-buffered; holding the token means holding the lock
	refs int
}

func NewLocalManager() *LocalManager {
	return &LocalManager{zones: make(map[string]*zoneLock)}
}

func (m *LocalManager) Lock(ctx context.Context, zoneID string) (context.Context, func(), error) {
	if zoneID == "" {
		return ctx, nil, errs.New(errs.KindProgramming, "zone lock requested without a zone id")
	}

	prev := held(ctx)
	if _, ok := prev[zoneID]; ok {
		// Re-entrant acquisition within the same call chain.
		return ctx, func() {}, nil
	}

	zl := m.acquireRef(zoneID)

	select {
	case zl.ch <- struct{}{}:
	case <-ctx.Done():
		m.releaseRef(zoneID)
		return ctx, nil, errs.Wrap(errs.KindTimeout, ctx.Err(), "acquiring lock for zone %s", zoneID)
	}

	next := make(heldSet, len(prev)+1)
	for id := range prev {
		next[id] = struct{}{}
	}
	next[zoneID] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-zl.ch
			m.releaseRef(zoneID)
		})
	}
	return context.WithValue(ctx, heldKey{}, next), release, nil
}

func (m *LocalManager) acquireRef(zoneID string) *zoneLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	zl, ok := m.zones[zoneID]
	if !ok {
		zl = &zoneLock{ch: make(chan struct{}, 1)}
		m.zones[zoneID] = zl
	}
	zl.refs++
	return zl
}

func (m *LocalManager) releaseRef(zoneID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	zl, ok := m.zones[zoneID]
	if !ok {
		return
	}
	zl.refs--
	if zl.refs == 0 {
		delete(m.zones, zoneID)
	}
}
