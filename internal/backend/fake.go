package backend

import (
	"context"
	"log/slog"
	"sync"

	"github.com/openstack/designate-sub004/internal/storage"
)

func init() {
	Register("fake", func(target storage.PoolTarget, _ *slog.Logger) (Backend, error) {
		return sharedFake(target.ID), nil
	})
	Register("noop", func(storage.PoolTarget, *slog.Logger) (Backend, error) {
		return noop{}, nil
	})
}

var (
	fakesMu sync.Mutex
	fakes   = map[string]*Fake{}
)

// sharedFake returns one Fake per target id so tests and the synchronizer
// observe the same instance.
func sharedFake(targetID string) *Fake {
	fakesMu.Lock()
	defer fakesMu.Unlock()
	f, ok := fakes[targetID]
	if !ok {
		f = NewFake()
		fakes[targetID] = f
	}
	return f
}

// FakeForTarget exposes the shared fake for assertions in tests.
func FakeForTarget(targetID string) *Fake {
	return sharedFake(targetID)
}

// Fake is an in-memory backend used by tests and development pools.
type Fake struct {
	mu    sync.Mutex
	zones map[string]*ZoneSnapshot
	// Err, when set, is returned by every mutating call.
	Err error
}

func NewFake() *Fake {
	return &Fake{zones: map[string]*ZoneSnapshot{}}
}

func (f *Fake) CreateZone(_ context.Context, zone *ZoneSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.zones[zone.Name] = zone
	return nil
}

func (f *Fake) UpdateZone(_ context.Context, zone *ZoneSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.zones[zone.Name] = zone
	return nil
}

func (f *Fake) DeleteZone(_ context.Context, zoneName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	delete(f.zones, zoneName)
	return nil
}

func (f *Fake) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Err
}

// Zone returns the last snapshot pushed for name, or nil.
func (f *Fake) Zone(name string) *ZoneSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.zones[name]
}

// SetErr injects a failure into subsequent calls.
func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// noop accepts everything and stores nothing.
type noop struct{}

func (noop) CreateZone(context.Context, *ZoneSnapshot) error { return nil }
func (noop) UpdateZone(context.Context, *ZoneSnapshot) error { return nil }
func (noop) DeleteZone(context.Context, string) error        { return nil }
func (noop) Ping(context.Context) error                      { return nil }
