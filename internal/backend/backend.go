// Package backend defines the contract between the control plane and the
// nameservers it drives.
//
// Drivers are registered under a string key at init time and constructed
// from a pool target's options; there is no runtime plugin loading. Every
// call receives the full current zone content, never a diff: backends are
// expected to be idempotent and convergent.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/openstack/designate-sub004/internal/storage"
)

// RRSet is one (name, type) group of record data as pushed to a backend.
type RRSet struct {
	Name    string
	Type    string
	TTL     int
	Records []string
}

// ZoneSnapshot is the authoritative zone content at a given serial.
type ZoneSnapshot struct {
	Name    string
	Kind    storage.ZoneType
	Serial  uint32
	TTL     int
	Masters []string
	RRSets  []RRSet
}

// Backend pushes zones to one nameserver target. Calls are synchronous
// and must be idempotent; the synchronizer bounds them with a timeout and
// normalizes failures.
type Backend interface {
	CreateZone(ctx context.Context, zone *ZoneSnapshot) error
	UpdateZone(ctx context.Context, zone *ZoneSnapshot) error
	DeleteZone(ctx context.Context, zoneName string) error
	Ping(ctx context.Context) error
}

// Factory builds a driver from a pool target's options.
type Factory func(target storage.PoolTarget, logger *slog.Logger) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a driver under key. Called from driver init functions;
// duplicate keys are a programming error.
func Register(key string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[key]; dup {
		panic(fmt.Sprintf("backend: duplicate driver %q", key))
	}
	registry[key] = f
}

// New constructs the driver named by target.Type.
func New(target storage.PoolTarget, logger *slog.Logger) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[target.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("backend: unknown driver %q", target.Type)
	}
	return f(target, logger)
}

// Drivers lists the registered driver keys, sorted.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
