// Package quota enforces per-tenant resource limits.
//
// Defaults come from configuration; storage carries per-tenant overrides
// written through the admin API. The core calls LimitCheck with the
// current count plus the delta of the pending operation before any write.
package quota

import (
	"context"
	"fmt"
	"sort"

	"github.com/openstack/designate-sub004/internal/config"
	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/storage"
)

// Resource names understood by the quota system.
const (
	ResourceZones          = "zones"
	ResourceZoneRecordsets = "zone_recordsets"
	ResourceZoneRecords    = "zone_records"
)

// Enforcer checks counts against configured limits.
type Enforcer struct {
	defaults config.QuotaConfig
	db       *storage.DB
}

func NewEnforcer(defaults config.QuotaConfig, db *storage.DB) *Enforcer {
	return &Enforcer{defaults: defaults, db: db}
}

// Limits returns the effective limits for a tenant (defaults merged with
// storage overrides).
func (e *Enforcer) Limits(ctx context.Context, sc storage.Scope, tenantID string) (map[string]int, error) {
	limits := map[string]int{
		ResourceZones:          e.defaults.Zones,
		ResourceZoneRecordsets: e.defaults.ZoneRecordsets,
		ResourceZoneRecords:    e.defaults.ZoneRecords,
	}
	overrides, err := e.db.GetQuotas(ctx, sc, tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading quota overrides: %w", err)
	}
	for resource, limit := range overrides {
		limits[resource] = limit
	}
	return limits, nil
}

// LimitCheck rejects the operation when any named count exceeds the
// tenant's limit for that resource. Unknown resource names are ignored.
func (e *Enforcer) LimitCheck(ctx context.Context, sc storage.Scope, tenantID string, counts map[string]int) error {
	limits, err := e.Limits(ctx, sc, tenantID)
	if err != nil {
		return err
	}

	// Deterministic error ordering.
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		limit, ok := limits[name]
		if !ok {
			continue
		}
		if counts[name] > limit {
			return errs.New(errs.KindOverQuota, "quota exceeded for %s: %d > %d", name, counts[name], limit)
		}
	}
	return nil
}
