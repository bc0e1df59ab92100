package central

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/openstack/designate-sub004/internal/backend"
	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/storage"
)

func validatePool(p *storage.Pool) error {
	if p.Name == "" {
		return errs.New(errs.KindValidation, "pool name is required")
	}
	if len(p.NsRecords) == 0 {
		return errs.New(errs.KindValidation, "a pool needs at least one nameserver")
	}
	for _, ns := range p.NsRecords {
		if err := validateFQDN(ns.Hostname, 255); err != nil {
			return err
		}
	}
	drivers := map[string]bool{}
	for _, d := range backend.Drivers() {
		drivers[d] = true
	}
	for _, t := range p.Targets {
		if !drivers[t.Type] {
			return errs.New(errs.KindValidation, "unknown backend driver %q", t.Type)
		}
	}
	return nil
}

// CreatePool registers a pool of nameserver targets. Admin-only.
func (s *Service) CreatePool(ctx context.Context, sc storage.Scope, p *storage.Pool) (*storage.Pool, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "pool management requires an elevated privilege")
	}
	if err := validatePool(p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.db.CreatePool(ctx, sc, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPool(ctx context.Context, sc storage.Scope, id string) (*storage.Pool, error) {
	return s.db.GetPool(ctx, sc, id)
}

func (s *Service) FindPools(ctx context.Context, sc storage.Scope, opts storage.ListOpts) ([]storage.Pool, error) {
	return s.db.FindPools(ctx, sc, opts)
}

// UpdatePool replaces a pool's nameservers and targets. When the
// nameserver list changes, every zone on the pool gets its NS recordset
// reconciled and is re-driven to the backends. Admin-only.
func (s *Service) UpdatePool(ctx context.Context, sc storage.Scope, p *storage.Pool) (*storage.Pool, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "pool management requires an elevated privilege")
	}
	if err := validatePool(p); err != nil {
		return nil, err
	}

	current, err := s.db.GetPool(ctx, sc, p.ID)
	if err != nil {
		return nil, err
	}
	nsChanged := !sameNameservers(current.NsRecords, p.NsRecords)

	if err := s.db.UpdatePool(ctx, sc, p); err != nil {
		return nil, err
	}
	if !nsChanged {
		return p, nil
	}

	zones, err := s.db.FindZones(ctx, sc.Elevated(), storage.ZoneFilter{PoolID: p.ID}, storage.ListOpts{})
	if err != nil {
		return nil, err
	}
	for i := range zones {
		if err := s.refreshZoneNS(ctx, sc, &zones[i], p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// refreshZoneNS reconciles one zone's NS recordset after a pool change.
func (s *Service) refreshZoneNS(ctx context.Context, sc storage.Scope, zone *storage.Zone, pool *storage.Pool) error {
	ctx, unlock, err := s.locks.Lock(ctx, zone.ID)
	if err != nil {
		return err
	}
	defer unlock()

	if zone.Action == storage.ActionDelete || zone.Type != storage.ZonePrimary {
		return nil
	}
	if err := s.bumpZone(ctx, sc.Elevated(), zone); err != nil {
		return err
	}
	if err := s.reconcileNS(ctx, sc, zone, pool); err != nil {
		return err
	}
	s.enqueueSync(zone.ID)
	return nil
}

// DeletePool removes a pool that no zone references anymore. Admin-only.
func (s *Service) DeletePool(ctx context.Context, sc storage.Scope, id string) error {
	if !sc.Admin {
		return errs.New(errs.KindForbidden, "pool management requires an elevated privilege")
	}
	zones, err := s.db.FindZones(ctx, sc.Elevated(), storage.ZoneFilter{PoolID: id}, storage.ListOpts{Limit: 1})
	if err != nil {
		return err
	}
	if len(zones) > 0 {
		return errs.New(errs.KindConflict, "pool %s still serves zone %q", id, zones[0].Name)
	}
	return s.db.DeletePool(ctx, sc, id)
}

// sameNameservers compares nameserver sets by hostname, ignoring order
// and priority.
func sameNameservers(a, b []storage.PoolNsRecord) bool {
	if len(a) != len(b) {
		return false
	}
	ah := make([]string, len(a))
	bh := make([]string, len(b))
	for i := range a {
		ah[i] = a[i].Hostname
	}
	for i := range b {
		bh[i] = b[i].Hostname
	}
	sort.Strings(ah)
	sort.Strings(bh)
	for i := range ah {
		if ah[i] != bh[i] {
			return false
		}
	}
	return true
}
