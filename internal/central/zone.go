package central

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/notify"
	"github.com/openstack/designate-sub004/internal/quota"
	"github.com/openstack/designate-sub004/internal/storage"
)

// CreateZoneInput carries the caller-settable zone fields.
type CreateZoneInput struct {
	Name    string
	Email   string
	TTL     int
	Type    storage.ZoneType
	Masters []string
	PoolID  string
}

// UpdateZoneInput carries the mutable zone fields; nil means unchanged.
type UpdateZoneInput struct {
	Email   *string
	TTL     *int
	Masters []string
}

// CreateZone validates and persists a new zone with its SOA and NS
// recordsets, then hands it to the synchronizer. The zone is returned in
// PENDING/CREATE; the caller polls for ACTIVE.
func (s *Service) CreateZone(ctx context.Context, sc storage.Scope, in CreateZoneInput) (*storage.Zone, error) {
	if in.Type == "" {
		in.Type = storage.ZonePrimary
	}
	if in.Type != storage.ZonePrimary && in.Type != storage.ZoneSecondary {
		return nil, errs.New(errs.KindValidation, "invalid zone type %q", in.Type)
	}
	if in.Type == storage.ZonePrimary && in.Email == "" {
		return nil, errs.New(errs.KindValidation, "email is required for a primary zone")
	}
	if in.Type == storage.ZoneSecondary && len(in.Masters) == 0 {
		return nil, errs.New(errs.KindValidation, "a secondary zone needs at least one master")
	}

	if err := s.validateZoneName(ctx, sc, in.Name); err != nil {
		return nil, err
	}
	if err := s.validateTTL(sc, in.TTL); err != nil {
		return nil, err
	}

	if _, err := s.db.GetZoneByName(ctx, sc.Elevated(), in.Name); err == nil {
		return nil, errs.New(errs.KindConflict, "zone %q already exists", in.Name)
	} else if !errs.IsNotFound(err) {
		return nil, err
	}

	// Subdomain case: a parent owned by another tenant forbids creation;
	// a same-tenant parent links this zone underneath it.
	parent, err := s.findParentZone(ctx, sc, in.Name)
	if err != nil {
		return nil, err
	}
	if parent != nil && parent.TenantID != sc.TenantID {
		return nil, errs.New(errs.KindForbidden, "parent zone %q belongs to another tenant", parent.Name)
	}

	// Superdomain case: every existing descendant must belong to the
	// caller; they are re-parented onto the new zone after creation.
	children, err := s.findChildZones(ctx, sc, in.Name)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if child.TenantID != sc.TenantID {
			return nil, errs.New(errs.KindForbidden, "zone %q would contain zone %q owned by another tenant", in.Name, child.Name)
		}
	}

	count, err := s.db.CountZones(ctx, sc, sc.TenantID)
	if err != nil {
		return nil, err
	}
	if err := s.quota.LimitCheck(ctx, sc, sc.TenantID, map[string]int{quota.ResourceZones: count + 1}); err != nil {
		return nil, err
	}

	poolID := in.PoolID
	if poolID == "" {
		poolID = s.cfg.DefaultPoolID
	}
	pool, err := s.db.GetPool(ctx, sc.Elevated(), poolID)
	if err != nil {
		return nil, fmt.Errorf("resolving pool for zone %s: %w", in.Name, err)
	}

	ttl := in.TTL
	if ttl <= 0 {
		ttl = s.cfg.DNS.DefaultTTL
	}
	zone := &storage.Zone{
		ID:       uuid.NewString(),
		TenantID: sc.TenantID,
		Name:     in.Name,
		Email:    in.Email,
		TTL:      ttl,
		Serial:   s.serials.Next(0),
		Type:     in.Type,
		Status:   storage.StatusPending,
		Action:   storage.ActionCreate,
		PoolID:   pool.ID,
		Masters:  in.Masters,
	}
	if parent != nil {
		zone.ParentZoneID = parent.ID
	}

	ctx, unlock, err := s.locks.Lock(ctx, zone.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.db.CreateZone(ctx, sc, zone); err != nil {
		return nil, err
	}
	if zone.Type == storage.ZonePrimary {
		if err := s.createSOA(ctx, sc, zone, pool); err != nil {
			return nil, err
		}
		if err := s.createNS(ctx, sc, zone, pool); err != nil {
			return nil, err
		}
	}

	for i := range children {
		child := &children[i]
		child.ParentZoneID = zone.ID
		if err := s.db.UpdateZone(ctx, sc.Elevated(), child); err != nil {
			return nil, fmt.Errorf("re-parenting zone %s: %w", child.Name, err)
		}
	}

	s.notify(ctx, notify.ZoneCreate, zone)
	s.enqueueSync(zone.ID)
	return zone, nil
}

// GetZone fetches a zone visible to the caller.
func (s *Service) GetZone(ctx context.Context, sc storage.Scope, id string) (*storage.Zone, error) {
	return s.db.GetZone(ctx, sc, id)
}

// FindZones lists the caller's zones.
func (s *Service) FindZones(ctx context.Context, sc storage.Scope, f storage.ZoneFilter, opts storage.ListOpts) ([]storage.Zone, error) {
	return s.db.FindZones(ctx, sc, f, opts)
}

// UpdateZone applies mutable-field changes. Zone name and type are
// immutable; a secondary zone's email is as well. Changes affecting zone
// content bump the serial and re-drive propagation.
func (s *Service) UpdateZone(ctx context.Context, sc storage.Scope, id string, in UpdateZoneInput) (*storage.Zone, error) {
	ctx, unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	zone, err := s.db.GetZone(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if zone.Action == storage.ActionDelete {
		return nil, errs.New(errs.KindConflict, "zone %q is being deleted", zone.Name)
	}

	changed := false
	if in.Email != nil && *in.Email != zone.Email {
		if zone.Type == storage.ZoneSecondary {
			return nil, errs.New(errs.KindValidation, "email of a secondary zone is immutable")
		}
		zone.Email = *in.Email
		changed = true
	}
	if in.TTL != nil && *in.TTL != zone.TTL {
		if err := s.validateTTL(sc, *in.TTL); err != nil {
			return nil, err
		}
		zone.TTL = *in.TTL
		changed = true
	}
	if in.Masters != nil {
		if zone.Type != storage.ZoneSecondary {
			return nil, errs.New(errs.KindValidation, "masters are only valid for a secondary zone")
		}
		zone.Masters = in.Masters
		changed = true
	}
	if !changed {
		return zone, nil
	}

	zone.Serial = s.serials.Next(zone.Serial)
	zone.Status = storage.StatusPending
	zone.Action = storage.ActionUpdate
	if err := s.db.UpdateZone(ctx, sc, zone); err != nil {
		return nil, err
	}
	if zone.Type == storage.ZonePrimary {
		if err := s.updateSOA(ctx, sc, zone); err != nil {
			return nil, err
		}
	}

	s.notify(ctx, notify.ZoneUpdate, zone)
	s.enqueueSync(zone.ID)
	return zone, nil
}

// DeleteZone marks a zone for deletion. The row is purged once every
// backend target acknowledges; until then the zone reads PENDING/DELETE.
// A zone with live child zones cannot be deleted.
func (s *Service) DeleteZone(ctx context.Context, sc storage.Scope, id string) (*storage.Zone, error) {
	ctx, unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	zone, err := s.db.GetZone(ctx, sc, id)
	if err != nil {
		return nil, err
	}

	children, err := s.db.FindZones(ctx, sc.Elevated(), storage.ZoneFilter{ParentZoneID: zone.ID}, storage.ListOpts{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(children) > 0 {
		return nil, errs.New(errs.KindValidation, "zone %q still has child zone %q", zone.Name, children[0].Name)
	}

	zone.Status = storage.StatusPending
	zone.Action = storage.ActionDelete
	if err := s.db.UpdateZone(ctx, sc, zone); err != nil {
		return nil, err
	}

	s.notify(ctx, notify.ZoneDelete, zone)
	s.enqueueSync(zone.ID)
	return zone, nil
}

// TouchZone bumps the serial and re-drives backend propagation without
// changing zone content. The recovery path for zones stuck in ERROR.
func (s *Service) TouchZone(ctx context.Context, sc storage.Scope, id string) (*storage.Zone, error) {
	ctx, unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	zone, err := s.db.GetZone(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if zone.Action == storage.ActionDelete {
		return nil, errs.New(errs.KindConflict, "zone %q is being deleted", zone.Name)
	}

	zone.Serial = s.serials.Next(zone.Serial)
	zone.Status = storage.StatusPending
	if zone.Action == storage.ActionNone {
		zone.Action = storage.ActionUpdate
	}
	if err := s.db.UpdateZone(ctx, sc, zone); err != nil {
		return nil, err
	}
	if zone.Type == storage.ZonePrimary {
		if err := s.updateSOA(ctx, sc, zone); err != nil {
			return nil, err
		}
	}

	s.notify(ctx, notify.ZoneUpdate, zone)
	s.enqueueSync(zone.ID)
	return zone, nil
}

// MoveZonePool reassigns a zone to another pool, leaving it PENDING on
// the new pool with regenerated NS records. Admin-only.
func (s *Service) MoveZonePool(ctx context.Context, sc storage.Scope, id, poolID string) (*storage.Zone, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "pool move requires an elevated privilege")
	}

	pool, err := s.db.GetPool(ctx, sc.Elevated(), poolID)
	if err != nil {
		return nil, err
	}

	ctx, unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	zone, err := s.db.GetZone(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if zone.Action == storage.ActionDelete {
		return nil, errs.New(errs.KindConflict, "zone %q is being deleted", zone.Name)
	}
	if zone.PoolID == pool.ID {
		return zone, nil
	}

	// Statuses recorded against the old pool's targets no longer apply.
	if err := s.db.DeleteTargetStatuses(ctx, sc.Elevated(), zone.ID); err != nil {
		return nil, err
	}

	zone.PoolID = pool.ID
	zone.Serial = s.serials.Next(zone.Serial)
	zone.Status = storage.StatusPending
	zone.Action = storage.ActionUpdate
	if err := s.db.UpdateZone(ctx, sc, zone); err != nil {
		return nil, err
	}
	if zone.Type == storage.ZonePrimary {
		if err := s.reconcileNS(ctx, sc, zone, pool); err != nil {
			return nil, err
		}
		if err := s.updateSOA(ctx, sc, zone); err != nil {
			return nil, err
		}
	}

	s.notify(ctx, notify.ZoneUpdate, zone)
	s.enqueueSync(zone.ID)
	return zone, nil
}
