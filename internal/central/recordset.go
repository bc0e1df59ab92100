package central

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/notify"
	"github.com/openstack/designate-sub004/internal/quota"
	"github.com/openstack/designate-sub004/internal/storage"
)

// CreateRecordSetInput carries the caller-settable recordset fields.
type CreateRecordSetInput struct {
	Name string
	Type string
	// TTL nil inherits the zone TTL.
	TTL     *int
	Records []string
}

// UpdateRecordSetInput carries the mutable recordset fields; nil means
// unchanged.
type UpdateRecordSetInput struct {
	TTL     *int
	Records []string
}

// CreateRecordSet validates and persists a recordset with its records,
// bumps the zone serial and re-drives propagation.
func (s *Service) CreateRecordSet(ctx context.Context, sc storage.Scope, zoneID string, in CreateRecordSetInput) (*storage.RecordSet, error) {
	ctx, unlock, err := s.locks.Lock(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	zone, err := s.db.GetZone(ctx, sc, zoneID)
	if err != nil {
		return nil, err
	}
	if zone.Action == storage.ActionDelete {
		return nil, errs.New(errs.KindConflict, "zone %q is being deleted", zone.Name)
	}

	rtype := strings.ToUpper(in.Type)
	if rtype == "SOA" {
		return nil, errs.New(errs.KindValidation, "SOA recordsets are system-managed")
	}
	if len(in.Records) == 0 {
		return nil, errs.New(errs.KindValidation, "a recordset needs at least one record")
	}

	if err := s.validateRecordSetName(in.Name, zone.Name); err != nil {
		return nil, err
	}
	if err := s.checkRecordSetPlacement(ctx, sc, zone, in.Name, rtype, ""); err != nil {
		return nil, err
	}
	if in.TTL != nil {
		if err := s.validateTTL(sc, *in.TTL); err != nil {
			return nil, err
		}
	}

	setCount, err := s.db.CountRecordSets(ctx, sc.Elevated(), zone.ID)
	if err != nil {
		return nil, err
	}
	recCount, err := s.db.CountRecords(ctx, sc.Elevated(), zone.ID)
	if err != nil {
		return nil, err
	}
	if err := s.quota.LimitCheck(ctx, sc, zone.TenantID, map[string]int{
		quota.ResourceZoneRecordsets: setCount + 1,
		quota.ResourceZoneRecords:    recCount + len(in.Records),
	}); err != nil {
		return nil, err
	}

	if err := s.bumpZone(ctx, sc, zone); err != nil {
		return nil, err
	}

	rs := &storage.RecordSet{
		ID:     uuid.NewString(),
		ZoneID: zone.ID,
		Name:   in.Name,
		Type:   rtype,
		TTL:    in.TTL,
	}
	for _, data := range in.Records {
		rs.Records = append(rs.Records, storage.Record{
			ID:     uuid.NewString(),
			ZoneID: zone.ID,
			Data:   data,
			Status: storage.StatusPending,
			Action: storage.ActionCreate,
			Serial: zone.Serial,
		})
	}
	if err := s.db.CreateRecordSet(ctx, sc, rs); err != nil {
		return nil, err
	}

	for i := range rs.Records {
		s.notify(ctx, notify.RecordCreate, &rs.Records[i])
	}
	s.notify(ctx, notify.RecordSetCreate, rs)
	s.enqueueSync(zone.ID)
	return rs, nil
}

// GetRecordSet fetches a recordset of a zone visible to the caller.
func (s *Service) GetRecordSet(ctx context.Context, sc storage.Scope, zoneID, id string) (*storage.RecordSet, error) {
	zone, err := s.db.GetZone(ctx, sc, zoneID)
	if err != nil {
		return nil, err
	}
	return s.db.GetRecordSet(ctx, sc, zone.ID, id)
}

// FindRecordSets lists recordsets of a zone visible to the caller.
func (s *Service) FindRecordSets(ctx context.Context, sc storage.Scope, zoneID string, f storage.RecordSetFilter, opts storage.ListOpts) ([]storage.RecordSet, error) {
	zone, err := s.db.GetZone(ctx, sc, zoneID)
	if err != nil {
		return nil, err
	}
	f.ZoneID = zone.ID
	return s.db.FindRecordSets(ctx, sc, f, opts)
}

// UpdateRecordSet applies TTL and record-data changes. Record additions
// and removals bump the zone serial; a TTL-only change propagates without
// a serial increment.
func (s *Service) UpdateRecordSet(ctx context.Context, sc storage.Scope, zoneID, id string, in UpdateRecordSetInput) (*storage.RecordSet, error) {
	ctx, unlock, err := s.locks.Lock(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	zone, err := s.db.GetZone(ctx, sc, zoneID)
	if err != nil {
		return nil, err
	}
	if zone.Action == storage.ActionDelete {
		return nil, errs.New(errs.KindConflict, "zone %q is being deleted", zone.Name)
	}

	rs, err := s.db.GetRecordSet(ctx, sc, zone.ID, id)
	if err != nil {
		return nil, err
	}
	if rs.Managed && !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "recordset %s/%s is system-managed", rs.Name, rs.Type)
	}

	ttlChanged := false
	if in.TTL != nil && (rs.TTL == nil || *rs.TTL != *in.TTL) {
		if err := s.validateTTL(sc, *in.TTL); err != nil {
			return nil, err
		}
		rs.TTL = in.TTL
		ttlChanged = true
	}

	var added, removed []*storage.Record
	if in.Records != nil {
		want := map[string]bool{}
		for _, data := range in.Records {
			want[data] = true
		}
		have := map[string]bool{}
		for i := range rs.Records {
			rec := &rs.Records[i]
			have[rec.Data] = true
			if !want[rec.Data] && rec.Action != storage.ActionDelete {
				removed = append(removed, rec)
			}
		}
		for _, data := range in.Records {
			if !have[data] {
				added = append(added, &storage.Record{
					ID:          uuid.NewString(),
					RecordSetID: rs.ID,
					ZoneID:      zone.ID,
					Data:        data,
				})
			}
		}
		if len(want) == 0 {
			return nil, errs.New(errs.KindValidation, "a recordset needs at least one record; delete it instead")
		}
	}

	dataChanged := len(added) > 0 || len(removed) > 0
	if !ttlChanged && !dataChanged {
		return rs, nil
	}

	if len(added) > 0 {
		recCount, err := s.db.CountRecords(ctx, sc.Elevated(), zone.ID)
		if err != nil {
			return nil, err
		}
		if err := s.quota.LimitCheck(ctx, sc, zone.TenantID, map[string]int{
			quota.ResourceZoneRecords: recCount + len(added),
		}); err != nil {
			return nil, err
		}
	}

	// Record-data changes version the zone; a bare TTL change is pushed
	// under the current serial.
	if dataChanged {
		if err := s.bumpZone(ctx, sc, zone); err != nil {
			return nil, err
		}
	} else if err := s.markZonePending(ctx, sc, zone); err != nil {
		return nil, err
	}

	if ttlChanged {
		if err := s.db.UpdateRecordSet(ctx, sc, rs); err != nil {
			return nil, err
		}
	}
	for _, rec := range removed {
		rec.Status = storage.StatusPending
		rec.Action = storage.ActionDelete
		rec.Serial = zone.Serial
		if err := s.db.UpdateRecord(ctx, sc, rec); err != nil {
			return nil, err
		}
		s.notify(ctx, notify.RecordDelete, rec)
	}
	for _, rec := range added {
		rec.Status = storage.StatusPending
		rec.Action = storage.ActionCreate
		rec.Serial = zone.Serial
		if err := s.db.CreateRecord(ctx, sc, rec); err != nil {
			return nil, err
		}
		s.notify(ctx, notify.RecordCreate, rec)
	}
	if !dataChanged && ttlChanged {
		// Surviving records go back through PENDING so the caller can
		// observe the TTL change converge.
		for i := range rs.Records {
			rec := &rs.Records[i]
			if rec.Action == storage.ActionDelete {
				continue
			}
			rec.Status = storage.StatusPending
			if rec.Action == storage.ActionNone {
				rec.Action = storage.ActionUpdate
			}
			if err := s.db.UpdateRecord(ctx, sc, rec); err != nil {
				return nil, err
			}
			s.notify(ctx, notify.RecordUpdate, rec)
		}
	}

	out, err := s.db.GetRecordSet(ctx, sc, zone.ID, rs.ID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notify.RecordSetUpdate, out)
	s.enqueueSync(zone.ID)
	return out, nil
}

// DeleteRecordSet marks every record of a recordset for deletion. The
// rows are purged once all backend targets converge.
func (s *Service) DeleteRecordSet(ctx context.Context, sc storage.Scope, zoneID, id string) (*storage.RecordSet, error) {
	ctx, unlock, err := s.locks.Lock(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	zone, err := s.db.GetZone(ctx, sc, zoneID)
	if err != nil {
		return nil, err
	}
	if zone.Action == storage.ActionDelete {
		return nil, errs.New(errs.KindConflict, "zone %q is being deleted", zone.Name)
	}

	rs, err := s.db.GetRecordSet(ctx, sc, zone.ID, id)
	if err != nil {
		return nil, err
	}
	if rs.Managed && !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "recordset %s/%s is system-managed", rs.Name, rs.Type)
	}

	if err := s.bumpZone(ctx, sc, zone); err != nil {
		return nil, err
	}
	for i := range rs.Records {
		rec := &rs.Records[i]
		rec.Status = storage.StatusPending
		rec.Action = storage.ActionDelete
		rec.Serial = zone.Serial
		if err := s.db.UpdateRecord(ctx, sc, rec); err != nil {
			return nil, err
		}
		s.notify(ctx, notify.RecordDelete, rec)
	}

	s.notify(ctx, notify.RecordSetDelete, rs)
	s.enqueueSync(zone.ID)
	return rs, nil
}

// checkRecordSetPlacement enforces CNAME apex/exclusivity rules, the
// duplicate (name, type) constraint and child-zone containment.
// excludeID drops the recordset being updated from collision checks.
func (s *Service) checkRecordSetPlacement(ctx context.Context, sc storage.Scope, zone *storage.Zone, name, rtype, excludeID string) error {
	if rtype == "CNAME" && strings.EqualFold(name, zone.Name) {
		return errs.New(errs.KindValidation, "a CNAME recordset cannot be placed at the zone apex")
	}

	// A name carries either one CNAME or any mix of other types.
	if rtype == "CNAME" {
		others, err := s.db.FindRecordSets(ctx, sc.Elevated(), storage.RecordSetFilter{
			ZoneID: zone.ID, Name: name, ExcludeID: excludeID,
		}, storage.ListOpts{Limit: 1})
		if err != nil {
			return err
		}
		if len(others) > 0 {
			return errs.New(errs.KindConflict, "name %q already has a %s recordset; CNAME must be exclusive", name, others[0].Type)
		}
	} else {
		cnames, err := s.db.FindRecordSets(ctx, sc.Elevated(), storage.RecordSetFilter{
			ZoneID: zone.ID, Name: name, Type: "CNAME", ExcludeID: excludeID,
		}, storage.ListOpts{Limit: 1})
		if err != nil {
			return err
		}
		if len(cnames) > 0 {
			return errs.New(errs.KindConflict, "name %q already has a CNAME recordset", name)
		}
	}

	dupes, err := s.db.FindRecordSets(ctx, sc.Elevated(), storage.RecordSetFilter{
		ZoneID: zone.ID, Name: name, Type: rtype, ExcludeID: excludeID,
	}, storage.ListOpts{Limit: 1})
	if err != nil {
		return err
	}
	if len(dupes) > 0 {
		return errs.New(errs.KindConflict, "recordset %s/%s already exists in zone %q", name, rtype, zone.Name)
	}

	// A name that a child zone would also answer for belongs in the child.
	children, err := s.db.FindZones(ctx, sc.Elevated(), storage.ZoneFilter{
		ParentZoneID: zone.ID, Type: storage.ZonePrimary,
	}, storage.ListOpts{})
	if err != nil {
		return err
	}
	for _, child := range children {
		if nameWithin(name, child.Name) {
			return errs.New(errs.KindValidation, "name %q belongs in child zone %q", name, child.Name)
		}
	}
	return nil
}

// bumpZone assigns the next serial and marks the zone pending, then
// refreshes the SOA record to match.
func (s *Service) bumpZone(ctx context.Context, sc storage.Scope, zone *storage.Zone) error {
	zone.Serial = s.serials.Next(zone.Serial)
	if err := s.markZonePending(ctx, sc, zone); err != nil {
		return err
	}
	if zone.Type == storage.ZonePrimary {
		return s.updateSOA(ctx, sc, zone)
	}
	return nil
}

func (s *Service) markZonePending(ctx context.Context, sc storage.Scope, zone *storage.Zone) error {
	zone.Status = storage.StatusPending
	if zone.Action == storage.ActionNone {
		zone.Action = storage.ActionUpdate
	}
	return s.db.UpdateZone(ctx, sc, zone)
}
