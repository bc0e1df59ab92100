package central

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/storage"
)

// createNS writes the managed apex NS recordset from the pool's
// advertised nameservers.
func (s *Service) createNS(ctx context.Context, sc storage.Scope, zone *storage.Zone, pool *storage.Pool) error {
	if len(pool.NsRecords) == 0 {
		return errs.New(errs.KindProgramming, "pool %q has no ns_records", pool.ID)
	}
	rs := &storage.RecordSet{
		ID:      uuid.NewString(),
		ZoneID:  zone.ID,
		Name:    zone.Name,
		Type:    "NS",
		Managed: true,
	}
	for _, ns := range pool.NsRecords {
		rs.Records = append(rs.Records, storage.Record{
			ID:      uuid.NewString(),
			ZoneID:  zone.ID,
			Data:    ns.Hostname,
			Status:  storage.StatusPending,
			Action:  storage.ActionCreate,
			Serial:  zone.Serial,
			Managed: true,
		})
	}
	if err := s.db.CreateRecordSet(ctx, sc.Elevated(), rs); err != nil {
		return fmt.Errorf("creating NS for zone %s: %w", zone.Name, err)
	}
	return nil
}

// reconcileNS diffs the zone's managed apex NS recordset against the
// pool's ns_records, keyed by hostname. Records are added for new
// nameservers and marked for deletion for removed ones.
func (s *Service) reconcileNS(ctx context.Context, sc storage.Scope, zone *storage.Zone, pool *storage.Pool) error {
	sets, err := s.db.FindRecordSets(ctx, sc.Elevated(), storage.RecordSetFilter{
		ZoneID: zone.ID, Name: zone.Name, Type: "NS",
	}, storage.ListOpts{Limit: 1})
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return s.createNS(ctx, sc, zone, pool)
	}
	rs := &sets[0]

	want := map[string]bool{}
	for _, ns := range pool.NsRecords {
		want[ns.Hostname] = true
	}

	have := map[string]bool{}
	for i := range rs.Records {
		rec := &rs.Records[i]
		have[rec.Data] = true
		if want[rec.Data] || rec.Action == storage.ActionDelete {
			continue
		}
		rec.Status = storage.StatusPending
		rec.Action = storage.ActionDelete
		rec.Serial = zone.Serial
		if err := s.db.UpdateRecord(ctx, sc.Elevated(), rec); err != nil {
			return fmt.Errorf("retiring NS %s in zone %s: %w", rec.Data, zone.Name, err)
		}
	}

	for _, ns := range pool.NsRecords {
		if have[ns.Hostname] {
			continue
		}
		rec := &storage.Record{
			ID:          uuid.NewString(),
			RecordSetID: rs.ID,
			ZoneID:      zone.ID,
			Data:        ns.Hostname,
			Status:      storage.StatusPending,
			Action:      storage.ActionCreate,
			Serial:      zone.Serial,
			Managed:     true,
		}
		if err := s.db.CreateRecord(ctx, sc.Elevated(), rec); err != nil {
			return fmt.Errorf("adding NS %s to zone %s: %w", ns.Hostname, zone.Name, err)
		}
	}
	return nil
}
