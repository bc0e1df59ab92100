package central

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/storage"
)

// soaData renders the single SOA record value for a zone. The primary
// nameserver is the pool's highest-priority NS hostname.
func (s *Service) soaData(zone *storage.Zone, primaryNS string) string {
	return fmt.Sprintf("%s %s %d %d %d %d %d",
		primaryNS,
		emailToRNAME(zone.Email),
		zone.Serial,
		s.cfg.DNS.SOARefresh,
		s.cfg.DNS.SOARetry,
		s.cfg.DNS.SOAExpire,
		s.cfg.DNS.SOAMinimum,
	)
}

// emailToRNAME converts a mailbox to SOA RNAME form: the @ becomes a dot
// and a trailing dot is appended.
func emailToRNAME(email string) string {
	rname := strings.Replace(email, "@", ".", 1)
	if !strings.HasSuffix(rname, ".") {
		rname += "."
	}
	return rname
}

// primaryNS picks the pool's advertised primary nameserver, lowest
// priority value first.
func primaryNS(pool *storage.Pool) (string, error) {
	if len(pool.NsRecords) == 0 {
		return "", errs.New(errs.KindProgramming, "pool %q has no ns_records", pool.ID)
	}
	best := pool.NsRecords[0]
	for _, ns := range pool.NsRecords[1:] {
		if ns.Priority < best.Priority {
			best = ns
		}
	}
	return best.Hostname, nil
}

// createSOA writes the managed SOA recordset for a freshly created zone.
func (s *Service) createSOA(ctx context.Context, sc storage.Scope, zone *storage.Zone, pool *storage.Pool) error {
	ns, err := primaryNS(pool)
	if err != nil {
		return err
	}
	rs := &storage.RecordSet{
		ID:      uuid.NewString(),
		ZoneID:  zone.ID,
		Name:    zone.Name,
		Type:    "SOA",
		Managed: true,
		Records: []storage.Record{{
			ID:     uuid.NewString(),
			ZoneID: zone.ID,
			Data:    s.soaData(zone, ns),
			Status:  storage.StatusPending,
			Action:  storage.ActionCreate,
			Serial:  zone.Serial,
			Managed: true,
		}},
	}
	if err := s.db.CreateRecordSet(ctx, sc.Elevated(), rs); err != nil {
		return fmt.Errorf("creating SOA for zone %s: %w", zone.Name, err)
	}
	return nil
}

// updateSOA rewrites the SOA record to carry the zone's current serial
// and email. Called after every serial bump.
func (s *Service) updateSOA(ctx context.Context, sc storage.Scope, zone *storage.Zone) error {
	pool, err := s.db.GetPool(ctx, sc.Elevated(), zone.PoolID)
	if err != nil {
		return err
	}
	ns, err := primaryNS(pool)
	if err != nil {
		return err
	}

	sets, err := s.db.FindRecordSets(ctx, sc.Elevated(), storage.RecordSetFilter{
		ZoneID: zone.ID, Name: zone.Name, Type: "SOA",
	}, storage.ListOpts{Limit: 1})
	if err != nil {
		return err
	}
	if len(sets) == 0 || len(sets[0].Records) == 0 {
		return errs.New(errs.KindProgramming, "zone %q has no SOA recordset", zone.Name)
	}

	rec := sets[0].Records[0]
	rec.Data = s.soaData(zone, ns)
	rec.Status = storage.StatusPending
	if rec.Action == storage.ActionNone {
		rec.Action = storage.ActionUpdate
	}
	rec.Serial = zone.Serial
	if err := s.db.UpdateRecord(ctx, sc.Elevated(), &rec); err != nil {
		return fmt.Errorf("updating SOA for zone %s: %w", zone.Name, err)
	}
	return nil
}
