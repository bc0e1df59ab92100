package central

import (
	"context"
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/storage"
)

// ManagedTypeFloatingIP tags records owned by the floating-IP PTR
// manager.
const ManagedTypeFloatingIP = "ptr:floatingip"

// FloatingIP is an externally reported address a tenant holds.
type FloatingIP struct {
	ID      string
	Address string
	Region  string
}

// FloatingIPPTR is the PTR view of a floating IP.
type FloatingIPPTR struct {
	FloatingIP
	PTRDName string
	TTL      int
}

// ListFloatingIPPTRs resolves the managed PTR record for each reported
// floating IP. A record left behind by a previous holder of the address
// is deleted rather than exposed.
func (s *Service) ListFloatingIPPTRs(ctx context.Context, sc storage.Scope, fips []FloatingIP) ([]FloatingIPPTR, error) {
	out := make([]FloatingIPPTR, 0, len(fips))
	for _, fip := range fips {
		ptr := FloatingIPPTR{FloatingIP: fip}
		rec, err := s.findManagedPTR(ctx, storage.RecordFilter{
			ManagedExtra:        fip.Address,
			ManagedResourceType: ManagedTypeFloatingIP,
		})
		if err != nil {
			return nil, err
		}
		if rec != nil {
			if rec.ManagedTenantID != sc.TenantID {
				// Ownership changed upstream; the old record is stale.
				if err := s.deleteManagedPTR(ctx, rec); err != nil {
					return nil, err
				}
			} else {
				ptr.PTRDName = rec.Data
			}
		}
		out = append(out, ptr)
	}
	return out, nil
}

// SetFloatingIPPTR points the reverse name of a floating IP at ptrdname,
// creating the reverse zone if needed. An empty ptrdname unsets it.
func (s *Service) SetFloatingIPPTR(ctx context.Context, sc storage.Scope, fip FloatingIP, ptrdname string, ttl *int) (*FloatingIPPTR, error) {
	if ptrdname == "" {
		if err := s.UnsetFloatingIPPTR(ctx, sc, fip.ID); err != nil {
			return nil, err
		}
		return &FloatingIPPTR{FloatingIP: fip}, nil
	}
	if err := validateFQDN(ptrdname, s.cfg.DNS.MaxRecordsetNameLen); err != nil {
		return nil, err
	}

	recordName, zoneName, err := reverseNames(fip.Address)
	if err != nil {
		return nil, err
	}

	// A record belonging to a previous holder of the address is removed
	// before anything else.
	existing, err := s.findManagedPTR(ctx, storage.RecordFilter{
		ManagedExtra:        fip.Address,
		ManagedResourceType: ManagedTypeFloatingIP,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.deleteManagedPTR(ctx, existing); err != nil {
			return nil, err
		}
	}

	// PTR maintenance acts for the service, not the tenant's own zones.
	svc := sc
	svc.Admin = true

	zone, err := s.db.GetZoneByName(ctx, svc.Elevated(), zoneName)
	if errs.IsNotFound(err) {
		zone, err = s.CreateZone(ctx, svc, CreateZoneInput{
			Name:  zoneName,
			Email: fmt.Sprintf("hostmaster@%s", strings.TrimSuffix(zoneName, ".")),
		})
	}
	if err != nil {
		return nil, err
	}

	// Whatever already answers at the reverse name is superseded.
	old, err := s.db.FindRecordSets(ctx, svc.Elevated(), storage.RecordSetFilter{
		ZoneID: zone.ID, Name: recordName, Type: "PTR",
	}, storage.ListOpts{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(old) > 0 {
		if err := s.db.DeleteRecordSet(ctx, svc.Elevated(), old[0].ID); err != nil {
			return nil, err
		}
	}

	rs, err := s.CreateRecordSet(ctx, svc.Elevated(), zone.ID, CreateRecordSetInput{
		Name:    recordName,
		Type:    "PTR",
		TTL:     ttl,
		Records: []string{ptrdname},
	})
	if err != nil {
		return nil, err
	}

	rs.Managed = true
	if err := s.db.UpdateRecordSet(ctx, svc.Elevated(), rs); err != nil {
		return nil, err
	}
	for i := range rs.Records {
		rec := &rs.Records[i]
		rec.Managed = true
		rec.ManagedExtra = fip.Address
		rec.ManagedResourceID = fip.ID
		rec.ManagedResourceType = ManagedTypeFloatingIP
		rec.ManagedTenantID = sc.TenantID
		if err := s.db.UpdateRecord(ctx, svc.Elevated(), rec); err != nil {
			return nil, err
		}
	}

	out := &FloatingIPPTR{FloatingIP: fip, PTRDName: ptrdname, TTL: zone.TTL}
	if ttl != nil {
		out.TTL = *ttl
	}
	return out, nil
}

// UnsetFloatingIPPTR removes the caller's managed PTR for a floating IP.
func (s *Service) UnsetFloatingIPPTR(ctx context.Context, sc storage.Scope, fipID string) error {
	rec, err := s.findManagedPTR(ctx, storage.RecordFilter{
		ManagedResourceID:   fipID,
		ManagedTenantID:     sc.TenantID,
		ManagedResourceType: ManagedTypeFloatingIP,
	})
	if err != nil {
		return err
	}
	if rec == nil {
		return errs.NotFound("floating ip ptr", fipID)
	}
	return s.deleteManagedPTR(ctx, rec)
}

func (s *Service) findManagedPTR(ctx context.Context, f storage.RecordFilter) (*storage.Record, error) {
	records, err := s.db.FindRecords(ctx, storage.Scope{AllTenants: true}, f, storage.ListOpts{})
	if err != nil {
		return nil, err
	}
	for i := range records {
		// A record already marked for deletion is as good as gone.
		if records[i].Action != storage.ActionDelete {
			return &records[i], nil
		}
	}
	return nil, nil
}

// deleteManagedPTR removes a managed record through the regular recordset
// deletion path so the change propagates like any other mutation.
func (s *Service) deleteManagedPTR(ctx context.Context, rec *storage.Record) error {
	svc := storage.Scope{AllTenants: true, Admin: true}
	_, err := s.DeleteRecordSet(ctx, svc, rec.ZoneID, rec.RecordSetID)
	if errs.IsNotFound(err) {
		return nil
	}
	return err
}

// reverseNames derives the PTR owner name and its enclosing reverse zone
// for an address. IPv4 zones cover a /24, IPv6 zones a /64.
func reverseNames(address string) (recordName, zoneName string, err error) {
	recordName, err = dns.ReverseAddr(address)
	if err != nil {
		return "", "", errs.New(errs.KindValidation, "invalid address %q", address)
	}
	labels := strings.Split(recordName, ".")
	if strings.HasSuffix(recordName, ".in-addr.arpa.") {
		zoneName = strings.Join(labels[1:], ".")
	} else {
		// 32 nibbles plus ip6.arpa; a /64 zone keeps the last 16.
		zoneName = strings.Join(labels[16:], ".")
	}
	return recordName, zoneName, nil
}
