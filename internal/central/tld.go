package central

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/quota"
	"github.com/openstack/designate-sub004/internal/storage"
)

// CreateTLD registers an allowed top-level domain. Admin-only.
func (s *Service) CreateTLD(ctx context.Context, sc storage.Scope, name string) (*storage.TLD, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "tld management requires an elevated privilege")
	}
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	if name == "" {
		return nil, errs.New(errs.KindValidation, "tld name is required")
	}
	for _, label := range strings.Split(name, ".") {
		if !labelRe.MatchString(label) {
			return nil, errs.New(errs.KindValidation, "tld %q contains an invalid label %q", name, label)
		}
	}
	t := &storage.TLD{ID: uuid.NewString(), Name: name}
	if err := s.db.CreateTLD(ctx, sc, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) FindTLDs(ctx context.Context, sc storage.Scope) ([]storage.TLD, error) {
	return s.db.FindTLDs(ctx, sc)
}

// DeleteTLD removes a TLD. Admin-only.
func (s *Service) DeleteTLD(ctx context.Context, sc storage.Scope, id string) error {
	if !sc.Admin {
		return errs.New(errs.KindForbidden, "tld management requires an elevated privilege")
	}
	return s.db.DeleteTLD(ctx, sc, id)
}

// --- Quotas ---

// GetQuotas returns a tenant's effective limits. Tenants can read their
// own; reading another tenant's requires elevation.
func (s *Service) GetQuotas(ctx context.Context, sc storage.Scope, tenantID string) (map[string]int, error) {
	if tenantID != sc.TenantID && !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "cannot read quotas of another tenant")
	}
	return s.quota.Limits(ctx, sc.Elevated(), tenantID)
}

// SetQuota writes a per-tenant override. Admin-only.
func (s *Service) SetQuota(ctx context.Context, sc storage.Scope, tenantID, resource string, limit int) error {
	if !sc.Admin {
		return errs.New(errs.KindForbidden, "quota management requires an elevated privilege")
	}
	switch resource {
	case quota.ResourceZones, quota.ResourceZoneRecordsets, quota.ResourceZoneRecords:
	default:
		return errs.New(errs.KindValidation, "unknown quota resource %q", resource)
	}
	if limit < 0 {
		return errs.New(errs.KindValidation, "quota limit must be non-negative")
	}
	return s.db.SetQuota(ctx, sc, tenantID, resource, limit)
}

// ResetQuotas drops a tenant's overrides. Admin-only.
func (s *Service) ResetQuotas(ctx context.Context, sc storage.Scope, tenantID string) error {
	if !sc.Admin {
		return errs.New(errs.KindForbidden, "quota management requires an elevated privilege")
	}
	return s.db.ResetQuotas(ctx, sc, tenantID)
}
