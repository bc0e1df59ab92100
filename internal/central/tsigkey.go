package central

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/notify"
	"github.com/openstack/designate-sub004/internal/storage"
)

// Algorithms accepted for TSIG keys.
var tsigAlgorithms = map[string]bool{
	"hmac-md5":    true,
	"hmac-sha1":   true,
	"hmac-sha224": true,
	"hmac-sha256": true,
	"hmac-sha384": true,
	"hmac-sha512": true,
}

func validateTsigKey(k *storage.TsigKey) error {
	if k.Name == "" {
		return errs.New(errs.KindValidation, "tsig key name is required")
	}
	if !tsigAlgorithms[strings.ToLower(k.Algorithm)] {
		return errs.New(errs.KindValidation, "unknown tsig algorithm %q", k.Algorithm)
	}
	if k.Secret == "" {
		return errs.New(errs.KindValidation, "tsig key secret is required")
	}
	switch k.Scope {
	case "ZONE", "POOL":
	default:
		return errs.New(errs.KindValidation, "tsig key scope must be ZONE or POOL, got %q", k.Scope)
	}
	if k.ResourceID == "" {
		return errs.New(errs.KindValidation, "tsig key resource_id is required")
	}
	return nil
}

// CreateTsigKey registers a transfer-signing key. Admin-only.
func (s *Service) CreateTsigKey(ctx context.Context, sc storage.Scope, k *storage.TsigKey) (*storage.TsigKey, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "tsig key management requires an elevated privilege")
	}
	if err := validateTsigKey(k); err != nil {
		return nil, err
	}
	k.ID = uuid.NewString()
	k.Algorithm = strings.ToLower(k.Algorithm)
	if err := s.db.CreateTsigKey(ctx, sc, k); err != nil {
		return nil, err
	}
	s.notify(ctx, notify.TsigKeyCreate, k)
	return k, nil
}

func (s *Service) GetTsigKey(ctx context.Context, sc storage.Scope, id string) (*storage.TsigKey, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "tsig key management requires an elevated privilege")
	}
	return s.db.GetTsigKey(ctx, sc, id)
}

func (s *Service) FindTsigKeys(ctx context.Context, sc storage.Scope) ([]storage.TsigKey, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "tsig key management requires an elevated privilege")
	}
	return s.db.FindTsigKeys(ctx, sc)
}

// UpdateTsigKey replaces a key's attributes. Admin-only.
func (s *Service) UpdateTsigKey(ctx context.Context, sc storage.Scope, k *storage.TsigKey) (*storage.TsigKey, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "tsig key management requires an elevated privilege")
	}
	if err := validateTsigKey(k); err != nil {
		return nil, err
	}
	if _, err := s.db.GetTsigKey(ctx, sc, k.ID); err != nil {
		return nil, err
	}
	k.Algorithm = strings.ToLower(k.Algorithm)
	if err := s.db.UpdateTsigKey(ctx, sc, k); err != nil {
		return nil, err
	}
	s.notify(ctx, notify.TsigKeyUpdate, k)
	return k, nil
}

// DeleteTsigKey removes a key. Admin-only.
func (s *Service) DeleteTsigKey(ctx context.Context, sc storage.Scope, id string) error {
	if !sc.Admin {
		return errs.New(errs.KindForbidden, "tsig key management requires an elevated privilege")
	}
	k, err := s.db.GetTsigKey(ctx, sc, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteTsigKey(ctx, sc, id); err != nil {
		return err
	}
	s.notify(ctx, notify.TsigKeyDelete, k)
	return nil
}
