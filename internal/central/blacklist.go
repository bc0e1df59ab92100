package central

import (
	"context"
	"regexp"

	"github.com/google/uuid"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/notify"
	"github.com/openstack/designate-sub004/internal/storage"
)

// CreateBlacklist registers a forbidden zone-name pattern. Admin-only.
func (s *Service) CreateBlacklist(ctx context.Context, sc storage.Scope, b *storage.Blacklist) (*storage.Blacklist, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "blacklist management requires an elevated privilege")
	}
	if _, err := regexp.Compile(b.Pattern); err != nil {
		return nil, errs.New(errs.KindValidation, "invalid blacklist pattern %q: %v", b.Pattern, err)
	}
	b.ID = uuid.NewString()
	if err := s.db.CreateBlacklist(ctx, sc, b); err != nil {
		return nil, err
	}
	s.notify(ctx, notify.BlacklistCreate, b)
	return b, nil
}

func (s *Service) GetBlacklist(ctx context.Context, sc storage.Scope, id string) (*storage.Blacklist, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "blacklist management requires an elevated privilege")
	}
	return s.db.GetBlacklist(ctx, sc, id)
}

func (s *Service) FindBlacklists(ctx context.Context, sc storage.Scope) ([]storage.Blacklist, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "blacklist management requires an elevated privilege")
	}
	return s.db.FindBlacklists(ctx, sc)
}

// UpdateBlacklist replaces a pattern. Admin-only.
func (s *Service) UpdateBlacklist(ctx context.Context, sc storage.Scope, b *storage.Blacklist) (*storage.Blacklist, error) {
	if !sc.Admin {
		return nil, errs.New(errs.KindForbidden, "blacklist management requires an elevated privilege")
	}
	if _, err := regexp.Compile(b.Pattern); err != nil {
		return nil, errs.New(errs.KindValidation, "invalid blacklist pattern %q: %v", b.Pattern, err)
	}
	if _, err := s.db.GetBlacklist(ctx, sc, b.ID); err != nil {
		return nil, err
	}
	if err := s.db.UpdateBlacklist(ctx, sc, b); err != nil {
		return nil, err
	}
	s.notify(ctx, notify.BlacklistUpdate, b)
	return b, nil
}

// DeleteBlacklist removes a pattern. Admin-only.
func (s *Service) DeleteBlacklist(ctx context.Context, sc storage.Scope, id string) error {
	if !sc.Admin {
		return errs.New(errs.KindForbidden, "blacklist management requires an elevated privilege")
	}
	b, err := s.db.GetBlacklist(ctx, sc, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteBlacklist(ctx, sc, id); err != nil {
		return err
	}
	s.notify(ctx, notify.BlacklistDelete, b)
	return nil
}
