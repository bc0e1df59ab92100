package central

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/storage"
)

var labelRe = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// validateZoneName applies the zone-name rules in order, short-circuiting
// on the first failure: syntax, TLD table, blacklist.
func (s *Service) validateZoneName(ctx context.Context, sc storage.Scope, name string) error {
	if err := validateFQDN(name, s.cfg.DNS.MaxZoneNameLen); err != nil {
		return err
	}

	labels := strings.Split(strings.TrimSuffix(name, "."), ".")
	if len(labels) < 2 {
		return errs.New(errs.KindValidation, "zone name %q needs at least two labels", name)
	}

	// When a TLD table is populated the last label must be in it, and the
	// zone itself must not be a TLD.
	hasTLDs, err := s.db.HasTLDs(ctx, sc.Elevated())
	if err != nil {
		return err
	}
	if hasTLDs {
		last := strings.ToLower(labels[len(labels)-1])
		ok, err := s.db.HasTLD(ctx, sc.Elevated(), last)
		if err != nil {
			return err
		}
		if !ok {
			return errs.New(errs.KindValidation, "zone name %q does not end in a known TLD", name)
		}
		whole := strings.ToLower(strings.TrimSuffix(name, "."))
		isTLD, err := s.db.HasTLD(ctx, sc.Elevated(), whole)
		if err != nil {
			return err
		}
		if isTLD {
			return errs.New(errs.KindValidation, "%q is a TLD and cannot be created as a zone", name)
		}
	}

	return s.checkBlacklist(ctx, sc, name)
}

// checkBlacklist rejects names matching a configured pattern unless the
// caller holds the bypass privilege.
func (s *Service) checkBlacklist(ctx context.Context, sc storage.Scope, name string) error {
	if sc.Admin {
		return nil
	}
	blacklists, err := s.db.FindBlacklists(ctx, sc.Elevated())
	if err != nil {
		return err
	}
	for _, b := range blacklists {
		re, err := regexp.Compile(b.Pattern)
		if err != nil {
			s.logger.Warn("skipping unparsable blacklist pattern", "pattern", b.Pattern, "error", err)
			continue
		}
		if re.MatchString(name) {
			return errs.New(errs.KindForbidden, "zone name %q is blacklisted", name)
		}
	}
	return nil
}

// validateRecordSetName checks syntax and containment within the zone.
func (s *Service) validateRecordSetName(name, zoneName string) error {
	if err := validateFQDN(name, s.cfg.DNS.MaxRecordsetNameLen); err != nil {
		return err
	}
	if !nameWithin(name, zoneName) {
		return errs.New(errs.KindValidation, "recordset name %q is not contained in zone %q", name, zoneName)
	}
	return nil
}

// validateTTL enforces the configured minimum; elevated callers bypass.
func (s *Service) validateTTL(sc storage.Scope, ttl int) error {
	if ttl <= 0 {
		return nil // inherits default
	}
	if s.cfg.DNS.MinTTL > 0 && ttl < s.cfg.DNS.MinTTL && !sc.Admin {
		return errs.New(errs.KindValidation, "ttl %d is below the minimum of %d", ttl, s.cfg.DNS.MinTTL)
	}
	return nil
}

func validateFQDN(name string, maxLen int) error {
	if name == "" {
		return errs.New(errs.KindValidation, "name is required")
	}
	if !strings.HasSuffix(name, ".") {
		return errs.New(errs.KindValidation, "name %q must end with a dot", name)
	}
	if len(name) > maxLen {
		return errs.New(errs.KindValidation, "name %q exceeds the maximum length of %d", name, maxLen)
	}
	for _, label := range strings.Split(strings.TrimSuffix(name, "."), ".") {
		if label == "*" {
			continue // wildcard owner
		}
		if !labelRe.MatchString(label) {
			return errs.New(errs.KindValidation, "name %q contains an invalid label %q", name, label)
		}
	}
	return nil
}

// nameWithin reports whether name equals parent or is a subdomain of it.
func nameWithin(name, parent string) bool {
	name = strings.ToLower(name)
	parent = strings.ToLower(parent)
	return name == parent || strings.HasSuffix(name, "."+parent)
}

// findParentZone locates the closest existing zone that name falls under,
// searching across all tenants.
func (s *Service) findParentZone(ctx context.Context, sc storage.Scope, name string) (*storage.Zone, error) {
	labels := strings.Split(strings.TrimSuffix(name, "."), ".")
	for i := 1; i < len(labels)-1; i++ {
		candidate := strings.Join(labels[i:], ".") + "."
		zone, err := s.db.GetZoneByName(ctx, sc.Elevated(), candidate)
		if errs.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("searching for parent of %s: %w", name, err)
		}
		return zone, nil
	}
	return nil, nil
}

// findChildZones lists existing zones that fall under name, across all
// tenants.
func (s *Service) findChildZones(ctx context.Context, sc storage.Scope, name string) ([]storage.Zone, error) {
	return s.db.FindZones(ctx, sc.Elevated(), storage.ZoneFilter{NameSuffix: "." + name}, storage.ListOpts{})
}
