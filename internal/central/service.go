// Package central implements the zone consistency core: validation and
// state transitions for zones, recordsets and records, SOA/NS maintenance,
// per-zone mutation ordering and quota enforcement.
//
// Every mutation follows the same shape: acquire the zone lock, validate
// against current storage state, apply to storage, emit a notification,
// release the lock, then hand the zone to the synchronizer. Validation
// errors abort before any write; backend failures after the write become
// status, never a caller-visible error.
package central

import (
	"context"
	"log/slog"

	"github.com/openstack/designate-sub004/internal/config"
	"github.com/openstack/designate-sub004/internal/lock"
	"github.com/openstack/designate-sub004/internal/notify"
	"github.com/openstack/designate-sub004/internal/quota"
	"github.com/openstack/designate-sub004/internal/serial"
	"github.com/openstack/designate-sub004/internal/storage"
)

// Syncer receives zones whose changes need backend propagation. The
// synchronizer implements it; tests substitute a recorder.
type Syncer interface {
	EnqueueZone(zoneID string)
}

// Service is the control-plane core.
type Service struct {
	cfg      *config.Config
	db       *storage.DB
	locks    lock.Manager
	serials  *serial.Generator
	quota    *quota.Enforcer
	notifier notify.Notifier
	syncer   Syncer
	logger   *slog.Logger
}

func NewService(cfg *config.Config, db *storage.DB, locks lock.Manager,
	quota *quota.Enforcer, notifier notify.Notifier, syncer Syncer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		db:       db,
		locks:    locks,
		serials:  &serial.Generator{},
		quota:    quota,
		notifier: notifier,
		syncer:   syncer,
		logger:   logger,
	}
}

// SetSerialClock overrides the serial generator's clock, for tests.
func (s *Service) SetSerialClock(g *serial.Generator) {
	s.serials = g
}

// Storage exposes the underlying store to sibling components (the
// synchronizer and the REST layer's read paths).
func (s *Service) Storage() *storage.DB {
	return s.db
}

func (s *Service) notify(ctx context.Context, eventType string, payload any) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, eventType, payload)
	}
}

func (s *Service) enqueueSync(zoneID string) {
	if s.syncer != nil {
		s.syncer.EnqueueZone(zoneID)
	}
}
