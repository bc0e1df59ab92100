// Package worker propagates committed zone state to the backend
// nameservers of the zone's pool.
//
// Zones are pushed whole, never as diffs; backends are expected to
// converge idempotently. Outcomes land in per-(target, zone) status rows
// and the worker reconciles the zone's aggregate status from them. A
// backend failure never unwinds the committed mutation that caused the
// push.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/openstack/designate-sub004/internal/backend"
	"github.com/openstack/designate-sub004/internal/config"
	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/lock"
	"github.com/openstack/designate-sub004/internal/storage"
)

const (
	queueDepth      = 1024
	redriveInterval = time.Minute
)

// Synchronizer drains a queue of zone ids and syncs each zone to every
// target of its pool.
type Synchronizer struct {
	cfg     *config.Config
	db      *storage.DB
	locks   lock.Manager
	logger  *slog.Logger
	queue   chan string
	timeout time.Duration

	mu       sync.Mutex
	backends map[string]backend.Backend
}

func NewSynchronizer(cfg *config.Config, db *storage.DB, locks lock.Manager, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	timeout, err := cfg.BackendTimeout()
	if err != nil {
		timeout = 10 * time.Second
	}
	return &Synchronizer{
		cfg:      cfg,
		db:       db,
		locks:    locks,
		logger:   logger,
		queue:    make(chan string, queueDepth),
		timeout:  timeout,
		backends: map[string]backend.Backend{},
	}
}

// EnqueueZone schedules a zone for backend propagation. Never blocks; a
// full queue drops the id and relies on the periodic re-drive.
func (w *Synchronizer) EnqueueZone(zoneID string) {
	select {
	case w.queue <- zoneID:
	default:
		w.logger.Warn("sync queue full, dropping zone", "zone_id", zoneID)
	}
}

// Run starts the worker threads and blocks until ctx is cancelled. Zones
// left PENDING or ERROR by a previous run are re-driven on start and on
// a timer.
func (w *Synchronizer) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Worker.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case zoneID := <-w.queue:
					if err := w.SyncZone(ctx, zoneID); err != nil {
						w.logger.Error("zone sync failed", "zone_id", zoneID, "error", err)
					}
				}
			}
		}()
	}

	w.redrivePending(ctx)
	ticker := time.NewTicker(redriveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-ticker.C:
			w.redrivePending(ctx)
		}
	}
}

// redrivePending enqueues every zone with outstanding backend work.
func (w *Synchronizer) redrivePending(ctx context.Context) {
	sc := storage.Scope{AllTenants: true}
	for _, status := range []storage.Status{storage.StatusPending, storage.StatusError} {
		zones, err := w.db.FindZones(ctx, sc, storage.ZoneFilter{Status: status}, storage.ListOpts{})
		if err != nil {
			w.logger.Error("listing zones for re-drive failed", "status", status, "error", err)
			continue
		}
		for _, z := range zones {
			w.EnqueueZone(z.ID)
		}
	}
}

// SyncZone pushes one zone's full current content to every target of its
// pool and reconciles the zone's status from the outcomes. Holds the
// zone lock for the duration so pushes for one zone never interleave.
func (w *Synchronizer) SyncZone(ctx context.Context, zoneID string) error {
	ctx, unlock, err := w.locks.Lock(ctx, zoneID)
	if err != nil {
		return err
	}
	defer unlock()

	sc := storage.Scope{AllTenants: true}
	zone, err := w.db.GetZone(ctx, sc, zoneID)
	if errs.IsNotFound(err) {
		return nil // already purged
	}
	if err != nil {
		return err
	}
	if zone.Action == storage.ActionNone && zone.Status == storage.StatusActive {
		return nil
	}

	pool, err := w.db.GetPool(ctx, sc, zone.PoolID)
	if err != nil {
		return err
	}

	if zone.Action == storage.ActionDelete {
		return w.deleteZone(ctx, sc, zone, pool)
	}
	return w.pushZone(ctx, sc, zone, pool)
}

func (w *Synchronizer) pushZone(ctx context.Context, sc storage.Scope, zone *storage.Zone, pool *storage.Pool) error {
	snap, err := w.snapshot(ctx, sc, zone)
	if err != nil {
		return err
	}

	for _, target := range pool.Targets {
		err := w.callBackend(ctx, target, func(ctx context.Context, b backend.Backend) error {
			if zone.Action == storage.ActionCreate {
				return b.CreateZone(ctx, snap)
			}
			return b.UpdateZone(ctx, snap)
		})
		w.recordStatus(ctx, sc, target.ID, zone, err)
	}
	return w.reconcile(ctx, sc, zone)
}

func (w *Synchronizer) deleteZone(ctx context.Context, sc storage.Scope, zone *storage.Zone, pool *storage.Pool) error {
	failed := false
	for _, target := range pool.Targets {
		err := w.callBackend(ctx, target, func(ctx context.Context, b backend.Backend) error {
			return b.DeleteZone(ctx, zone.Name)
		})
		w.recordStatus(ctx, sc, target.ID, zone, err)
		if err != nil {
			failed = true
		}
	}

	if failed {
		zone.Status = storage.StatusError
		if err := w.db.UpdateZone(ctx, sc, zone); err != nil {
			return err
		}
		return nil
	}

	// Every target acknowledged; the row can go.
	if err := w.db.DeleteTargetStatuses(ctx, sc, zone.ID); err != nil {
		return err
	}
	return w.db.DeleteZone(ctx, sc, zone.ID)
}

// callBackend resolves the driver for a target and runs one bounded call
// against it, normalizing any failure into a backend-kind error.
func (w *Synchronizer) callBackend(ctx context.Context, target storage.PoolTarget, fn func(context.Context, backend.Backend) error) error {
	b, err := w.backendFor(target)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := fn(ctx, b); err != nil {
		if errs.IsBackend(err) {
			return err
		}
		return errs.Wrap(errs.KindBackend, err, "backend %s (%s) failed", target.ID, target.Type)
	}
	return nil
}

func (w *Synchronizer) backendFor(target storage.PoolTarget) (backend.Backend, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.backends[target.ID]; ok {
		return b, nil
	}
	b, err := backend.New(target, w.logger)
	if err != nil {
		return nil, err
	}
	w.backends[target.ID] = b
	return b, nil
}

func (w *Synchronizer) recordStatus(ctx context.Context, sc storage.Scope, targetID string, zone *storage.Zone, callErr error) {
	status := &storage.PoolTargetStatus{
		TargetID:     targetID,
		ZoneID:       zone.ID,
		Action:       zone.Action,
		Status:       storage.StatusSuccess,
		SerialNumber: zone.Serial,
	}
	if callErr != nil {
		status.Status = storage.StatusError
		status.Error = callErr.Error()
	}
	if err := w.db.UpsertTargetStatus(ctx, sc, status); err != nil {
		w.logger.Error("recording target status failed", "zone_id", zone.ID, "target_id", targetID, "error", err)
	}
}

// snapshot renders the zone's current content for a backend push,
// excluding records marked for deletion.
func (w *Synchronizer) snapshot(ctx context.Context, sc storage.Scope, zone *storage.Zone) (*backend.ZoneSnapshot, error) {
	sets, err := w.db.FindRecordSets(ctx, sc, storage.RecordSetFilter{ZoneID: zone.ID}, storage.ListOpts{})
	if err != nil {
		return nil, err
	}

	snap := &backend.ZoneSnapshot{
		Name:    zone.Name,
		Kind:    zone.Type,
		Serial:  zone.Serial,
		TTL:     zone.TTL,
		Masters: zone.Masters,
	}
	for _, rs := range sets {
		rrset := backend.RRSet{Name: rs.Name, Type: rs.Type, TTL: zone.TTL}
		if rs.TTL != nil {
			rrset.TTL = *rs.TTL
		}
		for _, rec := range rs.Records {
			if rec.Action == storage.ActionDelete {
				continue
			}
			rrset.Records = append(rrset.Records, rec.Data)
		}
		if len(rrset.Records) > 0 {
			snap.RRSets = append(snap.RRSets, rrset)
		}
	}
	return snap, nil
}

// reconcile folds the per-target outcomes into the zone's aggregate
// status. All targets SUCCESS at the current serial makes the zone
// ACTIVE and purges records whose deletion has now converged; a status
// row carrying an older serial marks the push stale and re-drives it.
func (w *Synchronizer) reconcile(ctx context.Context, sc storage.Scope, zone *storage.Zone) error {
	statuses, err := w.db.FindTargetStatuses(ctx, sc, zone.ID)
	if err != nil {
		return err
	}

	anyError := false
	stale := false
	successes := 0
	for _, st := range statuses {
		switch {
		case st.Status == storage.StatusError:
			anyError = true
		case st.SerialNumber < zone.Serial:
			stale = true
		case st.Status == storage.StatusSuccess:
			successes++
		}
	}

	pool, err := w.db.GetPool(ctx, sc, zone.PoolID)
	if err != nil {
		return err
	}

	switch {
	case anyError:
		zone.Status = storage.StatusError
	case stale || successes < len(pool.Targets):
		zone.Status = storage.StatusPending
		defer w.EnqueueZone(zone.ID)
	default:
		zone.Status = storage.StatusActive
		zone.Action = storage.ActionNone
		if err := w.settleRecords(ctx, sc, zone); err != nil {
			return err
		}
	}
	return w.db.UpdateZone(ctx, sc, zone)
}

// settleRecords finalizes record state once a serial has fully
// propagated: deleted records are purged (empty recordsets with them)
// and everything else becomes ACTIVE.
func (w *Synchronizer) settleRecords(ctx context.Context, sc storage.Scope, zone *storage.Zone) error {
	sets, err := w.db.FindRecordSets(ctx, sc, storage.RecordSetFilter{ZoneID: zone.ID}, storage.ListOpts{})
	if err != nil {
		return err
	}
	for i := range sets {
		rs := &sets[i]
		live := 0
		for j := range rs.Records {
			rec := &rs.Records[j]
			if rec.Action == storage.ActionDelete && rec.Serial <= zone.Serial {
				if err := w.db.DeleteRecord(ctx, sc, rec.ID); err != nil && !errs.IsNotFound(err) {
					return err
				}
				continue
			}
			live++
			if rec.Status == storage.StatusActive && rec.Action == storage.ActionNone {
				continue
			}
			rec.Status = storage.StatusActive
			rec.Action = storage.ActionNone
			if err := w.db.UpdateRecord(ctx, sc, rec); err != nil {
				return err
			}
		}
		if live == 0 {
			if err := w.db.DeleteRecordSet(ctx, sc, rs.ID); err != nil && !errs.IsNotFound(err) {
				return err
			}
		}
	}
	return nil
}
