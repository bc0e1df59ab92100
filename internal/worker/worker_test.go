package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstack/designate-sub004/internal/backend"
	"github.com/openstack/designate-sub004/internal/config"
	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/lock"
	"github.com/openstack/designate-sub004/internal/storage"
)

type wenv struct {
	w      *Synchronizer
	db     *storage.DB
	pool   *storage.Pool
	fake   *backend.Fake
	scope  storage.Scope
	zoneID string
}

func newWorkerEnv(t *testing.T) *wenv {
	t.Helper()

	cfg := &config.Config{}
	require.NoError(t, cfg.Validate())

	db, err := storage.Open(filepath.Join(t.TempDir(), "worker.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	targetID := uuid.NewString()
	pool := &storage.Pool{
		ID:        uuid.NewString(),
		Name:      "default",
		NsRecords: []storage.PoolNsRecord{{Hostname: "ns1.example.org.", Priority: 1}},
		Targets:   []storage.PoolTarget{{ID: targetID, Type: "fake"}},
	}
	require.NoError(t, db.CreatePool(context.Background(), storage.Scope{Admin: true}, pool))

	e := &wenv{
		w:     NewSynchronizer(cfg, db, lock.NewLocalManager(), nil),
		db:    db,
		pool:  pool,
		fake:  backend.FakeForTarget(targetID),
		scope: storage.Scope{AllTenants: true},
	}
	e.zoneID = e.seedZone(t)
	return e
}

// seedZone inserts a PENDING/CREATE zone with an SOA, an NS and one A
// recordset, the state the core leaves behind after a zone create.
func (e *wenv) seedZone(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	zone := &storage.Zone{
		ID:       uuid.NewString(),
		TenantID: "t1",
		Name:     "example.com.",
		Email:    "admin@example.com",
		TTL:      3600,
		Serial:   1700000000,
		Type:     storage.ZonePrimary,
		Status:   storage.StatusPending,
		Action:   storage.ActionCreate,
		PoolID:   e.pool.ID,
	}
	require.NoError(t, e.db.CreateZone(ctx, e.scope, zone))

	sets := []*storage.RecordSet{
		{Name: "example.com.", Type: "SOA", Managed: true, Records: []storage.Record{
			{Data: "ns1.example.org. admin.example.com. 1700000000 3600 600 86400 3600"},
		}},
		{Name: "example.com.", Type: "NS", Managed: true, Records: []storage.Record{
			{Data: "ns1.example.org."},
		}},
		{Name: "www.example.com.", Type: "A", Records: []storage.Record{
			{Data: "192.0.2.1"},
		}},
	}
	for _, rs := range sets {
		rs.ID = uuid.NewString()
		rs.ZoneID = zone.ID
		for i := range rs.Records {
			rec := &rs.Records[i]
			rec.ID = uuid.NewString()
			rec.Status = storage.StatusPending
			rec.Action = storage.ActionCreate
			rec.Serial = zone.Serial
			rec.Managed = rs.Managed
		}
		require.NoError(t, e.db.CreateRecordSet(ctx, e.scope, rs))
	}
	return zone.ID
}

func (e *wenv) zone(t *testing.T) *storage.Zone {
	t.Helper()
	zone, err := e.db.GetZone(context.Background(), e.scope, e.zoneID)
	require.NoError(t, err)
	return zone
}

func TestSyncZoneCreate(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()

	require.NoError(t, e.w.SyncZone(ctx, e.zoneID))

	zone := e.zone(t)
	assert.Equal(t, storage.StatusActive, zone.Status)
	assert.Equal(t, storage.ActionNone, zone.Action)

	pushed := e.fake.Zone("example.com.")
	require.NotNil(t, pushed)
	assert.Equal(t, uint32(1700000000), pushed.Serial)
	assert.Len(t, pushed.RRSets, 3)

	statuses, err := e.db.FindTargetStatuses(ctx, e.scope, e.zoneID)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, storage.StatusSuccess, statuses[0].Status)
	assert.Equal(t, zone.Serial, statuses[0].SerialNumber)

	// Records settled along with the zone.
	sets, err := e.db.FindRecordSets(ctx, e.scope, storage.RecordSetFilter{ZoneID: e.zoneID}, storage.ListOpts{})
	require.NoError(t, err)
	for _, rs := range sets {
		for _, rec := range rs.Records {
			assert.Equal(t, storage.StatusActive, rec.Status)
			assert.Equal(t, storage.ActionNone, rec.Action)
		}
	}
}

func TestSyncZoneBackendFailure(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()

	e.fake.SetErr(errors.New("connection refused"))
	require.NoError(t, e.w.SyncZone(ctx, e.zoneID))

	zone := e.zone(t)
	assert.Equal(t, storage.StatusError, zone.Status)
	assert.Equal(t, storage.ActionCreate, zone.Action, "the outstanding action survives a failed push")

	statuses, err := e.db.FindTargetStatuses(ctx, e.scope, e.zoneID)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, storage.StatusError, statuses[0].Status)
	assert.Contains(t, statuses[0].Error, "connection refused")

	// The next push converges.
	e.fake.SetErr(nil)
	require.NoError(t, e.w.SyncZone(ctx, e.zoneID))
	assert.Equal(t, storage.StatusActive, e.zone(t).Status)
}

func TestSyncZoneDelete(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()

	require.NoError(t, e.w.SyncZone(ctx, e.zoneID))
	require.NotNil(t, e.fake.Zone("example.com."))

	zone := e.zone(t)
	zone.Status = storage.StatusPending
	zone.Action = storage.ActionDelete
	require.NoError(t, e.db.UpdateZone(ctx, e.scope, zone))

	require.NoError(t, e.w.SyncZone(ctx, e.zoneID))

	assert.Nil(t, e.fake.Zone("example.com."))
	_, err := e.db.GetZone(ctx, e.scope, e.zoneID)
	assert.True(t, errs.IsNotFound(err), "zone row should be purged, got %v", err)

	statuses, err := e.db.FindTargetStatuses(ctx, e.scope, e.zoneID)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestSyncZoneDeleteFailureKeepsRow(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()

	require.NoError(t, e.w.SyncZone(ctx, e.zoneID))

	zone := e.zone(t)
	zone.Status = storage.StatusPending
	zone.Action = storage.ActionDelete
	require.NoError(t, e.db.UpdateZone(ctx, e.scope, zone))

	e.fake.SetErr(errors.New("backend down"))
	require.NoError(t, e.w.SyncZone(ctx, e.zoneID))

	kept := e.zone(t)
	assert.Equal(t, storage.StatusError, kept.Status)
	assert.Equal(t, storage.ActionDelete, kept.Action)
}

func TestSyncZoneExcludesDeletedRecords(t *testing.T) {
	e := newWorkerEnv(t)
	ctx := context.Background()

	require.NoError(t, e.w.SyncZone(ctx, e.zoneID))

	// Mark the A record for deletion at a bumped serial.
	zone := e.zone(t)
	zone.Serial++
	zone.Status = storage.StatusPending
	zone.Action = storage.ActionUpdate
	require.NoError(t, e.db.UpdateZone(ctx, e.scope, zone))

	sets, err := e.db.FindRecordSets(ctx, e.scope, storage.RecordSetFilter{ZoneID: e.zoneID, Type: "A"}, storage.ListOpts{})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	rec := sets[0].Records[0]
	rec.Status = storage.StatusPending
	rec.Action = storage.ActionDelete
	rec.Serial = zone.Serial
	require.NoError(t, e.db.UpdateRecord(ctx, e.scope, &rec))

	require.NoError(t, e.w.SyncZone(ctx, e.zoneID))

	pushed := e.fake.Zone("example.com.")
	require.NotNil(t, pushed)
	for _, rrset := range pushed.RRSets {
		assert.NotEqual(t, "A", rrset.Type, "deleted record must not be pushed")
	}

	// Converged deletion purges the recordset.
	sets, err = e.db.FindRecordSets(ctx, e.scope, storage.RecordSetFilter{ZoneID: e.zoneID, Type: "A"}, storage.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, sets)
	assert.Equal(t, storage.StatusActive, e.zone(t).Status)
}

func TestSyncZoneGoneIsNoop(t *testing.T) {
	e := newWorkerEnv(t)
	assert.NoError(t, e.w.SyncZone(context.Background(), uuid.NewString()))
}

func TestEnqueueZoneNeverBlocks(t *testing.T) {
	e := newWorkerEnv(t)
	for i := 0; i < queueDepth+10; i++ {
		e.w.EnqueueZone(uuid.NewString())
	}
}
