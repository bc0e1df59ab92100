package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/storage"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newZone(tenant, name string) *storage.Zone {
	return &storage.Zone{
		ID:       uuid.NewString(),
		TenantID: tenant,
		Name:     name,
		Email:    "hostmaster@" + name[:len(name)-1],
		TTL:      3600,
		Serial:   1,
		Type:     storage.ZonePrimary,
		Status:   storage.StatusPending,
		Action:   storage.ActionCreate,
		PoolID:   "pool-1",
	}
}

func TestZoneCRUD(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{TenantID: "tenant-a"}

	z := newZone("tenant-a", "example.com.")
	require.NoError(t, db.CreateZone(ctx, sc, z))

	got, err := db.GetZone(ctx, sc, z.ID)
	require.NoError(t, err)
	assert.Equal(t, "example.com.", got.Name)
	assert.Equal(t, storage.StatusPending, got.Status)
	assert.Equal(t, 1, got.Version)

	got.Status = storage.StatusActive
	got.Action = storage.ActionNone
	require.NoError(t, db.UpdateZone(ctx, sc, got))
	assert.Equal(t, 2, got.Version)

	require.NoError(t, db.DeleteZone(ctx, sc, z.ID))
	_, err = db.GetZone(ctx, sc, z.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestZoneDuplicateNameIsConflict(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{TenantID: "tenant-a"}

	require.NoError(t, db.CreateZone(ctx, sc, newZone("tenant-a", "example.com.")))
	err := db.CreateZone(ctx, sc, newZone("tenant-b", "example.com."))
	assert.True(t, errs.IsConflict(err))
}

func TestZoneTenantScoping(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	z := newZone("tenant-a", "example.com.")
	require.NoError(t, db.CreateZone(ctx, storage.Scope{TenantID: "tenant-a"}, z))

	// Another tenant cannot see the zone.
	_, err := db.GetZone(ctx, storage.Scope{TenantID: "tenant-b"}, z.ID)
	assert.True(t, errs.IsNotFound(err))

	// An elevated scope can.
	got, err := db.GetZone(ctx, storage.Scope{TenantID: "tenant-b"}.Elevated(), z.ID)
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", got.TenantID)
}

func TestZoneOptimisticVersioning(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{TenantID: "tenant-a"}

	z := newZone("tenant-a", "example.com.")
	require.NoError(t, db.CreateZone(ctx, sc, z))

	stale := *z
	z.Serial = 42
	require.NoError(t, db.UpdateZone(ctx, sc, z))

	stale.Serial = 43
	err := db.UpdateZone(ctx, sc, &stale)
	assert.True(t, errs.IsConflict(err))
}

func TestFindZonesBySuffix(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{TenantID: "tenant-a"}

	require.NoError(t, db.CreateZone(ctx, sc, newZone("tenant-a", "example.com.")))
	require.NoError(t, db.CreateZone(ctx, sc, newZone("tenant-a", "sub.example.com.")))
	require.NoError(t, db.CreateZone(ctx, sc, newZone("tenant-a", "other.org.")))

	zones, err := db.FindZones(ctx, sc.Elevated(), storage.ZoneFilter{NameSuffix: "example.com."}, storage.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, zones, 2)
}

func TestRecordSetWithRecords(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{TenantID: "tenant-a"}

	z := newZone("tenant-a", "example.com.")
	require.NoError(t, db.CreateZone(ctx, sc, z))

	rs := &storage.RecordSet{
		ID:     uuid.NewString(),
		ZoneID: z.ID,
		Name:   "www.example.com.",
		Type:   "A",
		Records: []storage.Record{
			{ID: uuid.NewString(), Data: "192.0.2.1", Status: storage.StatusPending, Action: storage.ActionCreate, Serial: 1},
			{ID: uuid.NewString(), Data: "192.0.2.2", Status: storage.StatusPending, Action: storage.ActionCreate, Serial: 1},
		},
	}
	require.NoError(t, db.CreateRecordSet(ctx, sc, rs))

	got, err := db.GetRecordSet(ctx, sc, z.ID, rs.ID)
	require.NoError(t, err)
	assert.Len(t, got.Records, 2)
	assert.Nil(t, got.TTL)

	// Deleting the zone cascades to recordsets and records.
	require.NoError(t, db.DeleteZone(ctx, sc, z.ID))
	n, err := db.CountRecords(ctx, sc, z.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	sets, err := db.FindRecordSets(ctx, sc.Elevated(), storage.RecordSetFilter{ZoneID: z.ID}, storage.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, sets)

	recs, err := db.FindRecords(ctx, sc.Elevated(), storage.RecordFilter{ZoneID: z.ID}, storage.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestManagedRecordLookup(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{TenantID: "tenant-a"}

	z := newZone("tenant-a", "2.0.192.in-addr.arpa.")
	require.NoError(t, db.CreateZone(ctx, sc, z))

	rs := &storage.RecordSet{
		ID: uuid.NewString(), ZoneID: z.ID, Name: "5.2.0.192.in-addr.arpa.", Type: "PTR", Managed: true,
		Records: []storage.Record{{
			ID: uuid.NewString(), Data: "host.example.com.",
			Status: storage.StatusPending, Action: storage.ActionCreate,
			Managed: true, ManagedExtra: "192.0.2.5",
			ManagedResourceID: "fip-1", ManagedResourceType: "ptr:floatingip", ManagedTenantID: "tenant-a",
		}},
	}
	require.NoError(t, db.CreateRecordSet(ctx, sc, rs))

	records, err := db.FindRecords(ctx, sc.Elevated(), storage.RecordFilter{
		ManagedExtra:        "192.0.2.5",
		ManagedResourceType: "ptr:floatingip",
	}, storage.ListOpts{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fip-1", records[0].ManagedResourceID)
}

func TestPoolRoundTrip(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{Admin: true, AllTenants: true}

	p := &storage.Pool{
		ID:   uuid.NewString(),
		Name: "default",
		NsRecords: []storage.PoolNsRecord{
			{Priority: 1, Hostname: "ns1.example.org."},
			{Priority: 2, Hostname: "ns2.example.org."},
		},
		Targets: []storage.PoolTarget{
			{Type: "powerdns", Options: map[string]string{"api_endpoint": "http://127.0.0.1:8081/api/v1", "api_key": "k"}},
		},
	}
	require.NoError(t, db.CreatePool(ctx, sc, p))

	got, err := db.GetPool(ctx, sc, p.ID)
	require.NoError(t, err)
	require.Len(t, got.NsRecords, 2)
	assert.Equal(t, "ns1.example.org.", got.NsRecords[0].Hostname)
	require.Len(t, got.Targets, 1)
	assert.Equal(t, "powerdns", got.Targets[0].Type)
	assert.Equal(t, "k", got.Targets[0].Options["api_key"])

	got.NsRecords = got.NsRecords[:1]
	require.NoError(t, db.UpdatePool(ctx, sc, got))
	again, err := db.GetPool(ctx, sc, p.ID)
	require.NoError(t, err)
	assert.Len(t, again.NsRecords, 1)
}

func TestTargetStatusUpsert(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{AllTenants: true}

	s := &storage.PoolTargetStatus{
		TargetID: "target-1", ZoneID: "zone-1",
		Action: storage.ActionCreate, Status: storage.StatusError,
		SerialNumber: 10, Error: "connection refused",
	}
	require.NoError(t, db.UpsertTargetStatus(ctx, sc, s))

	s.Status = storage.StatusSuccess
	s.Error = ""
	s.SerialNumber = 11
	require.NoError(t, db.UpsertTargetStatus(ctx, sc, s))

	statuses, err := db.FindTargetStatuses(ctx, sc, "zone-1")
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, storage.StatusSuccess, statuses[0].Status)
	assert.Equal(t, uint32(11), statuses[0].SerialNumber)
}

func TestQuotas(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{Admin: true}

	require.NoError(t, db.SetQuota(ctx, sc, "tenant-a", "zones", 5))
	require.NoError(t, db.SetQuota(ctx, sc, "tenant-a", "zones", 7))

	quotas, err := db.GetQuotas(ctx, sc, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, 7, quotas["zones"])

	require.NoError(t, db.ResetQuotas(ctx, sc, "tenant-a"))
	quotas, err = db.GetQuotas(ctx, sc, "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, quotas)
}

func TestZoneTaskTerminalStateIsImmutable(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{TenantID: "tenant-a"}

	task := &storage.ZoneTask{
		ID: uuid.NewString(), TenantID: "tenant-a", ZoneID: "zone-1",
		TaskType: storage.TaskExport, Status: storage.TaskStatusPending,
	}
	require.NoError(t, db.CreateZoneTask(ctx, sc, task))

	task.Status = storage.TaskStatusComplete
	task.Location = "/v2/zones/tasks/exports/" + task.ID + "/export"
	require.NoError(t, db.UpdateZoneTask(ctx, sc, task))

	// A second transition out of a terminal state must not take effect.
	task.Status = storage.TaskStatusError
	require.NoError(t, db.UpdateZoneTask(ctx, sc, task))

	got, err := db.GetZoneTask(ctx, sc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TaskStatusComplete, got.Status)
}

func TestTLDs(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	sc := storage.Scope{Admin: true}

	has, err := db.HasTLDs(ctx, sc)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, db.CreateTLD(ctx, sc, &storage.TLD{ID: uuid.NewString(), Name: "com"}))

	has, err = db.HasTLDs(ctx, sc)
	require.NoError(t, err)
	assert.True(t, has)

	ok, err := db.HasTLD(ctx, sc, "com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.HasTLD(ctx, sc, "org")
	require.NoError(t, err)
	assert.False(t, ok)
}
