package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstack/designate-sub004/internal/api/middleware"
	"github.com/openstack/designate-sub004/internal/api/models"
	"github.com/openstack/designate-sub004/internal/central"
	"github.com/openstack/designate-sub004/internal/config"
	"github.com/openstack/designate-sub004/internal/lock"
	"github.com/openstack/designate-sub004/internal/quota"
	"github.com/openstack/designate-sub004/internal/storage"
)

type apiEnv struct {
	server *Server
	db     *storage.DB
	pool   *storage.Pool
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	cfg := &config.Config{}
	require.NoError(t, cfg.Validate())

	db, err := storage.Open(filepath.Join(t.TempDir(), "api.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pool := &storage.Pool{
		ID:   uuid.NewString(),
		Name: "default",
		NsRecords: []storage.PoolNsRecord{
			{Hostname: "ns1.example.org.", Priority: 1},
		},
		Targets: []storage.PoolTarget{{ID: uuid.NewString(), Type: "fake"}},
	}
	require.NoError(t, db.CreatePool(context.Background(), storage.Scope{Admin: true}, pool))
	cfg.DefaultPoolID = pool.ID

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := central.NewService(cfg, db, lock.NewLocalManager(), quota.NewEnforcer(cfg.Quota, db), nil, nil, logger)
	return &apiEnv{server: New(cfg, svc, logger), db: db, pool: pool}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.server.Engine().ServeHTTP(rec, req)
	return rec
}

func asTenant(id string) map[string]string {
	return map[string]string{middleware.HeaderTenantID: id}
}

func asAdmin(id string) map[string]string {
	return map[string]string{
		middleware.HeaderTenantID: id,
		middleware.HeaderRoles:    "member,admin",
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func TestHealthNeedsNoAuth(t *testing.T) {
	e := newAPIEnv(t)
	rec := e.do(t, http.MethodGet, "/v2/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingTenantHeaderRejected(t *testing.T) {
	e := newAPIEnv(t)
	rec := e.do(t, http.MethodGet, "/v2/zones", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[models.ErrorResponse](t, rec).Kind)
}

func TestZoneLifecycle(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/v2/zones", models.ZoneCreateRequest{
		Name:  "example.com.",
		Email: "admin@example.com",
	}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	zone := decode[models.Zone](t, rec)
	assert.Equal(t, "example.com.", zone.Name)
	assert.Equal(t, "PENDING", zone.Status)
	assert.Equal(t, "CREATE", zone.Action)
	assert.Equal(t, "t1", zone.ProjectID)
	assert.Equal(t, e.pool.ID, zone.PoolID)

	rec = e.do(t, http.MethodGet, "/v2/zones/"+zone.ID, nil, asTenant("t1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/v2/zones", nil, asTenant("t1"))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[models.ZoneListResponse](t, rec)
	require.Len(t, list.Zones, 1)
	assert.Equal(t, zone.ID, list.Meta.Marker)

	email := "hostmaster@example.com"
	rec = e.do(t, http.MethodPatch, "/v2/zones/"+zone.ID, models.ZoneUpdateRequest{Email: &email}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, email, decode[models.Zone](t, rec).Email)

	rec = e.do(t, http.MethodDelete, "/v2/zones/"+zone.ID, nil, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "DELETE", decode[models.Zone](t, rec).Action)
}

func TestZonesAreTenantScoped(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/v2/zones", models.ZoneCreateRequest{
		Name:  "example.com.",
		Email: "admin@example.com",
	}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code)
	zone := decode[models.Zone](t, rec)

	rec = e.do(t, http.MethodGet, "/v2/zones/"+zone.ID, nil, asTenant("t2"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[models.ErrorResponse](t, rec).Kind)
}

func TestCreateZoneValidationMapsTo400(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/v2/zones", models.ZoneCreateRequest{
		Name:  "not-absolute.com",
		Email: "admin@example.com",
	}, asTenant("t1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[models.ErrorResponse](t, rec).Kind)
}

func TestDuplicateZoneMapsTo409(t *testing.T) {
	e := newAPIEnv(t)

	body := models.ZoneCreateRequest{Name: "example.com.", Email: "admin@example.com"}
	rec := e.do(t, http.MethodPost, "/v2/zones", body, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = e.do(t, http.MethodPost, "/v2/zones", body, asTenant("t2"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[models.ErrorResponse](t, rec).Kind)
}

func TestRecordSetLifecycle(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/v2/zones", models.ZoneCreateRequest{
		Name:  "example.com.",
		Email: "admin@example.com",
	}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code)
	zone := decode[models.Zone](t, rec)

	rec = e.do(t, http.MethodPost, "/v2/zones/"+zone.ID+"/recordsets", models.RecordSetCreateRequest{
		Name:    "www.example.com.",
		Type:    "A",
		Records: []string{"192.0.2.1", "192.0.2.2"},
	}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rs := decode[models.RecordSet](t, rec)
	assert.Equal(t, "PENDING", rs.Status)
	assert.Equal(t, "CREATE", rs.Action)
	assert.ElementsMatch(t, []string{"192.0.2.1", "192.0.2.2"}, rs.Records)

	rec = e.do(t, http.MethodPut, "/v2/zones/"+zone.ID+"/recordsets/"+rs.ID, models.RecordSetUpdateRequest{
		Records: []string{"192.0.2.1"},
	}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	updated := decode[models.RecordSet](t, rec)
	assert.ElementsMatch(t, []string{"192.0.2.1"}, updated.Records)

	rec = e.do(t, http.MethodDelete, "/v2/zones/"+zone.ID+"/recordsets/"+rs.ID, nil, asTenant("t1"))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestManagedRecordSetMutationForbidden(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/v2/zones", models.ZoneCreateRequest{
		Name:  "example.com.",
		Email: "admin@example.com",
	}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code)
	zone := decode[models.Zone](t, rec)

	rec = e.do(t, http.MethodGet, "/v2/zones/"+zone.ID+"/recordsets?type=NS", nil, asTenant("t1"))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[models.RecordSetListResponse](t, rec)
	require.Len(t, list.RecordSets, 1)
	require.True(t, list.RecordSets[0].Managed)

	rec = e.do(t, http.MethodDelete, "/v2/zones/"+zone.ID+"/recordsets/"+list.RecordSets[0].ID, nil, asTenant("t1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode[models.ErrorResponse](t, rec).Kind)
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/v2/tlds", models.TLD{Name: "com"}, asTenant("t1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/v2/tlds", models.TLD{Name: "com"}, asAdmin("ops"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tld := decode[models.TLD](t, rec)
	assert.Equal(t, "com", tld.Name)
	assert.NotEmpty(t, tld.ID)

	rec = e.do(t, http.MethodGet, "/v2/tlds", nil, asTenant("t1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.TLD](t, rec), 1)
}

func TestQuotaEndpoints(t *testing.T) {
	e := newAPIEnv(t)

	limit := 3
	rec := e.do(t, http.MethodPatch, "/v2/quotas/t1", models.QuotaUpdateRequest{Zones: &limit}, asAdmin("ops"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decode[map[string]int](t, rec)["zones"])

	rec = e.do(t, http.MethodGet, "/v2/quotas/t1", nil, asTenant("t1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[map[string]int](t, rec)["zones"])

	// A tenant cannot read another tenant's quotas.
	rec = e.do(t, http.MethodGet, "/v2/quotas/t1", nil, asTenant("t2"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodDelete, "/v2/quotas/t1", nil, asAdmin("ops"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPoolOptionsRedacted(t *testing.T) {
	e := newAPIEnv(t)

	body := models.Pool{
		Name:      "secondary",
		NsRecords: []models.PoolNsRecord{{Hostname: "ns1.pool2.example.org.", Priority: 1}},
		Targets: []models.PoolTarget{{
			Type:    "fake",
			Options: map[string]string{"api_key": "hunter2", "endpoint": "http://pdns:8081"},
		}},
	}
	rec := e.do(t, http.MethodPost, "/v2/pools", body, asAdmin("ops"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	pool := decode[models.Pool](t, rec)
	require.Len(t, pool.Targets, 1)
	assert.Equal(t, "<redacted>", pool.Targets[0].Options["api_key"])
	assert.Equal(t, "http://pdns:8081", pool.Targets[0].Options["endpoint"])
}

func TestZoneExportReturnsZonefile(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/v2/zones", models.ZoneCreateRequest{
		Name:  "example.com.",
		Email: "admin@example.com",
	}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code)
	zone := decode[models.Zone](t, rec)

	rec = e.do(t, http.MethodGet, "/v2/zones/"+zone.ID+"/export", nil, asTenant("t1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "$ORIGIN example.com.")
	assert.Contains(t, rec.Body.String(), "SOA")
}

func TestZoneImportTask(t *testing.T) {
	e := newAPIEnv(t)

	text := strings.Join([]string{
		"$ORIGIN example.net.",
		"$TTL 3600",
		"example.net. 3600 IN SOA ns1.example.org. admin.example.net. 1 3600 600 86400 3600",
		"www.example.net. 300 IN A 192.0.2.7",
	}, "\n") + "\n"

	rec := e.do(t, http.MethodPost, "/v2/zones/tasks/imports", models.ZoneImportRequest{Text: text}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	task := decode[models.ZoneTask](t, rec)
	assert.Equal(t, "COMPLETE", task.Status)
	require.NotEmpty(t, task.ZoneID)

	rec = e.do(t, http.MethodGet, "/v2/zones/tasks/"+task.ID, nil, asTenant("t1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/v2/zones/"+task.ZoneID, nil, asTenant("t1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "example.net.", decode[models.Zone](t, rec).Name)
}

func TestFloatingIPPTREndpoints(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPatch, "/v2/reverse/floatingips/region-a/fip-1", models.FloatingIPPTRRequest{
		Address:  "192.0.2.10",
		PTRDName: "app.example.com.",
	}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	ptr := decode[models.FloatingIPPTR](t, rec)
	assert.Equal(t, "app.example.com.", ptr.PTRDName)
	assert.Equal(t, "region-a", ptr.Region)

	rec = e.do(t, http.MethodGet, "/v2/reverse/floatingips?address=192.0.2.10&id=fip-1&region=region-a", nil, asTenant("t1"))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.FloatingIPPTR](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "app.example.com.", list[0].PTRDName)

	// Empty ptrdname unsets.
	rec = e.do(t, http.MethodPatch, "/v2/reverse/floatingips/region-a/fip-1", models.FloatingIPPTRRequest{
		Address: "192.0.2.10",
	}, asTenant("t1"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Empty(t, decode[models.FloatingIPPTR](t, rec).PTRDName)
}

func TestAPIKeyEnforcement(t *testing.T) {
	cfg := &config.Config{}
	require.NoError(t, cfg.Validate())
	cfg.API.APIKey = "sekrit"

	db, err := storage.Open(filepath.Join(t.TempDir(), "api.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := central.NewService(cfg, db, lock.NewLocalManager(), quota.NewEnforcer(cfg.Quota, db), nil, nil, logger)
	server := New(cfg, svc, logger)

	req := httptest.NewRequest(http.MethodGet, "/v2/health", nil)
	rec := httptest.NewRecorder()
	server.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v2/health", nil)
	req.Header.Set(middleware.HeaderAPIKey, "sekrit")
	rec = httptest.NewRecorder()
	server.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodGet, "/v2/status", nil, asTenant("t1"))
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.ServerStatsResponse](t, rec)
	assert.Greater(t, stats.GoRoutines, 0)
	assert.Greater(t, stats.NumCPU, 0)
	require.NotEmpty(t, stats.Backends)
	assert.Equal(t, "up", stats.Backends[0].Status)
}
