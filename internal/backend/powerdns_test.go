package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstack/designate-sub004/internal/storage"
)

func pdnsFromServer(t *testing.T, ts *httptest.Server) Backend {
	t.Helper()
	b, err := New(storage.PoolTarget{
		ID:   "target-1",
		Type: "powerdns",
		Options: map[string]string{
			"api_endpoint": ts.URL + "/api/v1",
			"api_key":      "testkey",
		},
	}, nil)
	require.NoError(t, err)
	return b
}

func snapshot() *ZoneSnapshot {
	return &ZoneSnapshot{
		Name:   "example.com.",
		Kind:   storage.ZonePrimary,
		Serial: 1700000000,
		TTL:    3600,
		RRSets: []RRSet{
			{Name: "example.com.", Type: "SOA", TTL: 3600,
				Records: []string{"ns1.example.org. hostmaster.example.com. 1700000000 3600 600 86400 3600"}},
			{Name: "example.com.", Type: "NS", TTL: 3600, Records: []string{"ns1.example.org."}},
			{Name: "www.example.com.", Type: "A", TTL: 300, Records: []string{"192.0.2.1"}},
		},
	}
}

func TestPowerDNS_CreateZone(t *testing.T) {
	var got pdnsZone
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/servers/localhost/zones", r.URL.Path)
		assert.Equal(t, "testkey", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	b := pdnsFromServer(t, ts)
	require.NoError(t, b.CreateZone(context.Background(), snapshot()))

	assert.Equal(t, "example.com.", got.Name)
	assert.Equal(t, "Master", got.Kind)
	assert.Len(t, got.RRsets, 3)
}

func TestPowerDNS_UpdateZoneConverges(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// The server still carries a stale TXT rrset.
			json.NewEncoder(w).Encode(pdnsZone{
				Name: "example.com.",
				RRsets: []pdnsRRSet{
					{Name: "example.com.", Type: "SOA"},
					{Name: "stale.example.com.", Type: "TXT"},
				},
			})
		case http.MethodPatch:
			var body struct {
				RRsets []pdnsRRSet `json:"rrsets"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			deletes := 0
			for _, rs := range body.RRsets {
				switch rs.Changetype {
				case "DELETE":
					deletes++
					assert.Equal(t, "stale.example.com.", rs.Name)
				case "REPLACE":
				default:
					t.Errorf("unexpected changetype %q", rs.Changetype)
				}
			}
			assert.Equal(t, 1, deletes)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer ts.Close()

	b := pdnsFromServer(t, ts)
	require.NoError(t, b.UpdateZone(context.Background(), snapshot()))
}

func TestPowerDNS_DeleteZoneIdempotent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))
	defer ts.Close()

	b := pdnsFromServer(t, ts)
	assert.NoError(t, b.DeleteZone(context.Background(), "gone.example.com."))
}

func TestPowerDNS_ErrorPreservesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "Domain is invalid"}`, http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	b := pdnsFromServer(t, ts)
	err := b.CreateZone(context.Background(), snapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Domain is invalid")
}

func TestPowerDNS_RequiresEndpoint(t *testing.T) {
	_, err := New(storage.PoolTarget{ID: "t", Type: "powerdns"}, nil)
	assert.Error(t, err)
}

func TestRegistry_UnknownDriver(t *testing.T) {
	_, err := New(storage.PoolTarget{Type: "msdns"}, nil)
	assert.Error(t, err)
}

func TestRegistry_Drivers(t *testing.T) {
	assert.Subset(t, Drivers(), []string{"powerdns", "fake", "noop"})
}
