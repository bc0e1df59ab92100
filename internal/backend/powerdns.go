package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/openstack/designate-sub004/internal/storage"
)

func init() {
	Register("powerdns", newPowerDNS)
}

// powerDNS drives a PowerDNS Authoritative server over its HTTP API.
//
// Target options:
//
//	api_endpoint  base URL including the API path, e.g. http://ns1:8081/api/v1
//	api_key       X-API-Key value
//	server_id     PowerDNS server id, default "localhost"
type powerDNS struct {
	endpoint *url.URL
	apiKey   string
	serverID string
	http     *http.Client
	logger   *slog.Logger
}

func newPowerDNS(target storage.PoolTarget, logger *slog.Logger) (Backend, error) {
	endpoint := target.Options["api_endpoint"]
	if endpoint == "" {
		return nil, fmt.Errorf("powerdns target %s: api_endpoint option is required", target.ID)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("powerdns target %s: %w", target.ID, err)
	}
	serverID := target.Options["server_id"]
	if serverID == "" {
		serverID = "localhost"
	}
	return &powerDNS{
		endpoint: u,
		apiKey:   target.Options["api_key"],
		serverID: serverID,
		http:     http.DefaultClient,
		logger:   logger,
	}, nil
}

type pdnsZone struct {
	ID      string      `json:"id,omitempty"`
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Serial  int         `json:"serial,omitempty"`
	Masters []string    `json:"masters,omitempty"`
	RRsets  []pdnsRRSet `json:"rrsets,omitempty"`
}

type pdnsRRSet struct {
	Name       string       `json:"name"`
	Type       string       `json:"type"`
	TTL        int          `json:"ttl"`
	Changetype string       `json:"changetype,omitempty"`
	Records    []pdnsRecord `json:"records"`
}

type pdnsRecord struct {
	Content  string `json:"content"`
	Disabled bool   `json:"disabled"`
}

func (p *powerDNS) CreateZone(ctx context.Context, zone *ZoneSnapshot) error {
	body := pdnsZone{
		Name:   zone.Name,
		Kind:   kindFor(zone),
		RRsets: renderRRSets(zone.RRSets, ""),
	}
	if zone.Kind == storage.ZoneSecondary {
		body.Masters = zone.Masters
		body.RRsets = nil // a slaved zone transfers its content
	}
	path := fmt.Sprintf("/servers/%s/zones", p.serverID)
	err := p.do(ctx, http.MethodPost, path, body, nil)
	if err != nil && strings.Contains(err.Error(), "Conflict") {
		// Zone already exists; converge via update instead.
		return p.UpdateZone(ctx, zone)
	}
	return err
}

func (p *powerDNS) UpdateZone(ctx context.Context, zone *ZoneSnapshot) error {
	if zone.Kind == storage.ZoneSecondary {
		return nil // content is transferred, not pushed
	}

	// Full-state convergence: REPLACE every current rrset and DELETE any
	// rrset the server still has that we no longer do.
	current, err := p.getZone(ctx, zone.Name)
	if err != nil {
		return err
	}

	want := make(map[string]bool, len(zone.RRSets))
	rrsets := renderRRSets(zone.RRSets, "REPLACE")
	for _, rs := range zone.RRSets {
		want[rrsetKey(rs.Name, rs.Type)] = true
	}
	for _, rs := range current.RRsets {
		if !want[rrsetKey(rs.Name, rs.Type)] {
			rrsets = append(rrsets, pdnsRRSet{
				Name: rs.Name, Type: rs.Type, Changetype: "DELETE", Records: []pdnsRecord{},
			})
		}
	}

	path := fmt.Sprintf("/servers/%s/zones/%s", p.serverID, zone.Name)
	return p.do(ctx, http.MethodPatch, path, map[string]any{"rrsets": rrsets}, nil)
}

func (p *powerDNS) DeleteZone(ctx context.Context, zoneName string) error {
	path := fmt.Sprintf("/servers/%s/zones/%s", p.serverID, zoneName)
	err := p.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil && strings.Contains(err.Error(), "Not Found") {
		return nil // already gone; deletion is idempotent
	}
	return err
}

func (p *powerDNS) Ping(ctx context.Context) error {
	path := fmt.Sprintf("/servers/%s", p.serverID)
	return p.do(ctx, http.MethodGet, path, nil, nil)
}

func (p *powerDNS) getZone(ctx context.Context, name string) (*pdnsZone, error) {
	path := fmt.Sprintf("/servers/%s/zones/%s", p.serverID, name)
	var z pdnsZone
	if err := p.do(ctx, http.MethodGet, path, nil, &z); err != nil {
		return nil, err
	}
	return &z, nil
}

func (p *powerDNS) do(ctx context.Context, method, path string, body, out any) error {
	u := *p.endpoint
	u.Path = strings.TrimSuffix(p.endpoint.Path, "/") + path

	var buf io.Reader
	if body != nil {
		b := new(bytes.Buffer)
		if err := json.NewEncoder(b).Encode(body); err != nil {
			return fmt.Errorf("encoding pdns request: %w", err)
		}
		buf = b
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, string(b))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func kindFor(zone *ZoneSnapshot) string {
	if zone.Kind == storage.ZoneSecondary {
		return "Slave"
	}
	return "Master"
}

func renderRRSets(sets []RRSet, changetype string) []pdnsRRSet {
	out := make([]pdnsRRSet, 0, len(sets))
	for _, rs := range sets {
		records := make([]pdnsRecord, 0, len(rs.Records))
		for _, data := range rs.Records {
			records = append(records, pdnsRecord{Content: data})
		}
		out = append(out, pdnsRRSet{
			Name: rs.Name, Type: rs.Type, TTL: rs.TTL,
			Changetype: changetype, Records: records,
		})
	}
	return out
}

func rrsetKey(name, typ string) string {
	return strings.ToLower(name) + "/" + strings.ToUpper(typ)
}
