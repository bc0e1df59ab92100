package models

import "github.com/openstack/designate-sub004/internal/storage"

// Pool is the API representation of a backend pool.
type Pool struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	NsRecords   []PoolNsRecord    `json:"ns_records"`
	Targets     []PoolTarget      `json:"targets"`
}

// PoolNsRecord is one advertised nameserver of a pool.
type PoolNsRecord struct {
	Priority int    `json:"priority"`
	Hostname string `json:"hostname"`
}

// PoolTarget is one backend instance of a pool. Options may carry
// credentials and are never echoed in full.
type PoolTarget struct {
	ID      string            `json:"id,omitempty"`
	Type    string            `json:"type"`
	Masters []string          `json:"masters,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

// PoolFromStorage converts a storage pool to its API form, redacting
// secret-bearing target options.
func PoolFromStorage(p *storage.Pool) Pool {
	out := Pool{ID: p.ID, Name: p.Name, Attributes: p.Attributes}
	for _, ns := range p.NsRecords {
		out.NsRecords = append(out.NsRecords, PoolNsRecord{Priority: ns.Priority, Hostname: ns.Hostname})
	}
	for _, t := range p.Targets {
		opts := map[string]string{}
		for k, v := range t.Options {
			if k == "api_key" || k == "password" {
				v = "<redacted>"
			}
			opts[k] = v
		}
		out.Targets = append(out.Targets, PoolTarget{ID: t.ID, Type: t.Type, Masters: t.Masters, Options: opts})
	}
	return out
}

// ToStorage converts an API pool back to its storage form.
func (p Pool) ToStorage() *storage.Pool {
	out := &storage.Pool{ID: p.ID, Name: p.Name, Attributes: p.Attributes}
	for _, ns := range p.NsRecords {
		out.NsRecords = append(out.NsRecords, storage.PoolNsRecord{Priority: ns.Priority, Hostname: ns.Hostname})
	}
	for _, t := range p.Targets {
		out.Targets = append(out.Targets, storage.PoolTarget{ID: t.ID, Type: t.Type, Masters: t.Masters, Options: t.Options})
	}
	return out
}

// TLD is the API representation of an allowed top-level domain.
type TLD struct {
	ID   string `json:"id"`
	Name string `json:"name" binding:"required"`
}

// Blacklist is the API representation of a forbidden name pattern.
type Blacklist struct {
	ID          string `json:"id"`
	Pattern     string `json:"pattern" binding:"required"`
	Description string `json:"description,omitempty"`
}

// TsigKey is the API representation of a transfer-signing key.
type TsigKey struct {
	ID         string `json:"id"`
	Name       string `json:"name" binding:"required"`
	Algorithm  string `json:"algorithm" binding:"required"`
	Secret     string `json:"secret" binding:"required"`
	Scope      string `json:"scope" binding:"required"`
	ResourceID string `json:"resource_id" binding:"required"`
}

// QuotaUpdateRequest is the body of PATCH /quotas/{tenant_id}.
type QuotaUpdateRequest struct {
	Zones          *int `json:"zones"`
	ZoneRecordsets *int `json:"zone_recordsets"`
	ZoneRecords    *int `json:"zone_records"`
}

// FloatingIPPTRRequest is the body of PATCH /reverse/floatingips/{region}/{id}.
type FloatingIPPTRRequest struct {
	Address  string `json:"address" binding:"required"`
	PTRDName string `json:"ptrdname"`
	TTL      *int   `json:"ttl"`
}

// FloatingIPPTR is the PTR view of a floating IP.
type FloatingIPPTR struct {
	ID       string `json:"id"`
	Address  string `json:"address"`
	Region   string `json:"region"`
	PTRDName string `json:"ptrdname,omitempty"`
	TTL      int    `json:"ttl,omitempty"`
}

// ZoneImportRequest carries zonefile text for POST /zones/tasks/imports.
type ZoneImportRequest struct {
	Text string `json:"text" binding:"required"`
}
