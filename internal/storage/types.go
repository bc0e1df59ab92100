package storage

import "time"

// ZoneType distinguishes authoritative primaries from slaved secondaries.
type ZoneType string

const (
	ZonePrimary   ZoneType = "PRIMARY"
	ZoneSecondary ZoneType = "SECONDARY"
)

// Status is the propagation lifecycle state of a zone or record.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusPending Status = "PENDING"
	StatusError   Status = "ERROR"
	StatusDeleted Status = "DELETED"
	// StatusSuccess is only used in pool target status rows.
	StatusSuccess Status = "SUCCESS"
)

// Action is the outstanding mutation of a zone or record.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionNone   Action = "NONE"
)

// Zone is a DNS domain owned by a tenant.
type Zone struct {
	ID       string
	TenantID string
	Name     string // FQDN with trailing dot, globally unique for PRIMARY
	Email    string
	TTL      int
	Serial   uint32
	Type     ZoneType
	Status   Status
	Action   Action
	PoolID   string
	// Masters is the host:port list a SECONDARY zone transfers from.
	Masters []string
	// ParentZoneID links a subdomain zone to its same-tenant parent.
	// Ownership by id only; never a live back-reference.
	ParentZoneID  string
	TransferredAt *time.Time
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecordSet groups the records sharing a (name, type) pair within a zone.
type RecordSet struct {
	ID     string
	ZoneID string
	Name   string
	Type   string
	// TTL nil means "inherit the zone TTL".
	TTL *int
	// Managed recordsets (SOA, NS, floating-IP PTRs) reject direct client
	// mutation.
	Managed   bool
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time

	// Records are loaded eagerly by storage calls that return recordsets.
	Records []Record
}

// Record is a single data value within a recordset.
type Record struct {
	ID          string
	RecordSetID string
	ZoneID      string
	Data        string
	Status      Status
	Action      Action
	// Serial is the zone serial at which this record's last mutation was
	// requested.
	Serial  uint32
	Managed bool
	// Managed* fields are a weak back-reference for system-created
	// records, e.g. floating-IP PTRs.
	ManagedExtra        string
	ManagedResourceID   string
	ManagedResourceType string
	ManagedTenantID     string
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Pool is a named group of nameserver backend targets.
type Pool struct {
	ID         string
	Name       string
	Attributes map[string]string
	NsRecords  []PoolNsRecord
	Targets    []PoolTarget
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PoolNsRecord is one advertised nameserver of a pool.
type PoolNsRecord struct {
	ID       string
	PoolID   string
	Priority int
	Hostname string
}

// PoolTarget is one backend instance a pool's zones are pushed to.
type PoolTarget struct {
	ID      string
	PoolID  string
	Type    string // backend driver key, e.g. "powerdns"
	Masters []string
	Options map[string]string
}

// PoolTargetStatus tracks the last sync outcome per (target, zone).
type PoolTargetStatus struct {
	ID           string
	TargetID     string
	ZoneID       string
	Action       Action
	Status       Status // SUCCESS or ERROR
	SerialNumber uint32
	Error        string
	UpdatedAt    time.Time
}

// TLD is an allowed top-level domain. When any TLDs are configured, zone
// names must end in one of them.
type TLD struct {
	ID   string
	Name string
}

// Blacklist is a regular expression zone names must not match.
type Blacklist struct {
	ID          string
	Pattern     string
	Description string
}

// TsigKey authenticates zone transfers and dynamic updates.
type TsigKey struct {
	ID         string
	Name       string
	Algorithm  string
	Secret     string
	Scope      string // "ZONE" or "POOL"
	ResourceID string
}

// Task types for zone import/export.
const (
	TaskExport = "EXPORT"
	TaskImport = "IMPORT"
)

// Task statuses; terminal states are never updated again.
const (
	TaskStatusPending  = "PENDING"
	TaskStatusComplete = "COMPLETE"
	TaskStatusError    = "ERROR"
)

// ZoneTask is a transient zone import or export job.
type ZoneTask struct {
	ID        string
	TenantID  string
	ZoneID    string
	TaskType  string
	Status    string
	Message   string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
