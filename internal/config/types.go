package config

// StorageConfig contains database settings.
type StorageConfig struct {
	// Path is the sqlite database file. ":memory:" is accepted for tests.
	Path string `json:"path"`
	// CallTimeout bounds every storage call (e.g. "5s").
	CallTimeout string `json:"call_timeout"`
}

// APIConfig contains REST API settings.
//
// APIKey is a shared secret and must not be echoed by API endpoints.
type APIConfig struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	APIKey string `json:"api_key,omitempty"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level       string            `json:"level"`
	Format      string            `json:"format"`
	IncludePID  bool              `json:"include_pid"`
	ExtraFields map[string]string `json:"extra_fields,omitempty"`
}

// DNSConfig contains zone and recordset validation settings.
type DNSConfig struct {
	// MaxZoneNameLen bounds zone names including the trailing dot.
	MaxZoneNameLen int `json:"max_zone_name_len"`
	// MaxRecordsetNameLen bounds recordset names including the trailing dot.
	MaxRecordsetNameLen int `json:"max_recordset_name_len"`
	// MinTTL below which a caller needs an elevated privilege. 0 disables
	// the check.
	MinTTL int `json:"min_ttl"`
	// DefaultTTL is applied to zones created without one.
	DefaultTTL int `json:"default_ttl"`

	// SOA timers written into every zone's SOA record.
	SOARefresh int `json:"soa_refresh"`
	SOARetry   int `json:"soa_retry"`
	SOAExpire  int `json:"soa_expire"`
	SOAMinimum int `json:"soa_minimum"`
}

// QuotaConfig contains the default per-tenant limits. Storage-level
// overrides take precedence per tenant.
type QuotaConfig struct {
	Zones          int `json:"zones"`
	ZoneRecordsets int `json:"zone_recordsets"`
	ZoneRecords    int `json:"zone_records"`
}

// WorkerConfig contains backend-synchronizer settings.
type WorkerConfig struct {
	// Threads is the number of concurrent zone sync workers.
	Threads int `json:"threads"`
	// BackendTimeout bounds each backend call (e.g. "10s").
	BackendTimeout string `json:"backend_timeout"`
}

// Config is the root configuration structure.
type Config struct {
	Storage StorageConfig `json:"storage"`
	API     APIConfig     `json:"api"`
	Logging LoggingConfig `json:"logging"`
	DNS     DNSConfig     `json:"dns"`
	Quota   QuotaConfig   `json:"quota"`
	Worker  WorkerConfig  `json:"worker"`

	// DefaultPoolID receives zones created without an explicit pool.
	DefaultPoolID string `json:"default_pool_id"`
}
