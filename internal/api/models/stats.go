package models

import "time"

// ServerStatsResponse reports process and host statistics.
type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	GoRoutines    int       `json:"goroutines"`
	MemoryAllocMB float64   `json:"memory_alloc_mb"`
	NumCPU        int       `json:"num_cpu"`

	Host     *HostStats      `json:"host,omitempty"`
	Backends []BackendStatus `json:"backends,omitempty"`
}

// BackendStatus is the ping result of one pool target.
type BackendStatus struct {
	PoolID   string `json:"pool_id"`
	TargetID string `json:"target_id"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// HostStats reports machine-level statistics.
type HostStats struct {
	Hostname      string  `json:"hostname"`
	Platform      string  `json:"platform"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	MemoryUsedPct float64 `json:"memory_used_pct"`
}
