package models

import (
	"time"

	"github.com/openstack/designate-sub004/internal/storage"
)

// Zone is the API representation of a zone.
type Zone struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	TTL          int       `json:"ttl"`
	Serial       uint32    `json:"serial"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Action       string    `json:"action"`
	PoolID       string    `json:"pool_id"`
	ProjectID    string    `json:"project_id"`
	Masters      []string  `json:"masters,omitempty"`
	ParentZoneID string    `json:"parent_zone_id,omitempty"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ZoneFromStorage converts a storage zone to its API form.
func ZoneFromStorage(z *storage.Zone) Zone {
	return Zone{
		ID:           z.ID,
		Name:         z.Name,
		Email:        z.Email,
		TTL:          z.TTL,
		Serial:       z.Serial,
		Type:         string(z.Type),
		Status:       string(z.Status),
		Action:       string(z.Action),
		PoolID:       z.PoolID,
		ProjectID:    z.TenantID,
		Masters:      z.Masters,
		ParentZoneID: z.ParentZoneID,
		Version:      z.Version,
		CreatedAt:    z.CreatedAt,
		UpdatedAt:    z.UpdatedAt,
	}
}

// ZoneCreateRequest is the body of POST /zones.
type ZoneCreateRequest struct {
	Name    string   `json:"name" binding:"required"`
	Email   string   `json:"email"`
	TTL     int      `json:"ttl"`
	Type    string   `json:"type"`
	Masters []string `json:"masters"`
	PoolID  string   `json:"pool_id"`
}

// ZoneUpdateRequest is the body of PATCH /zones/{id}.
type ZoneUpdateRequest struct {
	Email   *string  `json:"email"`
	TTL     *int     `json:"ttl"`
	Masters []string `json:"masters"`
}

// ZoneListResponse wraps a zone listing.
type ZoneListResponse struct {
	Zones []Zone   `json:"zones"`
	Meta  ListMeta `json:"metadata"`
}

// ZoneMoveRequest is the body of POST /zones/{id}/move.
type ZoneMoveRequest struct {
	PoolID string `json:"pool_id" binding:"required"`
}

// RecordSet is the API representation of a recordset. Status and action
// are derived from the records.
type RecordSet struct {
	ID        string    `json:"id"`
	ZoneID    string    `json:"zone_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	TTL       *int      `json:"ttl"`
	Status    string    `json:"status"`
	Action    string    `json:"action"`
	Managed   bool      `json:"managed"`
	Records   []string  `json:"records"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordSetCreateRequest is the body of POST /zones/{id}/recordsets.
type RecordSetCreateRequest struct {
	Name    string   `json:"name" binding:"required"`
	Type    string   `json:"type" binding:"required"`
	TTL     *int     `json:"ttl"`
	Records []string `json:"records" binding:"required"`
}

// RecordSetUpdateRequest is the body of PUT /zones/{zone_id}/recordsets/{id}.
type RecordSetUpdateRequest struct {
	TTL     *int     `json:"ttl"`
	Records []string `json:"records"`
}

// RecordSetListResponse wraps a recordset listing.
type RecordSetListResponse struct {
	RecordSets []RecordSet `json:"recordsets"`
	Meta       ListMeta    `json:"metadata"`
}

// ZoneTask is the API representation of an import/export job.
type ZoneTask struct {
	ID        string    `json:"id"`
	ZoneID    string    `json:"zone_id,omitempty"`
	TaskType  string    `json:"task_type"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ZoneTaskFromStorage converts a storage task to its API form.
func ZoneTaskFromStorage(t *storage.ZoneTask) ZoneTask {
	return ZoneTask{
		ID:        t.ID,
		ZoneID:    t.ZoneID,
		TaskType:  t.TaskType,
		Status:    t.Status,
		Message:   t.Message,
		Location:  t.Location,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
