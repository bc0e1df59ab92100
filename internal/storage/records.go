package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/openstack/designate-sub004/internal/errs"
)

// RecordFilter selects records in FindRecords. The Managed* fields are how
// the floating-IP PTR manager locates its own records.
type RecordFilter struct {
	RecordSetID         string
	ZoneID              string
	Data                string
	Status              Status
	Action              Action
	ManagedExtra        string
	ManagedResourceID   string
	ManagedResourceType string
	ManagedTenantID     string
}

const recordColumns = `id, recordset_id, zone_id, data, status, action, serial, managed,
	managed_extra, managed_resource_id, managed_resource_type, managed_tenant_id,
	version, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.RecordSetID, &r.ZoneID, &r.Data, &r.Status, &r.Action,
		&r.Serial, &r.Managed, &r.ManagedExtra, &r.ManagedResourceID,
		&r.ManagedResourceType, &r.ManagedTenantID, &r.Version, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRecord(ctx context.Context, ex execer, r *Record, now time.Time) error {
	r.Version = 1
	r.CreatedAt = now
	r.UpdatedAt = now
	_, err := ex.ExecContext(ctx, `
		INSERT INTO records (id, recordset_id, zone_id, data, status, action, serial, managed,
			managed_extra, managed_resource_id, managed_resource_type, managed_tenant_id,
			version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RecordSetID, r.ZoneID, r.Data, r.Status, r.Action, r.Serial, r.Managed,
		r.ManagedExtra, r.ManagedResourceID, r.ManagedResourceType, r.ManagedTenantID,
		r.Version, r.CreatedAt, r.UpdatedAt)
	return mapErr(err, "failed to create record %s", r.ID)
}

// CreateRecord inserts a single record.
func (db *DB) CreateRecord(ctx context.Context, sc Scope, r *Record) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()
	return insertRecord(ctx, db.conn, r, time.Now().UTC())
}

// FindRecords lists records matching the filter.
func (db *DB) FindRecords(ctx context.Context, sc Scope, f RecordFilter, opts ListOpts) ([]Record, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	conds := []string{"1=1"}
	var args []any
	if f.RecordSetID != "" {
		conds = append(conds, "recordset_id = ?")
		args = append(args, f.RecordSetID)
	}
	if f.ZoneID != "" {
		conds = append(conds, "zone_id = ?")
		args = append(args, f.ZoneID)
	}
	if f.Data != "" {
		conds = append(conds, "data = ?")
		args = append(args, f.Data)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, f.Action)
	}
	if f.ManagedExtra != "" {
		conds = append(conds, "managed_extra = ?")
		args = append(args, f.ManagedExtra)
	}
	if f.ManagedResourceID != "" {
		conds = append(conds, "managed_resource_id = ?")
		args = append(args, f.ManagedResourceID)
	}
	if f.ManagedResourceType != "" {
		conds = append(conds, "managed_resource_type = ?")
		args = append(args, f.ManagedResourceType)
	}
	if f.ManagedTenantID != "" {
		conds = append(conds, "managed_tenant_id = ?")
		args = append(args, f.ManagedTenantID)
	}
	if opts.Marker != "" {
		conds = append(conds, "id > ?")
		args = append(args, opts.Marker)
	}

	clause, extra := pagination(opts, map[string]bool{"created_at": true, "id": true}, "created_at")
	args = append(args, extra...)

	query := "SELECT " + recordColumns + " FROM records WHERE " + strings.Join(conds, " AND ") + clause
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "failed to query records")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, mapErr(err, "failed to scan record")
		}
		records = append(records, *r)
	}
	return records, mapErr(rows.Err(), "error iterating records")
}

// CountRecords counts a zone's records, for quota checks.
func (db *DB) CountRecords(ctx context.Context, sc Scope, zoneID string) (int, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE zone_id = ?", zoneID).Scan(&n)
	return n, mapErr(err, "failed to count records for zone %s", zoneID)
}

// UpdateRecord persists a record, bumping its version.
func (db *DB) UpdateRecord(ctx context.Context, sc Scope, r *Record) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	r.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE records SET data = ?, status = ?, action = ?, serial = ?, managed = ?,
			managed_extra = ?, managed_resource_id = ?, managed_resource_type = ?,
			managed_tenant_id = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		r.Data, r.Status, r.Action, r.Serial, r.Managed,
		r.ManagedExtra, r.ManagedResourceID, r.ManagedResourceType,
		r.ManagedTenantID, r.UpdatedAt, r.ID, r.Version)
	if err != nil {
		return mapErr(err, "failed to update record %s", r.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, "failed to update record %s", r.ID)
	}
	if n == 0 {
		return errs.New(errs.KindConflict, "record %s was modified concurrently (version %d)", r.ID, r.Version)
	}
	r.Version++
	return nil
}

// DeleteRecord removes a record row.
func (db *DB) DeleteRecord(ctx context.Context, sc Scope, id string) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return mapErr(err, "failed to delete record %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, "failed to delete record %s", id)
	}
	if n == 0 {
		return errs.NotFound("record", id)
	}
	return nil
}
