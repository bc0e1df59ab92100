package storage

import (
	"context"
	"strings"
	"time"

	"github.com/openstack/designate-sub004/internal/errs"
)

// RecordSetFilter selects recordsets in FindRecordSets.
type RecordSetFilter struct {
	ZoneID string
	Name   string
	Type   string
	// ExcludeID drops one recordset from the result, used by collision
	// checks to ignore the recordset being updated.
	ExcludeID string
	Managed   *bool
}

const recordsetColumns = "id, zone_id, name, type, ttl, managed, version, created_at, updated_at"

func scanRecordSet(row interface{ Scan(...any) error }) (*RecordSet, error) {
	var rs RecordSet
	var ttl *int
	if err := row.Scan(&rs.ID, &rs.ZoneID, &rs.Name, &rs.Type, &ttl, &rs.Managed,
		&rs.Version, &rs.CreatedAt, &rs.UpdatedAt); err != nil {
		return nil, err
	}
	rs.TTL = ttl
	return &rs, nil
}

// CreateRecordSet inserts a recordset and its records in one transaction.
func (db *DB) CreateRecordSet(ctx context.Context, sc Scope, rs *RecordSet) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	rs.Version = 1
	rs.CreatedAt = now
	rs.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recordsets (id, zone_id, name, type, ttl, managed, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rs.ID, rs.ZoneID, rs.Name, rs.Type, rs.TTL, rs.Managed, rs.Version, rs.CreatedAt, rs.UpdatedAt)
	if err != nil {
		return mapErr(err, "failed to create recordset %s/%s", rs.Name, rs.Type)
	}

	for i := range rs.Records {
		r := &rs.Records[i]
		r.RecordSetID = rs.ID
		r.ZoneID = rs.ZoneID
		if err := insertRecord(ctx, tx, r, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return mapErr(err, "failed to commit recordset %s", rs.ID)
	}
	return nil
}

// GetRecordSet fetches a recordset with its records.
func (db *DB) GetRecordSet(ctx context.Context, sc Scope, zoneID, id string) (*RecordSet, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT "+recordsetColumns+" FROM recordsets WHERE id = ? AND zone_id = ?", id, zoneID)
	rs, err := scanRecordSet(row)
	if err != nil {
		return nil, mapErr(err, "failed to get recordset %s", id)
	}
	if err := db.loadRecords(ctx, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// FindRecordSets lists recordsets with their records.
func (db *DB) FindRecordSets(ctx context.Context, sc Scope, f RecordSetFilter, opts ListOpts) ([]RecordSet, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	conds := []string{"1=1"}
	var args []any
	if f.ZoneID != "" {
		conds = append(conds, "zone_id = ?")
		args = append(args, f.ZoneID)
	}
	if f.Name != "" {
		conds = append(conds, "name = ?")
		args = append(args, f.Name)
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if f.ExcludeID != "" {
		conds = append(conds, "id != ?")
		args = append(args, f.ExcludeID)
	}
	if f.Managed != nil {
		conds = append(conds, "managed = ?")
		args = append(args, *f.Managed)
	}
	if opts.Marker != "" {
		conds = append(conds, "id > ?")
		args = append(args, opts.Marker)
	}

	clause, extra := pagination(opts, map[string]bool{"name": true, "created_at": true, "id": true}, "name")
	args = append(args, extra...)

	query := "SELECT " + recordsetColumns + " FROM recordsets WHERE " + strings.Join(conds, " AND ") + clause
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "failed to query recordsets")
	}
	defer rows.Close()

	var sets []RecordSet
	for rows.Next() {
		rs, err := scanRecordSet(rows)
		if err != nil {
			return nil, mapErr(err, "failed to scan recordset")
		}
		sets = append(sets, *rs)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "error iterating recordsets")
	}

	for i := range sets {
		if err := db.loadRecords(ctx, &sets[i]); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

// CountRecordSets counts a zone's recordsets, for quota checks.
func (db *DB) CountRecordSets(ctx context.Context, sc Scope, zoneID string) (int, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM recordsets WHERE zone_id = ?", zoneID).Scan(&n)
	return n, mapErr(err, "failed to count recordsets for zone %s", zoneID)
}

// UpdateRecordSet persists recordset attributes (not its records).
func (db *DB) UpdateRecordSet(ctx context.Context, sc Scope, rs *RecordSet) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	rs.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE recordsets SET ttl = ?, managed = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		rs.TTL, rs.Managed, rs.UpdatedAt, rs.ID, rs.Version)
	if err != nil {
		return mapErr(err, "failed to update recordset %s", rs.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, "failed to update recordset %s", rs.ID)
	}
	if n == 0 {
		return errs.New(errs.KindConflict, "recordset %s was modified concurrently (version %d)", rs.ID, rs.Version)
	}
	rs.Version++
	return nil
}

// DeleteRecordSet removes the recordset row; records cascade.
func (db *DB) DeleteRecordSet(ctx context.Context, sc Scope, id string) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, "DELETE FROM recordsets WHERE id = ?", id)
	if err != nil {
		return mapErr(err, "failed to delete recordset %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, "failed to delete recordset %s", id)
	}
	if n == 0 {
		return errs.NotFound("recordset", id)
	}
	return nil
}

func (db *DB) loadRecords(ctx context.Context, rs *RecordSet) error {
	records, err := db.FindRecords(ctx, Scope{AllTenants: true}, RecordFilter{RecordSetID: rs.ID}, ListOpts{})
	if err != nil {
		return err
	}
	rs.Records = records
	return nil
}
