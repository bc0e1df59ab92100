package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/openstack/designate-sub004/internal/errs"
)

// CreatePool inserts a pool with its nameservers and targets.
func (db *DB) CreatePool(ctx context.Context, sc Scope, p *Pool) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	attrs, err := marshalMap(p.Attributes)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO pools (id, name, attributes, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		p.ID, p.Name, attrs, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapErr(err, "failed to create pool %s", p.Name)
	}

	if err := insertPoolChildren(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr(err, "failed to commit pool %s", p.ID)
	}
	return nil
}

func insertPoolChildren(ctx context.Context, tx *sql.Tx, p *Pool) error {
	for i := range p.NsRecords {
		ns := &p.NsRecords[i]
		if ns.ID == "" {
			ns.ID = uuid.NewString()
		}
		ns.PoolID = p.ID
		_, err := tx.ExecContext(ctx,
			"INSERT INTO pool_ns_records (id, pool_id, priority, hostname) VALUES (?, ?, ?, ?)",
			ns.ID, ns.PoolID, ns.Priority, ns.Hostname)
		if err != nil {
			return mapErr(err, "failed to insert pool nameserver %s", ns.Hostname)
		}
	}
	for i := range p.Targets {
		t := &p.Targets[i]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.PoolID = p.ID
		opts, err := marshalMap(t.Options)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO pool_targets (id, pool_id, type, masters, options) VALUES (?, ?, ?, ?, ?)",
			t.ID, t.PoolID, t.Type, joinHosts(t.Masters), opts)
		if err != nil {
			return mapErr(err, "failed to insert pool target %s", t.ID)
		}
	}
	return nil
}

// GetPool fetches a pool with nameservers and targets.
func (db *DB) GetPool(ctx context.Context, sc Scope, id string) (*Pool, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	var p Pool
	var attrs string
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, name, attributes, created_at, updated_at FROM pools WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &attrs, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, "failed to get pool %s", id)
	}
	if p.Attributes, err = unmarshalMap(attrs); err != nil {
		return nil, err
	}
	if err := db.loadPoolChildren(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) loadPoolChildren(ctx context.Context, p *Pool) error {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, pool_id, priority, hostname FROM pool_ns_records WHERE pool_id = ? ORDER BY priority, hostname", p.ID)
	if err != nil {
		return mapErr(err, "failed to query pool nameservers")
	}
	defer rows.Close()
	for rows.Next() {
		var ns PoolNsRecord
		if err := rows.Scan(&ns.ID, &ns.PoolID, &ns.Priority, &ns.Hostname); err != nil {
			return mapErr(err, "failed to scan pool nameserver")
		}
		p.NsRecords = append(p.NsRecords, ns)
	}
	if err := rows.Err(); err != nil {
		return mapErr(err, "error iterating pool nameservers")
	}

	trows, err := db.conn.QueryContext(ctx,
		"SELECT id, pool_id, type, masters, options FROM pool_targets WHERE pool_id = ? ORDER BY id", p.ID)
	if err != nil {
		return mapErr(err, "failed to query pool targets")
	}
	defer trows.Close()
	for trows.Next() {
		var t PoolTarget
		var masters, opts string
		if err := trows.Scan(&t.ID, &t.PoolID, &t.Type, &masters, &opts); err != nil {
			return mapErr(err, "failed to scan pool target")
		}
		t.Masters = splitHosts(masters)
		if t.Options, err = unmarshalMap(opts); err != nil {
			return err
		}
		p.Targets = append(p.Targets, t)
	}
	return mapErr(trows.Err(), "error iterating pool targets")
}

// FindPools lists all pools.
func (db *DB) FindPools(ctx context.Context, sc Scope, opts ListOpts) ([]Pool, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	clause, extra := pagination(opts, map[string]bool{"name": true, "id": true}, "name")
	query := "SELECT id, name, attributes, created_at, updated_at FROM pools WHERE 1=1"
	var args []any
	if opts.Marker != "" {
		query += " AND id > ?"
		args = append(args, opts.Marker)
	}
	query += clause
	args = append(args, extra...)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "failed to query pools")
	}
	defer rows.Close()

	var pools []Pool
	for rows.Next() {
		var p Pool
		var attrs string
		if err := rows.Scan(&p.ID, &p.Name, &attrs, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, mapErr(err, "failed to scan pool")
		}
		if p.Attributes, err = unmarshalMap(attrs); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "error iterating pools")
	}

	for i := range pools {
		if err := db.loadPoolChildren(ctx, &pools[i]); err != nil {
			return nil, err
		}
	}
	return pools, nil
}

// UpdatePool replaces the pool's attributes, nameservers and targets.
func (db *DB) UpdatePool(ctx context.Context, sc Scope, p *Pool) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	attrs, err := marshalMap(p.Attributes)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"UPDATE pools SET name = ?, attributes = ?, updated_at = ? WHERE id = ?",
		p.Name, attrs, p.UpdatedAt, p.ID)
	if err != nil {
		return mapErr(err, "failed to update pool %s", p.ID)
	}
	if n, err := res.RowsAffected(); err != nil {
		return mapErr(err, "failed to update pool %s", p.ID)
	} else if n == 0 {
		return errs.NotFound("pool", p.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM pool_ns_records WHERE pool_id = ?", p.ID); err != nil {
		return mapErr(err, "failed to clear pool nameservers")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pool_targets WHERE pool_id = ?", p.ID); err != nil {
		return mapErr(err, "failed to clear pool targets")
	}
	if err := insertPoolChildren(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr(err, "failed to commit pool %s", p.ID)
	}
	return nil
}

// DeletePool removes a pool and its children.
func (db *DB) DeletePool(ctx context.Context, sc Scope, id string) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, "DELETE FROM pools WHERE id = ?", id)
	if err != nil {
		return mapErr(err, "failed to delete pool %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, "failed to delete pool %s", id)
	}
	if n == 0 {
		return errs.NotFound("pool", id)
	}
	return nil
}

// UpsertTargetStatus records the latest sync outcome for (target, zone).
func (db *DB) UpsertTargetStatus(ctx context.Context, sc Scope, s *PoolTargetStatus) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.UpdatedAt = time.Now().UTC()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO pool_target_statuses (id, target_id, zone_id, action, status, serial_number, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(target_id, zone_id) DO UPDATE SET
			action = excluded.action,
			status = excluded.status,
			serial_number = excluded.serial_number,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		s.ID, s.TargetID, s.ZoneID, s.Action, s.Status, s.SerialNumber, s.Error, s.UpdatedAt)
	return mapErr(err, "failed to upsert target status for zone %s", s.ZoneID)
}

// FindTargetStatuses lists sync statuses for a zone.
func (db *DB) FindTargetStatuses(ctx context.Context, sc Scope, zoneID string) ([]PoolTargetStatus, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, target_id, zone_id, action, status, serial_number, error, updated_at
		FROM pool_target_statuses WHERE zone_id = ? ORDER BY target_id`, zoneID)
	if err != nil {
		return nil, mapErr(err, "failed to query target statuses")
	}
	defer rows.Close()

	var statuses []PoolTargetStatus
	for rows.Next() {
		var s PoolTargetStatus
		if err := rows.Scan(&s.ID, &s.TargetID, &s.ZoneID, &s.Action, &s.Status,
			&s.SerialNumber, &s.Error, &s.UpdatedAt); err != nil {
			return nil, mapErr(err, "failed to scan target status")
		}
		statuses = append(statuses, s)
	}
	return statuses, mapErr(rows.Err(), "error iterating target statuses")
}

// DeleteTargetStatuses clears a zone's sync statuses, used when the zone is
// purged or moved to another pool.
func (db *DB) DeleteTargetStatuses(ctx context.Context, sc Scope, zoneID string) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, "DELETE FROM pool_target_statuses WHERE zone_id = ?", zoneID)
	return mapErr(err, "failed to delete target statuses for zone %s", zoneID)
}
