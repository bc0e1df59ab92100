package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/openstack/designate-sub004/internal/errs"
)

// ZoneFilter selects zones in FindZones. Zero values are ignored.
// NameSuffix matches zones whose name ends with the given suffix, which is
// how subdomain/superdomain resolution walks the tree.
type ZoneFilter struct {
	TenantID     string
	Name         string
	NameSuffix   string
	Type         ZoneType
	Status       Status
	Action       Action
	PoolID       string
	ParentZoneID string
}

const zoneColumns = `id, tenant_id, name, email, ttl, serial, type, status, action,
	pool_id, masters, parent_zone_id, transferred_at, version, created_at, updated_at`

func scanZone(row interface{ Scan(...any) error }) (*Zone, error) {
	var z Zone
	var masters string
	var transferred sql.NullTime
	err := row.Scan(&z.ID, &z.TenantID, &z.Name, &z.Email, &z.TTL, &z.Serial,
		&z.Type, &z.Status, &z.Action, &z.PoolID, &masters, &z.ParentZoneID,
		&transferred, &z.Version, &z.CreatedAt, &z.UpdatedAt)
	if err != nil {
		return nil, err
	}
	z.Masters = splitHosts(masters)
	if transferred.Valid {
		t := transferred.Time
		z.TransferredAt = &t
	}
	return &z, nil
}

// CreateZone inserts a zone. A duplicate name surfaces as a Conflict.
func (db *DB) CreateZone(ctx context.Context, sc Scope, z *Zone) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	z.Version = 1
	z.CreatedAt = now
	z.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO zones (id, tenant_id, name, email, ttl, serial, type, status, action,
			pool_id, masters, parent_zone_id, transferred_at, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		z.ID, z.TenantID, z.Name, z.Email, z.TTL, z.Serial, z.Type, z.Status, z.Action,
		z.PoolID, joinHosts(z.Masters), z.ParentZoneID, nullableTime(z.TransferredAt),
		z.Version, z.CreatedAt, z.UpdatedAt)
	return mapErr(err, "failed to create zone %s", z.Name)
}

// GetZone fetches a zone by id within the scope's tenant.
func (db *DB) GetZone(ctx context.Context, sc Scope, id string) (*Zone, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	query := "SELECT " + zoneColumns + " FROM zones WHERE id = ?"
	args := []any{id}
	if !sc.AllTenants {
		query += " AND tenant_id = ?"
		args = append(args, sc.TenantID)
	}

	z, err := scanZone(db.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(err, "failed to get zone %s", id)
	}
	return z, nil
}

// GetZoneByName fetches a zone by its FQDN.
func (db *DB) GetZoneByName(ctx context.Context, sc Scope, name string) (*Zone, error) {
	zones, err := db.FindZones(ctx, sc, ZoneFilter{Name: name}, ListOpts{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(zones) == 0 {
		return nil, errs.NotFound("zone", name)
	}
	return &zones[0], nil
}

// FindZones lists zones matching the filter within the scope.
func (db *DB) FindZones(ctx context.Context, sc Scope, f ZoneFilter, opts ListOpts) ([]Zone, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	conds := []string{"1=1"}
	var args []any
	if !sc.AllTenants {
		conds = append(conds, "tenant_id = ?")
		args = append(args, sc.TenantID)
	}
	if f.TenantID != "" {
		conds = append(conds, "tenant_id = ?")
		args = append(args, f.TenantID)
	}
	if f.Name != "" {
		conds = append(conds, "name = ?")
		args = append(args, f.Name)
	}
	if f.NameSuffix != "" {
		conds = append(conds, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.NameSuffix))
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, f.Action)
	}
	if f.PoolID != "" {
		conds = append(conds, "pool_id = ?")
		args = append(args, f.PoolID)
	}
	if f.ParentZoneID != "" {
		conds = append(conds, "parent_zone_id = ?")
		args = append(args, f.ParentZoneID)
	}
	if opts.Marker != "" {
		conds = append(conds, "id > ?")
		args = append(args, opts.Marker)
	}

	clause, extra := pagination(opts, map[string]bool{"name": true, "created_at": true, "id": true}, "name")
	args = append(args, extra...)

	query := "SELECT " + zoneColumns + " FROM zones WHERE " + strings.Join(conds, " AND ") + clause
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "failed to query zones")
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, mapErr(err, "failed to scan zone")
		}
		zones = append(zones, *z)
	}
	return zones, mapErr(rows.Err(), "error iterating zones")
}

// CountZones counts a tenant's zones, for quota checks.
func (db *DB) CountZones(ctx context.Context, sc Scope, tenantID string) (int, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM zones WHERE tenant_id = ?", tenantID).Scan(&n)
	return n, mapErr(err, "failed to count zones for tenant %s", tenantID)
}

// UpdateZone persists a zone, bumping its version. A stale Version is a
// Conflict so concurrent writers detect each other.
func (db *DB) UpdateZone(ctx context.Context, sc Scope, z *Zone) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	z.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE zones SET email = ?, ttl = ?, serial = ?, status = ?, action = ?,
			pool_id = ?, masters = ?, parent_zone_id = ?, transferred_at = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		z.Email, z.TTL, z.Serial, z.Status, z.Action,
		z.PoolID, joinHosts(z.Masters), z.ParentZoneID, nullableTime(z.TransferredAt),
		z.UpdatedAt, z.ID, z.Version)
	if err != nil {
		return mapErr(err, "failed to update zone %s", z.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, "failed to update zone %s", z.ID)
	}
	if n == 0 {
		return errs.New(errs.KindConflict, "zone %s was modified concurrently (version %d)", z.ID, z.Version)
	}
	z.Version++
	return nil
}

// DeleteZone removes the zone row. Recordsets and records cascade.
func (db *DB) DeleteZone(ctx context.Context, sc Scope, id string) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, "DELETE FROM zones WHERE id = ?", id)
	if err != nil {
		return mapErr(err, "failed to delete zone %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, "failed to delete zone %s", id)
	}
	if n == 0 {
		return errs.NotFound("zone", id)
	}
	return nil
}

func escapeLike(s string) string {
	// Backslash first, it is the escape character itself.
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
