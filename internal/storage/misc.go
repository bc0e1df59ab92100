package storage

import (
	"context"
	"database/sql"
	"time"
)

// --- TLDs ---

// CreateTLD registers an allowed top-level domain.
func (db *DB) CreateTLD(ctx context.Context, sc Scope, t *TLD) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()
	_, err := db.conn.ExecContext(ctx, "INSERT INTO tlds (id, name) VALUES (?, ?)", t.ID, t.Name)
	return mapErr(err, "failed to create tld %s", t.Name)
}

// DeleteTLD removes a TLD by id.
func (db *DB) DeleteTLD(ctx context.Context, sc Scope, id string) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()
	return db.deleteByID(ctx, "tlds", "tld", id)
}

// FindTLDs lists all TLDs.
func (db *DB) FindTLDs(ctx context.Context, sc Scope) ([]TLD, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, "SELECT id, name FROM tlds ORDER BY name")
	if err != nil {
		return nil, mapErr(err, "failed to query tlds")
	}
	defer rows.Close()

	var tlds []TLD
	for rows.Next() {
		var t TLD
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, mapErr(err, "failed to scan tld")
		}
		tlds = append(tlds, t)
	}
	return tlds, mapErr(rows.Err(), "error iterating tlds")
}

// HasTLDs reports whether any TLDs are configured. When none are, zone
// name validation skips the TLD table check.
func (db *DB) HasTLDs(ctx context.Context, sc Scope) (bool, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM tlds").Scan(&n)
	return n > 0, mapErr(err, "failed to count tlds")
}

// HasTLD reports whether name is a configured TLD.
func (db *DB) HasTLD(ctx context.Context, sc Scope, name string) (bool, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM tlds WHERE name = ?", name).Scan(&n)
	return n > 0, mapErr(err, "failed to look up tld %s", name)
}

// --- Blacklists ---

// CreateBlacklist registers a forbidden zone-name pattern.
func (db *DB) CreateBlacklist(ctx context.Context, sc Scope, b *Blacklist) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO blacklists (id, pattern, description) VALUES (?, ?, ?)",
		b.ID, b.Pattern, b.Description)
	return mapErr(err, "failed to create blacklist %s", b.Pattern)
}

// GetBlacklist fetches a blacklist entry by id.
func (db *DB) GetBlacklist(ctx context.Context, sc Scope, id string) (*Blacklist, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	var b Blacklist
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, pattern, description FROM blacklists WHERE id = ?", id).
		Scan(&b.ID, &b.Pattern, &b.Description)
	if err != nil {
		return nil, mapErr(err, "failed to get blacklist %s", id)
	}
	return &b, nil
}

// UpdateBlacklist persists pattern/description changes.
func (db *DB) UpdateBlacklist(ctx context.Context, sc Scope, b *Blacklist) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()
	_, err := db.conn.ExecContext(ctx,
		"UPDATE blacklists SET pattern = ?, description = ? WHERE id = ?",
		b.Pattern, b.Description, b.ID)
	return mapErr(err, "failed to update blacklist %s", b.ID)
}

// DeleteBlacklist removes a blacklist entry.
func (db *DB) DeleteBlacklist(ctx context.Context, sc Scope, id string) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()
	return db.deleteByID(ctx, "blacklists", "blacklist", id)
}

// FindBlacklists lists all blacklist patterns.
func (db *DB) FindBlacklists(ctx context.Context, sc Scope) ([]Blacklist, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, "SELECT id, pattern, description FROM blacklists ORDER BY pattern")
	if err != nil {
		return nil, mapErr(err, "failed to query blacklists")
	}
	defer rows.Close()

	var items []Blacklist
	for rows.Next() {
		var b Blacklist
		if err := rows.Scan(&b.ID, &b.Pattern, &b.Description); err != nil {
			return nil, mapErr(err, "failed to scan blacklist")
		}
		items = append(items, b)
	}
	return items, mapErr(rows.Err(), "error iterating blacklists")
}

// --- TSIG keys ---

// CreateTsigKey registers a TSIG key.
func (db *DB) CreateTsigKey(ctx context.Context, sc Scope, k *TsigKey) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO tsigkeys (id, name, algorithm, secret, scope, resource_id) VALUES (?, ?, ?, ?, ?, ?)",
		k.ID, k.Name, k.Algorithm, k.Secret, k.Scope, k.ResourceID)
	return mapErr(err, "failed to create tsig key %s", k.Name)
}

// GetTsigKey fetches a TSIG key by id.
func (db *DB) GetTsigKey(ctx context.Context, sc Scope, id string) (*TsigKey, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	var k TsigKey
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, name, algorithm, secret, scope, resource_id FROM tsigkeys WHERE id = ?", id).
		Scan(&k.ID, &k.Name, &k.Algorithm, &k.Secret, &k.Scope, &k.ResourceID)
	if err != nil {
		return nil, mapErr(err, "failed to get tsig key %s", id)
	}
	return &k, nil
}

// UpdateTsigKey persists TSIG key changes.
func (db *DB) UpdateTsigKey(ctx context.Context, sc Scope, k *TsigKey) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()
	_, err := db.conn.ExecContext(ctx,
		"UPDATE tsigkeys SET name = ?, algorithm = ?, secret = ?, scope = ?, resource_id = ? WHERE id = ?",
		k.Name, k.Algorithm, k.Secret, k.Scope, k.ResourceID, k.ID)
	return mapErr(err, "failed to update tsig key %s", k.ID)
}

// DeleteTsigKey removes a TSIG key.
func (db *DB) DeleteTsigKey(ctx context.Context, sc Scope, id string) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()
	return db.deleteByID(ctx, "tsigkeys", "tsigkey", id)
}

// FindTsigKeys lists all TSIG keys.
func (db *DB) FindTsigKeys(ctx context.Context, sc Scope) ([]TsigKey, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, name, algorithm, secret, scope, resource_id FROM tsigkeys ORDER BY name")
	if err != nil {
		return nil, mapErr(err, "failed to query tsig keys")
	}
	defer rows.Close()

	var keys []TsigKey
	for rows.Next() {
		var k TsigKey
		if err := rows.Scan(&k.ID, &k.Name, &k.Algorithm, &k.Secret, &k.Scope, &k.ResourceID); err != nil {
			return nil, mapErr(err, "failed to scan tsig key")
		}
		keys = append(keys, k)
	}
	return keys, mapErr(rows.Err(), "error iterating tsig keys")
}

// --- Quotas ---

// GetQuotas returns the per-tenant quota overrides keyed by resource name.
func (db *DB) GetQuotas(ctx context.Context, sc Scope, tenantID string) (map[string]int, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT resource, hard_limit FROM quotas WHERE tenant_id = ?", tenantID)
	if err != nil {
		return nil, mapErr(err, "failed to query quotas for tenant %s", tenantID)
	}
	defer rows.Close()

	quotas := map[string]int{}
	for rows.Next() {
		var resource string
		var limit int
		if err := rows.Scan(&resource, &limit); err != nil {
			return nil, mapErr(err, "failed to scan quota")
		}
		quotas[resource] = limit
	}
	return quotas, mapErr(rows.Err(), "error iterating quotas")
}

// SetQuota writes a per-tenant quota override.
func (db *DB) SetQuota(ctx context.Context, sc Scope, tenantID, resource string, limit int) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO quotas (tenant_id, resource, hard_limit) VALUES (?, ?, ?)
		ON CONFLICT(tenant_id, resource) DO UPDATE SET hard_limit = excluded.hard_limit`,
		tenantID, resource, limit)
	return mapErr(err, "failed to set quota %s for tenant %s", resource, tenantID)
}

// ResetQuotas drops all overrides for a tenant, reverting to defaults.
func (db *DB) ResetQuotas(ctx context.Context, sc Scope, tenantID string) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, "DELETE FROM quotas WHERE tenant_id = ?", tenantID)
	return mapErr(err, "failed to reset quotas for tenant %s", tenantID)
}

// --- Zone import/export tasks ---

// CreateZoneTask inserts a transient import/export job.
func (db *DB) CreateZoneTask(ctx context.Context, sc Scope, t *ZoneTask) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO zone_tasks (id, tenant_id, zone_id, task_type, status, message, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TenantID, t.ZoneID, t.TaskType, t.Status, t.Message, t.Location, t.CreatedAt, t.UpdatedAt)
	return mapErr(err, "failed to create zone task %s", t.ID)
}

// GetZoneTask fetches a task within the scope's tenant.
func (db *DB) GetZoneTask(ctx context.Context, sc Scope, id string) (*ZoneTask, error) {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	query := "SELECT id, tenant_id, zone_id, task_type, status, message, location, created_at, updated_at FROM zone_tasks WHERE id = ?"
	args := []any{id}
	if !sc.AllTenants {
		query += " AND tenant_id = ?"
		args = append(args, sc.TenantID)
	}

	var t ZoneTask
	err := db.conn.QueryRowContext(ctx, query, args...).
		Scan(&t.ID, &t.TenantID, &t.ZoneID, &t.TaskType, &t.Status, &t.Message, &t.Location, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, "failed to get zone task %s", id)
	}
	return &t, nil
}

// UpdateZoneTask persists task progress. Terminal tasks are never updated.
func (db *DB) UpdateZoneTask(ctx context.Context, sc Scope, t *ZoneTask) error {
	ctx, cancel := db.callCtx(ctx)
	defer cancel()

	t.UpdatedAt = time.Now().UTC()
	_, err := db.conn.ExecContext(ctx, `
		UPDATE zone_tasks SET status = ?, message = ?, location = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		t.Status, t.Message, t.Location, t.UpdatedAt, t.ID, TaskStatusPending)
	return mapErr(err, "failed to update zone task %s", t.ID)
}

// --- shared helpers ---

func (db *DB) deleteByID(ctx context.Context, table, resource, id string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return mapErr(err, "failed to delete %s %s", resource, id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, "failed to delete %s %s", resource, id)
	}
	if n == 0 {
		return mapErr(sql.ErrNoRows, "failed to delete %s %s", resource, id)
	}
	return nil
}
