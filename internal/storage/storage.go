// Package storage is the single source of truth for control-plane state.
//
// It persists zones, recordsets, records, pools, TLDs, blacklists, TSIG
// keys, quotas and import/export tasks in SQLite. No component caches this
// state across requests; every reader and writer goes through here. The
// zone lock (internal/lock) protects the read-validate-write sequence, not
// SQLite's own consistency.
//
// Every call takes a tenant Scope; Scope.Elevated() crosses tenant
// boundaries for operations that must (subdomain checks, NS maintenance).
package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/openstack/designate-sub004/internal/errs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Scope identifies the tenant a call acts for.
type Scope struct {
	TenantID string
	// AllTenants lifts tenant filtering. Only the core hands this out.
	AllTenants bool
	// Admin marks callers holding the bypass privilege (blacklist
	// override, sub-minimum TTLs).
	Admin bool
}

// Elevated returns a copy of the scope that sees all tenants.
func (s Scope) Elevated() Scope {
	s.AllTenants = true
	return s
}

// ListOpts is marker/limit pagination with a whitelisted sort key.
type ListOpts struct {
	Marker  string
	Limit   int
	SortKey string
	SortDir string
}

// DB wraps the SQLite connection. All methods bound their queries with the
// configured call timeout and surface expiry as a Timeout-kind error.
type DB struct {
	conn    *sql.DB
	timeout time.Duration
}

// Open opens or creates the database at path and runs pending migrations.
func Open(path string, callTimeout time.Duration) (*DB, error) {
	// modernc.org/sqlite takes pragmas via _pragma; the mattn-style
	// _journal_mode/_foreign_keys parameters are silently ignored, which
	// would leave foreign keys off and break the delete cascades.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	db := &DB{conn: conn, timeout: callTimeout}

	if err := db.migrateUp(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Health checks database connectivity.
func (db *DB) Health() error {
	return db.conn.Ping()
}

func (db *DB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to init migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// callCtx derives the bounded context every storage query runs under.
func (db *DB) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.timeout)
}

// mapErr normalizes driver errors into the shared taxonomy.
func mapErr(err error, format string, args ...any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return errs.Wrap(errs.KindTimeout, err, format, args...)
	case errors.Is(err, sql.ErrNoRows):
		return errs.Wrap(errs.KindNotFound, err, format, args...)
	case isUniqueViolation(err):
		return errs.Wrap(errs.KindConflict, err, format, args...)
	default:
		return fmt.Errorf(format+": %w", append(args, err)...)
	}
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the message; the
	// driver's error type does not expose the extended code portably.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}

// joinHosts / splitHosts store a host list in a single TEXT column.
func joinHosts(hosts []string) string {
	return strings.Join(hosts, ",")
}

func splitHosts(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func marshalMap(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode options: %w", err)
	}
	return string(b), nil
}

func unmarshalMap(raw string) (map[string]string, error) {
	m := map[string]string{}
	if raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	return m, nil
}

// pagination renders marker/limit/sort clauses. sortable whitelists the
// sort key per table; callers pass their table's allowed set.
func pagination(opts ListOpts, sortable map[string]bool, defaultKey string) (string, []any) {
	key := defaultKey
	if opts.SortKey != "" && sortable[opts.SortKey] {
		key = opts.SortKey
	}
	dir := "ASC"
	if strings.EqualFold(opts.SortDir, "desc") {
		dir = "DESC"
	}

	clause := fmt.Sprintf(" ORDER BY %s %s", key, dir)
	var args []any
	if opts.Limit > 0 {
		clause += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	return clause, args
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
