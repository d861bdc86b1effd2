package tablekv

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"
	_ "modernc.org/sqlite"             // database/sql driver "sqlite"
)

// dialect is the narrow seam between the store engine and a concrete SQL
// backend: placeholder style, DDL, the handful of statements whose shape is
// engine-specific, and error classification. Data values always travel as
// bound parameters; only identifiers are interpolated, pre-quoted.
type dialect interface {
	driverName() string
	normalizeDSN(cfg Config) string
	// rebind converts $N placeholders in a statement template to the
	// dialect's numbered placeholder style.
	rebind(query string) string
	// placeholder returns the 1-based numbered placeholder, for statements
	// built incrementally.
	placeholder(n int) string
	// setupStatements run once per connection lifetime, right after Open.
	setupStatements(cfg Config) []string
	createTable(cfg Config, table string) []string
	truncate(table string) string
	vacuum(table string) string
	analyze(table string) string
	// increment is the atomic counter upsert. Args: $1 key, $2 delta as
	// decimal bytes, $3 now, $4 delta. Returns the new value as an integer.
	increment(table string) string
	// preImageUpsert is an upsert that returns the pre-update value in the
	// same statement. ok is false when the engine cannot express it.
	preImageUpsert(table string) (query string, ok bool)
	sizeStats(q Querier, table string) (tableBytes, indexBytes int64, err error)
	isConnClosed(err error) bool
	isMissingTable(err error) bool
}

func dialectFor(d Driver) dialect {
	if d == DriverSQLite {
		return sqliteDialect{}
	}
	return postgresDialect{}
}

// ---- postgres ----

type postgresDialect struct{}

func (postgresDialect) driverName() string { return "pgx" }

func (postgresDialect) normalizeDSN(cfg Config) string {
	dsn := cfg.dsn
	if cfg.applicationName == "" {
		return dsn
	}
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "application_name=" + url.QueryEscape(cfg.applicationName)
	}
	// key=value DSN form
	return dsn + " application_name='" + strings.ReplaceAll(cfg.applicationName, "'", `\'`) + "'"
}

func (postgresDialect) rebind(query string) string { return query }

func (postgresDialect) placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) setupStatements(Config) []string { return nil }

func (postgresDialect) createTable(cfg Config, table string) []string {
	keyword := ""
	if cfg.tableType == TableUnlogged {
		keyword = "UNLOGGED "
	}
	create := fmt.Sprintf(`CREATE %sTABLE IF NOT EXISTS %s (
	key         TEXT PRIMARY KEY,
	value       BYTEA NOT NULL,
	expires_at  TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, keyword, table)
	index := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON %s (expires_at) WHERE expires_at IS NOT NULL`,
		quoteIdent(cfg.tableName+"_expires_idx"), table)
	return []string{create, index}
}

func (postgresDialect) truncate(table string) string { return "TRUNCATE " + table }

func (postgresDialect) vacuum(table string) string { return "VACUUM " + table }

func (postgresDialect) analyze(table string) string { return "ANALYZE " + table }

func (postgresDialect) increment(table string) string {
	// encode(...,'escape') never fails on arbitrary bytea; a value that is
	// not decimal text counts as 0.
	return fmt.Sprintf(`INSERT INTO %s AS kv (key, value, created_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (key) DO UPDATE SET
	value = ((CASE WHEN encode(kv.value, 'escape') ~ '^-?[0-9]+$'
		THEN encode(kv.value, 'escape')::bigint ELSE 0 END) + $4)::text::bytea,
	updated_at = $3
RETURNING encode(value, 'escape')::bigint`, table)
}

func (postgresDialect) preImageUpsert(table string) (string, bool) {
	// The RETURNING subquery runs against the statement's snapshot, so it
	// observes the pre-update row (NULL when the key was absent).
	return fmt.Sprintf(`INSERT INTO %[1]s (key, value, created_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = $3
RETURNING (SELECT value FROM %[1]s WHERE key = $1)`, table), true
}

func (postgresDialect) sizeStats(q Querier, table string) (int64, int64, error) {
	var tableBytes, indexBytes int64
	err := q.QueryRow(
		`SELECT pg_total_relation_size($1::regclass), pg_indexes_size($1::regclass)`,
		table,
	).Scan(&tableBytes, &indexBytes)
	return tableBytes, indexBytes, err
}

func (postgresDialect) isConnClosed(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// SQLSTATE class 08: connection exceptions.
		return strings.HasPrefix(pgErr.Code, "08")
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "conn closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "failed to connect")
}

func (postgresDialect) isMissingTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

// ---- sqlite ----

type sqliteDialect struct{}

func (sqliteDialect) driverName() string { return "sqlite" }

// normalizeDSN mirrors the usual modernc.org/sqlite conventions: pass file:
// DSNs through, map ":memory:" to a shared in-memory database, default
// plain paths to a read/write/create file URI. _time_format=sqlite makes
// the driver bind time.Time in a lexicographically comparable layout, which
// the expiry predicates rely on.
func (sqliteDialect) normalizeDSN(cfg Config) string {
	dsn := cfg.dsn
	switch {
	case strings.HasPrefix(dsn, "file:"):
		// Caller-provided URI: respect it, only add the time format.
	case dsn == ":memory:":
		dsn = "file::memory:?cache=shared"
	default:
		dsn = "file:" + dsn + "?mode=rwc"
	}
	if !strings.Contains(dsn, "_time_format=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_time_format=sqlite"
	}
	return dsn
}

func (sqliteDialect) rebind(query string) string {
	return strings.ReplaceAll(query, "$", "?")
}

func (sqliteDialect) placeholder(n int) string { return fmt.Sprintf("?%d", n) }

// setupStatements applies the session pragmas. busy_timeout makes
// concurrent writers wait instead of failing; WAL allows readers alongside
// one writer. The unlogged durability mode maps to synchronous=OFF, the
// same throughput-for-crash-safety trade the postgres dialect makes with
// UNLOGGED tables.
func (sqliteDialect) setupStatements(cfg Config) []string {
	sync := "NORMAL"
	if cfg.tableType == TableUnlogged {
		sync = "OFF"
	}
	return []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=" + sync,
	}
}

func (sqliteDialect) createTable(cfg Config, table string) []string {
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key         TEXT PRIMARY KEY,
	value       BLOB NOT NULL,
	expires_at  TIMESTAMP,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, table)
	index := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON %s (expires_at) WHERE expires_at IS NOT NULL`,
		quoteIdent(cfg.tableName+"_expires_idx"), table)
	return []string{create, index}
}

func (sqliteDialect) truncate(table string) string { return "DELETE FROM " + table }

func (sqliteDialect) vacuum(string) string { return "VACUUM" }

func (sqliteDialect) analyze(table string) string { return "ANALYZE " + table }

func (sqliteDialect) increment(table string) string {
	// CAST(blob AS INTEGER) parses a leading decimal and yields 0 for
	// anything else, matching the treat-as-zero rule.
	return fmt.Sprintf(`INSERT INTO %s (key, value, created_at, updated_at)
VALUES (?1, ?2, ?3, ?3)
ON CONFLICT (key) DO UPDATE SET
	value = CAST(CAST(CAST(value AS TEXT) AS INTEGER) + ?4 AS TEXT),
	updated_at = ?3
RETURNING CAST(value AS INTEGER)`, table)
}

func (sqliteDialect) preImageUpsert(string) (string, bool) {
	// SQLite's RETURNING observes post-update state; the store falls back
	// to a read-then-upsert transaction.
	return "", false
}

func (sqliteDialect) sizeStats(q Querier, _ string) (int64, int64, error) {
	var pageCount, pageSize int64
	if err := q.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, 0, err
	}
	if err := q.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, 0, err
	}
	// Whole-file size; SQLite has no per-table size accounting without the
	// dbstat extension.
	return pageCount * pageSize, 0, nil
}

func (sqliteDialect) isConnClosed(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "sql: database is closed")
}

func (sqliteDialect) isMissingTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}
