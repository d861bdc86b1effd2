package tablekv

import (
	"fmt"
	"strings"
	"time"
)

// Driver selects the backend dialect a Store speaks.
type Driver string

const (
	// DriverPostgres is the default backend.
	DriverPostgres Driver = "postgres"
	// DriverSQLite targets an embedded SQLite database. Used by the test
	// suite and for single-file deployments.
	DriverSQLite Driver = "sqlite"
)

// TableType controls write durability of the backing table.
type TableType string

const (
	// TableUnlogged skips write-ahead logging for maximum write throughput.
	// The table's contents do not survive an unclean shutdown.
	TableUnlogged TableType = "unlogged"
	// TableRegular is a fully durable table.
	TableRegular TableType = "regular"
)

// CleanupStrategy governs whether and when expired rows are removed.
type CleanupStrategy string

const (
	// CleanupOnRead treats expired rows as misses and best-effort deletes
	// them when a single-row read encounters one. The default.
	CleanupOnRead CleanupStrategy = "on_read"
	// CleanupManual treats expired rows as misses but leaves them in place
	// until CleanupExpired is called.
	CleanupManual CleanupStrategy = "manual"
	// CleanupDisabled never evaluates expiry; rows are returned regardless
	// of their expiration timestamp.
	CleanupDisabled CleanupStrategy = "disabled"
)

// maxIdentifierLength is PostgreSQL's identifier length limit, applied to
// table names for both dialects so configurations stay portable.
const maxIdentifierLength = 63

// Config holds every setting a Store needs. Build one with NewConfig plus
// the chained With* setters; it is validated once at Open and never mutated
// afterward.
type Config struct {
	dsn             string
	driver          Driver
	tableName       string
	schema          string
	tableType       TableType
	autoCreateTable bool
	cleanupStrategy CleanupStrategy
	maxKeyLength    int
	maxValueSize    int
	connectTimeout  time.Duration
	applicationName string
}

// NewConfig returns a Config for the given connection string with defaults:
// postgres driver, table "kv_store", unlogged, auto-create enabled, on-read
// cleanup, 1 KiB max key, 100 MiB max value, 10s connect timeout.
func NewConfig(dsn string) Config {
	return Config{
		dsn:             dsn,
		driver:          DriverPostgres,
		tableName:       "kv_store",
		tableType:       TableUnlogged,
		autoCreateTable: true,
		cleanupStrategy: CleanupOnRead,
		maxKeyLength:    1024,
		maxValueSize:    100 * 1024 * 1024,
		connectTimeout:  10 * time.Second,
	}
}

// WithDriver selects the backend dialect.
func (c Config) WithDriver(d Driver) Config {
	c.driver = d
	return c
}

// WithTableName sets the table the Store reads and writes.
func (c Config) WithTableName(name string) Config {
	c.tableName = name
	return c
}

// WithSchema qualifies the table with a schema.
func (c Config) WithSchema(schema string) Config {
	c.schema = schema
	return c
}

// WithTableType sets the durability mode used when the table is created.
func (c Config) WithTableType(t TableType) Config {
	c.tableType = t
	return c
}

// WithAutoCreateTable controls whether Open issues idempotent DDL for the
// table and its expiry index.
func (c Config) WithAutoCreateTable(create bool) Config {
	c.autoCreateTable = create
	return c
}

// WithCleanupStrategy sets the TTL cleanup strategy.
func (c Config) WithCleanupStrategy(s CleanupStrategy) Config {
	c.cleanupStrategy = s
	return c
}

// WithMaxKeyLength caps key length in bytes on every write path.
func (c Config) WithMaxKeyLength(n int) Config {
	c.maxKeyLength = n
	return c
}

// WithMaxValueSize caps value size in bytes on every write path.
func (c Config) WithMaxValueSize(n int) Config {
	c.maxValueSize = n
	return c
}

// WithConnectTimeout bounds connection establishment.
func (c Config) WithConnectTimeout(d time.Duration) Config {
	c.connectTimeout = d
	return c
}

// WithApplicationName sets the application_name reported to the backend
// (visible in pg_stat_activity). Ignored by the sqlite dialect.
func (c Config) WithApplicationName(name string) Config {
	c.applicationName = name
	return c
}

// Driver returns the configured backend dialect.
func (c Config) Driver() Driver { return c.driver }

// Table returns the configured (unqualified, unquoted) table name.
func (c Config) Table() string { return c.tableName }

func (c Config) validate() error {
	if c.dsn == "" {
		return configErr("connection string cannot be empty")
	}
	if c.tableName == "" {
		return configErr("table name cannot be empty")
	}
	if len(c.tableName) > maxIdentifierLength {
		return configErr(fmt.Sprintf("table name exceeds the %d character identifier limit", maxIdentifierLength))
	}
	if c.maxKeyLength <= 0 {
		return configErr("max key length must be greater than 0")
	}
	if c.maxValueSize <= 0 {
		return configErr("max value size must be greater than 0")
	}
	switch c.driver {
	case DriverPostgres, DriverSQLite:
	default:
		return configErr(fmt.Sprintf("unknown driver %q", c.driver))
	}
	switch c.tableType {
	case TableUnlogged, TableRegular:
	default:
		return configErr(fmt.Sprintf("unknown table type %q", c.tableType))
	}
	switch c.cleanupStrategy {
	case CleanupOnRead, CleanupManual, CleanupDisabled:
	default:
		return configErr(fmt.Sprintf("unknown cleanup strategy %q", c.cleanupStrategy))
	}
	return nil
}

// qualifiedTableName returns the quoted, schema-qualified identifier.
func (c Config) qualifiedTableName() string {
	if c.schema != "" {
		return quoteIdent(c.schema) + "." + quoteIdent(c.tableName)
	}
	return quoteIdent(c.tableName)
}

// ttlEnabled reports whether expiry is evaluated on reads at all.
func (c Config) ttlEnabled() bool {
	return c.cleanupStrategy != CleanupDisabled
}

// cleanupOnRead reports whether single-row reads lazily delete expired rows.
func (c Config) cleanupOnRead() bool {
	return c.cleanupStrategy == CleanupOnRead
}

// quoteIdent quotes an SQL identifier, doubling embedded quotes so
// configuration values cannot inject identifiers.
func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
