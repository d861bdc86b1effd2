package tablekv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store is a key-value store backed by one relational table. It owns a
// single logical connection; operations are synchronous and must be
// serialized by the caller when shared across goroutines.
type Store struct {
	db    *sql.DB
	q     Querier
	d     dialect
	cfg   Config
	table string
	inTx  bool
}

// Connect opens a Store against dsn with the default configuration.
func Connect(dsn string) (*Store, error) {
	return Open(NewConfig(dsn))
}

// Open validates cfg, establishes the backend connection, applies the
// dialect's session setup and, when auto-create is enabled, issues the
// idempotent DDL for the table and its expiry index.
func Open(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	d := dialectFor(cfg.driver)
	db, err := sql.Open(d.driverName(), d.normalizeDSN(cfg))
	if err != nil {
		return nil, connectionErr(err)
	}

	// One logical connection: the atomic statements assume a single writer
	// per Store, and Transaction needs every call on the same session.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, connectionErr(err)
	}

	s := &Store{
		db:    db,
		q:     db,
		d:     d,
		cfg:   cfg,
		table: cfg.qualifiedTableName(),
	}

	for _, stmt := range d.setupStatements(cfg) {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, s.backendErr(fmt.Errorf("session setup %q: %w", stmt, err))
		}
	}

	if cfg.autoCreateTable {
		if err := s.createTable(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) createTable() error {
	for _, stmt := range s.d.createTable(s.cfg, s.table) {
		if _, err := s.q.Exec(stmt); err != nil {
			return s.backendErr(err)
		}
	}
	return nil
}

// RecreateTable drops and recreates the table. All data is lost.
func (s *Store) RecreateTable() error {
	if _, err := s.q.Exec("DROP TABLE IF EXISTS " + s.table); err != nil {
		return s.backendErr(err)
	}
	return s.createTable()
}

// Close releases the backend connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return connectionErr(err)
	}
	return nil
}

// Config returns the Store's immutable configuration.
func (s *Store) Config() Config { return s.cfg }

// TableName returns the quoted, schema-qualified table identifier.
func (s *Store) TableName() string { return s.table }

// Get returns the value for key. ok is false when the key is absent or
// expired; under the on-read cleanup strategy an expired row is also
// best-effort deleted.
func (s *Store) Get(key string) (value []byte, ok bool, err error) {
	if err := s.validateKey(key); err != nil {
		return nil, false, err
	}

	query := s.sqlf("SELECT value, expires_at FROM %s WHERE key = $1")
	var expiresAt sql.NullTime
	err = s.q.QueryRow(query, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.backendErr(err)
	}

	if s.cfg.ttlEnabled() && expiresAt.Valid && expiresAt.Time.Before(time.Now()) {
		if s.cfg.cleanupOnRead() {
			// Best-effort lazy delete; a miss is reported either way.
			_, _ = s.deleteRow(key)
		}
		return nil, false, nil
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

// GetOrErr is Get with absence mapped to a NotFound error carrying the key.
func (s *Store) GetOrErr(key string) ([]byte, error) {
	value, ok, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFoundErr(key)
	}
	return value, nil
}

// GetString returns the value as a string. It fails with an InvalidValue
// error when the stored bytes are not valid UTF-8.
func (s *Store) GetString(key string) (string, bool, error) {
	value, ok, err := s.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	str, valid := KeyValue{Value: value}.ValueString()
	if !valid {
		return "", false, invalidValueErr("value is not valid UTF-8")
	}
	return str, true, nil
}

// GetEntry returns the full row with metadata, with the same miss and
// expiry semantics as Get. A nil Entry means the key is absent.
func (s *Store) GetEntry(key string) (*Entry, error) {
	if err := s.validateKey(key); err != nil {
		return nil, err
	}

	query := s.sqlf("SELECT key, value, expires_at, created_at, updated_at FROM %s WHERE key = $1")
	var e Entry
	var expiresAt sql.NullTime
	err := s.q.QueryRow(query, key).Scan(&e.Key, &e.Value, &expiresAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.backendErr(err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		e.ExpiresAt = &t
	}

	if s.cfg.ttlEnabled() && e.Expired() {
		if s.cfg.cleanupOnRead() {
			_, _ = s.deleteRow(key)
		}
		return nil, nil
	}
	if e.Value == nil {
		e.Value = []byte{}
	}
	return &e, nil
}

// Set stores value under key with no expiration, inserting or overwriting.
func (s *Store) Set(key string, value []byte) error {
	return s.setInternal(key, value, nil)
}

// SetEx stores value under key, expiring after ttl.
func (s *Store) SetEx(key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)
	return s.setInternal(key, value, &expiresAt)
}

// SetAt stores value under key with an absolute expiration time, which may
// already be in the past.
func (s *Store) SetAt(key string, value []byte, expiresAt time.Time) error {
	return s.setInternal(key, value, &expiresAt)
}

func (s *Store) setInternal(key string, value []byte, expiresAt *time.Time) error {
	if err := s.validateKey(key); err != nil {
		return err
	}
	if err := s.validateValue(value); err != nil {
		return err
	}

	query := s.sqlf(`INSERT INTO %s (key, value, expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (key) DO UPDATE SET
	value = excluded.value,
	expires_at = excluded.expires_at,
	updated_at = excluded.updated_at`)

	if _, err := s.q.Exec(query, key, nonNilBytes(value), nullTime(expiresAt), time.Now().UTC()); err != nil {
		return s.backendErr(err)
	}
	return nil
}

// SetNX stores value only if the key does not already hold a row. Returns
// true when the write happened.
func (s *Store) SetNX(key string, value []byte) (bool, error) {
	return s.setNXInternal(key, value, nil)
}

// SetNXEx is SetNX with an expiration.
func (s *Store) SetNXEx(key string, value []byte, ttl time.Duration) (bool, error) {
	expiresAt := time.Now().Add(ttl)
	return s.setNXInternal(key, value, &expiresAt)
}

func (s *Store) setNXInternal(key string, value []byte, expiresAt *time.Time) (bool, error) {
	if err := s.validateKey(key); err != nil {
		return false, err
	}
	if err := s.validateValue(value); err != nil {
		return false, err
	}

	query := s.sqlf(`INSERT INTO %s (key, value, expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (key) DO NOTHING`)

	res, err := s.q.Exec(query, key, nonNilBytes(value), nullTime(expiresAt), time.Now().UTC())
	if err != nil {
		return false, s.backendErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.backendErr(err)
	}
	return n > 0, nil
}

// Delete removes key. Returns true iff a row existed and was removed;
// deleting an absent key is a no-op.
func (s *Store) Delete(key string) (bool, error) {
	if err := s.validateKey(key); err != nil {
		return false, err
	}
	return s.deleteRow(key)
}

func (s *Store) deleteRow(key string) (bool, error) {
	res, err := s.q.Exec(s.sqlf("DELETE FROM %s WHERE key = $1"), key)
	if err != nil {
		return false, s.backendErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.backendErr(err)
	}
	return n > 0, nil
}

// Exists reports whether a live (non-expired) row exists for key. Unlike
// the read paths, the expiry check here does not depend on the cleanup
// strategy: expired rows never count as existing.
func (s *Store) Exists(key string) (bool, error) {
	if err := s.validateKey(key); err != nil {
		return false, err
	}

	query := s.sqlf("SELECT 1 FROM %s WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)")
	var one int
	err := s.q.QueryRow(query, key, time.Now().UTC()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.backendErr(err)
	}
	return true, nil
}

func (s *Store) validateKey(key string) error {
	if key == "" {
		return invalidKeyErr("key cannot be empty")
	}
	if len(key) > s.cfg.maxKeyLength {
		return invalidKeyErr(fmt.Sprintf("key length %d exceeds maximum %d", len(key), s.cfg.maxKeyLength))
	}
	return nil
}

func (s *Store) validateValue(value []byte) error {
	if len(value) > s.cfg.maxValueSize {
		return invalidValueErr(fmt.Sprintf("value size %d exceeds maximum %d", len(value), s.cfg.maxValueSize))
	}
	return nil
}

// sqlf interpolates the quoted table identifier into a statement template
// after rewriting placeholders for the dialect. Only identifiers are
// interpolated; data always travels as bound parameters.
func (s *Store) sqlf(tmpl string) string {
	return fmt.Sprintf(s.d.rebind(tmpl), s.table)
}

// backendErr classifies a backend failure: missing table, broken
// connection, or plain query error.
func (s *Store) backendErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case s.d.isMissingTable(err):
		return &Error{Kind: KindTableNotFound, Table: s.cfg.tableName, Err: err}
	case s.d.isConnClosed(err):
		return connectionErr(err)
	default:
		return &Error{Kind: KindQuery, Err: err}
	}
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
