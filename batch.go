package tablekv

import (
	"strings"
	"time"
)

// GetMany returns the key-value pairs for the given keys, excluding missing
// and (when TTL is enabled) expired keys. Every key is validated before the
// backend is touched; an empty input short-circuits without a round trip.
// Result order is unspecified. Unlike Get, this bulk path never performs
// on-read cleanup.
func (s *Store) GetMany(keys []string) ([]KeyValue, error) {
	if len(keys) == 0 {
		return []KeyValue{}, nil
	}
	for _, key := range keys {
		if err := s.validateKey(key); err != nil {
			return nil, err
		}
	}

	var b strings.Builder
	b.WriteString("SELECT key, value FROM ")
	b.WriteString(s.table)
	b.WriteString(" WHERE key IN (")
	args := make([]any, 0, len(keys)+1)
	for i, key := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.d.placeholder(i + 1))
		args = append(args, key)
	}
	b.WriteString(")")
	if s.cfg.ttlEnabled() {
		b.WriteString(" AND (expires_at IS NULL OR expires_at > ")
		b.WriteString(s.d.placeholder(len(keys) + 1))
		b.WriteString(")")
		args = append(args, time.Now().UTC())
	}

	rows, err := s.q.Query(b.String(), args...)
	if err != nil {
		return nil, s.backendErr(err)
	}
	defer func() { _ = rows.Close() }()

	out := []KeyValue{}
	for rows.Next() {
		var kv KeyValue
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, s.backendErr(err)
		}
		kv.Value = nonNilBytes(kv.Value)
		out = append(out, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, s.backendErr(err)
	}
	return out, nil
}

// SetMany upserts all items inside one transaction: either every pair is
// written or none is. Existing rows keep their expiration; only value and
// updated_at change. All pairs are validated before anything is written.
func (s *Store) SetMany(items []KeyValue) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if err := s.validateKey(item.Key); err != nil {
			return err
		}
		if err := s.validateValue(item.Value); err != nil {
			return err
		}
	}

	query := s.sqlf(`INSERT INTO %s (key, value, created_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (key) DO UPDATE SET
	value = excluded.value,
	updated_at = excluded.updated_at`)

	return s.withTx(func(tx *Store) error {
		now := time.Now().UTC()
		for _, item := range items {
			if _, err := tx.q.Exec(query, item.Key, nonNilBytes(item.Value), now); err != nil {
				return tx.backendErr(err)
			}
		}
		return nil
	})
}

// DeleteMany removes all matching rows in one statement and returns the
// number actually deleted, which may be less than len(keys).
func (s *Store) DeleteMany(keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	for _, key := range keys {
		if err := s.validateKey(key); err != nil {
			return 0, err
		}
	}

	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(s.table)
	b.WriteString(" WHERE key IN (")
	args := make([]any, 0, len(keys))
	for i, key := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.d.placeholder(i + 1))
		args = append(args, key)
	}
	b.WriteString(")")

	res, err := s.q.Exec(b.String(), args...)
	if err != nil {
		return 0, s.backendErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.backendErr(err)
	}
	return n, nil
}
