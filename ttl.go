package tablekv

import (
	"database/sql"
	"errors"
	"time"
)

// Expire sets or overwrites the expiration of an existing key. Returns
// false when no row exists for the key.
func (s *Store) Expire(key string, ttl time.Duration) (bool, error) {
	if err := s.validateKey(key); err != nil {
		return false, err
	}

	now := time.Now().UTC()
	query := s.sqlf("UPDATE %s SET expires_at = $1, updated_at = $2 WHERE key = $3")
	res, err := s.q.Exec(query, now.Add(ttl), now, key)
	if err != nil {
		return false, s.backendErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.backendErr(err)
	}
	return n > 0, nil
}

// Persist clears the expiration of an existing key. Returns false when no
// row exists for the key.
func (s *Store) Persist(key string) (bool, error) {
	if err := s.validateKey(key); err != nil {
		return false, err
	}

	query := s.sqlf("UPDATE %s SET expires_at = NULL, updated_at = $1 WHERE key = $2")
	res, err := s.q.Exec(query, time.Now().UTC(), key)
	if err != nil {
		return false, s.backendErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.backendErr(err)
	}
	return n > 0, nil
}

// TTL returns the remaining duration until key expires. ok is false when
// the key is absent, has no expiration, or the expiration already passed.
func (s *Store) TTL(key string) (remaining time.Duration, ok bool, err error) {
	if err := s.validateKey(key); err != nil {
		return 0, false, err
	}

	var expiresAt sql.NullTime
	err = s.q.QueryRow(s.sqlf("SELECT expires_at FROM %s WHERE key = $1"), key).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, s.backendErr(err)
	}
	if !expiresAt.Valid {
		return 0, false, nil
	}
	remaining = time.Until(expiresAt.Time)
	if remaining <= 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}

// CleanupExpired deletes every row whose expiration is in the past,
// regardless of the cleanup strategy, and returns the count removed. This
// is the mechanism the manual strategy relies on.
func (s *Store) CleanupExpired() (int64, error) {
	query := s.sqlf("DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at < $1")
	res, err := s.q.Exec(query, time.Now().UTC())
	if err != nil {
		return 0, s.backendErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.backendErr(err)
	}
	return n, nil
}
