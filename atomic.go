package tablekv

import (
	"database/sql"
	"errors"
	"strconv"
	"time"
)

// Increment atomically adds delta to the counter stored under key and
// returns the new value. The value is kept as the decimal text form of a
// signed 64-bit integer; an absent key is created holding delta, and a
// stored value that is not decimal text counts as 0. The add and the read
// of the result are one statement, so concurrent increments do not race.
func (s *Store) Increment(key string, delta int64) (int64, error) {
	if err := s.validateKey(key); err != nil {
		return 0, err
	}

	var newValue int64
	err := s.q.QueryRow(
		s.d.increment(s.table),
		key, []byte(strconv.FormatInt(delta, 10)), time.Now().UTC(), delta,
	).Scan(&newValue)
	if err != nil {
		return 0, s.backendErr(err)
	}
	return newValue, nil
}

// Decrement is Increment with the delta's sign flipped.
func (s *Store) Decrement(key string, delta int64) (int64, error) {
	return s.Increment(key, -delta)
}

// CompareAndSwap sets newValue only if the stored value matches expected.
// A nil expected means the caller believes the key is absent: the swap
// succeeds iff the insert happens. With a non-nil expected, a conditional
// update matches on key and exact current value (and, when TTL is enabled,
// non-expiry); when no row matches, a follow-up read distinguishes
// CasNotFound from CasMismatch. That classifying read can race concurrent
// writers, which only affects the diagnostic detail, never whether the
// swap itself took effect.
func (s *Store) CompareAndSwap(key string, expected, newValue []byte) (CasResult, error) {
	if err := s.validateKey(key); err != nil {
		return CasResult{}, err
	}
	if err := s.validateValue(newValue); err != nil {
		return CasResult{}, err
	}

	if expected == nil {
		inserted, err := s.SetNX(key, newValue)
		if err != nil {
			return CasResult{}, err
		}
		if inserted {
			return CasResult{Outcome: CasSuccess}, nil
		}
		current, found, err := s.Get(key)
		if err != nil {
			return CasResult{}, err
		}
		return CasResult{Outcome: CasMismatch, Current: current, CurrentFound: found}, nil
	}

	tmpl := "UPDATE %s SET value = $1, updated_at = $2 WHERE key = $3 AND value = $4"
	args := []any{nonNilBytes(newValue), time.Now().UTC(), key, expected}
	if s.cfg.ttlEnabled() {
		tmpl += " AND (expires_at IS NULL OR expires_at > $5)"
		args = append(args, time.Now().UTC())
	}

	res, err := s.q.Exec(s.sqlf(tmpl), args...)
	if err != nil {
		return CasResult{}, s.backendErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return CasResult{}, s.backendErr(err)
	}
	if n > 0 {
		return CasResult{Outcome: CasSuccess}, nil
	}

	current, found, err := s.Get(key)
	if err != nil {
		return CasResult{}, err
	}
	if !found {
		return CasResult{Outcome: CasNotFound}, nil
	}
	return CasResult{Outcome: CasMismatch, Current: current, CurrentFound: true}, nil
}

// GetAndSet upserts value and returns the previous value, read from the
// pre-update state. ok is false when the key held no row. An existing
// row's expiration is left untouched.
func (s *Store) GetAndSet(key string, value []byte) (old []byte, ok bool, err error) {
	if err := s.validateKey(key); err != nil {
		return nil, false, err
	}
	if err := s.validateValue(value); err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	if query, supported := s.d.preImageUpsert(s.table); supported {
		var prev sql.Null[[]byte]
		if err := s.q.QueryRow(query, key, nonNilBytes(value), now).Scan(&prev); err != nil {
			return nil, false, s.backendErr(err)
		}
		if !prev.Valid {
			return nil, false, nil
		}
		return nonNilBytes(prev.V), true, nil
	}

	// Engines without a pre-image upsert: read then upsert in one
	// transaction. Atomic under the single-writer connection model.
	upsert := s.sqlf(`INSERT INTO %s (key, value, created_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (key) DO UPDATE SET
	value = excluded.value,
	updated_at = excluded.updated_at`)
	txErr := s.withTx(func(tx *Store) error {
		scanErr := tx.q.QueryRow(tx.sqlf("SELECT value FROM %s WHERE key = $1"), key).Scan(&old)
		switch {
		case errors.Is(scanErr, sql.ErrNoRows):
			ok = false
		case scanErr != nil:
			return tx.backendErr(scanErr)
		default:
			ok = true
			old = nonNilBytes(old)
		}
		if _, execErr := tx.q.Exec(upsert, key, nonNilBytes(value), now); execErr != nil {
			return tx.backendErr(execErr)
		}
		return nil
	})
	if txErr != nil {
		return nil, false, txErr
	}
	return old, ok, nil
}

// GetAndDelete removes key and returns the value it held. ok is false when
// no row existed.
func (s *Store) GetAndDelete(key string) (old []byte, ok bool, err error) {
	if err := s.validateKey(key); err != nil {
		return nil, false, err
	}

	query := s.sqlf("DELETE FROM %s WHERE key = $1 RETURNING value")
	err = s.q.QueryRow(query, key).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.backendErr(err)
	}
	return nonNilBytes(old), true, nil
}
