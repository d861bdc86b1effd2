package tablekv

import (
	"time"
)

// Clear deletes every row and returns the count removed.
func (s *Store) Clear() (int64, error) {
	res, err := s.q.Exec(s.sqlf("DELETE FROM %s"))
	if err != nil {
		return 0, s.backendErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.backendErr(err)
	}
	return n, nil
}

// Truncate removes every row using the backend's bulk path. Faster than
// Clear for large tables; reports no count.
func (s *Store) Truncate() error {
	if _, err := s.q.Exec(s.d.truncate(s.table)); err != nil {
		return s.backendErr(err)
	}
	return nil
}

// Stats computes a fresh aggregate snapshot: row counts, value size
// figures, and on-disk sizes from the backend's own size reporting.
func (s *Store) Stats() (Stats, error) {
	query := s.sqlf(`SELECT
	COUNT(*),
	CAST(COALESCE(SUM(CASE WHEN expires_at IS NOT NULL AND expires_at < $1 THEN 1 ELSE 0 END), 0) AS BIGINT),
	CAST(COALESCE(SUM(LENGTH(value)), 0) AS BIGINT),
	CAST(COALESCE(AVG(LENGTH(value)), 0) AS REAL),
	CAST(COALESCE(MAX(LENGTH(value)), 0) AS BIGINT)
FROM %s`)

	var st Stats
	err := s.q.QueryRow(query, time.Now().UTC()).Scan(
		&st.TotalKeys,
		&st.ExpiredKeys,
		&st.TotalValueBytes,
		&st.AvgValueBytes,
		&st.MaxValueBytes,
	)
	if err != nil {
		return Stats{}, s.backendErr(err)
	}

	st.TableSizeBytes, st.IndexSizeBytes, err = s.d.sizeStats(s.q, s.table)
	if err != nil {
		return Stats{}, s.backendErr(err)
	}
	return st, nil
}

// Vacuum reclaims storage after deletes.
func (s *Store) Vacuum() error {
	if _, err := s.q.Exec(s.d.vacuum(s.table)); err != nil {
		return s.backendErr(err)
	}
	return nil
}

// Analyze refreshes the backend's planner statistics for the table.
func (s *Store) Analyze() error {
	if _, err := s.q.Exec(s.d.analyze(s.table)); err != nil {
		return s.backendErr(err)
	}
	return nil
}
