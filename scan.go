package tablekv

import (
	"strings"
	"time"
)

// Keys returns the keys matching opts, ordered lexicographically.
func (s *Store) Keys(opts ScanOptions) ([]string, error) {
	query, args := s.buildScan("key", opts, false)
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, s.backendErr(err)
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, s.backendErr(err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, s.backendErr(err)
	}
	return out, nil
}

// Scan returns the key-value pairs matching opts, ordered by key.
func (s *Store) Scan(opts ScanOptions) ([]KeyValue, error) {
	query, args := s.buildScan("key, value", opts, false)
	rows, err := s.q.Query(query, args...)
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

// Count returns the number of rows matching opts.
func (s *Store) Count(opts ScanOptions) (int64, error) {
	query, args := s.buildScan("COUNT(*)", opts, true)
	var n int64
	if err := s.q.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, s.backendErr(err)
	}
	return n, nil
}

// buildScan constructs the shared filter for Keys, Scan and Count: start
// from match-all, exclude expired rows unless asked (or expiry is
// disabled), restrict to an escaped prefix pattern, order by key for
// stable pagination, then bound with limit/offset.
func (s *Store) buildScan(selectList string, opts ScanOptions, forCount bool) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectList)
	b.WriteString(" FROM ")
	b.WriteString(s.table)
	b.WriteString(" WHERE 1=1")

	args := []any{}
	next := func() string { return s.d.placeholder(len(args)) }

	if s.cfg.ttlEnabled() && !opts.IncludeExpired {
		args = append(args, time.Now().UTC())
		b.WriteString(" AND (expires_at IS NULL OR expires_at > " + next() + ")")
	}
	if opts.Prefix != "" {
		args = append(args, escapeLike(opts.Prefix)+"%")
		b.WriteString(" AND key LIKE " + next() + ` ESCAPE '\'`)
	}
	if !forCount {
		b.WriteString(" ORDER BY key")
		if opts.Limit > 0 {
			args = append(args, opts.Limit)
			b.WriteString(" LIMIT " + next())
		}
		if opts.Offset > 0 {
			args = append(args, opts.Offset)
			b.WriteString(" OFFSET " + next())
		}
	}
	return b.String(), args
}

// DeletePrefix deletes every row whose key starts with prefix, live and
// expired alike, and returns the count removed.
func (s *Store) DeletePrefix(prefix string) (int64, error) {
	query := s.sqlf(`DELETE FROM %s WHERE key LIKE $1 ESCAPE '\'`)
	res, err := s.q.Exec(query, escapeLike(prefix)+"%")
	if err != nil {
		return 0, s.backendErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.backendErr(err)
	}
	return n, nil
}

// escapeLike backslash-escapes the LIKE metacharacters so a literal
// prefix matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
