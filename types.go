package tablekv

import (
	"time"
	"unicode/utf8"
)

// KeyValue is a read projection without metadata, returned by batch and
// scan operations and accepted by SetMany.
type KeyValue struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// ValueString returns the value as a string and whether it is valid UTF-8.
func (kv KeyValue) ValueString() (string, bool) {
	if !utf8.Valid(kv.Value) {
		return "", false
	}
	return string(kv.Value), true
}

// Entry is a full row with metadata.
type Entry struct {
	Key       string     `json:"key"`
	Value     []byte     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Expired reports whether the entry's expiration is in the past.
func (e Entry) Expired() bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(time.Now())
}

// TTL returns the remaining time until expiration. ok is false when no
// expiration is set or it has already passed.
func (e Entry) TTL() (remaining time.Duration, ok bool) {
	if e.ExpiresAt == nil {
		return 0, false
	}
	d := time.Until(*e.ExpiresAt)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// ScanOptions filters Keys, Scan and Count. The zero value matches
// everything live. Limit and Offset are ignored when <= 0.
type ScanOptions struct {
	// Prefix restricts results to keys with this literal prefix. Pattern
	// metacharacters in the prefix are matched literally.
	Prefix string
	// Limit caps the number of rows returned.
	Limit int
	// Offset skips rows for pagination. Results are always ordered by key,
	// so limit/offset pagination is stable.
	Offset int
	// IncludeExpired returns rows past their expiration as well.
	IncludeExpired bool
}

// Stats is a point-in-time aggregate snapshot of the store.
type Stats struct {
	TotalKeys       int64   `json:"total_keys"`
	ExpiredKeys     int64   `json:"expired_keys"`
	TotalValueBytes int64   `json:"total_value_bytes"`
	AvgValueBytes   float64 `json:"avg_value_bytes"`
	MaxValueBytes   int64   `json:"max_value_bytes"`
	TableSizeBytes  int64   `json:"table_size_bytes"`
	IndexSizeBytes  int64   `json:"index_size_bytes"`
}

// CasOutcome tags the result of a compare-and-swap.
type CasOutcome string

const (
	// CasSuccess means the swap took effect.
	CasSuccess CasOutcome = "success"
	// CasMismatch means the stored value differed from the expected one.
	CasMismatch CasOutcome = "mismatch"
	// CasNotFound means no live row exists for the key.
	CasNotFound CasOutcome = "not_found"
)

// CasResult is the outcome of one CompareAndSwap invocation. On a mismatch,
// Current carries the observed value when CurrentFound is true; it is
// best-effort and may be stale by the time the caller inspects it.
type CasResult struct {
	Outcome      CasOutcome `json:"outcome"`
	Current      []byte     `json:"current,omitempty"`
	CurrentFound bool       `json:"current_found,omitempty"`
}

// Success reports whether the swap took effect.
func (r CasResult) Success() bool { return r.Outcome == CasSuccess }

// Mismatch reports whether the stored value differed from the expected one.
func (r CasResult) Mismatch() bool { return r.Outcome == CasMismatch }
