// Package tablekv is a key-value store backed by a single relational table.
//
// It gives callers Redis-like semantics (get/set, TTL, atomic counters,
// compare-and-swap, prefix scan) while delegating durability and concurrency
// to the backing SQL engine. PostgreSQL is the primary backend; SQLite is
// supported as a secondary dialect for tests and embedded use.
//
// Values live in rows of one table:
//
//	key         TEXT PRIMARY KEY
//	value       BYTEA NOT NULL
//	expires_at  TIMESTAMPTZ
//	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
//
// plus a partial index on expires_at to keep expiry scans cheap. With the
// default configuration the table is created UNLOGGED: writes skip WAL for
// throughput, at the cost of losing the table's contents after an unclean
// shutdown. Use TableRegular for data that must survive restarts.
//
//	store, err := tablekv.Open(tablekv.NewConfig("postgres://localhost/app").
//		WithTableName("sessions").
//		WithTableType(tablekv.TableRegular))
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	if err := store.SetEx("session:abc", payload, time.Hour); err != nil {
//		return err
//	}
//	val, ok, err := store.Get("session:abc")
//
// A Store owns one logical connection and is not safe for concurrent use
// without external synchronization; open one Store per worker when parallel
// throughput is needed. The atomic primitives (Increment, CompareAndSwap,
// GetAndSet, GetAndDelete) execute as single statements, so correctness
// under concurrent Stores comes from the backend's row-level locking, not
// from this layer.
package tablekv
