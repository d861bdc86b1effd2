package tablekv

import (
	"database/sql"
)

// Querier is the common statement surface shared by *sql.DB and *sql.Tx.
// Store operations run against it so the same code serves both the plain
// connection and a transaction scope.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Transaction runs fn with exclusive access to the Store inside one atomic
// unit. The unit commits when fn returns nil; otherwise it rolls back and
// fn's error propagates unchanged. Nested calls are rejected: the single
// connection has no reentrant transaction semantics.
func (s *Store) Transaction(fn func(*Store) error) error {
	if s.inTx {
		return transactionErr("nested transactions are not supported", nil)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return transactionErr("begin", err)
	}

	txStore := &Store{
		db:    s.db,
		q:     tx,
		d:     s.d,
		cfg:   s.cfg,
		table: s.table,
		inTx:  true,
	}

	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return transactionErr("commit", err)
	}
	return nil
}

// withTx runs fn transactionally, reusing the surrounding transaction when
// one is already open.
func (s *Store) withTx(fn func(*Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.Transaction(fn)
}
