package tablekv

import (
	"errors"
	"fmt"
)

// Kind identifies a failure class. The set is closed: every error returned
// by this package carries exactly one Kind.
type Kind int

const (
	// KindNotFound means the requested key does not exist (or has expired).
	KindNotFound Kind = iota + 1
	// KindConnection means the backend connection is broken or unreachable.
	KindConnection
	// KindQuery means the backend rejected or failed a statement.
	KindQuery
	// KindInvalidKey means the key violated length or emptiness rules.
	KindInvalidKey
	// KindInvalidValue means the value violated the size limit.
	KindInvalidValue
	// KindCasMismatch is reserved for callers that promote a CAS mismatch
	// result into an error for retry loops.
	KindCasMismatch
	// KindExpired is reserved for callers that treat expiry as an error.
	KindExpired
	// KindTransaction means transaction control failed or was misused.
	KindTransaction
	// KindTableNotFound means the table is absent and auto-create is off.
	KindTableNotFound
	// KindConfig means the configuration failed validation.
	KindConfig
	// KindIo wraps an I/O failure outside the backend protocol.
	KindIo
	// KindSerialization is returned by the typed overlay when a value
	// cannot be encoded or decoded.
	KindSerialization
)

// Error is the single error type returned by this package. Only the fields
// relevant to the Kind are set.
type Error struct {
	Kind   Kind
	Key    string
	Table  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("key not found: %s", e.Key)
	case KindConnection:
		return fmt.Sprintf("connection error: %v", e.Err)
	case KindQuery:
		return fmt.Sprintf("query error: %v", e.Err)
	case KindInvalidKey:
		return fmt.Sprintf("invalid key: %s", e.Reason)
	case KindInvalidValue:
		return fmt.Sprintf("invalid value: %s", e.Reason)
	case KindCasMismatch:
		return fmt.Sprintf("compare-and-swap failed for key: %s", e.Key)
	case KindExpired:
		return fmt.Sprintf("key has expired: %s", e.Key)
	case KindTransaction:
		if e.Err != nil {
			return fmt.Sprintf("transaction error: %s: %v", e.Reason, e.Err)
		}
		return fmt.Sprintf("transaction error: %s", e.Reason)
	case KindTableNotFound:
		return fmt.Sprintf("table not found: %s", e.Table)
	case KindConfig:
		return fmt.Sprintf("configuration error: %s", e.Reason)
	case KindIo:
		return fmt.Sprintf("i/o error: %v", e.Err)
	case KindSerialization:
		return fmt.Sprintf("serialization error: %v", e.Err)
	default:
		return fmt.Sprintf("tablekv error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Recoverable reports whether retrying the operation can reasonably
// succeed: broken connections, CAS mismatches (re-read and retry the loop),
// and expiry races. Everything else is programmer-visible.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindConnection, KindCasMismatch, KindExpired:
		return true
	default:
		return false
	}
}

// KindOf returns the Kind carried by err, or 0 if err is not from this
// package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsNotFound reports whether err is a key-not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConnection reports whether err is a connection error.
func IsConnection(err error) bool { return KindOf(err) == KindConnection }

// IsExpired reports whether err is an expiry error.
func IsExpired(err error) bool { return KindOf(err) == KindExpired }

// IsCasMismatch reports whether err is a CAS mismatch error.
func IsCasMismatch(err error) bool { return KindOf(err) == KindCasMismatch }

// Recoverable reports whether err is worth retrying.
func Recoverable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Recoverable()
	}
	return false
}

func notFoundErr(key string) *Error {
	return &Error{Kind: KindNotFound, Key: key}
}

func invalidKeyErr(reason string) *Error {
	return &Error{Kind: KindInvalidKey, Reason: reason}
}

func invalidValueErr(reason string) *Error {
	return &Error{Kind: KindInvalidValue, Reason: reason}
}

func configErr(reason string) *Error {
	return &Error{Kind: KindConfig, Reason: reason}
}

func connectionErr(err error) *Error {
	return &Error{Kind: KindConnection, Err: err}
}

func transactionErr(reason string, err error) *Error {
	return &Error{Kind: KindTransaction, Reason: reason, Err: err}
}

func serializationErr(err error) *Error {
	return &Error{Kind: KindSerialization, Err: err}
}
