package tablekv

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry wraps op with exponential backoff, retrying only errors the
// taxonomy classifies as recoverable: broken connections, CAS mismatches
// promoted to errors, and expiry races. Anything else stops immediately.
//
// Typical use is a CAS loop:
//
//	err := tablekv.Retry(func() error {
//		res, err := store.CompareAndSwap(key, expected, next)
//		if err != nil {
//			return err
//		}
//		if res.Mismatch() {
//			expected, next = recompute(res.Current)
//			return &tablekv.Error{Kind: tablekv.KindCasMismatch, Key: key}
//		}
//		return nil
//	})
func Retry(op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	b.RandomizationFactor = 0.1

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if Recoverable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
