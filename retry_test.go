package tablekv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Retry(func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_RecoverableRetries(t *testing.T) {
	attempts := 0
	err := Retry(func() error {
		attempts++
		if attempts < 3 {
			return connectionErr(errors.New("connection reset"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_PermanentStopsImmediately(t *testing.T) {
	attempts := 0
	err := Retry(func() error {
		attempts++
		return invalidKeyErr("key cannot be empty")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, KindInvalidKey, KindOf(err))
}

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(connectionErr(errors.New("down"))))
	assert.True(t, Recoverable(&Error{Kind: KindCasMismatch, Key: "k"}))
	assert.True(t, Recoverable(&Error{Kind: KindExpired, Key: "k"}))
	assert.False(t, Recoverable(notFoundErr("k")))
	assert.False(t, Recoverable(errors.New("plain")))
	assert.False(t, Recoverable(nil))
}
