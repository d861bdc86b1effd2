package tablekv

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Messages(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{notFoundErr("user:1"), "key not found: user:1"},
		{connectionErr(errors.New("refused")), "connection error: refused"},
		{invalidKeyErr("key cannot be empty"), "invalid key: key cannot be empty"},
		{invalidValueErr("value too large"), "invalid value: value too large"},
		{&Error{Kind: KindCasMismatch, Key: "k"}, "compare-and-swap failed for key: k"},
		{&Error{Kind: KindExpired, Key: "k"}, "key has expired: k"},
		{&Error{Kind: KindTableNotFound, Table: "kv_store"}, "table not found: kv_store"},
		{configErr("bad"), "configuration error: bad"},
		{serializationErr(errors.New("bad json")), "serialization error: bad json"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.Error())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("looking up session: %w", notFoundErr("sess:1"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsNotFound(err))

	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := connectionErr(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsConnection(err))
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsExpired(&Error{Kind: KindExpired, Key: "k"}))
	assert.True(t, IsCasMismatch(&Error{Kind: KindCasMismatch, Key: "k"}))
	assert.False(t, IsExpired(notFoundErr("k")))
	assert.False(t, IsCasMismatch(nil))
}
