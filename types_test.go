package tablekv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyValue_ValueString(t *testing.T) {
	s, ok := KeyValue{Key: "k", Value: []byte("text")}.ValueString()
	assert.True(t, ok)
	assert.Equal(t, "text", s)

	_, ok = KeyValue{Key: "k", Value: []byte{0xff, 0xfe}}.ValueString()
	assert.False(t, ok)

	s, ok = KeyValue{Key: "k"}.ValueString()
	assert.True(t, ok)
	assert.Equal(t, "", s)
}

func TestEntry_Expired(t *testing.T) {
	assert.False(t, Entry{}.Expired())

	past := time.Now().Add(-time.Minute)
	assert.True(t, Entry{ExpiresAt: &past}.Expired())

	future := time.Now().Add(time.Minute)
	assert.False(t, Entry{ExpiresAt: &future}.Expired())
}

func TestEntry_TTL(t *testing.T) {
	_, ok := Entry{}.TTL()
	assert.False(t, ok)

	past := time.Now().Add(-time.Minute)
	_, ok = Entry{ExpiresAt: &past}.TTL()
	assert.False(t, ok)

	future := time.Now().Add(time.Hour)
	d, ok := Entry{ExpiresAt: &future}.TTL()
	assert.True(t, ok)
	assert.Greater(t, d, 59*time.Minute)
}

func TestCasResult_Helpers(t *testing.T) {
	assert.True(t, CasResult{Outcome: CasSuccess}.Success())
	assert.False(t, CasResult{Outcome: CasSuccess}.Mismatch())
	assert.True(t, CasResult{Outcome: CasMismatch}.Mismatch())
	assert.False(t, CasResult{Outcome: CasNotFound}.Success())
	assert.False(t, CasResult{Outcome: CasNotFound}.Mismatch())
}
