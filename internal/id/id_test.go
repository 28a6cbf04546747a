package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate(PrefixPhoto)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixAlbum, PrefixPhoto, PrefixToken} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			// NanoID default length is 21.
			assert.Len(t, id, len(prefix)+1+21)
		})
	}
}

func TestSessionID(t *testing.T) {
	sid := NewSessionID()
	assert.True(t, IsSessionID(sid))
	assert.NotEqual(t, sid, NewSessionID())

	assert.False(t, IsSessionID(""))
	assert.False(t, IsSessionID("not-a-session"))
	assert.False(t, IsSessionID("pho-V1StGXR8_Z5jdHi6B-myT"))
}
