package id

import (
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID32_IsCompactV4(t *testing.T) {
	ref := NewID32()

	assert.Regexp(t, `^[a-f0-9]{32}$`, ref)

	raw, err := hex.DecodeString(ref)
	require.NoError(t, err)
	assert.Len(t, raw, 16)

	u, err := uuid.Parse(ref)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), u.Version())
}

func TestNewID32_ReferencesDoNotRepeat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		ref := NewID32()
		require.False(t, seen[ref], "repeated reference %q", ref)
		seen[ref] = true
	}
}
