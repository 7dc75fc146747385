package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSuffix(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 32} {
		suffix, err := RandomSuffix(n)
		require.NoError(t, err)
		assert.Len(t, suffix, n)
		assert.Regexp(t, "^[0-9a-f]*$", suffix)
	}
}

func TestRandomSuffix_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		suffix, err := RandomSuffix(16)
		require.NoError(t, err)
		assert.False(t, seen[suffix], "duplicate suffix %s", suffix)
		seen[suffix] = true
	}
}
