package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id := New("hist")

	require.True(t, strings.HasPrefix(id, "hist_"))
	assert.Len(t, id, len("hist_")+6+randomLength)

	for _, r := range strings.TrimPrefix(id, "hist_") {
		assert.Contains(t, base62Alphabet, string(r))
	}
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New("x")
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestEncodeTimestampSortable(t *testing.T) {
	earlier := encodeTimestamp(1_700_000_000)
	later := encodeTimestamp(1_700_000_100)
	assert.Less(t, earlier, later)
	assert.Len(t, earlier, 6)
}
