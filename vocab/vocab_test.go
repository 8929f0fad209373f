package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabulary_IDs(t *testing.T) {
	v := New("abca ")

	assert.Equal(t, 6, v.Size())
	assert.Equal(t, "abc ", v.Alphabet())
	assert.Equal(t, 2, v.ID('a'))
	assert.Equal(t, 3, v.ID('b'))
	assert.Equal(t, 4, v.ID('c'))
	assert.Equal(t, 5, v.ID(' ')) // repeated 'a' did not consume an id
	assert.Equal(t, UnknownID, v.ID('z'))
	assert.Equal(t, UnknownID, v.ID('€'))

	r, ok := v.Rune(3)
	require.True(t, ok)
	assert.Equal(t, 'b', r)

	for _, id := range []int{PadID, UnknownID, -1, 6, 100} {
		_, ok := v.Rune(id)
		assert.False(t, ok, "id %d", id)
	}
}

func TestVocabulary_IDsAreDense(t *testing.T) {
	v := Default()
	seen := map[int]bool{}
	for _, r := range v.Alphabet() {
		id := v.ID(r)
		assert.False(t, seen[id])
		assert.GreaterOrEqual(t, id, 2)
		assert.Less(t, id, v.Size())
		seen[id] = true
	}
	assert.Len(t, seen, v.Size()-2)
}
