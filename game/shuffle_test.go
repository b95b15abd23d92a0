package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedHash(t *testing.T) {
	assert.Equal(t, int32(0), seedHash(""))
	assert.Equal(t, int32(97), seedHash("a"))
	assert.Equal(t, int32(3105), seedHash("ab"))
	assert.Equal(t, int32(99162322), seedHash("hello"))
	// Wraps to exactly MinInt32.
	assert.Equal(t, int32(math.MinInt32), seedHash("polygenelubricants"))
}

func TestSeedHashUsesUTF16Units(t *testing.T) {
	// U+1F600 is the surrogate pair D83D DE00.
	want := int32(0xD83D)*31 + int32(0xDE00)
	assert.Equal(t, want, seedHash("\U0001F600"))
}

func TestDeterministicShuffleKnownOrders(t *testing.T) {
	tests := []struct {
		seed  string
		items []int
		want  []int
	}{
		{"a", []int{0, 1, 2}, []int{1, 2, 0}},
		{"ab", []int{0, 1, 2, 3}, []int{0, 1, 3, 2}},
		// Starts from MinInt32, so every step runs on wrapped negative hashes.
		{"polygenelubricants", []int{0, 1, 2}, []int{2, 1, 0}},
		{"anything", []int{7}, []int{7}},
		{"anything", []int{}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.seed, func(t *testing.T) {
			deterministicShuffle(tt.items, tt.seed)
			assert.Equal(t, tt.want, tt.items)
		})
	}
}

func TestDeterministicShuffleIsPermutation(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}
	deterministicShuffle(items, shuffleSeed("match-42", "player-7"))

	seen := make(map[int]bool)
	for _, v := range items {
		assert.False(t, seen[v])
		seen[v] = true
	}
	assert.Len(t, seen, 20)
}
