package batch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		size      int
		wantSizes []int
	}{
		{name: "empty input", n: 0, size: 3, wantSizes: []int{}},
		{name: "smaller than size", n: 2, size: 3, wantSizes: []int{2}},
		{name: "exact multiple", n: 6, size: 3, wantSizes: []int{3, 3}},
		{name: "remainder in last chunk", n: 7, size: 3, wantSizes: []int{3, 3, 1}},
		{name: "size one", n: 3, size: 1, wantSizes: []int{1, 1, 1}},
		{name: "default size", n: 12001, size: DefaultChunkSize, wantSizes: []int{5000, 5000, 2001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(sequence(tt.n), tt.size)
			require.NoError(t, err)

			sizes := make([]int, len(chunks))
			for i, c := range chunks {
				sizes[i] = len(c)
			}
			assert.Equal(t, tt.wantSizes, sizes)
		})
	}
}

// TestSplit_Properties checks, for a range of lengths and sizes, that the
// chunks concatenate back to the input, no chunk exceeds the size, and only
// the last chunk may be short.
func TestSplit_Properties(t *testing.T) {
	for n := 0; n <= 40; n++ {
		for k := 1; k <= 12; k++ {
			input := sequence(n)
			chunks, err := Split(input, k)
			require.NoError(t, err)

			var joined []int
			for i, c := range chunks {
				require.NotEmpty(t, c)
				require.LessOrEqual(t, len(c), k)
				if i < len(chunks)-1 {
					require.Equal(t, k, len(c), "n=%d k=%d chunk %d", n, k, i)
				}
				joined = append(joined, c...)
			}
			if n == 0 {
				require.Empty(t, chunks)
				continue
			}
			require.Equal(t, input, joined, "n=%d k=%d", n, k)
		}
	}
}

func TestSplit_ChunksDoNotOverlap(t *testing.T) {
	input := sequence(6)
	chunks, err := Split(input, 3)
	require.NoError(t, err)

	chunks[0] = append(chunks[0], 99)
	assert.Equal(t, []int{3, 4, 5}, chunks[1], "appending to a chunk must not overwrite the next")
	assert.Equal(t, sequence(6), input)
}

func TestSplit_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Split([]int{1}, size)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidChunkSize))
	}
}
