package textchunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name: "empty text",
			text: "", size: 10, overlap: 2,
			want: nil,
		},
		{
			name: "shorter than one window",
			text: "short", size: 10, overlap: 2,
			want: []string{"short"},
		},
		{
			name: "exact window",
			text: "abcdefghij", size: 10, overlap: 2,
			want: []string{"abcdefghij"},
		},
		{
			name: "overlapping windows",
			text: "abcdefghij", size: 4, overlap: 2,
			want: []string{"abcd", "cdef", "efgh", "ghij"},
		},
		{
			name: "no overlap",
			text: "abcdef", size: 2, overlap: 0,
			want: []string{"ab", "cd", "ef"},
		},
		{
			name: "short tail",
			text: "abcdefgh", size: 3, overlap: 1,
			want: []string{"abc", "cde", "efg", "gh"},
		},
		{
			name: "zero size",
			text: "abc", size: 0, overlap: 0,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.size, tt.overlap))
		})
	}
}

func TestSplitClampsExcessiveOverlap(t *testing.T) {
	// overlap >= size would never advance; it falls back to size/2
	chunks := Split(strings.Repeat("a", 20), 4, 4)

	require.NotEmpty(t, chunks)
	assert.Equal(t, "aaaa", chunks[0])
	assert.LessOrEqual(t, len(chunks), 10)
}

func TestSplitHandlesMultibyteRunes(t *testing.T) {
	chunks := Split("héllo wörld", 4, 1)

	require.NotEmpty(t, chunks)
	assert.Equal(t, "héll", chunks[0])
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 4)
	}
}
