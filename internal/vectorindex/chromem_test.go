package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *ChromemIndex {
	t.Helper()
	idx, err := NewChromemIndex(t.TempDir(), "test", 3)
	require.NoError(t, err)
	return idx
}

func seedEntries() []Entry {
	return []Entry{
		{DocumentID: 1, ChunkIndex: 0, Content: "alpha chunk", Embedding: []float32{1, 0, 0}},
		{DocumentID: 1, ChunkIndex: 1, Content: "beta chunk", Embedding: []float32{0, 1, 0}},
		{DocumentID: 2, ChunkIndex: 0, Content: "gamma chunk", Embedding: []float32{0, 0, 1}},
	}
}

func TestSearchReturnsNearestFirst(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, seedEntries()))

	matches, err := idx.Search(ctx, []float32{1, 0, 0}, nil, 2)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "alpha chunk", matches[0].Content)
	assert.Equal(t, uint(1), matches[0].DocumentID)
	assert.Equal(t, 0, matches[0].ChunkIndex)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestSearchScopedToDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, seedEntries()))

	docID := uint(2)
	matches, err := idx.Search(ctx, []float32{1, 0, 0}, &docID, 4)
	require.NoError(t, err)

	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.Equal(t, docID, m.DocumentID)
	}
}

func TestSearchClampsKToCollectionSize(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, seedEntries()))

	matches, err := idx.Search(ctx, []float32{1, 0, 0}, nil, 100)

	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := newTestIndex(t)

	matches, err := idx.Search(context.Background(), []float32{1, 0, 0}, nil, 4)

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestAddRejectsDimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)

	err := idx.Add(context.Background(), []Entry{
		{DocumentID: 1, ChunkIndex: 0, Content: "bad", Embedding: []float32{1, 0}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestDeleteByDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, seedEntries()))

	require.NoError(t, idx.DeleteByDocument(ctx, 1))

	matches, err := idx.Search(ctx, []float32{1, 0, 0}, nil, 4)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, uint(2), matches[0].DocumentID)
}

func TestIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewChromemIndex(dir, "test", 3)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, seedEntries()))

	reopened, err := NewChromemIndex(dir, "test", 3)
	require.NoError(t, err)

	matches, err := reopened.Search(ctx, []float32{0, 0, 1}, nil, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "gamma chunk", matches[0].Content)
}
