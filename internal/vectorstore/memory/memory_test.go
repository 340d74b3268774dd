package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/internal/domain"
)

func TestSearchEmptyStore(t *testing.T) {
	s := NewStorage()
	results, err := s.Search(context.Background(), []float64{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsertLengthMismatch(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(context.Background(), 2))
	err := s.Upsert(context.Background(), []domain.Chunk{{Text: "a"}}, nil)
	assert.Error(t, err)
}

func TestSearchOrdersByCosineDistance(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 2))

	chunks := []domain.Chunk{
		{Text: "aligned", Metadata: domain.ChunkMetadata{PageNum: 1}},
		{Text: "orthogonal", Metadata: domain.ChunkMetadata{PageNum: 2}},
		{Text: "diagonal", Metadata: domain.ChunkMetadata{PageNum: 3}},
	}
	vectors := [][]float64{
		{1, 0},
		{0, 1},
		{1, 1},
	}
	require.NoError(t, s.Upsert(ctx, chunks, vectors))

	results, err := s.Search(ctx, []float64{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Lower score = more similar.
	assert.Equal(t, "aligned", results[0].Text)
	assert.Equal(t, "diagonal", results[1].Text)
	assert.Equal(t, "orthogonal", results[2].Text)
	assert.Less(t, results[0].Score, results[1].Score)
	assert.Less(t, results[1].Score, results[2].Score)
	assert.Equal(t, 1, results[0].Metadata.PageNum)
}

func TestSearchTopKBound(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Upsert(ctx,
		[]domain.Chunk{{Text: "only"}},
		[][]float64{{1, 0}}))

	results, err := s.Search(ctx, []float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestUpsertDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 3))
	err := s.Upsert(ctx, []domain.Chunk{{Text: "bad"}}, [][]float64{{1, 0}})
	assert.Error(t, err)
}
