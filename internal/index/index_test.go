package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pdfrag/internal/chunker"
	"pdfrag/internal/domain"
	"pdfrag/internal/vectorstore/memory"
)

// fakeEmbedder maps rune counts onto a tiny deterministic vector.
type fakeEmbedder struct {
	fail bool
}

func (f *fakeEmbedder) Name() string   { return "fake" }
func (f *fakeEmbedder) Dimension() int { return 2 }
func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if f.fail {
		return nil, errors.New("embedder down")
	}
	return []float64{float64(len([]rune(text))), 1}, nil
}

func newTestClient(fail bool) *Client {
	return New(chunker.New(300, 30), &fakeEmbedder{fail: fail}, memory.NewStorage(), zap.NewNop())
}

func TestStoreEmptyTextIsNoOp(t *testing.T) {
	c := newTestClient(false)
	res := c.Store(context.Background(), "   \n ", domain.ChunkMetadata{PageNum: 1})
	assert.False(t, res.Success)
	assert.Zero(t, res.ChunkCount)
}

func TestStoreAttachesMetadataToEveryChunk(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStorage()
	c := New(chunker.New(20, 5), &fakeEmbedder{}, store, zap.NewNop())

	meta := domain.ChunkMetadata{
		PageNum:     3,
		ContentHash: "pdfhash",
		ImageHash:   "imghash",
		Source:      "pdf_vl_extraction",
	}
	res := c.Store(ctx, "one two three four five six seven eight nine ten", meta)
	require.True(t, res.Success)
	require.Greater(t, res.ChunkCount, 1)

	results := c.Search(ctx, "one two", 10)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, meta, r.Metadata)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	c := newTestClient(false)
	results := c.Search(context.Background(), "anything", 3)
	assert.Empty(t, results)
}

func TestStoreEmbedderFailureDegrades(t *testing.T) {
	c := newTestClient(true)
	res := c.Store(context.Background(), "some text", domain.ChunkMetadata{PageNum: 1})
	assert.False(t, res.Success)
	assert.Equal(t, "embedding failed", res.Message)
}

func TestSearchEmbedderFailureDegrades(t *testing.T) {
	c := newTestClient(true)
	assert.Empty(t, c.Search(context.Background(), "question", 3))
}

func TestSearchRespectsTopK(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(false)
	for i := 0; i < 5; i++ {
		res := c.Store(ctx, "passage number "+string(rune('a'+i)), domain.ChunkMetadata{PageNum: i + 1})
		require.True(t, res.Success)
	}
	results := c.Search(ctx, "passage", 3)
	assert.Len(t, results, 3)
}
