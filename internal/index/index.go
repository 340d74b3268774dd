package index

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pdfrag/internal/chunker"
	"pdfrag/internal/domain"
)

// StoreResult reports the outcome of indexing one page's text.
type StoreResult struct {
	ChunkCount int
	Success    bool
	Message    string
}

// Client chunks text, embeds it, stores it with metadata and performs
// similarity search. It never propagates an error past its boundary: every
// operation degrades to an empty or failure result so pipeline orchestration
// can make forward-progress decisions without error handling at each call site.
type Client struct {
	chunker  *chunker.RecursiveChunker
	embedder domain.Embedder
	store    domain.VectorStore
	logger   *zap.Logger

	mu          sync.Mutex
	initialized bool
}

// New creates an index client owned by the composition root and shared by
// both pipelines.
func New(ch *chunker.RecursiveChunker, emb domain.Embedder, store domain.VectorStore, logger *zap.Logger) *Client {
	return &Client{chunker: ch, embedder: emb, store: store, logger: logger}
}

// Store splits text into chunks, attaches meta verbatim to every chunk and
// persists them. Empty or whitespace-only text is a no-op reported as failure,
// not an error.
func (c *Client) Store(ctx context.Context, text string, meta domain.ChunkMetadata) StoreResult {
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("skipping empty content", zap.Int("page_num", meta.PageNum))
		return StoreResult{Message: "content empty"}
	}

	pieces := c.chunker.Split(text)
	if len(pieces) == 0 {
		return StoreResult{Message: "no chunks produced"}
	}
	chunks := make([]domain.Chunk, len(pieces))
	vectors := make([][]float64, len(pieces))
	for i, p := range pieces {
		vec, err := c.embedder.Embed(ctx, p)
		if err != nil {
			c.logger.Error("embedding failed",
				zap.Int("page_num", meta.PageNum), zap.Int("chunk", i), zap.Error(err))
			return StoreResult{Message: "embedding failed"}
		}
		chunks[i] = domain.Chunk{Text: p, Index: i, Metadata: meta}
		vectors[i] = vec
	}

	if err := c.ensureInit(ctx); err != nil {
		c.logger.Error("vector store init failed", zap.Error(err))
		return StoreResult{Message: "store unavailable"}
	}
	if err := c.store.Upsert(ctx, chunks, vectors); err != nil {
		c.logger.Error("vector store upsert failed", zap.Error(err))
		return StoreResult{Message: "store upsert failed"}
	}
	c.logger.Info("indexed content",
		zap.Int("page_num", meta.PageNum), zap.Int("chunks", len(chunks)))
	return StoreResult{ChunkCount: len(chunks), Success: true}
}

// Search returns up to topK nearest chunks in the backend's ranking order.
// An empty collection or any failure yields an empty slice, never an error.
func (c *Client) Search(ctx context.Context, query string, topK int) []domain.SearchResult {
	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		c.logger.Error("query embedding failed", zap.Error(err))
		return nil
	}
	if err := c.ensureInit(ctx); err != nil {
		c.logger.Error("vector store init failed", zap.Error(err))
		return nil
	}
	results, err := c.store.Search(ctx, vec, topK)
	if err != nil {
		c.logger.Error("similarity search failed", zap.Error(err))
		return nil
	}
	c.logger.Info("similarity search completed", zap.Int("results", len(results)))
	return results
}

// ensureInit initializes the backing collection once the embedding dimension
// is known. The dimension only becomes available after the first embed.
func (c *Client) ensureInit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx, c.embedder.Dimension()); err != nil {
		return err
	}
	c.initialized = true
	return nil
}
