package domain

import "context"

// Page is one rasterized page of an ingested PDF.
type Page struct {
	Number     int    // 1-based, order of appearance
	ImageHash  string // digest of the rendered PNG bytes
	ImageBytes []byte
}

// Manifest is the durable per-document record written once all pages are saved.
type Manifest struct {
	ContentHash string   `json:"content_hash"`
	TotalPages  int      `json:"total_pages"`
	SavedFiles  []string `json:"saved_files"`
	Directory   string   `json:"directory"`
}

// ChunkMetadata travels verbatim with every chunk derived from one page's text.
type ChunkMetadata struct {
	PageNum     int    `json:"page_num"`
	ContentHash string `json:"pdf_hash"`
	ImageHash   string `json:"img_hash"`
	Source      string `json:"source"`
}

// Chunk is a bounded fragment of extracted text stored in the vector index.
type Chunk struct {
	Text     string
	Index    int
	Metadata ChunkMetadata
}

// SearchResult is a matching chunk with the backend's relevance score.
// Score direction depends on the store's metric; callers rely on order only.
type SearchResult struct {
	Text     string
	Metadata ChunkMetadata
	Score    float64
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VectorStore persists chunk vectors and supports similarity search.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
}

// PageSplitter decodes PDF bytes into page raster images at a fixed resolution.
// A decode or render failure aborts the whole document; there is no partial result.
type PageSplitter interface {
	Split(pdfBytes []byte) ([]Page, error)
}

// ChatClient is the contract for every call to the inference endpoint.
type ChatClient interface {
	// ExtractImage asks the vision model for the textual content of one page image.
	ExtractImage(ctx context.Context, imageBase64 string) (string, error)
	// Translate renders the question into the index's working language.
	Translate(ctx context.Context, content string) (string, error)
	// Integrate consolidates per-page fragments into one coherent document.
	Integrate(ctx context.Context, documentContent string) (string, error)
	// Answer generates a grounded answer from the question, retrieved context
	// and an optional caller-supplied image.
	Answer(ctx context.Context, question, retrievedContent, imageBase64 string) (string, error)
}
