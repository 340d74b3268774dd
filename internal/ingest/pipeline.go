package ingest

import (
	"context"
	"encoding/base64"

	"go.uber.org/zap"

	"pdfrag/internal/domain"
	"pdfrag/internal/index"
	"pdfrag/internal/store"
)

// Indexer is the slice of the vector index client the pipeline needs.
type Indexer interface {
	Store(ctx context.Context, text string, meta domain.ChunkMetadata) index.StoreResult
}

// Result is the ingestion payload. Fields fill in as the pipeline progresses:
// a run that decodes but extracts nothing still carries the directory and
// manifest data, with the content fields left empty.
type Result struct {
	ContentHash       string   `json:"content_hash"`
	Directory         string   `json:"directory"`
	TotalPages        int      `json:"total_pages"`
	SavedFiles        []string `json:"saved_files"`
	IndexedPages      int      `json:"indexed_pages"`
	OriginalContent   string   `json:"original_content,omitempty"`
	IntegratedContent string   `json:"integrated_content,omitempty"`
	IntegrationError  string   `json:"integration_error,omitempty"`
	Message           string   `json:"message"`
}

// Pipeline turns raw PDF bytes into content-addressed page images, extracted
// text, vector-index entries and a consolidated summary.
//
// Decode and storage failures are fatal; per-page extraction and indexing
// failures only skip the page, and a consolidation failure still reports
// overall success with the unconsolidated text carried forward.
type Pipeline struct {
	store    *store.ContentStore
	splitter domain.PageSplitter
	llm      domain.ChatClient
	index    Indexer
	logger   *zap.Logger
}

// New wires the ingestion pipeline from its collaborators.
func New(cs *store.ContentStore, sp domain.PageSplitter, llm domain.ChatClient, idx Indexer, logger *zap.Logger) *Pipeline {
	return &Pipeline{store: cs, splitter: sp, llm: llm, index: idx, logger: logger}
}

// Run executes the full ingestion for one document. A returned error means
// the run failed before producing a durable record; otherwise the manifest
// was written regardless of extraction, indexing or integration outcomes.
func (p *Pipeline) Run(ctx context.Context, pdfBytes []byte) (Result, error) {
	contentHash := store.Hash(pdfBytes)
	p.logger.Info("ingestion started", zap.String("content_hash", contentHash))

	dir, err := p.store.AllocateDocument(contentHash)
	if err != nil {
		return Result{}, err
	}

	pages, err := p.splitter.Split(pdfBytes)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		ContentHash: contentHash,
		Directory:   dir,
		TotalPages:  len(pages),
		SavedFiles:  make([]string, 0, len(pages)),
	}

	combined := ""
	for _, page := range pages {
		imageHash := store.Hash(page.ImageBytes)
		path, err := p.store.SavePage(dir, imageHash, page.ImageBytes)
		if err != nil {
			return Result{}, err
		}
		res.SavedFiles = append(res.SavedFiles, path)
		p.logger.Info("page saved",
			zap.Int("page_num", page.Number), zap.String("image_hash", imageHash))

		text, err := p.llm.ExtractImage(ctx, base64.StdEncoding.EncodeToString(page.ImageBytes))
		if err != nil || text == "" {
			p.logger.Warn("no content extracted", zap.Int("page_num", page.Number))
			continue
		}
		combined += text

		stored := p.index.Store(ctx, text, domain.ChunkMetadata{
			PageNum:     page.Number,
			ContentHash: contentHash,
			ImageHash:   imageHash,
			Source:      "pdf_vl_extraction",
		})
		if stored.Success {
			res.IndexedPages++
		} else {
			p.logger.Warn("page indexing failed",
				zap.Int("page_num", page.Number), zap.String("reason", stored.Message))
		}
	}

	// The manifest is the durable record of ingestion; it goes out before
	// consolidation so a failed integration cannot block it.
	if err := p.store.WriteManifest(dir, domain.Manifest{
		ContentHash: contentHash,
		TotalPages:  res.TotalPages,
		SavedFiles:  res.SavedFiles,
		Directory:   dir,
	}); err != nil {
		return Result{}, err
	}

	if combined == "" {
		res.Message = "pdf processed"
		p.logger.Info("ingestion finished without extracted content",
			zap.String("content_hash", contentHash))
		return res, nil
	}
	res.OriginalContent = combined

	integrated, err := p.llm.Integrate(ctx, combined)
	if err != nil {
		res.IntegrationError = err.Error()
		res.Message = "pdf processed, document integration failed"
		p.logger.Warn("document integration failed", zap.Error(err))
		return res, nil
	}
	res.IntegratedContent = integrated
	res.Message = "pdf processed"
	p.logger.Info("ingestion finished",
		zap.String("content_hash", contentHash),
		zap.Int("indexed_pages", res.IndexedPages),
		zap.Int("integrated_length", len(integrated)))
	return res, nil
}
