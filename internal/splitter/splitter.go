package splitter

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"pdfrag/internal/domain"
)

// Splitter rasterizes PDF pages to PNG via MuPDF. A document that cannot be
// decoded, or a single page that cannot be rendered, fails the whole split:
// downstream hashing and indexing assume every declared page has image bytes.
type Splitter struct {
	dpi    float64
	logger *zap.Logger
}

// New creates a splitter rendering at the given resolution.
func New(dpi int, logger *zap.Logger) *Splitter {
	return &Splitter{dpi: float64(dpi), logger: logger}
}

// Split decodes pdfBytes into an ordered sequence of page images, numbered
// from 1. Returns domain.ErrDecode on any decode or render failure.
func (s *Splitter) Split(pdfBytes []byte) ([]domain.Page, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	defer doc.Close()

	total := doc.NumPage()
	s.logger.Info("pdf opened", zap.Int("total_pages", total))

	pages := make([]domain.Page, 0, total)
	for i := 0; i < total; i++ {
		png, err := doc.ImagePNG(i, s.dpi)
		if err != nil {
			return nil, fmt.Errorf("%w: render page %d: %v", domain.ErrDecode, i+1, err)
		}
		pages = append(pages, domain.Page{Number: i + 1, ImageBytes: png})
	}
	return pages, nil
}
