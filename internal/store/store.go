package store

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"pdfrag/internal/domain"
)

// ContentStore persists page images and manifests under a directory keyed by
// the document's content hash. All writes are idempotent: identical bytes land
// under identical paths, so concurrent ingestion of the same document is safe
// without locking.
type ContentStore struct {
	root   string
	logger *zap.Logger
}

// New creates a content store rooted at root. Documents live under
// {root}/documents/{content_hash}/.
func New(root string, logger *zap.Logger) *ContentStore {
	return &ContentStore{root: root, logger: logger}
}

// Hash returns the hex content digest used for addressing.
func Hash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// AllocateDocument creates (idempotently) the directory for a content hash.
func (s *ContentStore) AllocateDocument(contentHash string) (string, error) {
	dir := filepath.Join(s.root, "documents", contentHash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", domain.ErrStorage, dir, err)
	}
	s.logger.Info("allocated document directory", zap.String("dir", dir))
	return dir, nil
}

// SavePage writes one page image as {image_hash}.png. Rewriting the same hash
// is a no-op in effect: same hash means same content.
func (s *ContentStore) SavePage(dir, imageHash string, imageBytes []byte) (string, error) {
	path := filepath.Join(dir, imageHash+".png")
	if err := os.WriteFile(path, imageBytes, 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", domain.ErrStorage, path, err)
	}
	return path, nil
}

// WriteManifest serializes the document record as metadata.json. Must be
// called only after every page file exists, so a reader never observes a
// manifest referencing missing files.
func (s *ContentStore) WriteManifest(dir string, m domain.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal manifest: %v", domain.ErrStorage, err)
	}
	path := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorage, path, err)
	}
	s.logger.Info("manifest written",
		zap.String("path", path),
		zap.Int("total_pages", m.TotalPages))
	return nil
}
