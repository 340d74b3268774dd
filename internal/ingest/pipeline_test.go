package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pdfrag/internal/domain"
	"pdfrag/internal/index"
	"pdfrag/internal/store"
)

type fakeSplitter struct {
	pages []domain.Page
	err   error
}

func (f *fakeSplitter) Split(_ []byte) ([]domain.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// fakeChat maps decoded page image bytes to extraction outcomes.
type fakeChat struct {
	extracted    map[string]string
	extractErr   map[string]error
	integrateErr error
	integrated   string
	integrateIn  string
}

func (f *fakeChat) ExtractImage(_ context.Context, imageBase64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", err
	}
	if e, ok := f.extractErr[string(raw)]; ok {
		return "", e
	}
	return f.extracted[string(raw)], nil
}

func (f *fakeChat) Translate(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeChat) Integrate(_ context.Context, content string) (string, error) {
	f.integrateIn = content
	if f.integrateErr != nil {
		return "", f.integrateErr
	}
	if f.integrated != "" {
		return f.integrated, nil
	}
	return "integrated: " + content, nil
}

func (f *fakeChat) Answer(context.Context, string, string, string) (string, error) {
	return "", errors.New("not used")
}

type indexedCall struct {
	text string
	meta domain.ChunkMetadata
}

type fakeIndexer struct {
	calls []indexedCall
	fail  bool
}

func (f *fakeIndexer) Store(_ context.Context, text string, meta domain.ChunkMetadata) index.StoreResult {
	f.calls = append(f.calls, indexedCall{text: text, meta: meta})
	if f.fail {
		return index.StoreResult{Message: "store unavailable"}
	}
	return index.StoreResult{ChunkCount: 1, Success: true}
}

func newPipeline(t *testing.T, sp domain.PageSplitter, chat domain.ChatClient, idx Indexer) (*Pipeline, string) {
	t.Helper()
	root := t.TempDir()
	cs := store.New(root, zap.NewNop())
	return New(cs, sp, chat, idx, zap.NewNop()), root
}

func TestRunPartialExtraction(t *testing.T) {
	// Page 1 extracts "ABC", page 2 comes back empty: both pages are saved
	// and listed in the manifest, only page 1 is indexed, and integration
	// runs over "ABC" alone.
	sp := &fakeSplitter{pages: []domain.Page{
		{Number: 1, ImageBytes: []byte("img-one")},
		{Number: 2, ImageBytes: []byte("img-two")},
	}}
	chat := &fakeChat{extracted: map[string]string{"img-one": "ABC", "img-two": ""}}
	idx := &fakeIndexer{}
	p, _ := newPipeline(t, sp, chat, idx)

	pdf := []byte("%PDF fake")
	res, err := p.Run(context.Background(), pdf)
	require.NoError(t, err)

	assert.Equal(t, store.Hash(pdf), res.ContentHash)
	assert.Equal(t, 2, res.TotalPages)
	assert.Len(t, res.SavedFiles, 2)
	assert.Equal(t, 1, res.IndexedPages)
	assert.Equal(t, "ABC", res.OriginalContent)
	assert.Equal(t, "integrated: ABC", res.IntegratedContent)
	assert.Equal(t, "ABC", chat.integrateIn)

	require.Len(t, idx.calls, 1)
	assert.Equal(t, "ABC", idx.calls[0].text)
	assert.Equal(t, 1, idx.calls[0].meta.PageNum)
	assert.Equal(t, store.Hash(pdf), idx.calls[0].meta.ContentHash)
	assert.Equal(t, store.Hash([]byte("img-one")), idx.calls[0].meta.ImageHash)
	assert.Equal(t, "pdf_vl_extraction", idx.calls[0].meta.Source)

	var m domain.Manifest
	data, err := os.ReadFile(filepath.Join(res.Directory, "metadata.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 2, m.TotalPages)
	assert.Len(t, m.SavedFiles, 2)
}

func TestRunDecodeFailureIsFatal(t *testing.T) {
	sp := &fakeSplitter{err: domain.ErrDecode}
	p, root := newPipeline(t, sp, &fakeChat{}, &fakeIndexer{})

	_, err := p.Run(context.Background(), []byte("not a pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDecode)

	// No manifest is written for a failed decode.
	hash := store.Hash([]byte("not a pdf"))
	_, statErr := os.Stat(filepath.Join(root, "documents", hash, "metadata.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunExtractionFailureStillDone(t *testing.T) {
	// The VL endpoint erroring (e.g. HTTP 500) skips the page but the run
	// still completes with a manifest and zero indexed pages.
	sp := &fakeSplitter{pages: []domain.Page{{Number: 1, ImageBytes: []byte("img")}}}
	chat := &fakeChat{extractErr: map[string]error{"img": errors.New("status 500")}}
	idx := &fakeIndexer{}
	p, _ := newPipeline(t, sp, chat, idx)

	res, err := p.Run(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Zero(t, res.IndexedPages)
	assert.Empty(t, res.OriginalContent)
	assert.Empty(t, idx.calls)

	_, statErr := os.Stat(filepath.Join(res.Directory, "metadata.json"))
	assert.NoError(t, statErr)
}

func TestRunIndexingFailureDoesNotAbort(t *testing.T) {
	sp := &fakeSplitter{pages: []domain.Page{
		{Number: 1, ImageBytes: []byte("a")},
		{Number: 2, ImageBytes: []byte("b")},
	}}
	chat := &fakeChat{extracted: map[string]string{"a": "text-a", "b": "text-b"}}
	idx := &fakeIndexer{fail: true}
	p, _ := newPipeline(t, sp, chat, idx)

	res, err := p.Run(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Zero(t, res.IndexedPages)
	assert.Len(t, idx.calls, 2)
	assert.Equal(t, "text-atext-b", res.OriginalContent)
}

func TestRunIntegrationFailureStillSucceeds(t *testing.T) {
	sp := &fakeSplitter{pages: []domain.Page{{Number: 1, ImageBytes: []byte("img")}}}
	chat := &fakeChat{
		extracted:    map[string]string{"img": "content"},
		integrateErr: errors.New("model overloaded"),
	}
	p, _ := newPipeline(t, sp, chat, &fakeIndexer{})

	res, err := p.Run(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "content", res.OriginalContent)
	assert.Empty(t, res.IntegratedContent)
	assert.Contains(t, res.IntegrationError, "model overloaded")
	assert.Contains(t, res.Message, "integration failed")
}

func TestRunIdempotentAddressing(t *testing.T) {
	sp := &fakeSplitter{pages: []domain.Page{{Number: 1, ImageBytes: []byte("img")}}}
	chat := &fakeChat{extracted: map[string]string{"img": "text"}}
	p, _ := newPipeline(t, sp, chat, &fakeIndexer{})

	pdf := []byte("identical bytes")
	first, err := p.Run(context.Background(), pdf)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), pdf)
	require.NoError(t, err)

	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.Directory, second.Directory)
	assert.Equal(t, first.SavedFiles, second.SavedFiles)
}
