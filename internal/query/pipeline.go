package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pdfrag/internal/domain"
)

// Searcher is the slice of the vector index client the pipeline needs.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) []domain.SearchResult
}

// Passage is one retrieved chunk as surfaced to callers.
type Passage struct {
	Content  string               `json:"content"`
	Metadata domain.ChunkMetadata `json:"metadata"`
	Score    float64              `json:"score"`
}

// Result is the external query contract. On a stage failure, Step names the
// stage that failed and the fields gathered so far stay populated so the
// caller can see how far processing got.
type Result struct {
	Success            bool      `json:"success"`
	Message            string    `json:"message"`
	Step               string    `json:"step,omitempty"`
	OriginalQuestion   string    `json:"original_question,omitempty"`
	TranslatedQuestion string    `json:"translated_question,omitempty"`
	SearchResults      []Passage `json:"search_results,omitempty"`
	Answer             string    `json:"answer,omitempty"`
	SearchCount        int       `json:"search_count,omitempty"`
}

// Pipeline answers a free-form question by translating it, retrieving similar
// passages and generating a grounded answer. Stages run strictly in sequence;
// each one gates on the previous succeeding.
type Pipeline struct {
	llm      domain.ChatClient
	searcher Searcher
	topK     int
	logger   *zap.Logger
}

// New wires the query pipeline from its collaborators.
func New(llm domain.ChatClient, searcher Searcher, topK int, logger *zap.Logger) *Pipeline {
	return &Pipeline{llm: llm, searcher: searcher, topK: topK, logger: logger}
}

// Run processes one question end to end. imageBase64 is optional and, when
// present, is attached to the answer-generation call only.
func (p *Pipeline) Run(ctx context.Context, question, imageBase64 string) Result {
	p.logger.Info("query started", zap.String("question", question))

	translated, err := p.llm.Translate(ctx, question)
	if err != nil {
		p.logger.Warn("translation failed", zap.Error(err))
		return Result{
			Message: fmt.Sprintf("translation failed: %v", err),
			Step:    "translation",
		}
	}
	p.logger.Info("question translated", zap.String("translated", translated))

	results := p.searcher.Search(ctx, translated, p.topK)
	if len(results) == 0 {
		return Result{
			Message:            "no matching documents found",
			Step:               "search",
			TranslatedQuestion: translated,
		}
	}
	passages := make([]Passage, len(results))
	for i, r := range results {
		passages[i] = Passage{Content: r.Text, Metadata: r.Metadata, Score: r.Score}
	}

	// Retrieval order is preserved: each passage is prefixed with its 1-based
	// rank and score, separated by a blank line.
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("文档%d (相似度: %.3f):\n%s", i+1, r.Score, r.Text)
	}
	retrieved := strings.Join(parts, "\n\n")

	// The answer call gets the original question; the translation serves
	// retrieval only.
	answer, err := p.llm.Answer(ctx, question, retrieved, imageBase64)
	if err != nil {
		p.logger.Warn("answer generation failed", zap.Error(err))
		return Result{
			Message:            fmt.Sprintf("answer generation failed: %v", err),
			Step:               "answer",
			TranslatedQuestion: translated,
			SearchResults:      passages,
		}
	}

	p.logger.Info("query finished",
		zap.Int("search_count", len(results)), zap.Int("answer_length", len(answer)))
	return Result{
		Success:            true,
		Message:            "query processed",
		OriginalQuestion:   question,
		TranslatedQuestion: translated,
		SearchResults:      passages,
		Answer:             answer,
		SearchCount:        len(results),
	}
}
