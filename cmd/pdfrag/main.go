package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pdfrag/internal/chunker"
	"pdfrag/internal/config"
	"pdfrag/internal/domain"
	"pdfrag/internal/embedding/openai"
	"pdfrag/internal/index"
	"pdfrag/internal/ingest"
	"pdfrag/internal/llm"
	"pdfrag/internal/query"
	"pdfrag/internal/splitter"
	"pdfrag/internal/store"
	"pdfrag/internal/vectorstore/memory"
	"pdfrag/internal/vectorstore/qdrant"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "pdfrag",
	Short: "PDF document-intelligence service",
	Long: `pdfrag ingests scanned PDFs through a vision-language model, indexes the
extracted text for semantic retrieval and answers questions over it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the composition root: every component is constructed once here and
// injected into both pipelines.
type app struct {
	cfg            *config.AppConfig
	logger         *zap.Logger
	ingestPipeline *ingest.Pipeline
	queryPipeline  *query.Pipeline
	queue          *ingest.Queue
}

func buildApp() (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	emb := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	}, logger.Named("embedder"))

	var vs domain.VectorStore
	switch cfg.VectorStore.Type {
	case "memory":
		vs = memory.NewStorage()
	case "qdrant":
		vs = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}, logger.Named("qdrant"))
	}

	idx := index.New(
		chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap),
		emb, vs, logger.Named("index"))

	chat := llm.NewClient(cfg.LLM, logger.Named("llm"))
	cs := store.New(cfg.Storage.Root, logger.Named("store"))
	sp := splitter.New(cfg.Ingest.DPI, logger.Named("splitter"))

	ip := ingest.New(cs, sp, chat, idx, logger.Named("ingest"))
	qp := query.New(chat, idx, cfg.Query.TopK, logger.Named("query"))
	queue := ingest.NewQueue(ip, cfg.Ingest.Workers, cfg.Ingest.QueueSize, logger.Named("queue"))

	return &app{
		cfg:            cfg,
		logger:         logger,
		ingestPipeline: ip,
		queryPipeline:  qp,
		queue:          queue,
	}, nil
}
