package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the content store root. Page images and manifests land
// under {root}/documents/{content_hash}/.
type StorageConfig struct {
	Root string `yaml:"root"`
}

// LLMConfig configures the chat-completions inference endpoint shared by
// extraction, translation, integration and answer generation.
type LLMConfig struct {
	URL                  string `yaml:"url"`
	Model                string `yaml:"model"`
	ExtractTimeoutSecs   int    `yaml:"extract_timeout_secs"`
	TranslateTimeoutSecs int    `yaml:"translate_timeout_secs"`
	IntegrateTimeoutSecs int    `yaml:"integrate_timeout_secs"`
	AnswerTimeoutSecs    int    `yaml:"answer_timeout_secs"`
}

// EmbedderConfig configures the OpenAI-compatible embeddings client.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	Type       string        `yaml:"type"` // "memory" or "qdrant"
	Collection string        `yaml:"collection"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty"`
}

// ChunkerConfig configures how extracted page text is split for indexing.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// IngestConfig sizes the background ingestion worker pool.
type IngestConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
	DPI       int `yaml:"dpi"`
}

// QueryConfig configures the retrieval stage of the query pipeline.
type QueryConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	LLM         LLMConfig         `yaml:"llm"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Query       QueryConfig       `yaml:"query"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unusable configuration at startup instead of substituting
// defaults deep inside the pipelines.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Storage.Root == "" {
		return errors.New("storage.root is required")
	}
	if c.LLM.URL == "" {
		return errors.New("llm.url is required")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if c.Embedder.BaseURL == "" {
		return errors.New("embedder.base_url is required")
	}
	switch c.VectorStore.Type {
	case "memory":
	case "qdrant":
		if c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "" {
			return errors.New("vector_store.qdrant.url is required for type qdrant")
		}
	default:
		return fmt.Errorf("unknown vector_store.type %q", c.VectorStore.Type)
	}
	if c.VectorStore.Collection == "" {
		return errors.New("vector_store.collection is required")
	}
	if c.Chunker.ChunkSize <= 0 {
		return errors.New("chunker.chunk_size must be positive")
	}
	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		return errors.New("chunker.chunk_overlap must be in [0, chunk_size)")
	}
	if c.Ingest.Workers <= 0 {
		return errors.New("ingest.workers must be positive")
	}
	if c.Ingest.QueueSize <= 0 {
		return errors.New("ingest.queue_size must be positive")
	}
	if c.Ingest.DPI <= 0 {
		return errors.New("ingest.dpi must be positive")
	}
	if c.Query.TopK <= 0 {
		return errors.New("query.top_k must be positive")
	}
	return nil
}

// ExtractTimeout returns the per-call timeout for VL extraction requests.
func (c LLMConfig) ExtractTimeout() time.Duration {
	return time.Duration(c.ExtractTimeoutSecs) * time.Second
}

// TranslateTimeout returns the per-call timeout for translation requests.
func (c LLMConfig) TranslateTimeout() time.Duration {
	return time.Duration(c.TranslateTimeoutSecs) * time.Second
}

// IntegrateTimeout returns the per-call timeout for consolidation requests.
func (c LLMConfig) IntegrateTimeout() time.Duration {
	return time.Duration(c.IntegrateTimeoutSecs) * time.Second
}

// AnswerTimeout returns the per-call timeout for answer generation requests.
func (c LLMConfig) AnswerTimeout() time.Duration {
	return time.Duration(c.AnswerTimeoutSecs) * time.Second
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8000},
		Storage: StorageConfig{Root: "./data"},
		LLM: LLMConfig{
			URL:                  "http://localhost:58123/v1/chat/completions",
			Model:                "/models/qwen2.5-7b",
			ExtractTimeoutSecs:   600,
			TranslateTimeoutSecs: 60,
			IntegrateTimeoutSecs: 600,
			AnswerTimeoutSecs:    120,
		},
		Embedder: EmbedderConfig{
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "text-embedding-3-small",
			TimeoutSecs: 30,
		},
		VectorStore: VectorStoreConfig{Type: "memory", Collection: "pdf_documents"},
		Chunker:     ChunkerConfig{ChunkSize: 300, ChunkOverlap: 30},
		Ingest:      IngestConfig{Workers: 2, QueueSize: 16, DPI: 200},
		Query:       QueryConfig{TopK: 3},
	}
}
