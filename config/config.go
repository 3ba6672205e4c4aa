package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"newsindex/ingest"
	"newsindex/pkg/chunking"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalid         = errors.New("invalid configuration")
)

var (
	idSchemes    = []string{ingest.IDSchemeSequential, ingest.IDSchemeHashed, ingest.IDSchemeStride}
	chunkMethods = []string{chunking.MethodWindow, chunking.MethodRecursive}
	distances    = []string{"cosine", "dot", "euclid", "euclidean", "manhattan"}
)

type Config struct {
	LogDevelopment bool `envconfig:"LOG_DEVELOPMENT" default:"false"`

	// Embedding
	JinaAPIKey         string `envconfig:"JINA_API_KEY"`
	JinaURL            string `envconfig:"JINA_URL" default:"https://api.jina.ai/v1/embeddings"`
	JinaModel          string `envconfig:"JINA_MODEL" default:"jina-embeddings-v3"`
	JinaTask           string `envconfig:"JINA_TASK" default:"text-matching"`
	EmbeddingDimension int    `envconfig:"EMBEDDING_DIMENSION" default:"1024"`
	EmbeddingTimeout   int    `envconfig:"EMBEDDING_TIMEOUT_SECONDS" default:"60"`

	// Qdrant
	QdrantHost     string `envconfig:"QDRANT_HOST" default:"localhost"`
	QdrantPort     int    `envconfig:"QDRANT_PORT" default:"6334"`
	QdrantAPIKey   string `envconfig:"QDRANT_API_KEY"`
	QdrantUseTLS   bool   `envconfig:"QDRANT_USE_TLS" default:"false"`
	CollectionName string `envconfig:"COLLECTION_NAME" default:"news_docs"`
	Distance       string `envconfig:"DISTANCE" default:"cosine"`

	// Ingest
	ArticlesPath   string `envconfig:"ARTICLES_PATH" default:"articles.json"`
	MaxDocuments   int    `envconfig:"MAX_DOCUMENTS" default:"50"`
	BatchSize      int    `envconfig:"BATCH_SIZE" default:"32"`
	IDScheme       string `envconfig:"ID_SCHEME" default:"sequential"`
	IDStride       int    `envconfig:"ID_STRIDE" default:"10"`
	ChunkMethod    string `envconfig:"CHUNK_METHOD" default:"window"`
	ChunkMaxChars  int    `envconfig:"CHUNK_MAX_CHARS" default:"800"`
	ChunkOverlap   int    `envconfig:"CHUNK_OVERLAP" default:"100"`
	ChunkMinLength int    `envconfig:"CHUNK_MIN_LENGTH" default:"50"`

	// Fetch
	FeedsPath      string `envconfig:"FEEDS_PATH" default:"feeds.yaml"`
	MaxArticles    int    `envconfig:"MAX_ARTICLES" default:"60"`
	CrawlDBPath    string `envconfig:"CRAWL_DB_PATH" default:"data/crawl.db"`
	ProxyURL       string `envconfig:"PROXY_URL"`
	UserAgent      string `envconfig:"USER_AGENT" default:"newsindex/1.0"`
	RequestTimeout int    `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"30"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// Missing .env is fine, the shell may provide everything.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ChunkMaxChars <= 0 {
		return fmt.Errorf("%w: CHUNK_MAX_CHARS must be positive", ErrInvalid)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxChars {
		return fmt.Errorf("%w: CHUNK_OVERLAP must be in [0, CHUNK_MAX_CHARS)", ErrInvalid)
	}
	if c.ChunkMinLength < 0 {
		return fmt.Errorf("%w: CHUNK_MIN_LENGTH must not be negative", ErrInvalid)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: BATCH_SIZE must be positive", ErrInvalid)
	}
	if !slices.Contains(idSchemes, c.IDScheme) {
		return fmt.Errorf("%w: ID_SCHEME must be one of %v, got %q", ErrInvalid, idSchemes, c.IDScheme)
	}
	if !slices.Contains(chunkMethods, c.ChunkMethod) {
		return fmt.Errorf("%w: CHUNK_METHOD must be one of %v, got %q", ErrInvalid, chunkMethods, c.ChunkMethod)
	}
	if !slices.Contains(distances, strings.ToLower(c.Distance)) {
		return fmt.Errorf("%w: DISTANCE must be one of %v, got %q", ErrInvalid, distances, c.Distance)
	}
	if c.IDStride <= 0 {
		return fmt.Errorf("%w: ID_STRIDE must be positive", ErrInvalid)
	}
	if c.MaxDocuments < 0 {
		return fmt.Errorf("%w: MAX_DOCUMENTS must not be negative", ErrInvalid)
	}
	if c.MaxArticles < 0 {
		return fmt.Errorf("%w: MAX_ARTICLES must not be negative", ErrInvalid)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("%w: EMBEDDING_DIMENSION must be positive", ErrInvalid)
	}
	return nil
}

// RequireIngest checks the settings only the ingest command needs.
func (c *Config) RequireIngest() error {
	if c.JinaAPIKey == "" {
		return fmt.Errorf("%w: JINA_API_KEY", ErrMissingRequired)
	}
	if c.QdrantHost == "" {
		return fmt.Errorf("%w: QDRANT_HOST", ErrMissingRequired)
	}
	if c.CollectionName == "" {
		return fmt.Errorf("%w: COLLECTION_NAME", ErrMissingRequired)
	}
	return nil
}
