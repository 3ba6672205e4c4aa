package main

import (
	"fmt"
	"time"

	"newsindex/ingest"
	"newsindex/pkg/chunking"
	"newsindex/pkg/embedding"
	"newsindex/pkg/qdrantdb"
	"newsindex/repository"
	"newsindex/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk, embed and upload saved articles into a fresh collection",
	RunE:  runIngest,
}

var (
	ingestArticles string
	ingestLimit    int
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestArticles, "articles", "a", "", "Articles JSON file (default ARTICLES_PATH)")
	ingestCmd.Flags().IntVarP(&ingestLimit, "limit", "n", -1, "Maximum documents to ingest, 0 for all (default MAX_DOCUMENTS)")
	rootCmd.AddCommand(ingestCmd)
}

// runIngest builds every client before the collection is touched.
func runIngest(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireIngest(); err != nil {
		return err
	}
	if ingestArticles != "" {
		cfg.ArticlesPath = ingestArticles
	}
	if ingestLimit >= 0 {
		cfg.MaxDocuments = ingestLimit
	}

	// =========
	// Embedding Client
	// =========
	embedder, err := embedding.NewJinaClient(embedding.JinaConfig{
		APIKey:  cfg.JinaAPIKey,
		BaseURL: cfg.JinaURL,
		Model:   cfg.JinaModel,
		Task:    cfg.JinaTask,
		Timeout: time.Duration(cfg.EmbeddingTimeout) * time.Second,
	})
	if err != nil {
		return err
	}

	// =========
	// Chunking Client
	// =========
	chunker, err := chunking.New(cfg.ChunkMethod,
		chunking.WithMaxChars(cfg.ChunkMaxChars),
		chunking.WithOverlap(cfg.ChunkOverlap),
		chunking.WithMinLength(cfg.ChunkMinLength))
	if err != nil {
		return err
	}

	// =========
	// Qdrant vector
	// =========
	qdb, err := qdrantdb.NewClient(qdrantdb.Config{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		APIKey:     cfg.QdrantAPIKey,
		UseTLS:     cfg.QdrantUseTLS,
		Collection: cfg.CollectionName,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	defer qdb.Close()

	// =========
	// Uploader
	// =========
	uploader, err := ingest.NewUploader(chunker, embedder, qdb, logger,
		ingest.WithBatchSize(cfg.BatchSize),
		ingest.WithIDScheme(cfg.IDScheme),
		ingest.WithIDStride(cfg.IDStride),
		ingest.WithDimension(cfg.EmbeddingDimension))
	if err != nil {
		return err
	}

	source := storage.NewArticleFile(cfg.ArticlesPath)
	written, err := uploader.Rebuild(cmd.Context(), source, cfg.MaxDocuments, qdb, repository.CollectionSpec{
		VectorSize: uint64(cfg.EmbeddingDimension),
		Distance:   cfg.Distance,
	})
	if err != nil {
		return err
	}
	logger.Info("ingest finished",
		zap.String("collection", qdb.CollectionName()),
		zap.Int("points", written))
	return nil
}
