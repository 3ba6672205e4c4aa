package ingest

import (
	"context"
	"errors"
	"fmt"

	"newsindex/pkg/chunking"
	"newsindex/pkg/embedding"
	"newsindex/repository"

	"go.uber.org/zap"
)

const DefaultBatchSize = 32

// ErrStoreWrite wraps a failed flush. Batches flushed before it stay committed.
var ErrStoreWrite = errors.New("vector store write failed")

type PointWriter interface {
	Upsert(ctx context.Context, points []repository.NewsPoint) error
}

type Uploader struct {
	chunker   chunking.Client
	embedder  embedding.Client
	writer    PointWriter
	logger    *zap.Logger
	batchSize int
	idScheme  string
	idStride  int
	dimension int
}

type Option func(*Uploader)

func WithBatchSize(n int) Option {
	return func(u *Uploader) { u.batchSize = n }
}

func WithIDScheme(scheme string) Option {
	return func(u *Uploader) { u.idScheme = scheme }
}

func WithIDStride(n int) Option {
	return func(u *Uploader) { u.idStride = n }
}

// WithDimension makes the uploader reject vectors of any other length.
// Zero disables the check.
func WithDimension(n int) Option {
	return func(u *Uploader) { u.dimension = n }
}

func NewUploader(chunker chunking.Client, embedder embedding.Client, writer PointWriter,
	logger *zap.Logger, opts ...Option) (*Uploader, error) {
	u := &Uploader{
		chunker:   chunker,
		embedder:  embedder,
		writer:    writer,
		logger:    logger,
		batchSize: DefaultBatchSize,
		idScheme:  IDSchemeSequential,
		idStride:  DefaultIDStride,
	}
	for _, opt := range opts {
		opt(u)
	}

	if u.batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfiguration, u.batchSize)
	}
	if u.dimension < 0 {
		return nil, fmt.Errorf("%w: dimension must not be negative, got %d", ErrInvalidConfiguration, u.dimension)
	}
	if _, err := newIDAssigner(u.idScheme, u.idStride); err != nil {
		return nil, err
	}
	return u, nil
}

// Ingest chunks, embeds and stores docs in order and returns the number of
// points written. The first embedding or store failure aborts the run;
// batches already flushed are not rolled back.
func (u *Uploader) Ingest(ctx context.Context, docs []repository.Article) (int, error) {
	ids, err := newIDAssigner(u.idScheme, u.idStride)
	if err != nil {
		return 0, err
	}

	var (
		batch   []repository.NewsPoint
		written int
	)

	for docIndex, doc := range docs {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		points, err := u.buildPoints(ctx, ids, docIndex, doc)
		if err != nil {
			return written, err
		}
		if len(points) == 0 {
			continue
		}
		batch = append(batch, points...)

		if len(batch) >= u.batchSize {
			if err := u.flush(ctx, batch); err != nil {
				return written, err
			}
			written += len(batch)
			u.logger.Info("uploaded batch",
				zap.Int("articles_processed", docIndex+1),
				zap.Int("points", len(batch)),
				zap.Int("total_points", written))
			batch = nil
		}
	}

	if len(batch) > 0 {
		if err := u.flush(ctx, batch); err != nil {
			return written, err
		}
		written += len(batch)
		u.logger.Info("uploaded final batch",
			zap.Int("points", len(batch)),
			zap.Int("total_points", written))
	}

	u.logger.Info("ingest finished",
		zap.Int("articles", len(docs)),
		zap.Int("points", written))
	return written, nil
}

func (u *Uploader) buildPoints(ctx context.Context, ids idAssigner, docIndex int,
	doc repository.Article) ([]repository.NewsPoint, error) {
	chunks, err := u.chunker.Chunk(doc.Text)
	if err != nil {
		return nil, fmt.Errorf("err chunk article %d (%s): %w", docIndex, doc.URL, err)
	}
	if len(chunks) == 0 {
		u.logger.Debug("article has no usable chunks",
			zap.Int("article", docIndex),
			zap.String("url", doc.URL))
		return nil, nil
	}

	docID := doc.ID
	if docID == "" {
		docID = doc.URL
	}
	pointIDs, err := ids.ids(docIndex, docID, len(chunks))
	if err != nil {
		return nil, err
	}

	vectors, err := u.embedder.GetEmbeddings(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("err embed article %d (%s): %w", docIndex, doc.URL, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("err embed article %d (%s): %w: got %d vectors for %d chunks",
			docIndex, doc.URL, embedding.ErrEmbeddingService, len(vectors), len(chunks))
	}

	points := make([]repository.NewsPoint, len(chunks))
	for i, chunk := range chunks {
		vec := vectors[i]
		if u.dimension > 0 && len(vec) != u.dimension {
			return nil, fmt.Errorf("err embed article %d (%s): %w: chunk %d has dimension %d, want %d",
				docIndex, doc.URL, embedding.ErrEmbeddingService, i, len(vec), u.dimension)
		}

		u.logger.Debug("chunk embedded",
			zap.Int("article", docIndex),
			zap.Int("chunk", i),
			zap.Int("vector_length", len(vec)))

		points[i] = repository.NewsPoint{
			ID:     pointIDs[i],
			Vector: vec,
			Payload: repository.NewsPayload{
				Title: doc.Title,
				URL:   doc.URL,
				Text:  chunk,
			},
		}
	}
	return points, nil
}

func (u *Uploader) flush(ctx context.Context, batch []repository.NewsPoint) error {
	if err := u.writer.Upsert(ctx, batch); err != nil {
		return fmt.Errorf("%w: %d points: %w", ErrStoreWrite, len(batch), err)
	}
	return nil
}
