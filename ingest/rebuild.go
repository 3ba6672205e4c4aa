package ingest

import (
	"context"
	"fmt"

	"newsindex/repository"
	"newsindex/storage"

	"go.uber.org/zap"
)

// Rebuild loads up to limit articles from source, recreates the collection
// and ingests the articles into it. The collection is only dropped once the
// articles have been read, so unreadable input leaves it untouched.
func (u *Uploader) Rebuild(ctx context.Context, source storage.ArticleRepository, limit int,
	collection repository.NewsVectorRepo, spec repository.CollectionSpec) (int, error) {
	docs, err := source.Load(ctx, limit)
	if err != nil {
		return 0, err
	}
	u.logger.Info("articles loaded", zap.Int("count", len(docs)))

	if err := collection.RecreateCollection(ctx, spec); err != nil {
		return 0, fmt.Errorf("%w: recreate collection: %w", ErrStoreWrite, err)
	}
	return u.Ingest(ctx, docs)
}
