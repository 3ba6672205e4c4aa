package qdrantdb

import (
	"context"
	"fmt"
	"strings"

	"newsindex/repository"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

var _ repository.NewsVectorRepo = (*NewsClient)(nil)

// RecreateCollection drops the collection if present and creates it empty.
func (c *NewsClient) RecreateCollection(ctx context.Context, spec repository.CollectionSpec) error {
	distance, err := parseDistance(spec.Distance)
	if err != nil {
		return err
	}

	exists, err := c.Client.CollectionExists(ctx, c.collection)
	if err != nil {
		return fmt.Errorf("err check collection %s: %w", c.collection, err)
	}
	if exists {
		if err := c.Client.DeleteCollection(ctx, c.collection); err != nil {
			return fmt.Errorf("err delete collection %s: %w", c.collection, err)
		}
		c.logger.Info("dropped existing collection", zap.String("collection", c.collection))
	}

	err = c.Client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     spec.VectorSize,
			Distance: distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("err create collection %s: %w", c.collection, err)
	}

	c.logger.Info("created collection",
		zap.String("collection", c.collection),
		zap.Uint64("size", spec.VectorSize),
		zap.String("distance", distance.String()))
	return nil
}

func (c *NewsClient) Upsert(ctx context.Context, points []repository.NewsPoint) error {
	if len(points) == 0 {
		return nil
	}

	_, err := c.Client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         toPointStructs(points),
	})
	if err != nil {
		return fmt.Errorf("err upsert %d points into %s: %w", len(points), c.collection, err)
	}
	return nil
}

func toPointStructs(points []repository.NewsPoint) []*qdrant.PointStruct {
	out := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		md := map[string]any{
			"title": p.Payload.Title,
			"url":   p.Payload.URL,
			"text":  p.Payload.Text,
		}
		out[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(p.ID),
			Vectors: qdrant.NewVectorsDense(p.Vector),
			Payload: qdrant.NewValueMap(md),
		}
	}
	return out
}

func parseDistance(s string) (qdrant.Distance, error) {
	switch strings.ToLower(s) {
	case "", "cosine":
		return qdrant.Distance_Cosine, nil
	case "dot":
		return qdrant.Distance_Dot, nil
	case "euclid", "euclidean":
		return qdrant.Distance_Euclid, nil
	case "manhattan":
		return qdrant.Distance_Manhattan, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("unsupported distance %q", s)
	}
}
