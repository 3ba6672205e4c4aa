package repository

import (
	"context"
)

type NewsVectorRepo interface {
	RecreateCollection(ctx context.Context, spec CollectionSpec) error
	Upsert(ctx context.Context, points []NewsPoint) error
}

// CollectionSpec describes how the (fixed-name) collection is created.
type CollectionSpec struct {
	VectorSize uint64
	Distance   string
}

type NewsPayload struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

// NewsPoint is a single chunk vector as persisted in the vector store.
type NewsPoint struct {
	ID      uint64      `json:"id"`
	Vector  []float32   `json:"vector"`
	Payload NewsPayload `json:"payload"`
}
