package embedding

import (
	"context"
	"errors"
)

var (
	// ErrConfiguration means the client cannot be built, e.g. no API key.
	ErrConfiguration = errors.New("embedding client misconfigured")

	// ErrEmbeddingService covers transport failures, rejected credentials,
	// non-success responses and malformed payloads from the remote model.
	ErrEmbeddingService = errors.New("embedding service error")
)

type Client interface {
	// One vector per input text, in input order.
	GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}
