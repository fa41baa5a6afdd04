package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable marks a failure of the embedding backend itself
// (unreachable, non-2xx). Callers treat it as fatal unless the operation is
// explicitly best-effort.
var ErrUnavailable = errors.New("embedding backend unavailable")

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}
