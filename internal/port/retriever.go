package port

import (
	"context"

	"lmagents/internal/domain"
)

// Ranker orders chunks by relevance to a query. vectors is parallel to
// chunks and may be nil when no embeddings are available.
type Ranker interface {
	Rank(ctx context.Context, query string, chunks []domain.Chunk, vectors [][]float32, k int) (domain.Ranking, error)
}
