package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"lmagents/internal/domain"
	"lmagents/internal/port"
)

// CosineRanker ranks chunks by cosine similarity between the query
// embedding and each chunk's embedding.
type CosineRanker struct {
	embedder port.Embedder
	log      *logrus.Entry
}

// NewCosineRanker creates a ranker. embedder may be nil, in which case every
// ranking is degraded to document order.
func NewCosineRanker(embedder port.Embedder, log *logrus.Entry) *CosineRanker {
	if log == nil {
		log = logrus.WithField("component", "ranker")
	}
	return &CosineRanker{
		embedder: embedder,
		log:      log,
	}
}

func (r *CosineRanker) Rank(ctx context.Context, query string, chunks []domain.Chunk, vectors [][]float32, k int) (domain.Ranking, error) {
	if r.embedder == nil {
		return Fallback(query, chunks, k, "embeddings not configured"), nil
	}
	if len(vectors) == 0 {
		return Fallback(query, chunks, k, "no chunk embeddings"), nil
	}
	if len(vectors) != len(chunks) {
		return domain.Ranking{}, fmt.Errorf("%w: %d embeddings for %d chunks", domain.ErrConfiguration, len(vectors), len(chunks))
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		perr := &domain.ProviderError{Index: -1, Err: err}
		r.log.WithError(perr).Warn("query embedding failed, using document order")
		return Fallback(query, chunks, k, perr.Error()), nil
	}

	scores, err := Similarities(queryVec, vectors)
	if err != nil {
		return domain.Ranking{}, err
	}

	return TopK(query, chunks, scores, k), nil
}

// Similarities computes the cosine similarity of query against every vector.
func Similarities(query []float32, vectors [][]float32) ([]float64, error) {
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		sim, err := CosineSimilarity(query, v)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		scores[i] = sim
	}
	return scores, nil
}

// TopK orders chunks by descending score, keeping document order among
// equal scores, and returns the first k.
func TopK(query string, chunks []domain.Chunk, scores []float64, k int) domain.Ranking {
	scored := make([]domain.ScoredChunk, len(chunks))
	for i, c := range chunks {
		scored[i] = domain.ScoredChunk{Chunk: c, Score: scores[i]}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	k = clampK(k, len(scored))
	return domain.Ranking{
		Query:   query,
		Results: scored[:k],
	}
}

// Fallback returns the first k chunks in document order as a degraded ranking.
func Fallback(query string, chunks []domain.Chunk, k int, reason string) domain.Ranking {
	k = clampK(k, len(chunks))
	results := make([]domain.ScoredChunk, k)
	for i := 0; i < k; i++ {
		results[i] = domain.ScoredChunk{Chunk: chunks[i]}
	}
	return domain.Ranking{
		Query:    query,
		Results:  results,
		Degraded: true,
		Reason:   reason,
	}
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Zero-norm inputs have no defined direction and are rejected.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, domain.ErrDegenerateVector
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

func clampK(k, n int) int {
	if k < 0 {
		return 0
	}
	if k > n {
		return n
	}
	return k
}
