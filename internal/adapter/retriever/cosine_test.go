package retriever

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lmagents/internal/adapter/embedding"
	"lmagents/internal/domain"
)

// scriptedEmbedder returns a fixed vector for every Embed call.
type scriptedEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (e *scriptedEmbedder) Embed(context.Context, string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

func (e *scriptedEmbedder) ModelName() string { return "scripted" }

func makeChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{ID: fmt.Sprintf("c%d", i), Index: i, Text: fmt.Sprintf("chunk %d", i)}
	}
	return chunks
}

// vectorWithSimilarity returns a unit vector whose cosine with (1, 0) is s.
func vectorWithSimilarity(s float64) []float32 {
	return []float32{float32(s), float32(math.Sqrt(1 - s*s))}
}

func TestCosineRankerScenario(t *testing.T) {
	chunks := makeChunks(5)
	scores := []float64{0.9, 0.95, 0.2, 0.95, 0.4}
	vectors := make([][]float32, len(scores))
	for i, s := range scores {
		vectors[i] = vectorWithSimilarity(s)
	}

	ranker := NewCosineRanker(&scriptedEmbedder{vec: []float32{1, 0}}, nil)
	ranking, err := ranker.Rank(context.Background(), "q", chunks, vectors, 3)
	require.NoError(t, err)

	require.Len(t, ranking.Results, 3)
	assert.False(t, ranking.Degraded)
	assert.Equal(t, 1, ranking.Results[0].Chunk.Index)
	assert.Equal(t, 3, ranking.Results[1].Chunk.Index)
	assert.Equal(t, 0, ranking.Results[2].Chunk.Index)
	assert.InDelta(t, 0.95, ranking.Results[0].Score, 1e-6)
	assert.InDelta(t, 0.95, ranking.Results[1].Score, 1e-6)
	assert.InDelta(t, 0.9, ranking.Results[2].Score, 1e-6)
}

func TestCosineRankerIdempotent(t *testing.T) {
	e := embedding.NewMockEmbedder(32)
	chunks := []domain.Chunk{
		{Index: 0, Text: "the cat sat on the mat"},
		{Index: 1, Text: "go channels and goroutines"},
		{Index: 2, Text: "a cat and a dog"},
		{Index: 3, Text: "nuclear energy policy"},
	}
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		v, err := e.Embed(context.Background(), c.Text)
		require.NoError(t, err)
		vectors[i] = v
	}

	ranker := NewCosineRanker(e, nil)
	first, err := ranker.Rank(context.Background(), "cat", chunks, vectors, 4)
	require.NoError(t, err)
	second, err := ranker.Rank(context.Background(), "cat", chunks, vectors, 4)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCosineRankerSelfSimilarity(t *testing.T) {
	e := embedding.NewMockEmbedder(64)
	chunks := []domain.Chunk{
		{Index: 0, Text: "retrieval augmented generation"},
		{Index: 1, Text: "images of holidays and animals"},
	}
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		v, err := e.Embed(context.Background(), c.Text)
		require.NoError(t, err)
		vectors[i] = v
	}

	ranking, err := NewCosineRanker(e, nil).Rank(context.Background(), chunks[1].Text, chunks, vectors, 1)
	require.NoError(t, err)

	require.Len(t, ranking.Results, 1)
	assert.Equal(t, 1, ranking.Results[0].Chunk.Index)
	assert.InDelta(t, 1.0, ranking.Results[0].Score, 1e-9)
}

func TestCosineRankerFallback(t *testing.T) {
	chunks := makeChunks(5)

	tests := []struct {
		name     string
		embedder *scriptedEmbedder
		vectors  [][]float32
		k        int
		want     int
	}{
		{"nil vectors", &scriptedEmbedder{vec: []float32{1}}, nil, 3, 3},
		{"empty vectors", &scriptedEmbedder{vec: []float32{1}}, [][]float32{}, 3, 3},
		{"k above count", &scriptedEmbedder{vec: []float32{1}}, nil, 10, 5},
		{"query embedding fails", &scriptedEmbedder{err: errors.New("connection refused")}, make([][]float32, 5), 2, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ranking, err := NewCosineRanker(tc.embedder, nil).Rank(context.Background(), "q", chunks, tc.vectors, tc.k)
			require.NoError(t, err)

			assert.True(t, ranking.Degraded)
			assert.NotEmpty(t, ranking.Reason)
			require.Len(t, ranking.Results, tc.want)
			for i, sc := range ranking.Results {
				assert.Equal(t, chunks[i], sc.Chunk)
			}
		})
	}
}

func TestCosineRankerNilEmbedder(t *testing.T) {
	chunks := makeChunks(2)
	ranking, err := NewCosineRanker(nil, nil).Rank(context.Background(), "q", chunks, [][]float32{{1}, {1}}, 3)
	require.NoError(t, err)
	assert.True(t, ranking.Degraded)
	assert.Len(t, ranking.Results, 2)
}

func TestCosineRankerSkipsQueryEmbeddingWithoutVectors(t *testing.T) {
	e := &scriptedEmbedder{vec: []float32{1}}
	_, err := NewCosineRanker(e, nil).Rank(context.Background(), "q", makeChunks(3), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, e.calls)
}

func TestCosineRankerErrors(t *testing.T) {
	chunks := makeChunks(2)

	t.Run("zero query vector", func(t *testing.T) {
		ranker := NewCosineRanker(&scriptedEmbedder{vec: []float32{0, 0}}, nil)
		_, err := ranker.Rank(context.Background(), "q", chunks, [][]float32{{1, 0}, {0, 1}}, 1)
		assert.ErrorIs(t, err, domain.ErrDegenerateVector)
	})

	t.Run("zero chunk vector", func(t *testing.T) {
		ranker := NewCosineRanker(&scriptedEmbedder{vec: []float32{1, 0}}, nil)
		_, err := ranker.Rank(context.Background(), "q", chunks, [][]float32{{1, 0}, {0, 0}}, 1)
		assert.ErrorIs(t, err, domain.ErrDegenerateVector)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		ranker := NewCosineRanker(&scriptedEmbedder{vec: []float32{1, 0, 0}}, nil)
		_, err := ranker.Rank(context.Background(), "q", chunks, [][]float32{{1, 0}, {0, 1}}, 1)
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("misaligned embeddings", func(t *testing.T) {
		ranker := NewCosineRanker(&scriptedEmbedder{vec: []float32{1, 0}}, nil)
		_, err := ranker.Rank(context.Background(), "q", chunks, [][]float32{{1, 0}}, 1)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestTopKBounds(t *testing.T) {
	chunks := makeChunks(3)
	scores := []float64{0.1, 0.3, 0.2}

	assert.Empty(t, TopK("q", chunks, scores, 0).Results)
	assert.Empty(t, TopK("q", chunks, scores, -1).Results)
	assert.Len(t, TopK("q", chunks, scores, 7).Results, 3)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := CosineSimilarity(tc.a, tc.b)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, result, 1e-9)
		})
	}
}
