package usecase

import (
	"context"
	"strings"

	"lmagents/internal/adapter/cache"
	"lmagents/internal/domain"
	"lmagents/internal/port"
)

// RetrieveUseCase selects the chunks of the current document that are most
// relevant to a query.
type RetrieveUseCase struct {
	ranker            port.Ranker
	cache             *cache.RankingCache
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
}

// NewRetrieveUseCase creates a new retrieve use case. rankingCache may be nil.
func NewRetrieveUseCase(
	ranker port.Ranker,
	rankingCache *cache.RankingCache,
	minScoreThreshold float64,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		ranker:            ranker,
		cache:             rankingCache,
		minScoreThreshold: minScoreThreshold,
	}
}

// Retrieve ranks chunks against the query. vectors may be nil, in which case
// the ranking is degraded to document order. Cached rankings are keyed by
// the chunk set as well as the query.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, chunks []domain.Chunk, vectors [][]float32, topK int) (domain.Ranking, error) {
	key := cacheQuery(query, chunks)
	if u.cache != nil {
		if ranking, hit := u.cache.Get(key, topK); hit {
			return ranking, nil
		}
	}

	ranking, err := u.ranker.Rank(ctx, query, chunks, vectors, topK)
	if err != nil {
		return domain.Ranking{}, err
	}

	if u.minScoreThreshold > 0 && !ranking.Degraded {
		ranking.Results = u.filterByThreshold(ranking.Results)
	}

	if u.cache != nil {
		u.cache.Put(key, topK, ranking)
	}
	return ranking, nil
}

// Reset forgets cached rankings. Call it whenever the chunk set changes.
func (u *RetrieveUseCase) Reset() {
	if u.cache != nil {
		u.cache.Invalidate()
	}
}

// cacheQuery prefixes the query with the identity of the chunk set.
func cacheQuery(query string, chunks []domain.Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.DocID)
		sb.WriteByte(':')
		sb.WriteString(c.ID)
		sb.WriteByte(',')
	}
	sb.WriteByte(0)
	sb.WriteString(query)
	return sb.String()
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results []domain.ScoredChunk) []domain.ScoredChunk {
	filtered := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		if r.Score >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ScoredChunkResult is a simplified result for CLI output.
type ScoredChunkResult struct {
	Rank      int     `json:"rank"`
	Index     int     `json:"index"`
	StartWord int     `json:"start_word"`
	EndWord   int     `json:"end_word"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
}

// RankingOutput is the JSON shape of a ranking.
type RankingOutput struct {
	Query    string              `json:"query"`
	Degraded bool                `json:"degraded"`
	Reason   string              `json:"reason,omitempty"`
	Results  []ScoredChunkResult `json:"results"`
}

func NewRankingOutput(r domain.Ranking) RankingOutput {
	out := RankingOutput{
		Query:    r.Query,
		Degraded: r.Degraded,
		Reason:   r.Reason,
		Results:  make([]ScoredChunkResult, len(r.Results)),
	}
	for i, sc := range r.Results {
		out.Results[i] = ScoredChunkResult{
			Rank:      i + 1,
			Index:     sc.Chunk.Index,
			StartWord: sc.Chunk.Start,
			EndWord:   sc.Chunk.End,
			Score:     sc.Score,
			Text:      sc.Chunk.Text,
		}
	}
	return out
}
