package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"strings"

	"lmagents/internal/domain"
)

// WordChunker splits text into windows of size words, each window starting
// size-overlap words after the previous one.
type WordChunker struct {
	size    int
	overlap int
}

func NewWordChunker(size, overlap int) (*WordChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrConfiguration, size, overlap)
	}
	return &WordChunker{
		size:    size,
		overlap: overlap,
	}, nil
}

func (c *WordChunker) Size() int    { return c.size }
func (c *WordChunker) Overlap() int { return c.overlap }

func (c *WordChunker) Chunk(doc domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for chunk := range c.Chunks(doc) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (c *WordChunker) Chunks(doc domain.Document) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		words := strings.Fields(doc.Text)

		// Short documents are kept verbatim.
		if len(words) <= c.size {
			yield(domain.Chunk{
				ID:    generateChunkID(doc.ID, 0, len(words)),
				DocID: doc.ID,
				Index: 0,
				Start: 0,
				End:   len(words),
				Words: words,
				Text:  doc.Text,
			})
			return
		}

		step := c.size - c.overlap
		for i, start := 0, 0; start < len(words); i, start = i+1, start+step {
			end := min(start+c.size, len(words))
			span := words[start:end]
			chunk := domain.Chunk{
				ID:    generateChunkID(doc.ID, start, end),
				DocID: doc.ID,
				Index: i,
				Start: start,
				End:   end,
				Words: span,
				Text:  strings.Join(span, " "),
			}
			if !yield(chunk) {
				return
			}
			// Later windows would lie inside this one.
			if end == len(words) {
				return
			}
		}
	}
}

func generateChunkID(docID string, start, end int) string {
	data := fmt.Sprintf("%s:%d-%d", docID, start, end)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
