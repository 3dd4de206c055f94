package port

import (
	"iter"

	"lmagents/internal/domain"
)

type Chunker interface {
	Chunk(doc domain.Document) []domain.Chunk

	// Chunks yields the same chunks lazily. Ranging over it twice yields
	// identical sequences.
	Chunks(doc domain.Document) iter.Seq[domain.Chunk]
}
