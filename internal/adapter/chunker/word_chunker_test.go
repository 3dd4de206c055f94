package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"lmagents/internal/domain"
)

func makeWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestWordChunkerShortDocument(t *testing.T) {
	chunker, err := NewWordChunker(10, 2)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"single word", "hello"},
		{"exactly size", makeWords(10)},
		{"keeps raw whitespace", "one  two\n\tthree"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chunks := chunker.Chunk(domain.Document{ID: "doc1", Text: tc.text})
			if len(chunks) != 1 {
				t.Fatalf("expected 1 chunk, got %d", len(chunks))
			}
			if chunks[0].Text != tc.text {
				t.Errorf("expected chunk text %q, got %q", tc.text, chunks[0].Text)
			}
			if chunks[0].Index != 0 || chunks[0].Start != 0 {
				t.Errorf("expected index 0 starting at 0, got %d at %d", chunks[0].Index, chunks[0].Start)
			}
		})
	}
}

func TestWordChunkerScenario(t *testing.T) {
	chunker, err := NewWordChunker(1000, 200)
	if err != nil {
		t.Fatal(err)
	}

	text := makeWords(1500)
	words := strings.Fields(text)
	chunks := chunker.Chunk(domain.Document{ID: "doc1", Text: text})

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].End != 1000 {
		t.Errorf("expected first chunk [0,1000), got [%d,%d)", chunks[0].Start, chunks[0].End)
	}
	if chunks[1].Start != 800 || chunks[1].End != 1500 {
		t.Errorf("expected second chunk [800,1500), got [%d,%d)", chunks[1].Start, chunks[1].End)
	}
	if chunks[0].Text != strings.Join(words[0:1000], " ") {
		t.Error("first chunk text does not match words[0:1000]")
	}
	if chunks[1].Text != strings.Join(words[800:1500], " ") {
		t.Error("second chunk text does not match words[800:1500]")
	}
}

func TestWordChunkerOverlap(t *testing.T) {
	tests := []struct {
		size, overlap, words int
	}{
		{5, 0, 23},
		{5, 1, 23},
		{5, 4, 23},
		{10, 3, 100},
		{7, 2, 8},
		{10, 8, 11},
		{10, 8, 20},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("S=%d,O=%d,n=%d", tc.size, tc.overlap, tc.words), func(t *testing.T) {
			chunker, err := NewWordChunker(tc.size, tc.overlap)
			if err != nil {
				t.Fatal(err)
			}
			chunks := chunker.Chunk(domain.Document{ID: "doc", Text: makeWords(tc.words)})

			for i, chunk := range chunks {
				if chunk.Index != i {
					t.Errorf("chunk %d has index %d", i, chunk.Index)
				}
				if chunk.Start != i*(tc.size-tc.overlap) {
					t.Errorf("chunk %d starts at %d, expected %d", i, chunk.Start, i*(tc.size-tc.overlap))
				}
				if len(chunk.Words) > tc.size {
					t.Errorf("chunk %d has %d words, max %d", i, len(chunk.Words), tc.size)
				}
			}

			for i := 0; i+1 < len(chunks); i++ {
				cur, next := chunks[i], chunks[i+1]
				if len(cur.Words) != tc.size {
					t.Errorf("chunk %d has %d words, only the last may be shorter than %d", i, len(cur.Words), tc.size)
				}
				shared := cur.End - next.Start
				if shared != tc.overlap {
					t.Errorf("chunks %d and %d overlap by %d words, expected %d", i, i+1, shared, tc.overlap)
				}
				for j := 0; j < shared; j++ {
					if cur.Words[len(cur.Words)-shared+j] != next.Words[j] {
						t.Fatalf("overlapping word mismatch between chunks %d and %d", i, i+1)
					}
				}
			}

			last := chunks[len(chunks)-1]
			if last.End != tc.words {
				t.Errorf("last chunk ends at %d, expected %d", last.End, tc.words)
			}
		})
	}
}

func TestWordChunkerStopsAtDocumentEnd(t *testing.T) {
	chunker, err := NewWordChunker(10, 8)
	if err != nil {
		t.Fatal(err)
	}

	chunks := chunker.Chunk(domain.Document{ID: "doc", Text: makeWords(11)})

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[1].Start != 2 || chunks[1].End != 11 {
		t.Errorf("expected second chunk [2,11), got [%d,%d)", chunks[1].Start, chunks[1].End)
	}
}

func TestWordChunkerReconstructsDocument(t *testing.T) {
	chunker, err := NewWordChunker(6, 2)
	if err != nil {
		t.Fatal(err)
	}
	text := makeWords(31)
	chunks := chunker.Chunk(domain.Document{ID: "doc", Text: text})

	var rebuilt []string
	covered := 0
	for _, chunk := range chunks {
		if chunk.End > covered {
			rebuilt = append(rebuilt, chunk.Words[covered-chunk.Start:]...)
			covered = chunk.End
		}
	}

	if strings.Join(rebuilt, " ") != text {
		t.Error("non-overlapping spans do not reconstruct the document")
	}
}

func TestWordChunkerRestartable(t *testing.T) {
	chunker, err := NewWordChunker(4, 1)
	if err != nil {
		t.Fatal(err)
	}
	doc := domain.Document{ID: "doc", Text: makeWords(17)}
	seq := chunker.Chunks(doc)

	var first, second []string
	for c := range seq {
		first = append(first, c.ID+"|"+c.Text)
	}
	for c := range seq {
		second = append(second, c.ID+"|"+c.Text)
	}

	if strings.Join(first, "\n") != strings.Join(second, "\n") {
		t.Error("ranging over the sequence twice produced different chunks")
	}
}

func TestWordChunkerEarlyStop(t *testing.T) {
	chunker, err := NewWordChunker(3, 0)
	if err != nil {
		t.Fatal(err)
	}

	n := 0
	for range chunker.Chunks(domain.Document{ID: "doc", Text: makeWords(30)}) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected to stop after 2 chunks, got %d", n)
	}
}

func TestNewWordChunkerInvalid(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 5, 5},
		{"overlap exceeds size", 5, 8},
		{"negative overlap", 5, -1},
		{"zero size", 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWordChunker(tc.size, tc.overlap)
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestChunkIDUniqueness(t *testing.T) {
	chunker, err := NewWordChunker(4, 2)
	if err != nil {
		t.Fatal(err)
	}

	chunks := chunker.Chunk(domain.Document{ID: "doc1", Text: makeWords(40)})

	ids := make(map[string]bool)
	for _, chunk := range chunks {
		if chunk.ID == "" {
			t.Error("chunk has empty ID")
		}
		if ids[chunk.ID] {
			t.Errorf("duplicate chunk ID: %s", chunk.ID)
		}
		ids[chunk.ID] = true
		if chunk.DocID != "doc1" {
			t.Errorf("expected DocID 'doc1', got '%s'", chunk.DocID)
		}
	}
}
