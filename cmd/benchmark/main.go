package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"lmagents/config"
	"lmagents/internal/adapter/chunker"
	"lmagents/internal/adapter/embedding"
	"lmagents/internal/adapter/retriever"
	"lmagents/internal/domain"
	"lmagents/internal/port"
	"lmagents/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding lmagents.yaml")
	file := flag.String("file", "", "Text file to chunk and rank")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 3, "Number of results")
	flag.Parse()

	if *file == "" || *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -file ./page.txt -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, dimensions)")
		fmt.Println("  2. Self-similarity (a chunk used as query ranks itself first)")
		fmt.Println("  3. Query ranking quality and latency")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(logrus.WarnLevel)

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	doc := domain.Document{ID: *file, URL: *file, Title: *file, Text: string(data)}

	embedder, err := setupEmbedding(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embeddings not available: %v\n", err)
		os.Exit(1)
	}

	chk, err := chunker.NewWordChunker(cfg.Chunking.ChunkWords, cfg.Chunking.OverlapWords)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid chunking config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Chunking: %d words, %d overlap\n\n", chk.Size(), chk.Overlap())

	start := time.Now()
	chunks := chk.Chunk(doc)
	chunkTime := time.Since(start)
	fmt.Printf("Chunks: %d (%v)\n", len(chunks), chunkTime)

	ctx := context.Background()
	embedUC := usecase.NewEmbedUseCase(embedder, cfg.Embedding.Concurrency, nil)

	start = time.Now()
	vectors, err := embedUC.EmbedChunks(ctx, chunks, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}
	embedTime := time.Since(start)
	fmt.Printf("Embedded: %d dimensions (%v, %v/chunk)\n\n", len(vectors[0]), embedTime, embedTime/time.Duration(len(chunks)))

	ranker := retriever.NewCosineRanker(embedder, nil)

	// Self-similarity: each chunk's own text must rank it first.
	selfHits := 0
	for i, c := range chunks {
		ranking, err := ranker.Rank(ctx, c.Text, chunks, vectors, 1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ranking error: %v\n", err)
			os.Exit(1)
		}
		if len(ranking.Results) > 0 && ranking.Results[0].Chunk.Index == i && math.Abs(ranking.Results[0].Score-1) < 1e-3 {
			selfHits++
		}
	}

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	start = time.Now()
	ranking, err := ranker.Rank(ctx, *query, chunks, vectors, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ranking error: %v\n", err)
		os.Exit(1)
	}
	rankTime := time.Since(start)

	fmt.Printf("Top %d matches (%v):\n\n", len(ranking.Results), rankTime)

	totalScore := 0.0
	for i, r := range ranking.Results {
		preview := r.Chunk.Text
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}

		totalScore += r.Score

		rating := "LOW"
		if r.Score > 0.7 {
			rating = "HIGH"
		} else if r.Score > 0.5 {
			rating = "GOOD"
		} else if r.Score > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] chunk %d, words %d-%d\n", i+1, rating, r.Score, r.Chunk.Index, r.Chunk.Start, r.Chunk.End)
		fmt.Printf("   %s\n\n", preview)
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Self-similarity:    %d/%d chunks rank themselves first\n", selfHits, len(chunks))
	if len(ranking.Results) > 0 {
		fmt.Printf("  Average similarity: %.3f\n", totalScore/float64(len(ranking.Results)))
		fmt.Printf("  Top-1 similarity:   %.3f\n", ranking.Results[0].Score)
	}

	if selfHits == len(chunks) {
		fmt.Println("  Status: GOOD - embeddings are consistent")
	} else {
		fmt.Println("  Status: POOR - the model returns unstable or colliding embeddings")
	}
}

func setupEmbedding(cfg *config.Config) (port.Embedder, error) {
	if !cfg.Embedding.Enabled {
		return nil, fmt.Errorf("embeddings not enabled in config")
	}

	switch cfg.Embedding.Provider {
	case "local":
		return embedding.NewLocalEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Timeout)
	case "openai":
		if cfg.Embedding.BaseURL != "" && cfg.Embedding.BaseURL != embedding.DefaultLocalBaseURL {
			return embedding.NewOpenAICompatibleEmbedder(os.Getenv(cfg.Embedding.APIKeyEnv), cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Timeout)
		}
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.Timeout)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}
