package cli

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"lmagents/config"
	"lmagents/internal/adapter/web"
	"lmagents/internal/domain"
	"lmagents/internal/usecase"
)

var (
	rankFile string
	rankURL  string
	rankText string
	rankTopK int
	rankJSON bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the chunks of a file or web page against a query",
	Long: `Split a document into overlapping word chunks, embed them and print the
chunks most similar to the query.

Without an embedding model the first chunks of the document are printed.

Examples:
  lmagents rank --file notes.txt -q "release schedule"
  lmagents rank --url https://go.dev/doc -q "modules" -k 5 --json`,
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().StringVar(&rankFile, "file", "", "local text or HTML file")
	rankCmd.Flags().StringVar(&rankURL, "url", "", "web page to fetch")
	rankCmd.Flags().StringVarP(&rankText, "query", "q", "", "query (required)")
	rankCmd.Flags().IntVarP(&rankTopK, "top-k", "k", 0, "number of results (default from config)")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "output as JSON")
	rankCmd.MarkFlagRequired("query")
	rankCmd.MarkFlagsOneRequired("file", "url")
	rankCmd.MarkFlagsMutuallyExclusive("file", "url")
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	doc, err := loadDocument(ctx, cfg)
	if err != nil {
		return err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("%w: %s", domain.ErrEmptyDocument, doc.URL)
	}

	r, err := newRetrieval(cfg)
	if err != nil {
		return err
	}

	chunks := r.chunker.Chunk(doc)

	var vectors [][]float32
	if r.embed.Available() {
		var progress usecase.ProgressFunc
		if !rankJSON {
			progress = newProgress("Embedding")
		}
		vectors, err = r.embed.EmbedChunks(ctx, chunks, progress)
		if err != nil && !errors.Is(err, domain.ErrProviderUnavailable) {
			return err
		}
	}

	topK := cfg.Retrieve.TopK
	if rankTopK > 0 {
		topK = rankTopK
	}

	start := time.Now()
	ranking, err := r.retrieve.Retrieve(ctx, rankText, chunks, vectors, topK)
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}
	component("rank").WithField("elapsed", time.Since(start)).Debug("chunks ranked")

	out := cmd.OutOrStdout()
	if rankJSON {
		data, err := json.MarshalIndent(usecase.NewRankingOutput(ranking), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if ranking.Degraded {
		fmt.Fprintf(out, "Embeddings unavailable (%s), showing chunks in document order.\n\n", ranking.Reason)
	}
	if len(ranking.Results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	fmt.Fprintf(out, "Found %d of %d chunks for: %s\n\n", len(ranking.Results), len(chunks), rankText)
	for i, sc := range ranking.Results {
		fmt.Fprintf(out, "--- [%d] chunk %d, words %d-%d (score: %.3f) ---\n", i+1, sc.Chunk.Index, sc.Chunk.Start, sc.Chunk.End, sc.Score)
		fmt.Fprintln(out, truncateText(sc.Chunk.Text, 500))
		fmt.Fprintln(out)
	}
	return nil
}

func loadDocument(ctx context.Context, cfg *config.Config) (domain.Document, error) {
	if rankURL != "" {
		return newFetcher(cfg.Fetch).Fetch(ctx, rankURL)
	}
	return readFileDocument(rankFile)
}

// readFileDocument loads a local file. HTML files get the same content
// extraction as fetched pages.
func readFileDocument(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	hash := sha256.Sum256([]byte(abs))
	doc := domain.Document{
		ID:        hex.EncodeToString(hash[:8]),
		URL:       "file://" + filepath.ToSlash(abs),
		Title:     filepath.Base(path),
		Text:      string(data),
		FetchedAt: time.Now(),
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		title, text, err := web.ExtractContent(bytes.NewReader(data))
		if err != nil {
			return domain.Document{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		doc.Title, doc.Text = title, text
	}
	return doc, nil
}
