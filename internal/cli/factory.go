package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"lmagents/config"
	"lmagents/internal/adapter/cache"
	"lmagents/internal/adapter/chunker"
	"lmagents/internal/adapter/embedding"
	"lmagents/internal/adapter/llm"
	"lmagents/internal/adapter/retriever"
	"lmagents/internal/adapter/web"
	"lmagents/internal/port"
	"lmagents/internal/usecase"
)

// newEmbedder returns nil when embeddings are disabled.
func newEmbedder(c config.EmbeddingConfig) (port.Embedder, error) {
	if !c.Enabled {
		return nil, nil
	}

	var (
		emb *embedding.OpenAIEmbedder
		err error
	)
	switch c.Provider {
	case "mock":
		return embedding.NewMockEmbedder(c.Dimension), nil
	case "openai":
		if c.BaseURL != "" && c.BaseURL != embedding.DefaultLocalBaseURL {
			emb, err = embedding.NewOpenAICompatibleEmbedder(os.Getenv(c.APIKeyEnv), c.Model, c.BaseURL, c.Timeout)
		} else {
			emb, err = embedding.NewOpenAIEmbedder(c.APIKeyEnv, c.Model, c.Timeout)
		}
	case "local":
		emb, err = embedding.NewLocalEmbedder(c.Model, c.BaseURL, c.Timeout)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", c.Provider)
	}
	if err != nil {
		return nil, err
	}
	return emb, nil
}

func newLLMClient(c config.LLMConfig, log *logrus.Entry) (*llm.Client, error) {
	return llm.NewClient(llm.Options{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey(),
		Model:       c.Model,
		VisionModel: c.VisionModel,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
	}, log)
}

func newFetcher(c config.FetchConfig) *web.Fetcher {
	return web.NewFetcher(web.Options{
		Timeout:   c.Timeout,
		UserAgent: c.UserAgent,
		MaxBytes:  c.MaxBytes,
	}, component("fetcher"))
}

// retrieval bundles the chunk, embed and rank stages built from config.
type retrieval struct {
	chunker  *chunker.WordChunker
	embed    *usecase.EmbedUseCase
	retrieve *usecase.RetrieveUseCase
	// err is why no embedder could be built, if any.
	err error
}

func newRetrieval(cfg *config.Config) (*retrieval, error) {
	chk, err := chunker.NewWordChunker(cfg.Chunking.ChunkWords, cfg.Chunking.OverlapWords)
	if err != nil {
		return nil, err
	}

	embedder, embErr := newEmbedder(cfg.Embedding)
	if embErr != nil {
		component("embed").WithError(embErr).Warn("embedding model unavailable, chunks will not be ranked")
	}

	var rankingCache *cache.RankingCache
	if cfg.Retrieve.CacheSize > 0 {
		rankingCache = cache.NewRankingCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)
	}

	return &retrieval{
		chunker: chk,
		embed:   usecase.NewEmbedUseCase(embedder, cfg.Embedding.Concurrency, component("embed")),
		retrieve: usecase.NewRetrieveUseCase(
			retriever.NewCosineRanker(embedder, component("ranker")),
			rankingCache,
			cfg.Retrieve.MinScoreThreshold,
		),
		err: embErr,
	}, nil
}

// newProgress returns a progress callback that draws a bar on stderr once
// the total is known.
func newProgress(description string) usecase.ProgressFunc {
	var (
		mu        sync.Mutex
		bar       *progressbar.ProgressBar
		startTime time.Time
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}
		bar.Set(done)

		if done > 0 {
			rate := float64(done) / time.Since(startTime).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", description, formatDuration(eta)))
			}
		}
	}
}
