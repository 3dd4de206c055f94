package embedding

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

const DefaultLocalBaseURL = "http://localhost:1234/v1"

// OpenAIEmbedder calls the /embeddings endpoint of any OpenAI-compatible
// server: LM Studio, Ollama, llama.cpp or the OpenAI API itself.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbedder(apiKeyEnv, model string, timeout time.Duration) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return NewOpenAICompatibleEmbedder(apiKey, model, "https://api.openai.com/v1", timeout)
}

// NewLocalEmbedder targets a local server that ignores the API key.
func NewLocalEmbedder(model, baseURL string, timeout time.Duration) (*OpenAIEmbedder, error) {
	if baseURL == "" {
		baseURL = DefaultLocalBaseURL
	}
	return NewOpenAICompatibleEmbedder("lm-studio", model, baseURL, timeout)
}

func NewOpenAICompatibleEmbedder(apiKey, model, baseURL string, timeout time.Duration) (*OpenAIEmbedder, error) {
	if model == "" {
		return nil, fmt.Errorf("embedding model name is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
