package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompatibleEmbedder(t *testing.T) {
	var gotModel string
	var gotInput []string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		gotInput = req.Input

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"nomic","data":[{"object":"embedding","index":0,"embedding":[0.5,-1,2]}],"usage":{"prompt_tokens":2,"total_tokens":2}}`))
	}))
	defer ts.Close()

	e, err := NewOpenAICompatibleEmbedder("key", "nomic-embed-text-v1.5", ts.URL+"/v1", 5*time.Second)
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, -1, 2}, vec)
	assert.Equal(t, "nomic-embed-text-v1.5", gotModel)
	assert.Equal(t, []string{"hello world"}, gotInput)
	assert.Equal(t, "nomic-embed-text-v1.5", e.ModelName())
}

func TestOpenAICompatibleEmbedderServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"model not loaded","type":"invalid_request_error"}}`))
	}))
	defer ts.Close()

	e, err := NewLocalEmbedder("missing", ts.URL+"/v1", time.Second)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOpenAICompatibleEmbedderEmptyData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer ts.Close()

	e, err := NewLocalEmbedder("nomic", ts.URL+"/v1", time.Second)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestNewOpenAIEmbedderMissingKey(t *testing.T) {
	t.Setenv("LMAGENTS_TEST_MISSING_KEY", "")
	_, err := NewOpenAIEmbedder("LMAGENTS_TEST_MISSING_KEY", "text-embedding-3-small", time.Second)
	assert.Error(t, err)
}

func TestNewOpenAICompatibleEmbedderRequiresModel(t *testing.T) {
	_, err := NewLocalEmbedder("", "", time.Second)
	assert.Error(t, err)
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(64)

	v1, err := e.Embed(context.Background(), "Go is great for AI")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "go IS great,   for ai!")
	require.NoError(t, err)

	assert.Len(t, v1, 64)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 64, e.Dimension())
	assert.Equal(t, "mock", e.ModelName())
}

func TestMockEmbedderDefaultDimension(t *testing.T) {
	e := NewMockEmbedder(0)
	assert.Equal(t, 256, e.Dimension())
}
