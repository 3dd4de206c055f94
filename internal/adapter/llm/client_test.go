package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lmagents/internal/domain"
)

type capturedRequest struct {
	Model    string           `json:"model"`
	Messages []map[string]any `json:"messages"`
	Tools    []map[string]any `json:"tools"`
}

func newTestServer(t *testing.T, reply string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reply))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:     ts.URL + "/v1",
		Model:       "gemma-3-4b-it",
		VisionModel: "llava",
		Timeout:     5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return c
}

const textReply = `{"id":"1","object":"chat.completion","model":"gemma","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Nuclear power is low carbon."}}],"usage":{"prompt_tokens":5,"completion_tokens":5,"total_tokens":10}}`

func TestClientRespond(t *testing.T) {
	var captured capturedRequest
	ts := newTestServer(t, textReply, &captured)
	c := newTestClient(t, ts)

	reply, err := c.Respond(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "You are a debater."},
		{Role: domain.RoleUser, Content: "Opening statement?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Nuclear power is low carbon.", reply)
	assert.Equal(t, "gemma-3-4b-it", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0]["role"])
	assert.Equal(t, "Opening statement?", captured.Messages[1]["content"])
	assert.Empty(t, captured.Tools)
}

func TestClientCompleteWithTools(t *testing.T) {
	reply := `{"id":"2","object":"chat.completion","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":"Let me add.","tool_calls":[{"id":"call_1","type":"function","function":{"name":"addition","arguments":"{\"a\":2,\"b\":3}"}},{"type":"function","function":{"name":"list_images_to_process","arguments":""}}]}}]}`

	var captured capturedRequest
	ts := newTestServer(t, reply, &captured)
	c := newTestClient(t, ts)

	tools := []domain.ToolSpec{{
		Name:        "addition",
		Description: "adds",
		Params: []domain.ToolParam{
			{Name: "a", Type: "integer", Required: true},
			{Name: "b", Type: "integer", Required: true},
		},
	}}
	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "2+3?"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "call_0", Name: "addition", Arguments: `{"a":1,"b":1}`}}},
		{Role: domain.RoleTool, ToolCallID: "call_0", Name: "addition", Content: "2"},
	}

	msg, err := c.Complete(context.Background(), history, tools)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAssistant, msg.Role)
	assert.Equal(t, "Let me add.", msg.Content)
	require.Len(t, msg.ToolCalls, 2)
	assert.Equal(t, domain.ToolCall{ID: "call_1", Name: "addition", Arguments: `{"a":2,"b":3}`}, msg.ToolCalls[0])
	assert.True(t, strings.HasPrefix(msg.ToolCalls[1].ID, "call_"), "missing IDs are synthesized")
	assert.Equal(t, "{}", msg.ToolCalls[1].Arguments)

	require.Len(t, captured.Tools, 1)
	fn := captured.Tools[0]["function"].(map[string]any)
	assert.Equal(t, "addition", fn["name"])
	params := fn["parameters"].(map[string]any)
	assert.Equal(t, "object", params["type"])
	assert.ElementsMatch(t, []any{"a", "b"}, params["required"])

	require.Len(t, captured.Messages, 3)
	calls := captured.Messages[1]["tool_calls"].([]any)
	require.Len(t, calls, 1)
	assert.Equal(t, "call_0", calls[0].(map[string]any)["id"])
	assert.Equal(t, "tool", captured.Messages[2]["role"])
	assert.Equal(t, "call_0", captured.Messages[2]["tool_call_id"])
}

func TestClientDescribeImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0644))

	var captured capturedRequest
	ts := newTestServer(t, textReply, &captured)
	c := newTestClient(t, ts)

	_, err := c.DescribeImage(context.Background(), path, "describe the image in 3 sentences")
	require.NoError(t, err)

	assert.Equal(t, "llava", captured.Model)
	require.Len(t, captured.Messages, 1)
	parts := captured.Messages[0]["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "describe the image in 3 sentences", parts[0].(map[string]any)["text"])
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.True(t, strings.HasPrefix(image["url"].(string), "data:image/png;base64,"))
}

func TestClientDescribeImageMissingFile(t *testing.T) {
	ts := newTestServer(t, textReply, nil)
	c := newTestClient(t, ts)

	_, err := c.DescribeImage(context.Background(), filepath.Join(t.TempDir(), "nope.png"), "describe")
	assert.Error(t, err)
}

func TestClientNoChoices(t *testing.T) {
	ts := newTestServer(t, `{"id":"3","object":"chat.completion","choices":[]}`, nil)
	c := newTestClient(t, ts)

	_, err := c.Respond(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestNewClientRequiresModel(t *testing.T) {
	_, err := NewClient(Options{}, nil)
	assert.Error(t, err)
}
