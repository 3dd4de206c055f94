package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/sirupsen/logrus"
	"lmagents/internal/domain"
)

const DefaultBaseURL = "http://localhost:1234/v1"

type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	VisionModel string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint. It serves
// plain replies, tool-calling turns and image descriptions.
type Client struct {
	client      *openai.Client
	model       string
	visionModel string
	temperature float32
	maxTokens   int
	log         *logrus.Entry
}

func NewClient(opts Options, log *logrus.Entry) (*Client, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.APIKey == "" {
		opts.APIKey = "lm-studio"
	}
	if opts.VisionModel == "" {
		opts.VisionModel = opts.Model
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if log == nil {
		log = logrus.WithField("component", "llm")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = opts.BaseURL
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		visionModel: opts.VisionModel,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		log:         log,
	}, nil
}

func (c *Client) ModelName() string {
	return c.model
}

// Respond returns the assistant reply to a conversation.
func (c *Client) Respond(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	msg, err := c.complete(ctx, c.model, messages, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// Complete runs one turn with tools available.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage, tools []domain.ToolSpec) (domain.ChatMessage, error) {
	return c.complete(ctx, c.model, messages, tools)
}

// DescribeImage asks the vision model about a local image file.
func (c *Client) DescribeImage(ctx context.Context, path, prompt string) (string, error) {
	msg, err := c.complete(ctx, c.visionModel, []domain.ChatMessage{{
		Role:    domain.RoleUser,
		Content: prompt,
		Images:  []string{path},
	}}, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func (c *Client) complete(ctx context.Context, model string, messages []domain.ChatMessage, tools []domain.ToolSpec) (domain.ChatMessage, error) {
	openaiMessages, err := toOpenAIMessages(messages)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    openaiMessages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Tools:       toOpenAITools(tools),
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.ChatMessage{}, fmt.Errorf("chat completion returned no choices")
	}

	c.log.WithFields(logrus.Fields{
		"model":      model,
		"messages":   len(messages),
		"tools":      len(tools),
		"tokens":     resp.Usage.TotalTokens,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("chat completion")

	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

func toOpenAIMessages(messages []domain.ChatMessage) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}

		if len(m.Images) > 0 {
			parts := []openai.ChatMessagePart{{
				Type: openai.ChatMessagePartTypeText,
				Text: m.Content,
			}}
			for _, path := range m.Images {
				uri, err := imageDataURI(path)
				if err != nil {
					return nil, err
				}
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    uri,
						Detail: openai.ImageURLDetailAuto,
					},
				})
			}
			msg.MultiContent = parts
		} else {
			msg.Content = m.Content
		}

		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}

		out = append(out, msg)
	}
	return out, nil
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) domain.ChatMessage {
	msg := domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		id := tc.ID
		if id == "" {
			// Some local servers omit call IDs; tool results still need one.
			id = "call_" + uuid.NewString()
		}
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		msg.ToolCalls = append(msg.ToolCalls, domain.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return msg
}

func toOpenAITools(specs []domain.ToolSpec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		params := jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: make(map[string]jsonschema.Definition, len(spec.Params)),
			Required:   []string{},
		}
		for _, p := range spec.Params {
			params.Properties[p.Name] = jsonschema.Definition{
				Type:        jsonschema.DataType(p.Type),
				Description: p.Description,
			}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

func imageDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
