package port

import (
	"context"

	"lmagents/internal/domain"
)

// Responder produces the next assistant reply for a conversation.
type Responder interface {
	Respond(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// ToolModel runs one completion turn with tools available. The returned
// message is an assistant message that may carry tool calls.
type ToolModel interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, tools []domain.ToolSpec) (domain.ChatMessage, error)
}

// VisionDescriber describes a local image file.
type VisionDescriber interface {
	DescribeImage(ctx context.Context, path, prompt string) (string, error)
}

// ToolRunner executes the tools offered to a ToolModel.
type ToolRunner interface {
	Specs() []domain.ToolSpec
	Call(ctx context.Context, call domain.ToolCall) (string, error)
}
