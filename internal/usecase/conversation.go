package usecase

import (
	"context"
	"fmt"

	"lmagents/internal/domain"
	"lmagents/internal/port"
)

// Conversation is a chat history with one model. Each agent owns its own
// conversation so contexts never mix.
type Conversation struct {
	responder port.Responder
	history   []domain.ChatMessage
}

func NewConversation(responder port.Responder, systemPrompt string) *Conversation {
	c := &Conversation{responder: responder}
	if systemPrompt != "" {
		c.history = append(c.history, domain.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})
	}
	return c
}

// Ask appends a user message, gets the reply and records it.
// A failed call leaves the history unchanged.
func (c *Conversation) Ask(ctx context.Context, message string) (string, error) {
	messages := append(c.History(), domain.ChatMessage{Role: domain.RoleUser, Content: message})

	reply, err := c.responder.Respond(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("model response failed: %w", err)
	}

	c.history = append(messages, domain.ChatMessage{Role: domain.RoleAssistant, Content: reply})
	return reply, nil
}

// History returns a copy of the messages so far.
func (c *Conversation) History() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Conversation) Len() int {
	return len(c.history)
}
