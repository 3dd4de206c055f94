package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"lmagents/internal/domain"
)

// replyFunc scripts a fake model reply from the messages it receives.
type replyFunc func(messages []domain.ChatMessage) (string, error)

type fakeResponder struct {
	mu    sync.Mutex
	reply replyFunc
	calls [][]domain.ChatMessage
}

func (f *fakeResponder) Respond(_ context.Context, messages []domain.ChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	return f.reply(messages)
}

func (f *fakeResponder) lastUserMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	msgs := f.calls[len(f.calls)-1]
	return msgs[len(msgs)-1].Content
}

func echo(prefix string) replyFunc {
	n := 0
	return func([]domain.ChatMessage) (string, error) {
		n++
		return prefix + " " + strings.Repeat("!", n), nil
	}
}

type fakeFetcher struct {
	docs map[string]domain.Document
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (domain.Document, error) {
	if f.err != nil {
		return domain.Document{}, f.err
	}
	doc, ok := f.docs[url]
	if !ok {
		return domain.Document{}, &domain.FetchError{URL: url, StatusCode: 404, Err: errors.New("not found")}
	}
	return doc, nil
}

// fakeEmbedder returns fixed vectors keyed by text and fails for texts in failOn.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	failOn  map[string]bool
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn[text] {
		return nil, errors.New("connection refused")
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake" }

// fakeToolModel replays scripted assistant messages.
type fakeToolModel struct {
	script []domain.ChatMessage
	seen   [][]domain.ChatMessage
	tools  []domain.ToolSpec
	err    error
}

func (f *fakeToolModel) Complete(_ context.Context, messages []domain.ChatMessage, tools []domain.ToolSpec) (domain.ChatMessage, error) {
	f.seen = append(f.seen, messages)
	f.tools = tools
	if f.err != nil {
		return domain.ChatMessage{}, f.err
	}
	if len(f.seen) > len(f.script) {
		return domain.ChatMessage{Role: domain.RoleAssistant, Content: "done"}, nil
	}
	return f.script[len(f.seen)-1], nil
}
