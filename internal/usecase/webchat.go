package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"lmagents/internal/domain"
	"lmagents/internal/port"
)

// ErrNoDocument is returned by Ask before a page has been loaded.
var ErrNoDocument = errors.New("no web page loaded")

// WebChatUseCase is a question-answering session about one web page at a
// time. Loading a new page discards the previous page, its chunks,
// embeddings, cached rankings and chat history.
type WebChatUseCase struct {
	fetcher   port.Fetcher
	chunker   port.Chunker
	embed     *EmbedUseCase
	retrieve  *RetrieveUseCase
	responder port.Responder
	topK      int
	log       *logrus.Entry

	doc     *domain.Document
	chunks  []domain.Chunk
	vectors [][]float32
	chat    *Conversation
}

func NewWebChatUseCase(
	fetcher port.Fetcher,
	chunker port.Chunker,
	embed *EmbedUseCase,
	retrieve *RetrieveUseCase,
	responder port.Responder,
	topK int,
	log *logrus.Entry,
) *WebChatUseCase {
	if topK <= 0 {
		topK = 3
	}
	if log == nil {
		log = logrus.WithField("component", "webchat")
	}
	return &WebChatUseCase{
		fetcher:   fetcher,
		chunker:   chunker,
		embed:     embed,
		retrieve:  retrieve,
		responder: responder,
		topK:      topK,
		log:       log.WithField("session", uuid.NewString()),
	}
}

// LoadResult describes a loaded page.
type LoadResult struct {
	Document domain.Document
	Chunks   int
	Embedded bool
	Reason   string // why embeddings are missing, when Embedded is false
}

// Load fetches a page and prepares it for questions.
func (u *WebChatUseCase) Load(ctx context.Context, url string, progress ProgressFunc) (*LoadResult, error) {
	doc, err := u.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, url)
	}

	chunks := u.chunker.Chunk(doc)
	result := &LoadResult{Document: doc, Chunks: len(chunks)}

	var vectors [][]float32
	if u.embed != nil && u.embed.Available() {
		vectors, err = u.embed.EmbedChunks(ctx, chunks, progress)
		if err != nil {
			if !errors.Is(err, domain.ErrProviderUnavailable) {
				return nil, err
			}
			result.Reason = err.Error()
		} else {
			result.Embedded = true
		}
	} else {
		result.Reason = "embeddings not configured"
	}

	systemPrompt, err := renderPrompt("webchat_system.tmpl", doc)
	if err != nil {
		return nil, err
	}

	u.Reset()
	u.doc = &doc
	u.chunks = chunks
	u.vectors = vectors
	u.chat = NewConversation(u.responder, systemPrompt)

	u.log.WithFields(logrus.Fields{
		"url":      url,
		"title":    doc.Title,
		"chunks":   len(chunks),
		"embedded": result.Embedded,
	}).Info("web page loaded")

	return result, nil
}

// Answer is the reply to one question.
type Answer struct {
	Text    string
	Ranking domain.Ranking
	Elapsed time.Duration
}

// Ask answers a question using the chunks most relevant to it.
func (u *WebChatUseCase) Ask(ctx context.Context, question string) (*Answer, error) {
	if u.doc == nil {
		return nil, ErrNoDocument
	}
	start := time.Now()

	ranking, err := u.retrieve.Retrieve(ctx, question, u.chunks, u.vectors, u.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to rank chunks: %w", err)
	}
	if ranking.Degraded {
		u.log.WithField("reason", ranking.Reason).Debug("using unranked chunks")
	}

	prompt, err := renderPrompt("webchat_question.tmpl", struct {
		Context  []string
		Question string
	}{ranking.Texts(), question})
	if err != nil {
		return nil, err
	}

	reply, err := u.chat.Ask(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &Answer{
		Text:    reply,
		Ranking: ranking,
		Elapsed: time.Since(start),
	}, nil
}

// Reset forgets the current page.
func (u *WebChatUseCase) Reset() {
	u.doc = nil
	u.chunks = nil
	u.vectors = nil
	u.chat = nil
	if u.retrieve != nil {
		u.retrieve.Reset()
	}
}

// Document returns the loaded page, or nil.
func (u *WebChatUseCase) Document() *domain.Document {
	return u.doc
}

func (u *WebChatUseCase) Chunks() []domain.Chunk {
	return u.chunks
}

func (u *WebChatUseCase) Vectors() [][]float32 {
	return u.vectors
}
