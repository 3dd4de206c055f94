package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"lmagents/internal/domain"
	"lmagents/internal/port"
)

// ProgressFunc is called after each embedded chunk with the running count.
type ProgressFunc func(done, total int)

// EmbedUseCase produces one embedding per chunk, in chunk order. A batch
// either succeeds completely or fails with ErrProviderUnavailable.
type EmbedUseCase struct {
	embedder    port.Embedder
	concurrency int
	log         *logrus.Entry
}

// NewEmbedUseCase creates an embed use case. embedder may be nil when no
// embedding model is configured.
func NewEmbedUseCase(embedder port.Embedder, concurrency int, log *logrus.Entry) *EmbedUseCase {
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = logrus.WithField("component", "embed")
	}
	return &EmbedUseCase{
		embedder:    embedder,
		concurrency: concurrency,
		log:         log,
	}
}

func (u *EmbedUseCase) Available() bool {
	return u.embedder != nil
}

func (u *EmbedUseCase) Embedder() port.Embedder {
	return u.embedder
}

// EmbedChunks embeds every chunk. On any failure it returns nil vectors and
// an error wrapping both ErrProviderUnavailable and the *domain.ProviderError.
func (u *EmbedUseCase) EmbedChunks(ctx context.Context, chunks []domain.Chunk, progress ProgressFunc) ([][]float32, error) {
	if u.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding model configured", domain.ErrProviderUnavailable)
	}

	var (
		vectors [][]float32
		err     error
	)
	if u.concurrency > 1 && len(chunks) > 1 {
		vectors, err = u.embedParallel(ctx, chunks, progress)
	} else {
		vectors, err = u.embedSequential(ctx, chunks, progress)
	}
	if err == nil {
		err = checkDimensions(vectors)
	}
	if err != nil {
		u.log.WithError(err).WithField("chunks", len(chunks)).Warn("embedding batch aborted")
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	u.log.WithFields(logrus.Fields{
		"chunks": len(chunks),
		"model":  u.embedder.ModelName(),
	}).Debug("chunks embedded")
	return vectors, nil
}

func (u *EmbedUseCase) embedSequential(ctx context.Context, chunks []domain.Chunk, progress ProgressFunc) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		v, err := u.embedOne(ctx, i, c.Text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
		if progress != nil {
			progress(i+1, len(chunks))
		}
	}
	return vectors, nil
}

// embedParallel fans calls out while writing each vector to its chunk's slot.
func (u *EmbedUseCase) embedParallel(ctx context.Context, chunks []domain.Chunk, progress ProgressFunc) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			v, err := u.embedOne(gctx, i, c.Text)
			if err != nil {
				return err
			}
			vectors[i] = v

			mu.Lock()
			done++
			if progress != nil {
				progress(done, len(chunks))
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (u *EmbedUseCase) embedOne(ctx context.Context, i int, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ProviderError{Index: i, Err: err}
	}
	v, err := u.embedder.Embed(ctx, text)
	if err != nil {
		return nil, &domain.ProviderError{Index: i, Err: err}
	}
	if len(v) == 0 {
		return nil, &domain.ProviderError{Index: i, Err: errors.New("provider returned an empty vector")}
	}
	return v, nil
}

func checkDimensions(vectors [][]float32) error {
	for i := 1; i < len(vectors); i++ {
		if len(vectors[i]) != len(vectors[0]) {
			return &domain.ProviderError{
				Index: i,
				Err:   fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(vectors[i]), len(vectors[0])),
			}
		}
	}
	return nil
}
