package port

import (
	"context"

	"lmagents/internal/domain"
)

// Fetcher turns a URL into a plain-text document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (domain.Document, error)
}
