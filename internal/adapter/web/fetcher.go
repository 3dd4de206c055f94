package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"lmagents/internal/domain"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	untitledPage     = "Untitled page"
)

// contentTags are the elements whose text makes up the document body.
var contentTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "article": true, "section": true,
}

type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	log       *logrus.Entry
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
}

func NewFetcher(opts Options, log *logrus.Entry) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 << 20
	}
	if log == nil {
		log = logrus.WithField("component", "fetcher")
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 10
	transport.MaxIdleConnsPerHost = 2
	transport.IdleConnTimeout = 90 * time.Second
	return &Fetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		log:       log,
	}
}

// Fetch downloads a page and extracts its title and body text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (domain.Document, error) {
	f.log.WithField("url", url).Debug("fetching page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Document{}, &domain.FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.Document{}, &domain.FetchError{URL: url, Err: fmt.Errorf("network error: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Document{}, &domain.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	title, text, err := ExtractContent(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return domain.Document{}, &domain.FetchError{URL: url, Err: fmt.Errorf("parsing error: %w", err)}
	}

	f.log.WithFields(logrus.Fields{
		"url":   url,
		"title": title,
		"chars": len(text),
	}).Info("page retrieved")

	return domain.Document{
		ID:        generateDocID(url),
		URL:       url,
		Title:     title,
		Text:      text,
		FetchedAt: time.Now(),
	}, nil
}

// ExtractContent parses an HTML page and returns its title and the text of
// its content elements with whitespace collapsed.
func ExtractContent(r io.Reader) (string, string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	title := ""
	var parts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "script" || n.Data == "style" || n.Data == "noscript":
				return
			case n.Data == "title" && title == "":
				title = cleanText(nodeText(n))
				return
			case contentTags[n.Data]:
				// Nested content elements are covered by their ancestor.
				if text := cleanText(nodeText(n)); text != "" {
					parts = append(parts, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if title == "" {
		title = untitledPage
	}
	return title, cleanText(strings.Join(parts, " ")), nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

// cleanText removes excessive whitespace
func cleanText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func generateDocID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:8])
}
