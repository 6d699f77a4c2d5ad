// Package feed fetches and normalizes RSS/Atom documents for the Collector.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"gazette/internal/config"
)

// Entry is one normalized feed entry ready for fingerprinting.
type Entry struct {
	Title       string
	Link        string
	Content     string
	PublishedAt *time.Time
}

// Fetcher retrieves feeds over HTTP with a bounded per-request timeout.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxItems int
}

// Option customizes the fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewFetcher constructs a fetcher from collector configuration.
func NewFetcher(cfg config.Collector, opts ...Option) *Fetcher {
	timeout := 30 * time.Second
	if cfg.FetchTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	}
	fetcher := &Fetcher{
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		maxItems: cfg.MaxItemsPerFeed,
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch retrieves a feed URL and returns its entries, newest-declared
// first as published. Transport failures, non-2xx statuses, and parse
// failures all surface as errors; the caller decides how the owning
// source's health degrades.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Entry, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = f.client
	parsed, err := parser.ParseURLWithContext(url, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %q: %w", url, err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entry := Entry{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Content:     entryContent(item),
			PublishedAt: item.PublishedParsed,
		}
		if entry.Title == "" && entry.Link == "" {
			continue
		}
		entries = append(entries, entry)
		if f.maxItems > 0 && len(entries) >= f.maxItems {
			break
		}
	}
	return entries, nil
}

func entryContent(item *gofeed.Item) string {
	if content := strings.TrimSpace(item.Content); content != "" {
		return content
	}
	return strings.TrimSpace(item.Description)
}
