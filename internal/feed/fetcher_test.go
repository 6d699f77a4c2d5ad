package feed

import (
	"context"
	"testing"

	"gazette/internal/config"
	"gazette/internal/testsupport"
)

func TestFetchParsesRSS(t *testing.T) {
	server := testsupport.NewFeedServer(t, map[string]string{
		"/feed.xml": testsupport.RSSFeed("Neighborhood Times",
			[2]string{"Road closure on Elm", "https://example.com/elm"},
			[2]string{"Farmers market returns", "https://example.com/market"},
		),
	})

	fetcher := NewFetcher(config.Collector{FetchTimeoutSeconds: 5, MaxItemsPerFeed: 50})
	entries, err := fetcher.Fetch(context.Background(), server.URL+"/feed.xml")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Title != "Road closure on Elm" || entries[0].Link != "https://example.com/elm" {
		t.Fatalf("entry = %+v", entries[0])
	}
	if entries[0].Content == "" {
		t.Fatal("expected description carried into content")
	}
}

func TestFetchCapsEntries(t *testing.T) {
	server := testsupport.NewFeedServer(t, map[string]string{
		"/feed.xml": testsupport.RSSFeed("Times",
			[2]string{"one", "https://example.com/1"},
			[2]string{"two", "https://example.com/2"},
			[2]string{"three", "https://example.com/3"},
		),
	})

	fetcher := NewFetcher(config.Collector{FetchTimeoutSeconds: 5, MaxItemsPerFeed: 2})
	entries, err := fetcher.Fetch(context.Background(), server.URL+"/feed.xml")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
}

func TestFetchReportsHTTPFailures(t *testing.T) {
	server := testsupport.NewFeedServer(t, map[string]string{})

	fetcher := NewFetcher(config.Collector{FetchTimeoutSeconds: 5})
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/missing.xml"); err == nil {
		t.Fatal("expected error for 404 feed")
	}
}

func TestFetchReportsMalformedFeeds(t *testing.T) {
	server := testsupport.NewFeedServer(t, map[string]string{
		"/feed.xml": "this is not a feed document",
	})

	fetcher := NewFetcher(config.Collector{FetchTimeoutSeconds: 5})
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/feed.xml"); err == nil {
		t.Fatal("expected error for malformed feed")
	}
}
