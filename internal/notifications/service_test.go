package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gazette/internal/config"
	"gazette/internal/store"
)

func TestNewServiceReturnsNoopWithoutTopic(t *testing.T) {
	cfg := config.Default()
	service := NewService(&cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.NotifyRunStarted(context.Background(), "run-1", "full"); err != nil {
		t.Fatalf("noop notify: %v", err)
	}
}

func TestNotifyRunCompletedSendsCounts(t *testing.T) {
	var gotTitle, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	service := NewService(&cfg)

	completed := time.Now().UTC()
	run := &store.Run{
		RunID:       "run-7",
		Mode:        "full",
		StartedAt:   completed.Add(-time.Minute),
		CompletedAt: &completed,
		Collected:   5,
		Published:   2,
		Success:     true,
	}
	if err := service.NotifyRunCompleted(context.Background(), run, time.Minute); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if gotTitle != "Gazette - Run Complete" {
		t.Fatalf("title = %q", gotTitle)
	}
	if !strings.Contains(gotBody, "collected 5") || !strings.Contains(gotBody, "published 2") {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestNotifyHonorsSectionToggles(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Review = false
	service := NewService(&cfg)

	if err := service.NotifyReviewPending(context.Background(), 4); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0 with review notifications disabled", calls)
	}
}
