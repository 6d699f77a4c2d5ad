package generator

import (
	"context"
	"testing"
	"time"

	"gazette/internal/config"
	"gazette/internal/services/oracle"
	"gazette/internal/store"
	"gazette/internal/testsupport"
)

func newTestOracle(t *testing.T, stub *testsupport.OracleStub) *oracle.Client {
	t.Helper()
	return oracle.NewClient(config.LLM{
		APIKey:         "test",
		BaseURL:        stub.URL(),
		Model:          "test-model",
		TimeoutSeconds: 5,
		RetryAttempts:  2,
	}, oracle.WithSleeper(func(time.Duration) {}))
}

func seedQualifiedItem(t *testing.T, st *store.Store, fingerprint string, score float64) *store.Item {
	t.Helper()
	ctx := context.Background()
	source, err := st.InsertSource(ctx, &store.Source{
		Name:     "seed",
		URL:      "https://example.com/feed-" + fingerprint,
		Priority: 5,
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("insert source: %v", err)
	}
	item := &store.Item{
		SourceID:    source.ID,
		Fingerprint: fingerprint,
		Title:       "Qualified story " + fingerprint,
		ContentText: "Something happened in the neighborhood.",
	}
	if ok, err := st.InsertItem(ctx, item); err != nil || !ok {
		t.Fatalf("insert item: ok=%v err=%v", ok, err)
	}
	if ok, err := st.SetItemScore(ctx, item.ID, score, "events", "", time.Now().UTC()); err != nil || !ok {
		t.Fatalf("score item: ok=%v err=%v", ok, err)
	}
	return item
}

func TestGenerateAllCreatesReviewDrafts(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	item := seedQualifiedItem(t, st, "fp-1", 0.8)
	stub := testsupport.NewOracleStub(t,
		`{"title": "Elm Street Closed This Week", "body": "The city announced a closure.", "confidence": 0.7}`)

	generator := New(config.Generator{Workers: 1}, st, newTestOracle(t, stub), nil)
	result, err := generator.GenerateAll(context.Background(), 0.6)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Generated != 1 || len(result.ContentIDs) != 1 {
		t.Fatalf("result = %+v", result)
	}

	content, err := st.GetContent(context.Background(), result.ContentIDs[0])
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if content.Status != store.StatusReview {
		t.Fatalf("status = %q, want review", content.Status)
	}
	if content.SourceItemID == nil || *content.SourceItemID != item.ID {
		t.Fatalf("source item id = %v", content.SourceItemID)
	}
	if content.AIConfidence == nil || *content.AIConfidence != 0.7 {
		t.Fatalf("ai confidence = %v", content.AIConfidence)
	}
	if content.Category != "events" {
		t.Fatalf("category = %q", content.Category)
	}
}

func TestGenerateAllCarriesSourceNeighborhood(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	ctx := context.Background()
	source, err := st.InsertSource(ctx, &store.Source{
		Name:           "maple",
		URL:            "https://example.com/maple.xml",
		NeighborhoodID: "maple-heights",
		Priority:       5,
		Enabled:        true,
	})
	if err != nil {
		t.Fatalf("insert source: %v", err)
	}
	item := &store.Item{SourceID: source.ID, Fingerprint: "fp-n", Title: "Story"}
	if ok, err := st.InsertItem(ctx, item); err != nil || !ok {
		t.Fatalf("insert item: ok=%v err=%v", ok, err)
	}
	if ok, err := st.SetItemScore(ctx, item.ID, 0.8, "events", "", time.Now().UTC()); err != nil || !ok {
		t.Fatalf("score item: ok=%v err=%v", ok, err)
	}
	stub := testsupport.NewOracleStub(t, `{"title": "Draft", "body": "Body text."}`)

	generator := New(config.Generator{Workers: 1}, st, newTestOracle(t, stub), nil)
	result, err := generator.GenerateAll(ctx, 0.6)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Generated != 1 {
		t.Fatalf("result = %+v", result)
	}

	content, err := st.GetContent(ctx, result.ContentIDs[0])
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if content.NeighborhoodID != "maple-heights" {
		t.Fatalf("neighborhood = %q, want maple-heights", content.NeighborhoodID)
	}

	filtered, err := st.ListContent(ctx, store.ContentFilters{
		Status:         store.StatusReview,
		NeighborhoodID: "maple-heights",
	})
	if err != nil {
		t.Fatalf("list content: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != content.ID {
		t.Fatalf("neighborhood filter missed the draft: %+v", filtered)
	}
}

func TestGenerateAllSkipsFailuresWithoutHalfRecords(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	seedQualifiedItem(t, st, "fp-1", 0.8)
	stub := testsupport.NewOracleStub(t, "no json here at all")

	generator := New(config.Generator{Workers: 1}, st, newTestOracle(t, stub), nil)
	result, err := generator.GenerateAll(context.Background(), 0.6)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Generated != 0 || len(result.Errors) != 1 {
		t.Fatalf("result = %+v", result)
	}
	drafts, err := st.ListContentByStatus(context.Background(), store.StatusReview, 0)
	if err != nil {
		t.Fatalf("list content: %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("drafts = %d, want 0", len(drafts))
	}
}

func TestGenerateAllRejectsIncompleteDrafts(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	seedQualifiedItem(t, st, "fp-1", 0.8)
	stub := testsupport.NewOracleStub(t, `{"title": "Headline only"}`)

	generator := New(config.Generator{Workers: 1}, st, newTestOracle(t, stub), nil)
	result, err := generator.GenerateAll(context.Background(), 0.6)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Generated != 0 || len(result.Errors) != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestGenerateAllIsIdempotentPerItem(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	seedQualifiedItem(t, st, "fp-1", 0.8)
	stub := testsupport.NewOracleStub(t,
		`{"title": "Draft", "body": "Body text."}`)

	generator := New(config.Generator{Workers: 1}, st, newTestOracle(t, stub), nil)
	if _, err := generator.GenerateAll(context.Background(), 0.6); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := generator.GenerateAll(context.Background(), 0.6)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if second.Generated != 0 {
		t.Fatalf("second pass generated = %d, want 0", second.Generated)
	}
	drafts, err := st.ListContentByStatus(context.Background(), store.StatusReview, 0)
	if err != nil {
		t.Fatalf("list content: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(drafts))
	}
}

func TestGenerateAllIgnoresUnqualifiedItems(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	seedQualifiedItem(t, st, "fp-low", 0.4)
	stub := testsupport.NewOracleStub(t, `{"title": "x", "body": "y"}`)

	generator := New(config.Generator{Workers: 1}, st, newTestOracle(t, stub), nil)
	result, err := generator.GenerateAll(context.Background(), 0.6)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Generated != 0 || stub.Calls() != 0 {
		t.Fatalf("result = %+v, calls = %d", result, stub.Calls())
	}
}
