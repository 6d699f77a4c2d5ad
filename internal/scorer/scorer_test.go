package scorer

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

func seedItem(t *testing.T, st *store.Store, fingerprint, title string) *store.Item {
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
	item := &store.Item{SourceID: source.ID, Fingerprint: fingerprint, Title: title}
	if ok, err := st.InsertItem(ctx, item); err != nil || !ok {
		t.Fatalf("insert item: ok=%v err=%v", ok, err)
	}
	return item
}

func TestScoreBatchPersistsAndQualifies(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	item := seedItem(t, st, "fp-1", "Road closure on Elm")
	stub := testsupport.NewOracleStub(t,
		`{"score": 0.82, "category": "Safety", "reasoning": "local road closure"}`)

	scorer := New(config.Scorer{BatchSize: 20, Workers: 1, QualifyThreshold: 0.6}, st, newTestOracle(t, stub), nil)
	result, err := scorer.ScoreBatch(context.Background())
	if err != nil {
		t.Fatalf("score batch: %v", err)
	}
	if result.Processed != 1 || result.Qualified != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.QualificationRate != 1.0 {
		t.Fatalf("qualification rate = %v", result.QualificationRate)
	}

	got, err := st.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.RawScore == nil || *got.RawScore != 0.82 || got.Category != "safety" {
		t.Fatalf("item = %+v", got)
	}
	if got.ProcessedAt == nil {
		t.Fatal("processed_at not stamped")
	}
}

func TestScoreBatchFailsSoftOnNonJSON(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	item := seedItem(t, st, "fp-1", "Story")
	stub := testsupport.NewOracleStub(t, "I am sorry, I cannot rate this item.")

	scorer := New(config.Scorer{BatchSize: 20, Workers: 1, QualifyThreshold: 0.6}, st, newTestOracle(t, stub), nil)
	result, err := scorer.ScoreBatch(context.Background())
	if err != nil {
		t.Fatalf("score batch: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("processed = %d, want 1", result.Processed)
	}
	if result.Qualified != 0 {
		t.Fatal("fallback-scored item must not qualify")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want the recorded failure reason", result.Errors)
	}

	got, err := st.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.RawScore == nil || *got.RawScore != FallbackScore || got.Category != FallbackCategory {
		t.Fatalf("item = %+v", got)
	}
	if got.ScoreNote == "" {
		t.Fatal("failure reason not recorded")
	}
}

func TestScoreBatchFailsSoftOnOracleOutage(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	seedItem(t, st, "fp-1", "Story")
	stub := testsupport.NewOracleStub(t, "!server exploded", "!server exploded", "!server exploded")

	scorer := New(config.Scorer{BatchSize: 20, Workers: 1, QualifyThreshold: 0.6}, st, newTestOracle(t, stub), nil)
	result, err := scorer.ScoreBatch(context.Background())
	if err != nil {
		t.Fatalf("score batch: %v", err)
	}
	if result.Processed != 1 || result.Qualified != 0 || len(result.Errors) != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestScoreBatchClampsOutOfRangeScores(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	item := seedItem(t, st, "fp-1", "Story")
	stub := testsupport.NewOracleStub(t, `{"score": 1.7, "category": "events"}`)

	scorer := New(config.Scorer{BatchSize: 20, Workers: 1, QualifyThreshold: 0.6}, st, newTestOracle(t, stub), nil)
	if _, err := scorer.ScoreBatch(context.Background()); err != nil {
		t.Fatalf("score batch: %v", err)
	}
	got, err := st.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.RawScore == nil || *got.RawScore != 1.0 {
		t.Fatalf("score = %v, want clamped 1.0", got.RawScore)
	}
}

func TestScoreBatchSkipsAlreadyScoredItems(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	item := seedItem(t, st, "fp-1", "Story")
	if ok, err := st.SetItemScore(context.Background(), item.ID, 0.9, "events", "", time.Now().UTC()); err != nil || !ok {
		t.Fatalf("preset score: ok=%v err=%v", ok, err)
	}
	stub := testsupport.NewOracleStub(t, `{"score": 0.1, "category": "other"}`)

	scorer := New(config.Scorer{BatchSize: 20, Workers: 1, QualifyThreshold: 0.6}, st, newTestOracle(t, stub), nil)
	result, err := scorer.ScoreBatch(context.Background())
	if err != nil {
		t.Fatalf("score batch: %v", err)
	}
	if result.Processed != 0 {
		t.Fatalf("processed = %d, want 0", result.Processed)
	}
	if stub.Calls() != 0 {
		t.Fatalf("oracle calls = %d, want 0", stub.Calls())
	}

	got, err := st.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if *got.RawScore != 0.9 {
		t.Fatalf("score changed to %v", *got.RawScore)
	}
}

func TestScoreBatchFenceWrappedVerdict(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	item := seedItem(t, st, "fp-1", "Story")
	stub := testsupport.NewOracleStub(t, "```json\n{\"score\": 0.65, \"category\": \"events\"}\n```")

	scorer := New(config.Scorer{BatchSize: 20, Workers: 1, QualifyThreshold: 0.6}, st, newTestOracle(t, stub), nil)
	result, err := scorer.ScoreBatch(context.Background())
	if err != nil {
		t.Fatalf("score batch: %v", err)
	}
	if result.Qualified != 1 {
		t.Fatalf("qualified = %d, want 1", result.Qualified)
	}
	got, err := st.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.RawScore == nil || *got.RawScore != 0.65 {
		t.Fatalf("score = %v", got.RawScore)
	}
}
