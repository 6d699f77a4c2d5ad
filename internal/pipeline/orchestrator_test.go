package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"gazette/internal/approval"
	"gazette/internal/collector"
	"gazette/internal/config"
	"gazette/internal/feed"
	"gazette/internal/generator"
	"gazette/internal/scorer"
	"gazette/internal/services"
	"gazette/internal/services/oracle"
	"gazette/internal/sources"
	"gazette/internal/store"
	"gazette/internal/testsupport"
	"gazette/internal/validator"
)

// testDeps wires single-worker stages against a stubbed oracle so payloads
// arrive in a deterministic order.
func testDeps(t *testing.T, st *store.Store, stub *testsupport.OracleStub) Deps {
	t.Helper()
	client := oracle.NewClient(config.LLM{
		APIKey:         "test",
		BaseURL:        stub.URL(),
		Model:          "test-model",
		TimeoutSeconds: 5,
		RetryAttempts:  2,
	}, oracle.WithSleeper(func(time.Duration) {}))

	collectorCfg := config.Collector{Workers: 1, FetchTimeoutSeconds: 5, MaxItemsPerFeed: 50}
	registry := sources.NewRegistry(st, nil)
	return Deps{
		Registry:  registry,
		Collector: collector.New(collectorCfg, registry, st, feed.NewFetcher(collectorCfg), nil),
		Scorer:    scorer.New(config.Scorer{BatchSize: 20, Workers: 1, QualifyThreshold: 0.6}, st, client, nil),
		Generator: generator.New(config.Generator{Workers: 1}, st, client, nil),
		Validator: validator.New(config.Validator{Workers: 1}, st, client, nil),
		Gate:      approval.New(config.Approval{MinConfidence: 0.85}, st, nil),
	}
}

func addSource(t *testing.T, registry *sources.Registry, name, url string) {
	t.Helper()
	if _, err := registry.Upsert(context.Background(), &store.Source{
		Name:     name,
		URL:      url,
		Priority: 5,
		Enabled:  true,
	}); err != nil {
		t.Fatalf("upsert source: %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for _, mode := range Modes() {
		parsed, err := ParseMode(string(mode))
		if err != nil || parsed != mode {
			t.Fatalf("ParseMode(%q) = %q, %v", mode, parsed, err)
		}
	}
	if _, err := ParseMode("everything"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestFullRunPublishesQualifyingContent(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	server := testsupport.NewFeedServer(t, map[string]string{
		"/feed.xml": testsupport.RSSFeed("Times",
			[2]string{"Road closure on Elm", "https://example.com/elm"},
		),
	})
	stub := testsupport.NewOracleStub(t,
		`{"score": 0.8, "category": "safety"}`,
		`{"title": "Elm Street Closed", "body": "The city closed Elm Street for repairs."}`,
		`{"confidence": 0.93, "checks": {"accuracy": true, "relevance": true, "safety": true, "quality": true}, "flags": [], "notes": "clean"}`,
	)

	deps := testDeps(t, st, stub)
	addSource(t, deps.Registry, "times", server.URL+"/feed.xml")
	orchestrator := New(st, deps, "", nil)

	run, err := orchestrator.Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !run.Success {
		t.Fatalf("run = %+v", run)
	}
	if run.Collected != 1 || run.Scored != 1 || run.Generated != 1 || run.Validated != 1 || run.Published != 1 {
		t.Fatalf("counts = %+v", run)
	}
	if run.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}

	ledger, err := st.GetRun(context.Background(), run.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if ledger == nil || ledger.Published != 1 || !ledger.Success {
		t.Fatalf("ledger = %+v", ledger)
	}

	published, err := st.ListContentByStatus(context.Background(), store.StatusPublished, 0)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(published) != 1 || published[0].PublishedAt == nil {
		t.Fatalf("published = %+v", published)
	}
}

func TestFullRunHoldsLowConfidenceDrafts(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	server := testsupport.NewFeedServer(t, map[string]string{
		"/feed.xml": testsupport.RSSFeed("Times",
			[2]string{"Story", "https://example.com/story"},
		),
	})
	stub := testsupport.NewOracleStub(t,
		`{"score": 0.7, "category": "events"}`,
		`{"title": "Draft", "body": "Body."}`,
		`{"confidence": 0.5, "checks": {"accuracy": true, "relevance": true, "safety": true, "quality": true}, "flags": []}`,
	)

	deps := testDeps(t, st, stub)
	addSource(t, deps.Registry, "times", server.URL+"/feed.xml")
	orchestrator := New(st, deps, "", nil)

	run, err := orchestrator.Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.Published != 0 || run.Validated != 1 {
		t.Fatalf("run = %+v", run)
	}
	pending, err := st.ListContentByStatus(context.Background(), store.StatusReview, 0)
	if err != nil {
		t.Fatalf("list review: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("review queue = %d, want 1", len(pending))
	}
}

func TestCollectModeSurvivesFailingSource(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	server := testsupport.NewFeedServer(t, map[string]string{
		"/good.xml": testsupport.RSSFeed("Good",
			[2]string{"Story", "https://example.com/story"},
		),
	})
	stub := testsupport.NewOracleStub(t)

	deps := testDeps(t, st, stub)
	addSource(t, deps.Registry, "good", server.URL+"/good.xml")
	addSource(t, deps.Registry, "bad", server.URL+"/missing.xml")
	orchestrator := New(st, deps, "", nil)

	run, err := orchestrator.Run(context.Background(), ModeCollect)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !run.Success {
		t.Fatal("item-level source failure must not fail the run")
	}
	if run.Collected != 1 || len(run.Errors) != 1 {
		t.Fatalf("run = %+v", run)
	}
}

func TestValidateModeDoesNotPublish(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	if _, err := st.InsertContent(context.Background(), &store.Content{
		Title: "Draft", Body: "Body", CreatedBy: "pipeline",
	}); err != nil {
		t.Fatalf("insert content: %v", err)
	}
	stub := testsupport.NewOracleStub(t,
		`{"confidence": 0.99, "checks": {"accuracy": true, "relevance": true, "safety": true, "quality": true}, "flags": []}`)

	orchestrator := New(st, testDeps(t, st, stub), "", nil)
	run, err := orchestrator.Run(context.Background(), ModeValidate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.Validated != 1 || run.Published != 0 {
		t.Fatalf("run = %+v", run)
	}
	pending, err := st.ListContentByStatus(context.Background(), store.StatusReview, 0)
	if err != nil {
		t.Fatalf("list review: %v", err)
	}
	if len(pending) != 1 {
		t.Fatal("validate mode must leave status untouched")
	}
}

func TestPublishModeAppliesGate(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	if _, err := st.InsertContent(context.Background(), &store.Content{
		Title: "Draft", Body: "Body", CreatedBy: "pipeline",
	}); err != nil {
		t.Fatalf("insert content: %v", err)
	}
	stub := testsupport.NewOracleStub(t,
		`{"confidence": 0.95, "checks": {"accuracy": true, "relevance": true, "safety": true, "quality": true}, "flags": []}`)

	orchestrator := New(st, testDeps(t, st, stub), "", nil)
	run, err := orchestrator.Run(context.Background(), ModePublish)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.Validated != 1 || run.Published != 1 {
		t.Fatalf("run = %+v", run)
	}
}

func TestCanceledRunStillWritesLedger(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	stub := testsupport.NewOracleStub(t)
	orchestrator := New(st, testDeps(t, st, stub), "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := orchestrator.Run(ctx, ModeCollect)
	if err == nil {
		t.Fatal("expected error from canceled run")
	}
	if run == nil {
		t.Fatal("run record must still be returned")
	}
	if run.Success {
		t.Fatal("canceled run must not be marked successful")
	}

	ledger, lerr := st.GetRun(context.Background(), run.RunID)
	if lerr != nil {
		t.Fatalf("get run: %v", lerr)
	}
	if ledger == nil || ledger.Success {
		t.Fatalf("ledger = %+v", ledger)
	}
}

func TestRunLeaseRejectsOverlap(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	stub := testsupport.NewOracleStub(t)
	lockPath := filepath.Join(t.TempDir(), "run.lock")

	lease := flock.New(lockPath)
	locked, err := lease.TryLock()
	if err != nil || !locked {
		t.Fatalf("prime lease: locked=%v err=%v", locked, err)
	}
	defer func() { _ = lease.Unlock() }()

	orchestrator := New(st, testDeps(t, st, stub), lockPath, nil)
	if _, err := orchestrator.Run(context.Background(), ModeCollect); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected lease rejection, got %v", err)
	}
	if runs, _ := st.ListRuns(context.Background(), 10); len(runs) != 0 {
		t.Fatalf("no ledger row expected for a rejected invocation, got %d", len(runs))
	}
}

func TestRerunsDoNotDoubleCount(t *testing.T) {
	st := testsupport.MustOpenStore(t)
	server := testsupport.NewFeedServer(t, map[string]string{
		"/feed.xml": testsupport.RSSFeed("Times",
			[2]string{"Story", "https://example.com/story"},
		),
	})
	stub := testsupport.NewOracleStub(t,
		`{"score": 0.7, "category": "events"}`,
		`{"title": "Draft", "body": "Body."}`,
		`{"confidence": 0.5, "checks": {"accuracy": true, "relevance": true, "safety": true, "quality": true}, "flags": []}`,
		`{"confidence": 0.5, "checks": {"accuracy": true, "relevance": true, "safety": true, "quality": true}, "flags": []}`,
	)

	deps := testDeps(t, st, stub)
	addSource(t, deps.Registry, "times", server.URL+"/feed.xml")
	orchestrator := New(st, deps, "", nil)

	first, err := orchestrator.Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Collected != 1 || first.Generated != 1 {
		t.Fatalf("first = %+v", first)
	}

	second, err := orchestrator.Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Collected != 0 || second.Scored != 0 || second.Generated != 0 {
		t.Fatalf("second run re-processed items: %+v", second)
	}
	if runs, _ := st.ListRuns(context.Background(), 10); len(runs) != 2 {
		t.Fatalf("ledger rows = %d, want 2", len(runs))
	}
}
