package planner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/logger"
	"github.com/hammamikhairi/nutriplan/internal/plan"
	"github.com/hammamikhairi/nutriplan/internal/planapi"
	"github.com/hammamikhairi/nutriplan/internal/storage"
)

type fakeGenerator struct {
	doc    domain.PlanDocument
	status string
	err    error

	calls   int
	gotUser string
}

func (f *fakeGenerator) Generate(ctx context.Context, profile domain.UserProfile, userID string) (domain.PlanDocument, string, error) {
	f.calls++
	f.gotUser = userID
	return f.doc, f.status, f.err
}

type failingStore struct{ *storage.MemoryStore }

func (failingStore) SavePlan(ctx context.Context, rec *domain.PlanRecord) error {
	return errors.New("disk full")
}

var fixedNow = time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)

func setupPlanner(t *testing.T, gen domain.PlanGenerator) (*Planner, *storage.MemoryStore, context.Context) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	store := storage.NewMemoryStore(log)
	n := 0
	p := New(gen, store, log,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("plan-%d", n) }),
	)
	return p, store, context.Background()
}

func sampleProfile() *domain.UserProfile {
	return &domain.UserProfile{
		Age:           30,
		Sex:           domain.SexMale,
		HeightCm:      180,
		WeightKg:      80,
		ActivityLevel: domain.ActivityModeratelyActive,
		Goals:         []string{"Weight Loss"},
	}
}

const servicePlan = "# Plan\n\n## Meal Plan\n- eggs\n\n## Grocery List\n- eggs\n"

func TestGenerateUsesService(t *testing.T) {
	gen := &fakeGenerator{doc: servicePlan, status: "success"}
	p, store, ctx := setupPlanner(t, gen)

	res, err := p.Generate(ctx, Request{Profile: sampleProfile(), UserID: "user-7"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gen.calls != 1 || gen.gotUser != "user-7" {
		t.Fatalf("generator calls=%d user=%q", gen.calls, gen.gotUser)
	}
	if res.Source != domain.SourceService || res.Status != "success" {
		t.Fatalf("source=%s status=%s", res.Source, res.Status)
	}
	if res.Sections.Meal != "## Meal Plan\n- eggs" || res.Sections.Grocery != "## Grocery List\n- eggs" {
		t.Fatalf("unexpected sections: %+v", res.Sections)
	}
	if res.Targets.TargetCalories != 2207 {
		t.Fatalf("target calories = %d, want 2207", res.Targets.TargetCalories)
	}

	rec, err := store.LoadPlan(ctx, res.PlanID)
	if err != nil {
		t.Fatalf("load stored plan: %v", err)
	}
	if rec.Status != domain.PlanCompleted || rec.Content != servicePlan || rec.Goal != "Weight Loss" {
		t.Fatalf("unexpected stored record: %+v", rec)
	}
}

func TestGenerateFallsBackOnError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	p, _, ctx := setupPlanner(t, gen)

	res, err := p.Generate(ctx, Request{Profile: sampleProfile()})
	if err != nil {
		t.Fatalf("service failure must not surface: %v", err)
	}
	if res.Source != domain.SourceFallback || res.Status != StatusFallback {
		t.Fatalf("source=%s status=%s", res.Source, res.Status)
	}
	if res.Document != plan.Fallback(*sampleProfile()) {
		t.Fatal("fallback document mismatch")
	}
	if res.Sections.Meal == plan.MealPlaceholder || res.Sections.Grocery == plan.GroceryPlaceholder {
		t.Fatalf("fallback sections should not be placeholders: %+v", res.Sections)
	}
	if want := fmt.Sprintf("user-%d", fixedNow.UnixMilli()); res.UserID != want {
		t.Fatalf("user id = %q, want %q", res.UserID, want)
	}
}

func TestGenerateWithoutService(t *testing.T) {
	p, _, ctx := setupPlanner(t, nil)

	res, err := p.Generate(ctx, Request{Profile: sampleProfile(), UserID: "u"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Source != domain.SourceFallback {
		t.Fatalf("source = %s, want fallback", res.Source)
	}
	if !strings.Contains(string(res.Document), "2207 calories") {
		t.Fatal("fallback plan should carry the computed calories")
	}
}

func TestGenerateMissingProfile(t *testing.T) {
	gen := &fakeGenerator{doc: servicePlan}
	p, _, ctx := setupPlanner(t, gen)

	_, err := p.Generate(ctx, Request{UserID: "u"})
	if !errors.Is(err, domain.ErrMissingProfile) {
		t.Fatalf("expected ErrMissingProfile, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatal("generator must not be called without a profile")
	}
}

func TestGenerateStoreFailure(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	p := New(&fakeGenerator{doc: servicePlan}, failingStore{storage.NewMemoryStore(log)}, log)

	if _, err := p.Generate(context.Background(), Request{Profile: sampleProfile()}); err == nil {
		t.Fatal("expected storage error")
	}
}

func TestGenerateAgainstMalformedService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"plan":{"something":"else"}}`))
	}))
	defer srv.Close()

	log := logger.New(logger.LevelOff, nil)
	p := New(planapi.NewClient(srv.URL, log), storage.NewMemoryStore(log), log)

	res, err := p.Generate(context.Background(), Request{Profile: sampleProfile(), UserID: "u"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Source != domain.SourceFallback {
		t.Fatalf("malformed response should trigger fallback, got %s", res.Source)
	}
}

func TestLoadAndHistory(t *testing.T) {
	gen := &fakeGenerator{doc: servicePlan, status: "success"}
	p, _, ctx := setupPlanner(t, gen)

	first, err := p.Generate(ctx, Request{Profile: sampleProfile(), UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	gen.err = errors.New("down")
	if _, err := p.Generate(ctx, Request{Profile: sampleProfile(), UserID: "u1"}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	loaded, err := p.Load(ctx, first.PlanID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Targets != first.Targets || loaded.Sections != first.Sections || loaded.Status != "success" {
		t.Fatalf("reloaded result differs:\n%+v\n%+v", loaded, first)
	}

	if _, err := p.Load(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	history, err := p.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	var fallbacks int
	for _, h := range history {
		if h.Status == StatusFallback {
			fallbacks++
		}
	}
	if fallbacks != 1 {
		t.Fatalf("expected one fallback plan in history, got %d", fallbacks)
	}
}

func TestLoadKeepsServiceStatus(t *testing.T) {
	gen := &fakeGenerator{doc: servicePlan, status: "partial"}
	p, _, ctx := setupPlanner(t, gen)

	res, err := p.Generate(ctx, Request{Profile: sampleProfile(), UserID: "u"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Status != "partial" {
		t.Fatalf("generate status = %q, want partial", res.Status)
	}

	loaded, err := p.Load(ctx, res.PlanID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Status != "partial" {
		t.Fatalf("load status = %q, want partial", loaded.Status)
	}

	history, err := p.History(ctx, "u")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Status != "partial" {
		t.Fatalf("history = %+v", history)
	}
}
