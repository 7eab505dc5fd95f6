package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/nutriplan/internal/analytics"
	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/logger"
	"github.com/hammamikhairi/nutriplan/internal/planapi"
	"github.com/hammamikhairi/nutriplan/internal/planner"
	"github.com/hammamikhairi/nutriplan/internal/storage"
)

// setupServer starts the API backed by an in-memory store. With a non-nil
// stub the planner talks to it over HTTP; otherwise it always falls back.
func setupServer(t *testing.T, stub *Stub) (*httptest.Server, *storage.MemoryStore) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	store := storage.NewMemoryStore(log)

	var gen domain.PlanGenerator
	if stub != nil {
		stubSrv := httptest.NewServer(stub.Handler())
		t.Cleanup(stubSrv.Close)
		gen = planapi.NewClient(stubSrv.URL, log)
	}

	srv := New(
		planner.New(gen, store, log),
		analytics.NewTracker(store, log),
		analytics.NewWaitlist(store, log),
		log,
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

const profileJSON = `{"age":30,"gender":"male","height":180,"weight":80,"activityLevel":"Moderately Active","goals":["Weight Loss"]}`

func TestHealth(t *testing.T) {
	ts, _ := setupServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]string
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusOK || out["status"] != "healthy" {
		t.Fatalf("health = %d %v", resp.StatusCode, out)
	}
}

func TestTargets(t *testing.T) {
	ts, _ := setupServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/targets", profileJSON)
	var got domain.NutritionTargets
	decodeBody(t, resp, &got)

	want := domain.NutritionTargets{
		BMR: 1780, TDEE: 2759, TargetCalories: 2207,
		ProteinG: 166, CarbsG: 221, FatG: 74,
		WaterLiters: 2.64, Goal: "weight loss",
	}
	if got != want {
		t.Fatalf("targets = %+v, want %+v", got, want)
	}

	resp = postJSON(t, ts.URL+"/api/targets", "{not json")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad body status = %d, want 400", resp.StatusCode)
	}
}

func TestCreatePlanThroughStub(t *testing.T) {
	for _, shape := range []string{"plain", "raw", "tasks"} {
		t.Run(shape, func(t *testing.T) {
			sh, err := ParseShape(shape)
			if err != nil {
				t.Fatal(err)
			}
			ts, _ := setupServer(t, NewStub(sh, logger.New(logger.LevelOff, nil)))

			resp := postJSON(t, ts.URL+"/api/plans", `{"user_id":"u-1","profile":`+profileJSON+`}`)
			var res planner.Result
			decodeBody(t, resp, &res)

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if res.Source != domain.SourceService || res.Status != "success" {
				t.Fatalf("source=%s status=%s", res.Source, res.Status)
			}
			if string(res.Document) != SamplePlan {
				t.Fatal("document differs from the stub's sample plan")
			}
			if !strings.HasPrefix(res.Sections.Meal, "## 7-Day Meal Plan") || strings.Contains(res.Sections.Meal, "Grocery") {
				t.Fatalf("meal section = %q", res.Sections.Meal)
			}
			if res.Sections.Grocery != "## Grocery List" {
				t.Fatalf("grocery section = %q", res.Sections.Grocery)
			}
		})
	}
}

func TestCreatePlanFallback(t *testing.T) {
	ts, _ := setupServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/plans", `{"profile":`+profileJSON+`}`)
	var res planner.Result
	decodeBody(t, resp, &res)

	if res.Status != planner.StatusFallback || res.Source != domain.SourceFallback {
		t.Fatalf("status=%s source=%s", res.Status, res.Source)
	}
	if !strings.HasPrefix(res.UserID, "user-") {
		t.Fatalf("generated user id = %q", res.UserID)
	}
}

func TestCreatePlanMissingProfile(t *testing.T) {
	ts, _ := setupServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/plans", `{"user_id":"u-1"}`)
	var out map[string]string
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusBadRequest || out["detail"] == "" {
		t.Fatalf("missing profile = %d %v", resp.StatusCode, out)
	}
}

func TestPlanRetrievalAndDownload(t *testing.T) {
	ts, _ := setupServer(t, NewStub(planapi.ShapePlainString, logger.New(logger.LevelOff, nil)))

	resp := postJSON(t, ts.URL+"/api/plans", `{"user_id":"u-9","profile":`+profileJSON+`}`)
	var created planner.Result
	decodeBody(t, resp, &created)

	resp, err := http.Get(ts.URL + "/api/plans/" + created.PlanID)
	if err != nil {
		t.Fatal(err)
	}
	var loaded planner.Result
	decodeBody(t, resp, &loaded)
	if loaded.Sections != created.Sections || loaded.Targets != created.Targets {
		t.Fatal("reloaded plan differs from created plan")
	}

	resp, err = http.Get(ts.URL + "/api/plans/" + created.PlanID + "/sections/grocery?format=txt")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="grocery-list.txt"` {
		t.Fatalf("content disposition = %q", got)
	}
	if string(body) != "## Grocery List" {
		t.Fatalf("text export = %q", body)
	}

	resp, err = http.Get(ts.URL + "/api/plans/" + created.PlanID + "/sections/dessert")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown section status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/plans/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown plan status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/users/u-9/plans")
	if err != nil {
		t.Fatal(err)
	}
	var history []planner.Result
	decodeBody(t, resp, &history)
	if len(history) != 1 || history[0].PlanID != created.PlanID {
		t.Fatalf("history = %+v", history)
	}
}

func TestTrackVisit(t *testing.T) {
	ts, store := setupServer(t, nil)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/track-visit",
		bytes.NewBufferString(`{"page_visited":"/","session_id":"s-1","visit_duration":12}`))
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]bool
	decodeBody(t, resp, &out)
	if !out["success"] {
		t.Fatalf("track-visit = %v", out)
	}

	n, err := store.CountVisits(context.Background(), "/")
	if err != nil || n != 1 {
		t.Fatalf("visits = %d, %v", n, err)
	}
}

func TestWaitlist(t *testing.T) {
	ts, _ := setupServer(t, nil)

	tests := []struct {
		email string
		want  int
	}{
		{"cook@example.com", http.StatusCreated},
		{"COOK@example.com", http.StatusConflict},
		{"not-an-email", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp := postJSON(t, ts.URL+"/api/waitlist", fmt.Sprintf(`{"email":%q}`, tt.email))
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("waitlist %q = %d, want %d", tt.email, resp.StatusCode, tt.want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := setupServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/plans", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrMissingProfile, http.StatusBadRequest},
		{fmt.Errorf("planner: load plan x: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrInvalidEmail, http.StatusBadRequest},
		{badRequest(errors.New("bad")), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestStubRejectsBadBody(t *testing.T) {
	st := NewStub(planapi.ShapePlainString, logger.New(logger.LevelOff, nil))
	ts := httptest.NewServer(st.Handler())
	defer ts.Close()

	resp := postJSON(t, ts.URL+planapi.GeneratePath, "[")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	if _, err := ParseShape("xml"); err == nil {
		t.Fatal("expected error for unknown shape")
	}
}

// blockingGenerator holds a plan request open until released.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (g *blockingGenerator) Generate(ctx context.Context, profile domain.UserProfile, userID string) (domain.PlanDocument, string, error) {
	close(g.started)
	select {
	case <-g.release:
		return domain.PlanDocument(SamplePlan), "success", nil
	case <-ctx.Done():
		return "", "", ctx.Err()
	}
}

func TestShutdownDrainsPlanRequest(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	st, err := storage.OpenSQLite(":memory:", log)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	gen := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
	srv := New(planner.New(gen, st, log), analytics.NewTracker(st, log), analytics.NewWaitlist(st, log), log)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln, 5*time.Second) }()

	type reply struct {
		resp *http.Response
		err  error
	}
	replies := make(chan reply, 1)
	go func() {
		resp, err := http.Post("http://"+ln.Addr().String()+"/api/plans", "application/json",
			strings.NewReader(`{"user_id":"u-1","profile":`+profileJSON+`}`))
		replies <- reply{resp, err}
	}()

	select {
	case <-gen.started:
	case r := <-replies:
		t.Fatalf("request finished before reaching the generator: %v", r.err)
	case <-time.After(5 * time.Second):
		t.Fatal("generator never called")
	}

	// Shut down while the request is in flight, then let it complete.
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(gen.release)

	r := <-replies
	if r.err != nil {
		t.Fatalf("request: %v", r.err)
	}
	var res planner.Result
	decodeBody(t, r.resp, &res)
	if r.resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", r.resp.StatusCode)
	}
	if res.Source != domain.SourceService {
		t.Fatalf("source = %s, want service", res.Source)
	}

	if err := <-served; err != nil {
		t.Fatalf("serve: %v", err)
	}

	rec, err := st.LoadPlan(context.Background(), res.PlanID)
	if err != nil {
		t.Fatalf("load stored plan: %v", err)
	}
	if rec.Status != domain.PlanCompleted {
		t.Fatalf("stored status = %s, want completed", rec.Status)
	}
}
