// Package planner turns a user profile into a complete, sectioned nutrition
// plan. It computes the targets, asks the plan service once, falls back to
// the built-in plan on any failure and stores the result.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/logger"
	"github.com/hammamikhairi/nutriplan/internal/nutrition"
	"github.com/hammamikhairi/nutriplan/internal/plan"
)

// StatusFallback is reported when the built-in plan was used.
const StatusFallback = "success-fallback"

// Option configures the planner.
type Option func(*Planner)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// WithIDGenerator overrides plan id generation. Used by tests.
func WithIDGenerator(gen func() string) Option {
	return func(p *Planner) { p.newID = gen }
}

// Planner generates and stores plans. It depends only on interfaces.
type Planner struct {
	gen   domain.PlanGenerator
	store domain.PlanStore
	log   *logger.Logger
	now   func() time.Time
	newID func() string
}

// New creates a planner. gen may be nil, in which case every plan comes from
// the built-in fallback.
func New(gen domain.PlanGenerator, store domain.PlanStore, log *logger.Logger, opts ...Option) *Planner {
	p := &Planner{
		gen:   gen,
		store: store,
		log:   log.With("planner"),
		now:   time.Now,
		newID: generateID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Request carries everything one plan generation needs. The profile and
// user id travel explicitly; nothing is staged in shared state.
type Request struct {
	Profile *domain.UserProfile `json:"profile"`
	UserID  string              `json:"user_id"`
}

// Result is a generated or reloaded plan ready for display.
type Result struct {
	PlanID    string                  `json:"plan_id"`
	UserID    string                  `json:"user_id"`
	Targets   domain.NutritionTargets `json:"targets"`
	Document  domain.PlanDocument     `json:"plan"`
	Sections  domain.ParsedSections   `json:"sections"`
	Source    domain.PlanSource       `json:"source"`
	Status    string                  `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

// Targets computes the nutrition targets for a profile.
func (p *Planner) Targets(profile domain.UserProfile) domain.NutritionTargets {
	return nutrition.Compute(profile)
}

// Generate produces a plan for req. A nil profile returns
// domain.ErrMissingProfile without computing anything. Plan service
// failures never surface as errors; only storage errors do.
func (p *Planner) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Profile == nil {
		return nil, domain.ErrMissingProfile
	}
	profile := *req.Profile

	now := p.now()
	userID := req.UserID
	if userID == "" {
		userID = fmt.Sprintf("user-%d", now.UnixMilli())
	}

	rec := &domain.PlanRecord{
		ID:        p.newID(),
		UserID:    userID,
		Goal:      primaryGoal(profile),
		Status:    domain.PlanProcessing,
		Profile:   profile,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.store.SavePlan(ctx, rec); err != nil {
		return nil, fmt.Errorf("planner: save pending plan: %w", err)
	}

	targets := nutrition.Compute(profile)
	doc, status, source := p.fetch(ctx, profile, userID)

	rec.Content = doc
	rec.Source = source
	rec.ServiceStatus = status
	rec.Status = domain.PlanCompleted
	rec.UpdatedAt = p.now()
	if err := p.store.SavePlan(ctx, rec); err != nil {
		return nil, fmt.Errorf("planner: save plan: %w", err)
	}

	p.log.Info("plan %s ready for %s (source=%s, %d kcal)", rec.ID, userID, source, targets.TargetCalories)

	return &Result{
		PlanID:    rec.ID,
		UserID:    userID,
		Targets:   targets,
		Document:  doc,
		Sections:  plan.Sectionize(string(doc)),
		Source:    source,
		Status:    status,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// fetch makes the single plan service attempt and falls back on failure.
func (p *Planner) fetch(ctx context.Context, profile domain.UserProfile, userID string) (domain.PlanDocument, string, domain.PlanSource) {
	if p.gen == nil {
		p.log.Debug("no plan service configured, using fallback")
		return plan.Fallback(profile), StatusFallback, domain.SourceFallback
	}

	doc, status, err := p.gen.Generate(ctx, profile, userID)
	if err != nil {
		p.log.Warn("plan service failed, using fallback: %v", err)
		return plan.Fallback(profile), StatusFallback, domain.SourceFallback
	}
	if status == "" {
		status = "success"
	}
	return doc, status, domain.SourceService
}

// Load rebuilds a Result from a stored plan. Targets and sections are
// recomputed from the stored profile and content.
func (p *Planner) Load(ctx context.Context, id string) (*Result, error) {
	rec, err := p.store.LoadPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("planner: load plan %s: %w", id, err)
	}
	return resultFromRecord(rec), nil
}

// History lists a user's plans, newest first.
func (p *Planner) History(ctx context.Context, userID string) ([]*Result, error) {
	recs, err := p.store.ListPlans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("planner: list plans for %s: %w", userID, err)
	}
	out := make([]*Result, 0, len(recs))
	for _, rec := range recs {
		out = append(out, resultFromRecord(rec))
	}
	return out, nil
}

// resultFromRecord rebuilds a Result. The stored service status is
// reported as is; rows without one fall back to the source.
func resultFromRecord(rec *domain.PlanRecord) *Result {
	status := "success"
	switch {
	case rec.Status == domain.PlanProcessing:
		status = string(domain.PlanProcessing)
	case rec.ServiceStatus != "":
		status = rec.ServiceStatus
	case rec.Source == domain.SourceFallback:
		status = StatusFallback
	}
	return &Result{
		PlanID:    rec.ID,
		UserID:    rec.UserID,
		Targets:   nutrition.Compute(rec.Profile),
		Document:  rec.Content,
		Sections:  plan.Sectionize(string(rec.Content)),
		Source:    rec.Source,
		Status:    status,
		CreatedAt: rec.CreatedAt,
	}
}

// primaryGoal is the goal stored with a plan: the first tag, or
// "general-health".
func primaryGoal(p domain.UserProfile) string {
	if len(p.Goals) == 0 {
		return "general-health"
	}
	return p.Goals[0]
}
