package domain

import "context"

// PlanGenerator produces a full markdown plan for a profile. The production
// implementation calls the external plan service; any error sends the
// planner down the local fallback path.
type PlanGenerator interface {
	Generate(ctx context.Context, profile UserProfile, userID string) (PlanDocument, string, error)
}

// PlanStore persists generated plans. Implementations can be in-memory or
// SQLite.
type PlanStore interface {
	SavePlan(ctx context.Context, rec *PlanRecord) error
	LoadPlan(ctx context.Context, id string) (*PlanRecord, error)
	ListPlans(ctx context.Context, userID string) ([]*PlanRecord, error)
}

// VisitStore records page visits for analytics.
type VisitStore interface {
	RecordVisit(ctx context.Context, v *Visit) error
	CountVisits(ctx context.Context, page string) (int, error)
}

// WaitlistStore keeps waitlist sign-ups. AddToWaitlist returns
// ErrAlreadyExists for an email that is already on the list.
type WaitlistStore interface {
	AddToWaitlist(ctx context.Context, e *WaitlistEntry) error
}
