// Package storage provides plan, visit and waitlist persistence.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.PlanStore     = (*MemoryStore)(nil)
	_ domain.VisitStore    = (*MemoryStore)(nil)
	_ domain.WaitlistStore = (*MemoryStore)(nil)
)

// MemoryStore keeps everything in process memory. Safe for concurrent
// access.
type MemoryStore struct {
	mu       sync.RWMutex
	plans    map[string]*domain.PlanRecord
	visits   []*domain.Visit
	waitlist map[string]*domain.WaitlistEntry
	log      *logger.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		plans:    make(map[string]*domain.PlanRecord),
		waitlist: make(map[string]*domain.WaitlistEntry),
		log:      log.With("storage"),
	}
}

// SavePlan persists a plan record. Overwrites if it already exists.
func (s *MemoryStore) SavePlan(ctx context.Context, rec *domain.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving plan %s (user=%s, status=%s)", rec.ID, rec.UserID, rec.Status)
	cp := *rec
	cp.Profile.Goals = append([]string(nil), rec.Profile.Goals...)
	s.plans[rec.ID] = &cp
	return nil
}

// LoadPlan retrieves a plan by ID.
func (s *MemoryStore) LoadPlan(ctx context.Context, id string) (*domain.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.plans[id]
	if !ok {
		s.log.Debug("plan not found: %s", id)
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListPlans returns a user's plans, newest first.
func (s *MemoryStore) ListPlans(ctx context.Context, userID string) ([]*domain.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PlanRecord
	for _, rec := range s.plans {
		if rec.UserID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	s.log.Debug("listing plans for %s, count=%d", userID, len(out))
	return out, nil
}

// RecordVisit appends a visit.
func (s *MemoryStore) RecordVisit(ctx context.Context, v *domain.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *v
	s.visits = append(s.visits, &cp)
	return nil
}

// CountVisits counts visits to page. An empty page counts all visits.
func (s *MemoryStore) CountVisits(ctx context.Context, page string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if page == "" {
		return len(s.visits), nil
	}
	n := 0
	for _, v := range s.visits {
		if v.PageVisited == page {
			n++
		}
	}
	return n, nil
}

// AddToWaitlist stores a sign-up, or returns ErrAlreadyExists.
func (s *MemoryStore) AddToWaitlist(ctx context.Context, e *domain.WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.waitlist[e.Email]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *e
	s.waitlist[e.Email] = &cp
	return nil
}
