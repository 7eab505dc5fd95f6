// Package analytics records page visits and waitlist sign-ups.
package analytics

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/logger"
)

// Device types reported for visits.
const (
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

var mobileUA = regexp.MustCompile(`Mobile|Android|iP(hone|od)|IEMobile|BlackBerry|Kindle|Silk-Accelerated|(hpw|web)OS|Opera M(obi|ini)`)

// DeviceType classifies a user agent as tablet, mobile or desktop. Android
// agents without "mobi" count as tablets.
func DeviceType(userAgent string) string {
	if isTablet(userAgent) {
		return DeviceTablet
	}
	if mobileUA.MatchString(userAgent) {
		return DeviceMobile
	}
	return DeviceDesktop
}

// isTablet mirrors (tablet|ipad|playbook|silk)|(android(?!.*mobi)) without
// lookahead support.
func isTablet(ua string) bool {
	lower := strings.ToLower(ua)
	for _, kw := range []string{"tablet", "ipad", "playbook", "silk"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	// An "android" occurrence not followed by "mobi" anywhere later.
	for i := strings.Index(lower, "android"); i >= 0; {
		if !strings.Contains(lower[i:], "mobi") {
			return true
		}
		next := strings.Index(lower[i+1:], "android")
		if next < 0 {
			break
		}
		i += next + 1
	}
	return false
}

// NewSessionID returns a fresh visitor session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Tracker persists visits.
type Tracker struct {
	store domain.VisitStore
	log   *logger.Logger
	now   func() time.Time
}

// NewTracker creates a visit tracker.
func NewTracker(store domain.VisitStore, log *logger.Logger) *Tracker {
	return &Tracker{store: store, log: log.With("analytics"), now: time.Now}
}

// Track fills in the id, timestamp, session and device type when missing
// and stores the visit.
func (t *Tracker) Track(ctx context.Context, v domain.Visit) (*domain.Visit, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.SessionID == "" {
		v.SessionID = NewSessionID()
	}
	if v.DeviceType == "" {
		v.DeviceType = DeviceType(v.UserAgent)
	}
	if v.VisitDuration < 0 {
		v.VisitDuration = 0
	}
	v.CreatedAt = t.now()

	if err := t.store.RecordVisit(ctx, &v); err != nil {
		return nil, fmt.Errorf("analytics: track visit: %w", err)
	}
	t.log.Debug("visit %s page=%s device=%s duration=%ds", v.ID, v.PageVisited, v.DeviceType, v.VisitDuration)
	return &v, nil
}

// Waitlist validates and stores sign-ups.
type Waitlist struct {
	store domain.WaitlistStore
	log   *logger.Logger
	now   func() time.Time
}

// NewWaitlist creates a waitlist service.
func NewWaitlist(store domain.WaitlistStore, log *logger.Logger) *Waitlist {
	return &Waitlist{store: store, log: log.With("waitlist"), now: time.Now}
}

// Join adds email to the waitlist. Addresses are trimmed and lower-cased.
// Returns domain.ErrInvalidEmail or domain.ErrAlreadyExists.
func (w *Waitlist) Join(ctx context.Context, email string) (*domain.WaitlistEntry, error) {
	norm := strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(norm)
	if err != nil || addr.Address != norm || !strings.Contains(norm[strings.LastIndex(norm, "@")+1:], ".") {
		return nil, domain.ErrInvalidEmail
	}

	e := &domain.WaitlistEntry{Email: norm, CreatedAt: w.now()}
	if err := w.store.AddToWaitlist(ctx, e); err != nil {
		return nil, err
	}
	w.log.Info("waitlist sign-up: %s", norm)
	return e, nil
}
