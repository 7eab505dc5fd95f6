package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.PlanStore     = (*SQLiteStore)(nil)
	_ domain.VisitStore    = (*SQLiteStore)(nil)
	_ domain.WaitlistStore = (*SQLiteStore)(nil)
)

// Schema for the nutriplan tables. Applied by Init.
const Schema = `
CREATE TABLE IF NOT EXISTS diet_plans (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	goal TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	service_status TEXT NOT NULL DEFAULT '',
	profile TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_diet_plans_user ON diet_plans(user_id, created_at);

CREATE TABLE IF NOT EXISTS visitor_analytics (
	id TEXT PRIMARY KEY,
	page_visited TEXT NOT NULL,
	session_id TEXT NOT NULL,
	user_agent TEXT NOT NULL DEFAULT '',
	ip_address TEXT,
	referrer TEXT NOT NULL DEFAULT '',
	device_type TEXT NOT NULL DEFAULT '',
	visit_duration INTEGER NOT NULL DEFAULT 0,
	user_id TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_visitor_analytics_page ON visitor_analytics(page_visited);

CREATE TABLE IF NOT EXISTS waitlist (
	email TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);
`

// SQLiteStore persists to a SQLite database through the pure-Go
// modernc.org/sqlite driver.
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

// OpenSQLite opens (or creates) the database at path and applies Schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string, log *logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every new connection to :memory: is a fresh database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 10000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: pragma: %w", err)
	}

	s := NewSQLiteStore(db, log)
	if err := s.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database. Call Init before use.
func NewSQLiteStore(db *sql.DB, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, log: log.With("sqlite")}
}

// Init creates the tables if they don't exist.
func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("storage: apply schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SavePlan inserts or replaces a plan record.
func (s *SQLiteStore) SavePlan(ctx context.Context, rec *domain.PlanRecord) error {
	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("storage: encode profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO diet_plans (id, user_id, goal, status, source, service_status, profile, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			goal = excluded.goal,
			status = excluded.status,
			source = excluded.source,
			service_status = excluded.service_status,
			profile = excluded.profile,
			content = excluded.content,
			updated_at = excluded.updated_at`,
		rec.ID, rec.UserID, rec.Goal, string(rec.Status), string(rec.Source), rec.ServiceStatus, string(profile),
		string(rec.Content), rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("storage: save plan %s: %w", rec.ID, err)
	}
	s.log.Debug("saved plan %s (status=%s)", rec.ID, rec.Status)
	return nil
}

const planColumns = `id, user_id, goal, status, source, service_status, profile, content, created_at, updated_at`

// LoadPlan retrieves a plan by ID.
func (s *SQLiteStore) LoadPlan(ctx context.Context, id string) (*domain.PlanRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM diet_plans WHERE id = ?`, id)
	rec, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load plan %s: %w", id, err)
	}
	return rec, nil
}

// ListPlans returns a user's plans, newest first.
func (s *SQLiteStore) ListPlans(ctx context.Context, userID string) ([]*domain.PlanRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM diet_plans WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("storage: list plans: %w", err)
	}
	defer rows.Close()

	var out []*domain.PlanRecord
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan plan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(sc scanner) (*domain.PlanRecord, error) {
	var (
		rec                  domain.PlanRecord
		status, source       string
		profile, content     string
		createdAt, updatedAt int64
	)
	if err := sc.Scan(&rec.ID, &rec.UserID, &rec.Goal, &status, &source, &rec.ServiceStatus, &profile, &content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(profile), &rec.Profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	rec.Status = domain.PlanStatus(status)
	rec.Source = domain.PlanSource(source)
	rec.Content = domain.PlanDocument(content)
	rec.CreatedAt = time.Unix(0, createdAt)
	rec.UpdatedAt = time.Unix(0, updatedAt)
	return &rec, nil
}

// RecordVisit inserts a visit row.
func (s *SQLiteStore) RecordVisit(ctx context.Context, v *domain.Visit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitor_analytics
			(id, page_visited, session_id, user_agent, ip_address, referrer, device_type, visit_duration, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.PageVisited, v.SessionID, v.UserAgent, nullable(v.IPAddress), v.Referrer,
		v.DeviceType, v.VisitDuration, nullable(v.UserID), v.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("storage: record visit: %w", err)
	}
	return nil
}

// CountVisits counts visits to page. An empty page counts all visits.
func (s *SQLiteStore) CountVisits(ctx context.Context, page string) (int, error) {
	var (
		n   int
		err error
	)
	if page == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitor_analytics`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitor_analytics WHERE page_visited = ?`, page).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("storage: count visits: %w", err)
	}
	return n, nil
}

// AddToWaitlist inserts a sign-up, or returns ErrAlreadyExists.
func (s *SQLiteStore) AddToWaitlist(ctx context.Context, e *domain.WaitlistEntry) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO waitlist (email, created_at) VALUES (?, ?)`,
		e.Email, e.CreatedAt.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("storage: add to waitlist: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
