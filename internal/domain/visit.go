package domain

import "time"

// Visit is one page view reported by the website.
type Visit struct {
	ID            string    `json:"id"`
	PageVisited   string    `json:"page_visited"`
	SessionID     string    `json:"session_id"`
	UserAgent     string    `json:"user_agent"`
	IPAddress     string    `json:"ip_address,omitempty"`
	Referrer      string    `json:"referrer"`
	DeviceType    string    `json:"device_type"`
	VisitDuration int       `json:"visit_duration"` // seconds
	UserID        string    `json:"user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// WaitlistEntry is a single waitlist sign-up.
type WaitlistEntry struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
