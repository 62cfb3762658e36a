package internal

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// SleepRecord is one night of sleep. Hours is always derived from BedTime
// and WakeTime; records are never edited once stored.
type SleepRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`      // YYYY-MM-DD, local calendar
	BedTime   string    `json:"bed_time"`  // HH:MM
	WakeTime  string    `json:"wake_time"` // HH:MM
	Hours     float64   `json:"hours"`
	CreatedAt time.Time `json:"created_at"`
}

type Goal struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"` // duration, consistency
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
