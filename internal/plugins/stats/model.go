// Package stats tracks per-user counters, currently just the login count.
package stats

import "time"

// UserStats is a single user's aggregate counters.
type UserStats struct {
	UserID      string    `json:"user_id"`
	LoginCount  int64     `json:"login_count"`
	LastLoginAt time.Time `json:"last_login_at"`
}
