// Package activity provides the append-only activity log. Entries record
// security-relevant events (logins, lockouts, password changes) plus
// profile and order milestones. Writes are best-effort: a failed insert
// is logged and dropped, never surfaced to the user flow that caused it.
package activity

import "time"

// Well-known action names. Free-form actions are allowed but these cover
// everything the application itself records.
const (
	ActionLogin              = "login"
	ActionLogout             = "logout"
	ActionAccountCreated     = "account_created"
	ActionProfileCreated     = "profile_created"
	ActionProfileUpdated     = "profile_updated"
	ActionPasswordChanged    = "password_changed"
	ActionSuspiciousActivity = "suspicious_activity_detected"
	ActionInactivityWarning  = "inactivity_warning"
	ActionAutoLogout         = "auto_logout"
	ActionOrderCreated       = "order_created"
	ActionOrderPaid          = "order_paid"
)

// Entry is a single activity log record. UserID is nil for events that
// happen before authentication, such as lockouts on unknown emails.
type Entry struct {
	ID        int64          `json:"id"`
	UserID    *string        `json:"user_id,omitempty"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
