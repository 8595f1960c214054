// Package auth handles user authentication, session management, and
// password security for WarningWeb. It provides email/password sign-in
// and sign-up, the combined sign-in-or-sign-up flow the storefront login
// form uses, Discord OAuth, password resets, and Redis-backed sessions
// with a hard 24-hour age ceiling.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

import (
	"time"
)

// Auth providers. Email/password accounts have ProviderEmail; accounts
// provisioned through Discord OAuth have ProviderDiscord and may have no
// password hash at all.
const (
	ProviderEmail   = "email"
	ProviderDiscord = "discord"
)

// Sign-in actions reported by SignInOrSignUp so the frontend can tell
// whether an account was just created.
const (
	ActionSignIn = "signin"
	ActionSignUp = "signup"
)

// User represents a registered storefront user. This is the domain model
// used throughout the application. Database scanning and JSON marshaling
// use this struct directly.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"` // Never expose in JSON responses.
	Provider     string     `json:"provider"`
	ProviderID   *string    `json:"-"` // Discord snowflake for OAuth accounts.
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// --- Request DTOs (bound from HTTP requests) ---

// SignUpRequest holds the data submitted by the sign-up form.
type SignUpRequest struct {
	Email       string `json:"email" form:"email"`
	DisplayName string `json:"display_name" form:"display_name"`
	Password    string `json:"password" form:"password"`
}

// SignInRequest holds the data submitted by the sign-in form. It doubles
// as the body of the combined sign-in-or-sign-up endpoint, where the
// optional display name seeds the account if one gets created.
type SignInRequest struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	DisplayName string `json:"display_name" form:"display_name"`
}

// ForgotPasswordRequest holds the email to send a reset link to.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

// ResetPasswordRequest holds the reset token and replacement password.
type ResetPasswordRequest struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

// --- Service Input DTOs (passed from handler to service) ---

// SignUpInput is the validated input for creating a new account.
type SignUpInput struct {
	Email       string
	DisplayName string
	Password    string
}

// SignInInput is the validated input for authenticating a user.
type SignInInput struct {
	Email    string
	Password string

	// DisplayName is only read by the combined sign-in-or-sign-up flow,
	// seeding the account when the sign-up branch is taken.
	DisplayName string

	// UserAgent and IP are recorded with suspicious-activity events.
	UserAgent string
	IP        string
}

// --- Session ---

// Session represents an authenticated user session stored in Redis.
// The session token is the key, and this struct is the value
// (JSON-encoded). CreatedAt backs the 24-hour age ceiling.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult is what a successful authentication returns: the session
// token for the cookie, the user, and which path was taken.
type AuthResult struct {
	Token  string
	User   *User
	Action string
}

// DiscordProfile carries the identity fields fetched from Discord after
// an OAuth exchange. Used to provision accounts and enrich profiles.
type DiscordProfile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
}

// DisplayName prefers the Discord global name over the username.
func (p DiscordProfile) DisplayName() string {
	if p.GlobalName != "" {
		return p.GlobalName
	}
	return p.Username
}
