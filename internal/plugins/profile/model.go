// Package profile manages user profiles: display name, bio, avatar, and
// Discord identity metadata. Profiles are created lazily -- the first
// fetch or login after sign-up provisions the row, so an account that
// predates this plugin still gets one.
package profile

import (
	"time"
)

// Profile is a user's public-facing identity. Exactly one per user; the
// user ID doubles as the primary key.
type Profile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Website     string `json:"website"`
	Location    string `json:"location"`

	// AvatarKey is the object-store key of an uploaded or mirrored
	// avatar. AvatarURL is the external fallback when no object store is
	// configured. At most one is relevant at a time.
	AvatarKey *string `json:"-"`
	AvatarURL *string `json:"avatar_url,omitempty"`

	// Discord identity, populated after a Discord OAuth login.
	DiscordID       *string `json:"discord_id,omitempty"`
	DiscordUsername *string `json:"discord_username,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateRequest holds the editable profile fields.
type UpdateRequest struct {
	DisplayName string `json:"display_name" form:"display_name"`
	Bio         string `json:"bio" form:"bio"`
	Website     string `json:"website" form:"website"`
	Location    string `json:"location" form:"location"`
}

// UpdateInput is the validated input for a profile update.
type UpdateInput struct {
	DisplayName string
	Bio         string
	Website     string
	Location    string
}
