package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warningbypass/warningweb/internal/apperror"
)

// ProfileRepository defines the data access contract for profiles.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*Profile, error)

	// CreateIfAbsent inserts the profile unless one already exists.
	// Safe to call repeatedly and concurrently for the same user.
	CreateIfAbsent(ctx context.Context, p *Profile) error

	Update(ctx context.Context, userID string, fields UpdateInput) error
	SetAvatarKey(ctx context.Context, userID, key string) error
	SetAvatarURL(ctx context.Context, userID, url string) error
	SetDiscord(ctx context.Context, userID, discordID, discordUsername string) error
}

// profileRepository implements ProfileRepository with hand-written
// MariaDB queries.
type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a profile repository backed by the given DB pool.
func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Get retrieves a profile by user ID.
// Returns apperror.NotFound if the user has no profile row yet.
func (r *profileRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	query := `SELECT user_id, display_name, bio, website, location, avatar_key,
	                 avatar_url, discord_id, discord_username, created_at, updated_at
	          FROM profiles WHERE user_id = ?`

	p := &Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.DisplayName,
		&p.Bio,
		&p.Website,
		&p.Location,
		&p.AvatarKey,
		&p.AvatarURL,
		&p.DiscordID,
		&p.DiscordUsername,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	return p, nil
}

// CreateIfAbsent inserts a profile row, silently doing nothing when one
// exists. INSERT IGNORE makes concurrent lazy creation race-free.
func (r *profileRepository) CreateIfAbsent(ctx context.Context, p *Profile) error {
	query := `INSERT IGNORE INTO profiles (user_id, display_name, bio, created_at, updated_at)
	          VALUES (?, ?, ?, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query, p.UserID, p.DisplayName, p.Bio)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

// Update replaces the editable fields.
func (r *profileRepository) Update(ctx context.Context, userID string, fields UpdateInput) error {
	query := `UPDATE profiles SET display_name = ?, bio = ?, website = ?, location = ?,
	          updated_at = NOW() WHERE user_id = ?`

	result, err := r.db.ExecContext(ctx, query, fields.DisplayName, fields.Bio, fields.Website, fields.Location, userID)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("profile not found")
	}
	return nil
}

// SetAvatarKey records an object-store avatar, clearing any external URL.
func (r *profileRepository) SetAvatarKey(ctx context.Context, userID, key string) error {
	query := `UPDATE profiles SET avatar_key = ?, avatar_url = NULL, updated_at = NOW() WHERE user_id = ?`

	_, err := r.db.ExecContext(ctx, query, key, userID)
	if err != nil {
		return fmt.Errorf("updating avatar key: %w", err)
	}
	return nil
}

// SetAvatarURL records an external avatar URL, clearing any stored object.
func (r *profileRepository) SetAvatarURL(ctx context.Context, userID, url string) error {
	query := `UPDATE profiles SET avatar_url = ?, avatar_key = NULL, updated_at = NOW() WHERE user_id = ?`

	_, err := r.db.ExecContext(ctx, query, url, userID)
	if err != nil {
		return fmt.Errorf("updating avatar url: %w", err)
	}
	return nil
}

// SetDiscord records the Discord identity fields.
func (r *profileRepository) SetDiscord(ctx context.Context, userID, discordID, discordUsername string) error {
	query := `UPDATE profiles SET discord_id = ?, discord_username = ?, updated_at = NOW() WHERE user_id = ?`

	_, err := r.db.ExecContext(ctx, query, discordID, discordUsername, userID)
	if err != nil {
		return fmt.Errorf("updating discord identity: %w", err)
	}
	return nil
}
