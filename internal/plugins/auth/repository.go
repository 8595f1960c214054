package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warningbypass/warningweb/internal/apperror"
)

// UserRepository defines the data access contract for user operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string) error
	LinkProvider(ctx context.Context, id, provider, providerID string) error

	// Password reset.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	CreateResetToken(ctx context.Context, userID, email, tokenHash string, expiresAt time.Time) error
	FindResetToken(ctx context.Context, tokenHash string) (userID, email string, expiresAt time.Time, usedAt *time.Time, err error)
	MarkResetTokenUsed(ctx context.Context, tokenHash string) error
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row into the users table.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, display_name, password_hash, provider, provider_id, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.Provider,
		user.ProviderID,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByID retrieves a user by their UUID.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT id, email, display_name, password_hash, provider, provider_id,
	                 created_at, last_login_at
	          FROM users WHERE id = ?`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id), "querying user by id")
}

// FindByEmail retrieves a user by their email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, display_name, password_hash, provider, provider_id,
	                 created_at, last_login_at
	          FROM users WHERE email = ?`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email), "querying user by email")
}

// FindByProviderID retrieves a user by their OAuth provider identity.
// Returns apperror.NotFound if no user is linked to it.
func (r *userRepository) FindByProviderID(ctx context.Context, provider, providerID string) (*User, error) {
	query := `SELECT id, email, display_name, password_hash, provider, provider_id,
	                 created_at, last_login_at
	          FROM users WHERE provider = ? AND provider_id = ?`

	return r.scanUser(r.db.QueryRowContext(ctx, query, provider, providerID), "querying user by provider")
}

// scanUser scans one user row, mapping sql.ErrNoRows to apperror.NotFound.
func (r *userRepository) scanUser(row *sql.Row, op string) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.Provider,
		&user.ProviderID,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// EmailExists returns true if a user with the given email already exists.
// Used during sign-up to check for duplicates before hashing the password.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// UpdateLastLogin sets the last_login_at timestamp to now for the given user.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_at = NOW() WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}

	return nil
}

// LinkProvider attaches an OAuth identity to an existing account. Used
// when a Discord sign-in matches an existing email account.
func (r *userRepository) LinkProvider(ctx context.Context, id, provider, providerID string) error {
	query := `UPDATE users SET provider = ?, provider_id = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, provider, providerID, id)
	if err != nil {
		return fmt.Errorf("linking provider: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// --- Password Reset ---

// UpdatePassword sets a new password hash for a user.
func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// CreateResetToken inserts a new password reset token. The tokenHash is
// SHA-256(plaintext_token) -- plaintext is never stored.
func (r *userRepository) CreateResetToken(ctx context.Context, userID, email, tokenHash string, expiresAt time.Time) error {
	query := `INSERT INTO password_reset_tokens (user_id, email, token_hash, expires_at)
	          VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, userID, email, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("creating reset token: %w", err)
	}
	return nil
}

// FindResetToken looks up a reset token by its hash. Returns the associated
// user ID, email, expiry, and used_at (nil if unused).
func (r *userRepository) FindResetToken(ctx context.Context, tokenHash string) (string, string, time.Time, *time.Time, error) {
	query := `SELECT user_id, email, expires_at, used_at
	          FROM password_reset_tokens WHERE token_hash = ?`
	var userID, email string
	var expiresAt time.Time
	var usedAt *time.Time
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&userID, &email, &expiresAt, &usedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", time.Time{}, nil, apperror.NewNotFound("invalid or expired reset token")
	}
	if err != nil {
		return "", "", time.Time{}, nil, fmt.Errorf("finding reset token: %w", err)
	}
	return userID, email, expiresAt, usedAt, nil
}

// MarkResetTokenUsed stamps the used_at column so the token can't be reused.
func (r *userRepository) MarkResetTokenUsed(ctx context.Context, tokenHash string) error {
	query := `UPDATE password_reset_tokens SET used_at = NOW() WHERE token_hash = ?`
	_, err := r.db.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("marking reset token used: %w", err)
	}
	return nil
}
