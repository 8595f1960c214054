package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warningbypass/warningweb/internal/apperror"
)

// StatsRepository defines data access for user stats.
type StatsRepository interface {
	// IncrementLogin bumps the login counter, creating the row on first login.
	IncrementLogin(ctx context.Context, userID string) error

	Get(ctx context.Context, userID string) (*UserStats, error)
}

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a stats repository backed by the given DB pool.
func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) IncrementLogin(ctx context.Context, userID string) error {
	query := `INSERT INTO user_stats (user_id, login_count, last_login_at)
	          VALUES (?, 1, NOW())
	          ON DUPLICATE KEY UPDATE login_count = login_count + 1, last_login_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("incrementing login count: %w", err)
	}
	return nil
}

func (r *statsRepository) Get(ctx context.Context, userID string) (*UserStats, error) {
	query := `SELECT user_id, login_count, last_login_at FROM user_stats WHERE user_id = ?`

	s := &UserStats{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.UserID, &s.LoginCount, &s.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("stats not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user stats: %w", err)
	}
	return s, nil
}
