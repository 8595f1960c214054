package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// ActivityRepository defines data access for the activity log.
type ActivityRepository interface {
	Insert(ctx context.Context, userID *string, action string, details map[string]any) error

	// ListByUser returns the newest entries for a user, capped at limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Entry, error)
}

type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates an activity repository backed by the given DB pool.
func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Insert(ctx context.Context, userID *string, action string, details map[string]any) error {
	var detailsJSON any
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encoding details: %w", err)
		}
		detailsJSON = string(raw)
	}

	query := `INSERT INTO activity_log (user_id, action, details, created_at) VALUES (?, ?, ?, NOW())`
	if _, err := r.db.ExecContext(ctx, query, userID, action, detailsJSON); err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}
	return nil
}

func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	query := `SELECT id, user_id, action, details, created_at
	          FROM activity_log WHERE user_id = ?
	          ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying activity log: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var detailsJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &detailsJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			// Unreadable details are dropped rather than failing the list.
			_ = json.Unmarshal([]byte(detailsJSON.String), &e.Details)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
