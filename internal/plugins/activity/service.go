package activity

import (
	"context"
	"log/slog"

	"github.com/warningbypass/warningweb/internal/apperror"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ActivityService records and lists activity log entries. Record satisfies
// the auth plugin's ActivityRecorder contract.
type ActivityService interface {
	Record(ctx context.Context, userID, action string, details map[string]any)
	ListForUser(ctx context.Context, userID string, limit int) ([]*Entry, error)
}

type activityService struct {
	repo ActivityRepository
}

// NewActivityService creates a new activity service.
func NewActivityService(repo ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

// Record appends an entry. An empty userID records an anonymous event.
// Insert failures are logged and swallowed: the activity log must never
// break the flow being recorded.
func (s *activityService) Record(ctx context.Context, userID, action string, details map[string]any) {
	var uid *string
	if userID != "" {
		uid = &userID
	}
	if err := s.repo.Insert(ctx, uid, action, details); err != nil {
		slog.Warn("activity record failed", "action", action, "error", err)
	}
}

// ListForUser returns the user's recent activity, newest first. A limit
// of 0 means the default page size; anything above the cap is clamped.
func (s *activityService) ListForUser(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	} else if limit > maxListLimit {
		limit = maxListLimit
	}

	entries, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return entries, nil
}
