package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/warningbypass/warningweb/internal/apperror"
)

// StatsService exposes per-user counters. RecordLogin satisfies the auth
// plugin's StatsRecorder contract.
type StatsService interface {
	RecordLogin(ctx context.Context, userID string)
	Get(ctx context.Context, userID string) (*UserStats, error)
}

type statsService struct {
	repo StatsRepository
}

// NewStatsService creates a new stats service.
func NewStatsService(repo StatsRepository) StatsService {
	return &statsService{repo: repo}
}

// RecordLogin bumps the counter. Best-effort: failures never reach the
// login flow.
func (s *statsService) RecordLogin(ctx context.Context, userID string) {
	if err := s.repo.IncrementLogin(ctx, userID); err != nil {
		slog.Warn("login stat update failed", "user_id", userID, "error", err)
	}
}

// Get returns the user's counters. Users who have never logged in get a
// zero-valued record rather than a 404.
func (s *statsService) Get(ctx context.Context, userID string) (*UserStats, error) {
	stats, err := s.repo.Get(ctx, userID)
	if err != nil {
		if appErr, ok := err.(*apperror.AppError); ok && appErr.Code == http.StatusNotFound {
			return &UserStats{UserID: userID}, nil
		}
		return nil, apperror.NewInternal(err)
	}
	return stats, nil
}
