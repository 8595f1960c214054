package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/warningbypass/warningweb/internal/apperror"
)

type mockRepo struct {
	incrementLoginFunc func(ctx context.Context, userID string) error
	getFunc            func(ctx context.Context, userID string) (*UserStats, error)
}

func (m *mockRepo) IncrementLogin(ctx context.Context, userID string) error {
	if m.incrementLoginFunc != nil {
		return m.incrementLoginFunc(ctx, userID)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, userID string) (*UserStats, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID)
	}
	return nil, apperror.NewNotFound("stats not found")
}

func TestRecordLoginSwallowsErrors(t *testing.T) {
	repo := &mockRepo{
		incrementLoginFunc: func(ctx context.Context, userID string) error {
			return errors.New("db down")
		},
	}
	svc := NewStatsService(repo)

	// Must not panic; stats are best-effort.
	svc.RecordLogin(context.Background(), "user-1")
}

func TestGetMissingReturnsZeroRecord(t *testing.T) {
	svc := NewStatsService(&mockRepo{})

	stats, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stats.UserID != "user-1" || stats.LoginCount != 0 {
		t.Errorf("expected zero-valued record, got %+v", stats)
	}
}

func TestGetExisting(t *testing.T) {
	repo := &mockRepo{
		getFunc: func(ctx context.Context, userID string) (*UserStats, error) {
			return &UserStats{UserID: userID, LoginCount: 7}, nil
		},
	}
	svc := NewStatsService(repo)

	stats, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stats.LoginCount != 7 {
		t.Errorf("expected login count 7, got %d", stats.LoginCount)
	}
}
