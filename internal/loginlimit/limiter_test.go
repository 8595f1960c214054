package loginlimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newTestMemoryLimiter returns a MemoryLimiter with a manually advanced
// clock.
func newTestMemoryLimiter() (*MemoryLimiter, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(DefaultMaxAttempts, DefaultWindow)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestMemoryLimiter_AllowsFreshEmail(t *testing.T) {
	l, _ := newTestMemoryLimiter()

	res, err := l.Check(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed {
		t.Error("expected fresh email to be allowed")
	}
	if res.Attempts != 0 {
		t.Errorf("expected 0 attempts, got %d", res.Attempts)
	}
}

func TestMemoryLimiter_LocksAfterMaxAttempts(t *testing.T) {
	l, _ := newTestMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts-1; i++ {
		if err := l.RecordFailure(ctx, "alice@example.com"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
		res, _ := l.Check(ctx, "alice@example.com")
		if !res.Allowed {
			t.Fatalf("expected attempt %d to still be allowed", i+1)
		}
	}

	// The fifth failure crosses the threshold.
	if err := l.RecordFailure(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	res, err := l.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed {
		t.Error("expected lockout after max attempts")
	}
	if res.Attempts != DefaultMaxAttempts {
		t.Errorf("expected %d attempts, got %d", DefaultMaxAttempts, res.Attempts)
	}
	if res.RemainingMinutes != 15 {
		t.Errorf("expected 15 remaining minutes, got %d", res.RemainingMinutes)
	}
}

func TestMemoryLimiter_RemainingMinutesRoundsUp(t *testing.T) {
	l, now := newTestMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts; i++ {
		_ = l.RecordFailure(ctx, "alice@example.com")
	}

	// 30 seconds into the window: 14.5 minutes left rounds up to 15.
	*now = now.Add(30 * time.Second)
	res, _ := l.Check(ctx, "alice@example.com")
	if res.Allowed {
		t.Fatal("expected lockout")
	}
	if res.RemainingMinutes != 15 {
		t.Errorf("expected 15 remaining minutes, got %d", res.RemainingMinutes)
	}

	// 14 minutes in: 1 minute left.
	*now = now.Add(13*time.Minute + 30*time.Second)
	res, _ = l.Check(ctx, "alice@example.com")
	if res.RemainingMinutes != 1 {
		t.Errorf("expected 1 remaining minute, got %d", res.RemainingMinutes)
	}
}

func TestMemoryLimiter_WindowExpiryEvicts(t *testing.T) {
	l, now := newTestMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts; i++ {
		_ = l.RecordFailure(ctx, "alice@example.com")
	}

	// Exactly at the window boundary the lockout lifts.
	*now = now.Add(DefaultWindow)
	res, err := l.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed {
		t.Error("expected lockout to lift after the window elapses")
	}

	// The record was evicted, so a single new failure starts a fresh window.
	_ = l.RecordFailure(ctx, "alice@example.com")
	res, _ = l.Check(ctx, "alice@example.com")
	if !res.Allowed {
		t.Error("expected one failure in a fresh window to be allowed")
	}
	if res.Attempts != 1 {
		t.Errorf("expected 1 attempt in fresh window, got %d", res.Attempts)
	}
}

func TestMemoryLimiter_SlowFailuresStillLock(t *testing.T) {
	l, now := newTestMemoryLimiter()
	ctx := context.Background()

	// Five failures four minutes apart: never a full window of quiet,
	// so every one refreshes the window and the count accumulates.
	for i := 0; i < DefaultMaxAttempts; i++ {
		if i > 0 {
			*now = now.Add(4 * time.Minute)
		}
		if err := l.RecordFailure(ctx, "alice@example.com"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	res, err := l.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed {
		t.Fatal("expected paced failures to lock")
	}
	if res.Attempts != DefaultMaxAttempts {
		t.Errorf("expected %d attempts, got %d", DefaultMaxAttempts, res.Attempts)
	}

	// The lockout runs a full window from the last failure, not the first.
	*now = now.Add(14 * time.Minute)
	res, _ = l.Check(ctx, "alice@example.com")
	if res.Allowed {
		t.Error("expected lockout to hold 14 minutes after the last failure")
	}
	*now = now.Add(time.Minute)
	res, _ = l.Check(ctx, "alice@example.com")
	if !res.Allowed {
		t.Error("expected lockout to lift a full window after the last failure")
	}
}

func TestMemoryLimiter_ResetClearsLockout(t *testing.T) {
	l, _ := newTestMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts; i++ {
		_ = l.RecordFailure(ctx, "alice@example.com")
	}
	res, _ := l.Check(ctx, "alice@example.com")
	if res.Allowed {
		t.Fatal("expected lockout before reset")
	}

	if err := l.Reset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	res, _ = l.Check(ctx, "alice@example.com")
	if !res.Allowed {
		t.Error("expected reset to lift lockout immediately")
	}
	if res.Attempts != 0 {
		t.Errorf("expected 0 attempts after reset, got %d", res.Attempts)
	}
}

func TestMemoryLimiter_EmailsIndependent(t *testing.T) {
	l, _ := newTestMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts; i++ {
		_ = l.RecordFailure(ctx, "alice@example.com")
	}

	res, _ := l.Check(ctx, "bob@example.com")
	if !res.Allowed {
		t.Error("expected lockout on one email not to affect another")
	}
}

// --- Redis Limiter Tests ---

func newTestRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLimiter(rdb, DefaultMaxAttempts, DefaultWindow), mr
}

func TestRedisLimiter_LocksAfterMaxAttempts(t *testing.T) {
	l, _ := newTestRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts; i++ {
		res, err := l.Check(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("expected attempt %d to be allowed", i+1)
		}
		if err := l.RecordFailure(ctx, "alice@example.com"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	res, err := l.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Allowed {
		t.Error("expected lockout after max attempts")
	}
	if res.Attempts != DefaultMaxAttempts {
		t.Errorf("expected %d attempts, got %d", DefaultMaxAttempts, res.Attempts)
	}
	if res.RemainingMinutes != 15 {
		t.Errorf("expected 15 remaining minutes, got %d", res.RemainingMinutes)
	}
}

func TestRedisLimiter_WindowExpiryEvicts(t *testing.T) {
	l, mr := newTestRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts; i++ {
		_ = l.RecordFailure(ctx, "alice@example.com")
	}

	mr.FastForward(DefaultWindow)

	res, err := l.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Allowed {
		t.Error("expected lockout to lift after TTL expiry")
	}
}

func TestRedisLimiter_SlowFailuresStillLock(t *testing.T) {
	l, mr := newTestRedisLimiter(t)
	ctx := context.Background()

	// Failures paced slower than the window/maxAttempts rate but closer
	// together than a full window. Each one refreshes the TTL, so the
	// count keeps accumulating and the fifth locks.
	for i := 0; i < DefaultMaxAttempts; i++ {
		if i > 0 {
			mr.FastForward(4 * time.Minute)
		}
		if err := l.RecordFailure(ctx, "alice@example.com"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	res, err := l.Check(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Allowed {
		t.Fatal("expected paced failures to lock")
	}
	if res.Attempts != DefaultMaxAttempts {
		t.Errorf("expected %d attempts, got %d", DefaultMaxAttempts, res.Attempts)
	}
	// The window restarts at the last failure.
	if res.RemainingMinutes != 15 {
		t.Errorf("expected 15 remaining minutes, got %d", res.RemainingMinutes)
	}
}

func TestRedisLimiter_ResetClearsLockout(t *testing.T) {
	l, _ := newTestRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts; i++ {
		_ = l.RecordFailure(ctx, "alice@example.com")
	}

	if err := l.Reset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	res, _ := l.Check(ctx, "alice@example.com")
	if !res.Allowed {
		t.Error("expected reset to lift lockout immediately")
	}
}
