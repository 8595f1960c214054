package loginlimit

import (
	"context"
	"sync"
	"time"
)

// memoryEntry tracks failures for one email. The window slides: every
// failure refreshes lastAttempt, and the record clears only once a full
// window passes with no failures at all.
type memoryEntry struct {
	attempts    int
	lastAttempt time.Time
}

// MemoryLimiter is an in-process Limiter for single-instance deployments
// and tests. State is lost on restart, which only ever errs in the user's
// favor.
type MemoryLimiter struct {
	mu          sync.Mutex
	entries     map[string]*memoryEntry
	maxAttempts int
	window      time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewMemoryLimiter creates a MemoryLimiter with the given policy.
func NewMemoryLimiter(maxAttempts int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		entries:     make(map[string]*memoryEntry),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Check reports whether a sign-in attempt for the email may proceed.
func (l *MemoryLimiter) Check(_ context.Context, email string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[email]
	if !ok {
		return Result{Allowed: true}, nil
	}

	elapsed := l.now().Sub(entry.lastAttempt)
	if elapsed >= l.window {
		// Window expired: evict and start fresh.
		delete(l.entries, email)
		return Result{Allowed: true}, nil
	}

	if entry.attempts >= l.maxAttempts {
		return Result{
			Allowed:          false,
			Attempts:         entry.attempts,
			RemainingMinutes: remainingMinutes(l.window - elapsed),
		}, nil
	}

	return Result{Allowed: true, Attempts: entry.attempts}, nil
}

// RecordFailure counts one failed attempt and restarts the window.
func (l *MemoryLimiter) RecordFailure(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[email]
	if !ok || now.Sub(entry.lastAttempt) >= l.window {
		l.entries[email] = &memoryEntry{attempts: 1, lastAttempt: now}
		return nil
	}

	entry.attempts++
	entry.lastAttempt = now
	return nil
}

// Reset clears the record for the email.
func (l *MemoryLimiter) Reset(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, email)
	return nil
}
