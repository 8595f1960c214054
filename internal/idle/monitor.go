package idle

import (
	"sync"
	"time"
)

// Monitor tracks inactivity per session with two thresholds: a warning
// (the user should be nudged) and a logout (the session should be ended).
// Each session is tracked from its first Touch; any later Touch restarts
// both countdowns. When the logout threshold fires the session is
// forgotten automatically.
type Monitor struct {
	mu       sync.Mutex
	sessions map[string]*monitorEntry
	closed   bool

	warnAfter   time.Duration
	logoutAfter time.Duration

	// Invoked from timer goroutines; must not block. Either may be nil.
	onWarning func(sessionID string)
	onLogout  func(sessionID string)
}

type monitorEntry struct {
	warnTimer   *time.Timer
	logoutTimer *time.Timer
}

// NewMonitor creates a Monitor. warnAfter must be shorter than
// logoutAfter for the warning to ever be useful, but this is not
// enforced.
func NewMonitor(warnAfter, logoutAfter time.Duration, onWarning, onLogout func(sessionID string)) *Monitor {
	return &Monitor{
		sessions:    make(map[string]*monitorEntry),
		warnAfter:   warnAfter,
		logoutAfter: logoutAfter,
		onWarning:   onWarning,
		onLogout:    onLogout,
	}
}

// Touch reports activity for a session, starting tracking on first sight
// and restarting both countdowns otherwise.
func (m *Monitor) Touch(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	if entry, ok := m.sessions[sessionID]; ok {
		entry.warnTimer.Reset(m.warnAfter)
		entry.logoutTimer.Reset(m.logoutAfter)
		return
	}

	m.sessions[sessionID] = &monitorEntry{
		warnTimer:   time.AfterFunc(m.warnAfter, func() { m.fireWarning(sessionID) }),
		logoutTimer: time.AfterFunc(m.logoutAfter, func() { m.fireLogout(sessionID) }),
	}
}

func (m *Monitor) fireWarning(sessionID string) {
	m.mu.Lock()
	_, ok := m.sessions[sessionID]
	cb := m.onWarning
	m.mu.Unlock()

	// The session may have been forgotten between the timer firing and
	// the lock being acquired.
	if ok && cb != nil {
		cb(sessionID)
	}
}

func (m *Monitor) fireLogout(sessionID string) {
	m.mu.Lock()
	entry, ok := m.sessions[sessionID]
	if ok {
		entry.warnTimer.Stop()
		delete(m.sessions, sessionID)
	}
	cb := m.onLogout
	m.mu.Unlock()

	if ok && cb != nil {
		cb(sessionID)
	}
}

// Forget stops tracking a session without firing callbacks. Called on
// explicit sign-out or session destruction.
func (m *Monitor) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.sessions[sessionID]; ok {
		entry.warnTimer.Stop()
		entry.logoutTimer.Stop()
		delete(m.sessions, sessionID)
	}
}

// Tracked reports whether a session is currently being tracked.
func (m *Monitor) Tracked(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	return ok
}

// Count returns the number of tracked sessions.
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops all tracking. The Monitor must not be used afterwards.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for id, entry := range m.sessions {
		entry.warnTimer.Stop()
		entry.logoutTimer.Stop()
		delete(m.sessions, id)
	}
}
