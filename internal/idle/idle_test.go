package idle

import (
	"sync/atomic"
	"testing"
	"time"
)

// Timings are generous multiples so the tests stay reliable on loaded CI
// machines.

func TestTimer_FiresOnceAfterTimeout(t *testing.T) {
	var idleCount atomic.Int32
	timer := NewTimer(50*time.Millisecond, func() { idleCount.Add(1) }, nil)
	defer timer.Stop()

	time.Sleep(150 * time.Millisecond)
	if got := idleCount.Load(); got != 1 {
		t.Errorf("expected onIdle to fire exactly once, fired %d times", got)
	}
	if !timer.Idle() {
		t.Error("expected timer to report idle")
	}
}

func TestTimer_ActivityDefersIdle(t *testing.T) {
	var idleCount atomic.Int32
	timer := NewTimer(100*time.Millisecond, func() { idleCount.Add(1) }, nil)
	defer timer.Stop()

	// Keep reporting activity; the timer must never go idle.
	for i := 0; i < 5; i++ {
		time.Sleep(40 * time.Millisecond)
		timer.Activity()
	}
	if got := idleCount.Load(); got != 0 {
		t.Errorf("expected no idle transition while active, fired %d times", got)
	}

	// Stop touching it and it fires.
	time.Sleep(250 * time.Millisecond)
	if got := idleCount.Load(); got != 1 {
		t.Errorf("expected 1 idle transition after activity stopped, got %d", got)
	}
}

func TestTimer_ActiveAgainFiresOnResume(t *testing.T) {
	var activeCount atomic.Int32
	timer := NewTimer(50*time.Millisecond, nil, func() { activeCount.Add(1) })
	defer timer.Stop()

	time.Sleep(150 * time.Millisecond)

	// First activity after going idle fires onActive; the second does not.
	timer.Activity()
	timer.Activity()
	if got := activeCount.Load(); got != 1 {
		t.Errorf("expected onActive to fire exactly once, fired %d times", got)
	}
	if timer.Idle() {
		t.Error("expected timer to report active after Activity")
	}
}

func TestTimer_StopPreventsFiring(t *testing.T) {
	var idleCount atomic.Int32
	timer := NewTimer(50*time.Millisecond, func() { idleCount.Add(1) }, nil)
	timer.Stop()

	time.Sleep(150 * time.Millisecond)
	if got := idleCount.Load(); got != 0 {
		t.Errorf("expected no callbacks after Stop, fired %d times", got)
	}
}

func TestMonitor_WarningThenLogout(t *testing.T) {
	var warned, loggedOut atomic.Int32
	m := NewMonitor(50*time.Millisecond, 150*time.Millisecond,
		func(string) { warned.Add(1) },
		func(string) { loggedOut.Add(1) },
	)
	defer m.Close()

	m.Touch("sess-1")

	time.Sleep(100 * time.Millisecond)
	if warned.Load() != 1 {
		t.Errorf("expected 1 warning, got %d", warned.Load())
	}
	if loggedOut.Load() != 0 {
		t.Errorf("expected no logout yet, got %d", loggedOut.Load())
	}

	time.Sleep(150 * time.Millisecond)
	if loggedOut.Load() != 1 {
		t.Errorf("expected 1 logout, got %d", loggedOut.Load())
	}
	if m.Tracked("sess-1") {
		t.Error("expected session to be forgotten after logout")
	}
}

func TestMonitor_TouchRestartsCountdowns(t *testing.T) {
	var warned atomic.Int32
	m := NewMonitor(100*time.Millisecond, time.Hour,
		func(string) { warned.Add(1) },
		nil,
	)
	defer m.Close()

	m.Touch("sess-1")
	for i := 0; i < 5; i++ {
		time.Sleep(40 * time.Millisecond)
		m.Touch("sess-1")
	}
	if warned.Load() != 0 {
		t.Errorf("expected no warning while session is active, got %d", warned.Load())
	}

	time.Sleep(250 * time.Millisecond)
	if warned.Load() != 1 {
		t.Errorf("expected 1 warning after activity stopped, got %d", warned.Load())
	}
}

func TestMonitor_ForgetSuppressesCallbacks(t *testing.T) {
	var warned, loggedOut atomic.Int32
	m := NewMonitor(50*time.Millisecond, 100*time.Millisecond,
		func(string) { warned.Add(1) },
		func(string) { loggedOut.Add(1) },
	)
	defer m.Close()

	m.Touch("sess-1")
	m.Forget("sess-1")

	time.Sleep(250 * time.Millisecond)
	if warned.Load() != 0 || loggedOut.Load() != 0 {
		t.Errorf("expected no callbacks after Forget, got warned=%d loggedOut=%d",
			warned.Load(), loggedOut.Load())
	}
	if m.Count() != 0 {
		t.Errorf("expected no tracked sessions, got %d", m.Count())
	}
}

func TestMonitor_SessionsIndependent(t *testing.T) {
	var loggedOut atomic.Int32
	m := NewMonitor(20*time.Millisecond, 50*time.Millisecond,
		nil,
		func(string) { loggedOut.Add(1) },
	)
	defer m.Close()

	m.Touch("sess-1")
	m.Touch("sess-2")
	m.Forget("sess-2")

	time.Sleep(150 * time.Millisecond)
	if loggedOut.Load() != 1 {
		t.Errorf("expected exactly 1 logout, got %d", loggedOut.Load())
	}
}

func TestMonitor_CloseStopsEverything(t *testing.T) {
	var fired atomic.Int32
	m := NewMonitor(30*time.Millisecond, 60*time.Millisecond,
		func(string) { fired.Add(1) },
		func(string) { fired.Add(1) },
	)

	m.Touch("sess-1")
	m.Touch("sess-2")
	m.Close()

	time.Sleep(150 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("expected no callbacks after Close, fired %d times", fired.Load())
	}
}
