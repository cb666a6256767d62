package main

import "time"

// TimerPhase is the idle timer's current phase.
type TimerPhase uint8

const (
	// PhaseActive: recent activity, nothing to do.
	PhaseActive TimerPhase = iota
	// PhaseCountdown: the power-off warning window is running.
	PhaseCountdown
	// PhaseOff: idle long enough, the device must power off.  Terminal.
	PhaseOff
)

// TickResult is what a single evaluation of the idle timer asks the caller
// to do.
type TickResult struct {
	Phase TimerPhase

	// Remaining is the whole seconds left until power-off.  Only meaningful
	// in PhaseCountdown.
	Remaining int

	// Redraw is true when Remaining differs from the last value handed out,
	// so the caller repaints once per second instead of once per tick.
	Redraw bool

	// Beep is true on the same edges as Redraw when countdown beeping is
	// enabled.
	Beep bool

	// ForceScreenOn is set throughout the countdown: the warning overrides
	// the normal screen-off policy.
	ForceScreenOn bool
}

// IdleTimer tracks the time since the last user activity and drives the
// Active -> Countdown -> PowerOff progression.  It is owned by the polling
// loop and holds no locks.
type IdleTimer struct {
	shutdownAfter time.Duration
	warnWindow    time.Duration
	countdownBeep bool

	lastActivity time.Time
	inCountdown  bool
	screenWasOn  bool
	lastShown    int // -1 until the first countdown value is handed out
}

// NewIdleTimer builds a timer from the configured timings.  A countdown
// window at least as long as the shutdown delay is a misconfiguration; it is
// clamped so the countdown simply starts immediately instead of the window
// arithmetic going negative.
func NewIdleTimer(cfg Config, now time.Time) *IdleTimer {
	shutdown := time.Duration(cfg.AutoShutdownSecs) * time.Second
	warn := time.Duration(cfg.CountdownSecs) * time.Second
	if warn > shutdown {
		warn = shutdown
	}
	return &IdleTimer{
		shutdownAfter: shutdown,
		warnWindow:    warn,
		countdownBeep: cfg.CountdownBeep,
		lastActivity:  now,
		lastShown:     -1,
	}
}

// Reset records user activity, returning the timer to Active from any phase.
// When it interrupts a running countdown, restore is true and screenOn
// reports the screen state latched at countdown entry so the caller can put
// the screen back exactly as it was.
func (t *IdleTimer) Reset(now time.Time) (restore bool, screenOn bool) {
	restore = t.inCountdown
	screenOn = t.screenWasOn
	t.inCountdown = false
	t.lastActivity = now
	t.lastShown = -1
	return restore, screenOn
}

// Tick evaluates the timer.  screenOn is the current screen state, latched
// on the tick that enters the countdown.
func (t *IdleTimer) Tick(now time.Time, screenOn bool) TickResult {
	if t.shutdownAfter == 0 {
		// Auto-shutdown disabled.
		return TickResult{Phase: PhaseActive, Remaining: -1}
	}
	elapsed := now.Sub(t.lastActivity)
	if elapsed >= t.shutdownAfter {
		return TickResult{Phase: PhaseOff}
	}
	if elapsed < t.shutdownAfter-t.warnWindow {
		return TickResult{Phase: PhaseActive, Remaining: -1}
	}

	if !t.inCountdown {
		t.inCountdown = true
		t.screenWasOn = screenOn
	}
	res := TickResult{Phase: PhaseCountdown, ForceScreenOn: true}
	left := t.shutdownAfter - elapsed
	// Round up so the display runs warnWindow..1 and never shows 0 while
	// the device is still on.
	res.Remaining = int((left + time.Second - 1) / time.Second)
	if res.Remaining != t.lastShown {
		t.lastShown = res.Remaining
		res.Redraw = true
		res.Beep = t.countdownBeep
	}
	return res
}

// InCountdown reports whether the warning window is currently running.
func (t *IdleTimer) InCountdown() bool {
	return t.inCountdown
}
