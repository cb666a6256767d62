package main

import (
	"testing"
	"time"
)

func testTimerConfig(shutdown, countdown uint32) Config {
	cfg := defaultConfig()
	cfg.AutoShutdownSecs = shutdown
	cfg.CountdownSecs = countdown
	return cfg
}

func TestIdleTimerPhases(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		shutdown  uint32
		countdown uint32
		idle      time.Duration
		phase     TimerPhase
		remaining int
	}{
		{"fresh", 300, 30, 0, PhaseActive, -1},
		{"just under window", 300, 30, 269 * time.Second, PhaseActive, -1},
		{"window entry", 300, 30, 270 * time.Second, PhaseCountdown, 30},
		{"mid window", 300, 30, 285 * time.Second, PhaseCountdown, 15},
		{"last second", 300, 30, 299 * time.Second, PhaseCountdown, 1},
		{"at shutdown", 300, 30, 300 * time.Second, PhaseOff, 0},
		{"past shutdown", 300, 30, 400 * time.Second, PhaseOff, 0},
		{"disabled never fires", 0, 30, 24 * time.Hour, PhaseActive, -1},
		// countdown >= shutdown is a misconfiguration; the window is
		// clamped so the countdown starts immediately.
		{"clamped window", 10, 60, 1 * time.Second, PhaseCountdown, 9},
		{"clamped window zero idle", 10, 60, 0, PhaseCountdown, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := NewIdleTimer(testTimerConfig(tt.shutdown, tt.countdown), start)
			res := tm.Tick(start.Add(tt.idle), true)
			if res.Phase != tt.phase {
				t.Fatalf("phase = %v, want %v", res.Phase, tt.phase)
			}
			if tt.phase == PhaseCountdown && res.Remaining != tt.remaining {
				t.Errorf("remaining = %d, want %d", res.Remaining, tt.remaining)
			}
		})
	}
}

func TestIdleTimerRemainingMatchesElapsed(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	tm := NewIdleTimer(testTimerConfig(300, 30), start)

	for d := 270; d < 300; d++ {
		res := tm.Tick(start.Add(time.Duration(d)*time.Second), true)
		if res.Phase != PhaseCountdown {
			t.Fatalf("idle %ds: phase = %v, want countdown", d, res.Phase)
		}
		if want := 300 - d; res.Remaining != want {
			t.Errorf("idle %ds: remaining = %d, want %d", d, res.Remaining, want)
		}
	}
}

func TestIdleTimerRedrawEdgeTriggered(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	tm := NewIdleTimer(testTimerConfig(300, 30), start)

	// Tick at 100 ms resolution across one countdown second: the remaining
	// value changes once, so exactly one tick asks for a redraw (and a beep).
	redraws, beeps := 0, 0
	for ms := 285_000; ms < 286_000; ms += 100 {
		res := tm.Tick(start.Add(time.Duration(ms)*time.Millisecond), true)
		if res.Redraw {
			redraws++
		}
		if res.Beep {
			beeps++
		}
	}
	if redraws != 1 {
		t.Errorf("redraws = %d, want 1", redraws)
	}
	if beeps != 1 {
		t.Errorf("beeps = %d, want 1", beeps)
	}
}

func TestIdleTimerCountdownBeepDisabled(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	cfg := testTimerConfig(300, 30)
	cfg.CountdownBeep = false
	tm := NewIdleTimer(cfg, start)

	res := tm.Tick(start.Add(280*time.Second), true)
	if !res.Redraw {
		t.Fatal("expected a redraw on countdown entry")
	}
	if res.Beep {
		t.Error("beep requested with countdown beeping disabled")
	}
}

func TestIdleTimerResetRestoresScreenState(t *testing.T) {
	tests := []struct {
		name     string
		screenOn bool
	}{
		{"screen was on", true},
		{"screen was off", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
			tm := NewIdleTimer(testTimerConfig(300, 30), start)

			res := tm.Tick(start.Add(275*time.Second), tt.screenOn)
			if res.Phase != PhaseCountdown || !res.ForceScreenOn {
				t.Fatalf("expected countdown with forced screen, got %+v", res)
			}
			if !tm.InCountdown() {
				t.Fatal("timer should report countdown")
			}

			restore, screenOn := tm.Reset(start.Add(276 * time.Second))
			if !restore {
				t.Fatal("reset during countdown must request a restore")
			}
			if screenOn != tt.screenOn {
				t.Errorf("restored screen state = %v, want %v", screenOn, tt.screenOn)
			}

			// Back to Active: the full window applies again from the reset.
			res = tm.Tick(start.Add(280*time.Second), true)
			if res.Phase != PhaseActive {
				t.Errorf("phase after reset = %v, want active", res.Phase)
			}
		})
	}
}

func TestIdleTimerResetOutsideCountdown(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	tm := NewIdleTimer(testTimerConfig(300, 30), start)

	restore, _ := tm.Reset(start.Add(10 * time.Second))
	if restore {
		t.Error("reset in active phase must not request a restore")
	}
}

func TestIdleTimerLastShownClearedOnReset(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	tm := NewIdleTimer(testTimerConfig(300, 30), start)

	if res := tm.Tick(start.Add(285*time.Second), true); !res.Redraw {
		t.Fatal("first countdown tick should redraw")
	}
	tm.Reset(start.Add(286 * time.Second))

	// Re-enter the countdown at the same remaining value: the redraw must
	// fire again because the reset cleared the last-shown sentinel.
	res := tm.Tick(start.Add(286*time.Second+285*time.Second), true)
	if res.Phase != PhaseCountdown {
		t.Fatalf("phase = %v, want countdown", res.Phase)
	}
	if !res.Redraw {
		t.Error("redraw suppressed after reset cleared the sentinel")
	}
}
