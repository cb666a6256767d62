package main

import "time"

// ButtonID addresses one of the physical inputs.
type ButtonID uint8

const (
	ButtonA ButtonID = iota
	ButtonB
	ButtonPower

	buttonCount = 3
)

func (b ButtonID) String() string {
	switch b {
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	case ButtonPower:
		return "power"
	}
	return "?"
}

// ButtonEventKind classifies a finished button gesture.
type ButtonEventKind uint8

const (
	// EventClick: pressed and released under the hold threshold.
	EventClick ButtonEventKind = iota
	// EventHold: held past the threshold; fires once while still pressed.
	EventHold
	// EventPowerClick: a short press of the power key.
	EventPowerClick
)

// ButtonEvent is one classified gesture.
type ButtonEvent struct {
	Button ButtonID
	Kind   ButtonEventKind
}

const (
	// holdThreshold splits a press into click vs hold.
	holdThreshold = 500 * time.Millisecond
	// powerClickMax: a power-key press at or past this is the hardware
	// power-on chord, never a click.
	powerClickMax = 500 * time.Millisecond
	// debounceWindow suppresses contact bounce around an edge.
	debounceWindow = 20 * time.Millisecond
)

type buttonState struct {
	pressed   bool
	changedAt time.Time // last accepted edge, for debounce
	pressedAt time.Time
	holdFired bool
}

// ButtonBank polls the three physical inputs and turns raw levels into
// click/hold events.  The power key gets its own edge-based classifier
// because the press that powered the device on must not surface as a click:
// any button already down on the very first poll is swallowed until it has
// been released once.
type ButtonBank struct {
	hw     Hardware
	states [buttonCount]buttonState
	primed bool
}

// NewButtonBank returns a bank reading raw levels from hw.
func NewButtonBank(hw Hardware) *ButtonBank {
	return &ButtonBank{hw: hw}
}

// Poll samples all buttons and returns the gestures completed on this tick.
func (bb *ButtonBank) Poll(now time.Time) []ButtonEvent {
	if !bb.primed {
		bb.prime(now)
		return nil
	}
	var events []ButtonEvent
	for id := ButtonID(0); id < buttonCount; id++ {
		raw := bb.hw.ReadButton(id)
		if ev, ok := bb.step(id, raw, now); ok {
			events = append(events, ev)
		}
	}
	return events
}

// prime seeds the edge detectors from the current raw levels without
// emitting events.  A power key still held from the power-on long-press is
// marked as already past the hold stage, so its release classifies as
// nothing rather than a spurious click that would immediately blank the
// screen.
func (bb *ButtonBank) prime(now time.Time) {
	for id := ButtonID(0); id < buttonCount; id++ {
		s := &bb.states[id]
		s.pressed = bb.hw.ReadButton(id)
		s.changedAt = now
		if s.pressed {
			s.pressedAt = now
			s.holdFired = true
		}
	}
	bb.primed = true
}

func (bb *ButtonBank) step(id ButtonID, raw bool, now time.Time) (ButtonEvent, bool) {
	s := &bb.states[id]
	if raw != s.pressed {
		if now.Sub(s.changedAt) < debounceWindow {
			// Bounce; ignore until the level has been stable.
			return ButtonEvent{}, false
		}
		s.changedAt = now
		s.pressed = raw
		if raw {
			s.pressedAt = now
			s.holdFired = false
			return ButtonEvent{}, false
		}
		return bb.classifyRelease(id, s, now)
	}
	// Level held: normal buttons fire their hold event as soon as the
	// threshold is crossed, without waiting for the release.
	if raw && id != ButtonPower && !s.holdFired && now.Sub(s.pressedAt) >= holdThreshold {
		s.holdFired = true
		return ButtonEvent{Button: id, Kind: EventHold}, true
	}
	return ButtonEvent{}, false
}

func (bb *ButtonBank) classifyRelease(id ButtonID, s *buttonState, now time.Time) (ButtonEvent, bool) {
	held := now.Sub(s.pressedAt)
	if id == ButtonPower {
		if !s.holdFired && held < powerClickMax {
			return ButtonEvent{Button: id, Kind: EventPowerClick}, true
		}
		s.holdFired = false
		return ButtonEvent{}, false
	}
	if !s.holdFired && held < holdThreshold {
		return ButtonEvent{Button: id, Kind: EventClick}, true
	}
	return ButtonEvent{}, false
}
