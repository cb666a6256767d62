package main

import (
	"fmt"
	"strings"
)

// Status is everything the status screen shows.
type Status struct {
	Mode     NetMode
	SSID     string // joined network, station mode
	APName   string // fallback access point credentials
	APPass   string
	DeviceIP string

	TargetHost string
	TargetPort uint16

	Battery int // percent, -1 when the hardware cannot report it

	// Countdown is the seconds-to-power-off warning, -1 outside the
	// countdown window.
	Countdown int
}

// StatusRenderer paints status text to the display, skipping the write when
// nothing changed.  The panel is slow and visibly flashes on a full redraw,
// so every tick-level caller goes through here.
type StatusRenderer struct {
	disp Display
	last string
}

// NewStatusRenderer wraps disp.
func NewStatusRenderer(disp Display) *StatusRenderer {
	return &StatusRenderer{disp: disp}
}

// Render draws st if its text differs from the previously drawn text.
func (r *StatusRenderer) Render(st Status) error {
	text := buildStatusText(st)
	if text == r.last {
		return nil
	}
	if err := r.disp.DrawText(text); err != nil {
		return err
	}
	r.last = text
	return nil
}

// Sleep blanks the panel.
func (r *StatusRenderer) Sleep() error {
	return r.disp.Sleep()
}

// Wake powers the panel back up and forgets the last drawn text so the next
// Render repaints unconditionally.
func (r *StatusRenderer) Wake() error {
	r.last = ""
	return r.disp.Wake()
}

// buildStatusText formats the multi-line status screen.
func buildStatusText(st Status) string {
	var b strings.Builder
	switch st.Mode {
	case ModeStation:
		fmt.Fprintf(&b, "WiFi: %s\n", st.SSID)
		fmt.Fprintf(&b, "IP: %s\n", st.DeviceIP)
	case ModeAccessPoint:
		fmt.Fprintf(&b, "Setup AP: %s\n", st.APName)
		fmt.Fprintf(&b, "Pass: %s\n", st.APPass)
		fmt.Fprintf(&b, "IP: %s\n", st.DeviceIP)
	default:
		b.WriteString("WiFi: offline\n")
	}
	fmt.Fprintf(&b, "Target: %s:%d\n", st.TargetHost, st.TargetPort)
	if st.Battery >= 0 {
		fmt.Fprintf(&b, "Batt: %d%%\n", st.Battery)
	}
	if st.Countdown >= 0 {
		fmt.Fprintf(&b, "Off in %ds\n", st.Countdown)
	}
	return strings.TrimRight(b.String(), "\n")
}
