//go:build !linux || !arm || disablegpio

package main

import (
	"log"
	"strings"
	"time"
)

// This file is the desktop stub of the hardware layer.  It lets the polling
// loop and the provisioning server run on a development machine with no
// buttons, buzzer or OLED attached.  The real implementation lives in
// hal_rpi.go behind a build tag.

type stubHardware struct{}

// newHardware returns the stub hardware and display pair.
func newHardware() (Hardware, Display, error) {
	return stubHardware{}, stubDisplay{}, nil
}

func (stubHardware) ReadButton(ButtonID) bool { return false }

func (stubHardware) Beep(time.Duration) {}

func (stubHardware) BatteryPercent() int { return -1 }

func (stubHardware) PowerOff() error {
	log.Println("stub: power off")
	return nil
}

func (stubHardware) Restart() error {
	log.Println("stub: restart")
	return nil
}

type stubDisplay struct{}

func (stubDisplay) DrawText(text string) error {
	log.Printf("stub display:\n  %s", strings.ReplaceAll(text, "\n", "\n  "))
	return nil
}

func (stubDisplay) Sleep() error { return nil }
func (stubDisplay) Wake() error  { return nil }
