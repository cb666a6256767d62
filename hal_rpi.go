//go:build linux && arm && !disablegpio

package main

import (
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// Pin assignments, BCM numbering.  Buttons are wired to ground with the
// internal pull-up enabled, so a pressed button reads low.
const (
	pinButtonA     = "GPIO23"
	pinButtonB     = "GPIO24"
	pinButtonPower = "GPIO3"
	pinBuzzer      = "GPIO18"
)

const batteryCapacityPath = "/sys/class/power_supply/battery/capacity"

type periphHardware struct {
	buttons [buttonCount]gpio.PinIO
	buzzer  gpio.PinOut
}

// newHardware initialises periph host state, claims the button and buzzer
// pins and opens the I2C OLED.
func newHardware() (Hardware, Display, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph host init: %w", err)
	}
	hw := &periphHardware{}
	names := [buttonCount]string{pinButtonA, pinButtonB, pinButtonPower}
	for i, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, nil, fmt.Errorf("unknown pin %s", name)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, nil, fmt.Errorf("configure %s: %w", name, err)
		}
		hw.buttons[i] = p
	}
	bz := gpioreg.ByName(pinBuzzer)
	if bz == nil {
		return nil, nil, fmt.Errorf("unknown pin %s", pinBuzzer)
	}
	hw.buzzer = bz

	disp, err := newOLED()
	if err != nil {
		return nil, nil, err
	}
	return hw, disp, nil
}

func (hw *periphHardware) ReadButton(id ButtonID) bool {
	return hw.buttons[id].Read() == gpio.Low
}

// Beep drives the buzzer with a 2 kHz square wave for d.  Blocking is fine:
// confirmation beeps are tens of milliseconds.
func (hw *periphHardware) Beep(d time.Duration) {
	if err := hw.buzzer.PWM(gpio.DutyHalf, 2*physic.KiloHertz); err != nil {
		return
	}
	time.Sleep(d)
	_ = hw.buzzer.Halt()
}

// BatteryPercent reads the kernel fuel gauge, -1 when absent.
func (hw *periphHardware) BatteryPercent() int {
	data, err := os.ReadFile(batteryCapacityPath)
	if err != nil {
		return -1
	}
	pct, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pct < 0 || pct > 100 {
		return -1
	}
	return pct
}

func (hw *periphHardware) PowerOff() error {
	return exec.Command("systemctl", "poweroff").Run()
}

func (hw *periphHardware) Restart() error {
	return exec.Command("systemctl", "reboot").Run()
}

type oledDisplay struct {
	dev    *ssd1306.Dev
	bounds image.Rectangle
}

func newOLED() (*oledDisplay, error) {
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("ssd1306: %w", err)
	}
	return &oledDisplay{dev: dev, bounds: dev.Bounds()}, nil
}

// DrawText rasterises the text with the 7x13 basicfont onto a 1-bit frame
// and pushes it to the panel in one transfer.
func (d *oledDisplay) DrawText(text string) error {
	img := image1bit.NewVerticalLSB(d.bounds)
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range strings.Split(text, "\n") {
		drawer.Dot = fixed.P(0, 11+i*13)
		drawer.DrawString(line)
	}
	return d.dev.Draw(d.bounds, img, image.Point{})
}

// Sleep blanks the frame and zeroes the contrast.  The driver does not
// expose the panel's display-off command, and a black frame at zero contrast
// draws almost nothing.
func (d *oledDisplay) Sleep() error {
	if err := d.dev.Draw(d.bounds, image1bit.NewVerticalLSB(d.bounds), image.Point{}); err != nil {
		return err
	}
	return d.dev.SetContrast(0)
}

func (d *oledDisplay) Wake() error {
	return d.dev.SetContrast(0xff)
}
