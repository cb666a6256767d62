package main

import (
	"fmt"
	"log"
	"time"
)

// Hardware is the device I/O the loop depends on.  hal.go provides a desktop
// stub, hal_rpi.go the periph.io implementation.
type Hardware interface {
	// ReadButton returns true while the button is physically pressed.
	ReadButton(id ButtonID) bool
	// Beep sounds the buzzer for d.  Blocking; callers keep d short.
	Beep(d time.Duration)
	// BatteryPercent reports charge 0-100, or -1 when unknown.
	BatteryPercent() int
	PowerOff() error
	Restart() error
}

// Display is the status panel.
type Display interface {
	DrawText(text string) error
	Sleep() error
	Wake() error
}

const (
	pollInterval = 10 * time.Millisecond
	// statusRefreshInterval throttles battery/IP sampling; the renderer
	// already suppresses identical redraws.
	statusRefreshInterval = 500 * time.Millisecond

	pressBeepLen     = 30 * time.Millisecond
	countdownBeepLen = 60 * time.Millisecond
)

// App owns all device state and runs the cooperative polling loop.  Except
// for the provisioning server goroutine (which mutates configuration only
// through the ConfigManager and then restarts the device), everything here
// is touched by the loop alone.
type App struct {
	cfgMgr   *ConfigManager
	hw       Hardware
	renderer *StatusRenderer
	buttons  *ButtonBank
	timer    *IdleTimer
	sender   *ActionSender
	net      *NetworkManager
	server   *ProvisioningServer
	logger   *EventLogger

	// shouldDisplay is the user's screen-on/off choice, toggled by the
	// power key.  The countdown warning overrides it.
	shouldDisplay bool
	screenOn      bool
	deviceIP      string
	lastStatusAt  time.Time

	now func() time.Time
}

// NewApp wires the components together.
func NewApp(cfgMgr *ConfigManager, hw Hardware, disp Display, logger *EventLogger) *App {
	a := &App{
		cfgMgr:        cfgMgr,
		hw:            hw,
		renderer:      NewStatusRenderer(disp),
		logger:        logger,
		shouldDisplay: true,
		screenOn:      true,
		now:           time.Now,
	}
	a.net = NewNetworkManager(execRunner{}, logger)
	a.buttons = NewButtonBank(hw)
	a.sender = NewActionSender(cfgMgr, a.net.Connected, logger)
	a.server = NewProvisioningServer(cfgMgr, logger, func() {
		logger.Log("restarting after configuration save")
		if err := hw.Restart(); err != nil {
			log.Printf("restart: %v", err)
		}
	})
	a.timer = NewIdleTimer(cfgMgr.Get(), a.now())
	return a
}

// Run brings the network up, starts the settings site and enters the polling
// loop.  It returns only on power-off (or a power-off failure).
func (a *App) Run() error {
	cfg := a.cfgMgr.Get()
	a.logger.Log("boot")
	a.net.BringUp(cfg)
	a.deviceIP = a.net.DeviceIP()

	go func() {
		if err := a.server.Start(provisioningAddr); err != nil {
			log.Printf("settings server: %v", err)
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for range ticker.C {
		halt, err := a.tick()
		if halt {
			return err
		}
	}
	return nil
}

// tick is one loop iteration: classify buttons, evaluate the idle timer,
// refresh the status screen and apply the screen power policy.
func (a *App) tick() (halt bool, err error) {
	now := a.now()
	cfg := a.cfgMgr.Get()

	for _, ev := range a.buttons.Poll(now) {
		a.handleEvent(ev, cfg)
	}

	res := a.timer.Tick(now, a.screenOn)
	switch res.Phase {
	case PhaseOff:
		a.logger.Log("idle timeout, powering off")
		if err := a.hw.PowerOff(); err != nil {
			return true, fmt.Errorf("power off: %w", err)
		}
		return true, nil
	case PhaseCountdown:
		if res.ForceScreenOn && !a.screenOn {
			a.setScreen(true)
		}
		if res.Beep {
			a.hw.Beep(countdownBeepLen)
		}
	}

	if res.Redraw || now.Sub(a.lastStatusAt) >= statusRefreshInterval {
		a.lastStatusAt = now
		countdown := -1
		if res.Phase == PhaseCountdown && cfg.CountdownOnScreen {
			countdown = res.Remaining
		}
		if a.screenOn {
			_ = a.renderer.Render(Status{
				Mode:       a.net.Mode(),
				SSID:       a.net.SSID(),
				APName:     fallbackAPName,
				APPass:     fallbackAPPass,
				DeviceIP:   a.deviceIP,
				TargetHost: cfg.TargetHost,
				TargetPort: cfg.TargetPort,
				Battery:    a.hw.BatteryPercent(),
				Countdown:  countdown,
			})
		}
	}

	if res.Phase != PhaseCountdown {
		want := a.shouldDisplay || cfg.KeepScreenOn
		if want != a.screenOn {
			a.setScreen(want)
		}
	}
	return false, nil
}

// handleEvent reacts to one classified button gesture.  Every gesture is
// activity and resets the idle timer; leaving a countdown restores the
// screen to its pre-countdown state.
func (a *App) handleEvent(ev ButtonEvent, cfg Config) {
	restore, wasOn := a.timer.Reset(a.now())
	if restore {
		a.shouldDisplay = wasOn
		a.setScreen(wasOn || cfg.KeepScreenOn)
	}

	switch ev.Kind {
	case EventPowerClick:
		a.shouldDisplay = !a.shouldDisplay
	case EventClick, EventHold:
		if !a.net.Connected() {
			return
		}
		if cfg.BeepOnPress {
			a.hw.Beep(pressBeepLen)
		}
		action := lookupAction(cfg, ev)
		a.logger.Log("button %s %s -> %s", ev.Button, ev.Kind, action)
		_ = a.sender.Send(action)
	}
}

// lookupAction resolves the configured action slot for a gesture.
func lookupAction(cfg Config, ev ButtonEvent) Action {
	if ev.Button == ButtonA {
		if ev.Kind == EventHold {
			return cfg.HoldActionA
		}
		return cfg.ClickActionA
	}
	if ev.Kind == EventHold {
		return cfg.HoldActionB
	}
	return cfg.ClickActionB
}

func (a *App) setScreen(on bool) {
	if on == a.screenOn {
		return
	}
	a.screenOn = on
	if on {
		_ = a.renderer.Wake()
	} else {
		_ = a.renderer.Sleep()
	}
}

func (k ButtonEventKind) String() string {
	switch k {
	case EventClick:
		return "click"
	case EventHold:
		return "hold"
	case EventPowerClick:
		return "power-click"
	}
	return "?"
}
