package main

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"
)

// NetMode is the current network role of the device.
type NetMode uint8

const (
	ModeOffline NetMode = iota
	ModeStation         // joined the configured home network
	ModeAccessPoint     // hosting the fallback provisioning network
)

func (m NetMode) String() string {
	switch m {
	case ModeStation:
		return "station"
	case ModeAccessPoint:
		return "access-point"
	}
	return "offline"
}

// Fallback access point credentials, fixed so the setup instructions can be
// printed on the device itself.
const (
	fallbackAPName = "pageflip-setup"
	fallbackAPPass = "turnthepage"
)

// stationConnectTimeout bounds the boot-time connection attempt.  The device
// blocks on it; past the bound it gives up and hosts the fallback AP.
const stationConnectTimeout = 10 * time.Second

// commandRunner abstracts the nmcli shell-outs so tests can fake them.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// NetworkManager drives WiFi provisioning through NetworkManager's nmcli.
// It is owned by the polling loop; mode transitions only happen at boot, so
// no locking is needed.
type NetworkManager struct {
	runner commandRunner
	logger *EventLogger
	mode   NetMode
	ssid   string
}

// NewNetworkManager returns a manager shelling out through runner.
func NewNetworkManager(runner commandRunner, logger *EventLogger) *NetworkManager {
	return &NetworkManager{runner: runner, logger: logger}
}

// BringUp attempts a station-mode connection with the stored credentials and
// falls back to hosting the fixed-credential access point.  Neither failure
// path is fatal: with no network at all the device still works as a local
// configuration portal.
func (nm *NetworkManager) BringUp(cfg Config) {
	if cfg.SSID != "" {
		err := nm.Connect(cfg.SSID, cfg.Password)
		if err == nil {
			nm.logger.Log("joined %q as station", cfg.SSID)
			return
		}
		nm.logger.Log("station connect to %q failed: %v", cfg.SSID, err)
	}
	if err := nm.StartAccessPoint(); err != nil {
		nm.logger.Log("fallback AP failed: %v", err)
		nm.mode = ModeOffline
		return
	}
	nm.logger.Log("hosting fallback AP %q", fallbackAPName)
}

// Connect joins ssid in station mode, bounded by stationConnectTimeout.
func (nm *NetworkManager) Connect(ssid, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), stationConnectTimeout)
	defer cancel()
	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	out, err := nm.runner.Run(ctx, "nmcli", args...)
	if err != nil {
		return fmt.Errorf("nmcli connect: %v (%s)", err, strings.TrimSpace(out))
	}
	nm.mode = ModeStation
	nm.ssid = ssid
	return nil
}

// StartAccessPoint hosts the fixed-credential provisioning network.
func (nm *NetworkManager) StartAccessPoint() error {
	ctx, cancel := context.WithTimeout(context.Background(), stationConnectTimeout)
	defer cancel()
	out, err := nm.runner.Run(ctx, "nmcli",
		"device", "wifi", "hotspot",
		"ssid", fallbackAPName, "password", fallbackAPPass)
	if err != nil {
		return fmt.Errorf("nmcli hotspot: %v (%s)", err, strings.TrimSpace(out))
	}
	nm.mode = ModeAccessPoint
	nm.ssid = fallbackAPName
	return nil
}

// Mode returns the current network role.
func (nm *NetworkManager) Mode() NetMode { return nm.mode }

// SSID returns the joined (or hosted) network name.
func (nm *NetworkManager) SSID() string { return nm.ssid }

// Connected reports whether outbound action requests may be sent: only in
// station mode does a KOReader target exist on the network.
func (nm *NetworkManager) Connected() bool { return nm.mode == ModeStation }

// DeviceIP returns the first non-loopback IPv4 address, for the status
// screen.  Empty when nothing is up.
func (nm *NetworkManager) DeviceIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}
