package main

// Action enumerates the logical commands a button event can be mapped to.
// The values double as indices into the URL path table in actions.go and as
// the persisted on-disk representation, so the order must not change.
type Action uint8

const (
	ActionPrevPage Action = iota
	ActionNextPage
	ActionFullRefresh
	ActionToggleLight

	actionCount = 4
)

// String returns the stable identifier used in the settings form and the
// event log.
func (a Action) String() string {
	switch a {
	case ActionPrevPage:
		return "prev"
	case ActionNextPage:
		return "next"
	case ActionFullRefresh:
		return "refresh"
	case ActionToggleLight:
		return "light"
	}
	return "unknown"
}

// Label returns the human-readable name shown in the settings dropdowns.
func (a Action) Label() string {
	switch a {
	case ActionPrevPage:
		return "Previous page"
	case ActionNextPage:
		return "Next page"
	case ActionFullRefresh:
		return "Full refresh"
	case ActionToggleLight:
		return "Toggle frontlight"
	}
	return "Unknown"
}

// parseAction maps a settings-form value back to an Action.  Unrecognised
// values fall back to NextPage rather than failing the save.
func parseAction(s string) Action {
	switch s {
	case "prev":
		return ActionPrevPage
	case "next":
		return ActionNextPage
	case "refresh":
		return ActionFullRefresh
	case "light":
		return ActionToggleLight
	}
	return ActionNextPage
}

// Maximum stored lengths.  These match the fixed byte arrays in the persisted
// record; longer form input is truncated, not rejected.
const (
	maxSSIDLen     = 31
	maxPasswordLen = 63
	maxHostLen     = 15
)

// Config is the device configuration.  A single instance is owned by the
// ConfigManager; it is read by the polling loop and mutated only by the
// provisioning server's save handler.
type Config struct {
	SSID     string // WiFi network to join in station mode
	Password string

	TargetHost string // KOReader host, IPv4 literal
	TargetPort uint16

	ClickActionA Action
	HoldActionA  Action
	ClickActionB Action
	HoldActionB  Action

	KeepScreenOn bool
	BeepOnPress  bool

	AutoShutdownSecs  uint32 // 0 disables the idle timer
	CountdownSecs     uint32
	CountdownOnScreen bool
	CountdownBeep     bool
}

// defaultConfig returns the built-in configuration used on first boot or when
// the persisted record fails its validity check.
func defaultConfig() Config {
	return Config{
		TargetHost:        "192.168.1.100",
		TargetPort:        8080,
		ClickActionA:      ActionNextPage,
		HoldActionA:       ActionFullRefresh,
		ClickActionB:      ActionPrevPage,
		HoldActionB:       ActionToggleLight,
		BeepOnPress:       true,
		AutoShutdownSecs:  300,
		CountdownSecs:     30,
		CountdownOnScreen: true,
		CountdownBeep:     true,
	}
}

// clamp enforces the stored field bounds in place.  String fields are
// truncated to their fixed record capacity and the countdown window is kept
// at least one second wide when auto-shutdown is enabled.
func (c *Config) clamp() {
	c.SSID = truncate(c.SSID, maxSSIDLen)
	c.Password = truncate(c.Password, maxPasswordLen)
	c.TargetHost = truncate(c.TargetHost, maxHostLen)
	if c.AutoShutdownSecs > 0 && c.CountdownSecs == 0 {
		c.CountdownSecs = 1
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
