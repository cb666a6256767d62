package main

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"
)

// provisioningAddr is where the settings site listens, in both station and
// access-point mode.
const provisioningAddr = ":80"

// restartDelay gives the confirmation page time to reach the browser before
// the device reboots with the new settings.
const restartDelay = time.Second

// ProvisioningServer serves the settings form and its save endpoint.  It is
// deliberately unauthenticated: anyone who can reach the device's HTTP port
// may reconfigure it, which is the point of the fallback access point.
type ProvisioningServer struct {
	cfgMgr  *ConfigManager
	logger  *EventLogger
	restart func()
	tmpl    *template.Template
}

// NewProvisioningServer wires the server to the live configuration.  restart
// is invoked (after restartDelay) once a save has been persisted.
func NewProvisioningServer(cfgMgr *ConfigManager, logger *EventLogger, restart func()) *ProvisioningServer {
	return &ProvisioningServer{
		cfgMgr:  cfgMgr,
		logger:  logger,
		restart: restart,
		tmpl:    template.Must(template.New("settings").Parse(settingsPage)),
	}
}

// Handler returns the route table; split out so tests can drive it through
// httptest without binding a port.
func (s *ProvisioningServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/save", s.handleSave)
	return mux
}

// Start runs the HTTP server.  It blocks; the App launches it on its own
// goroutine.
func (s *ProvisioningServer) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Printf("settings site on http://0.0.0.0%s\n", addr)
	return srv.ListenAndServe()
}

// actionOption is one dropdown entry, pre-marked for the current config.
type actionOption struct {
	Value    string
	Label    string
	Selected bool
}

func actionOptions(current Action) []actionOption {
	opts := make([]actionOption, 0, actionCount)
	for a := Action(0); a < actionCount; a++ {
		opts = append(opts, actionOption{
			Value:    a.String(),
			Label:    a.Label(),
			Selected: a == current,
		})
	}
	return opts
}

type settingsView struct {
	Cfg    Config
	AClick []actionOption
	AHold  []actionOption
	BClick []actionOption
	BHold  []actionOption
}

func (s *ProvisioningServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfgMgr.Get()
	view := settingsView{
		Cfg:    cfg,
		AClick: actionOptions(cfg.ClickActionA),
		AHold:  actionOptions(cfg.HoldActionA),
		BClick: actionOptions(cfg.ClickActionB),
		BHold:  actionOptions(cfg.HoldActionB),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, view); err != nil {
		log.Printf("render settings: %v", err)
	}
}

// handleSave copies the submitted form into the configuration, persists it
// and schedules a restart.  Input handling is forgiving on purpose: strings
// are truncated to their stored capacity and non-numeric numbers become 0.
// No validation error is ever surfaced.
func (s *ProvisioningServer) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	err := s.cfgMgr.Update(func(c *Config) error {
		c.SSID = r.Form.Get("ssid")
		c.Password = r.Form.Get("password")
		c.TargetHost = r.Form.Get("koReaderIP")
		c.TargetPort = portOrZero(r.Form.Get("koReaderPort"))
		c.ClickActionA = parseAction(r.Form.Get("aClickAction"))
		c.HoldActionA = parseAction(r.Form.Get("aHoldAction"))
		c.ClickActionB = parseAction(r.Form.Get("bClickAction"))
		c.HoldActionB = parseAction(r.Form.Get("bHoldAction"))
		c.KeepScreenOn = r.Form.Get("keepScreenOn") != ""
		c.BeepOnPress = r.Form.Get("beepOnPress") != ""
		c.AutoShutdownSecs = uint32(uintOrZero(r.Form.Get("autoShutdownSeconds")))
		c.CountdownSecs = uint32(uintOrZero(r.Form.Get("countdownSeconds")))
		c.CountdownOnScreen = r.Form.Get("countdownOnScreen") != ""
		c.CountdownBeep = r.Form.Get("countdownBeep") != ""
		return nil
	})
	if err != nil {
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	s.logger.Log("configuration saved, restarting")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, savedPage)
	time.AfterFunc(restartDelay, s.restart)
}

// uintOrZero parses a decimal field, with any malformed or negative input
// collapsing to 0.
func uintOrZero(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return v
}

// portOrZero parses a TCP port the same way; out-of-range values also become
// 0 rather than rejecting the save.
func portOrZero(s string) uint16 {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}

const settingsPage = `<!DOCTYPE html>
<html>
<head>
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>pageflip settings</title>
<style>
body{font-family:sans-serif;max-width:28em;margin:1em auto;padding:0 1em}
fieldset{margin-bottom:1em;border:1px solid #bbb;border-radius:4px}
label{display:block;margin:.5em 0 .15em;font-size:.9em}
input[type=text],input[type=password],input[type=number],select{width:100%;padding:.35em}
.check label{display:inline;margin:0 .3em 0 0}
button{padding:.5em 1.5em;font-size:1em}
</style>
</head>
<body>
<h2>pageflip settings</h2>
<form method="POST" action="/save">
<fieldset><legend>WiFi</legend>
<label>Network name</label>
<input type="text" name="ssid" maxlength="31" value="{{.Cfg.SSID}}">
<label>Password</label>
<input type="password" name="password" maxlength="63" value="{{.Cfg.Password}}">
</fieldset>
<fieldset><legend>KOReader target</legend>
<label>IP address</label>
<input type="text" name="koReaderIP" maxlength="15" value="{{.Cfg.TargetHost}}">
<label>Port</label>
<input type="number" name="koReaderPort" value="{{.Cfg.TargetPort}}">
</fieldset>
<fieldset><legend>Buttons</legend>
<label>Button A click</label>
<select name="aClickAction">{{range .AClick}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>
<label>Button A hold</label>
<select name="aHoldAction">{{range .AHold}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>
<label>Button B click</label>
<select name="bClickAction">{{range .BClick}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>
<label>Button B hold</label>
<select name="bHoldAction">{{range .BHold}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>
<p class="check"><input type="checkbox" name="beepOnPress"{{if .Cfg.BeepOnPress}} checked{{end}}><label>Beep on press</label></p>
</fieldset>
<fieldset><legend>Screen &amp; power</legend>
<p class="check"><input type="checkbox" name="keepScreenOn"{{if .Cfg.KeepScreenOn}} checked{{end}}><label>Keep screen always on</label></p>
<label>Auto shutdown (seconds, 0 = never)</label>
<input type="number" name="autoShutdownSeconds" value="{{.Cfg.AutoShutdownSecs}}">
<label>Countdown warning (seconds)</label>
<input type="number" name="countdownSeconds" value="{{.Cfg.CountdownSecs}}">
<p class="check"><input type="checkbox" name="countdownOnScreen"{{if .Cfg.CountdownOnScreen}} checked{{end}}><label>Show countdown on screen</label></p>
<p class="check"><input type="checkbox" name="countdownBeep"{{if .Cfg.CountdownBeep}} checked{{end}}><label>Beep during countdown</label></p>
</fieldset>
<button type="submit">Save &amp; restart</button>
</form>
</body>
</html>
`

const savedPage = `<!DOCTYPE html>
<html>
<head><meta name="viewport" content="width=device-width, initial-scale=1"><title>Saved</title></head>
<body style="font-family:sans-serif;max-width:28em;margin:1em auto">
<h2>Settings saved</h2>
<p>The device is restarting to apply the new configuration. If the WiFi
settings changed, reconnect to the device on its new network.</p>
</body>
</html>
`
