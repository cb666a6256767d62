package main

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// actionPaths maps a logical action onto the KOReader HTTP event endpoint.
var actionPaths = [actionCount]string{
	ActionPrevPage:    "/koreader/event/GotoViewRel/-1",
	ActionNextPage:    "/koreader/event/GotoViewRel/1",
	ActionFullRefresh: "/koreader/event/FullRefresh",
	ActionToggleLight: "/koreader/event/ToggleFrontlight",
}

// Outbound request bounds.  The reply body is irrelevant; the only priority
// is that a slow or unreachable target never stalls the polling loop for
// longer than these.
const (
	actionDialTimeout   = 400 * time.Millisecond
	actionHeaderTimeout = 250 * time.Millisecond
	actionTotalTimeout  = time.Second
)

// httpDoer is the slice of http.Client the sender needs; tests substitute a
// recording fake.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ActionSender turns logical actions into fire-and-forget GETs against the
// configured KOReader instance.  A failed or timed-out request is dropped:
// the next button press is the natural retry.
type ActionSender struct {
	cfgMgr    *ConfigManager
	connected func() bool
	client    httpDoer
	logger    *EventLogger
}

// NewActionSender builds a sender with a timeout-bounded transport.
// connected gates every send: while the device is not in station mode the
// sender is a no-op and the transport is never touched.
func NewActionSender(cfgMgr *ConfigManager, connected func() bool, logger *EventLogger) *ActionSender {
	client := &http.Client{
		Timeout: actionTotalTimeout,
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: actionDialTimeout}).DialContext,
			ResponseHeaderTimeout: actionHeaderTimeout,
			DisableKeepAlives:     true,
		},
	}
	return &ActionSender{cfgMgr: cfgMgr, connected: connected, client: client, logger: logger}
}

// URLFor returns the full request URL for an action against the currently
// configured target.
func (s *ActionSender) URLFor(a Action) string {
	cfg := s.cfgMgr.Get()
	return fmt.Sprintf("http://%s:%d%s", cfg.TargetHost, cfg.TargetPort, actionPaths[a])
}

// Send issues the GET for a.  Errors are logged to the event log and
// otherwise swallowed; there is no retry and no user-visible failure.
func (s *ActionSender) Send(a Action) error {
	if !s.connected() {
		return nil
	}
	url := s.URLFor(a)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build action request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Log("action %s dropped: %v", a, err)
		return nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
	s.logger.Log("action %s -> %s", a, resp.Status)
	return nil
}
