package main

import (
	"log"
)

// Entry point for the pageflip remote firmware.
func main() {
	cfgMgr := NewConfigManager(configPath)
	if err := cfgMgr.Load(); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger := NewEventLogger(eventLogPath)
	hw, disp, err := newHardware()
	if err != nil {
		log.Fatalf("hardware init: %v", err)
	}
	app := NewApp(cfgMgr, hw, disp, logger)
	if err := app.Run(); err != nil {
		log.Fatalf("device loop exited: %v", err)
	}
}
