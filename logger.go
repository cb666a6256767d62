package main

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// eventLogPath is where device events (boot, actions, mode changes,
// power-off) are recorded.
const eventLogPath = "/var/lib/pageflip/events.log"

// EventLogger appends timestamped event lines to a file.  Safe for
// concurrent use; write errors are reported on stderr and otherwise ignored
// so a full or read-only filesystem never takes the device down.
type EventLogger struct {
	filePath string
	mu       sync.Mutex
}

// NewEventLogger creates a logger writing to filePath.
func NewEventLogger(filePath string) *EventLogger {
	return &EventLogger{filePath: filePath}
}

// Log records one event.
func (el *EventLogger) Log(format string, args ...any) {
	el.mu.Lock()
	defer el.mu.Unlock()
	line := fmt.Sprintf("%s - %s\n", time.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))
	f, err := os.OpenFile(el.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "event log: %v\n", err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		fmt.Fprintf(os.Stderr, "event log write: %v\n", err)
	}
}
