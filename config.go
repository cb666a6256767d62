package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// configPath is the default location of the persisted configuration record.
const configPath = "/var/lib/pageflip/config.bin"

// recordMagic marks a valid persisted record.  A mismatch (or a short or
// missing file) means the storage was never initialised or has been
// corrupted, and the record is reset to defaults and re-persisted.
const recordMagic uint32 = 0x50464C31 // "PFL1"

// storedRecord is the fixed-layout on-disk form of Config.  Strings are
// NUL-padded fixed byte arrays; everything is little-endian.  The layout is
// the wire format, so fields may only ever be appended.
type storedRecord struct {
	Magic             uint32
	SSID              [maxSSIDLen + 1]byte
	Password          [maxPasswordLen + 1]byte
	TargetHost        [maxHostLen + 1]byte
	TargetPort        uint16
	Actions           [4]uint8 // A-click, A-hold, B-click, B-hold
	KeepScreenOn      uint8
	BeepOnPress       uint8
	CountdownOnScreen uint8
	CountdownBeep     uint8
	AutoShutdownSecs  uint32
	CountdownSecs     uint32
}

// ConfigManager wraps the loaded configuration and a mutex for concurrent
// access.  The polling loop reads it every iteration; the provisioning
// server's save handler is the only writer and always goes through Update,
// which persists on success.
type ConfigManager struct {
	mu     sync.RWMutex
	path   string
	cfg    Config
	loaded bool
}

// NewConfigManager returns a manager persisting to the given path.
func NewConfigManager(path string) *ConfigManager {
	return &ConfigManager{path: path}
}

// Load reads the persisted record.  A missing file, short read or magic
// mismatch is not an error: the configuration is silently reset to the
// built-in defaults and immediately re-persisted so the next boot finds a
// valid record.
func (cm *ConfigManager) Load() error {
	cm.mu.Lock()
	if cm.loaded {
		cm.mu.Unlock()
		return nil
	}
	data, err := os.ReadFile(cm.path)
	if err != nil && !os.IsNotExist(err) {
		cm.mu.Unlock()
		return fmt.Errorf("unable to read config record: %w", err)
	}
	cfg, ok := decodeRecord(data)
	if !ok {
		cfg = defaultConfig()
	}
	cm.cfg = cfg
	cm.loaded = true
	// Release the write lock before saving: Save takes a read lock on the
	// same mutex.
	cm.mu.Unlock()
	if !ok {
		return cm.Save()
	}
	return nil
}

// Save writes the record to disk via a temp file and rename so a power cut
// mid-write cannot leave a torn record behind.
func (cm *ConfigManager) Save() error {
	cm.mu.RLock()
	data := encodeRecord(cm.cfg)
	cm.mu.RUnlock()

	tmpPath := cm.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config record: %w", err)
	}
	return os.Rename(tmpPath, cm.path)
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.cfg
}

// Update applies fn to the configuration under the write lock, clamps the
// result to the stored field bounds and persists it.
func (cm *ConfigManager) Update(fn func(*Config) error) error {
	cm.mu.Lock()
	if err := fn(&cm.cfg); err != nil {
		cm.mu.Unlock()
		return err
	}
	cm.cfg.clamp()
	cm.mu.Unlock()
	return cm.Save()
}

// encodeRecord serialises cfg into the fixed little-endian layout.
func encodeRecord(cfg Config) []byte {
	var rec storedRecord
	rec.Magic = recordMagic
	putCString(rec.SSID[:], cfg.SSID)
	putCString(rec.Password[:], cfg.Password)
	putCString(rec.TargetHost[:], cfg.TargetHost)
	rec.TargetPort = cfg.TargetPort
	rec.Actions = [4]uint8{
		uint8(cfg.ClickActionA), uint8(cfg.HoldActionA),
		uint8(cfg.ClickActionB), uint8(cfg.HoldActionB),
	}
	rec.KeepScreenOn = boolByte(cfg.KeepScreenOn)
	rec.BeepOnPress = boolByte(cfg.BeepOnPress)
	rec.CountdownOnScreen = boolByte(cfg.CountdownOnScreen)
	rec.CountdownBeep = boolByte(cfg.CountdownBeep)
	rec.AutoShutdownSecs = cfg.AutoShutdownSecs
	rec.CountdownSecs = cfg.CountdownSecs

	var buf bytes.Buffer
	// storedRecord has fixed size only, so this cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, &rec)
	return buf.Bytes()
}

// decodeRecord parses data into a Config.  ok is false when the record is
// absent, short or carries the wrong magic.
func decodeRecord(data []byte) (cfg Config, ok bool) {
	var rec storedRecord
	if len(data) < binary.Size(&rec) {
		return Config{}, false
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &rec); err != nil {
		return Config{}, false
	}
	if rec.Magic != recordMagic {
		return Config{}, false
	}
	cfg = Config{
		SSID:              cString(rec.SSID[:]),
		Password:          cString(rec.Password[:]),
		TargetHost:        cString(rec.TargetHost[:]),
		TargetPort:        rec.TargetPort,
		ClickActionA:      clampAction(rec.Actions[0]),
		HoldActionA:       clampAction(rec.Actions[1]),
		ClickActionB:      clampAction(rec.Actions[2]),
		HoldActionB:       clampAction(rec.Actions[3]),
		KeepScreenOn:      rec.KeepScreenOn != 0,
		BeepOnPress:       rec.BeepOnPress != 0,
		CountdownOnScreen: rec.CountdownOnScreen != 0,
		CountdownBeep:     rec.CountdownBeep != 0,
		AutoShutdownSecs:  rec.AutoShutdownSecs,
		CountdownSecs:     rec.CountdownSecs,
	}
	return cfg, true
}

// putCString copies s into dst NUL-padded, truncating to leave at least one
// trailing NUL.
func putCString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	n := len(dst) - 1
	if len(s) < n {
		n = len(s)
	}
	copy(dst, s[:n])
}

// cString reads a NUL-terminated string out of a fixed buffer.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// clampAction guards against out-of-range persisted action codes.
func clampAction(v uint8) Action {
	if v >= actionCount {
		return ActionNextPage
	}
	return Action(v)
}
