package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFirstBootWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.bin")
	cm := NewConfigManager(path)
	if err := cm.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cm.Get(), defaultConfig(); got != want {
		t.Errorf("config after first boot = %+v, want defaults", got)
	}
	// The defaults must have been persisted immediately.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("record not written: %v", err)
	}
	if _, ok := decodeRecord(data); !ok {
		t.Error("persisted record does not decode as valid")
	}
}

func TestLoadBadMagicResetsToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.bin")

	// Valid-length record with a wrong marker, as left by a different or
	// corrupted firmware.
	garbage := encodeRecord(defaultConfig())
	binary.LittleEndian.PutUint32(garbage[0:4], 0xDEADBEEF)
	if err := os.WriteFile(path, garbage, 0600); err != nil {
		t.Fatal(err)
	}

	cm := NewConfigManager(path)
	if err := cm.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cm.Get(), defaultConfig(); got != want {
		t.Errorf("config after bad magic = %+v, want defaults", got)
	}

	// Simulated next boot reads the repaired record back.
	cm2 := NewConfigManager(path)
	if err := cm2.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := cm2.Get(); got != defaultConfig() {
		t.Errorf("reloaded config = %+v, want defaults", got)
	}
}

func TestLoadShortRecordResetsToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.bin")
	if err := os.WriteFile(path, []byte{0x31, 0x4C}, 0600); err != nil {
		t.Fatal(err)
	}
	cm := NewConfigManager(path)
	if err := cm.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cm.Get(); got != defaultConfig() {
		t.Errorf("config after short record = %+v, want defaults", got)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.bin")
	cm := NewConfigManager(path)
	if err := cm.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := cm.Update(func(c *Config) error {
		c.SSID = "homenet"
		c.Password = "hunter2hunter2"
		c.TargetHost = "10.1.2.3"
		c.TargetPort = 9090
		c.ClickActionA = ActionToggleLight
		c.HoldActionB = ActionPrevPage
		c.KeepScreenOn = true
		c.BeepOnPress = false
		c.AutoShutdownSecs = 600
		c.CountdownSecs = 45
		c.CountdownOnScreen = false
		c.CountdownBeep = false
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	cm2 := NewConfigManager(path)
	if err := cm2.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got, want := cm2.Get(), cm.Get(); got != want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestUpdateTruncatesOverlongStrings(t *testing.T) {
	cm := testConfigManager(t)
	err := cm.Update(func(c *Config) error {
		c.SSID = strings.Repeat("s", 50)
		c.Password = strings.Repeat("p", 100)
		c.TargetHost = strings.Repeat("1", 40)
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	cfg := cm.Get()
	if len(cfg.SSID) != maxSSIDLen {
		t.Errorf("SSID length = %d, want %d", len(cfg.SSID), maxSSIDLen)
	}
	if len(cfg.Password) != maxPasswordLen {
		t.Errorf("Password length = %d, want %d", len(cfg.Password), maxPasswordLen)
	}
	if len(cfg.TargetHost) != maxHostLen {
		t.Errorf("TargetHost length = %d, want %d", len(cfg.TargetHost), maxHostLen)
	}
}

func TestDecodeRecordClampsBadActionCodes(t *testing.T) {
	cfg := defaultConfig()
	data := encodeRecord(cfg)
	// Corrupt the first action slot with an out-of-range code: magic is
	// still valid, so the record loads, but the slot falls back.
	data[4+(maxSSIDLen+1)+(maxPasswordLen+1)+(maxHostLen+1)+2] = 0xFF
	got, ok := decodeRecord(data)
	if !ok {
		t.Fatal("record with valid magic rejected")
	}
	if got.ClickActionA != ActionNextPage {
		t.Errorf("ClickActionA = %v, want fallback NextPage", got.ClickActionA)
	}
}
