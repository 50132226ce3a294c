package sx1276

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sx1276.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"desc": "gw0",
		"freq": 915000000,
		"sf": 10,
		"bw": 500000,
		"syncword": 52,
		"hardware": {"gpiochip": "gpiochip0", "reset": "17"}
	}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.Desc = "gw0"
	want.Frequency = 915000000
	want.SpreadingFactor = 10
	want.Bandwidth = 500000
	want.Hardware.GPIOChip = "gpiochip0"
	want.Hardware.Reset = "17"
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, `{"bw": 20800}`)
	if _, err := LoadConfig(path); !errors.Is(err, ErrUnsupportedBandwidth) {
		t.Errorf("20.8kHz returned %v", err)
	}
	path = writeConfig(t, `{"freq": 2400000000}`)
	if _, err := LoadConfig(path); !errors.Is(err, ErrUnsupportedFrequency) {
		t.Errorf("2.4GHz returned %v", err)
	}
	path = writeConfig(t, `{"freq": "868.1"}`)
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("malformed config accepted")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file returned %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
}
