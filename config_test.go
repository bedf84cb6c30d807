package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Serial.Baud != 115200 {
		t.Fatalf("Baud = %d; want 115200", cfg.Serial.Baud)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
serial:
  device: /dev/ttyUSB3
  baud: 9600
audio:
  dir: /srv/doremi
  samples:
    kick: kick2.wav
osc:
  address: 127.0.0.1:9000
`)
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyUSB3" || cfg.Serial.Baud != 9600 {
		t.Fatalf("serial = %+v", cfg.Serial)
	}
	if cfg.OSC.Address != "127.0.0.1:9000" {
		t.Fatalf("osc = %+v", cfg.OSC)
	}
	if got, want := cfg.Audio.SamplePath(SampleKick), filepath.Join("/srv/doremi", "kick2.wav"); got != want {
		t.Fatalf("SamplePath(kick) = %q; want %q", got, want)
	}
	// untouched keys keep their defaults
	if cfg.Window.Width != 1280 || !cfg.Audio.Enabled || cfg.Audio.SampleRate != 44100 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if got, want := cfg.Audio.TrackPath(Track3), filepath.Join("/srv/doremi", "track3.wav"); got != want {
		t.Fatalf("TrackPath(track3) = %q; want %q", got, want)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("implicit missing file: %v", err)
	}
	if cfg.Serial.Baud != DefaultConfig().Serial.Baud {
		t.Fatal("defaults not returned")
	}

	_, err = LoadConfig(path, true)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("explicit missing file: err = %v; want ErrNotExist", err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"BadYAML", "serial: [", "parse"},
		{"ZeroBaud", "serial:\n  baud: 0\n", "serial.baud"},
		{"UnknownSample", "audio:\n  samples:\n    cowbell: c.wav\n", "cowbell"},
		{"BadRate", "audio:\n  sample_rate: -1\n", "sample_rate"},
		{"BadWindow", "window:\n  width: 0\n", "window size"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body), true)
			if err == nil {
				t.Fatal("LoadConfig accepted bad config")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v; want mention of %q", err, tc.want)
			}
		})
	}
}

func TestAudioPaths(t *testing.T) {
	c := AudioConfig{
		Dir:     "audio",
		Samples: map[string]string{"hihat": "/abs/hh.wav"},
	}
	if got := c.SamplePath(SampleHiHat); got != "/abs/hh.wav" {
		t.Fatalf("absolute path rewritten: %q", got)
	}
	if got := c.SamplePath(SampleSnare); got != "" {
		t.Fatalf("unconfigured sample = %q; want empty", got)
	}
	if got := c.TrackPath(Track1); got != "" {
		t.Fatalf("unconfigured track = %q; want empty", got)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("", true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Serial.Preferred) == 0 {
		t.Fatal("defaults not returned")
	}
}
