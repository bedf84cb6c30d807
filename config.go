package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type SerialConfig struct {
	Device    string   `yaml:"device"`
	Baud      int      `yaml:"baud"`
	Preferred []string `yaml:"preferred"`
	Excluded  []string `yaml:"excluded"`
}

type AudioConfig struct {
	Enabled    bool              `yaml:"enabled"`
	Dir        string            `yaml:"dir"`
	SampleRate int               `yaml:"sample_rate"`
	Tracks     [NumTracks]string `yaml:"tracks"`
	Samples    map[string]string `yaml:"samples"`
}

type MIDIConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Preferred []string `yaml:"preferred"`
	Excluded  []string `yaml:"excluded"`
}

type OSCConfig struct {
	Address string `yaml:"address"` // empty disables OSC
}

type WindowConfig struct {
	Width    int  `yaml:"width"`
	Height   int  `yaml:"height"`
	Headless bool `yaml:"headless"`
}

type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Audio  AudioConfig  `yaml:"audio"`
	MIDI   MIDIConfig   `yaml:"midi"`
	OSC    OSCConfig    `yaml:"osc"`
	Window WindowConfig `yaml:"window"`
}

// DefaultConfig matches the installation as shipped.
func DefaultConfig() Config {
	return Config{
		Serial: SerialConfig{
			Baud:      115200,
			Preferred: []string{"usbmodem", "ttyACM", "ttyUSB", "COM"},
			Excluded:  []string{"Bluetooth", "debug-console"},
		},
		Audio: AudioConfig{
			Enabled:    true,
			Dir:        "audio",
			SampleRate: 44100,
			Tracks:     [NumTracks]string{"track1.wav", "track2.wav", "track3.wav", "track4.wav"},
			Samples: map[string]string{
				"hihat": "drum_hihat.wav",
				"kick":  "drum_kick.wav",
				"snare": "drum_snare.wav",
			},
		},
		MIDI: MIDIConfig{
			Preferred: []string{"IAC", "loopMIDI", "Synth"},
			Excluded:  []string{"Midi Through", "Through Port", "Dummy"},
		},
		Window: WindowConfig{Width: 1280, Height: 800},
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "doremi", "config.yaml")
}

// LoadConfig reads path over the defaults. With explicit=false a missing
// file is not an error.
func LoadConfig(path string, explicit bool) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			logger.Debug("config: no config file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	logger.Info("config: loaded", "path", path)
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	for name := range c.Audio.Samples {
		if _, ok := sampleByName(name); !ok {
			return fmt.Errorf("audio.samples: unknown sample %q", name)
		}
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}

func sampleByName(name string) (Sample, bool) {
	for s := Sample(0); s < NumSamples; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// SamplePath resolves a sample file against the audio directory; "" when
// the sample is not configured.
func (c AudioConfig) SamplePath(s Sample) string {
	f := c.Samples[s.String()]
	if f == "" {
		return ""
	}
	return c.resolve(f)
}

func (c AudioConfig) TrackPath(t Track) string {
	if c.Tracks[t] == "" {
		return ""
	}
	return c.resolve(c.Tracks[t])
}

func (c AudioConfig) resolve(f string) string {
	if filepath.IsAbs(f) || c.Dir == "" {
		return f
	}
	return filepath.Join(c.Dir, f)
}
