package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// -------------------- Logger --------------------

// logger is the package-wide structured logger. Safe to use before initLogger
// is called; defaults to slog.Default().
var logger = slog.Default()

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// -------------------- Tunables --------------------

const (
	windowTitle    = "doremi"
	eventQueueSize = 64
	midiTickEvery  = 250 * time.Millisecond
)

// -------------------- Wiring --------------------

type options struct {
	configPath string
	serialDev  string
	baud       int
	debug      bool
	headless   bool
	midi       bool
	oscAddr    string
	audioDir   string
	noAudio    bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configPath, "config", defaultConfigPath(), "YAML config file")
	fs.StringVar(&o.serialDev, "serial", "", "serial port device (default: auto-detect)")
	fs.IntVar(&o.baud, "baud", 0, "serial baud rate (default from config)")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging (adds source location)")
	fs.BoolVar(&o.headless, "headless", false, "no window; print a status panel to stdout")
	fs.BoolVar(&o.midi, "midi", false, "mirror audio parameters to a MIDI output")
	fs.StringVar(&o.oscAddr, "osc", "", "send every parameter write as OSC to host:port")
	fs.StringVar(&o.audioDir, "audio-dir", "", "directory holding track and drum WAV files")
	fs.BoolVar(&o.noAudio, "no-audio", false, "do not open the sound device")
	err := fs.Parse(args)
	return o, err
}

// apply lays flags that were given over the loaded config.
func (o options) apply(fs *flag.FlagSet, cfg *Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "serial":
			cfg.Serial.Device = o.serialDev
		case "baud":
			cfg.Serial.Baud = o.baud
		case "headless":
			cfg.Window.Headless = o.headless
		case "midi":
			cfg.MIDI.Enabled = o.midi
		case "osc":
			cfg.OSC.Address = o.oscAddr
		case "audio-dir":
			cfg.Audio.Dir = o.audioDir
		case "no-audio":
			cfg.Audio.Enabled = !o.noAudio
		}
	})
}

func configGiven(fs *flag.FlagSet) bool {
	given := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			given = true
		}
	})
	return given
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	opts, _ := parseFlags(fs, os.Args[1:])

	initLogger(opts.debug)

	cfg, err := LoadConfig(opts.configPath, configGiven(fs))
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}
	opts.apply(fs, &cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid settings", "err", err)
		os.Exit(1)
	}

	logger.Info("doremi starting",
		"serial", cfg.Serial.Device,
		"baud", cfg.Serial.Baud,
		"audio", cfg.Audio.Enabled,
		"midi", cfg.MIDI.Enabled,
		"osc", cfg.OSC.Address,
		"headless", cfg.Window.Headless,
		"debug", opts.debug,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks fanout
	var wave WaveSource

	if cfg.Audio.Enabled {
		tracks, samples := loadClips(cfg.Audio)
		engine := NewEngine(cfg.Audio.SampleRate, tracks, samples)
		out, err := NewAudioOutput(engine)
		if err != nil {
			logger.Error("audio output unavailable, continuing silent", "err", err)
		} else {
			defer out.Close()
			sinks = append(sinks, engine)
			wave = engine
		}
	}

	var scene *Scene
	if cfg.Window.Headless {
		sinks = append(sinks, NewStatusPanel(os.Stdout))
	} else {
		scene = NewScene()
		sinks = append(sinks, scene)
	}

	var wg sync.WaitGroup

	if cfg.MIDI.Enabled {
		mout, err := NewMIDIOut(cfg.MIDI)
		if err != nil {
			logger.Error("midi output init failed", "err", err)
		} else {
			defer mout.Close()
			sinks = append(sinks, NewMIDISink(mout))
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticker := time.NewTicker(midiTickEvery)
				defer ticker.Stop()
				for {
					mout.Tick()
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
					}
				}
			}()
		}
	}

	if cfg.OSC.Address != "" {
		o, err := DialOSC(cfg.OSC.Address)
		if err != nil {
			logger.Error("osc output unavailable", "err", err)
		} else {
			defer o.Close()
			sinks = append(sinks, o)
		}
	}

	events := make(chan Event, eventQueueSize)
	presenter := NewPresenter(sinks)
	watcher := NewSerialWatcher(cfg.Serial, events)

	pctx, cancelPresenter := context.WithCancel(context.Background())
	wg.Add(2)
	go func() {
		defer wg.Done()
		watcher.Run()
	}()
	go func() {
		defer wg.Done()
		presenter.Run(pctx, events)
	}()

	logger.Info("running – waiting for serial device")

	if scene != nil {
		r := NewRenderer(scene, wave, watcher.Rescan)
		if err := r.Run(windowTitle, cfg.Window.Width, cfg.Window.Height); err != nil {
			logger.Error("window closed with error", "err", err)
		}
		stop()
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	// the watcher must stop sending before the presenter stops reading
	watcher.Close()
	cancelPresenter()
	wg.Wait()
	logger.Info("stopped", "frames", presenter.Applied, "dropped", presenter.Dropped)
}
