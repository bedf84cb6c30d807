package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

const otoBufferSize = 50 * time.Millisecond

// AudioOutput pulls stereo float32 frames from an Engine into the sound
// device.
type AudioOutput struct {
	ctx    *oto.Context
	player *oto.Player
}

// engineReader adapts Engine.Render to io.Reader in oto's float32 LE stereo
// layout.
type engineReader struct {
	e    *Engine
	mono []float32
}

func (r *engineReader) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if cap(r.mono) < frames {
		r.mono = make([]float32, frames)
	}
	mono := r.mono[:frames]
	r.e.Render(mono)
	for i, v := range mono {
		bits := math.Float32bits(v)
		binary.LittleEndian.PutUint32(p[i*8:], bits)
		binary.LittleEndian.PutUint32(p[i*8+4:], bits)
	}
	return frames * 8, nil
}

// NewAudioOutput opens the default device at the engine's rate and starts
// playback.
func NewAudioOutput(e *Engine) (*AudioOutput, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   e.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	p := ctx.NewPlayer(&engineReader{e: e})
	p.Play()
	logger.Info("synth: audio output started", "rate", e.SampleRate())
	return &AudioOutput{ctx: ctx, player: p}, nil
}

func (o *AudioOutput) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

// loadClips reads every configured track and sample. A clip that fails to
// load is logged and left nil so the engine plays silence in its place.
func loadClips(cfg AudioConfig) (tracks [NumTracks]*Clip, samples [NumSamples]*Clip) {
	for t := Track(0); t < NumTracks; t++ {
		tracks[t] = loadOptionalClip(cfg.TrackPath(t), t.String())
	}
	for s := Sample(0); s < NumSamples; s++ {
		samples[s] = loadOptionalClip(cfg.SamplePath(s), s.String())
	}
	return tracks, samples
}

func loadOptionalClip(path, name string) *Clip {
	if path == "" {
		logger.Warn("synth: clip not configured", "clip", name)
		return nil
	}
	c, err := LoadClip(path)
	if err != nil {
		logger.Warn("synth: clip not loaded, playing silence", "clip", name, "err", err)
		return nil
	}
	logger.Debug("synth: clip loaded", "clip", name, "path", path, "frames", len(c.Data), "rate", c.Rate)
	return c
}
