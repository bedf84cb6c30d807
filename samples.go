package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clip is a decoded mono clip at its file sample rate.
type Clip struct {
	Data []float32
	Rate int
}

// LoadClip decodes a PCM WAV file and folds it to mono in [-1,1].
func LoadClip(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return clipFromBuffer(buf, int(dec.BitDepth)), nil
}

func clipFromBuffer(buf *audio.IntBuffer, bitDepth int) *Clip {
	ch := buf.Format.NumChannels
	if ch < 1 {
		ch = 1
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	full := float32(int64(1) << (bitDepth - 1))
	frames := len(buf.Data) / ch
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += float32(buf.Data[i*ch+c])
		}
		out[i] = sum / float32(ch) / full
	}
	return &Clip{Data: out, Rate: buf.Format.SampleRate}
}

// clipPlayer steps through a clip at fileRate/engineRate.
type clipPlayer struct {
	clip    *Clip
	pos     float64
	step    float64
	gain    float64
	loop    bool
	playing bool
}

func newClipPlayer(c *Clip, engineRate int, loop bool) *clipPlayer {
	p := &clipPlayer{clip: c, step: 1, loop: loop}
	if c != nil && c.Rate > 0 && engineRate > 0 {
		p.step = float64(c.Rate) / float64(engineRate)
	}
	return p
}

func (p *clipPlayer) start() {
	p.pos = 0
	p.playing = true
}

// next returns the next sample before gain is applied.
func (p *clipPlayer) next() float32 {
	if !p.playing || p.clip == nil || len(p.clip.Data) == 0 {
		return 0
	}
	n := len(p.clip.Data)
	i := int(p.pos)
	if i >= n {
		if !p.loop {
			p.playing = false
			return 0
		}
		p.pos -= float64(n)
		i = int(p.pos)
	}
	j := i + 1
	if j >= n {
		if p.loop {
			j = 0
		} else {
			j = i
		}
	}
	frac := float32(p.pos - float64(i))
	v := p.clip.Data[i]*(1-frac) + p.clip.Data[j]*frac
	p.pos += p.step
	return v
}
