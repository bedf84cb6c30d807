package main

import (
	"math"
	"sync"
	"time"

	"github.com/viterin/vek/vek32"
)

// -------------------- Oscillator --------------------

type waveform int

const (
	waveSine waveform = iota
	waveSaw
)

// osc is a single oscillator with a linear amplitude ramp.
type osc struct {
	wave  waveform
	freq  float64
	phase float64 // 0..1

	amp    float64
	target float64
	delta  float64
	remain int
}

func (o *osc) setAmp(gain float64, ramp time.Duration, rate int) {
	n := int(ramp.Seconds() * float64(rate))
	if n <= 0 {
		o.amp, o.target, o.remain = gain, gain, 0
		return
	}
	o.target = gain
	o.delta = (gain - o.amp) / float64(n)
	o.remain = n
}

func (o *osc) next(rate int) float32 {
	if o.remain > 0 {
		o.amp += o.delta
		o.remain--
		if o.remain == 0 {
			o.amp = o.target
		}
	}
	if o.amp == 0 {
		o.advance(rate)
		return 0
	}
	var v float64
	switch o.wave {
	case waveSine:
		v = math.Sin(2 * math.Pi * o.phase)
	case waveSaw:
		v = 2*o.phase - 1
	}
	o.advance(rate)
	return float32(v * o.amp)
}

func (o *osc) advance(rate int) {
	o.phase += o.freq / float64(rate)
	o.phase -= math.Floor(o.phase)
}

// -------------------- Engine --------------------

const (
	scopeSize    = 1024
	masterGain   = 0.5
	leadFreq     = 440
	maxBlockSize = 4096
)

// Engine is the built-in synthesizer and sample player. It implements Sink
// for the audio half of the contract and is pulled by the audio device.
type Engine struct {
	mu   sync.Mutex
	rate int

	voices  [NumVoices][]*osc
	tracks  [NumTracks]*clipPlayer
	samples [NumSamples]*clipPlayer
	fft     Source

	scope *Scope
	mix   []float32
	tap   []float32
}

// NewEngine builds the oscillator bank. Clips may be nil; a nil clip plays
// silence.
func NewEngine(rate int, tracks [NumTracks]*Clip, samples [NumSamples]*Clip) *Engine {
	e := &Engine{
		rate:  rate,
		scope: NewScope(scopeSize),
		mix:   make([]float32, maxBlockSize),
		tap:   make([]float32, maxBlockSize),
	}
	e.voices[VoiceLead] = []*osc{{wave: waveSaw, freq: leadFreq}}
	e.voices[VoiceBass] = []*osc{{wave: waveSine, freq: bassPitches[0]}}
	for c := Chord(0); c < NumChords; c++ {
		for _, hz := range chordVoicings[c] {
			e.voices[VoiceChord(c)] = append(e.voices[VoiceChord(c)], &osc{wave: waveSaw, freq: hz})
		}
	}
	for t := Track(0); t < NumTracks; t++ {
		e.tracks[t] = newClipPlayer(tracks[t], rate, true)
		e.tracks[t].start()
	}
	for s := Sample(0); s < NumSamples; s++ {
		e.samples[s] = newClipPlayer(samples[s], rate, false)
	}
	return e
}

func (e *Engine) SampleRate() int { return e.rate }

// Render fills dst with mono samples and feeds the selected analysis source
// to the scope.
func (e *Engine) Render(dst []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(dst) > 0 {
		n := len(dst)
		if n > maxBlockSize {
			n = maxBlockSize
		}
		e.renderBlock(dst[:n])
		dst = dst[n:]
	}
}

func (e *Engine) renderBlock(dst []float32) {
	n := len(dst)
	mix := vek32.Zeros_Into(e.mix[:n], n)
	tap := vek32.Zeros_Into(e.tap[:n], n)
	for i := 0; i < n; i++ {
		var sum float32
		for v := Voice(0); v < NumVoices; v++ {
			var vs float32
			for _, o := range e.voices[v] {
				vs += o.next(e.rate)
			}
			sum += vs
			if v == VoiceBass && e.fft == SourceBass {
				tap[i] = vs
			}
		}
		for t, p := range e.tracks {
			s := p.next() * float32(p.gain)
			sum += s
			if e.fft == TrackSource(Track(t)) {
				tap[i] = s
			}
		}
		for s, p := range e.samples {
			v := p.next() * float32(p.gain)
			sum += v
			if e.fft == SampleSource(Sample(s)) {
				tap[i] = v
			}
		}
		mix[i] = sum
	}
	vek32.MulNumber_Inplace(mix, masterGain)
	for i, v := range mix {
		dst[i] = clamp32(v)
	}
	if e.fft != SourceNone {
		e.scope.Write(tap)
	}
}

func clamp32(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Waveform copies the most recent analysis window into dst.
func (e *Engine) Waveform(dst []float32) []float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope.Snapshot(dst)
}

// Level is the RMS of the analysis window.
func (e *Engine) Level() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope.RMS()
}

// FFTInput returns the current analysis source.
func (e *Engine) FFTInput() Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fft
}

// Amp returns the current amplitude of a voice's first oscillator.
func (e *Engine) Amp(v Voice) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.voices[v]) == 0 {
		return 0
	}
	return e.voices[v][0].amp
}

// -------------------- Sink --------------------

func (e *Engine) SetVolume(t Track, level float64) {
	e.mu.Lock()
	e.tracks[t].gain = level
	e.mu.Unlock()
}

func (e *Engine) PlaySample(s Sample, gain float64) {
	e.mu.Lock()
	p := e.samples[s]
	p.gain = gain
	p.start()
	e.mu.Unlock()
}

// SetOscFreq retunes single-oscillator voices; chord voicings are fixed.
func (e *Engine) SetOscFreq(v Voice, hz float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := v.Chord(); ok {
		return
	}
	for _, o := range e.voices[v] {
		o.freq = hz
	}
}

func (e *Engine) SetOscAmp(v Voice, gain float64, ramp time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, o := range e.voices[v] {
		o.setAmp(gain, ramp, e.rate)
	}
}

func (e *Engine) SetFFTInput(src Source) {
	e.mu.Lock()
	if e.fft != src {
		e.scope.Reset()
	}
	e.fft = src
	e.mu.Unlock()
}

func (e *Engine) SetRotation(x, y float64)      {}
func (e *Engine) SetZoom(factor float64)        {}
func (e *Engine) SetSliders(theta, phi float64) {}
func (e *Engine) ShowLabel(l Label)             {}
func (e *Engine) HideLabel(l Label)             {}
func (e *Engine) ResetCanvas()                  {}
