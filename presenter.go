package main

import (
	"context"
	"time"
)

// Sink receives parameter writes. Implementations must not block for long:
// they are called from the presenter goroutine once per frame.
type Sink interface {
	SetVolume(t Track, level float64)
	PlaySample(s Sample, gain float64)
	SetOscFreq(v Voice, hz float64)
	SetOscAmp(v Voice, gain float64, ramp time.Duration)
	SetRotation(x, y float64)
	SetZoom(factor float64)
	SetSliders(theta, phi float64)
	ShowLabel(l Label)
	HideLabel(l Label)
	SetFFTInput(src Source)
	ResetCanvas()
}

// fanout broadcasts every write to each sink in order.
type fanout []Sink

func (f fanout) SetVolume(t Track, level float64) {
	for _, s := range f {
		s.SetVolume(t, level)
	}
}

func (f fanout) PlaySample(smp Sample, gain float64) {
	for _, s := range f {
		s.PlaySample(smp, gain)
	}
}

func (f fanout) SetOscFreq(v Voice, hz float64) {
	for _, s := range f {
		s.SetOscFreq(v, hz)
	}
}

func (f fanout) SetOscAmp(v Voice, gain float64, ramp time.Duration) {
	for _, s := range f {
		s.SetOscAmp(v, gain, ramp)
	}
}

func (f fanout) SetRotation(x, y float64) {
	for _, s := range f {
		s.SetRotation(x, y)
	}
}

func (f fanout) SetZoom(factor float64) {
	for _, s := range f {
		s.SetZoom(factor)
	}
}

func (f fanout) SetSliders(theta, phi float64) {
	for _, s := range f {
		s.SetSliders(theta, phi)
	}
}

func (f fanout) ShowLabel(l Label) {
	for _, s := range f {
		s.ShowLabel(l)
	}
}

func (f fanout) HideLabel(l Label) {
	for _, s := range f {
		s.HideLabel(l)
	}
}

func (f fanout) SetFFTInput(src Source) {
	for _, s := range f {
		s.SetFFTInput(src)
	}
}

func (f fanout) ResetCanvas() {
	for _, s := range f {
		s.ResetCanvas()
	}
}

// -------------------- Transport events --------------------

type EventKind int

const (
	EventFrame EventKind = iota
	EventOpened
	EventClosed
	EventError
)

// Event is one item produced by the transport.
type Event struct {
	Kind EventKind
	Raw  string // EventFrame
	Port string
	Err  error // EventError
}

// -------------------- Presenter --------------------

// Presenter is the presentation state shared by the parse → map → sink
// pipeline. Only the goroutine running Handle/Run may touch it.
type Presenter struct {
	sink Sink

	chord      Chord
	chordOn    bool
	serialOpen bool
	last       ParameterMap
	hasLast    bool

	Applied int
	Dropped int
}

// NewPresenter performs the start-up writes: tracks silent, voices silent,
// layer and bass labels hidden and the serial prompt shown.
func NewPresenter(sink Sink) *Presenter {
	p := &Presenter{sink: sink}
	for t := Track(0); t < NumTracks; t++ {
		sink.SetVolume(t, 0)
	}
	for v := Voice(0); v < NumVoices; v++ {
		sink.SetOscAmp(v, 0, 0)
	}
	for _, l := range layerLabels {
		sink.HideLabel(l)
	}
	sink.HideLabel(LabelBass)
	sink.ShowLabel(LabelSerial)
	return p
}

// Chord returns the latched chord and whether one is sounding.
func (p *Presenter) Chord() (Chord, bool) { return p.chord, p.chordOn }

// SerialOpen reports whether the transport last said the port is open.
func (p *Presenter) SerialOpen() bool { return p.serialOpen }

// Last returns the most recently applied parameter map.
func (p *Presenter) Last() (ParameterMap, bool) { return p.last, p.hasLast }

// HandleFrame parses, maps and applies one raw record. A rejected record
// leaves every sink untouched.
func (p *Presenter) HandleFrame(raw string) error {
	cs, err := ParseFrame(raw)
	if err != nil {
		p.Dropped++
		return err
	}
	pm := MapControl(cs)
	p.Apply(pm)
	p.Applied++
	return nil
}

// Apply writes a parameter map to the sink. The analysis input is routed
// once per frame so a source change is never seen mid-frame.
func (p *Presenter) Apply(pm ParameterMap) {
	s := p.sink

	s.SetZoom(pm.Zoom)
	s.SetRotation(pm.RotationX, pm.RotationY)
	s.SetSliders(pm.Theta, pm.Phi)

	p.applyBand(pm.Band)
	if src, ok := pm.FFTInput(); ok {
		s.SetFFTInput(src)
	}
	p.applyChord(pm.Chord)
	p.applyTrigger(pm.Trigger, pm.Volume)

	p.last = pm
	p.hasLast = true
}

func (p *Presenter) applyBand(b LayerBand) {
	s := p.sink
	var level [NumTracks]float64
	for _, t := range b.Tracks() {
		level[t] = TrackLevel
	}
	for t := Track(0); t < NumTracks; t++ {
		s.SetVolume(t, level[t])
	}
	shown := b.Labels()
	for i, l := range layerLabels {
		if i < len(shown) {
			s.ShowLabel(l)
		} else {
			s.HideLabel(l)
		}
	}
}

func (p *Presenter) stopChords() {
	for c := Chord(0); c < NumChords; c++ {
		p.sink.SetOscAmp(VoiceChord(c), 0, 0)
	}
	p.chordOn = false
}

func (p *Presenter) applyChord(a ChordAction) {
	switch a.Kind {
	case ChordKeep:
	case ChordStop:
		if p.chordOn {
			logger.Debug("presenter: chords stopped", "chord", p.chord)
			p.stopChords()
		}
	case ChordSelect:
		if p.chordOn && p.chord == a.Chord {
			return
		}
		p.stopChords()
		p.sink.SetOscAmp(VoiceChord(a.Chord), ChordLevel, 0)
		p.chord = a.Chord
		p.chordOn = true
		logger.Debug("presenter: chord selected", "chord", a.Chord)
	}
}

func (p *Presenter) applyTrigger(a TriggerAction, volume float64) {
	s := p.sink
	switch a.Kind {
	case TriggerIgnore:
	case TriggerReset:
		s.ResetCanvas()
		s.HideLabel(LabelSnare)
		s.HideLabel(LabelKick)
		s.HideLabel(LabelHiHat)
		s.HideLabel(LabelBass)
	case TriggerDrums:
		smp, ok := a.Percussion.Sample()
		if !ok {
			s.HideLabel(LabelSnare)
			s.HideLabel(LabelKick)
			s.HideLabel(LabelHiHat)
			s.SetOscAmp(VoiceLead, 0, 0)
			return
		}
		s.ShowLabel(drumLabels[smp])
		s.PlaySample(smp, volume)
	case TriggerBass:
		hz, ok := a.Bass.Freq()
		if !ok {
			s.SetOscAmp(VoiceBass, 0, BassRelease)
			s.HideLabel(LabelBass)
			return
		}
		s.ShowLabel(LabelBass)
		s.SetOscFreq(VoiceBass, hz)
		s.SetOscAmp(VoiceBass, volume, BassAttack)
	}
}

var drumLabels = [NumSamples]Label{LabelHiHat, LabelKick, LabelSnare}

// Handle dispatches one transport event.
func (p *Presenter) Handle(ev Event) {
	switch ev.Kind {
	case EventFrame:
		if err := p.HandleFrame(ev.Raw); err != nil {
			logger.Debug("presenter: frame dropped", "raw", ev.Raw, "err", err, "dropped", p.Dropped)
		}
	case EventOpened:
		logger.Info("presenter: serial connection opened", "port", ev.Port)
		p.serialOpen = true
		p.sink.HideLabel(LabelSerial)
	case EventClosed:
		logger.Info("presenter: serial connection closed", "port", ev.Port)
		p.serialOpen = false
		p.sink.ShowLabel(LabelSerial)
	case EventError:
		logger.Warn("presenter: serial error", "port", ev.Port, "err", ev.Err)
		if !p.serialOpen {
			p.sink.ShowLabel(LabelSerial)
		}
	}
}

// Run consumes events until the channel closes or ctx is done.
func (p *Presenter) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.Handle(ev)
		}
	}
}
