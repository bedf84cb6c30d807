package main

import (
	"math"
	"time"
)

// -------------------- Identifiers --------------------

type Track int

const (
	Track1 Track = iota
	Track2
	Track3
	Track4
	NumTracks
)

var trackNames = [NumTracks]string{"track1", "track2", "track3", "track4"}

func (t Track) String() string { return trackNames[t] }

type Sample int

const (
	SampleHiHat Sample = iota
	SampleKick
	SampleSnare
	NumSamples
)

var sampleNames = [NumSamples]string{"hihat", "kick", "snare"}

func (s Sample) String() string { return sampleNames[s] }

type Chord int

const (
	ChordAm9 Chord = iota
	ChordDmOverG
	ChordCmaj7
	ChordEbmaj7
	ChordAbmaj7
	NumChords
)

var chordNames = [NumChords]string{"Am9", "Dm/G", "Cmaj7", "Ebmaj7", "Abmaj7"}

func (c Chord) String() string { return chordNames[c] }

// chordVoicings holds the oscillator frequencies (Hz) of each chord.
var chordVoicings = [NumChords][]float64{
	ChordAm9:     {220, 261.63, 329.63, 392, 493.88},
	ChordDmOverG: {98, 196, 293.66, 349.23, 523.25},
	ChordCmaj7:   {65.41, 130.81, 261.63, 329.63, 392, 493.88},
	ChordEbmaj7:  {77.78, 155.56, 233.08, 311.13, 392},
	ChordAbmaj7:  {103.83, 207.65, 311.13, 392},
}

// Voice is an independently controllable oscillator set.
type Voice int

const (
	VoiceLead Voice = iota
	VoiceBass
	voiceChord0 // VoiceChord(c) = voiceChord0 + c
	NumVoices   = voiceChord0 + Voice(NumChords)
)

func VoiceChord(c Chord) Voice { return voiceChord0 + Voice(c) }

// Chord returns the chord a chord voice plays.
func (v Voice) Chord() (Chord, bool) {
	if v < voiceChord0 || v >= NumVoices {
		return 0, false
	}
	return Chord(v - voiceChord0), true
}

func (v Voice) String() string {
	switch v {
	case VoiceLead:
		return "lead"
	case VoiceBass:
		return "bass"
	}
	if c, ok := v.Chord(); ok {
		return "chord/" + c.String()
	}
	return "unknown"
}

type Label int

const (
	LabelSynth Label = iota
	LabelStrings
	LabelLead1
	LabelLead2
	LabelHiHat
	LabelKick
	LabelSnare
	LabelBass
	LabelSerial
	NumLabels
)

var labelNames = [NumLabels]string{
	"Synth", "Strings", "Lead 1", "Lead 2", "Hi-Hat", "Kick", "Snare", "Bass",
	"Click anywhere on this page to open the serial connection dialog",
}

func (l Label) String() string { return labelNames[l] }

// layerLabels are the "now playing" labels, one per layer band.
var layerLabels = [NumTracks]Label{LabelSynth, LabelStrings, LabelLead1, LabelLead2}

// Source is a waveform analysis input.
type Source int

const (
	SourceNone Source = iota
	SourceTrack1
	SourceTrack2
	SourceTrack3
	SourceTrack4
	SourceHiHat
	SourceKick
	SourceSnare
	SourceBass
	NumSources
)

var sourceNames = [NumSources]string{"none", "track1", "track2", "track3", "track4", "hihat", "kick", "snare", "bass"}

func (s Source) String() string { return sourceNames[s] }

func TrackSource(t Track) Source   { return SourceTrack1 + Source(t) }
func SampleSource(s Sample) Source { return SourceHiHat + Source(s) }

// -------------------- Tunables --------------------

const (
	TrackLevel   = 0.5
	ChordLevel   = 0.1
	BassAttack   = 30 * time.Millisecond
	BassRelease  = 50 * time.Millisecond
	AccelRange   = 200
	RotaryAMin   = 40
	RotaryAMax   = 80
	PhiMax       = 10
	ModeDrums    = 1
	ModeBass     = 2
	ModeBassAlt  = 3
	ChordStopLow = 1
	ChordStopTop = 7
)

var bassPitches = [3]float64{82.41, 98.00, 110.00}

// -------------------- Parameter map --------------------

type LayerBand int

const (
	BandVisuals LayerBand = iota
	BandSynth
	BandStrings
	BandLead1
	BandLead2
	BandOutOfRange
)

var bandNames = [...]string{"visuals", "synth", "strings", "lead1", "lead2", "out-of-range"}

func (b LayerBand) String() string { return bandNames[b] }

// Tracks returns how many ambient tracks the band layers in. The layering
// order is track2, track4, track3, track1.
func (b LayerBand) Tracks() []Track {
	switch b {
	case BandSynth:
		return []Track{Track2}
	case BandStrings:
		return []Track{Track2, Track4}
	case BandLead1:
		return []Track{Track2, Track4, Track3}
	case BandLead2:
		return []Track{Track2, Track4, Track3, Track1}
	}
	return nil
}

// Labels returns the layer labels shown for the band.
func (b LayerBand) Labels() []Label {
	switch b {
	case BandSynth, BandStrings, BandLead1, BandLead2:
		return layerLabels[:b]
	}
	return nil
}

// FFTInput returns the most recently layered track, false when the band
// leaves the analysis input alone.
func (b LayerBand) FFTInput() (Source, bool) {
	t := b.Tracks()
	if len(t) == 0 {
		return SourceNone, false
	}
	return TrackSource(t[len(t)-1]), true
}

type ChordActionKind int

const (
	ChordKeep ChordActionKind = iota
	ChordStop
	ChordSelect
)

type ChordAction struct {
	Kind  ChordActionKind
	Chord Chord // valid for ChordSelect
}

type PercussionTrigger int

const (
	PercussionNone PercussionTrigger = iota
	PercussionHiHat
	PercussionKick
	PercussionSnare
)

func (p PercussionTrigger) Sample() (Sample, bool) {
	switch p {
	case PercussionHiHat:
		return SampleHiHat, true
	case PercussionKick:
		return SampleKick, true
	case PercussionSnare:
		return SampleSnare, true
	}
	return 0, false
}

type BassNote int

const (
	BassNone BassNote = iota
	BassLow
	BassMid
	BassHigh
)

func (n BassNote) Freq() (float64, bool) {
	if n == BassNone {
		return 0, false
	}
	return bassPitches[n-BassLow], true
}

type TriggerKind int

const (
	TriggerIgnore TriggerKind = iota
	TriggerReset
	TriggerDrums
	TriggerBass
)

type TriggerAction struct {
	Kind       TriggerKind
	Percussion PercussionTrigger // TriggerDrums
	Bass       BassNote          // TriggerBass
}

// ParameterMap is everything one frame asks of the presentation layer.
type ParameterMap struct {
	Zoom      float64
	RotationX float64
	RotationY float64
	Theta     float64
	Phi       float64
	Volume    float64
	Band      LayerBand
	Chord     ChordAction
	Trigger   TriggerAction
}

// FFTInput resolves the frame's analysis input. A drum hit or bass mode
// overrides the band's track.
func (pm ParameterMap) FFTInput() (Source, bool) {
	switch pm.Trigger.Kind {
	case TriggerDrums:
		if smp, ok := pm.Trigger.Percussion.Sample(); ok {
			return SampleSource(smp), true
		}
	case TriggerBass:
		return SourceBass, true
	}
	return pm.Band.FFTInput()
}

// scale is an unclamped linear map of v from [a0,a1] onto [b0,b1].
func scale(v, a0, a1, b0, b1 float64) float64 {
	return b0 + (v-a0)/(a1-a0)*(b1-b0)
}

// bandFor buckets rotaryA into a layer band.
func bandFor(rotaryA int) LayerBand {
	b := math.Floor(scale(float64(rotaryA), RotaryAMin, RotaryAMax, 0, 4))
	if b < 0 || b > float64(BandLead2) {
		return BandOutOfRange
	}
	return LayerBand(b)
}

func chordFor(rotaryB int) ChordAction {
	switch {
	case rotaryB == ChordStopLow || rotaryB == ChordStopTop:
		return ChordAction{Kind: ChordStop}
	case rotaryB >= 2 && rotaryB <= 6:
		return ChordAction{Kind: ChordSelect, Chord: Chord(rotaryB - 2)}
	}
	return ChordAction{Kind: ChordKeep}
}

// firstPressed returns the index of the first pressed button in priority
// order, or -1.
func firstPressed(b [NumButtons]bool) int {
	for i, on := range b {
		if on {
			return i
		}
	}
	return -1
}

func triggerFor(cs ControlState) TriggerAction {
	if cs.AllPressed() {
		return TriggerAction{Kind: TriggerReset}
	}
	first := firstPressed(cs.Buttons)
	switch cs.Mode {
	case ModeDrums:
		return TriggerAction{Kind: TriggerDrums, Percussion: PercussionTrigger(first + 1)}
	case ModeBass, ModeBassAlt:
		return TriggerAction{Kind: TriggerBass, Bass: BassNote(first + 1)}
	}
	return TriggerAction{Kind: TriggerIgnore}
}

// MapControl translates a decoded frame into parameter targets. It has no
// side effects.
func MapControl(cs ControlState) ParameterMap {
	return ParameterMap{
		Zoom:      float64(cs.RotaryB),
		RotationX: scale(float64(cs.AccelY), -AccelRange, AccelRange, -math.Pi, math.Pi),
		RotationY: scale(float64(cs.AccelX), -AccelRange, AccelRange, -math.Pi, math.Pi),
		Theta:     float64(cs.RotaryA),
		Phi:       PhiMax - cs.Volume*PhiMax,
		Volume:    cs.Volume,
		Band:      bandFor(cs.RotaryA),
		Chord:     chordFor(cs.RotaryB),
		Trigger:   triggerFor(cs),
	}
}
