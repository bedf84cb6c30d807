package main

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

const midiRescanInterval = 1000 * time.Millisecond

var errMIDINotConnected = errors.New("midi: not connected")

// -------------------- MIDIOut --------------------

// MIDIOut monitors available MIDI outputs and maintains a connection to the
// preferred device. It handles hot-plug (new device appears) and hot-unplug
// (device disappears) transparently.
type MIDIOut struct {
	mu           sync.Mutex
	cfg          MIDIConfig
	drv          *rtmididrv.Driver
	outPort      drivers.Out
	send         func(midi.Message) error
	connected    bool
	selectedName string
	lastRescanAt time.Time
	gen          int
}

// NewMIDIOut creates a watcher and initialises the underlying rtmidi driver.
// Call Close() when done.
func NewMIDIOut(cfg MIDIConfig) (*MIDIOut, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &MIDIOut{cfg: cfg, drv: drv}, nil
}

// Close shuts down the active MIDI connection and the rtmidi driver.
func (m *MIDIOut) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeConn()
	m.drv.Close()
}

// Generation changes every time a new device is connected, so sinks know to
// forget what they think is sounding.
func (m *MIDIOut) Generation() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Send writes msg to the connected device.
func (m *MIDIOut) Send(msg midi.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return errMIDINotConnected
	}
	if err := m.send(msg); err != nil {
		logger.Warn("midi: send failed, dropping device", "device", m.selectedName, "err", err)
		m.closeConn()
		m.lastRescanAt = time.Time{}
		return err
	}
	return nil
}

// Tick should be called on a regular interval (e.g. every second) from the
// main loop. It scans for devices, auto-connects to a preferred one, and
// detects disappearances.
func (m *MIDIOut) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if !m.lastRescanAt.IsZero() && now.Sub(m.lastRescanAt) < midiRescanInterval {
		return
	}
	m.lastRescanAt = now

	outputs := m.listOutputs()

	if m.connected {
		for _, n := range outputs {
			if n == m.selectedName {
				return
			}
		}
		logger.Warn("midi: device disappeared", "device", m.selectedName)
		m.closeConn()
		m.lastRescanAt = time.Time{}
		return
	}

	if len(outputs) == 0 {
		return
	}
	cand, ok := pickPreferred(outputs, m.cfg.Preferred)
	if !ok {
		return
	}
	if err := m.openByName(cand); err != nil {
		logger.Error("midi: connect failed", "device", cand, "err", err)
	}
}

func (m *MIDIOut) listOutputs() []string {
	outs, err := m.drv.Outs()
	if err != nil {
		logger.Error("midi: list outputs failed", "err", err)
		return nil
	}
	var names []string
	for _, out := range outs {
		name := out.String()
		if matchesAny(name, m.cfg.Excluded) {
			logger.Debug("midi: output excluded", "device", name)
			continue
		}
		names = append(names, name)
	}
	logger.Debug("midi: outputs found", "count", len(names), "devices", strings.Join(names, ", "))
	return names
}

func (m *MIDIOut) closeConn() {
	if m.outPort != nil {
		_ = m.outPort.Close()
		m.outPort = nil
	}
	m.send = nil
	m.connected = false
	m.selectedName = ""
}

func (m *MIDIOut) openByName(name string) error {
	outs, err := m.drv.Outs()
	if err != nil {
		return err
	}
	var found drivers.Out
	for _, out := range outs {
		if out.String() == name {
			found = out
			break
		}
	}
	if found == nil {
		return fmt.Errorf("output %q not found", name)
	}
	send, err := midi.SendTo(found)
	if err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}
	m.outPort = found
	m.send = send
	m.connected = true
	m.selectedName = name
	m.gen++
	logger.Info("midi: connected", "device", name)
	return nil
}

// -------------------- MIDISink --------------------

// MIDI channels (0-based) and controller numbers used by MIDISink.
const (
	midiChordChannel = 0
	midiBassChannel  = 1
	midiLeadChannel  = 2
	midiTrackChannel = 3 // tracks use 3..6
	midiDrumChannel  = 9

	ccVolume        = 7
	ccRotationX     = 16
	ccRotationY     = 17
	ccZoom          = 18
	ccTheta         = 19
	ccPhi           = 20
	ccAllNotesOff   = 123
	midiChordVel    = 90
	midiMaxDataByte = 127
)

var drumNotes = [NumSamples]uint8{SampleHiHat: 42, SampleKick: 36, SampleSnare: 38}

type midiSender interface {
	Send(msg midi.Message) error
	Generation() int
}

type ccKey struct{ ch, cc uint8 }

// MIDISink mirrors the audio half of the contract onto a MIDI output so an
// external synth can double the built-in one.
type MIDISink struct {
	out midiSender
	gen int

	chordOn  [NumChords]bool
	bassFreq float64
	bassNote uint8
	bassOn   bool
	cc       map[ccKey]uint8
}

func NewMIDISink(out midiSender) *MIDISink {
	return &MIDISink{out: out, gen: out.Generation(), cc: map[ccKey]uint8{}}
}

// freqToNote rounds a frequency to the nearest MIDI note.
func freqToNote(hz float64) uint8 {
	n := math.Round(69 + 12*math.Log2(hz/440))
	return uint8(clampData(n))
}

func clampData(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > midiMaxDataByte {
		return midiMaxDataByte
	}
	return v
}

func gainToVelocity(g float64) uint8 {
	return uint8(clampData(math.Round(g * midiMaxDataByte)))
}

// sync forgets device state after a reconnect.
func (m *MIDISink) sync() {
	g := m.out.Generation()
	if g == m.gen {
		return
	}
	m.gen = g
	m.chordOn = [NumChords]bool{}
	m.bassOn = false
	m.cc = map[ccKey]uint8{}
}

func (m *MIDISink) send(msg midi.Message) {
	if err := m.out.Send(msg); err != nil && !errors.Is(err, errMIDINotConnected) {
		logger.Debug("midi: send failed", "msg", msg.String(), "err", err)
	}
}

func (m *MIDISink) controlChange(ch, cc uint8, v float64) {
	val := uint8(clampData(math.Round(v)))
	k := ccKey{ch, cc}
	if old, ok := m.cc[k]; ok && old == val {
		return
	}
	m.cc[k] = val
	m.send(midi.ControlChange(ch, cc, val))
}

func (m *MIDISink) SetVolume(t Track, level float64) {
	m.sync()
	m.controlChange(midiTrackChannel+uint8(t), ccVolume, level*midiMaxDataByte)
}

func (m *MIDISink) PlaySample(s Sample, gain float64) {
	m.sync()
	vel := gainToVelocity(gain)
	if vel == 0 {
		return
	}
	m.send(midi.NoteOn(midiDrumChannel, drumNotes[s], vel))
	m.send(midi.NoteOff(midiDrumChannel, drumNotes[s]))
}

func (m *MIDISink) SetOscFreq(v Voice, hz float64) {
	if v == VoiceBass {
		m.bassFreq = hz
	}
}

func (m *MIDISink) SetOscAmp(v Voice, gain float64, ramp time.Duration) {
	m.sync()
	switch v {
	case VoiceLead:
		// a channel mode message, not a setting: never deduplicated
		if gain == 0 {
			m.send(midi.ControlChange(midiLeadChannel, ccAllNotesOff, 0))
		}
	case VoiceBass:
		m.setBass(gain)
	default:
		if c, ok := v.Chord(); ok {
			m.setChord(c, gain > 0)
		}
	}
}

func (m *MIDISink) setChord(c Chord, on bool) {
	if m.chordOn[c] == on {
		return
	}
	m.chordOn[c] = on
	for _, hz := range chordVoicings[c] {
		if on {
			m.send(midi.NoteOn(midiChordChannel, freqToNote(hz), midiChordVel))
		} else {
			m.send(midi.NoteOff(midiChordChannel, freqToNote(hz)))
		}
	}
}

func (m *MIDISink) setBass(gain float64) {
	vel := gainToVelocity(gain)
	if vel == 0 || m.bassFreq == 0 {
		if m.bassOn {
			m.send(midi.NoteOff(midiBassChannel, m.bassNote))
			m.bassOn = false
		}
		return
	}
	note := freqToNote(m.bassFreq)
	if m.bassOn && note == m.bassNote {
		return
	}
	if m.bassOn {
		m.send(midi.NoteOff(midiBassChannel, m.bassNote))
	}
	m.send(midi.NoteOn(midiBassChannel, note, vel))
	m.bassNote = note
	m.bassOn = true
}

func (m *MIDISink) SetRotation(x, y float64) {
	m.sync()
	m.controlChange(midiChordChannel, ccRotationX, scale(x, -math.Pi, math.Pi, 0, midiMaxDataByte))
	m.controlChange(midiChordChannel, ccRotationY, scale(y, -math.Pi, math.Pi, 0, midiMaxDataByte))
}

func (m *MIDISink) SetZoom(factor float64) {
	m.sync()
	m.controlChange(midiChordChannel, ccZoom, factor)
}

func (m *MIDISink) SetSliders(theta, phi float64) {
	m.sync()
	m.controlChange(midiChordChannel, ccTheta, theta)
	m.controlChange(midiChordChannel, ccPhi, phi*midiMaxDataByte/PhiMax)
}

func (m *MIDISink) ShowLabel(l Label)      {}
func (m *MIDISink) HideLabel(l Label)      {}
func (m *MIDISink) SetFFTInput(src Source) {}
func (m *MIDISink) ResetCanvas()           {}
