package main

import (
	"math"
	"sync"
	"time"
)

// Slider ranges of the on-screen controls.
const (
	ThetaMin     = 40
	ThetaMax     = 80
	ThetaDefault = 50
	PhiMin       = 2
	PhiDefault   = 2
	FlowerA      = 70
	FlowerB      = 0.8
)

// SceneState is a copy of the visual parameters for one redraw.
type SceneState struct {
	RotationX float64
	RotationY float64
	Zoom      float64
	Theta     float64
	Phi       float64
	Labels    [NumLabels]bool
	FFT       Source
	Resets    int // incremented by every ResetCanvas
}

// Visible returns the labels that are currently shown, in label order.
func (s SceneState) Visible() []Label {
	var out []Label
	for l := Label(0); l < NumLabels; l++ {
		if s.Labels[l] {
			out = append(out, l)
		}
	}
	return out
}

// Scene is the Sink the renderer reads from. Writes come from the presenter
// goroutine, reads from the render loop.
type Scene struct {
	mu sync.Mutex
	st SceneState
}

func NewScene() *Scene {
	return &Scene{st: SceneState{Zoom: 1, Theta: ThetaDefault, Phi: PhiDefault}}
}

func (s *Scene) Snapshot() SceneState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// sliderValue behaves like a range input: the value is clamped to
// [lo,hi] and snapped to an integer step.
func sliderValue(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *Scene) SetRotation(x, y float64) {
	s.mu.Lock()
	s.st.RotationX, s.st.RotationY = x, y
	s.mu.Unlock()
}

func (s *Scene) SetZoom(factor float64) {
	s.mu.Lock()
	s.st.Zoom = factor
	s.mu.Unlock()
}

func (s *Scene) SetSliders(theta, phi float64) {
	s.mu.Lock()
	s.st.Theta = sliderValue(theta, ThetaMin, ThetaMax)
	s.st.Phi = sliderValue(phi, PhiMin, PhiMax)
	s.mu.Unlock()
}

func (s *Scene) ShowLabel(l Label) {
	s.mu.Lock()
	s.st.Labels[l] = true
	s.mu.Unlock()
}

func (s *Scene) HideLabel(l Label) {
	s.mu.Lock()
	s.st.Labels[l] = false
	s.mu.Unlock()
}

func (s *Scene) SetFFTInput(src Source) {
	s.mu.Lock()
	s.st.FFT = src
	s.mu.Unlock()
}

func (s *Scene) ResetCanvas() {
	s.mu.Lock()
	s.st.Resets++
	s.mu.Unlock()
}

func (s *Scene) SetVolume(t Track, level float64)                    {}
func (s *Scene) PlaySample(smp Sample, gain float64)                 {}
func (s *Scene) SetOscFreq(v Voice, hz float64)                      {}
func (s *Scene) SetOscAmp(v Voice, gain float64, ramp time.Duration) {}
