package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusOnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700")).Padding(0, 1)
	statusOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Padding(0, 1)
	statusWarn     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	statusDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// StatusPanel prints the on-screen labels to a terminal. It redraws only
// when what it shows has changed.
type StatusPanel struct {
	w      io.Writer
	labels [NumLabels]bool
	chord  string
	fft    Source
	last   string
}

func NewStatusPanel(w io.Writer) *StatusPanel {
	return &StatusPanel{w: w}
}

// Render returns the panel text.
func (p *StatusPanel) Render() string {
	var cells []string
	for l := Label(0); l < LabelSerial; l++ {
		if p.labels[l] {
			cells = append(cells, statusOnStyle.Render(l.String()))
		} else {
			cells = append(cells, statusOffStyle.Render(l.String()))
		}
	}
	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	b.WriteString("\n")
	chord := p.chord
	if chord == "" {
		chord = "-"
	}
	b.WriteString(statusDim.Render(fmt.Sprintf("chord %s  fft %s", chord, p.fft)))
	if p.labels[LabelSerial] {
		b.WriteString("\n")
		b.WriteString(statusWarn.Render("serial disconnected, waiting for controller"))
	}
	return b.String()
}

func (p *StatusPanel) flush() {
	out := p.Render()
	if out == p.last {
		return
	}
	p.last = out
	fmt.Fprintln(p.w, out)
}

func (p *StatusPanel) ShowLabel(l Label) {
	if !p.labels[l] {
		p.labels[l] = true
		p.flush()
	}
}

func (p *StatusPanel) HideLabel(l Label) {
	if p.labels[l] {
		p.labels[l] = false
		p.flush()
	}
}

func (p *StatusPanel) SetOscAmp(v Voice, gain float64, ramp time.Duration) {
	c, ok := v.Chord()
	if !ok {
		return
	}
	switch {
	case gain > 0:
		p.chord = c.String()
	case p.chord == c.String():
		p.chord = ""
	default:
		return
	}
	p.flush()
}

func (p *StatusPanel) SetFFTInput(src Source) {
	if p.fft != src {
		p.fft = src
		p.flush()
	}
}

func (p *StatusPanel) SetVolume(t Track, level float64)  {}
func (p *StatusPanel) PlaySample(s Sample, gain float64) {}
func (p *StatusPanel) SetOscFreq(v Voice, hz float64)    {}
func (p *StatusPanel) SetRotation(x, y float64)          {}
func (p *StatusPanel) SetZoom(factor float64)            {}
func (p *StatusPanel) SetSliders(theta, phi float64)     {}
func (p *StatusPanel) ResetCanvas()                      {}
