package main

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Scope keeps the last N samples of the analysis source, like a waveform
// readout of an FFT node. It is not safe for concurrent use; Engine guards it.
type Scope struct {
	buf []float32
	w   int
	sq  []float32
}

func NewScope(n int) *Scope {
	return &Scope{buf: make([]float32, n), sq: make([]float32, n)}
}

func (s *Scope) Write(block []float32) {
	n := len(s.buf)
	if len(block) >= n {
		copy(s.buf, block[len(block)-n:])
		s.w = 0
		return
	}
	for _, v := range block {
		s.buf[s.w] = v
		s.w++
		if s.w == n {
			s.w = 0
		}
	}
}

func (s *Scope) Reset() {
	vek32.Zeros_Into(s.buf, len(s.buf))
	s.w = 0
}

// Snapshot returns the window oldest-first, reusing dst when it is large
// enough.
func (s *Scope) Snapshot(dst []float32) []float32 {
	n := len(s.buf)
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	k := copy(dst, s.buf[s.w:])
	copy(dst[k:], s.buf[:s.w])
	return dst
}

// RMS of the whole window.
func (s *Scope) RMS() float32 {
	sq := vek32.Mul_Into(s.sq, s.buf, s.buf)
	return float32(math.Sqrt(float64(vek32.Mean(sq))))
}
