package main

import (
	"fmt"
	"net"
	"time"

	goosc "github.com/scgolang/osc"
)

const oscPrefix = "/doremi"

// oscPacket is a message before it is bound to the library types.
type oscPacket struct {
	addr string
	args []any // int32, float32, string or bool
}

func (p oscPacket) message() goosc.Message {
	m := goosc.Message{Address: p.addr}
	for _, a := range p.args {
		switch v := a.(type) {
		case int32:
			m.Arguments = append(m.Arguments, goosc.Int(v))
		case float32:
			m.Arguments = append(m.Arguments, goosc.Float(v))
		case string:
			m.Arguments = append(m.Arguments, goosc.String(v))
		case bool:
			m.Arguments = append(m.Arguments, goosc.Bool(v))
		}
	}
	return m
}

// OSCSink publishes every parameter write as an OSC message so external
// visual tools can follow the controller.
type OSCSink struct {
	conn *goosc.UDPConn
	out  func(oscPacket) error
}

// DialOSC connects a UDP client to addr ("host:port").
func DialOSC(addr string) (*OSCSink, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("osc: resolve %s: %w", addr, err)
	}
	conn, err := goosc.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("osc: dial %s: %w", addr, err)
	}
	logger.Info("osc: sending", "addr", addr)
	s := &OSCSink{conn: conn}
	s.out = func(p oscPacket) error { return conn.Send(p.message()) }
	return s, nil
}

func (s *OSCSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *OSCSink) emit(addr string, args ...any) {
	if err := s.out(oscPacket{addr: oscPrefix + addr, args: args}); err != nil {
		logger.Debug("osc: send failed", "addr", addr, "err", err)
	}
}

func (s *OSCSink) SetVolume(t Track, level float64) {
	s.emit("/volume/"+t.String(), float32(level))
}

func (s *OSCSink) PlaySample(smp Sample, gain float64) {
	s.emit("/sample/"+smp.String(), float32(gain))
}

func (s *OSCSink) SetOscFreq(v Voice, hz float64) {
	s.emit("/osc/"+voiceSlug(v)+"/freq", float32(hz))
}

func (s *OSCSink) SetOscAmp(v Voice, gain float64, ramp time.Duration) {
	s.emit("/osc/"+voiceSlug(v)+"/amp", float32(gain), float32(ramp.Seconds()))
}

func (s *OSCSink) SetRotation(x, y float64) {
	s.emit("/rotation", float32(x), float32(y))
}

func (s *OSCSink) SetZoom(factor float64) {
	s.emit("/zoom", float32(factor))
}

func (s *OSCSink) SetSliders(theta, phi float64) {
	s.emit("/sliders", float32(theta), float32(phi))
}

func (s *OSCSink) ShowLabel(l Label) {
	s.emit("/label/"+labelSlug(l), true)
}

func (s *OSCSink) HideLabel(l Label) {
	s.emit("/label/"+labelSlug(l), false)
}

func (s *OSCSink) SetFFTInput(src Source) {
	s.emit("/fft", src.String())
}

func (s *OSCSink) ResetCanvas() {
	s.emit("/reset", int32(1))
}

// labelSlug turns a label into an address segment ("Lead 1" -> "lead1").
func labelSlug(l Label) string {
	if l == LabelSerial {
		return "serial"
	}
	return slug(l.String())
}

func voiceSlug(v Voice) string {
	if c, ok := v.Chord(); ok {
		return "chord/" + slug(c.String())
	}
	return v.String()
}

// slug keeps lowercase letters and digits.
func slug(s string) string {
	var b []byte
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			b = append(b, byte(r-'A'+'a'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b = append(b, byte(r))
		}
	}
	return string(b)
}
