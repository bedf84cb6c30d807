package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	NumButtons = 3
	NumFields  = 9
	FrameStart = '<'
	FrameEnd   = '>'
)

// Field order on the wire.
const (
	fieldButton0 = iota
	fieldButton1
	fieldButton2
	fieldRotaryA
	fieldAccelX
	fieldAccelY
	fieldRotaryB
	fieldVolume
	fieldMode
)

var fieldNames = [NumFields]string{
	"button0", "button1", "button2", "rotaryA", "accelX", "accelY", "rotaryB", "volume", "mode",
}

var (
	ErrFieldCount    = errors.New("field count mismatch")
	ErrNumericFormat = errors.New("numeric format")
)

// ParseError describes a rejected frame. It unwraps to ErrFieldCount or
// ErrNumericFormat, and to the strconv error when there is one.
type ParseError struct {
	Kind  error
	Field int // index of the offending field, -1 for count errors
	Token string
	Count int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Kind == ErrFieldCount {
		return fmt.Sprintf("frame: %v: got %d fields, want %d", e.Kind, e.Count, NumFields)
	}
	return fmt.Sprintf("frame: %v: %s=%q", e.Kind, fieldNames[e.Field], e.Token)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ControlState is one decoded controller sample. It is built per frame and
// never kept across frames.
type ControlState struct {
	Buttons [NumButtons]bool
	RotaryA int
	AccelX  int
	AccelY  int
	RotaryB int
	Volume  float64
	Mode    int
}

// ParseFrame decodes a wrapped record such as "<1,0,0,60,0,0,3,0.5,1>".
// The first and last characters are dropped whatever they are, multi-byte
// runes included. On error the zero ControlState is returned and must not be
// applied.
func ParseFrame(raw string) (ControlState, error) {
	if utf8.RuneCountInString(raw) < 2 {
		return ControlState{}, &ParseError{Kind: ErrFieldCount, Field: -1, Count: 0}
	}
	_, head := utf8.DecodeRuneInString(raw)
	_, tail := utf8.DecodeLastRuneInString(raw)
	fields := strings.Split(raw[head:len(raw)-tail], ",")
	if len(fields) != NumFields {
		return ControlState{}, &ParseError{Kind: ErrFieldCount, Field: -1, Count: len(fields)}
	}

	var cs ControlState
	for i := 0; i < NumButtons; i++ {
		cs.Buttons[i] = fields[i] == "1"
	}

	ints := []struct {
		idx int
		dst *int
	}{
		{fieldRotaryA, &cs.RotaryA},
		{fieldAccelX, &cs.AccelX},
		{fieldAccelY, &cs.AccelY},
		{fieldRotaryB, &cs.RotaryB},
		{fieldMode, &cs.Mode},
	}
	for _, f := range ints {
		tok := strings.TrimSpace(fields[f.idx])
		v, err := strconv.Atoi(tok)
		if err != nil {
			return ControlState{}, &ParseError{Kind: ErrNumericFormat, Field: f.idx, Token: fields[f.idx], Err: err}
		}
		*f.dst = v
	}

	tok := strings.TrimSpace(fields[fieldVolume])
	vol, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return ControlState{}, &ParseError{Kind: ErrNumericFormat, Field: fieldVolume, Token: fields[fieldVolume], Err: err}
	}
	if math.IsNaN(vol) || math.IsInf(vol, 0) {
		return ControlState{}, &ParseError{Kind: ErrNumericFormat, Field: fieldVolume, Token: fields[fieldVolume]}
	}
	cs.Volume = vol
	return cs, nil
}

// Encode builds the on-wire representation:
//
//	<b0,b1,b2,rotaryA,accelX,accelY,rotaryB,volume,mode>
func (cs ControlState) Encode() string {
	var b strings.Builder
	b.WriteByte(FrameStart)
	for i := 0; i < NumButtons; i++ {
		if cs.Buttons[i] {
			b.WriteString("1,")
		} else {
			b.WriteString("0,")
		}
	}
	for _, v := range []int{cs.RotaryA, cs.AccelX, cs.AccelY, cs.RotaryB} {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
	b.WriteString(strconv.FormatFloat(cs.Volume, 'g', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(cs.Mode))
	b.WriteByte(FrameEnd)
	return b.String()
}

// AllPressed reports the three-button reset gesture.
func (cs ControlState) AllPressed() bool {
	return cs.Buttons[0] && cs.Buttons[1] && cs.Buttons[2]
}
