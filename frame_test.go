package main

import (
	"errors"
	"strconv"
	"testing"
)

func TestParseFrame(t *testing.T) {
	got, err := ParseFrame("<1,0,0,60,0,0,3,0.5,1>")
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	want := ControlState{
		Buttons: [NumButtons]bool{true, false, false},
		RotaryA: 60,
		RotaryB: 3,
		Volume:  0.5,
		Mode:    1,
	}
	if got != want {
		t.Fatalf("ParseFrame = %+v; want %+v", got, want)
	}
}

func TestParseFrameButtonsArePermissive(t *testing.T) {
	tests := []struct {
		raw  string
		want [NumButtons]bool
	}{
		{"<1,1,1,60,0,0,1,0.5,1>", [NumButtons]bool{true, true, true}},
		{"<true,yes,,60,0,0,1,0.5,1>", [NumButtons]bool{false, false, false}},
		{"<0,1,2,60,0,0,1,0.5,1>", [NumButtons]bool{false, true, false}},
		{"< 1,1 ,01,60,0,0,1,0.5,1>", [NumButtons]bool{false, false, false}},
	}
	for _, tc := range tests {
		cs, err := ParseFrame(tc.raw)
		if err != nil {
			t.Fatalf("ParseFrame(%q): %v", tc.raw, err)
		}
		if cs.Buttons != tc.want {
			t.Fatalf("ParseFrame(%q).Buttons = %v; want %v", tc.raw, cs.Buttons, tc.want)
		}
	}
}

func TestParseFrameWrapperIsNotChecked(t *testing.T) {
	cs, err := ParseFrame("[0,0,1,45,-10,20,7,1,2]")
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if cs.RotaryA != 45 || cs.AccelX != -10 || cs.AccelY != 20 || cs.RotaryB != 7 || cs.Mode != 2 {
		t.Fatalf("unexpected state %+v", cs)
	}
}

func TestParseFrameMultiByteWrapper(t *testing.T) {
	cs, err := ParseFrame("«1,0,0,60,0,0,3,0.5,1»")
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if !cs.Buttons[0] || cs.RotaryA != 60 || cs.RotaryB != 3 || cs.Mode != 1 {
		t.Fatalf("unexpected state %+v", cs)
	}
}

func TestParseFrameNumericFieldsAllowSpaces(t *testing.T) {
	cs, err := ParseFrame("<0,0,0, 60 ,0,0,3, 0.25 ,1>")
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if cs.RotaryA != 60 || cs.Volume != 0.25 {
		t.Fatalf("unexpected state %+v", cs)
	}
}

func TestParseFrameErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  error
		field int
	}{
		{"EightFields", "<1,0,0,60,0,0,3,0.5>", ErrFieldCount, -1},
		{"TenFields", "<1,0,0,60,0,0,3,0.5,1,9>", ErrFieldCount, -1},
		{"Empty", "", ErrFieldCount, -1},
		{"OnlyWrapper", "<>", ErrFieldCount, -1},
		{"SingleChar", "<", ErrFieldCount, -1},
		{"SingleRune", "«", ErrFieldCount, -1},
		{"RotaryANotNumber", "<1,0,0,abc,0,0,1,0,1>", ErrNumericFormat, fieldRotaryA},
		{"AccelXEmpty", "<1,0,0,60,,0,1,0,1>", ErrNumericFormat, fieldAccelX},
		{"AccelYFloat", "<1,0,0,60,0,1.5,1,0,1>", ErrNumericFormat, fieldAccelY},
		{"RotaryBNotNumber", "<1,0,0,60,0,0,x,0,1>", ErrNumericFormat, fieldRotaryB},
		{"VolumeNotNumber", "<1,0,0,60,0,0,1,loud,1>", ErrNumericFormat, fieldVolume},
		{"VolumeNaN", "<1,0,0,60,0,0,1,NaN,1>", ErrNumericFormat, fieldVolume},
		{"VolumeInf", "<1,0,0,60,0,0,1,+Inf,1>", ErrNumericFormat, fieldVolume},
		{"ModeNotNumber", "<1,0,0,60,0,0,1,0.5,m>", ErrNumericFormat, fieldMode},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cs, err := ParseFrame(tc.raw)
			if err == nil {
				t.Fatalf("ParseFrame(%q) = %+v; want error", tc.raw, cs)
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("ParseFrame(%q) error %v; want %v", tc.raw, err, tc.kind)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("ParseFrame(%q) error %T; want *ParseError", tc.raw, err)
			}
			if pe.Field != tc.field {
				t.Fatalf("ParseFrame(%q) field = %d; want %d", tc.raw, pe.Field, tc.field)
			}
			if cs != (ControlState{}) {
				t.Fatalf("ParseFrame(%q) returned partial state %+v", tc.raw, cs)
			}
		})
	}
}

func TestParseErrorUnwrapsStrconv(t *testing.T) {
	_, err := ParseFrame("<1,0,0,abc,0,0,1,0,1>")
	if !errors.Is(err, strconv.ErrSyntax) {
		t.Fatalf("error %v does not wrap strconv.ErrSyntax", err)
	}
	if got := err.Error(); got != `frame: numeric format: rotaryA="abc"` {
		t.Fatalf("Error() = %q", got)
	}
}

func TestParseErrorCountMessage(t *testing.T) {
	_, err := ParseFrame("<1,0,0,60,0,0,3,0.5>")
	if got := err.Error(); got != "frame: field count mismatch: got 8 fields, want 9" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestControlStateRoundTrip(t *testing.T) {
	states := []ControlState{
		{},
		{Buttons: [NumButtons]bool{true, false, true}, RotaryA: 60, AccelX: -200, AccelY: 199, RotaryB: 3, Volume: 0.5, Mode: 1},
		{Buttons: [NumButtons]bool{true, true, true}, RotaryA: 1000, AccelX: 12, AccelY: -7, RotaryB: 99, Volume: 0.123456789, Mode: 3},
		{RotaryA: -5, Volume: 1e-9, Mode: -1},
	}
	for _, cs := range states {
		raw := cs.Encode()
		got, err := ParseFrame(raw)
		if err != nil {
			t.Fatalf("ParseFrame(%q): %v", raw, err)
		}
		if got != cs {
			t.Fatalf("ParseFrame(%q) = %+v; want %+v", raw, got, cs)
		}
	}
}

func TestEncode(t *testing.T) {
	cs := ControlState{Buttons: [NumButtons]bool{true}, RotaryA: 60, RotaryB: 3, Volume: 0.5, Mode: 1}
	if got, want := cs.Encode(), "<1,0,0,60,0,0,3,0.5,1>"; got != want {
		t.Fatalf("Encode() = %q; want %q", got, want)
	}
}
