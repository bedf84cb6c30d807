package main

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestScanFrames(t *testing.T) {
	in := "<1,0,0,60,0,0,3,0.5,1>\r\n\n  \n<0,0,0,40,0,0,2,0,0>\n<partial"
	var got []string
	err := scanFrames(strings.NewReader(in), func(s string) bool {
		got = append(got, s)
		return true
	})
	if err != io.EOF {
		t.Fatalf("err = %v; want io.EOF", err)
	}
	want := []string{"<1,0,0,60,0,0,3,0.5,1>", "<0,0,0,40,0,0,2,0,0>", "<partial"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("frames = %q; want %q", got, want)
	}
}

func TestScanFramesStop(t *testing.T) {
	n := 0
	err := scanFrames(strings.NewReader("a\nb\nc\n"), func(string) bool {
		n++
		return n < 2
	})
	if err != nil || n != 2 {
		t.Fatalf("err = %v, n = %d; want nil, 2", err, n)
	}
}

func TestScanFramesSkipsLongLines(t *testing.T) {
	in := "<1,0,0,60,0,0,3,0.5,1>\n" +
		strings.Repeat("x", 3*maxFrameLen+10) + "\n" +
		"<0,0,0,40,0,0,2,0,0>\n" +
		strings.Repeat("y", maxFrameLen+1)
	var got []string
	err := scanFrames(strings.NewReader(in), func(s string) bool {
		got = append(got, s)
		return true
	})
	if err != io.EOF {
		t.Fatalf("err = %v; want io.EOF", err)
	}
	want := []string{"<1,0,0,60,0,0,3,0.5,1>", "<0,0,0,40,0,0,2,0,0>"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("frames = %q; want %q", got, want)
	}
}

func TestPickPreferred(t *testing.T) {
	tests := []struct {
		names    []string
		patterns []string
		want     string
		ok       bool
	}{
		{[]string{"/dev/ttyS0", "/dev/ttyACM0"}, []string{"usbmodem", "ttyACM"}, "/dev/ttyACM0", true},
		{[]string{"/dev/cu.usbmodem14101", "/dev/ttyACM0"}, []string{"usbmodem", "ttyACM"}, "/dev/cu.usbmodem14101", true},
		{[]string{"COM3"}, nil, "COM3", true},
		{[]string{"/dev/ttyS0", "/dev/ttyS1"}, []string{"usbmodem"}, "", false},
		{nil, []string{"usbmodem"}, "", false},
		{[]string{"/dev/TTYACM1"}, []string{"ttyacm"}, "/dev/TTYACM1", true},
	}
	for _, tc := range tests {
		got, ok := pickPreferred(tc.names, tc.patterns)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("pickPreferred(%v, %v) = %q, %v; want %q, %v", tc.names, tc.patterns, got, ok, tc.want, tc.ok)
		}
	}
}

// fakePort is an in-memory serial port fed through a pipe.
type fakePort struct {
	*io.PipeReader
	w *io.PipeWriter
}

func newFakePort() *fakePort {
	r, w := io.Pipe()
	return &fakePort{PipeReader: r, w: w}
}

func (p *fakePort) Close() error {
	p.w.Close()
	return p.PipeReader.Close()
}

type fakeSerial struct {
	mu     sync.Mutex
	ports  []string
	opened []string
	port   *fakePort
	fail   error
}

func (f *fakeSerial) list() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ports, nil
}

func (f *fakeSerial) open(name string, baud int) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	f.opened = append(f.opened, name)
	f.port = newFakePort()
	return f.port, nil
}

func newTestWatcher(cfg SerialConfig, fs *fakeSerial) (*SerialWatcher, chan Event) {
	events := make(chan Event, 16)
	w := NewSerialWatcher(cfg, events)
	w.listPorts = fs.list
	w.openPort = fs.open
	return w, events
}

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
	}
	return Event{}
}

func TestSerialWatcherLifecycle(t *testing.T) {
	fs := &fakeSerial{ports: []string{"/dev/ttyS0", "/dev/bluetooth-debug", "/dev/ttyACM0"}}
	cfg := DefaultConfig().Serial
	w, events := newTestWatcher(cfg, fs)
	defer w.Close()

	w.Tick()
	if ev := nextEvent(t, events); ev.Kind != EventOpened || ev.Port != "/dev/ttyACM0" {
		t.Fatalf("event = %+v; want opened /dev/ttyACM0", ev)
	}
	if !w.Connected() {
		t.Fatal("not connected after open")
	}

	go fs.port.w.Write([]byte("<1,0,0,60,0,0,3,0.5,1>\n"))
	if ev := nextEvent(t, events); ev.Kind != EventFrame || ev.Raw != "<1,0,0,60,0,0,3,0.5,1>" {
		t.Fatalf("event = %+v; want the frame", ev)
	}

	// unplug
	fs.port.w.CloseWithError(errors.New("device gone"))
	ev := nextEvent(t, events)
	if ev.Kind != EventError || ev.Err == nil || ev.Err.Error() != "device gone" {
		t.Fatalf("event = %+v; want read error", ev)
	}
	if ev := nextEvent(t, events); ev.Kind != EventClosed {
		t.Fatalf("event = %+v; want closed", ev)
	}
	if w.Connected() {
		t.Fatal("still connected after unplug")
	}

	// replug: the rescan timer was reset, so the next Tick reconnects
	w.Tick()
	if ev := nextEvent(t, events); ev.Kind != EventOpened {
		t.Fatalf("event = %+v; want reopened", ev)
	}
	if len(fs.opened) != 2 {
		t.Fatalf("opened %v", fs.opened)
	}
}

func TestSerialWatcherSurvivesLineNoise(t *testing.T) {
	fs := &fakeSerial{ports: []string{"/dev/ttyACM0"}}
	w, events := newTestWatcher(DefaultConfig().Serial, fs)
	defer w.Close()

	w.Tick()
	if ev := nextEvent(t, events); ev.Kind != EventOpened {
		t.Fatalf("event = %+v; want opened", ev)
	}
	go fs.port.w.Write([]byte(strings.Repeat("\xff", 2*maxFrameLen) + "\n<0,1,0,60,0,0,3,0.5,1>\n"))
	if ev := nextEvent(t, events); ev.Kind != EventFrame || ev.Raw != "<0,1,0,60,0,0,3,0.5,1>" {
		t.Fatalf("event = %+v; want the frame after the noise", ev)
	}
	if !w.Connected() {
		t.Fatal("disconnected by an over-long line")
	}
}

func TestSerialWatcherConfiguredDevice(t *testing.T) {
	fs := &fakeSerial{}
	cfg := DefaultConfig().Serial
	cfg.Device = "/dev/custom"
	w, events := newTestWatcher(cfg, fs)
	defer w.Close()

	w.Tick()
	if ev := nextEvent(t, events); ev.Kind != EventOpened || ev.Port != "/dev/custom" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestSerialWatcherOpenFailure(t *testing.T) {
	fs := &fakeSerial{ports: []string{"/dev/ttyACM0"}, fail: errors.New("permission denied")}
	w, events := newTestWatcher(DefaultConfig().Serial, fs)
	defer w.Close()

	w.Tick()
	ev := nextEvent(t, events)
	if ev.Kind != EventError || !strings.Contains(ev.Err.Error(), "permission denied") {
		t.Fatalf("event = %+v; want open error", ev)
	}
	if w.Connected() {
		t.Fatal("connected after failed open")
	}

	// rate limited until Rescan
	w.Tick()
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v before rescan interval", ev)
	default:
	}
	w.Rescan()
	w.Tick()
	if ev := nextEvent(t, events); ev.Kind != EventError {
		t.Fatalf("event = %+v; want another attempt after Rescan", ev)
	}
}

func TestSerialWatcherCloseIsQuiet(t *testing.T) {
	fs := &fakeSerial{ports: []string{"/dev/ttyACM0"}}
	w, events := newTestWatcher(DefaultConfig().Serial, fs)

	w.Tick()
	nextEvent(t, events)
	w.Close()
	w.Close()

	select {
	case ev := <-events:
		t.Fatalf("event %+v after Close", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSerialWatcherNoPorts(t *testing.T) {
	fs := &fakeSerial{ports: []string{"/dev/ttyS0", "/dev/ttyS1"}}
	w, events := newTestWatcher(DefaultConfig().Serial, fs)
	defer w.Close()
	w.Tick()
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
	if len(fs.opened) != 0 {
		t.Fatalf("opened %v without a preferred port", fs.opened)
	}
}
