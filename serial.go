package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const serialRescanInterval = 1000 * time.Millisecond

// maxFrameLen bounds one line; anything longer is not a controller frame.
const maxFrameLen = 4096

// SerialWatcher keeps a connection to the controller's serial port. It
// handles hot-plug (port appears) and hot-unplug (read fails) and delivers
// every received line as an Event.
type SerialWatcher struct {
	mu           sync.Mutex
	cfg          SerialConfig
	port         io.ReadCloser
	selectedName string
	connected    bool
	lastRescanAt time.Time

	events chan<- Event
	done   chan struct{}

	listPorts func() ([]string, error)
	openPort  func(name string, baud int) (io.ReadCloser, error)
}

// NewSerialWatcher creates a watcher that sends to events. Call Close() when
// done.
func NewSerialWatcher(cfg SerialConfig, events chan<- Event) *SerialWatcher {
	return &SerialWatcher{
		cfg:       cfg,
		events:    events,
		done:      make(chan struct{}),
		listPorts: serial.GetPortsList,
		openPort:  openSerialPort,
	}
}

func openSerialPort(name string, baud int) (io.ReadCloser, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Close shuts the port and stops delivering events.
func (w *SerialWatcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}
	close(w.done)
	w.closeConn()
}

// Rescan makes the next Tick scan immediately.
func (w *SerialWatcher) Rescan() {
	w.mu.Lock()
	w.lastRescanAt = time.Time{}
	w.mu.Unlock()
}

// Connected reports whether a port is open.
func (w *SerialWatcher) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

// Tick should be called on a regular interval from the main loop. It scans
// for ports and connects to the preferred one.
func (w *SerialWatcher) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if !w.lastRescanAt.IsZero() && now.Sub(w.lastRescanAt) < serialRescanInterval {
		return
	}
	w.lastRescanAt = now
	if w.connected {
		return
	}

	var cand string
	if w.cfg.Device != "" {
		cand = w.cfg.Device
	} else {
		ports := w.listInputs()
		if len(ports) == 0 {
			return
		}
		var ok bool
		cand, ok = pickPreferred(ports, w.cfg.Preferred)
		if !ok {
			logger.Debug("serial: no preferred port", "available", strings.Join(ports, ", "))
			return
		}
	}
	if err := w.openByName(cand); err != nil {
		logger.Warn("serial: connect failed", "port", cand, "err", err)
		w.emit(Event{Kind: EventError, Port: cand, Err: err})
	}
}

// Run ticks until Close is called.
func (w *SerialWatcher) Run() {
	ticker := time.NewTicker(serialRescanInterval / 4)
	defer ticker.Stop()
	w.Tick()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.Tick()
		}
	}
}

// -------------------- internal --------------------

func (w *SerialWatcher) listInputs() []string {
	ports, err := w.listPorts()
	if err != nil {
		logger.Error("serial: list ports failed", "err", err)
		return nil
	}
	var names []string
	for _, name := range ports {
		if matchesAny(name, w.cfg.Excluded) {
			logger.Debug("serial: port excluded", "port", name)
			continue
		}
		names = append(names, name)
	}
	return names
}

// emit delivers ev unless the watcher is closed. Callers may hold w.mu.
func (w *SerialWatcher) emit(ev Event) {
	select {
	case w.events <- ev:
	case <-w.done:
	}
}

func (w *SerialWatcher) closeConn() {
	if w.port != nil {
		_ = w.port.Close()
		w.port = nil
	}
	w.connected = false
	w.selectedName = ""
}

func (w *SerialWatcher) openByName(name string) error {
	p, err := w.openPort(name, w.cfg.Baud)
	if err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}
	w.port = p
	w.connected = true
	w.selectedName = name
	logger.Info("serial: connected", "port", name, "baud", w.cfg.Baud)
	w.emit(Event{Kind: EventOpened, Port: name})

	go w.readLoop(p, name)
	return nil
}

func (w *SerialWatcher) readLoop(p io.ReadCloser, name string) {
	err := scanFrames(p, func(line string) bool {
		select {
		case w.events <- Event{Kind: EventFrame, Raw: line, Port: name}:
			return true
		case <-w.done:
			return false
		}
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.port != p {
		// closed on purpose, or already replaced
		return
	}
	logger.Warn("serial: read failed, device likely disconnected", "port", name, "err", err)
	w.emit(Event{Kind: EventError, Port: name, Err: err})
	w.closeConn()
	w.lastRescanAt = time.Time{}
	w.emit(Event{Kind: EventClosed, Port: name})
}

// scanFrames calls emit for every non-empty line of r until emit returns
// false or r fails. CRLF line ends are accepted. A line longer than
// maxFrameLen is dropped up to its newline and scanning goes on.
func scanFrames(r io.Reader, emit func(string) bool) error {
	br := bufio.NewReaderSize(r, maxFrameLen)
	skipping := false
	for {
		chunk, err := br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			if !skipping {
				logger.Debug("serial: dropping over-long line", "limit", maxFrameLen)
			}
			skipping = true
			continue
		}
		if err != nil && err != io.EOF {
			return err
		}
		if skipping {
			// tail of the dropped line
			skipping = false
		} else if line := strings.TrimSpace(string(chunk)); line != "" {
			if !emit(line) {
				return nil
			}
		}
		if err != nil {
			return err
		}
	}
}

// -------------------- utility --------------------

func pickPreferred(names, patterns []string) (string, bool) {
	for _, pat := range patterns {
		for _, name := range names {
			if containsCI(name, pat) {
				return name, true
			}
		}
	}
	if len(names) == 1 {
		return names[0], true
	}
	return "", false
}

func matchesAny(name string, patterns []string) bool {
	for _, pat := range patterns {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
