// Package midiin feeds live MIDI notes and mixer CCs into the engine's
// command surface. It owns the port lifecycle; incoming messages are
// translated on the MIDI driver's callback goroutine and dropped when
// the listener falls behind.
package midiin

import (
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Common mixer CC numbers.
const (
	CCVolume uint8 = 7
	CCPan    uint8 = 10
)

// Sink receives translated MIDI input. Implemented by the engine facade
// binding in the front-ends.
type Sink interface {
	NoteOn(pitch int, velocity float64)
	NoteOff(pitch int)
	SetVolume(v float64)
	SetPan(p float64)
}

// Handler listens on one MIDI input port.
type Handler struct {
	mu        sync.Mutex
	inPort    drivers.In
	stopFunc  func()
	sink      Sink
	connected bool
}

// NewHandler creates a disconnected handler targeting a sink.
func NewHandler(sink Sink) *Handler {
	return &Handler{sink: sink}
}

// InputPorts returns the available MIDI input ports.
func InputPorts() []drivers.In {
	return midi.GetInPorts()
}

// Connect starts listening on the given port.
func (h *Handler) Connect(inPort drivers.In) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connected {
		h.disconnect()
	}
	stop, err := midi.ListenTo(inPort, h.handle)
	if err != nil {
		return fmt.Errorf("midiin: listen on %s: %w", inPort, err)
	}
	h.inPort = inPort
	h.stopFunc = stop
	h.connected = true
	return nil
}

func (h *Handler) handle(msg midi.Message, _ int32) {
	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		if vel == 0 {
			h.sink.NoteOff(int(key))
		} else {
			h.sink.NoteOn(int(key), float64(vel)/127)
		}
	case msg.GetNoteOff(&ch, &key, &vel):
		h.sink.NoteOff(int(key))
	case msg.GetControlChange(&ch, &cc, &val):
		switch cc {
		case CCVolume:
			h.sink.SetVolume(float64(val) / 127 * 2)
		case CCPan:
			h.sink.SetPan(float64(val)/63.5 - 1)
		}
	}
}

func (h *Handler) disconnect() {
	if h.stopFunc != nil {
		h.stopFunc()
		h.stopFunc = nil
	}
	h.connected = false
}

// Close stops listening.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnect()
}

// IsConnected reports the connection state.
func (h *Handler) IsConnected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

// PortName names the connected input port.
func (h *Handler) PortName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inPort != nil {
		return h.inPort.String()
	}
	return "None"
}
