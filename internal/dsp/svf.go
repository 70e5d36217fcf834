// Package dsp holds the shared per-voice building blocks: the Chamberlin
// state-variable filter and the linear ADSR envelope.
package dsp

import "math"

// FilterMode selects the SVF output tap.
type FilterMode uint8

const (
	ModeLP FilterMode = iota
	ModeHP
	ModeBP
	ModeNotch
)

// SVF is a Chamberlin state-variable filter. The difference equations run
// twice per sample at half the coefficient, which keeps the topology
// stable up to 0.45·sampleRate.
type SVF struct {
	sampleRate float64
	cutoff     float64
	resonance  float64
	mode       FilterMode
	f          float64
	q          float64
	lp, bp     float64
	dirty      bool
}

// NewSVF returns a lowpass SVF at 1 kHz, resonance 1.
func NewSVF() *SVF {
	return &SVF{cutoff: 1000, resonance: 1, dirty: true}
}

func (s *SVF) Init(sampleRate int) {
	s.sampleRate = float64(sampleRate)
	s.lp, s.bp = 0, 0
	s.dirty = true
}

// SetCutoff sets the cutoff in Hz, clamped to [20, 0.45·sampleRate].
func (s *SVF) SetCutoff(hz float64) {
	hi := s.sampleRate * 0.45
	if hi <= 20 {
		hi = 20000
	}
	hz = clamp(hz, 20, hi)
	if hz != s.cutoff {
		s.cutoff = hz
		s.dirty = true
	}
}

// SetResonance sets the resonance in [0.5, 10].
func (s *SVF) SetResonance(r float64) {
	r = clamp(r, 0.5, 10)
	if r != s.resonance {
		s.resonance = r
		s.dirty = true
	}
}

func (s *SVF) SetMode(m FilterMode) { s.mode = m }

// Mode returns the current output tap.
func (s *SVF) Mode() FilterMode { return s.mode }

// Cutoff returns the current cutoff in Hz.
func (s *SVF) Cutoff() float64 { return s.cutoff }

func (s *SVF) update() {
	// Half-rate coefficient for the double-pass form.
	s.f = 2 * math.Sin(math.Pi*s.cutoff/(2*s.sampleRate))
	s.q = 1.0 / s.resonance
	s.dirty = false
}

// Process filters one sample.
func (s *SVF) Process(in float64) float64 {
	if s.dirty {
		s.update()
	}
	var hp float64
	for pass := 0; pass < 2; pass++ {
		hp = in - s.lp - s.q*s.bp
		s.bp += s.f * hp
		s.lp += s.f * s.bp
	}
	switch s.mode {
	case ModeHP:
		return hp
	case ModeBP:
		return s.bp
	case ModeNotch:
		return hp + s.lp
	default:
		return s.lp
	}
}

// Reset clears the filter state without touching coefficients.
func (s *SVF) Reset() {
	s.lp, s.bp = 0, 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
