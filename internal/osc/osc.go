// Package osc implements the oscillator families used by synth voices:
// quantum (morphing band-limited waves), chaos (Lorenz), wavetable, FM,
// additive, noise and fractal. All oscillators run at the engine sample
// rate, keep double-precision phase and emit float32 samples.
package osc

import "math"

const twoPi = math.Pi * 2

// Source is the interface every oscillator family satisfies. A voice
// oscillator slot can host any Source.
type Source interface {
	Init(sampleRate int)
	SetFrequency(hz float64)
	Process() float32
	ProcessBlock(out []float32, n int)
}

// Family identifies an oscillator family for voice slot rebinding.
type Family uint8

const (
	FamilyQuantum Family = iota
	FamilyChaos
	FamilyWavetable
	FamilyFM
	FamilyAdditive
	FamilyNoise
	FamilyFractal
)

// NewSource constructs a fresh oscillator of the given family with its
// defaults. Unknown families fall back to quantum.
func NewSource(f Family, sampleRate int) Source {
	var s Source
	switch f {
	case FamilyChaos:
		s = NewChaos()
	case FamilyWavetable:
		s = NewWavetable()
	case FamilyFM:
		s = NewFM()
	case FamilyAdditive:
		a := NewAdditive()
		a.HarmonicSeries(16, 1.0)
		s = a
	case FamilyNoise:
		s = NewNoise()
	case FamilyFractal:
		s = NewFractal()
	default:
		s = NewQuantum()
	}
	s.Init(sampleRate)
	return s
}

// polyBLEP returns the band-limiting correction for a discontinuity at
// phase 0, with t the normalized phase [0,1) and dt the per-sample phase
// increment.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
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

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
