// Package lfo provides the low-frequency oscillator shared by modulated
// effects (chorus taps, phaser sweep).
package lfo

import "math"

// Waveform constants.
const (
	WaveSine     = 0
	WaveTriangle = 1
	WaveSaw      = 2
	WaveSquare   = 3
	WaveRandom   = 4
)

// LFO produces per-sample modulation in [-depth, +depth]. One instance is
// shared per effect, not per voice.
type LFO struct {
	depth    float64
	rateHz   float64
	waveform int
	phase    float64 // [0, 1)
	randVal  float64 // held sample for the random waveform
}

// Set configures depth, rate and waveform.
func (l *LFO) Set(depth, rateHz float64, waveform int) {
	l.depth = depth
	l.rateHz = rateHz
	if waveform < WaveSine || waveform > WaveRandom {
		waveform = WaveSine
	}
	l.waveform = waveform
}

// Sample advances one sample and returns the modulation value.
func (l *LFO) Sample(sampleRate float64) float64 {
	if l.depth == 0 || l.rateHz == 0 || sampleRate == 0 {
		return 0
	}
	v := l.valueAt(l.phase)
	oldPhase := l.phase
	l.phase += l.rateHz / sampleRate
	for l.phase >= 1.0 {
		l.phase -= 1.0
	}
	if l.waveform == WaveRandom && l.phase < oldPhase {
		l.randVal = math.Sin(l.phase*12345.6789+l.randVal*67890.1234) * 2.0
		l.randVal -= math.Floor(l.randVal)
		l.randVal = l.randVal*2.0 - 1.0
	}
	return v * l.depth
}

// SampleAt reads the waveform at a phase offset without advancing. Used
// for quadrature taps: SampleAt(0.25) leads Sample by 90 degrees.
func (l *LFO) SampleAt(offset float64) float64 {
	p := l.phase + offset
	for p >= 1.0 {
		p -= 1.0
	}
	return l.valueAt(p) * l.depth
}

func (l *LFO) valueAt(phase float64) float64 {
	switch l.waveform {
	case WaveTriangle:
		if phase < 0.5 {
			return 4.0*phase - 1.0
		}
		return 3.0 - 4.0*phase
	case WaveSaw:
		return 1.0 - 2.0*phase
	case WaveSquare:
		if phase < 0.5 {
			return 1.0
		}
		return -1.0
	case WaveRandom:
		return l.randVal
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// Active reports whether the LFO modulates at all.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset zeros the phase and held random value.
func (l *LFO) Reset() {
	l.phase = 0
	l.randVal = 0
}
