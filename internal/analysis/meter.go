// Package analysis implements the engine's visualization taps: stereo
// oscilloscope ring, FFT band spectrum and peak meters. The audio thread
// only ever writes; readers live on control threads behind atomics or
// double-buffered windows.
package analysis

import (
	"math"
	"sync/atomic"
)

// Meter is a stereo peak meter with instantaneous attack and exponential
// release (default 300 ms). Values are published through atomics so
// control threads read without coordination.
type Meter struct {
	releaseCoef float64
	peakL       float64
	peakR       float64
	outL        atomic.Uint32 // float32 bits
	outR        atomic.Uint32
}

// NewMeter builds a meter with the given release time.
func NewMeter(sampleRate int, releaseMs float64) *Meter {
	return &Meter{
		releaseCoef: math.Exp(-1.0 / (releaseMs * float64(sampleRate) / 1000)),
	}
}

// Process consumes one block and publishes the updated peaks.
func (m *Meter) Process(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		al := math.Abs(float64(l[i]))
		ar := math.Abs(float64(r[i]))
		if al > m.peakL {
			m.peakL = al
		} else {
			m.peakL *= m.releaseCoef
		}
		if ar > m.peakR {
			m.peakR = ar
		} else {
			m.peakR *= m.releaseCoef
		}
	}
	m.outL.Store(math.Float32bits(float32(m.peakL)))
	m.outR.Store(math.Float32bits(float32(m.peakR)))
}

// Read returns the published peak pair. Safe from any thread.
func (m *Meter) Read() (float32, float32) {
	return math.Float32frombits(m.outL.Load()), math.Float32frombits(m.outR.Load())
}

// Reset zeros the ballistics.
func (m *Meter) Reset() {
	m.peakL, m.peakR = 0, 0
	m.outL.Store(0)
	m.outR.Store(0)
}
