// Package synth implements the per-track polyphonic voice pool: a Voice
// couples oscillators, filter and envelopes for one sounding note, and
// the Allocator maps note events onto a fixed pool with oldest-voice
// stealing.
package synth

import (
	"math"

	"github.com/intuitive-audio/intuitive-go/internal/dsp"
	"github.com/intuitive-audio/intuitive-go/internal/osc"
)

// Voice renders one note: two oscillator slots plus a noise generator,
// mixed, filtered by an envelope-modulated SVF and shaped by the amp
// envelope. Slots default to quantum oscillators but can host any family.
type Voice struct {
	active   bool
	gate     bool
	pitch    int
	age      int
	velocity float64
	pan      float64

	// All families are prebuilt at construction so slot rebinding on
	// the audio thread never allocates.
	sources    [2][7]osc.Source
	osc1       osc.Source
	osc2       osc.Source
	osc1Family osc.Family
	osc2Family osc.Family
	noise      *osc.Noise

	filter    *dsp.SVF
	ampEnv    *dsp.ADSR
	filterEnv *dsp.ADSR

	osc1Level       float64
	osc2Level       float64
	noiseLevel      float64
	baseCutoff      float64
	filterEnvAmount float64
}

// NewVoice builds an idle voice with quantum defaults (sine osc1, saw
// osc2 at zero level, silent noise).
func NewVoice(sampleRate int, seed uint32) *Voice {
	v := &Voice{
		noise:           osc.NewNoise(),
		filter:          dsp.NewSVF(),
		ampEnv:          dsp.NewADSR(),
		filterEnv:       dsp.NewADSR(),
		osc1Level:       0.8,
		osc2Level:       0,
		noiseLevel:      0,
		baseCutoff:      8000,
		filterEnvAmount: 0,
	}
	for slot := 0; slot < 2; slot++ {
		for f := osc.FamilyQuantum; f <= osc.FamilyFractal; f++ {
			v.sources[slot][f] = osc.NewSource(f, sampleRate)
		}
	}
	v.osc1 = v.sources[0][osc.FamilyQuantum]
	v.osc2 = v.sources[1][osc.FamilyQuantum]
	v.noise.SetSeed(seed)
	v.noise.Init(sampleRate)
	v.filter.Init(sampleRate)
	v.ampEnv.Init(sampleRate)
	v.filterEnv.Init(sampleRate)
	return v
}

// PitchToFreq converts a MIDI pitch to Hz (A4 = 69 = 440 Hz).
func PitchToFreq(pitch int) float64 {
	return 440 * math.Pow(2, float64(pitch-69)/12)
}

// SetOscillator rebinds one oscillator slot (1 or 2) to a family.
// Allocation-free: the target source already exists.
func (v *Voice) SetOscillator(slot int, f osc.Family) {
	if f > osc.FamilyFractal {
		return
	}
	switch slot {
	case 1:
		if v.osc1Family != f {
			v.osc1 = v.sources[0][f]
			v.osc1Family = f
		}
	case 2:
		if v.osc2Family != f {
			v.osc2 = v.sources[1][f]
			v.osc2Family = f
		}
	}
}

// SetMix sets the three source levels.
func (v *Voice) SetMix(o1, o2, noise float64) {
	v.osc1Level = clamp(o1, 0, 1)
	v.osc2Level = clamp(o2, 0, 1)
	v.noiseLevel = clamp(noise, 0, 1)
}

// SetFilter configures base cutoff, resonance and envelope amount.
func (v *Voice) SetFilter(cutoff, resonance, envAmount float64) {
	v.baseCutoff = clamp(cutoff, 20, 20000)
	v.filter.SetResonance(resonance)
	v.filterEnvAmount = clamp(envAmount, -1, 1)
}

// SetEnvelopes configures the amp and filter envelopes.
func (v *Voice) SetEnvelopes(ampA, ampD, ampS, ampR, fltA, fltD, fltS, fltR float64) {
	v.ampEnv.Set(ampA, ampD, ampS, ampR)
	v.filterEnv.Set(fltA, fltD, fltS, fltR)
}

// NoteOn (re)triggers the voice at the given pitch. Envelope restart is
// unconditional, so a repeated pitch retriggers rather than layering.
func (v *Voice) NoteOn(pitch int, velocity, pan float64) {
	v.active = true
	v.gate = true
	v.pitch = pitch
	v.age = 0
	v.velocity = clamp(velocity, 0, 1)
	v.pan = clamp(pan, -1, 1)
	freq := PitchToFreq(pitch)
	v.osc1.SetFrequency(freq)
	v.osc2.SetFrequency(freq)
	v.ampEnv.Gate(true)
	v.filterEnv.Gate(true)
}

// NoteOff closes the gate; the voice frees itself once the amp envelope
// finishes its release.
func (v *Voice) NoteOff() {
	v.gate = false
	v.ampEnv.Gate(false)
	v.filterEnv.Gate(false)
}

// Steal silences the voice immediately for reassignment.
func (v *Voice) Steal() {
	v.active = false
	v.gate = false
	v.ampEnv.Reset()
	v.filterEnv.Reset()
	v.filter.Reset()
}

// Active reports whether the voice is sounding (including release tail).
func (v *Voice) Active() bool { return v.active }

// Gated reports whether the note-on is still held.
func (v *Voice) Gated() bool { return v.gate }

// Pitch returns the MIDI pitch this voice is playing.
func (v *Voice) Pitch() int { return v.pitch }

// Age returns the number of blocks this voice has been active.
func (v *Voice) Age() int { return v.age }

// Pan returns the per-voice pan in [-1, 1].
func (v *Voice) Pan() float64 { return v.pan }

// Render accumulates frames samples into the stereo pair using the
// voice's constant-power pan. Returns false once the voice has gone idle.
func (v *Voice) Render(outL, outR []float32, frames int) bool {
	if !v.active {
		return false
	}
	theta := (v.pan + 1) * math.Pi / 4
	gl := math.Cos(theta)
	gr := math.Sin(theta)
	for i := 0; i < frames; i++ {
		raw := v.osc1Level*float64(v.osc1.Process()) +
			v.osc2Level*float64(v.osc2.Process()) +
			v.noiseLevel*float64(v.noise.Process())
		fenv := v.filterEnv.Process()
		v.filter.SetCutoff(v.baseCutoff + fenv*v.filterEnvAmount*(20000-v.baseCutoff))
		s := v.filter.Process(raw) * v.ampEnv.Process() * v.velocity
		outL[i] += float32(s * gl)
		outR[i] += float32(s * gr)
	}
	v.age++
	if v.ampEnv.Idle() && !v.gate {
		v.active = false
	}
	return v.active
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
