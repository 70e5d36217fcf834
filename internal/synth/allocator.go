package synth

import "github.com/intuitive-audio/intuitive-go/internal/osc"

// MaxVoices is the fixed per-track polyphony.
const MaxVoices = 16

// Allocator owns a track's fixed voice pool. Note-ons claim a free voice
// or steal the oldest; at most one voice per pitch holds the gate.
type Allocator struct {
	sampleRate int
	voices     [MaxVoices]*Voice
}

// NewAllocator builds a pool of idle voices. The seed decorrelates the
// per-voice noise generators while keeping them deterministic.
func NewAllocator(sampleRate int, seed uint32) *Allocator {
	a := &Allocator{sampleRate: sampleRate}
	for i := range a.voices {
		a.voices[i] = NewVoice(sampleRate, seed+uint32(i)*0x9E3779B9)
	}
	return a
}

// NoteOn routes a note-on. A gated voice on the same pitch is retriggered
// in place; otherwise a free voice is claimed, falling back to stealing
// the voice with the greatest age.
func (a *Allocator) NoteOn(pitch int, velocity, pan float64) *Voice {
	for _, v := range a.voices {
		if v.Active() && v.Gated() && v.Pitch() == pitch {
			v.NoteOn(pitch, velocity, pan)
			return v
		}
	}
	for _, v := range a.voices {
		if !v.Active() {
			v.NoteOn(pitch, velocity, pan)
			return v
		}
	}
	oldest := a.voices[0]
	for _, v := range a.voices[1:] {
		if v.Age() > oldest.Age() {
			oldest = v
		}
	}
	oldest.Steal()
	oldest.NoteOn(pitch, velocity, pan)
	return oldest
}

// NoteOff releases the gated voice holding the pitch, if any.
func (a *Allocator) NoteOff(pitch int) {
	for _, v := range a.voices {
		if v.Active() && v.Gated() && v.Pitch() == pitch {
			v.NoteOff()
			return
		}
	}
}

// AllNotesOff releases every gated voice.
func (a *Allocator) AllNotesOff() {
	for _, v := range a.voices {
		if v.Gated() {
			v.NoteOff()
		}
	}
}

// Reset hard-stops every voice.
func (a *Allocator) Reset() {
	for _, v := range a.voices {
		v.Steal()
	}
}

// Render accumulates all active voices into the stereo buffers.
func (a *Allocator) Render(outL, outR []float32, frames int) {
	for _, v := range a.voices {
		v.Render(outL, outR, frames)
	}
}

// ActiveCount returns the number of sounding voices.
func (a *Allocator) ActiveCount() int {
	n := 0
	for _, v := range a.voices {
		if v.Active() {
			n++
		}
	}
	return n
}

// Voices exposes the pool for configuration fan-out.
func (a *Allocator) Voices() []*Voice { return a.voices[:] }

// SetOscillator rebinds one oscillator slot across the whole pool.
func (a *Allocator) SetOscillator(slot int, f osc.Family) {
	for _, v := range a.voices {
		v.SetOscillator(slot, f)
	}
}

// SetMix applies source mix levels across the pool.
func (a *Allocator) SetMix(o1, o2, noise float64) {
	for _, v := range a.voices {
		v.SetMix(o1, o2, noise)
	}
}

// SetFilter applies filter settings across the pool.
func (a *Allocator) SetFilter(cutoff, resonance, envAmount float64) {
	for _, v := range a.voices {
		v.SetFilter(cutoff, resonance, envAmount)
	}
}

// SetEnvelopes applies envelope settings across the pool.
func (a *Allocator) SetEnvelopes(ampA, ampD, ampS, ampR, fltA, fltD, fltS, fltR float64) {
	for _, v := range a.voices {
		v.SetEnvelopes(ampA, ampD, ampS, ampR, fltA, fltD, fltS, fltR)
	}
}
