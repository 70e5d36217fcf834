package project

import "math"

// Span is a half-open beat interval covered by part of a block. A looped
// block advance yields two spans around the seam.
type Span struct {
	StartBeat float64
	EndBeat   float64
	Frames    int
	// StartSample is the exact counter value at the span's first frame;
	// event offsets derive from it rather than from beat arithmetic, so
	// rounding never lands an event one sample early.
	StartSample int64
	// FrameOffset is where this span's first frame lands in the block.
	FrameOffset int
	// Wrapped marks the span that begins at the loop start after a seam.
	Wrapped bool
}

// Transport is the sample clock: BPM, time signature, position, play
// state and loop region.
type Transport struct {
	sampleRate float64

	BPM         float64 // clamped [20, 400]
	BeatsPerBar int
	BeatUnit    int

	SampleCounter int64
	Playing       bool
	Looping       bool
	LoopStart     float64 // beats
	LoopEnd       float64 // beats, exclusive
}

// NewTransport returns a stopped 120 BPM 4/4 transport with a 4-beat
// loop region defined but inactive.
func NewTransport(sampleRate int) Transport {
	return Transport{
		sampleRate:  float64(sampleRate),
		BPM:         120,
		BeatsPerBar: 4,
		BeatUnit:    4,
		LoopStart:   0,
		LoopEnd:     4,
	}
}

// SamplesPerBeat derives the beat length at the current BPM.
func (t *Transport) SamplesPerBeat() float64 {
	return t.sampleRate * 60 / t.BPM
}

// CurrentBeat derives the musical position from the sample counter.
func (t *Transport) CurrentBeat() float64 {
	return float64(t.SampleCounter) / t.SamplesPerBeat()
}

// SetBPM clamps to [20, 400]. Takes effect at the next block boundary
// (commands apply at block start).
func (t *Transport) SetBPM(bpm float64) {
	t.BPM = clampF(bpm, 20, 400)
}

// SetLoop installs a loop region; rejected unless start < end.
func (t *Transport) SetLoop(start, end float64) bool {
	if start < 0 || start >= end {
		return false
	}
	t.LoopStart = start
	t.LoopEnd = end
	return true
}

// Play resumes without moving the position.
func (t *Transport) Play() { t.Playing = true }

// Pause halts without moving the position.
func (t *Transport) Pause() { t.Playing = false }

// Stop halts and rewinds to zero.
func (t *Transport) Stop() {
	t.Playing = false
	t.SampleCounter = 0
}

// SetPositionBeats seeks to an absolute beat.
func (t *Transport) SetPositionBeats(beat float64) {
	if beat < 0 {
		beat = 0
	}
	t.SampleCounter = int64(beat * t.SamplesPerBeat())
}

// Advance moves the clock by frames and reports the covered beat spans.
// When the loop seam falls inside the block the result is two spans and
// the counter wraps to loop_start plus the remainder; a beat at exactly
// loop_end belongs to the second span.
func (t *Transport) Advance(frames int, spans *[2]Span) int {
	spb := t.SamplesPerBeat()
	b0 := float64(t.SampleCounter) / spb
	end := t.SampleCounter + int64(frames)
	b1 := float64(end) / spb

	if !t.Looping || b0 >= t.LoopEnd || b1 < t.LoopEnd {
		spans[0] = Span{StartBeat: b0, EndBeat: b1, Frames: frames, StartSample: t.SampleCounter}
		t.SampleCounter = end
		return 1
	}

	startSample := t.SampleCounter
	loopEndSample := int64(math.Ceil(t.LoopEnd * spb))
	framesToEnd := int(loopEndSample - t.SampleCounter)
	if framesToEnd < 0 {
		framesToEnd = 0
	}
	if framesToEnd > frames {
		framesToEnd = frames
	}
	remainder := frames - framesToEnd

	loopLenSamples := int64((t.LoopEnd - t.LoopStart) * spb)
	if loopLenSamples < 1 {
		loopLenSamples = 1
	}
	rem := int64(remainder) % loopLenSamples
	loopStartSample := int64(t.LoopStart * spb)
	t.SampleCounter = loopStartSample + rem

	spans[0] = Span{StartBeat: b0, EndBeat: t.LoopEnd, Frames: framesToEnd, StartSample: startSample}
	spans[1] = Span{
		StartBeat:   t.LoopStart,
		EndBeat:     t.LoopStart + float64(rem)/spb,
		Frames:      remainder,
		StartSample: loopStartSample,
		FrameOffset: framesToEnd,
		Wrapped:     true,
	}
	return 2
}
