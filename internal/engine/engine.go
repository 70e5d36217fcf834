// Package engine implements the audio-thread block driver: it drains the
// command queue, advances the transport, pulls sequencer events,
// dispatches them to tracks at their sample offsets, mixes with the solo
// rule, soft-clips the master bus and feeds the analysis taps. Nothing
// in the render path allocates or blocks; every buffer is preallocated
// at construction.
package engine

import (
	"math"
	"sync/atomic"

	"github.com/intuitive-audio/intuitive-go/internal/analysis"
	"github.com/intuitive-audio/intuitive-go/internal/command"
	"github.com/intuitive-audio/intuitive-go/internal/project"
	"github.com/intuitive-audio/intuitive-go/internal/seq"
)

// CommandDrainLimit bounds how many commands one block applies, keeping
// per-block latency predictable.
const CommandDrainLimit = 64

// Engine owns all mutable audio state after construction.
type Engine struct {
	proj *project.Project
	seq  *seq.Sequencer
	cmds *command.Queue
	logs *command.LogRing

	scope       *analysis.Scope
	spectrum    *analysis.Spectrum
	masterMeter *analysis.Meter

	trackL [project.MaxTracks][]float32
	trackR [project.MaxTracks][]float32
	mixL   []float32
	mixR   []float32

	peakAttack  float64
	peakRelease float64

	// Published for control-side observers.
	posSamples atomic.Int64
	playing    atomic.Bool
	bpmBits    atomic.Uint64

	seqDirty bool
}

// New wires an engine around a project. The queue and log ring are
// shared with the control facade.
func New(p *project.Project, q *command.Queue, logs *command.LogRing) *Engine {
	e := &Engine{
		proj:        p,
		seq:         seq.New(p),
		cmds:        q,
		logs:        logs,
		scope:       &analysis.Scope{},
		spectrum:    analysis.NewSpectrum(p.SampleRate),
		masterMeter: analysis.NewMeter(p.SampleRate, 300),
		mixL:        make([]float32, project.MaxBlockSize),
		mixR:        make([]float32, project.MaxBlockSize),
	}
	for i := 0; i < project.MaxTracks; i++ {
		e.trackL[i] = make([]float32, project.MaxBlockSize)
		e.trackR[i] = make([]float32, project.MaxBlockSize)
	}
	blocksPerSec := float64(p.SampleRate) / float64(p.BlockSize)
	e.peakAttack = 1 - math.Exp(-1.0/(0.010*blocksPerSec))
	e.peakRelease = math.Exp(-1.0 / (0.300 * blocksPerSec))
	e.publish()
	return e
}

// Project exposes the audio-thread project. Control threads must not
// touch it; it is public for the offline renderer and tests that drive
// Render from a single goroutine.
func (e *Engine) Project() *project.Project { return e.proj }

// Scope returns the oscilloscope tap.
func (e *Engine) Scope() *analysis.Scope { return e.scope }

// Spectrum returns the spectrum tap.
func (e *Engine) Spectrum() *analysis.Spectrum { return e.spectrum }

// MasterMeter returns the master peak meter.
func (e *Engine) MasterMeter() *analysis.Meter { return e.masterMeter }

// PositionSamples returns the published transport position.
func (e *Engine) PositionSamples() int64 { return e.posSamples.Load() }

// Playing returns the published play state.
func (e *Engine) Playing() bool { return e.playing.Load() }

// BPM returns the published tempo.
func (e *Engine) BPM() float64 {
	return math.Float64frombits(e.bpmBits.Load())
}

func (e *Engine) publish() {
	e.posSamples.Store(e.proj.Transport.SampleCounter)
	e.playing.Store(e.proj.Transport.Playing)
	e.bpmBits.Store(math.Float64bits(e.proj.Transport.BPM))
}

// Render produces one block. frames is capped by the project block size.
func (e *Engine) Render(outL, outR []float32) {
	frames := len(outL)
	if len(outR) < frames {
		frames = len(outR)
	}
	if frames > e.proj.BlockSize {
		frames = e.proj.BlockSize
	}
	if frames <= 0 {
		return
	}

	e.drainCommands()
	if e.seqDirty {
		e.seq.Rebuild(e.proj.Transport.CurrentBeat())
		e.seqDirty = false
	}

	if !e.proj.Transport.Playing {
		for i := 0; i < frames; i++ {
			outL[i] = 0
			outR[i] = 0
		}
		e.tap(outL, outR, frames)
		e.publish()
		return
	}

	for i := 0; i < frames; i++ {
		e.mixL[i] = 0
		e.mixR[i] = 0
	}
	for t := range e.proj.Tracks {
		for i := 0; i < frames; i++ {
			e.trackL[t][i] = 0
			e.trackR[t][i] = 0
		}
	}

	var spans [2]project.Span
	nSpans := e.proj.Transport.Advance(frames, &spans)
	for si := 0; si < nSpans; si++ {
		e.renderSpan(spans[si])
	}

	e.finishTracks(frames)
	e.mix(outL, outR, frames)
	e.tap(outL, outR, frames)
	e.publish()
}

// renderSpan renders all tracks through one beat span, splitting at each
// event's frame offset so note-ons and note-offs land sample-accurately.
func (e *Engine) renderSpan(span project.Span) {
	events := e.seq.Collect(span)
	cur := span.FrameOffset
	end := span.FrameOffset + span.Frames
	for _, ev := range events {
		if ev.Frame > cur {
			e.renderSegment(cur, ev.Frame)
			cur = ev.Frame
		}
		tr := e.proj.TrackByID(ev.TrackID)
		if tr == nil {
			continue
		}
		if ev.On {
			tr.Alloc.NoteOn(ev.Pitch, ev.Velocity, clampF(tr.Pan+ev.Pan, -1, 1))
		} else {
			tr.Alloc.NoteOff(ev.Pitch)
		}
	}
	if cur < end {
		e.renderSegment(cur, end)
	}
}

func (e *Engine) renderSegment(from, to int) {
	n := to - from
	if n <= 0 {
		return
	}
	for t, tr := range e.proj.Tracks {
		tr.Alloc.Render(e.trackL[t][from:to], e.trackR[t][from:to], n)
	}
}

// finishTracks runs effect chains, the NaN tail check and peak meters.
// The constant-power pan law is applied exactly once, per voice, where
// track pan and note offset combine at note-on; this stage only scales
// by the track volume.
func (e *Engine) finishTracks(frames int) {
	for t, tr := range e.proj.Tracks {
		l := e.trackL[t]
		r := e.trackR[t]
		tr.Chain.Process(l, r, frames)

		last := float64(l[frames-1]) + float64(r[frames-1])
		if math.IsNaN(last) || math.IsInf(last, 0) {
			tr.Alloc.Reset()
			tr.Chain.Reset()
			for i := 0; i < frames; i++ {
				l[i] = 0
				r[i] = 0
			}
			e.logs.Put(command.LogNumericalReset, command.OpNone, tr.ID)
		}

		g := float32(tr.Volume)
		var peakL, peakR float32
		for i := 0; i < frames; i++ {
			l[i] *= g
			r[i] *= g
			if a := abs32(l[i]); a > peakL {
				peakL = a
			}
			if a := abs32(r[i]); a > peakR {
				peakR = a
			}
		}
		prevL, prevR := tr.Peaks()
		tr.SetPeaks(
			smoothPeak(prevL, peakL, e.peakAttack, e.peakRelease),
			smoothPeak(prevR, peakR, e.peakAttack, e.peakRelease),
		)
	}
}

func smoothPeak(prev, block float32, attack, release float64) float32 {
	if block > prev {
		return prev + float32(attack)*(block-prev)
	}
	return prev * float32(release)
}

// mix sums tracks under the solo rule, applies master volume and the
// rational tanh soft clip.
func (e *Engine) mix(outL, outR []float32, frames int) {
	anySolo := false
	for _, tr := range e.proj.Tracks {
		if tr.Solo {
			anySolo = true
			break
		}
	}
	for t, tr := range e.proj.Tracks {
		if anySolo {
			if !tr.Solo {
				continue
			}
		} else if tr.Mute {
			continue
		}
		l := e.trackL[t]
		r := e.trackR[t]
		for i := 0; i < frames; i++ {
			e.mixL[i] += l[i]
			e.mixR[i] += r[i]
		}
	}
	mv := float32(e.proj.MasterVolume)
	for i := 0; i < frames; i++ {
		outL[i] = softClip(e.mixL[i] * mv)
		outR[i] = softClip(e.mixR[i] * mv)
	}
}

// softClip approximates tanh with the x(27+x²)/(27+9x²) rational
// polynomial, hard-bounded to [-1, 1].
func softClip(x float32) float32 {
	if x > 3 {
		return 1
	}
	if x < -3 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

func (e *Engine) tap(outL, outR []float32, frames int) {
	e.scope.Write(outL, outR, frames)
	e.spectrum.Push(outL, outR, frames)
	e.masterMeter.Process(outL, outR, frames)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
