// Package seq converts arrangement items and pattern notes into
// sample-offset note events against the transport's beat clock. Cursors
// advance monotonically during linear playback; seeks and loop wraps
// rebuild them by binary search over the per-pattern sorted note index.
package seq

import (
	"math"

	"github.com/intuitive-audio/intuitive-go/internal/project"
)

const (
	// MaxEventsPerBlock bounds the per-block event list; overflow is
	// dropped (and counted) rather than allocated for.
	MaxEventsPerBlock = 512

	maxPendingOffs = 1024
)

// Event is one note-on or note-off at a frame offset inside the block.
type Event struct {
	Frame    int
	TrackID  uint32
	Pitch    int
	Velocity float64
	Pan      float64
	On       bool
}

type noteOff struct {
	beat    float64
	trackID uint32
	pitch   int
}

// Sequencer walks the arrangement against beat spans produced by the
// transport. All storage is preallocated.
type Sequencer struct {
	proj    *project.Project
	cursors [project.MaxArrangement]int
	offs    [maxPendingOffs]noteOff
	numOffs int
	events  []Event
	Dropped uint64 // events lost to the per-block bound or a full note-off table
}

// New builds a sequencer with cursors at the transport position.
func New(p *project.Project) *Sequencer {
	s := &Sequencer{
		proj:   p,
		events: make([]Event, 0, MaxEventsPerBlock),
	}
	s.Rebuild(p.Transport.CurrentBeat())
	return s
}

// Rebuild repositions every item cursor at the given beat by binary
// search and discards pending note-offs. Called on seeks and after
// pattern or arrangement edits; the caller is responsible for releasing
// sounding voices.
func (s *Sequencer) Rebuild(beat float64) {
	s.numOffs = 0
	for i := range s.proj.Items {
		s.cursors[i] = s.cursorFor(&s.proj.Items[i], beat)
	}
}

func (s *Sequencer) cursorFor(it *project.Item, beat float64) int {
	pat := s.proj.PatternByID(it.PatternID)
	if pat == nil {
		return 0
	}
	idx := pat.SortedIndex()
	local := beat - it.StartBeat
	lo, hi := 0, len(idx)
	for lo < hi {
		mid := (lo + hi) / 2
		if pat.Notes[idx[mid]].StartBeat < local {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// wrap remaps cursors and pending note-offs across the loop seam. An
// off scheduled exactly at loop_end lands on loop_start and surfaces at
// frame offset 0 of the wrapped span.
func (s *Sequencer) wrap(loopStart, loopEnd float64) {
	for i := 0; i < s.numOffs; i++ {
		if s.offs[i].beat >= loopEnd {
			s.offs[i].beat = loopStart + (s.offs[i].beat - loopEnd)
		}
	}
	for i := range s.proj.Items {
		s.cursors[i] = s.cursorFor(&s.proj.Items[i], loopStart)
	}
}

// Collect appends the events of one beat span, ordered by frame offset
// with note-offs before note-ons at equal offsets. The returned slice is
// valid until the next Collect call.
func (s *Sequencer) Collect(span project.Span) []Event {
	s.events = s.events[:0]
	if span.Wrapped {
		s.wrap(span.StartBeat, s.proj.Transport.LoopEnd)
	}
	spb := s.proj.Transport.SamplesPerBeat()

	// Pending note-offs inside the span.
	kept := 0
	for i := 0; i < s.numOffs; i++ {
		off := s.offs[i]
		if off.beat < span.EndBeat {
			s.emit(Event{
				Frame:   s.frameAt(span, off.beat, spb),
				TrackID: off.trackID,
				Pitch:   off.pitch,
			})
		} else {
			s.offs[kept] = off
			kept++
		}
	}
	s.numOffs = kept

	// Note-ons from each live item.
	for i := range s.proj.Items {
		it := &s.proj.Items[i]
		if it.Muted {
			continue
		}
		pat := s.proj.PatternByID(it.PatternID)
		if pat == nil || s.proj.TrackByID(it.TrackID) == nil {
			continue
		}
		idx := pat.SortedIndex()
		for s.cursors[i] < len(idx) {
			n := &pat.Notes[idx[s.cursors[i]]]
			abs := it.StartBeat + n.StartBeat
			if abs >= span.EndBeat {
				break
			}
			s.cursors[i]++
			if abs < span.StartBeat || n.StartBeat >= pat.LengthBeats {
				continue
			}
			s.emit(Event{
				Frame:    s.frameAt(span, abs, spb),
				TrackID:  it.TrackID,
				Pitch:    n.Pitch,
				Velocity: n.Velocity,
				Pan:      n.PanOffset,
				On:       true,
			})
			s.scheduleOff(abs+n.DurationBeats, it.TrackID, n.Pitch)
		}
	}

	s.sortEvents()
	return s.events
}

// frameAt converts an event beat to a frame offset inside the block.
// The event's absolute sample is floored from beat arithmetic (with a
// hair of slack for representation error) and anchored to the span's
// exact integer start sample.
func (s *Sequencer) frameAt(span project.Span, beat, spb float64) int {
	abs := int64(math.Floor(beat*spb + 1e-6))
	f := int(abs - span.StartSample)
	if f < 0 {
		f = 0
	}
	if f >= span.Frames {
		f = span.Frames - 1
	}
	if f < 0 {
		f = 0
	}
	return span.FrameOffset + f
}

func (s *Sequencer) emit(e Event) {
	if len(s.events) >= MaxEventsPerBlock {
		s.Dropped++
		return
	}
	s.events = append(s.events, e)
}

func (s *Sequencer) scheduleOff(beat float64, trackID uint32, pitch int) {
	if s.numOffs >= maxPendingOffs {
		s.Dropped++
		return
	}
	s.offs[s.numOffs] = noteOff{beat: beat, trackID: trackID, pitch: pitch}
	s.numOffs++
}

// sortEvents orders by frame ascending, offs before ons at equal frames.
// Insertion sort: the list is short and mostly ordered already.
func (s *Sequencer) sortEvents() {
	ev := s.events
	for i := 1; i < len(ev); i++ {
		j := i
		for j > 0 && eventLess(ev[j], ev[j-1]) {
			ev[j-1], ev[j] = ev[j], ev[j-1]
			j--
		}
	}
}

func eventLess(a, b Event) bool {
	if a.Frame != b.Frame {
		return a.Frame < b.Frame
	}
	return !a.On && b.On
}
