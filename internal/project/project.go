// Package project holds the engine's data model: the project tree
// (tracks, patterns, arrangement items), the transport clock and the
// binary project file codec. After construction the model is owned
// exclusively by the audio thread; entity creation preallocates all
// per-entity storage so command application never allocates.
package project

import (
	"math"
	"sync/atomic"

	"github.com/intuitive-audio/intuitive-go/internal/fx"
	"github.com/intuitive-audio/intuitive-go/internal/synth"
)

// Capacity limits. Fixed at project creation; commands that would exceed
// them are dropped.
const (
	MaxTracks          = 64
	MaxVoicesPerTrack  = synth.MaxVoices
	MaxEffects         = fx.MaxSlots
	MaxPatterns        = 256
	MaxNotesPerPattern = 4096
	MaxArrangement     = 1024
	MaxBlockSize       = 2048
)

// Note is one pattern note. Color is cached from the pitch class at
// insertion time.
type Note struct {
	ID            uint32
	Pitch         int
	Velocity      float64
	StartBeat     float64
	DurationBeats float64
	PanOffset     float64
	Color         [3]uint8
}

// Pattern is a named container of notes plus a length in beats. Notes
// are stored in insertion order; a start-beat-sorted index is rebuilt
// lazily on first scheduler use after an edit.
type Pattern struct {
	ID          uint32
	Name        string
	LengthBeats float64

	Notes      []Note
	sorted     []int32
	sortDirty  bool
	nextNoteID uint32
}

// NewPattern preallocates note storage to capacity so later edits are
// allocation-free.
func NewPattern(id uint32, name string, lengthBeats float64) *Pattern {
	if lengthBeats <= 0 {
		lengthBeats = 4
	}
	return &Pattern{
		ID:          id,
		Name:        name,
		LengthBeats: lengthBeats,
		Notes:       make([]Note, 0, MaxNotesPerPattern),
		sorted:      make([]int32, 0, MaxNotesPerPattern),
	}
}

// AddNote appends a note, clamping pitch and velocity. Returns the note
// id and false when the pattern is full.
func (p *Pattern) AddNote(pitch int, velocity, start, duration, panOffset float64) (uint32, bool) {
	if len(p.Notes) >= MaxNotesPerPattern {
		return 0, false
	}
	if pitch < 0 {
		pitch = 0
	}
	if pitch > 127 {
		pitch = 127
	}
	if velocity < 0 {
		velocity = 0
	}
	if velocity > 1 {
		velocity = 1
	}
	if start < 0 {
		start = 0
	}
	if duration <= 0 {
		duration = 0.25
	}
	id := p.nextNoteID
	p.nextNoteID++
	p.Notes = append(p.Notes, Note{
		ID:            id,
		Pitch:         pitch,
		Velocity:      velocity,
		StartBeat:     start,
		DurationBeats: duration,
		PanOffset:     clampF(panOffset, -1, 1),
		Color:         NoteColor(pitch),
	})
	p.sortDirty = true
	return id, true
}

// SetNoteID rewrites a note's id, keeping the issue counter ahead of it.
// Used by loaders and mirrors that reconstruct patterns with historical
// ids.
func (p *Pattern) SetNoteID(index int, id uint32) {
	if index < 0 || index >= len(p.Notes) {
		return
	}
	p.Notes[index].ID = id
	if id >= p.nextNoteID {
		p.nextNoteID = id + 1
	}
}

// RemoveNote deletes a note by id.
func (p *Pattern) RemoveNote(id uint32) bool {
	for i := range p.Notes {
		if p.Notes[i].ID == id {
			p.Notes = append(p.Notes[:i], p.Notes[i+1:]...)
			p.sortDirty = true
			return true
		}
	}
	return false
}

// SortedIndex returns note indices ordered by start beat ascending,
// rebuilding after edits. The rebuild is an insertion sort over the
// preallocated index slice: notes are usually appended nearly in order,
// and the edit path is the only caller that pays for it.
func (p *Pattern) SortedIndex() []int32 {
	if p.sortDirty {
		p.sorted = p.sorted[:0]
		for i := range p.Notes {
			p.sorted = append(p.sorted, int32(i))
		}
		for i := 1; i < len(p.sorted); i++ {
			j := i
			for j > 0 && p.Notes[p.sorted[j-1]].StartBeat > p.Notes[p.sorted[j]].StartBeat {
				p.sorted[j-1], p.sorted[j] = p.sorted[j], p.sorted[j-1]
				j--
			}
		}
		p.sortDirty = false
	}
	return p.sorted
}

// Track couples a voice allocator and an effect chain with mix state.
type Track struct {
	ID     uint32
	Name   string
	Volume float64 // [0, 2]
	Pan    float64 // [-1, 1]
	Mute   bool
	Solo   bool
	Color  [3]uint8

	Alloc *synth.Allocator
	Chain *fx.Chain

	// Smoothed post-effects peaks, written by the mixer and published
	// through atomics so control-side meters read without coordination.
	peakL atomic.Uint32
	peakR atomic.Uint32
}

// SetPeaks publishes the smoothed peak pair. Audio thread only.
func (t *Track) SetPeaks(l, r float32) {
	t.peakL.Store(math.Float32bits(l))
	t.peakR.Store(math.Float32bits(r))
}

// Peaks reads the published peak pair. Safe from any thread.
func (t *Track) Peaks() (float32, float32) {
	return math.Float32frombits(t.peakL.Load()), math.Float32frombits(t.peakR.Load())
}

// NewTrack builds a track with its full voice pool and empty chain.
func NewTrack(id uint32, name string, sampleRate int) *Track {
	return &Track{
		ID:     id,
		Name:   name,
		Volume: 1,
		Color:  TrackColor(int(id)),
		Alloc:  synth.NewAllocator(sampleRate, 0x1234567+id*0x51F1),
		Chain:  fx.NewChain(sampleRate),
	}
}

// Item places a pattern on a track at a start beat.
type Item struct {
	PatternID uint32
	TrackID   uint32
	StartBeat float64
	Muted     bool
}

// Project owns the whole tree. Sample rate and block size are fixed for
// its lifetime.
type Project struct {
	Name       string
	SampleRate int
	BlockSize  int

	Transport Transport
	Tracks    []*Track
	Patterns  []*Pattern
	Items     []Item

	MasterVolume float64

	nextTrackID   uint32
	nextPatternID uint32
}

// New creates a project with a default transport, one track and one
// empty pattern.
func New(name string, sampleRate, blockSize int) *Project {
	if blockSize <= 0 || blockSize > MaxBlockSize {
		blockSize = 256
	}
	p := &Project{
		Name:         name,
		SampleRate:   sampleRate,
		BlockSize:    blockSize,
		Transport:    NewTransport(sampleRate),
		Tracks:       make([]*Track, 0, MaxTracks),
		Patterns:     make([]*Pattern, 0, MaxPatterns),
		Items:        make([]Item, 0, MaxArrangement),
		MasterVolume: 0.8,
	}
	p.AddTrack(NewTrack(p.NextTrackID(), "Track 1", sampleRate))
	p.AddPattern(NewPattern(p.NextPatternID(), "Pattern 1", 4))
	return p
}

// NextTrackID returns the id the next added track will take.
func (p *Project) NextTrackID() uint32 { return p.nextTrackID }

// NextPatternID returns the id the next added pattern will take.
func (p *Project) NextPatternID() uint32 { return p.nextPatternID }

// AddTrack links a prebuilt track. Ids are issued monotonically and
// never reused.
func (p *Project) AddTrack(t *Track) bool {
	if len(p.Tracks) >= MaxTracks || t == nil {
		return false
	}
	p.Tracks = append(p.Tracks, t)
	if t.ID >= p.nextTrackID {
		p.nextTrackID = t.ID + 1
	}
	return true
}

// RemoveTrack unlinks a track and drops arrangement items that
// referenced it.
func (p *Project) RemoveTrack(id uint32) bool {
	for i, t := range p.Tracks {
		if t.ID == id {
			p.Tracks = append(p.Tracks[:i], p.Tracks[i+1:]...)
			p.dropItems(func(it Item) bool { return it.TrackID == id })
			return true
		}
	}
	return false
}

// AddPattern links a prebuilt pattern.
func (p *Project) AddPattern(pat *Pattern) bool {
	if len(p.Patterns) >= MaxPatterns || pat == nil {
		return false
	}
	p.Patterns = append(p.Patterns, pat)
	if pat.ID >= p.nextPatternID {
		p.nextPatternID = pat.ID + 1
	}
	return true
}

// RemovePattern unlinks a pattern and drops items referencing it.
func (p *Project) RemovePattern(id uint32) bool {
	for i, pat := range p.Patterns {
		if pat.ID == id {
			p.Patterns = append(p.Patterns[:i], p.Patterns[i+1:]...)
			p.dropItems(func(it Item) bool { return it.PatternID == id })
			return true
		}
	}
	return false
}

// AddItem places a pattern on a track. Both referents must be live.
func (p *Project) AddItem(it Item) bool {
	if len(p.Items) >= MaxArrangement {
		return false
	}
	if p.TrackByID(it.TrackID) == nil || p.PatternByID(it.PatternID) == nil {
		return false
	}
	if it.StartBeat < 0 {
		it.StartBeat = 0
	}
	p.Items = append(p.Items, it)
	return true
}

func (p *Project) dropItems(pred func(Item) bool) {
	kept := p.Items[:0]
	for _, it := range p.Items {
		if !pred(it) {
			kept = append(kept, it)
		}
	}
	p.Items = kept
}

// TrackByID finds a track, or nil.
func (p *Project) TrackByID(id uint32) *Track {
	for _, t := range p.Tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// PatternByID finds a pattern, or nil.
func (p *Project) PatternByID(id uint32) *Pattern {
	for _, pat := range p.Patterns {
		if pat.ID == id {
			return pat
		}
	}
	return nil
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
