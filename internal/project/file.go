package project

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/intuitive-audio/intuitive-go/internal/fx"
)

// Binary project format: little-endian, magic "INTV", version u32, then
// transport, tracks (with effect chains), patterns, arrangement items
// and master volume. Readers skip unknown trailing bytes.

var fileMagic = [4]byte{'I', 'N', 'T', 'V'}

const fileVersion uint32 = 1

// ErrInvalidFile is returned for bad magic, unsupported versions or
// truncated/overlong structures.
var ErrInvalidFile = errors.New("project: invalid file")

type writer struct {
	w   io.Writer
	err error
}

func (e *writer) u8(v uint8) {
	if e.err == nil {
		_, e.err = e.w.Write([]byte{v})
	}
}

func (e *writer) u32(v uint32) {
	if e.err == nil {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		_, e.err = e.w.Write(b[:])
	}
}

func (e *writer) f32(v float32) {
	e.u32(math.Float32bits(v))
}

func (e *writer) str(s string) {
	b := []byte(s)
	if len(b) > 0xFFFF {
		b = b[:0xFFFF]
	}
	if e.err == nil {
		var lb [2]byte
		binary.LittleEndian.PutUint16(lb[:], uint16(len(b)))
		_, e.err = e.w.Write(lb[:])
	}
	if e.err == nil {
		_, e.err = e.w.Write(b)
	}
}

func (e *writer) bool(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

type reader struct {
	r   io.Reader
	err error
}

func (d *reader) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.err = fmt.Errorf("%w: %v", ErrInvalidFile, err)
		return nil
	}
	return b
}

func (d *reader) u8() uint8 {
	b := d.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *reader) u32() uint32 {
	b := d.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *reader) f32() float32 {
	return math.Float32frombits(d.u32())
}

func (d *reader) str() string {
	b := d.bytes(2)
	if b == nil {
		return ""
	}
	n := int(binary.LittleEndian.Uint16(b))
	s := d.bytes(n)
	if s == nil {
		return ""
	}
	return string(s)
}

func (d *reader) bool() bool { return d.u8() != 0 }

// Save serializes the project.
func Save(w io.Writer, p *Project) error {
	e := &writer{w: w}
	if _, err := w.Write(fileMagic[:]); err != nil {
		return err
	}
	e.u32(fileVersion)

	t := &p.Transport
	e.f32(float32(t.BPM))
	e.u8(uint8(t.BeatsPerBar))
	e.u8(uint8(t.BeatUnit))
	e.bool(t.Looping)
	e.f32(float32(t.LoopStart))
	e.f32(float32(t.LoopEnd))

	e.u32(uint32(len(p.Tracks)))
	for _, tr := range p.Tracks {
		e.u32(tr.ID)
		e.str(tr.Name)
		e.f32(float32(tr.Volume))
		e.f32(float32(tr.Pan))
		e.bool(tr.Mute)
		e.bool(tr.Solo)
		e.u8(tr.Color[0])
		e.u8(tr.Color[1])
		e.u8(tr.Color[2])
		e.u8(uint8(tr.Chain.Len()))
		for s := 0; s < tr.Chain.Len(); s++ {
			slot := tr.Chain.SlotAt(s)
			e.u8(uint8(slot.Kind))
			e.bool(slot.Bypass)
			for pi := 0; pi < fx.MaxParams; pi++ {
				e.f32(slot.Params[pi])
			}
		}
	}

	e.u32(uint32(len(p.Patterns)))
	for _, pat := range p.Patterns {
		e.u32(pat.ID)
		e.str(pat.Name)
		e.f32(float32(pat.LengthBeats))
		e.u32(uint32(len(pat.Notes)))
		for _, n := range pat.Notes {
			e.u32(n.ID)
			e.u8(uint8(n.Pitch))
			e.f32(float32(n.Velocity))
			e.f32(float32(n.StartBeat))
			e.f32(float32(n.DurationBeats))
			e.f32(float32(n.PanOffset))
			e.u8(n.Color[0])
			e.u8(n.Color[1])
			e.u8(n.Color[2])
		}
	}

	e.u32(uint32(len(p.Items)))
	for _, it := range p.Items {
		e.u32(it.PatternID)
		e.u32(it.TrackID)
		e.f32(float32(it.StartBeat))
		e.bool(it.Muted)
	}

	e.f32(float32(p.MasterVolume))
	return e.err
}

// Load deserializes a project at the given engine sample rate and block
// size. On any error the returned project is nil and no partial state
// escapes. Items referencing missing tracks or patterns are dropped.
func Load(r io.Reader, sampleRate, blockSize int) (*Project, error) {
	d := &reader{r: r}
	magic := d.bytes(4)
	if d.err != nil {
		return nil, d.err
	}
	if [4]byte(magic) != fileMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidFile)
	}
	if v := d.u32(); v > fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFile, v)
	}

	p := &Project{
		Name:       "Untitled",
		SampleRate: sampleRate,
		BlockSize:  blockSize,
		Transport:  NewTransport(sampleRate),
		Tracks:     make([]*Track, 0, MaxTracks),
		Patterns:   make([]*Pattern, 0, MaxPatterns),
		Items:      make([]Item, 0, MaxArrangement),
	}

	p.Transport.SetBPM(float64(d.f32()))
	p.Transport.BeatsPerBar = int(d.u8())
	p.Transport.BeatUnit = int(d.u8())
	p.Transport.Looping = d.bool()
	loopStart := float64(d.f32())
	loopEnd := float64(d.f32())
	if !p.Transport.SetLoop(loopStart, loopEnd) {
		p.Transport.Looping = false
	}

	nTracks := d.u32()
	if nTracks > MaxTracks {
		return nil, fmt.Errorf("%w: track count %d", ErrInvalidFile, nTracks)
	}
	for i := uint32(0); i < nTracks && d.err == nil; i++ {
		id := d.u32()
		tr := NewTrack(id, d.str(), sampleRate)
		tr.Volume = clampF(float64(d.f32()), 0, 2)
		tr.Pan = clampF(float64(d.f32()), -1, 1)
		tr.Mute = d.bool()
		tr.Solo = d.bool()
		tr.Color = [3]uint8{d.u8(), d.u8(), d.u8()}
		nSlots := int(d.u8())
		if nSlots > MaxEffects {
			return nil, fmt.Errorf("%w: effect count %d", ErrInvalidFile, nSlots)
		}
		for s := 0; s < nSlots; s++ {
			kind := fx.Kind(d.u8())
			bypass := d.bool()
			slot := tr.Chain.Add(kind)
			for pi := 0; pi < fx.MaxParams; pi++ {
				v := d.f32()
				if slot >= 0 {
					tr.Chain.SetParam(slot, pi, v)
				}
			}
			if slot >= 0 && bypass {
				tr.Chain.ToggleBypass(slot)
			}
		}
		p.AddTrack(tr)
	}

	nPatterns := d.u32()
	if nPatterns > MaxPatterns {
		return nil, fmt.Errorf("%w: pattern count %d", ErrInvalidFile, nPatterns)
	}
	for i := uint32(0); i < nPatterns && d.err == nil; i++ {
		id := d.u32()
		pat := NewPattern(id, d.str(), float64(d.f32()))
		nNotes := d.u32()
		if nNotes > MaxNotesPerPattern {
			return nil, fmt.Errorf("%w: note count %d", ErrInvalidFile, nNotes)
		}
		for n := uint32(0); n < nNotes && d.err == nil; n++ {
			noteID := d.u32()
			pitch := int(d.u8())
			vel := float64(d.f32())
			start := float64(d.f32())
			dur := float64(d.f32())
			pan := float64(d.f32())
			color := [3]uint8{d.u8(), d.u8(), d.u8()}
			if _, ok := pat.AddNote(pitch, vel, start, dur, pan); ok {
				idx := len(pat.Notes) - 1
				pat.Notes[idx].ID = noteID
				pat.Notes[idx].Color = color
				if noteID >= pat.nextNoteID {
					pat.nextNoteID = noteID + 1
				}
			}
		}
		p.AddPattern(pat)
	}

	nItems := d.u32()
	if nItems > MaxArrangement {
		return nil, fmt.Errorf("%w: item count %d", ErrInvalidFile, nItems)
	}
	for i := uint32(0); i < nItems && d.err == nil; i++ {
		it := Item{
			PatternID: d.u32(),
			TrackID:   d.u32(),
			StartBeat: float64(d.f32()),
			Muted:     d.bool(),
		}
		// Dangling references are dropped rather than rejected.
		p.AddItem(it)
	}

	p.MasterVolume = clampF(float64(d.f32()), 0, 2)
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}
