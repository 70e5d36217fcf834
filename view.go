package intuitive

import (
	"github.com/intuitive-audio/intuitive-go/internal/fx"
	"github.com/intuitive-audio/intuitive-go/internal/project"
)

// EffectView is one chain slot in a snapshot.
type EffectView struct {
	Kind   EffectKind
	Bypass bool
	Params [8]float32
}

// TrackView is one track in a snapshot. PeakL/PeakR come from the live
// meters.
type TrackView struct {
	ID      uint32
	Name    string
	Volume  float64
	Pan     float64
	Mute    bool
	Solo    bool
	Color   [3]uint8
	Effects []EffectView
	PeakL   float32
	PeakR   float32
}

// NoteView is one pattern note in a snapshot.
type NoteView struct {
	ID            uint32
	Pitch         int
	Velocity      float64
	StartBeat     float64
	DurationBeats float64
	PanOffset     float64
	Color         [3]uint8
}

// PatternView is one pattern in a snapshot.
type PatternView struct {
	ID          uint32
	Name        string
	LengthBeats float64
	Notes       []NoteView
}

// ItemView is one arrangement placement in a snapshot.
type ItemView struct {
	PatternID uint32
	TrackID   uint32
	StartBeat float64
	Muted     bool
}

// ProjectView is a read-only structural snapshot of the project plus the
// published transport state.
type ProjectView struct {
	Name         string
	BPM          float64
	Playing      bool
	CurrentBeat  float64
	Looping      bool
	LoopStart    float64
	LoopEnd      float64
	MasterVolume float64
	Tracks       []TrackView
	Patterns     []PatternView
	Items        []ItemView
}

// mirror is the control-side replica of the project's structure. The
// facade applies every accepted command here before queueing it, and id
// counters advance exactly as they do on the audio side, so the mirror
// stays consistent without sharing audio-thread state.
type mirror struct {
	name          string
	looping       bool
	loopStart     float64
	loopEnd       float64
	masterVolume  float64
	tracks        []*mirTrack
	patterns      []*mirPattern
	items         []ItemView
	nextTrackID   uint32
	nextPatternID uint32
}

type mirTrack struct {
	id      uint32
	name    string
	volume  float64
	pan     float64
	mute    bool
	solo    bool
	color   [3]uint8
	effects []EffectView
}

type mirPattern struct {
	id          uint32
	name        string
	lengthBeats float64
	notes       []NoteView
	nextNoteID  uint32
}

func mirrorFromProject(p *project.Project) *mirror {
	m := &mirror{
		name:          p.Name,
		looping:       p.Transport.Looping,
		loopStart:     p.Transport.LoopStart,
		loopEnd:       p.Transport.LoopEnd,
		masterVolume:  p.MasterVolume,
		nextTrackID:   p.NextTrackID(),
		nextPatternID: p.NextPatternID(),
	}
	for _, tr := range p.Tracks {
		mt := &mirTrack{
			id:     tr.ID,
			name:   tr.Name,
			volume: tr.Volume,
			pan:    tr.Pan,
			mute:   tr.Mute,
			solo:   tr.Solo,
			color:  tr.Color,
		}
		for s := 0; s < tr.Chain.Len(); s++ {
			slot := tr.Chain.SlotAt(s)
			mt.effects = append(mt.effects, EffectView{
				Kind:   EffectKind(slot.Kind),
				Bypass: slot.Bypass,
				Params: slot.Params,
			})
		}
		m.tracks = append(m.tracks, mt)
	}
	for _, pat := range p.Patterns {
		mp := &mirPattern{
			id:          pat.ID,
			name:        pat.Name,
			lengthBeats: pat.LengthBeats,
		}
		for _, n := range pat.Notes {
			mp.notes = append(mp.notes, NoteView{
				ID:            n.ID,
				Pitch:         n.Pitch,
				Velocity:      n.Velocity,
				StartBeat:     n.StartBeat,
				DurationBeats: n.DurationBeats,
				PanOffset:     n.PanOffset,
				Color:         n.Color,
			})
			if n.ID >= mp.nextNoteID {
				mp.nextNoteID = n.ID + 1
			}
		}
		m.patterns = append(m.patterns, mp)
	}
	for _, it := range p.Items {
		m.items = append(m.items, ItemView{
			PatternID: it.PatternID,
			TrackID:   it.TrackID,
			StartBeat: it.StartBeat,
			Muted:     it.Muted,
		})
	}
	return m
}

func (m *mirror) track(id uint32) *mirTrack {
	for _, t := range m.tracks {
		if t.id == id {
			return t
		}
	}
	return nil
}

func (m *mirror) pattern(id uint32) *mirPattern {
	for _, p := range m.patterns {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (m *mirror) removeTrack(id uint32) bool {
	for i, t := range m.tracks {
		if t.id == id {
			m.tracks = append(m.tracks[:i], m.tracks[i+1:]...)
			kept := m.items[:0]
			for _, it := range m.items {
				if it.TrackID != id {
					kept = append(kept, it)
				}
			}
			m.items = kept
			return true
		}
	}
	return false
}

// toProject rebuilds a full project from the mirror for serialization.
// Heavyweight (it constructs real tracks) but control-side and rare.
func (m *mirror) toProject(sampleRate, blockSize int, t transportState) *project.Project {
	p := &project.Project{
		Name:         m.name,
		SampleRate:   sampleRate,
		BlockSize:    blockSize,
		Transport:    project.NewTransport(sampleRate),
		MasterVolume: m.masterVolume,
	}
	p.Transport.SetBPM(t.bpm)
	p.Transport.Looping = m.looping
	p.Transport.SetLoop(m.loopStart, m.loopEnd)
	for _, mt := range m.tracks {
		tr := project.NewTrack(mt.id, mt.name, sampleRate)
		tr.Volume = mt.volume
		tr.Pan = mt.pan
		tr.Mute = mt.mute
		tr.Solo = mt.solo
		tr.Color = mt.color
		for _, ef := range mt.effects {
			slot := tr.Chain.Add(fx.Kind(ef.Kind))
			if slot < 0 {
				continue
			}
			for pi := range ef.Params {
				tr.Chain.SetParam(slot, pi, ef.Params[pi])
			}
			if ef.Bypass {
				tr.Chain.ToggleBypass(slot)
			}
		}
		p.AddTrack(tr)
	}
	for _, mp := range m.patterns {
		pat := project.NewPattern(mp.id, mp.name, mp.lengthBeats)
		for _, n := range mp.notes {
			if _, ok := pat.AddNote(n.Pitch, n.Velocity, n.StartBeat, n.DurationBeats, n.PanOffset); ok {
				pat.SetNoteID(len(pat.Notes)-1, n.ID)
			}
		}
		p.AddPattern(pat)
	}
	for _, it := range m.items {
		p.AddItem(project.Item{
			PatternID: it.PatternID,
			TrackID:   it.TrackID,
			StartBeat: it.StartBeat,
			Muted:     it.Muted,
		})
	}
	return p
}

type transportState struct {
	bpm float64
}
