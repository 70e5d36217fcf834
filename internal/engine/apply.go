package engine

import (
	"github.com/intuitive-audio/intuitive-go/internal/command"
	"github.com/intuitive-audio/intuitive-go/internal/fx"
	"github.com/intuitive-audio/intuitive-go/internal/project"
)

// drainCommands applies up to CommandDrainLimit queued commands in
// order. Commands naming dead entities are dropped silently with a log
// ring entry; capacity overruns likewise.
func (e *Engine) drainCommands() {
	for n := 0; n < CommandDrainLimit; n++ {
		c, ok := e.cmds.Pop()
		if !ok {
			return
		}
		e.apply(c)
	}
}

func (e *Engine) apply(c command.Command) {
	p := e.proj
	switch c.Op {
	case command.OpAddTrack:
		if !p.AddTrack(c.Track) {
			e.logs.Put(command.LogCapacityExceeded, c.Op, 0)
		}

	case command.OpRemoveTrack:
		if !p.RemoveTrack(c.TrackID) {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}
		e.seqDirty = true

	case command.OpSetVolume:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			tr.Volume = clampF(c.Value, 0, 2)
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpSetPan:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			tr.Pan = clampF(c.Value, -1, 1)
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpToggleMute:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			tr.Mute = !tr.Mute
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpToggleSolo:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			tr.Solo = !tr.Solo
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpAddEffect:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			slot := -1
			if c.Effect != nil {
				slot = tr.Chain.AddPrebuilt(*c.Effect)
			} else {
				slot = tr.Chain.Add(c.Kind)
			}
			if slot < 0 {
				e.logs.Put(command.LogCapacityExceeded, c.Op, c.TrackID)
			}
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpRemoveEffect:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			tr.Chain.Remove(int(c.Slot))
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpSetEffectParam:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			tr.Chain.SetParam(int(c.Slot), int(c.ParamIdx), float32(c.Value))
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpToggleEffectBypass:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			tr.Chain.ToggleBypass(int(c.Slot))
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpAddPattern:
		if !p.AddPattern(c.Pattern) {
			e.logs.Put(command.LogCapacityExceeded, c.Op, 0)
		}

	case command.OpAddNote:
		if pat := p.PatternByID(c.PatternID); pat != nil {
			if _, ok := pat.AddNote(int(c.Pitch), c.Value, c.Value2, c.Value3, c.Value4); !ok {
				e.logs.Put(command.LogCapacityExceeded, c.Op, c.PatternID)
			}
			e.seqDirty = true
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.PatternID)
		}

	case command.OpRemoveNote:
		if pat := p.PatternByID(c.PatternID); pat != nil {
			if !pat.RemoveNote(c.NoteID) {
				e.logs.Put(command.LogUnknownID, c.Op, c.NoteID)
			}
			e.seqDirty = true
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.PatternID)
		}

	case command.OpAddArrangement:
		ok := p.AddItem(project.Item{
			PatternID: c.PatternID,
			TrackID:   c.TrackID,
			StartBeat: c.Value,
			Muted:     c.Value2 != 0,
		})
		if !ok {
			e.logs.Put(command.LogUnknownID, c.Op, c.PatternID)
		}
		e.seqDirty = true

	case command.OpSetBPM:
		p.Transport.SetBPM(c.Value)

	case command.OpSetPosition:
		p.Transport.SetPositionBeats(c.Value)
		e.allNotesOff()
		e.seqDirty = true

	case command.OpPlay:
		p.Transport.Play()

	case command.OpPause:
		p.Transport.Pause()

	case command.OpStop:
		p.Transport.Stop()
		e.resetVoices()
		e.seqDirty = true

	case command.OpSetLoop:
		p.Transport.SetLoop(c.Value, c.Value2)

	case command.OpToggleLoop:
		p.Transport.Looping = !p.Transport.Looping

	case command.OpSetMasterVolume:
		p.MasterVolume = clampF(c.Value, 0, 2)

	case command.OpSetOscillator:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			tr.Alloc.SetOscillator(int(c.OscSlot), c.Family)
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpLiveNoteOn:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			tr.Alloc.NoteOn(int(c.Pitch), c.Value, clampF(tr.Pan+c.Value2, -1, 1))
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpLiveNoteOff:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			tr.Alloc.NoteOff(int(c.Pitch))
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}

	case command.OpSyncDelay:
		if tr := p.TrackByID(c.TrackID); tr != nil {
			slot := tr.Chain.SlotAt(int(c.Slot))
			if slot != nil && slot.Kind == fx.KindDelay {
				tr.Chain.SetParam(int(c.Slot), 0, float32(60/p.Transport.BPM))
			}
		} else {
			e.logs.Put(command.LogUnknownID, c.Op, c.TrackID)
		}
	}
}

func (e *Engine) allNotesOff() {
	for _, tr := range e.proj.Tracks {
		tr.Alloc.AllNotesOff()
	}
}

func (e *Engine) resetVoices() {
	for _, tr := range e.proj.Tracks {
		tr.Alloc.Reset()
	}
}
