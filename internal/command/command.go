// Package command defines the control→audio command set and the bounded
// queue that carries it. Commands are flat tagged records; entity
// creation commands carry pointers prebuilt on the control side so the
// audio thread never allocates while applying them.
package command

import (
	"github.com/intuitive-audio/intuitive-go/internal/fx"
	"github.com/intuitive-audio/intuitive-go/internal/osc"
	"github.com/intuitive-audio/intuitive-go/internal/project"
)

// Op enumerates the command kinds.
type Op uint8

const (
	OpNone Op = iota
	OpAddTrack
	OpRemoveTrack
	OpSetVolume
	OpSetPan
	OpToggleMute
	OpToggleSolo
	OpAddEffect
	OpRemoveEffect
	OpSetEffectParam
	OpToggleEffectBypass
	OpAddPattern
	OpAddNote
	OpRemoveNote
	OpAddArrangement
	OpSetBPM
	OpSetPosition
	OpPlay
	OpPause
	OpStop
	OpSetLoop
	OpToggleLoop
	OpSetMasterVolume
	OpSetOscillator
	OpSyncDelay
	OpLiveNoteOn
	OpLiveNoteOff
)

// Command is one control-plane mutation. Field use depends on Op; unused
// fields are zero.
type Command struct {
	Op Op

	TrackID   uint32
	PatternID uint32
	NoteID    uint32
	Slot      int32
	ParamIdx  int32
	Kind      fx.Kind
	OscSlot   int32
	Family    osc.Family

	Pitch    int32
	Value    float64
	Value2   float64
	Value3   float64
	Value4   float64

	// Prebuilt entities for AddTrack / AddPattern / AddEffect, built on
	// the control side so applying them never allocates.
	Track   *project.Track
	Pattern *project.Pattern
	Effect  *fx.Prebuilt
}
