package command

import (
	"encoding/json"
	"fmt"
)

// Optional JSON-lines shipping for commands operated over a text
// protocol. Entity-carrying commands serialize the entity's construction
// arguments (name, length); the receiving side rebuilds the entity.

var opNames = map[Op]string{
	OpAddTrack:           "add_track",
	OpRemoveTrack:        "remove_track",
	OpSetVolume:          "set_volume",
	OpSetPan:             "set_pan",
	OpToggleMute:         "toggle_mute",
	OpToggleSolo:         "toggle_solo",
	OpAddEffect:          "add_effect",
	OpRemoveEffect:       "remove_effect",
	OpSetEffectParam:     "set_effect_param",
	OpToggleEffectBypass: "toggle_effect_bypass",
	OpAddPattern:         "add_pattern",
	OpAddNote:            "add_note",
	OpRemoveNote:         "remove_note",
	OpAddArrangement:     "add_arrangement",
	OpSetBPM:             "set_bpm",
	OpSetPosition:        "set_position",
	OpPlay:               "play",
	OpPause:              "pause",
	OpStop:               "stop",
	OpSetLoop:            "set_loop",
	OpToggleLoop:         "toggle_loop",
	OpSetMasterVolume:    "set_master_volume",
	OpSetOscillator:      "set_oscillator",
	OpSyncDelay:          "sync_delay",
	OpLiveNoteOn:         "live_note_on",
	OpLiveNoteOff:        "live_note_off",
}

var opByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

type wire struct {
	Op        string  `json:"op"`
	TrackID   uint32  `json:"track_id,omitempty"`
	PatternID uint32  `json:"pattern_id,omitempty"`
	NoteID    uint32  `json:"note_id,omitempty"`
	Slot      int32   `json:"slot,omitempty"`
	ParamIdx  int32   `json:"param_idx,omitempty"`
	Kind      uint8   `json:"kind,omitempty"`
	OscSlot   int32   `json:"osc_slot,omitempty"`
	Family    uint8   `json:"family,omitempty"`
	Pitch     int32   `json:"pitch,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Value2    float64 `json:"value2,omitempty"`
	Value3    float64 `json:"value3,omitempty"`
	Value4    float64 `json:"value4,omitempty"`
	Name      string  `json:"name,omitempty"`
}

// MarshalJSON encodes the command as one JSON object.
func (c Command) MarshalJSON() ([]byte, error) {
	name, ok := opNames[c.Op]
	if !ok {
		return nil, fmt.Errorf("command: unknown op %d", c.Op)
	}
	w := wire{
		Op:        name,
		TrackID:   c.TrackID,
		PatternID: c.PatternID,
		NoteID:    c.NoteID,
		Slot:      c.Slot,
		ParamIdx:  c.ParamIdx,
		Kind:      uint8(c.Kind),
		OscSlot:   c.OscSlot,
		Family:    uint8(c.Family),
		Pitch:     c.Pitch,
		Value:     c.Value,
		Value2:    c.Value2,
		Value3:    c.Value3,
		Value4:    c.Value4,
	}
	switch {
	case c.Track != nil:
		w.Name = c.Track.Name
	case c.Pattern != nil:
		w.Name = c.Pattern.Name
		w.Value = c.Pattern.LengthBeats
	}
	return json.Marshal(w)
}

// Decoded is a Command plus the construction arguments for entity
// commands, produced by UnmarshalLine.
type Decoded struct {
	Command
	Name string
}

// UnmarshalLine decodes one JSON line into a command shell. Entity
// commands come back without their pointers; the caller rebuilds the
// track or pattern from Name/Value.
func UnmarshalLine(data []byte) (Decoded, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return Decoded{}, err
	}
	op, ok := opByName[w.Op]
	if !ok {
		return Decoded{}, fmt.Errorf("command: unknown op %q", w.Op)
	}
	return Decoded{
		Command: Command{
			Op:        op,
			TrackID:   w.TrackID,
			PatternID: w.PatternID,
			NoteID:    w.NoteID,
			Slot:      w.Slot,
			ParamIdx:  w.ParamIdx,
			Kind:      fxKind(w.Kind),
			OscSlot:   w.OscSlot,
			Family:    oscFamily(w.Family),
			Pitch:     w.Pitch,
			Value:     w.Value,
			Value2:    w.Value2,
			Value3:    w.Value3,
			Value4:    w.Value4,
		},
		Name: w.Name,
	}, nil
}

func fxKind(v uint8) fx.Kind       { return fx.Kind(v) }
func oscFamily(v uint8) osc.Family { return osc.Family(v) }
