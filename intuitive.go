// Package intuitive is the control-plane API for the audio engine: a
// facade that builds the project, submits commands over the bounded
// queue, reads the analysis taps and drives realtime or offline
// rendering. All methods are safe to call from any goroutine; none of
// them touch audio-thread state directly.
package intuitive

import (
	"errors"
	"io"
	"sync"

	"github.com/intuitive-audio/intuitive-go/internal/analysis"
	"github.com/intuitive-audio/intuitive-go/internal/audio"
	"github.com/intuitive-audio/intuitive-go/internal/command"
	"github.com/intuitive-audio/intuitive-go/internal/engine"
	"github.com/intuitive-audio/intuitive-go/internal/fx"
	"github.com/intuitive-audio/intuitive-go/internal/osc"
	"github.com/intuitive-audio/intuitive-go/internal/project"
)

// EffectKind selects an effect algorithm for AddEffect. Values are
// stable and form part of the project file format.
type EffectKind uint8

const (
	EffectGain EffectKind = iota
	EffectEQ
	EffectCompressor
	EffectReverb
	EffectDelay
	EffectDistortion
	EffectChorus
	EffectPhaser
	EffectFilter
	EffectLimiter
)

// OscFamily selects an oscillator family for SetOscillator.
type OscFamily uint8

const (
	OscQuantum OscFamily = iota
	OscChaos
	OscWavetable
	OscFM
	OscAdditive
	OscNoise
	OscFractal
)

// NumSpectrumBands is the band count returned by ReadSpectrum.
const NumSpectrumBands = analysis.NumBands

// ErrQueueFull signals command back-pressure; the caller may retry.
var ErrQueueFull = errors.New("intuitive: command queue full")

// ErrUnknownID is returned when a command names a dead entity. The
// command is not queued.
var ErrUnknownID = errors.New("intuitive: unknown id")

// ErrCapacity is returned when an add would exceed a fixed capacity.
var ErrCapacity = errors.New("intuitive: capacity exceeded")

// Diagnostic is one drained log-ring entry.
type Diagnostic struct {
	Code string
	Arg  uint32
}

// Engine is the public handle. It owns the audio-thread driver, the
// command queue and the control-side mirror used for snapshots.
type Engine struct {
	sampleRate int
	blockSize  int

	queue *command.Queue
	logs  *command.LogRing
	drv   *engine.Engine

	mu        sync.Mutex
	mir       *mirror
	engTracks map[uint32]*project.Track // live meter access only

	out     *audio.Player
	started bool

	logScratch [64]command.LogEntry
}

// New creates an engine with a default project (one track, one empty
// pattern, 120 BPM). Typical arguments are 48000 and 256.
func New(sampleRate, blockSize int) *Engine {
	p := project.New("Untitled", sampleRate, blockSize)
	return wrap(p)
}

// Load creates an engine from a serialized project.
func Load(r io.Reader, sampleRate, blockSize int) (*Engine, error) {
	p, err := project.Load(r, sampleRate, blockSize)
	if err != nil {
		return nil, err
	}
	return wrap(p), nil
}

func wrap(p *project.Project) *Engine {
	q := command.NewQueue()
	logs := &command.LogRing{}
	e := &Engine{
		sampleRate: p.SampleRate,
		blockSize:  p.BlockSize,
		queue:      q,
		logs:       logs,
		drv:        engine.New(p, q, logs),
		mir:        mirrorFromProject(p),
		engTracks:  make(map[uint32]*project.Track),
	}
	for _, tr := range p.Tracks {
		e.engTracks[tr.ID] = tr
	}
	return e
}

// Save serializes the project as seen by the control side.
func (e *Engine) Save(w io.Writer) error {
	e.mu.Lock()
	p := e.mir.toProject(e.sampleRate, e.blockSize, transportState{bpm: e.drv.BPM()})
	e.mu.Unlock()
	return project.Save(w, p)
}

// Start opens the realtime audio output. Rendering begins immediately;
// whether anything sounds depends on the transport.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	out, err := audio.NewPlayer(e.sampleRate, &blockSource{drv: e.drv, n: e.blockSize})
	if err != nil {
		return err
	}
	e.out = out
	e.started = true
	out.Play()
	return nil
}

// Close stops realtime output. The engine remains usable offline.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return nil
	}
	e.started = false
	return e.out.Close()
}

type blockSource struct {
	drv *engine.Engine
	n   int
}

func (b *blockSource) Render(outL, outR []float32) { b.drv.Render(outL, outR) }
func (b *blockSource) BlockSize() int              { return b.n }

func (e *Engine) push(c command.Command) error {
	if !e.queue.Push(c) {
		return ErrQueueFull
	}
	return nil
}

// --- transport ---

// Play resumes playback from the current position.
func (e *Engine) Play() error { return e.push(command.Command{Op: command.OpPlay}) }

// Pause halts playback keeping the position.
func (e *Engine) Pause() error { return e.push(command.Command{Op: command.OpPause}) }

// Stop halts playback and rewinds to zero.
func (e *Engine) Stop() error { return e.push(command.Command{Op: command.OpStop}) }

// SetBPM changes the tempo (clamped to [20, 400]) at the next block.
func (e *Engine) SetBPM(bpm float64) error {
	return e.push(command.Command{Op: command.OpSetBPM, Value: bpm})
}

// SetPosition seeks to an absolute beat.
func (e *Engine) SetPosition(beat float64) error {
	return e.push(command.Command{Op: command.OpSetPosition, Value: beat})
}

// SetLoop installs a loop region (ignored unless start < end).
func (e *Engine) SetLoop(start, end float64) error {
	e.mu.Lock()
	if start >= 0 && start < end {
		e.mir.loopStart, e.mir.loopEnd = start, end
	}
	e.mu.Unlock()
	return e.push(command.Command{Op: command.OpSetLoop, Value: start, Value2: end})
}

// ToggleLoop flips loop playback.
func (e *Engine) ToggleLoop() error {
	e.mu.Lock()
	e.mir.looping = !e.mir.looping
	e.mu.Unlock()
	return e.push(command.Command{Op: command.OpToggleLoop})
}

// SetMasterVolume sets the master gain [0, 2].
func (e *Engine) SetMasterVolume(v float64) error {
	e.mu.Lock()
	e.mir.masterVolume = clampF(v, 0, 2)
	e.mu.Unlock()
	return e.push(command.Command{Op: command.OpSetMasterVolume, Value: v})
}

// --- tracks ---

// AddTrack creates a track and returns its id. The track object is
// built here, on the control thread, so the audio thread only links it.
func (e *Engine) AddTrack(name string) (uint32, error) {
	e.mu.Lock()
	if len(e.mir.tracks) >= project.MaxTracks {
		e.mu.Unlock()
		return 0, ErrCapacity
	}
	id := e.mir.nextTrackID
	e.mir.nextTrackID++
	tr := project.NewTrack(id, name, e.sampleRate)
	e.mir.tracks = append(e.mir.tracks, &mirTrack{
		id:     id,
		name:   name,
		volume: 1,
		color:  tr.Color,
	})
	e.engTracks[id] = tr
	e.mu.Unlock()
	return id, e.push(command.Command{Op: command.OpAddTrack, Track: tr})
}

// RemoveTrack deletes a track; arrangement items referencing it are
// dropped.
func (e *Engine) RemoveTrack(id uint32) error {
	e.mu.Lock()
	ok := e.mir.removeTrack(id)
	delete(e.engTracks, id)
	e.mu.Unlock()
	if !ok {
		return ErrUnknownID
	}
	return e.push(command.Command{Op: command.OpRemoveTrack, TrackID: id})
}

// SetVolume sets a track's gain [0, 2].
func (e *Engine) SetVolume(id uint32, v float64) error {
	return e.trackMutate(id, command.Command{Op: command.OpSetVolume, TrackID: id, Value: v}, func(t *mirTrack) {
		t.volume = clampF(v, 0, 2)
	})
}

// SetPan sets a track's pan [-1, 1].
func (e *Engine) SetPan(id uint32, v float64) error {
	return e.trackMutate(id, command.Command{Op: command.OpSetPan, TrackID: id, Value: v}, func(t *mirTrack) {
		t.pan = clampF(v, -1, 1)
	})
}

// ToggleMute flips a track's mute.
func (e *Engine) ToggleMute(id uint32) error {
	return e.trackMutate(id, command.Command{Op: command.OpToggleMute, TrackID: id}, func(t *mirTrack) {
		t.mute = !t.mute
	})
}

// ToggleSolo flips a track's solo.
func (e *Engine) ToggleSolo(id uint32) error {
	return e.trackMutate(id, command.Command{Op: command.OpToggleSolo, TrackID: id}, func(t *mirTrack) {
		t.solo = !t.solo
	})
}

// SetOscillator rebinds a voice oscillator slot (1 or 2) across a
// track's pool.
func (e *Engine) SetOscillator(id uint32, slot int, family OscFamily) error {
	if family > OscFractal || (slot != 1 && slot != 2) {
		return ErrUnknownID
	}
	return e.trackMutate(id, command.Command{
		Op: command.OpSetOscillator, TrackID: id,
		OscSlot: int32(slot), Family: osc.Family(family),
	}, func(*mirTrack) {})
}

func (e *Engine) trackMutate(id uint32, c command.Command, apply func(*mirTrack)) error {
	e.mu.Lock()
	t := e.mir.track(id)
	if t == nil {
		e.mu.Unlock()
		return ErrUnknownID
	}
	apply(t)
	e.mu.Unlock()
	return e.push(c)
}

// --- effects ---

// AddEffect appends an effect to a track's chain and returns the slot.
func (e *Engine) AddEffect(trackID uint32, kind EffectKind) (int, error) {
	if kind > EffectLimiter {
		return -1, ErrUnknownID
	}
	e.mu.Lock()
	t := e.mir.track(trackID)
	if t == nil {
		e.mu.Unlock()
		return -1, ErrUnknownID
	}
	if len(t.effects) >= project.MaxEffects {
		e.mu.Unlock()
		return -1, ErrCapacity
	}
	slot := len(t.effects)
	ev := EffectView{Kind: kind}
	for pi, info := range fx.Params(fx.Kind(kind)) {
		ev.Params[pi] = info.Default
	}
	t.effects = append(t.effects, ev)
	e.mu.Unlock()
	prebuilt := fx.NewPrebuilt(fx.Kind(kind), e.sampleRate)
	return slot, e.push(command.Command{Op: command.OpAddEffect, TrackID: trackID, Kind: fx.Kind(kind), Effect: &prebuilt})
}

// RemoveEffect deletes a chain slot; higher slots shift down.
func (e *Engine) RemoveEffect(trackID uint32, slot int) error {
	return e.trackMutate(trackID, command.Command{Op: command.OpRemoveEffect, TrackID: trackID, Slot: int32(slot)}, func(t *mirTrack) {
		if slot >= 0 && slot < len(t.effects) {
			t.effects = append(t.effects[:slot], t.effects[slot+1:]...)
		}
	})
}

// SetEffectParam stores a clamped parameter value.
func (e *Engine) SetEffectParam(trackID uint32, slot, paramIdx int, v float64) error {
	return e.trackMutate(trackID, command.Command{
		Op: command.OpSetEffectParam, TrackID: trackID,
		Slot: int32(slot), ParamIdx: int32(paramIdx), Value: v,
	}, func(t *mirTrack) {
		if slot >= 0 && slot < len(t.effects) {
			ef := &t.effects[slot]
			if paramIdx >= 0 && paramIdx < len(fx.Params(fx.Kind(ef.Kind))) {
				ef.Params[paramIdx] = fx.ClampParam(fx.Kind(ef.Kind), paramIdx, float32(v))
			}
		}
	})
}

// ToggleEffectBypass flips a slot's bypass without resetting its state.
func (e *Engine) ToggleEffectBypass(trackID uint32, slot int) error {
	return e.trackMutate(trackID, command.Command{Op: command.OpToggleEffectBypass, TrackID: trackID, Slot: int32(slot)}, func(t *mirTrack) {
		if slot >= 0 && slot < len(t.effects) {
			t.effects[slot].Bypass = !t.effects[slot].Bypass
		}
	})
}

// LiveNoteOn triggers a note directly on a track's voice pool, outside
// the sequenced arrangement. Audible while the transport is running.
func (e *Engine) LiveNoteOn(trackID uint32, pitch int, velocity float64) error {
	return e.trackMutate(trackID, command.Command{
		Op: command.OpLiveNoteOn, TrackID: trackID,
		Pitch: int32(pitch), Value: velocity,
	}, func(*mirTrack) {})
}

// LiveNoteOff releases a live note.
func (e *Engine) LiveNoteOff(trackID uint32, pitch int) error {
	return e.trackMutate(trackID, command.Command{
		Op: command.OpLiveNoteOff, TrackID: trackID, Pitch: int32(pitch),
	}, func(*mirTrack) {})
}

// SyncDelay sets a delay slot's time to one beat (60/BPM seconds).
func (e *Engine) SyncDelay(trackID uint32, slot int) error {
	return e.trackMutate(trackID, command.Command{Op: command.OpSyncDelay, TrackID: trackID, Slot: int32(slot)}, func(*mirTrack) {})
}

// --- patterns and arrangement ---

// AddPattern creates a pattern and returns its id.
func (e *Engine) AddPattern(name string, lengthBeats float64) (uint32, error) {
	e.mu.Lock()
	if len(e.mir.patterns) >= project.MaxPatterns {
		e.mu.Unlock()
		return 0, ErrCapacity
	}
	id := e.mir.nextPatternID
	e.mir.nextPatternID++
	pat := project.NewPattern(id, name, lengthBeats)
	e.mir.patterns = append(e.mir.patterns, &mirPattern{
		id:          id,
		name:        name,
		lengthBeats: pat.LengthBeats,
	})
	e.mu.Unlock()
	return id, e.push(command.Command{Op: command.OpAddPattern, Pattern: pat})
}

// AddNote inserts a note and returns its id within the pattern.
func (e *Engine) AddNote(patternID uint32, pitch int, velocity, start, duration float64) (uint32, error) {
	return e.AddNotePanned(patternID, pitch, velocity, start, duration, 0)
}

// AddNotePanned inserts a note with a per-note pan offset.
func (e *Engine) AddNotePanned(patternID uint32, pitch int, velocity, start, duration, panOffset float64) (uint32, error) {
	e.mu.Lock()
	p := e.mir.pattern(patternID)
	if p == nil {
		e.mu.Unlock()
		return 0, ErrUnknownID
	}
	if len(p.notes) >= project.MaxNotesPerPattern {
		e.mu.Unlock()
		return 0, ErrCapacity
	}
	// Mirror the audio side's clamping so snapshots match.
	if pitch < 0 {
		pitch = 0
	}
	if pitch > 127 {
		pitch = 127
	}
	velocity = clampF(velocity, 0, 1)
	if start < 0 {
		start = 0
	}
	if duration <= 0 {
		duration = 0.25
	}
	id := p.nextNoteID
	p.nextNoteID++
	p.notes = append(p.notes, NoteView{
		ID:            id,
		Pitch:         pitch,
		Velocity:      velocity,
		StartBeat:     start,
		DurationBeats: duration,
		PanOffset:     clampF(panOffset, -1, 1),
		Color:         project.NoteColor(pitch),
	})
	e.mu.Unlock()
	return id, e.push(command.Command{
		Op: command.OpAddNote, PatternID: patternID,
		Pitch: int32(pitch), Value: velocity, Value2: start, Value3: duration, Value4: panOffset,
	})
}

// RemoveNote deletes a note by id.
func (e *Engine) RemoveNote(patternID, noteID uint32) error {
	e.mu.Lock()
	p := e.mir.pattern(patternID)
	if p == nil {
		e.mu.Unlock()
		return ErrUnknownID
	}
	for i := range p.notes {
		if p.notes[i].ID == noteID {
			p.notes = append(p.notes[:i], p.notes[i+1:]...)
			break
		}
	}
	e.mu.Unlock()
	return e.push(command.Command{Op: command.OpRemoveNote, PatternID: patternID, NoteID: noteID})
}

// AddArrangement places a pattern on a track at a start beat.
func (e *Engine) AddArrangement(patternID, trackID uint32, startBeat float64, muted bool) error {
	e.mu.Lock()
	if e.mir.pattern(patternID) == nil || e.mir.track(trackID) == nil {
		e.mu.Unlock()
		return ErrUnknownID
	}
	e.mir.items = append(e.mir.items, ItemView{
		PatternID: patternID,
		TrackID:   trackID,
		StartBeat: startBeat,
		Muted:     muted,
	})
	e.mu.Unlock()
	muteVal := 0.0
	if muted {
		muteVal = 1
	}
	return e.push(command.Command{
		Op: command.OpAddArrangement, PatternID: patternID, TrackID: trackID,
		Value: startBeat, Value2: muteVal,
	})
}

// --- observation ---

// Snapshot returns a read-only structural view plus the published
// transport state and live meters.
func (e *Engine) Snapshot() ProjectView {
	e.mu.Lock()
	defer e.mu.Unlock()
	spb := float64(e.sampleRate) * 60 / e.drv.BPM()
	v := ProjectView{
		Name:         e.mir.name,
		BPM:          e.drv.BPM(),
		Playing:      e.drv.Playing(),
		CurrentBeat:  float64(e.drv.PositionSamples()) / spb,
		Looping:      e.mir.looping,
		LoopStart:    e.mir.loopStart,
		LoopEnd:      e.mir.loopEnd,
		MasterVolume: e.mir.masterVolume,
	}
	for _, t := range e.mir.tracks {
		tv := TrackView{
			ID:      t.id,
			Name:    t.name,
			Volume:  t.volume,
			Pan:     t.pan,
			Mute:    t.mute,
			Solo:    t.solo,
			Color:   t.color,
			Effects: append([]EffectView(nil), t.effects...),
		}
		if tr := e.engTracks[t.id]; tr != nil {
			tv.PeakL, tv.PeakR = tr.Peaks()
		}
		v.Tracks = append(v.Tracks, tv)
	}
	for _, p := range e.mir.patterns {
		v.Patterns = append(v.Patterns, PatternView{
			ID:          p.id,
			Name:        p.name,
			LengthBeats: p.lengthBeats,
			Notes:       append([]NoteView(nil), p.notes...),
		})
	}
	v.Items = append([]ItemView(nil), e.mir.items...)
	return v
}

// ReadSpectrum fills dst with the 32-band magnitude spectrum of the
// latest analysis window. Returns false before the first window.
func (e *Engine) ReadSpectrum(dst *[NumSpectrumBands]float32) bool {
	return e.drv.Spectrum().Read(dst)
}

// ReadMeters returns the master peak pair.
func (e *Engine) ReadMeters() (float32, float32) {
	return e.drv.MasterMeter().Read()
}

// ReadWaveform copies the newest samples from the oscilloscope ring into
// a freshly allocated buffer of up to capacity frames.
func (e *Engine) ReadWaveform(capacity int) ([]float32, []float32) {
	if capacity <= 0 || capacity > analysis.ScopeSize {
		capacity = analysis.ScopeSize
	}
	l := make([]float32, capacity)
	r := make([]float32, capacity)
	n := e.drv.Scope().Snapshot(l, r)
	return l[:n], r[:n]
}

// DrainDiagnostics returns pending best-effort log entries.
func (e *Engine) DrainDiagnostics() []Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.logs.Drain(e.logScratch[:])
	out := make([]Diagnostic, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Diagnostic{Code: logCodeName(e.logScratch[i].Code), Arg: e.logScratch[i].Arg})
	}
	return out
}

func logCodeName(c command.LogCode) string {
	switch c {
	case command.LogUnknownID:
		return "unknown_id"
	case command.LogCapacityExceeded:
		return "capacity_exceeded"
	case command.LogNumericalReset:
		return "numerical_reset"
	case command.LogEventOverflow:
		return "event_overflow"
	default:
		return "unknown"
	}
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
