package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intuitive-audio/intuitive-go/internal/analysis"
	"github.com/intuitive-audio/intuitive-go/internal/command"
	"github.com/intuitive-audio/intuitive-go/internal/project"
)

func newTestEngine() (*Engine, *command.Queue) {
	p := project.New("test", 48000, 256)
	q := command.NewQueue()
	e := New(p, q, &command.LogRing{})
	return e, q
}

func render(e *Engine, blocks int) ([]float32, []float32) {
	l := make([]float32, 256)
	r := make([]float32, 256)
	for b := 0; b < blocks; b++ {
		e.Render(l, r)
	}
	return l, r
}

// seedOneNote arranges a single held note on track 0.
func seedOneNote(e *Engine, q *command.Queue, pitch int, dur float64) {
	p := e.Project()
	pat := p.Patterns[0]
	pat.AddNote(pitch, 1, 0, dur, 0)
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	q.Push(command.Command{Op: command.OpPlay})
}

func TestSilenceAtRest(t *testing.T) {
	e, _ := newTestEngine()
	l, r := render(e, 10)
	for i := range l {
		require.Zero(t, l[i])
		require.Zero(t, r[i])
	}
}

func TestSilenceAfterPause(t *testing.T) {
	e, q := newTestEngine()
	seedOneNote(e, q, 69, 4)
	render(e, 10)
	q.Push(command.Command{Op: command.OpPause})
	render(e, 1) // block that applies the pause
	l, r := render(e, 5)
	for i := range l {
		require.Zero(t, l[i], "paused engine must emit exact zeros")
		require.Zero(t, r[i])
	}
}

func TestOneNoteSineScenario(t *testing.T) {
	e, q := newTestEngine()
	seedOneNote(e, q, 69, 8) // A4 = 440 Hz, held across the analysis window
	var maxAbs float64
	l := make([]float32, 256)
	r := make([]float32, 256)
	for b := 0; b < 200; b++ { // > WindowSize for the spectrum tap
		e.Render(l, r)
		for i := range l {
			if a := math.Abs(float64(l[i])); a > maxAbs {
				maxAbs = a
			}
		}
	}
	require.Greater(t, maxAbs, 0.01, "expected audible output")
	require.LessOrEqual(t, maxAbs, 1.0)

	var bands [analysis.NumBands]float32
	require.True(t, e.Spectrum().Read(&bands))
	best := 0
	for b := range bands {
		if bands[b] > bands[best] {
			best = b
		}
	}
	center := e.Spectrum().BandCenter(best)
	assert.InDelta(t, 440, center, 250, "peak band should sit near 440 Hz")
	assert.Greater(t, float64(bands[best]), 0.05)
}

func TestSoftClipBound(t *testing.T) {
	e, q := newTestEngine()
	p := e.Project()
	// Stack many loud tracks playing the same note.
	for i := 0; i < 8; i++ {
		tr := project.NewTrack(p.NextTrackID(), "t", 48000)
		tr.Volume = 2
		q.Push(command.Command{Op: command.OpAddTrack, Track: tr})
	}
	render(e, 1)
	pat := p.Patterns[0]
	pat.AddNote(50, 1, 0, 8, 0)
	for _, tr := range p.Tracks {
		p.AddItem(project.Item{PatternID: pat.ID, TrackID: tr.ID})
	}
	q.Push(command.Command{Op: command.OpSetMasterVolume, Value: 2})
	q.Push(command.Command{Op: command.OpPlay})
	l := make([]float32, 256)
	r := make([]float32, 256)
	for b := 0; b < 100; b++ {
		e.Render(l, r)
		for i := range l {
			require.LessOrEqual(t, float64(l[i]), 1.0)
			require.GreaterOrEqual(t, float64(l[i]), -1.0)
		}
	}
}

func TestSoloRule(t *testing.T) {
	e, q := newTestEngine()
	p := e.Project()
	t2 := project.NewTrack(p.NextTrackID(), "b", 48000)
	q.Push(command.Command{Op: command.OpAddTrack, Track: t2})
	render(e, 1)
	require.Len(t, p.Tracks, 2)

	pat := p.Patterns[0]
	pat.AddNote(60, 1, 0, 16, 0)
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[1].ID})
	q.Push(command.Command{Op: command.OpPlay})
	render(e, 20)

	// Solo track 1: output must keep flowing (track 1 contributes).
	q.Push(command.Command{Op: command.OpToggleSolo, TrackID: p.Tracks[1].ID})
	l, r := render(e, 20)
	var energySolo float64
	for i := range l {
		energySolo += float64(l[i]*l[i] + r[i]*r[i])
	}
	require.Greater(t, energySolo, 0.0)

	// Solo off and mute both tracks: silence.
	q.Push(command.Command{Op: command.OpToggleSolo, TrackID: p.Tracks[1].ID})
	q.Push(command.Command{Op: command.OpToggleMute, TrackID: p.Tracks[0].ID})
	q.Push(command.Command{Op: command.OpToggleMute, TrackID: p.Tracks[1].ID})
	render(e, 2)
	l, r = render(e, 5)
	for i := range l {
		require.Zero(t, l[i], "all-muted mix must be silent")
	}
}

func TestSoloExcludesOthers(t *testing.T) {
	e, q := newTestEngine()
	p := e.Project()
	t2 := project.NewTrack(p.NextTrackID(), "b", 48000)
	q.Push(command.Command{Op: command.OpAddTrack, Track: t2})
	render(e, 1)

	// Only track 0 has notes; soloing track 1 must silence the mix.
	pat := p.Patterns[0]
	pat.AddNote(60, 1, 0, 16, 0)
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	q.Push(command.Command{Op: command.OpToggleSolo, TrackID: p.Tracks[1].ID})
	q.Push(command.Command{Op: command.OpPlay})
	render(e, 2)
	l, _ := render(e, 10)
	for i := range l {
		require.Zero(t, l[i], "non-solo track must not reach the mix")
	}
}

func TestParameterClampViaCommand(t *testing.T) {
	e, q := newTestEngine()
	p := e.Project()
	tid := p.Tracks[0].ID
	q.Push(command.Command{Op: command.OpAddEffect, TrackID: tid, Kind: 3 /* reverb */})
	q.Push(command.Command{Op: command.OpSetEffectParam, TrackID: tid, Slot: 0, ParamIdx: 3, Value: 5.0})
	render(e, 1)
	assert.Equal(t, float32(1.0), p.Tracks[0].Chain.Param(0, 3))
	q.Push(command.Command{Op: command.OpSetEffectParam, TrackID: tid, Slot: 0, ParamIdx: 3, Value: -0.2})
	render(e, 1)
	assert.Equal(t, float32(0.0), p.Tracks[0].Chain.Param(0, 3))
}

func TestUnknownIDsDroppedSilently(t *testing.T) {
	logs := &command.LogRing{}
	p := project.New("test", 48000, 256)
	q := command.NewQueue()
	e := New(p, q, logs)
	q.Push(command.Command{Op: command.OpSetVolume, TrackID: 999, Value: 0.5})
	q.Push(command.Command{Op: command.OpToggleMute, TrackID: 999})
	render(e, 1)
	dst := make([]command.LogEntry, 8)
	n := logs.Drain(dst)
	require.Equal(t, 2, n)
	assert.Equal(t, command.LogUnknownID, dst[0].Code)
}

func TestDeterministicSilence(t *testing.T) {
	// Scenario 6: two stopped engines render bitwise-equal zero blocks.
	e1, _ := newTestEngine()
	e2, _ := newTestEngine()
	l1 := make([]float32, 256)
	r1 := make([]float32, 256)
	l2 := make([]float32, 256)
	r2 := make([]float32, 256)
	for b := 0; b < 100; b++ {
		e1.Render(l1, r1)
		e2.Render(l2, r2)
		for i := range l1 {
			require.Equal(t, l1[i], l2[i])
			require.Equal(t, r1[i], r2[i])
		}
	}
}

func TestDeterministicPlayback(t *testing.T) {
	// Identical projects, seeds and command streams produce identical
	// output (noise voices included).
	build := func() *Engine {
		p := project.New("det", 48000, 256)
		q := command.NewQueue()
		e := New(p, q, &command.LogRing{})
		pat := p.Patterns[0]
		pat.AddNote(57, 1, 0, 4, 0)
		p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
		p.Tracks[0].Alloc.SetMix(0.5, 0, 0.5) // include seeded noise
		q.Push(command.Command{Op: command.OpPlay})
		return e
	}
	e1 := build()
	e2 := build()
	l1 := make([]float32, 256)
	r1 := make([]float32, 256)
	l2 := make([]float32, 256)
	r2 := make([]float32, 256)
	for b := 0; b < 200; b++ {
		e1.Render(l1, r1)
		e2.Render(l2, r2)
		for i := range l1 {
			require.Equal(t, l1[i], l2[i], "block %d sample %d", b, i)
		}
	}
}

func TestStopRewindsAndPlayResumes(t *testing.T) {
	e, q := newTestEngine()
	seedOneNote(e, q, 60, 1)
	render(e, 10)
	require.Greater(t, e.PositionSamples(), int64(0))
	q.Push(command.Command{Op: command.OpPause})
	render(e, 1)
	pos := e.PositionSamples()
	q.Push(command.Command{Op: command.OpPlay})
	render(e, 1)
	require.Equal(t, pos+256, e.PositionSamples(), "resume keeps position")
	q.Push(command.Command{Op: command.OpStop})
	render(e, 1)
	assert.Equal(t, int64(0), e.PositionSamples())
	assert.False(t, e.Playing())
}

func TestAddRemoveTrackRoundTrip(t *testing.T) {
	e, q := newTestEngine()
	p := e.Project()
	before := len(p.Tracks)
	tr := project.NewTrack(p.NextTrackID(), "temp", 48000)
	q.Push(command.Command{Op: command.OpAddTrack, Track: tr})
	render(e, 1)
	require.Len(t, p.Tracks, before+1)
	q.Push(command.Command{Op: command.OpRemoveTrack, TrackID: tr.ID})
	render(e, 1)
	require.Len(t, p.Tracks, before)
	require.Len(t, p.Patterns, 1, "patterns unaffected by track removal")
}

func TestCommandLatencyOneBlock(t *testing.T) {
	e, q := newTestEngine()
	p := e.Project()
	q.Push(command.Command{Op: command.OpSetBPM, Value: 90})
	render(e, 1)
	assert.Equal(t, 90.0, p.Transport.BPM)
}

func TestMasterMeterTracksOutput(t *testing.T) {
	e, q := newTestEngine()
	seedOneNote(e, q, 57, 8)
	render(e, 40)
	pl, pr := e.MasterMeter().Read()
	assert.Greater(t, float64(pl), 0.0)
	assert.Greater(t, float64(pr), 0.0)
}

func TestScopeCapturesOutput(t *testing.T) {
	e, q := newTestEngine()
	seedOneNote(e, q, 57, 8)
	render(e, 40)
	dstL := make([]float32, 512)
	dstR := make([]float32, 512)
	require.Equal(t, 512, e.Scope().Snapshot(dstL, dstR))
	var nonZero bool
	for _, v := range dstL {
		if v != 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero)
}

func TestVoiceStealingScenario(t *testing.T) {
	// Scenario 4 at engine level: 17 simultaneous note-ons leave 16
	// active voices.
	e, q := newTestEngine()
	p := e.Project()
	pat := p.Patterns[0]
	for i := 0; i < 17; i++ {
		pat.AddNote(40+i, 1, 0, 8, 0)
	}
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	q.Push(command.Command{Op: command.OpPlay})
	render(e, 4)
	assert.Equal(t, 16, p.Tracks[0].Alloc.ActiveCount())
}

func TestSyncDelayUsesBPM(t *testing.T) {
	e, q := newTestEngine()
	p := e.Project()
	tid := p.Tracks[0].ID
	q.Push(command.Command{Op: command.OpSetBPM, Value: 120})
	q.Push(command.Command{Op: command.OpAddEffect, TrackID: tid, Kind: 4 /* delay */})
	q.Push(command.Command{Op: command.OpSyncDelay, TrackID: tid, Slot: 0})
	render(e, 1)
	assert.InDelta(t, 0.5, float64(p.Tracks[0].Chain.Param(0, 0)), 1e-6)
}

func TestConstantPowerPan(t *testing.T) {
	// The pan law must be applied exactly once: a center-panned track
	// and a hard-left track carry the same total power, and center
	// splits it equally. A double application would cost the center
	// track half its power.
	energy := func(pan float64) (le, re float64) {
		e, q := newTestEngine()
		p := e.Project()
		pat := p.Patterns[0]
		pat.AddNote(69, 1, 0, 8, 0)
		p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
		q.Push(command.Command{Op: command.OpSetPan, TrackID: p.Tracks[0].ID, Value: pan})
		q.Push(command.Command{Op: command.OpPlay})
		l := make([]float32, 256)
		r := make([]float32, 256)
		for b := 0; b < 100; b++ {
			e.Render(l, r)
			for i := range l {
				le += float64(l[i]) * float64(l[i])
				re += float64(r[i]) * float64(r[i])
			}
		}
		return le, re
	}

	cl, cr := energy(0)
	ll, lr := energy(-1)
	require.InEpsilon(t, cl, cr, 0.05, "center pan must split power equally")
	require.Less(t, lr, ll*0.001, "hard left must starve the right channel")
	require.InEpsilon(t, cl+cr, ll+lr, 0.10, "total power must be pan-invariant")
}

func TestNoAllocationsUnderLoad(t *testing.T) {
	e, q := newTestEngine()
	p := e.Project()
	pat := p.Patterns[0]
	for i := 0; i < 16; i++ {
		pat.AddNote(40+i, 1, float64(i)*0.25, 0.2, 0)
	}
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	p.Transport.Looping = true
	p.Transport.SetLoop(0, 4)
	q.Push(command.Command{Op: command.OpPlay})

	l := make([]float32, 256)
	r := make([]float32, 256)
	for b := 0; b < 50; b++ { // warm-up: sort indexes, settle voices
		e.Render(l, r)
	}
	allocs := testing.AllocsPerRun(200, func() {
		e.Render(l, r)
	})
	if allocs > 0 {
		t.Fatalf("render allocated %.1f times per block", allocs)
	}
}

func TestOscillatorRebindCommand(t *testing.T) {
	e, q := newTestEngine()
	p := e.Project()
	q.Push(command.Command{Op: command.OpSetOscillator, TrackID: p.Tracks[0].ID, OscSlot: 1, Family: 4 /* additive */})
	render(e, 1)
	seedOneNote(e, q, 57, 4)
	var nonZero bool
	l := make([]float32, 256)
	r := make([]float32, 256)
	for b := 0; b < 40; b++ {
		e.Render(l, r)
		for i := range l {
			if l[i] != 0 {
				nonZero = true
			}
		}
	}
	assert.True(t, nonZero, "rebound oscillator should still sound")
}
