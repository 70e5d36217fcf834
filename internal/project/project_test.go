package project

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intuitive-audio/intuitive-go/internal/fx"
)

func TestNewProjectDefaults(t *testing.T) {
	p := New("demo", 48000, 256)
	require.Len(t, p.Tracks, 1)
	require.Len(t, p.Patterns, 1)
	assert.Equal(t, 120.0, p.Transport.BPM)
	assert.False(t, p.Transport.Playing)
}

func TestBPMClamp(t *testing.T) {
	tr := NewTransport(48000)
	tr.SetBPM(1000)
	assert.Equal(t, 400.0, tr.BPM)
	tr.SetBPM(5)
	assert.Equal(t, 20.0, tr.BPM)
}

func TestTransportResumeAndStop(t *testing.T) {
	tr := NewTransport(48000)
	tr.Play()
	var spans [2]Span
	tr.Advance(48000, &spans)
	require.Equal(t, int64(48000), tr.SampleCounter)
	tr.Pause()
	tr.Play() // resume keeps position
	assert.Equal(t, int64(48000), tr.SampleCounter)
	tr.Stop()
	assert.Equal(t, int64(0), tr.SampleCounter)
	assert.False(t, tr.Playing)
}

func TestTransportMonotonicWithoutLoop(t *testing.T) {
	tr := NewTransport(48000)
	tr.Play()
	var spans [2]Span
	prev := tr.CurrentBeat()
	for i := 0; i < 100; i++ {
		n := tr.Advance(256, &spans)
		require.Equal(t, 1, n)
		b := tr.CurrentBeat()
		require.GreaterOrEqual(t, b, prev)
		prev = b
	}
}

func TestTransportLoopSplit(t *testing.T) {
	tr := NewTransport(48000)
	tr.Looping = true
	require.True(t, tr.SetLoop(0, 2))
	tr.Play()
	// 2 beats at 120 BPM = 1 s = 48000 samples. Seek near the seam.
	tr.SetPositionBeats(1.99)
	var spans [2]Span
	n := tr.Advance(1024, &spans)
	require.Equal(t, 2, n)
	assert.Equal(t, 2.0, spans[0].EndBeat)
	assert.True(t, spans[1].Wrapped)
	assert.Equal(t, 0.0, spans[1].StartBeat)
	assert.Equal(t, spans[0].Frames+spans[1].Frames, 1024)
	assert.Less(t, tr.CurrentBeat(), 0.1)
}

func TestSetLoopRejectsInverted(t *testing.T) {
	tr := NewTransport(48000)
	assert.False(t, tr.SetLoop(4, 2))
	assert.False(t, tr.SetLoop(2, 2))
}

func TestPatternSortedIndex(t *testing.T) {
	p := NewPattern(0, "p", 4)
	p.AddNote(60, 1, 2.0, 0.5, 0)
	p.AddNote(62, 1, 0.5, 0.5, 0)
	p.AddNote(64, 1, 1.0, 0.5, 0)
	idx := p.SortedIndex()
	require.Len(t, idx, 3)
	prev := -1.0
	for _, i := range idx {
		require.GreaterOrEqual(t, p.Notes[i].StartBeat, prev)
		prev = p.Notes[i].StartBeat
	}
}

func TestPatternNoteClamping(t *testing.T) {
	p := NewPattern(0, "p", 4)
	id, ok := p.AddNote(200, 3.0, -1, 0.5, 9)
	require.True(t, ok)
	n := p.Notes[0]
	assert.Equal(t, id, n.ID)
	assert.Equal(t, 127, n.Pitch)
	assert.Equal(t, 1.0, n.Velocity)
	assert.Equal(t, 0.0, n.StartBeat)
	assert.Equal(t, 1.0, n.PanOffset)
}

func TestRemoveTrackDropsItems(t *testing.T) {
	p := New("demo", 48000, 256)
	tid := p.Tracks[0].ID
	pid := p.Patterns[0].ID
	require.True(t, p.AddItem(Item{PatternID: pid, TrackID: tid}))
	require.True(t, p.RemoveTrack(tid))
	assert.Empty(t, p.Items)
}

func TestAddItemRejectsDangling(t *testing.T) {
	p := New("demo", 48000, 256)
	assert.False(t, p.AddItem(Item{PatternID: 999, TrackID: p.Tracks[0].ID}))
	assert.False(t, p.AddItem(Item{PatternID: p.Patterns[0].ID, TrackID: 999}))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := New("roundtrip", 48000, 256)
	p.Transport.SetBPM(132)
	p.Transport.Looping = true
	p.Transport.SetLoop(1, 5)
	p.MasterVolume = 0.65

	tr := p.Tracks[0]
	tr.Volume = 1.5
	tr.Pan = -0.25
	tr.Mute = true
	slot := tr.Chain.Add(fx.KindReverb)
	tr.Chain.SetParam(slot, 3, 0.7)

	t2 := NewTrack(p.NextTrackID(), "Bass", 48000)
	t2.Solo = true
	require.True(t, p.AddTrack(t2))

	pat := p.Patterns[0]
	pat.AddNote(60, 0.9, 0, 1, 0)
	pat.AddNote(67, 0.8, 1.5, 0.25, -0.5)
	require.True(t, p.AddItem(Item{PatternID: pat.ID, TrackID: tr.ID, StartBeat: 2, Muted: true}))

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, p))

	q, err := Load(&buf, 48000, 256)
	require.NoError(t, err)
	assert.Equal(t, 132.0, q.Transport.BPM)
	assert.True(t, q.Transport.Looping)
	assert.Equal(t, 1.0, q.Transport.LoopStart)
	assert.Equal(t, 5.0, q.Transport.LoopEnd)
	assert.InDelta(t, 0.65, q.MasterVolume, 1e-6)

	require.Len(t, q.Tracks, 2)
	qt := q.Tracks[0]
	assert.Equal(t, tr.ID, qt.ID)
	assert.InDelta(t, 1.5, qt.Volume, 1e-6)
	assert.InDelta(t, -0.25, qt.Pan, 1e-6)
	assert.True(t, qt.Mute)
	require.Equal(t, 1, qt.Chain.Len())
	assert.Equal(t, fx.KindReverb, qt.Chain.SlotAt(0).Kind)
	assert.InDelta(t, 0.7, float64(qt.Chain.Param(0, 3)), 1e-6)
	assert.True(t, q.Tracks[1].Solo)

	require.Len(t, q.Patterns, 1)
	qp := q.Patterns[0]
	require.Len(t, qp.Notes, 2)
	// Note ordering by id survives the round trip.
	assert.Equal(t, pat.Notes[0].ID, qp.Notes[0].ID)
	assert.Equal(t, pat.Notes[1].ID, qp.Notes[1].ID)
	assert.Equal(t, 67, qp.Notes[1].Pitch)
	assert.InDelta(t, 1.5, qp.Notes[1].StartBeat, 1e-6)

	require.Len(t, q.Items, 1)
	assert.True(t, q.Items[0].Muted)
	assert.InDelta(t, 2.0, q.Items[0].StartBeat, 1e-6)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("NOPE0000")), 48000, 256)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestLoadRejectsTruncated(t *testing.T) {
	p := New("x", 48000, 256)
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, p))
	data := buf.Bytes()
	_, err := Load(bytes.NewReader(data[:len(data)-6]), 48000, 256)
	require.Error(t, err)
}

func TestLoadSkipsTrailingBytes(t *testing.T) {
	p := New("x", 48000, 256)
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, p))
	buf.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	q, err := Load(&buf, 48000, 256)
	require.NoError(t, err)
	require.NotNil(t, q)
}

func TestColorsAreStable(t *testing.T) {
	a := NoteColor(60)
	b := NoteColor(60)
	assert.Equal(t, a, b)
	if a == NoteColor(61) {
		t.Fatal("adjacent pitch classes should differ in color")
	}
	if TrackColor(0) == TrackColor(1) {
		t.Fatal("adjacent tracks should differ in color")
	}
}

func TestSamplesPerBeat(t *testing.T) {
	tr := NewTransport(48000)
	assert.InDelta(t, 24000, tr.SamplesPerBeat(), 1e-9)
	tr.SetBPM(60)
	assert.InDelta(t, 48000, tr.SamplesPerBeat(), 1e-9)
	if math.Abs(tr.CurrentBeat()) > 1e-12 {
		t.Fatal("beat should be 0 at counter 0")
	}
}
