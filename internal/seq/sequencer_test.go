package seq

import (
	"testing"

	"github.com/intuitive-audio/intuitive-go/internal/project"
)

func setup(t *testing.T) (*project.Project, *Sequencer) {
	t.Helper()
	p := project.New("seq", 48000, 256)
	return p, New(p)
}

func advanceCollect(p *project.Project, s *Sequencer, frames int) []Event {
	var spans [2]project.Span
	n := p.Transport.Advance(frames, &spans)
	out := append([]Event(nil), s.Collect(spans[0])...)
	if n == 2 {
		out = append(out, s.Collect(spans[1])...)
	}
	return out
}

func TestEmitsNoteOnAtStart(t *testing.T) {
	p, s := setup(t)
	pat := p.Patterns[0]
	pat.AddNote(69, 1, 0, 1, 0)
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	s.Rebuild(0)
	p.Transport.Play()

	ev := advanceCollect(p, s, 256)
	if len(ev) != 1 || !ev[0].On || ev[0].Pitch != 69 || ev[0].Frame != 0 {
		t.Fatalf("expected single note-on at frame 0, got %+v", ev)
	}
}

func TestNoteOffAfterDuration(t *testing.T) {
	p, s := setup(t)
	pat := p.Patterns[0]
	pat.AddNote(60, 1, 0, 0.5, 0) // 0.5 beats = 12000 samples at 120 BPM
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	s.Rebuild(0)
	p.Transport.Play()

	var off *Event
	for b := 0; b < 100 && off == nil; b++ {
		for _, e := range advanceCollect(p, s, 256) {
			if !e.On {
				c := e
				off = &c
			}
		}
	}
	if off == nil {
		t.Fatal("note-off never emitted")
	}
	if off.Pitch != 60 {
		t.Fatalf("note-off pitch = %d", off.Pitch)
	}
}

func TestOffBeforeOnAtSameFrame(t *testing.T) {
	p, s := setup(t)
	pat := p.Patterns[0]
	pat.AddNote(60, 1, 0, 1, 0)   // off exactly at beat 1
	pat.AddNote(62, 1, 1, 0.5, 0) // on exactly at beat 1
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	s.Rebuild(0)
	p.Transport.Play()

	for b := 0; b < 200; b++ {
		ev := advanceCollect(p, s, 256)
		for i := 1; i < len(ev); i++ {
			if ev[i].Frame == ev[i-1].Frame && !ev[i].On && ev[i-1].On {
				t.Fatalf("note-on ordered before note-off at frame %d", ev[i].Frame)
			}
		}
		for i := 1; i < len(ev); i++ {
			if ev[i].Frame < ev[i-1].Frame {
				t.Fatal("events not sorted by frame")
			}
		}
	}
}

func TestLoopSeamEventAtLoopEnd(t *testing.T) {
	p, s := setup(t)
	pat := p.Patterns[0]
	pat.AddNote(64, 1, 0, 0.25, 0) // note at loop start
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	p.Transport.Looping = true
	p.Transport.SetLoop(0, 2)
	s.Rebuild(0)
	p.Transport.Play()

	// Consume the first pass (with the initial note-on).
	first := advanceCollect(p, s, 256)
	if len(first) == 0 {
		t.Fatal("expected initial note-on")
	}

	// Play up to just before the seam, then across it.
	total := 256
	seam := int(2 * p.Transport.SamplesPerBeat()) // 48000
	for total+256 <= seam {
		advanceCollect(p, s, 256)
		total += 256
	}
	ev := advanceCollect(p, s, 256) // crosses the seam
	var wrappedOn *Event
	for _, e := range ev {
		if e.On && e.Pitch == 64 {
			c := e
			wrappedOn = &c
		}
	}
	if wrappedOn == nil {
		t.Fatal("note at loop start not re-emitted after wrap")
	}
	// It must land at the wrapped span's first frame, i.e. the seam
	// offset inside this block, not the block tail.
	if wrappedOn.Frame != seam-total {
		t.Fatalf("wrapped note-on at frame %d, want %d", wrappedOn.Frame, seam-total)
	}
}

func TestLoopWrapCountScenario(t *testing.T) {
	// Scenario 2: BPM=120, loop [0,2), one note at 1.9; 5 seconds of
	// playback yields 5 note-ons (first pass + 4 wraps).
	p, s := setup(t)
	pat := p.Patterns[0]
	pat.AddNote(60, 1, 1.9, 0.05, 0)
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	p.Transport.Looping = true
	p.Transport.SetLoop(0, 2)
	s.Rebuild(0)
	p.Transport.Play()

	ons := 0
	blocks := 5 * 48000 / 256
	for b := 0; b < blocks; b++ {
		for _, e := range advanceCollect(p, s, 256) {
			if e.On {
				ons++
			}
		}
	}
	if ons != 5 {
		t.Fatalf("expected 5 note-ons in 5 s, got %d", ons)
	}
}

func TestMutedItemEmitsNothing(t *testing.T) {
	p, s := setup(t)
	pat := p.Patterns[0]
	pat.AddNote(60, 1, 0, 1, 0)
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID, Muted: true})
	s.Rebuild(0)
	p.Transport.Play()
	for b := 0; b < 50; b++ {
		if ev := advanceCollect(p, s, 256); len(ev) != 0 {
			t.Fatalf("muted item emitted %+v", ev)
		}
	}
}

func TestItemStartShiftsNotes(t *testing.T) {
	p, s := setup(t)
	pat := p.Patterns[0]
	pat.AddNote(60, 1, 0, 0.5, 0)
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID, StartBeat: 1})
	s.Rebuild(0)
	p.Transport.Play()

	// Beat 1 at 120 BPM = sample 24000 = block 93, frame 192.
	var got *Event
	for b := 0; b < 200 && got == nil; b++ {
		for _, e := range advanceCollect(p, s, 256) {
			if e.On {
				c := e
				got = &c
			}
		}
		if got != nil {
			expectBlock := 24000 / 256
			if b != expectBlock {
				t.Fatalf("note-on in block %d, want %d", b, expectBlock)
			}
			if got.Frame != 24000%256 {
				t.Fatalf("note-on frame %d, want %d", got.Frame, 24000%256)
			}
		}
	}
	if got == nil {
		t.Fatal("shifted note never emitted")
	}
}

func TestRebuildSkipsPastNotes(t *testing.T) {
	p, s := setup(t)
	pat := p.Patterns[0]
	pat.AddNote(60, 1, 0, 0.5, 0)
	pat.AddNote(64, 1, 2, 0.5, 0)
	p.AddItem(project.Item{PatternID: pat.ID, TrackID: p.Tracks[0].ID})
	p.Transport.SetPositionBeats(1)
	s.Rebuild(1)
	p.Transport.Play()

	for b := 0; b < 400; b++ {
		for _, e := range advanceCollect(p, s, 256) {
			if e.On && e.Pitch == 60 {
				t.Fatal("note before seek position should not replay")
			}
			if e.On && e.Pitch == 64 {
				return
			}
		}
	}
	t.Fatal("note after seek position never played")
}
