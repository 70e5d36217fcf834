package dsp

import (
	"math"
	"testing"
)

func sineEnergy(f *SVF, freq float64, sampleRate int) float64 {
	phase := 0.0
	inc := 2 * math.Pi * freq / float64(sampleRate)
	var energy float64
	n := sampleRate / 2
	for i := 0; i < n; i++ {
		out := f.Process(math.Sin(phase))
		phase += inc
		if i > n/4 { // skip transient
			energy += out * out
		}
	}
	return energy
}

func TestSVFLowpassAttenuatesHighs(t *testing.T) {
	lo := NewSVF()
	lo.Init(48000)
	lo.SetCutoff(500)
	lowE := sineEnergy(lo, 100, 48000)

	hi := NewSVF()
	hi.Init(48000)
	hi.SetCutoff(500)
	highE := sineEnergy(hi, 8000, 48000)

	if highE >= lowE*0.5 {
		t.Fatalf("lowpass should attenuate 8kHz well below 100Hz: low=%f high=%f", lowE, highE)
	}
}

func TestSVFHighpassAttenuatesLows(t *testing.T) {
	f := NewSVF()
	f.Init(48000)
	f.SetMode(ModeHP)
	f.SetCutoff(2000)
	lowE := sineEnergy(f, 100, 48000)

	g := NewSVF()
	g.Init(48000)
	g.SetMode(ModeHP)
	g.SetCutoff(2000)
	highE := sineEnergy(g, 8000, 48000)

	if lowE >= highE*0.5 {
		t.Fatalf("highpass should attenuate 100Hz: low=%f high=%f", lowE, highE)
	}
}

func TestSVFCutoffClamp(t *testing.T) {
	f := NewSVF()
	f.Init(48000)
	f.SetCutoff(100000)
	if f.Cutoff() > 48000*0.45 {
		t.Fatalf("cutoff should clamp to 0.45*sr, got %f", f.Cutoff())
	}
	f.SetCutoff(1)
	if f.Cutoff() != 20 {
		t.Fatalf("cutoff should clamp to 20, got %f", f.Cutoff())
	}
}

func TestSVFStableAtHighCutoff(t *testing.T) {
	f := NewSVF()
	f.Init(48000)
	f.SetCutoff(48000 * 0.45)
	f.SetResonance(10)
	for i := 0; i < 48000; i++ {
		out := f.Process(math.Sin(float64(i) * 0.3))
		if math.IsNaN(out) || math.Abs(out) > 100 {
			t.Fatalf("filter blew up at sample %d: %f", i, out)
		}
	}
}

func TestADSRStageTransitions(t *testing.T) {
	e := NewADSR()
	e.Init(48000)
	e.Set(0.001, 0.002, 0.5, 0.003)
	if !e.Idle() {
		t.Fatal("fresh envelope should be idle")
	}
	e.Gate(true)
	if e.Stage() != StageAttack {
		t.Fatal("gate-on should enter attack")
	}
	// Run through attack (48 samples) and decay.
	for i := 0; i < 500; i++ {
		e.Process()
	}
	if e.Stage() != StageSustain {
		t.Fatalf("expected sustain, got stage %d", e.Stage())
	}
	if math.Abs(e.Level()-0.5) > 1e-9 {
		t.Fatalf("sustain level should be 0.5, got %f", e.Level())
	}
	e.Gate(false)
	if e.Stage() != StageRelease {
		t.Fatal("gate-off should enter release")
	}
	for i := 0; i < 500; i++ {
		e.Process()
	}
	if !e.Idle() || e.Level() != 0 {
		t.Fatalf("release should settle to idle at 0, got stage=%d level=%f", e.Stage(), e.Level())
	}
}

func TestADSRReleaseFromAttack(t *testing.T) {
	e := NewADSR()
	e.Init(48000)
	e.Set(1.0, 0.1, 0.8, 0.01)
	e.Gate(true)
	for i := 0; i < 4800; i++ { // 0.1s of a 1s attack -> level ~0.1
		e.Process()
	}
	mid := e.Level()
	if mid <= 0 || mid >= 1 {
		t.Fatalf("expected mid-attack level, got %f", mid)
	}
	e.Gate(false)
	prev := e.Level()
	for i := 0; i < 48000; i++ {
		l := e.Process()
		if l > prev+1e-9 {
			t.Fatal("release must be non-increasing")
		}
		prev = l
		if e.Idle() {
			return
		}
	}
	t.Fatal("release never completed")
}

func TestADSRStableAcrossSampleRates(t *testing.T) {
	for _, sr := range []int{22050, 44100, 48000, 96000} {
		e := NewADSR()
		e.Init(sr)
		e.Set(0.01, 0.01, 0.5, 0.01)
		e.Gate(true)
		for i := 0; i < sr; i++ {
			l := e.Process()
			if l < 0 || l > 1 {
				t.Fatalf("sr=%d level escaped [0,1]: %f", sr, l)
			}
		}
	}
}
