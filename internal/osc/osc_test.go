package osc

import (
	"math"
	"testing"
)

func TestQuantumSinePurity(t *testing.T) {
	q := NewQuantum()
	q.Init(48000)
	q.SetWaves(WaveSine, WaveSine)
	q.SetFrequency(440)
	// One second of output should peak near unity and stay bounded.
	var maxAbs float64
	for i := 0; i < 48000; i++ {
		s := float64(q.Process())
		if a := math.Abs(s); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs < 0.9 || maxAbs > 1.001 {
		t.Fatalf("sine peak out of range: %f", maxAbs)
	}
}

func TestQuantumMorphCrossfade(t *testing.T) {
	q := NewQuantum()
	q.Init(48000)
	q.SetWaves(WaveSine, WaveSaw)
	q.SetFrequency(220)
	q.SetMorph(0.5)
	var nonZero bool
	for i := 0; i < 1000; i++ {
		if q.Process() != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Fatal("morphed output should be non-zero")
	}
}

func TestQuantumSquareZeroDC(t *testing.T) {
	q := NewQuantum()
	q.Init(48000)
	q.SetWaves(WaveSquare, WaveSquare)
	q.SetPulseWidth(0.5)
	q.SetFrequency(100)
	var sum float64
	n := 48000 // whole number of cycles at 100 Hz
	for i := 0; i < n; i++ {
		sum += float64(q.Process())
	}
	if dc := math.Abs(sum / float64(n)); dc > 0.01 {
		t.Fatalf("square DC offset too large: %f", dc)
	}
}

func TestPolyBLEPBoundsSaw(t *testing.T) {
	q := NewQuantum()
	q.Init(48000)
	q.SetWaves(WaveSaw, WaveSaw)
	q.SetFrequency(4000) // high enough that naive saw would alias hard
	for i := 0; i < 10000; i++ {
		s := float64(q.Process())
		if math.Abs(s) > 1.3 {
			t.Fatalf("saw sample out of range at %d: %f", i, s)
		}
	}
}

func TestChaosStaysBoundedAndResets(t *testing.T) {
	c := NewChaos()
	c.Init(48000)
	c.SetFrequency(220)
	buf := make([]float32, 256)
	for b := 0; b < 100; b++ {
		c.ProcessBlock(buf, len(buf))
		for i, s := range buf {
			if math.IsNaN(float64(s)) || math.Abs(float64(s)) > 1 {
				t.Fatalf("block %d sample %d out of range: %f", b, i, s)
			}
		}
	}
	c.Reset()
	if c.x != 0.1 || c.y != 0 || c.z != 0 {
		t.Fatal("reset should reseed (0.1, 0, 0)")
	}
}

func TestChaosBetaClamp(t *testing.T) {
	c := NewChaos()
	c.SetBeta(-5)
	if c.beta <= 0 {
		t.Fatalf("beta must stay positive, got %f", c.beta)
	}
}

func TestWavetableDefaultTables(t *testing.T) {
	w := NewWavetable()
	w.Init(48000)
	if w.NumTables() != 4 {
		t.Fatalf("expected 4 default tables, got %d", w.NumTables())
	}
	w.SetFrequency(440)
	var nonZero bool
	for i := 0; i < 1000; i++ {
		if w.Process() != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Fatal("expected non-zero wavetable output")
	}
}

func TestWavetablePositionMorph(t *testing.T) {
	w := NewWavetable()
	w.Init(48000)
	w.SetFrequency(100)
	w.SetPosition(0) // pure sine table
	var sum0 float64
	for i := 0; i < 480; i++ {
		sum0 += math.Abs(float64(w.Process()))
	}
	w2 := NewWavetable()
	w2.Init(48000)
	w2.SetFrequency(100)
	w2.SetPosition(1) // pure saw table
	var sum1 float64
	for i := 0; i < 480; i++ {
		sum1 += math.Abs(float64(w2.Process()))
	}
	if sum0 == sum1 {
		t.Fatal("different table positions should produce different output")
	}
}

func TestFMAlgorithms(t *testing.T) {
	for _, tc := range []struct {
		name string
		n    int
		alg  Algorithm
	}{
		{"2-op stack", 2, AlgoStack},
		{"4-op stack", 4, AlgoStack},
		{"4-op parallel", 4, AlgoParallel},
		{"6-op star", 6, AlgoStar},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFM()
			f.SetOperatorCount(tc.n)
			f.SetAlgorithm(tc.alg, 2.0)
			f.Init(48000)
			f.SetFrequency(220)
			var maxAbs float64
			for i := 0; i < 2000; i++ {
				if a := math.Abs(float64(f.Process())); a > maxAbs {
					maxAbs = a
				}
			}
			if maxAbs < 0.01 {
				t.Errorf("%s produced no output", tc.name)
			}
			if maxAbs > 1.001 {
				t.Errorf("%s exceeded unit range: %f", tc.name, maxAbs)
			}
		})
	}
}

func TestFMMatrixLowerTriangularOnly(t *testing.T) {
	f := NewFM()
	f.SetOperatorCount(2)
	f.SetAlgorithm(AlgoParallel, 0)
	f.Init(48000)
	f.SetFrequency(220)
	ref := make([]float32, 512)
	f.ProcessBlock(ref, len(ref))

	// Upward entry (src >= dest) must not change the output.
	g := NewFM()
	g.SetOperatorCount(2)
	g.SetAlgorithm(AlgoParallel, 0)
	g.SetMatrix(0, 1, 8.0)
	g.Init(48000)
	g.SetFrequency(220)
	got := make([]float32, 512)
	g.ProcessBlock(got, len(got))
	for i := range ref {
		if ref[i] != got[i] {
			t.Fatalf("M[0][1] should be inert, sample %d differs", i)
		}
	}
}

func TestAdditiveRolloff(t *testing.T) {
	a := NewAdditive()
	a.HarmonicSeries(16, 2.0)
	if a.amps[0] != 1.0 {
		t.Fatalf("fundamental amp should be 1, got %f", a.amps[0])
	}
	if a.amps[3] != 1.0/16.0 {
		t.Fatalf("partial 4 with alpha=2 should be 1/16, got %f", a.amps[3])
	}
	a.Init(48000)
	a.SetFrequency(110)
	var maxAbs float64
	for i := 0; i < 4800; i++ {
		if v := math.Abs(float64(a.Process())); v > maxAbs {
			maxAbs = v
		}
	}
	if maxAbs < 0.1 || maxAbs > 1.001 {
		t.Fatalf("additive peak out of range: %f", maxAbs)
	}
}

func TestNoiseSeedDeterminism(t *testing.T) {
	for _, kind := range []NoiseKind{NoiseWhite, NoisePink, NoiseBrown, NoiseVelvet, NoiseCrackle} {
		a := NewNoise()
		a.SetSeed(1234)
		a.SetKind(kind)
		a.Init(48000)
		b := NewNoise()
		b.SetSeed(1234)
		b.SetKind(kind)
		b.Init(48000)
		for i := 0; i < 4096; i++ {
			if a.Process() != b.Process() {
				t.Fatalf("kind %d diverged at sample %d", kind, i)
			}
		}
	}
}

func TestNoiseBrownBounded(t *testing.T) {
	n := NewNoise()
	n.SetKind(NoiseBrown)
	n.Init(48000)
	for i := 0; i < 48000; i++ {
		if s := float64(n.Process()); s < -1 || s > 1 {
			t.Fatalf("brown noise escaped [-1,1]: %f", s)
		}
	}
}

func TestNoiseVelvetSparse(t *testing.T) {
	n := NewNoise()
	n.SetKind(NoiseVelvet)
	n.SetDensity(2205)
	n.Init(44100)
	var impulses int
	total := 44100
	for i := 0; i < total; i++ {
		if n.Process() != 0 {
			impulses++
		}
	}
	// Roughly density impulses per second; allow a wide statistical band.
	if impulses < 1000 || impulses > 4000 {
		t.Fatalf("expected ~2205 impulses, got %d", impulses)
	}
}

func TestFractalRecalculateGating(t *testing.T) {
	f := NewFractal()
	f.Init(48000)
	if f.Dirty() {
		t.Fatal("Init should have recalculated")
	}
	f.SetCoordinate(-0.5, 0.3)
	if !f.Dirty() {
		t.Fatal("coordinate change should mark dirty")
	}
	f.Recalculate()
	if f.Dirty() {
		t.Fatal("Recalculate should clear dirty")
	}
	// Same coordinate again must not re-dirty.
	f.SetCoordinate(-0.5, 0.3)
	if f.Dirty() {
		t.Fatal("unchanged coordinate should not mark dirty")
	}
}

func TestFractalProducesSignal(t *testing.T) {
	f := NewFractal()
	f.Init(48000)
	f.SetFrequency(110)
	var nonZero bool
	for i := 0; i < 4800; i++ {
		if f.Process() != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("fractal oscillator should produce signal")
	}
}

func TestNewSourceFamilies(t *testing.T) {
	for fam := FamilyQuantum; fam <= FamilyFractal; fam++ {
		s := NewSource(fam, 48000)
		if s == nil {
			t.Fatalf("family %d returned nil", fam)
		}
		s.SetFrequency(220)
		buf := make([]float32, 64)
		s.ProcessBlock(buf, len(buf))
	}
}
