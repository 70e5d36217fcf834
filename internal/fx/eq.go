package fx

import "math"

// biquad is a transposed direct-form II section with independent state
// per channel.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	z1L, z2L, z1R, z2R float64
}

func (b *biquad) processSample(inL, inR float64) (float64, float64) {
	outL := b.b0*inL + b.z1L
	b.z1L = b.b1*inL - b.a1*outL + b.z2L
	b.z2L = b.b2*inL - b.a2*outL
	outR := b.b0*inR + b.z1R
	b.z1R = b.b1*inR - b.a1*outR + b.z2R
	b.z2R = b.b2*inR - b.a2*outR
	return outL, outR
}

func (b *biquad) clear() {
	b.z1L, b.z2L, b.z1R, b.z2R = 0, 0, 0, 0
}

// lowShelf fills RBJ low-shelf coefficients (S = 1).
func (b *biquad) lowShelf(sr, freq, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w := 2 * math.Pi * freq / sr
	cw, sw := math.Cos(w), math.Sin(w)
	alpha := sw / 2 * math.Sqrt2
	sqA := 2 * math.Sqrt(a) * alpha

	a0 := (a + 1) + (a-1)*cw + sqA
	b.b0 = a * ((a + 1) - (a-1)*cw + sqA) / a0
	b.b1 = 2 * a * ((a - 1) - (a+1)*cw) / a0
	b.b2 = a * ((a + 1) - (a-1)*cw - sqA) / a0
	b.a1 = -2 * ((a - 1) + (a+1)*cw) / a0
	b.a2 = ((a + 1) + (a-1)*cw - sqA) / a0
}

// highShelf fills RBJ high-shelf coefficients (S = 1).
func (b *biquad) highShelf(sr, freq, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w := 2 * math.Pi * freq / sr
	cw, sw := math.Cos(w), math.Sin(w)
	alpha := sw / 2 * math.Sqrt2
	sqA := 2 * math.Sqrt(a) * alpha

	a0 := (a + 1) - (a-1)*cw + sqA
	b.b0 = a * ((a + 1) + (a-1)*cw + sqA) / a0
	b.b1 = -2 * a * ((a - 1) + (a+1)*cw) / a0
	b.b2 = a * ((a + 1) + (a-1)*cw - sqA) / a0
	b.a1 = 2 * ((a - 1) - (a+1)*cw) / a0
	b.a2 = ((a + 1) - (a-1)*cw - sqA) / a0
}

// peaking fills RBJ peaking-EQ coefficients at fixed Q.
func (b *biquad) peaking(sr, freq, gainDB, q float64) {
	a := math.Pow(10, gainDB/40)
	w := 2 * math.Pi * freq / sr
	cw, sw := math.Cos(w), math.Sin(w)
	alpha := sw / (2 * q)

	a0 := 1 + alpha/a
	b.b0 = (1 + alpha*a) / a0
	b.b1 = -2 * cw / a0
	b.b2 = (1 - alpha*a) / a0
	b.a1 = -2 * cw / a0
	b.a2 = (1 - alpha/a) / a0
}

// eq is the three-band equalizer: low shelf, mid peak (Q=1), high shelf
// in series.
type eq struct {
	sampleRate     float64
	low, mid, high biquad
}

func newEQ(sampleRate int) *eq {
	e := &eq{sampleRate: float64(sampleRate)}
	e.low.lowShelf(e.sampleRate, 250, 0)
	e.mid.peaking(e.sampleRate, 1000, 0, 1)
	e.high.highShelf(e.sampleRate, 4000, 0)
	return e
}

func (e *eq) update(p *[MaxParams]float32) {
	lowFreq := float64(p[3])
	highFreq := float64(p[4])
	midFreq := math.Sqrt(lowFreq * highFreq)
	e.low.lowShelf(e.sampleRate, lowFreq, float64(p[0]))
	e.mid.peaking(e.sampleRate, midFreq, float64(p[1]), 1)
	e.high.highShelf(e.sampleRate, highFreq, float64(p[2]))
}

func (e *eq) process(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		sl, sr := float64(l[i]), float64(r[i])
		sl, sr = e.low.processSample(sl, sr)
		sl, sr = e.mid.processSample(sl, sr)
		sl, sr = e.high.processSample(sl, sr)
		l[i], r[i] = float32(sl), float32(sr)
	}
}

func (e *eq) reset() {
	e.low.clear()
	e.mid.clear()
	e.high.clear()
}
