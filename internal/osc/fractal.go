package osc

// Fractal derives additive partial amplitudes from Mandelbrot escape
// iterations sampled along a line in the complex plane: partial k takes
// amp_k = escape(c + k·δ) / maxIter. Amplitude recalculation is explicit
// and gated by a dirty flag so coordinate sweeps stay cheap.
type Fractal struct {
	add     Additive
	cr, ci  float64
	delta   float64
	maxIter int
	dirty   bool
}

func NewFractal() *Fractal {
	f := &Fractal{
		cr:      -0.74,
		ci:      0.12,
		delta:   0.004,
		maxIter: 48,
		dirty:   true,
	}
	return f
}

func (f *Fractal) Init(sampleRate int) {
	f.add.Init(sampleRate)
	if f.dirty {
		f.Recalculate()
	}
}

func (f *Fractal) SetFrequency(hz float64) { f.add.SetFrequency(hz) }

// SetCoordinate moves the sampling origin. Takes effect on the next
// Recalculate.
func (f *Fractal) SetCoordinate(cr, ci float64) {
	if cr == f.cr && ci == f.ci {
		return
	}
	f.cr = clamp(cr, -2, 2)
	f.ci = clamp(ci, -2, 2)
	f.dirty = true
}

// SetDelta sets the per-partial step along the real axis.
func (f *Fractal) SetDelta(d float64) {
	f.delta = clamp(d, 0.00001, 0.1)
	f.dirty = true
}

// SetMaxIterations bounds the escape iteration count.
func (f *Fractal) SetMaxIterations(n int) {
	f.maxIter = clampInt(n, 4, 512)
	f.dirty = true
}

// Dirty reports whether coordinates changed since the last Recalculate.
func (f *Fractal) Dirty() bool { return f.dirty }

// Recalculate recomputes the 64 partial amplitudes. Not called from the
// per-sample path.
func (f *Fractal) Recalculate() {
	var amps [maxPartials]float64
	for k := 0; k < maxPartials; k++ {
		cr := f.cr + float64(k)*f.delta
		amps[k] = float64(f.escape(cr, f.ci)) / float64(f.maxIter)
	}
	f.add.SetAmplitudes(amps[:])
	f.dirty = false
}

func (f *Fractal) escape(cr, ci float64) int {
	var zr, zi float64
	for i := 0; i < f.maxIter; i++ {
		zr2 := zr*zr - zi*zi + cr
		zi = 2*zr*zi + ci
		zr = zr2
		if zr*zr+zi*zi > 4 {
			return i
		}
	}
	return f.maxIter
}

func (f *Fractal) Process() float32 {
	return f.add.Process()
}

func (f *Fractal) ProcessBlock(out []float32, n int) {
	f.add.ProcessBlock(out, n)
}
