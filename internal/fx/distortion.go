package fx

import "math"

// distortion is tanh waveshaping with a tone lowpass and dry/wet mix.
// The tone control sweeps the post-filter logarithmically from 200 Hz to
// ~40 kHz (clamped below Nyquist).
type distortion struct {
	sampleRate float64
	drive      float64
	mix        float32
	alpha      float32
	lpL, lpR   float32
}

func newDistortion(sampleRate int) *distortion {
	d := &distortion{sampleRate: float64(sampleRate), drive: 5, mix: 1}
	d.setTone(0.5)
	return d
}

func (d *distortion) setTone(tone float64) {
	cutoff := 200 * math.Pow(10, tone*2.3)
	if cutoff > d.sampleRate*0.45 {
		cutoff = d.sampleRate * 0.45
	}
	rc := 1.0 / (2 * math.Pi * cutoff)
	dt := 1.0 / d.sampleRate
	d.alpha = float32(dt / (rc + dt))
}

func (d *distortion) update(p *[MaxParams]float32) {
	d.drive = float64(p[0]) * 10
	d.setTone(float64(p[1]))
	d.mix = p[2]
}

func (d *distortion) process(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		wl := float32(math.Tanh(d.drive * float64(l[i])))
		wr := float32(math.Tanh(d.drive * float64(r[i])))
		d.lpL += d.alpha * (wl - d.lpL)
		d.lpR += d.alpha * (wr - d.lpR)
		l[i] = l[i]*(1-d.mix) + d.lpL*d.mix
		r[i] = r[i]*(1-d.mix) + d.lpR*d.mix
	}
}

func (d *distortion) reset() {
	d.lpL, d.lpR = 0, 0
}
