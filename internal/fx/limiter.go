package fx

import "math"

// limiter is a peak limiter: instantaneous attack, smoothed release, no
// true-peak detection.
type limiter struct {
	sampleRate  float64
	ceiling     float64
	releaseCoef float64
	env         float64
}

func newLimiter(sampleRate int) *limiter {
	l := &limiter{sampleRate: float64(sampleRate)}
	l.set(-0.3, 50)
	return l
}

func (lm *limiter) set(ceilingDB, releaseMs float64) {
	lm.ceiling = math.Pow(10, ceilingDB/20)
	lm.releaseCoef = math.Exp(-1.0 / (releaseMs * lm.sampleRate / 1000))
}

func (lm *limiter) update(p *[MaxParams]float32) {
	lm.set(float64(p[0]), float64(p[1]))
}

func (lm *limiter) process(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		peak := math.Abs(float64(l[i]))
		if pr := math.Abs(float64(r[i])); pr > peak {
			peak = pr
		}
		if peak > lm.env {
			lm.env = peak // attack is instantaneous
		} else {
			lm.env *= lm.releaseCoef
		}
		if lm.env > lm.ceiling {
			g := float32(lm.ceiling / lm.env)
			l[i] *= g
			r[i] *= g
		}
	}
}

func (lm *limiter) reset() {
	lm.env = 0
}
