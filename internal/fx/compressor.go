package fx

import "math"

// compressor is a feed-forward compressor with an RMS detector and
// smoothed gain reduction in the dB domain.
type compressor struct {
	sampleRate  float64
	thresholdDB float64
	ratio       float64
	attack      float64 // detector/gain smoothing coefficients
	release     float64
	makeup      float64

	rms2 float64 // running mean square, linked channels
	grDB float64 // smoothed gain reduction (negative dB)
}

func newCompressor(sampleRate int) *compressor {
	c := &compressor{sampleRate: float64(sampleRate)}
	c.set(-20, 4, 10, 100, 0)
	return c
}

func (c *compressor) set(thresholdDB, ratio, attackMs, releaseMs, makeupDB float64) {
	c.thresholdDB = thresholdDB
	c.ratio = ratio
	c.attack = 1 - math.Exp(-1.0/(attackMs*c.sampleRate/1000))
	c.release = 1 - math.Exp(-1.0/(releaseMs*c.sampleRate/1000))
	c.makeup = math.Pow(10, makeupDB/20)
}

func (c *compressor) update(p *[MaxParams]float32) {
	c.set(float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3]), float64(p[4]))
}

func (c *compressor) process(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		sl, sr := float64(l[i]), float64(r[i])
		sq := (sl*sl + sr*sr) * 0.5
		coef := c.release
		if sq > c.rms2 {
			coef = c.attack
		}
		c.rms2 += coef * (sq - c.rms2)

		var targetGR float64
		if c.rms2 > 1e-12 {
			levelDB := 10 * math.Log10(c.rms2)
			if over := levelDB - c.thresholdDB; over > 0 {
				targetGR = over * (1/c.ratio - 1)
			}
		}
		gcoef := c.release
		if targetGR < c.grDB {
			gcoef = c.attack
		}
		c.grDB += gcoef * (targetGR - c.grDB)

		g := math.Pow(10, c.grDB/20) * c.makeup
		l[i] = float32(sl * g)
		r[i] = float32(sr * g)
	}
}

func (c *compressor) reset() {
	c.rms2 = 0
	c.grDB = 0
}
