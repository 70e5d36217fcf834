package fx

import (
	"github.com/intuitive-audio/intuitive-go/internal/lfo"
)

// chorus is a two-tap modulated delay; the taps run in quadrature so the
// two channels decorrelate into a stereo spread.
type chorus struct {
	sampleRate float64
	bufL, bufR []float32
	pos        int
	mod        lfo.LFO
	depthSmp   float64
	baseSmp    float64
	mix        float32
}

func newChorus(sampleRate int) *chorus {
	base := float64(sampleRate) * 0.020 // 20 ms center delay
	size := int(base*2) + 4
	c := &chorus{
		sampleRate: float64(sampleRate),
		bufL:       make([]float32, size),
		bufR:       make([]float32, size),
		baseSmp:    base,
		mix:        0.5,
	}
	c.mod.Set(1, 0.5, lfo.WaveSine)
	c.depthSmp = base * 0.4
	return c
}

func (c *chorus) update(p *[MaxParams]float32) {
	c.mod.Set(1, float64(p[0]), lfo.WaveSine)
	c.depthSmp = c.baseSmp * 0.8 * float64(p[1])
	c.mix = p[2]
}

func (c *chorus) read(buf []float32, delaySmp float64) float32 {
	readPos := float64(c.pos) - delaySmp
	for readPos < 0 {
		readPos += float64(len(buf))
	}
	idx := int(readPos)
	frac := float32(readPos - float64(idx))
	next := idx + 1
	if next >= len(buf) {
		next = 0
	}
	return buf[idx]*(1-frac) + buf[next]*frac
}

func (c *chorus) process(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		m1 := c.mod.Sample(c.sampleRate)
		m2 := c.mod.SampleAt(0.25)
		c.bufL[c.pos] = l[i]
		c.bufR[c.pos] = r[i]
		dl := c.read(c.bufL, c.baseSmp+m1*c.depthSmp)
		dr := c.read(c.bufR, c.baseSmp+m2*c.depthSmp)
		c.pos++
		if c.pos >= len(c.bufL) {
			c.pos = 0
		}
		l[i] = l[i]*(1-c.mix) + dl*c.mix
		r[i] = r[i]*(1-c.mix) + dr*c.mix
	}
}

func (c *chorus) reset() {
	for i := range c.bufL {
		c.bufL[i] = 0
		c.bufR[i] = 0
	}
	c.pos = 0
	c.mod.Reset()
}
