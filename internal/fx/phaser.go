package fx

import (
	"math"

	"github.com/intuitive-audio/intuitive-go/internal/lfo"
)

const maxPhaserStages = 12

// phaser cascades first-order allpass sections whose corner frequency is
// swept by an LFO; feedback from the last stage deepens the notches.
type phaser struct {
	sampleRate float64
	mod        lfo.LFO
	stages     int
	depth      float64
	feedback   float32

	xL, yL [maxPhaserStages]float32
	xR, yR [maxPhaserStages]float32
	fbL    float32
	fbR    float32
}

func newPhaser(sampleRate int) *phaser {
	p := &phaser{sampleRate: float64(sampleRate), stages: 4, depth: 0.7, feedback: 0.3}
	p.mod.Set(1, 0.3, lfo.WaveSine)
	return p
}

func (p *phaser) update(params *[MaxParams]float32) {
	p.mod.Set(1, float64(params[0]), lfo.WaveSine)
	p.depth = float64(params[1])
	p.feedback = params[2]
	p.stages = int(params[3])
	if p.stages < 2 {
		p.stages = 2
	}
	if p.stages > maxPhaserStages {
		p.stages = maxPhaserStages
	}
}

func (p *phaser) process(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		// Sweep 300 Hz .. ~3.3 kHz, scaled by depth.
		m := (p.mod.Sample(p.sampleRate) + 1) * 0.5
		freq := 300 + 3000*m*p.depth
		w := math.Tan(math.Pi * freq / p.sampleRate)
		a := float32((w - 1) / (w + 1))

		sl := l[i] + p.fbL*p.feedback
		sr := r[i] + p.fbR*p.feedback
		for s := 0; s < p.stages; s++ {
			outL := a*sl + p.xL[s] - a*p.yL[s]
			p.xL[s] = sl
			p.yL[s] = outL
			sl = outL
			outR := a*sr + p.xR[s] - a*p.yR[s]
			p.xR[s] = sr
			p.yR[s] = outR
			sr = outR
		}
		p.fbL = sl
		p.fbR = sr
		l[i] = (l[i] + sl) * 0.5
		r[i] = (r[i] + sr) * 0.5
	}
}

func (p *phaser) reset() {
	for s := 0; s < maxPhaserStages; s++ {
		p.xL[s], p.yL[s] = 0, 0
		p.xR[s], p.yR[s] = 0, 0
	}
	p.fbL, p.fbR = 0, 0
	p.mod.Reset()
}
