package fx

// Schroeder reverb: 8 parallel damped combs feeding 4 series allpasses,
// run twice with offset delays for a decorrelated right channel. The
// room parameter scales the comb delays from 0.5x to 1.5x of their base
// tunings (about 25-37 ms at room 0.5) and lifts the loop feedback;
// damping is the in-comb one-pole lowpass.

const (
	numCombs     = 8
	numAllpasses = 4
	stereoSpread = 23 // samples, right-channel delay offset
)

// Base comb tunings in samples at 44.1 kHz (prime-ish spread).
var combTuning = [numCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpassTuning = [numAllpasses]int{556, 441, 341, 225}

type comb struct {
	buf      []float32
	size     int
	pos      int
	feedback float32
	damp     float32
	store    float32
}

func (c *comb) setSize(size int) {
	if size < 1 {
		size = 1
	}
	if size > len(c.buf) {
		size = len(c.buf)
	}
	c.size = size
	if c.pos >= size {
		c.pos = 0
	}
}

func (c *comb) process(in float32) float32 {
	out := c.buf[c.pos]
	c.store = out*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = in + c.store*c.feedback
	c.pos++
	if c.pos >= c.size {
		c.pos = 0
	}
	return out
}

type allpass struct {
	buf  []float32
	size int
	pos  int
}

func (a *allpass) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*0.5
	a.pos++
	if a.pos >= a.size {
		a.pos = 0
	}
	return out
}

type reverb struct {
	sampleRate float64
	combL      [numCombs]comb
	combR      [numCombs]comb
	apL        [numAllpasses]allpass
	apR        [numAllpasses]allpass
	width      float32
	mix        float32
}

func newReverb(sampleRate int) *reverb {
	r := &reverb{sampleRate: float64(sampleRate)}
	scale := float64(sampleRate) / 44100.0
	for i := 0; i < numCombs; i++ {
		// Capacity covers room=1 plus the stereo spread.
		capSamples := int(float64(combTuning[i])*scale*1.5) + stereoSpread + 1
		r.combL[i].buf = make([]float32, capSamples)
		r.combR[i].buf = make([]float32, capSamples)
	}
	for i := 0; i < numAllpasses; i++ {
		size := int(float64(allpassTuning[i]) * scale)
		if size < 1 {
			size = 1
		}
		r.apL[i] = allpass{buf: make([]float32, size+stereoSpread), size: size}
		r.apR[i] = allpass{buf: make([]float32, size+stereoSpread), size: size + stereoSpread}
	}
	var p [MaxParams]float32
	p[0], p[1], p[2], p[3] = 0.5, 0.5, 1, 0.3
	r.update(&p)
	return r
}

func (r *reverb) update(p *[MaxParams]float32) {
	room, damp, width, mix := p[0], p[1], p[2], p[3]
	scale := r.sampleRate / 44100.0
	fb := 0.7 + 0.28*room
	for i := 0; i < numCombs; i++ {
		size := int(float64(combTuning[i]) * scale * float64(0.5+room))
		r.combL[i].setSize(size)
		r.combR[i].setSize(size + stereoSpread)
		r.combL[i].feedback = fb
		r.combR[i].feedback = fb
		r.combL[i].damp = damp * 0.8
		r.combR[i].damp = damp * 0.8
	}
	r.width = width
	r.mix = mix
}

func (r *reverb) process(l, rr []float32, n int) {
	if r.mix == 0 {
		return // identity at mix=0
	}
	wet1 := r.mix * (1 + r.width) / 2
	wet2 := r.mix * (1 - r.width) / 2
	dry := 1 - r.mix
	for i := 0; i < n; i++ {
		in := (l[i] + rr[i]) * 0.25
		var outL, outR float32
		for c := 0; c < numCombs; c++ {
			outL += r.combL[c].process(in)
			outR += r.combR[c].process(in)
		}
		outL *= 0.125
		outR *= 0.125
		for a := 0; a < numAllpasses; a++ {
			outL = r.apL[a].process(outL)
			outR = r.apR[a].process(outR)
		}
		l[i] = l[i]*dry + outL*wet1 + outR*wet2
		rr[i] = rr[i]*dry + outR*wet1 + outL*wet2
	}
}

func (r *reverb) reset() {
	for i := range r.combL {
		for j := range r.combL[i].buf {
			r.combL[i].buf[j] = 0
			r.combR[i].buf[j] = 0
		}
		r.combL[i].pos, r.combR[i].pos = 0, 0
		r.combL[i].store, r.combR[i].store = 0, 0
	}
	for i := range r.apL {
		for j := range r.apL[i].buf {
			r.apL[i].buf[j] = 0
		}
		for j := range r.apR[i].buf {
			r.apR[i].buf[j] = 0
		}
		r.apL[i].pos, r.apR[i].pos = 0, 0
	}
}
