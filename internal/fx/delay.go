package fx

// delay is a stereo feedback delay with a linearly interpolated read
// head. Time changes take effect at the next block; the write head never
// moves, so changing time does not flush the line.
type delay struct {
	bufL, bufR []float32
	pos        int
	delaySmp   float64
	feedback   float32
	mix        float32
}

func newDelay(sampleRate int) *delay {
	size := sampleRate * 2 // 2 s maximum
	d := &delay{
		bufL:     make([]float32, size),
		bufR:     make([]float32, size),
		delaySmp: float64(sampleRate) / 4,
		feedback: 0.4,
		mix:      0.3,
	}
	return d
}

func (d *delay) update(p *[MaxParams]float32) {
	samples := float64(p[0]) * float64(len(d.bufL)) / 2
	if samples < 1 {
		samples = 1
	}
	if samples > float64(len(d.bufL)-2) {
		samples = float64(len(d.bufL) - 2)
	}
	d.delaySmp = samples
	d.feedback = p[1]
	d.mix = p[2]
}

func (d *delay) readInterp(buf []float32) float32 {
	readPos := float64(d.pos) - d.delaySmp
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

func (d *delay) process(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		delL := d.readInterp(d.bufL)
		delR := d.readInterp(d.bufR)
		d.bufL[d.pos] = l[i] + delL*d.feedback
		d.bufR[d.pos] = r[i] + delR*d.feedback
		d.pos++
		if d.pos >= len(d.bufL) {
			d.pos = 0
		}
		l[i] = l[i]*(1-d.mix) + delL*d.mix
		r[i] = r[i]*(1-d.mix) + delR*d.mix
	}
}

func (d *delay) reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.pos = 0
}
