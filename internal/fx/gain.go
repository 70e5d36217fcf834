package fx

// gain is a plain linear gain stage.
type gain struct {
	g float32
}

func newGain() *gain { return &gain{g: 1} }

func (e *gain) update(p *[MaxParams]float32) {
	e.g = p[0]
}

func (e *gain) process(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		l[i] *= e.g
		r[i] *= e.g
	}
}

func (e *gain) reset() {}
