package fx

import "github.com/intuitive-audio/intuitive-go/internal/dsp"

// filter exposes the shared state-variable filter as a chain effect.
type filter struct {
	svfL *dsp.SVF
	svfR *dsp.SVF
}

func newFilter(sampleRate int) *filter {
	f := &filter{svfL: dsp.NewSVF(), svfR: dsp.NewSVF()}
	f.svfL.Init(sampleRate)
	f.svfR.Init(sampleRate)
	return f
}

func (f *filter) update(p *[MaxParams]float32) {
	cutoff := float64(p[0])
	res := float64(p[1])
	mode := dsp.FilterMode(p[2])
	if mode > dsp.ModeBP {
		mode = dsp.ModeLP
	}
	for _, s := range []*dsp.SVF{f.svfL, f.svfR} {
		s.SetCutoff(cutoff)
		s.SetResonance(res)
		s.SetMode(mode)
	}
}

func (f *filter) process(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		l[i] = float32(f.svfL.Process(float64(l[i])))
		r[i] = float32(f.svfR.Process(float64(r[i])))
	}
}

func (f *filter) reset() {
	f.svfL.Reset()
	f.svfR.Reset()
}
