package osc

import "math"

// ChaosAxis selects which Lorenz state variable is emitted.
type ChaosAxis uint8

const (
	AxisX ChaosAxis = iota
	AxisY
	AxisZ
)

// Chaos integrates the Lorenz system with forward Euler and emits one
// scaled, soft-clipped axis. The attractor's natural oscillation rate is
// tied to the note frequency through rate scaling.
type Chaos struct {
	sampleRate  float64
	sigma       float64
	rho         float64
	beta        float64
	rateScale   float64
	outputScale float64
	axis        ChaosAxis
	x, y, z     float64
}

// NewChaos returns a Lorenz oscillator with the classic σ=10, ρ=28,
// β=8/3 parameters.
func NewChaos() *Chaos {
	c := &Chaos{
		sigma:       10,
		rho:         28,
		beta:        8.0 / 3.0,
		rateScale:   55,
		outputScale: 0.05,
	}
	c.Reset()
	return c
}

func (c *Chaos) Init(sampleRate int) {
	c.sampleRate = float64(sampleRate)
	c.Reset()
}

// SetFrequency maps the note frequency onto the rate scale so higher
// notes traverse the attractor faster. The upper clamp keeps the Euler
// step dt = rate_scale/sample_rate inside the stability region.
func (c *Chaos) SetFrequency(hz float64) {
	c.rateScale = clamp(hz*0.5, 0.5, 500)
}

func (c *Chaos) SetSigma(v float64)  { c.sigma = clamp(v, 0.1, 50) }
func (c *Chaos) SetRho(v float64)    { c.rho = clamp(v, 0.1, 100) }
func (c *Chaos) SetBeta(v float64)   { c.beta = clamp(v, 0.01, 20) } // must stay positive
func (c *Chaos) SetAxis(a ChaosAxis) { c.axis = a }

func (c *Chaos) SetOutputScale(v float64) {
	c.outputScale = clamp(v, 0, 1)
}

// Reset reseeds the attractor at its reference starting point.
func (c *Chaos) Reset() {
	c.x, c.y, c.z = 0.1, 0, 0
}

func (c *Chaos) Process() float32 {
	dt := c.rateScale / c.sampleRate
	c.x += c.sigma * (c.y - c.x) * dt
	c.y += (c.x*(c.rho-c.z) - c.y) * dt
	c.z += (c.x*c.y - c.beta*c.z) * dt
	var v float64
	switch c.axis {
	case AxisY:
		v = c.y
	case AxisZ:
		v = c.z - c.rho // recenter: z orbits around ρ
	default:
		v = c.x
	}
	return float32(math.Tanh(v * c.outputScale * 4))
}

// ProcessBlock renders n samples and runs the per-block NaN check: a
// diverged attractor is reseeded and the whole block silenced.
func (c *Chaos) ProcessBlock(out []float32, n int) {
	for i := 0; i < n && i < len(out); i++ {
		out[i] = c.Process()
	}
	if math.IsNaN(c.x) || math.IsInf(c.x, 0) ||
		math.IsNaN(c.y) || math.IsInf(c.y, 0) ||
		math.IsNaN(c.z) || math.IsInf(c.z, 0) {
		c.Reset()
		for i := 0; i < n && i < len(out); i++ {
			out[i] = 0
		}
	}
}
