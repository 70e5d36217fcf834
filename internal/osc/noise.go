package osc

// NoiseKind selects the noise color.
type NoiseKind uint8

const (
	NoiseWhite NoiseKind = iota
	NoisePink
	NoiseBrown
	NoiseVelvet
	NoiseCrackle
)

// Paul Kellet's three-pole pink filter, normalized to roughly unit RMS.
var (
	pinkGain = [3]float64{0.02109238, 0.07113478, 0.68873558}
	pinkFB   = [3]float64{0.3190, 0.7756, 0.9638}
)

const pinkNorm = 0.65

// Noise generates white, pink, brown, velvet or crackle noise from a
// per-instance xorshift32 PRNG, so identically seeded generators are
// bitwise deterministic.
type Noise struct {
	sampleRate float64
	kind       NoiseKind
	rng        uint32
	pink       [3]float64
	brown      float64
	density    float64 // velvet impulses per second; crackle bursts at 2% of this rate
	burst      int     // crackle: samples left in current burst
	burstAmp   float64
}

// NewNoise returns a white noise generator with a fixed default seed.
func NewNoise() *Noise {
	return &Noise{rng: 0x2545F491, density: 2205}
}

func (n *Noise) Init(sampleRate int) {
	n.sampleRate = float64(sampleRate)
	n.pink = [3]float64{}
	n.brown = 0
	n.burst = 0
}

// SetFrequency is a no-op; noise has no pitch. Present so Noise satisfies
// Source and can occupy a voice oscillator slot.
func (n *Noise) SetFrequency(float64) {}

func (n *Noise) SetKind(k NoiseKind) { n.kind = k }

// SetSeed reseeds the PRNG. Zero is remapped since xorshift cannot leave
// a zero state.
func (n *Noise) SetSeed(seed uint32) {
	if seed == 0 {
		seed = 0x2545F491
	}
	n.rng = seed
}

// SetDensity sets the velvet impulse density in events per second;
// crackle bursts start at 2% of that rate.
func (n *Noise) SetDensity(d float64) {
	n.density = clamp(d, 1, 20000)
}

func (n *Noise) next() uint32 {
	x := n.rng
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	n.rng = x
	return x
}

// white returns a uniform sample in [-1, 1].
func (n *Noise) white() float64 {
	return float64(n.next())/2147483648.0 - 1.0
}

func (n *Noise) Process() float32 {
	switch n.kind {
	case NoisePink:
		w := n.white()
		for i := 0; i < 3; i++ {
			n.pink[i] = pinkFB[i]*n.pink[i] + pinkGain[i]*w
		}
		return float32((n.pink[0] + n.pink[1] + n.pink[2]) * pinkNorm)
	case NoiseBrown:
		n.brown = clamp(n.brown*0.996+n.white()*0.1, -1, 1)
		return float32(n.brown)
	case NoiseVelvet:
		if n.white() < (n.density/n.sampleRate)*2-1 {
			if n.next()&1 == 0 {
				return 1
			}
			return -1
		}
		return 0
	case NoiseCrackle:
		if n.burst > 0 {
			n.burst--
			n.burstAmp *= 0.82
			return float32(n.burstAmp * n.white())
		}
		if n.white() < (n.density/n.sampleRate)*0.02*2-1 {
			n.burst = 32
			n.burstAmp = 1
		}
		return 0
	default:
		return float32(n.white())
	}
}

func (n *Noise) ProcessBlock(out []float32, count int) {
	for i := 0; i < count && i < len(out); i++ {
		out[i] = n.Process()
	}
}
