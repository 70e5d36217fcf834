package analysis

import (
	"math"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// WindowSize is the FFT length.
	WindowSize = 1024
	// HopSize gives 50% overlap.
	HopSize = WindowSize / 2
	// NumBands is the log-spaced magnitude band count.
	NumBands = 32
)

// Spectrum accumulates post-master mono samples; every HopSize new
// samples the trailing WindowSize are published into one of two buffers.
// The FFT runs on the reader side over the latest published window, so
// the audio thread does no transform work.
type Spectrum struct {
	sampleRate float64

	ring    [WindowSize]float32
	pos     int
	hop     int
	windows [2][WindowSize]float32
	seq     atomic.Uint64 // published window count; seq&1 picks the buffer

	mu     sync.Mutex // serializes readers
	fft    *fourier.FFT
	hann   [WindowSize]float64
	input  []float64
	coeffs []complex128
	edges  [NumBands + 1]float64
}

// NewSpectrum builds the tap for a sample rate.
func NewSpectrum(sampleRate int) *Spectrum {
	s := &Spectrum{
		sampleRate: float64(sampleRate),
		fft:        fourier.NewFFT(WindowSize),
		input:      make([]float64, WindowSize),
		coeffs:     make([]complex128, WindowSize/2+1),
	}
	for i := 0; i < WindowSize; i++ {
		s.hann[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(WindowSize-1)))
	}
	// Log-spaced band edges from 20 Hz to Nyquist.
	lo := 20.0
	hi := s.sampleRate / 2
	ratio := hi / lo
	for i := 0; i <= NumBands; i++ {
		s.edges[i] = lo * math.Pow(ratio, float64(i)/NumBands)
	}
	return s
}

// Push consumes one block of stereo samples (averaged to mono). Audio
// thread only.
func (s *Spectrum) Push(l, r []float32, n int) {
	for i := 0; i < n; i++ {
		s.ring[s.pos] = (l[i] + r[i]) * 0.5
		s.pos = (s.pos + 1) & (WindowSize - 1)
		s.hop++
		if s.hop >= HopSize {
			s.hop = 0
			s.publish()
		}
	}
}

func (s *Spectrum) publish() {
	seq := s.seq.Load()
	dst := &s.windows[(seq+1)&1]
	// Copy oldest-to-newest so the window is time-ordered.
	for i := 0; i < WindowSize; i++ {
		dst[i] = s.ring[(s.pos+i)&(WindowSize-1)]
	}
	s.seq.Store(seq + 1)
}

// Read computes the 32-band magnitude spectrum of the latest published
// window into dst and reports whether a window was available. Runs the
// Hann window and FFT on the caller's thread.
func (s *Spectrum) Read(dst *[NumBands]float32) bool {
	seq := s.seq.Load()
	if seq == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	src := &s.windows[seq&1]
	for i := 0; i < WindowSize; i++ {
		s.input[i] = float64(src[i]) * s.hann[i]
	}
	s.coeffs = s.fft.Coefficients(s.coeffs, s.input)

	// Scale so a full-scale sine at a band center reads ~1.0:
	// amplitude 2/N for a real FFT, divided by the Hann coherent gain.
	scale := 4.0 / WindowSize
	binHz := s.sampleRate / WindowSize
	for b := 0; b < NumBands; b++ {
		loBin := int(math.Ceil(s.edges[b] / binHz))
		hiBin := int(s.edges[b+1] / binHz)
		if hiBin < loBin {
			hiBin = loBin
		}
		if hiBin > len(s.coeffs)-1 {
			hiBin = len(s.coeffs) - 1
		}
		var sum float64
		count := 0
		for k := loBin; k <= hiBin && k < len(s.coeffs); k++ {
			sum += cmplxAbs(s.coeffs[k])
			count++
		}
		if count > 0 {
			dst[b] = float32(sum / float64(count) * scale)
		} else {
			dst[b] = 0
		}
	}
	return true
}

// BandCenter returns the geometric center frequency of a band.
func (s *Spectrum) BandCenter(b int) float64 {
	if b < 0 || b >= NumBands {
		return 0
	}
	return math.Sqrt(s.edges[b] * s.edges[b+1])
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
