// Package audio adapts the engine's fixed-block render callback to the
// ebiten audio stack's pull-based reader.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// BlockSource renders fixed-size stereo blocks into split buffers.
type BlockSource interface {
	Render(outL, outR []float32)
	BlockSize() int
}

// StreamReader pulls whole blocks from a BlockSource and serves them as
// little-endian float32 interleaved bytes, carrying a remainder between
// reads since the driver's byte counts rarely align with block edges.
type StreamReader struct {
	mu     sync.Mutex
	source BlockSource
	bufL   []float32
	bufR   []float32
	rem    []byte // one block of interleaved bytes
	remPos int    // consumed prefix of rem; len(rem) when empty
}

// NewStreamReader wraps a block source.
func NewStreamReader(source BlockSource) *StreamReader {
	n := source.BlockSize()
	return &StreamReader{
		source: source,
		bufL:   make([]float32, n),
		bufR:   make([]float32, n),
		rem:    make([]byte, n*8),
		remPos: n * 8,
	}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	written := 0
	for written < len(p) {
		if r.remPos >= len(r.rem) {
			r.source.Render(r.bufL, r.bufR)
			for i := 0; i < len(r.bufL); i++ {
				binary.LittleEndian.PutUint32(r.rem[i*8:], math.Float32bits(r.bufL[i]))
				binary.LittleEndian.PutUint32(r.rem[i*8+4:], math.Float32bits(r.bufR[i]))
			}
			r.remPos = 0
		}
		n := copy(p[written:], r.rem[r.remPos:])
		written += n
		r.remPos += n
	}
	return written, nil
}

func (r *StreamReader) Close() error { return nil }

// Player owns the platform audio player for one stream.
type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens a realtime player over the block source.
func NewPlayer(sampleRate int, source BlockSource) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }

func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position returns what the listener actually hears.
func (p *Player) Position() time.Duration { return p.player.Position() }

func (p *Player) Close() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
