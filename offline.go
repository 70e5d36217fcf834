package intuitive

import (
	"encoding/binary"
	"math"
)

// RenderSeconds drives the block callback directly and returns
// interleaved stereo samples. Offline use only: do not mix with Start,
// which hands the callback to the audio driver.
func (e *Engine) RenderSeconds(seconds float64) []float32 {
	frames := int(float64(e.sampleRate) * seconds)
	out := make([]float32, 0, frames*2)
	bufL := make([]float32, e.blockSize)
	bufR := make([]float32, e.blockSize)
	for rendered := 0; rendered < frames; rendered += e.blockSize {
		e.drv.Render(bufL, bufR)
		n := e.blockSize
		if frames-rendered < n {
			n = frames - rendered
		}
		for i := 0; i < n; i++ {
			out = append(out, bufL[i], bufR[i])
		}
	}
	return out
}

// EncodeWAVFloat32LE wraps interleaved samples in a float32 WAV
// container.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
