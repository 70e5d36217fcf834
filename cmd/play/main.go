package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	intuitive "github.com/intuitive-audio/intuitive-go"
)

func main() {
	var (
		sampleRate  = flag.Int("sample-rate", 48000, "engine sample rate")
		blockSize   = flag.Int("block-size", 256, "engine block size in frames")
		projectPath = flag.String("file", "", "path to an INTV project file")
		wavPath     = flag.String("wav", "", "render offline to a WAV file instead of playing")
		seconds     = flag.Float64("seconds", 8, "offline render length")
		volume      = flag.Float64("volume", 0.8, "master volume")
		loop        = flag.Bool("loop", false, "enable loop playback")
	)
	flag.Parse()

	eng, err := openEngine(*projectPath, *sampleRate, *blockSize)
	if err != nil {
		log.Fatal(err)
	}
	if err := eng.SetMasterVolume(*volume); err != nil {
		log.Fatal(err)
	}
	if *loop && *projectPath != "" && !eng.Snapshot().Looping { // the demo project already loops
		if err := eng.ToggleLoop(); err != nil {
			log.Fatal(err)
		}
	}
	if err := eng.Play(); err != nil {
		log.Fatal(err)
	}

	if *wavPath != "" {
		samples := eng.RenderSeconds(*seconds)
		wav := intuitive.EncodeWAVFloat32LE(samples, *sampleRate, 2)
		if err := os.WriteFile(*wavPath, wav, 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%.1f s)\n", *wavPath, *seconds)
		return
	}

	if err := eng.Start(); err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-sig:
			fmt.Println()
			return
		case <-ticker.C:
			v := eng.Snapshot()
			pl, pr := eng.ReadMeters()
			fmt.Printf("\rbeat %7.2f  L %.2f  R %.2f ", v.CurrentBeat, pl, pr)
		}
	}
}

func openEngine(path string, sampleRate, blockSize int) (*intuitive.Engine, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return intuitive.Load(f, sampleRate, blockSize)
	}
	return demoEngine(sampleRate, blockSize)
}

// demoEngine builds a small three-track arrangement so the player makes
// sound out of the box.
func demoEngine(sampleRate, blockSize int) (*intuitive.Engine, error) {
	eng := intuitive.New(sampleRate, blockSize)
	v := eng.Snapshot()
	lead := v.Tracks[0].ID
	leadPat := v.Patterns[0].ID

	bass, err := eng.AddTrack("Bass")
	if err != nil {
		return nil, err
	}
	drums, err := eng.AddTrack("Drums")
	if err != nil {
		return nil, err
	}

	// Lead arpeggio.
	for i, p := range []int{69, 72, 76, 72, 69, 72, 76, 79} {
		if _, err := eng.AddNote(leadPat, p, 0.9, float64(i)*0.5, 0.45); err != nil {
			return nil, err
		}
	}
	if err := eng.AddArrangement(leadPat, lead, 0, false); err != nil {
		return nil, err
	}
	if slot, err := eng.AddEffect(lead, intuitive.EffectDelay); err == nil {
		_ = eng.SyncDelay(lead, slot)
		_ = eng.SetEffectParam(lead, slot, 2, 0.25)
	}

	// Bass line on an FM oscillator.
	bassPat, err := eng.AddPattern("Bassline", 4)
	if err != nil {
		return nil, err
	}
	for i, p := range []int{45, 45, 48, 43} {
		if _, err := eng.AddNote(bassPat, p, 1, float64(i), 0.9); err != nil {
			return nil, err
		}
	}
	if err := eng.AddArrangement(bassPat, bass, 0, false); err != nil {
		return nil, err
	}
	if err := eng.SetOscillator(bass, 1, intuitive.OscFM); err != nil {
		return nil, err
	}

	// Noise hits.
	drumPat, err := eng.AddPattern("Hats", 4)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 8; i++ {
		if _, err := eng.AddNote(drumPat, 80, 0.5, float64(i)*0.5, 0.1); err != nil {
			return nil, err
		}
	}
	if err := eng.AddArrangement(drumPat, drums, 0, false); err != nil {
		return nil, err
	}
	if err := eng.SetOscillator(drums, 1, intuitive.OscNoise); err != nil {
		return nil, err
	}
	if err := eng.SetVolume(drums, 0.4); err != nil {
		return nil, err
	}

	if err := eng.SetLoop(0, 4); err != nil {
		return nil, err
	}
	if err := eng.ToggleLoop(); err != nil {
		return nil, err
	}
	return eng, nil
}
