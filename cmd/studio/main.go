package main

import (
	"flag"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	intuitive "github.com/intuitive-audio/intuitive-go"
	"github.com/intuitive-audio/intuitive-go/internal/midiin"
)

func main() {
	var (
		sampleRate  = flag.Int("sample-rate", 48000, "engine sample rate")
		blockSize   = flag.Int("block-size", 256, "engine block size in frames")
		projectPath = flag.String("file", "", "path to an INTV project file")
		useMIDI     = flag.Bool("midi", false, "connect the first MIDI input port")
	)
	flag.Parse()

	var eng *intuitive.Engine
	if *projectPath != "" {
		f, err := os.Open(*projectPath)
		if err != nil {
			log.Fatal(err)
		}
		loaded, err := intuitive.Load(f, *sampleRate, *blockSize)
		f.Close()
		if err != nil {
			log.Fatal(err)
		}
		eng = loaded
	} else {
		eng = intuitive.New(*sampleRate, *blockSize)
	}

	if err := eng.Start(); err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	m := newModel(eng, *projectPath)
	if *useMIDI {
		if ports := midiin.InputPorts(); len(ports) > 0 {
			h := midiin.NewHandler(&midiSink{eng: eng, model: m})
			if err := h.Connect(ports[0]); err != nil {
				log.Println(err)
			} else {
				m.midiPort = h.PortName()
				defer h.Close()
			}
		} else {
			log.Println("no MIDI input ports found")
		}
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

// midiSink routes live MIDI to the currently selected track.
type midiSink struct {
	eng   *intuitive.Engine
	model *model
}

func (s *midiSink) target() uint32 { return s.model.selectedTrackID() }

func (s *midiSink) NoteOn(pitch int, velocity float64) {
	// Queue pressure drops live notes; nothing useful to do with it here.
	_ = s.eng.LiveNoteOn(s.target(), pitch, velocity)
}

func (s *midiSink) NoteOff(pitch int) {
	_ = s.eng.LiveNoteOff(s.target(), pitch)
}

func (s *midiSink) SetVolume(v float64) {
	_ = s.eng.SetVolume(s.target(), v)
}

func (s *midiSink) SetPan(p float64) {
	_ = s.eng.SetPan(s.target(), p)
}
