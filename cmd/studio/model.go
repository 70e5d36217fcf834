package main

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	intuitive "github.com/intuitive-audio/intuitive-go"
)

const meterWidth = 18

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	soloStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	meterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	meterHotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
)

type tickMsg time.Time

type model struct {
	eng         *intuitive.Engine
	projectPath string
	midiPort    string

	view     intuitive.ProjectView
	spectrum [intuitive.NumSpectrumBands]float32
	smoothed [intuitive.NumSpectrumBands]float32
	selected int
	selID    atomic.Uint32
	status   string
}

func newModel(eng *intuitive.Engine, projectPath string) *model {
	m := &model{eng: eng, projectPath: projectPath}
	m.view = eng.Snapshot()
	if len(m.view.Tracks) > 0 {
		m.selID.Store(m.view.Tracks[0].ID)
	}
	return m
}

// selectedTrackID is read from the MIDI callback goroutine.
func (m *model) selectedTrackID() uint32 { return m.selID.Load() }

func (m *model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.view = m.eng.Snapshot()
		if m.selected >= len(m.view.Tracks) {
			m.selected = len(m.view.Tracks) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		if len(m.view.Tracks) > 0 {
			m.selID.Store(m.view.Tracks[m.selected].ID)
		}
		if m.eng.ReadSpectrum(&m.spectrum) {
			for i := range m.spectrum {
				// Display smoothing only; the tap itself is raw.
				m.smoothed[i] = m.smoothed[i]*0.8 + m.spectrum[i]*0.2
			}
		}
		for _, d := range m.eng.DrainDiagnostics() {
			m.status = fmt.Sprintf("engine: %s (%d)", d.Code, d.Arg)
		}
		return m, tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.view.Tracks) == 0 {
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}
	cur := m.view.Tracks[m.selected]
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.view.Playing {
			m.submit("pause", m.eng.Pause())
		} else {
			m.submit("play", m.eng.Play())
		}
	case "s":
		m.submit("stop", m.eng.Stop())
	case "l":
		m.submit("loop", m.eng.ToggleLoop())
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.view.Tracks)-1 {
			m.selected++
		}
	case "left", "h":
		m.submit("volume", m.eng.SetVolume(cur.ID, cur.Volume-0.05))
	case "right":
		m.submit("volume", m.eng.SetVolume(cur.ID, cur.Volume+0.05))
	case "[":
		m.submit("pan", m.eng.SetPan(cur.ID, cur.Pan-0.1))
	case "]":
		m.submit("pan", m.eng.SetPan(cur.ID, cur.Pan+0.1))
	case "m":
		m.submit("mute", m.eng.ToggleMute(cur.ID))
	case "o":
		m.submit("solo", m.eng.ToggleSolo(cur.ID))
	case "t":
		id, err := m.eng.AddTrack(fmt.Sprintf("Track %d", len(m.view.Tracks)+1))
		if err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("added track %d", id)
		}
	case "-":
		m.submit("bpm", m.eng.SetBPM(m.view.BPM-4))
	case "=", "+":
		m.submit("bpm", m.eng.SetBPM(m.view.BPM+4))
	case "w":
		if m.projectPath != "" {
			m.saveProject()
		} else {
			m.status = "no project path (-file) to write"
		}
	}
	return m, nil
}

func (m *model) submit(what string, err error) {
	if err != nil {
		m.status = fmt.Sprintf("%s: %v", what, err)
	}
}

func (m *model) saveProject() {
	f, err := os.Create(m.projectPath)
	if err != nil {
		m.status = err.Error()
		return
	}
	defer f.Close()
	if err := m.eng.Save(f); err != nil {
		m.status = err.Error()
		return
	}
	m.status = "saved " + m.projectPath
}

func (m *model) View() string {
	var b strings.Builder
	v := m.view

	b.WriteString(titleStyle.Render("intuitive studio"))
	transport := fmt.Sprintf("  %s  beat %7.2f  bpm %3.0f", playGlyph(v.Playing), v.CurrentBeat, v.BPM)
	if v.Looping {
		transport += fmt.Sprintf("  loop [%.0f,%.0f)", v.LoopStart, v.LoopEnd)
	}
	if m.midiPort != "" {
		transport += "  midi:" + m.midiPort
	}
	b.WriteString(statusStyle.Render(transport))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-12s %5s %5s %2s %2s  %-*s", "TRACK", "VOL", "PAN", "M", "S", meterWidth, "LEVEL")))
	b.WriteString("\n")
	for i, tr := range v.Tracks {
		line := fmt.Sprintf("  %-12s %5.2f %+5.2f %2s %2s  %s",
			trunc(tr.Name, 12), tr.Volume, tr.Pan, flag(tr.Mute, "M"), flag(tr.Solo, "S"),
			meterBar(tr.PeakL, tr.PeakR))
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", tr.Color[0], tr.Color[1], tr.Color[2])))
		switch {
		case i == m.selected:
			line = selectedStyle.Render(line)
		case tr.Mute:
			line = mutedStyle.Render(line)
		case tr.Solo:
			line = soloStyle.Render(line)
		default:
			line = style.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.spectrumView())
	b.WriteString("\n")

	pl, pr := m.eng.ReadMeters()
	b.WriteString(headerStyle.Render("  master "))
	b.WriteString(meterBar(pl, pr))
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(statusStyle.Render("  " + m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("  space play/pause · s stop · l loop · j/k select · h/→ vol · [/] pan · m mute · o solo · t add track · -/+ bpm · w write · q quit"))
	return b.String()
}

func (m *model) spectrumView() string {
	glyphs := []rune(" ▁▂▃▄▅▆▇█")
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("  spectrum "))
	for _, v := range m.smoothed {
		level := float64(v) * 8
		idx := int(level)
		if idx > 8 {
			idx = 8
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(glyphs[idx])
	}
	return meterStyle.Render(sb.String())
}

func meterBar(l, r float32) string {
	peak := l
	if r > peak {
		peak = r
	}
	filled := int(float32(meterWidth) * peak)
	if filled > meterWidth {
		filled = meterWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
	if peak > 0.9 {
		return meterHotStyle.Render(bar)
	}
	return meterStyle.Render(bar)
}

func playGlyph(playing bool) string {
	if playing {
		return "▶"
	}
	return "⏸"
}

func flag(on bool, label string) string {
	if on {
		return label
	}
	return "·"
}

func trunc(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
