package dsp

// EnvStage is the ADSR state machine stage.
type EnvStage uint8

const (
	StageIdle EnvStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

// ADSR is a linear-segment envelope. Attack, decay and release times are
// seconds converted to per-sample increments; sustain is a level.
type ADSR struct {
	sampleRate  float64
	attack      float64
	decay       float64
	sustain     float64
	release     float64
	stage       EnvStage
	level       float64
	releaseBase float64
}

// NewADSR returns an envelope with a short pluck shape.
func NewADSR() *ADSR {
	return &ADSR{attack: 0.005, decay: 0.1, sustain: 0.7, release: 0.2}
}

func (e *ADSR) Init(sampleRate int) {
	e.sampleRate = float64(sampleRate)
	e.stage = StageIdle
	e.level = 0
}

// Set configures all four segments. Times are clamped to at least one
// sample so increments stay finite at any sample rate.
func (e *ADSR) Set(attack, decay, sustain, release float64) {
	e.attack = clamp(attack, 0.0005, 30)
	e.decay = clamp(decay, 0.0005, 30)
	e.sustain = clamp(sustain, 0, 1)
	e.release = clamp(release, 0.0005, 30)
}

// Gate opens (note-on) or closes (note-off) the envelope. Opening always
// restarts the attack from the current level; closing latches the level
// as the release ramp base.
func (e *ADSR) Gate(on bool) {
	if on {
		e.stage = StageAttack
	} else if e.stage != StageIdle {
		e.releaseBase = e.level
		e.stage = StageRelease
	}
}

// Process advances one sample and returns the envelope level.
func (e *ADSR) Process() float64 {
	switch e.stage {
	case StageAttack:
		e.level += 1.0 / (e.attack * e.sampleRate)
		if e.level >= 1 {
			e.level = 1
			e.stage = StageDecay
		}
	case StageDecay:
		e.level -= (1 - e.sustain) / (e.decay * e.sampleRate)
		if e.level <= e.sustain {
			e.level = e.sustain
			e.stage = StageSustain
		}
	case StageSustain:
		e.level = e.sustain
	case StageRelease:
		e.level -= e.releaseBase / (e.release * e.sampleRate)
		if e.level <= 0 {
			e.level = 0
			e.stage = StageIdle
		}
	}
	return e.level
}

// Stage returns the current stage.
func (e *ADSR) Stage() EnvStage { return e.stage }

// Idle reports whether the envelope has fully completed release.
func (e *ADSR) Idle() bool { return e.stage == StageIdle }

// Level returns the current output level without advancing.
func (e *ADSR) Level() float64 { return e.level }

// Reset snaps the envelope to idle at zero.
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.level = 0
}
