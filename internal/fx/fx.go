// Package fx implements the per-track effect chain: up to 16 ordered
// slots, each hosting one of ten effect kinds with a fixed parameter
// layout. Parameter indices and ranges are part of the external contract;
// out-of-range values are clamped, never rejected. Coefficients are
// recomputed at block boundaries only, gated by a per-slot dirty flag.
package fx

// Kind identifies an effect algorithm.
type Kind uint8

const (
	KindGain Kind = iota
	KindEQ
	KindCompressor
	KindReverb
	KindDelay
	KindDistortion
	KindChorus
	KindPhaser
	KindFilter
	KindLimiter
	numKinds
)

const (
	// MaxSlots is the chain capacity.
	MaxSlots = 16
	// MaxParams is the per-slot parameter vector size.
	MaxParams = 8

	maxBlock = 2048
)

// ParamInfo describes one parameter's range and default.
type ParamInfo struct {
	Name    string
	Min     float32
	Max     float32
	Default float32
}

var paramTable = [numKinds][]ParamInfo{
	KindGain: {
		{"gain", 0, 2, 1},
	},
	KindEQ: {
		{"low_db", -12, 12, 0},
		{"mid_db", -12, 12, 0},
		{"high_db", -12, 12, 0},
		{"low_freq", 80, 500, 250},
		{"high_freq", 2000, 8000, 4000},
	},
	KindCompressor: {
		{"threshold_db", -60, 0, -20},
		{"ratio", 1, 20, 4},
		{"attack_ms", 0.1, 100, 10},
		{"release_ms", 10, 1000, 100},
		{"makeup_db", 0, 24, 0},
	},
	KindReverb: {
		{"room", 0, 1, 0.5},
		{"damping", 0, 1, 0.5},
		{"width", 0, 1, 1},
		{"mix", 0, 1, 0.3},
	},
	KindDelay: {
		{"time_s", 0, 2, 0.25},
		{"feedback", 0, 0.95, 0.4},
		{"mix", 0, 1, 0.3},
	},
	KindDistortion: {
		{"drive", 0, 1, 0.5},
		{"tone", 0, 1, 0.5},
		{"mix", 0, 1, 1},
	},
	KindChorus: {
		{"rate_hz", 0.1, 10, 0.5},
		{"depth", 0, 1, 0.5},
		{"mix", 0, 1, 0.5},
	},
	KindPhaser: {
		{"rate_hz", 0.1, 10, 0.3},
		{"depth", 0, 1, 0.7},
		{"feedback", -0.9, 0.9, 0.3},
		{"stages", 2, 12, 4},
	},
	KindFilter: {
		{"cutoff_hz", 20, 20000, 1000},
		{"resonance", 0.5, 10, 1},
		{"type", 0, 2, 0},
	},
	KindLimiter: {
		{"ceiling_db", -12, 0, -0.3},
		{"release_ms", 10, 500, 50},
	},
}

// Params returns the parameter descriptors for a kind.
func Params(k Kind) []ParamInfo {
	if int(k) >= int(numKinds) {
		return nil
	}
	return paramTable[k]
}

// ClampParam clamps a value to a kind's parameter range. Unknown indices
// return the value unchanged.
func ClampParam(k Kind, idx int, v float32) float32 {
	info := Params(k)
	if idx < 0 || idx >= len(info) {
		return v
	}
	if v < info[idx].Min {
		return info[idx].Min
	}
	if v > info[idx].Max {
		return info[idx].Max
	}
	return v
}

// effect is the internal processor contract. update pulls coefficients
// from the slot's parameter vector; process works in place on split
// stereo buffers.
type effect interface {
	update(p *[MaxParams]float32)
	process(l, r []float32, n int)
	reset()
}

// Slot is one chain position.
type Slot struct {
	Kind   Kind
	Bypass bool
	Params [MaxParams]float32

	fx    effect
	dirty bool
	xfade bool // one-block crossfade pending after a bypass toggle
}

// Chain is an ordered effect rack with a master bypass.
type Chain struct {
	sampleRate int
	slots      [MaxSlots]Slot
	numSlots   int
	Bypass     bool

	dryL, dryR [maxBlock]float32
}

// NewChain returns an empty chain bound to a sample rate.
func NewChain(sampleRate int) *Chain {
	return &Chain{sampleRate: sampleRate}
}

func newEffect(k Kind, sampleRate int) effect {
	switch k {
	case KindGain:
		return newGain()
	case KindEQ:
		return newEQ(sampleRate)
	case KindCompressor:
		return newCompressor(sampleRate)
	case KindReverb:
		return newReverb(sampleRate)
	case KindDelay:
		return newDelay(sampleRate)
	case KindDistortion:
		return newDistortion(sampleRate)
	case KindChorus:
		return newChorus(sampleRate)
	case KindPhaser:
		return newPhaser(sampleRate)
	case KindFilter:
		return newFilter(sampleRate)
	case KindLimiter:
		return newLimiter(sampleRate)
	default:
		return newGain()
	}
}

// Add appends an effect of the given kind with default parameters.
// Returns the slot index, or -1 when the chain is full. Allocates the
// effect state; audio-thread callers use AddPrebuilt instead.
func (c *Chain) Add(k Kind) int {
	if int(k) >= int(numKinds) {
		return -1
	}
	return c.AddPrebuilt(Prebuilt{kind: k, fx: newEffect(k, c.sampleRate)})
}

// Prebuilt is an effect instance constructed off the audio thread so
// that linking it into a chain allocates nothing.
type Prebuilt struct {
	kind Kind
	fx   effect
}

// NewPrebuilt constructs effect state for later AddPrebuilt.
func NewPrebuilt(k Kind, sampleRate int) Prebuilt {
	if int(k) >= int(numKinds) {
		k = KindGain
	}
	return Prebuilt{kind: k, fx: newEffect(k, sampleRate)}
}

// AddPrebuilt links prepared effect state into the next free slot.
func (c *Chain) AddPrebuilt(p Prebuilt) int {
	if c.numSlots >= MaxSlots || p.fx == nil {
		return -1
	}
	i := c.numSlots
	s := &c.slots[i]
	*s = Slot{Kind: p.kind, fx: p.fx, dirty: true}
	for pi, info := range paramTable[p.kind] {
		s.Params[pi] = info.Default
	}
	c.numSlots++
	return i
}

// Remove deletes a slot; higher slots shift down. Slot state is
// discarded.
func (c *Chain) Remove(slot int) {
	if slot < 0 || slot >= c.numSlots {
		return
	}
	copy(c.slots[slot:], c.slots[slot+1:c.numSlots])
	c.slots[c.numSlots-1] = Slot{}
	c.numSlots--
}

// SetParam stores a clamped parameter value and marks the slot dirty.
func (c *Chain) SetParam(slot, idx int, v float32) {
	if slot < 0 || slot >= c.numSlots {
		return
	}
	s := &c.slots[slot]
	if idx < 0 || idx >= len(paramTable[s.Kind]) {
		return
	}
	v = ClampParam(s.Kind, idx, v)
	if s.Params[idx] != v {
		s.Params[idx] = v
		s.dirty = true
	}
}

// Param reads a stored parameter value.
func (c *Chain) Param(slot, idx int) float32 {
	if slot < 0 || slot >= c.numSlots || idx < 0 || idx >= MaxParams {
		return 0
	}
	return c.slots[slot].Params[idx]
}

// ToggleBypass flips a slot's bypass. The next block crossfades between
// wet and dry so the toggle does not click; internal state is preserved.
func (c *Chain) ToggleBypass(slot int) {
	if slot < 0 || slot >= c.numSlots {
		return
	}
	c.slots[slot].Bypass = !c.slots[slot].Bypass
	c.slots[slot].xfade = true
}

// Len returns the populated slot count.
func (c *Chain) Len() int { return c.numSlots }

// SlotAt exposes a slot for snapshots and serialization.
func (c *Chain) SlotAt(i int) *Slot {
	if i < 0 || i >= c.numSlots {
		return nil
	}
	return &c.slots[i]
}

// Process runs the chain in ascending slot order, in place.
func (c *Chain) Process(l, r []float32, n int) {
	if c.Bypass || c.numSlots == 0 {
		return
	}
	for n > maxBlock {
		c.Process(l[:maxBlock], r[:maxBlock], maxBlock)
		l, r = l[maxBlock:], r[maxBlock:]
		n -= maxBlock
	}
	for i := 0; i < c.numSlots; i++ {
		s := &c.slots[i]
		if s.dirty {
			s.fx.update(&s.Params)
			s.dirty = false
		}
		switch {
		case s.xfade:
			copy(c.dryL[:n], l[:n])
			copy(c.dryR[:n], r[:n])
			s.fx.process(l, r, n)
			inv := 1.0 / float32(n)
			for f := 0; f < n; f++ {
				t := float32(f) * inv
				wet := 1 - t
				if !s.Bypass {
					wet = t
				}
				l[f] = l[f]*wet + c.dryL[f]*(1-wet)
				r[f] = r[f]*wet + c.dryR[f]*(1-wet)
			}
			s.xfade = false
		case s.Bypass:
			// State is intentionally left untouched.
		default:
			s.fx.process(l, r, n)
		}
	}
}

// Reset clears every slot's processing state.
func (c *Chain) Reset() {
	for i := 0; i < c.numSlots; i++ {
		c.slots[i].fx.reset()
	}
}
