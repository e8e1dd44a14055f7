// Package apu implements the sound unit's two square-wave channels.
//
// Channels 1 and 2 are synthesised; the sweep, wave and noise hardware only
// store their register bytes. The APU is clocked with elapsed CPU cycles and
// pushes mono 16-bit samples at SampleRate into a Ring that the audio
// device drains on its own goroutine.
package apu

import "github.com/richardwooding/dotmatrix/internal/logger"

const (
	// SampleRate is the output rate in Hz.
	SampleRate = 44100

	// ClockRate is the CPU clock in Hz.
	ClockRate = 4194304

	// CyclesPerSample is the number of CPU cycles per output sample.
	CyclesPerSample = float64(ClockRate) / SampleRate

	// frameSequencerPeriod is 512 Hz in CPU cycles.
	frameSequencerPeriod = 8192
)

// Register block.
const (
	RegStart = 0xFF10
	RegEnd   = 0xFF3F
	NR52     = 0xFF26

	waveRAMStart = 0xFF30
	nr52Index    = NR52 - RegStart
	powerBit     = 0x80
)

// initialRegisters are the post-boot values of FF10-FF2F.
var initialRegisters = map[uint16]uint8{
	0xFF10: 0x80, 0xFF11: 0xBF, 0xFF12: 0xF3, 0xFF14: 0xBF,
	0xFF16: 0x3F, 0xFF19: 0xBF,
	0xFF1A: 0x7F, 0xFF1B: 0xFF, 0xFF1C: 0x9F, 0xFF1E: 0xBF,
	0xFF20: 0xFF, 0xFF23: 0xBF,
	0xFF24: 0x77, 0xFF25: 0xF3, 0xFF26: 0xF1,
}

// APU holds the register file, both square channels, the frame sequencer
// and the sample ring.
type APU struct {
	regs [RegEnd - RegStart + 1]uint8
	ch   [2]square

	frameStep   uint8
	frameCycles int
	sampleAcc   float64

	ring Ring
}

// New returns an APU in its post-boot state.
func New() *APU {
	a := &APU{}
	a.Reset()
	return a
}

// Reset restores the post-boot register values and silences both channels.
// Buffered samples are discarded.
func (a *APU) Reset() {
	a.regs = [RegEnd - RegStart + 1]uint8{}
	a.ch = [2]square{}
	for addr, v := range initialRegisters {
		a.regs[addr-RegStart] = v
	}
	a.syncChannelRegisters()
	a.frameStep = 0
	a.frameCycles = 0
	a.sampleAcc = 0
	a.ring.Clear()
}

func (a *APU) powered() bool {
	return a.regs[nr52Index]&powerBit != 0
}

// Samples returns the ring the device callback pulls from.
func (a *APU) Samples() *Ring {
	return &a.ring
}

// Step advances the APU by cycles.
func (a *APU) Step(cycles int) {
	if a.powered() {
		a.frameCycles += cycles
		for a.frameCycles >= frameSequencerPeriod {
			a.frameCycles -= frameSequencerPeriod
			a.clockFrameSequencer()
		}
	}

	a.ch[0].update(cycles)
	a.ch[1].update(cycles)

	a.sampleAcc += float64(cycles)
	for a.sampleAcc >= CyclesPerSample {
		a.sampleAcc -= CyclesPerSample
		a.ring.Push(a.mix())
	}
}

// clockFrameSequencer runs the current step and moves to the next one.
func (a *APU) clockFrameSequencer() {
	if a.frameStep%2 == 0 {
		a.ch[0].clockLength()
		a.ch[1].clockLength()
	}

	// Steps 2 and 6 clock the channel 1 sweep, which is not synthesised.

	if a.frameStep == 7 {
		a.ch[0].clockEnvelope()
		a.ch[1].clockEnvelope()
	}

	a.frameStep = (a.frameStep + 1) & 7
}

func (a *APU) mix() int16 {
	s := a.ch[0].sample() + a.ch[1].sample()
	switch {
	case s > 32767:
		return 32767
	case s < -32768:
		return -32768
	}
	return int16(s)
}

// Read returns a register in FF10-FF3F. NR52 reports the live channel
// status in its low bits.
func (a *APU) Read(addr uint16) uint8 {
	if addr < RegStart || addr > RegEnd {
		return 0xFF
	}
	if addr == NR52 {
		v := a.regs[nr52Index] & 0xF0
		if a.ch[0].enabled {
			v |= 0x01
		}
		if a.ch[1].enabled {
			v |= 0x02
		}
		return v
	}
	return a.regs[addr-RegStart]
}

// Write stores a register in FF10-FF3F. While powered off only NR52 and
// wave RAM accept writes.
func (a *APU) Write(addr uint16, value uint8) {
	if addr < RegStart || addr > RegEnd {
		return
	}

	if addr == NR52 {
		a.writeNR52(value)
		return
	}

	if addr >= waveRAMStart {
		a.regs[addr-RegStart] = value
		return
	}

	if !a.powered() {
		return
	}

	a.regs[addr-RegStart] = value
	switch {
	case addr <= 0xFF14:
		a.ch[0].write(int(addr-0xFF10), value)
	case addr <= 0xFF19:
		a.ch[1].write(int(addr-0xFF15), value)
	}
}

func (a *APU) writeNR52(value uint8) {
	was := a.powered()
	a.regs[nr52Index] = value & 0xF0

	if value&powerBit != 0 {
		if !was {
			a.frameStep = 0
			a.frameCycles = 0
			logger.Log("apu", "sound enabled")
		}
		return
	}

	for i := 0; i < nr52Index; i++ {
		a.regs[i] = 0
	}
	for i := nr52Index + 1; i < waveRAMStart-RegStart; i++ {
		a.regs[i] = 0
	}
	a.ch[0] = square{}
	a.ch[1] = square{}
	if was {
		logger.Log("apu", "sound disabled")
	}
}

// syncChannelRegisters copies the register file into the channels' NRx
// mirrors without triggering them.
func (a *APU) syncChannelRegisters() {
	copy(a.ch[0].nr[:], a.regs[0:5])
	copy(a.ch[1].nr[:], a.regs[5:10])
}

// ChannelState is the run-time state of one square channel.
type ChannelState struct {
	Enabled       bool
	Timer         int32
	DutyPos       uint8
	Length        uint8
	Volume        uint8
	EnvelopeTimer uint8
	Output        uint8
}

// State is a snapshot of the APU. The sample ring is not included.
type State struct {
	Registers         [RegEnd - RegStart + 1]uint8
	FrameStep         uint8
	FrameCycles       uint32
	SampleAccumulator float64
	Channels          [2]ChannelState
}

// State returns a snapshot of the APU.
func (a *APU) State() State {
	return State{
		Registers:         a.regs,
		FrameStep:         a.frameStep,
		FrameCycles:       uint32(a.frameCycles),
		SampleAccumulator: a.sampleAcc,
		Channels:          [2]ChannelState{a.ch[0].state(), a.ch[1].state()},
	}
}

// SetState restores a snapshot and empties the sample ring.
func (a *APU) SetState(s State) {
	a.regs = s.Registers
	a.syncChannelRegisters()
	a.ch[0].setState(s.Channels[0])
	a.ch[1].setState(s.Channels[1])
	a.frameStep = s.FrameStep & 7
	a.frameCycles = int(s.FrameCycles % frameSequencerPeriod)
	a.sampleAcc = s.SampleAccumulator
	a.ring.Clear()
}
