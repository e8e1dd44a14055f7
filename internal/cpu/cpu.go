// Package cpu implements the Sharp LR35902 CPU.
//
// Step runs one instruction (or one idle tick while halted or stopped) and
// then services at most one interrupt. All memory traffic, IF and IE
// included, goes through the Memory interface.
package cpu

// Memory is the CPU's view of the bus.
type Memory interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

const (
	addrIF = 0xFF0F
	addrIE = 0xFFFF

	interruptMask   = 0x1F
	interruptJoypad = 0x10
	vectorBase      = 0x0040

	// interruptCycles is the cost of dispatching to an interrupt vector.
	interruptCycles = 20
)

// CPU is the processor state.
type CPU struct {
	Registers *Registers
	Memory    Memory

	// IME is the interrupt master enable.
	IME bool

	// imeDelay counts down to an EI taking effect; EI sets it to 2 so IME
	// turns on once the following instruction has completed.
	imeDelay uint8

	halted  bool
	stopped bool

	// Cycles is the running clock count. Only differences are meaningful.
	Cycles uint64
}

// New creates a CPU in the post-boot state.
func New(mem Memory) *CPU {
	return &CPU{
		Registers: NewRegisters(),
		Memory:    mem,
	}
}

// Reset restores the post-boot registers and clears every latch.
func (c *CPU) Reset() {
	c.Registers = NewRegisters()
	c.IME = false
	c.imeDelay = 0
	c.halted = false
	c.stopped = false
	c.Cycles = 0
}

// Halted reports whether the CPU is waiting in HALT.
func (c *CPU) Halted() bool {
	return c.halted
}

// Stopped reports whether the CPU is parked by STOP.
func (c *CPU) Stopped() bool {
	return c.stopped
}

// Step executes one instruction and returns the cycles it took, including
// any interrupt dispatch that followed.
func (c *CPU) Step() int {
	var cycles int

	switch {
	case c.stopped:
		c.tickIME()
		c.Cycles += 4
		if c.Memory.Read(addrIF)&interruptJoypad != 0 {
			c.stopped = false
		}
		return 4

	case c.halted:
		// The wake-up tick only leaves HALT; dispatch happens next step.
		c.tickIME()
		c.Cycles += 4
		if c.pendingInterrupts() != 0 {
			c.halted = false
		}
		return 4

	default:
		cycles = c.execute(c.fetchByte())
	}

	c.tickIME()
	cycles += c.serviceInterrupt()
	c.Cycles += uint64(cycles)
	return cycles
}

// tickIME counts down a pending EI.
func (c *CPU) tickIME() {
	if c.imeDelay == 0 {
		return
	}
	c.imeDelay--
	if c.imeDelay == 0 {
		c.IME = true
	}
}

func (c *CPU) pendingInterrupts() uint8 {
	return c.Memory.Read(addrIF) & c.Memory.Read(addrIE) & interruptMask
}

// serviceInterrupt dispatches the lowest pending interrupt when IME is set
// and returns the cycles it cost.
func (c *CPU) serviceInterrupt() int {
	if !c.IME {
		return 0
	}
	pending := c.pendingInterrupts()
	if pending == 0 {
		return 0
	}

	var n uint16
	for pending&(1<<n) == 0 {
		n++
	}

	c.halted = false
	c.IME = false
	c.Memory.Write(addrIF, c.Memory.Read(addrIF)&^(1<<n))
	c.push(c.Registers.PC)
	c.Registers.PC = vectorBase + n*8
	return interruptCycles
}

func (c *CPU) fetchByte() uint8 {
	value := c.Memory.Read(c.Registers.PC)
	c.Registers.PC++
	return value
}

func (c *CPU) fetchWord() uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	return pair(hi, lo)
}

// push stores value below SP, high byte first, so it sits little-endian.
func (c *CPU) push(value uint16) {
	hi, lo := split(value)
	c.Registers.SP--
	c.Memory.Write(c.Registers.SP, hi)
	c.Registers.SP--
	c.Memory.Write(c.Registers.SP, lo)
}

func (c *CPU) pop() uint16 {
	lo := c.Memory.Read(c.Registers.SP)
	c.Registers.SP++
	hi := c.Memory.Read(c.Registers.SP)
	c.Registers.SP++
	return pair(hi, lo)
}

// State is a snapshot of the CPU.
type State struct {
	Registers Registers
	IME       bool
	IMEDelay  uint8
	Halted    bool
	Stopped   bool
	Cycles    uint64
}

// State returns a snapshot of the CPU.
func (c *CPU) State() State {
	return State{
		Registers: *c.Registers,
		IME:       c.IME,
		IMEDelay:  c.imeDelay,
		Halted:    c.halted,
		Stopped:   c.stopped,
		Cycles:    c.Cycles,
	}
}

// SetState restores a snapshot.
func (c *CPU) SetState(s State) {
	regs := s.Registers
	regs.F &= 0xF0
	*c.Registers = regs
	c.IME = s.IME
	c.imeDelay = min(s.IMEDelay, 2)
	c.halted = s.Halted
	c.stopped = s.Stopped
	c.Cycles = s.Cycles
}
