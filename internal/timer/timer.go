// Package timer implements the divider and the programmable timer.
//
// The registers live on the memory bus:
//   - DIV: free-running divider, bumped every DIVPeriod cycles
//   - TIMA: counter bumped at the rate selected by TAC while enabled
//   - TMA: value reloaded into TIMA when it overflows
//   - TAC: enable bit and clock select
//
// The timer itself only keeps the two cycle accumulators.
package timer

// Register addresses.
const (
	DIV  = 0xFF04
	TIMA = 0xFF05
	TMA  = 0xFF06
	TAC  = 0xFF07
	IF   = 0xFF0F
)

// TAC register bits.
const (
	tacEnable    = 0x04
	tacClockMask = 0x03
)

// InterruptBit is the timer's bit in IF.
const InterruptBit = 0x04

// DIVPeriod is the number of cycles between DIV increments.
const DIVPeriod = 64

// timaPeriods maps the TAC clock select to cycles per TIMA increment.
var timaPeriods = [4]int{256, 4, 16, 64}

// Bus is the timer's view of the memory bus. SetDIV stores DIV without the
// reset that a normal write to DIV performs.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
	SetDIV(value uint8)
}

// Timer holds the cycle accumulators for DIV and TIMA.
type Timer struct {
	divCycles  int
	timaCycles int
}

// New returns a timer with both accumulators at zero.
func New() *Timer {
	return &Timer{}
}

// Step advances the timer by cycles.
func (t *Timer) Step(cycles int, bus Bus) {
	t.divCycles += cycles
	if t.divCycles >= DIVPeriod {
		div := bus.Read(DIV)
		for t.divCycles >= DIVPeriod {
			t.divCycles -= DIVPeriod
			div++
		}
		bus.SetDIV(div)
	}

	tac := bus.Read(TAC)
	if tac&tacEnable == 0 {
		return
	}

	period := timaPeriods[tac&tacClockMask]
	t.timaCycles += cycles
	for t.timaCycles >= period {
		t.timaCycles -= period
		t.incrementTIMA(bus)
	}
}

func (t *Timer) incrementTIMA(bus Bus) {
	tima := bus.Read(TIMA)
	if tima == 0xFF {
		bus.Write(TIMA, bus.Read(TMA))
		bus.Write(IF, bus.Read(IF)|InterruptBit)
		return
	}
	bus.Write(TIMA, tima+1)
}

// ResetDIV restarts the divider; the bus calls it when DIV is written.
func (t *Timer) ResetDIV() {
	t.divCycles = 0
}

// State returns the accumulators.
func (t *Timer) State() (div, tima int) {
	return t.divCycles, t.timaCycles
}

// SetState restores the accumulators.
func (t *Timer) SetState(div, tima int) {
	t.divCycles = div
	t.timaCycles = tima
}

// Reset clears both accumulators.
func (t *Timer) Reset() {
	t.divCycles = 0
	t.timaCycles = 0
}
