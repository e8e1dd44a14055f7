package timer

// testBus is a flat register file standing in for the memory bus.
type testBus struct {
	mem   [0x10000]uint8
	timer *Timer
}

func newTestBus() *testBus {
	return &testBus{timer: New()}
}

func (b *testBus) Read(addr uint16) uint8 { return b.mem[addr] }

func (b *testBus) Write(addr uint16, value uint8) {
	if addr == DIV {
		b.timer.ResetDIV()
		value = 0
	}
	b.mem[addr] = value
}

func (b *testBus) SetDIV(value uint8) { b.mem[DIV] = value }

func (b *testBus) step(cycles int) { b.timer.Step(cycles, b) }
