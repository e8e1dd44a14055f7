package ppu

// testBus is a flat memory with the privileged setters the PPU expects.
type testBus struct {
	mem [0x10000]uint8
}

func newTestBus() *testBus {
	b := &testBus{}
	b.mem[AddrLCDC] = 0x91
	b.mem[AddrSTAT] = ModeOAMScan
	b.mem[AddrBGP] = 0xE4
	b.mem[AddrOBP0] = 0xE4
	b.mem[AddrOBP1] = 0x1B
	b.mem[0xFF0F] = 0x00
	return b
}

func (b *testBus) Read(addr uint16) uint8 { return b.mem[addr] }

func (b *testBus) SetLY(value uint8) { b.mem[AddrLY] = value }

func (b *testBus) SetSTAT(value uint8) { b.mem[AddrSTAT] = value }

func (b *testBus) RequestInterrupt(bits uint8) { b.mem[0xFF0F] |= bits }

func (b *testBus) interrupts() uint8 { return b.mem[0xFF0F] }

// setTile writes an 8x8 tile whose every pixel has colour index color.
func (b *testBus) setTile(addr uint16, color uint8) {
	var lo, hi uint8
	if color&1 != 0 {
		lo = 0xFF
	}
	if color&2 != 0 {
		hi = 0xFF
	}
	for row := uint16(0); row < 8; row++ {
		b.mem[addr+row*2] = lo
		b.mem[addr+row*2+1] = hi
	}
}

// setSprite fills OAM entry i.
func (b *testBus) setSprite(i int, y, x, tile, attrs uint8) {
	addr := oamBase + i*4
	b.mem[addr] = y
	b.mem[addr+1] = x
	b.mem[addr+2] = tile
	b.mem[addr+3] = attrs
}

// stepMany steps the PPU in instruction-sized chunks.
func stepMany(p *PPU, bus Bus, cycles int) {
	for cycles > 0 {
		n := min(cycles, 4)
		p.Step(n, bus)
		cycles -= n
	}
}

// pixel returns the shade at (x, y).
func (p *PPU) pixel(x, y int) uint8 {
	return p.framebuffer[y*ScreenWidth+x]
}
