// Package ppu implements the picture processing unit.
//
// The PPU is a four-mode state machine clocked with elapsed CPU cycles. It
// keeps no registers of its own: LCDC, scroll, palettes, VRAM and OAM are read
// through the bus, and LY and STAT are published through the bus's
// privileged setters.
package ppu

const (
	// ScreenWidth is the screen width in pixels.
	ScreenWidth = 160
	// ScreenHeight is the screen height in pixels.
	ScreenHeight = 144
)

// Modes, numbered as they appear in STAT bits 0-1.
const (
	ModeHBlank  = 0
	ModeVBlank  = 1
	ModeOAMScan = 2
	ModeDrawing = 3
)

const (
	// DotsPerScanline is the length of every scanline in cycles.
	DotsPerScanline = 456
	// DotsOAMScan is the duration of mode 2.
	DotsOAMScan = 80
	// DotsDrawing is the duration of mode 3.
	DotsDrawing = 172
	// DotsHBlank is the duration of mode 0.
	DotsHBlank = 204
	// ScanlinesVisible is the number of visible scanlines.
	ScanlinesVisible = 144
	// ScanlinesTotal is the number of scanlines per frame, v-blank included.
	ScanlinesTotal = 154
	// DotsPerFrame is the length of a frame in cycles.
	DotsPerFrame = DotsPerScanline * ScanlinesTotal
)

// Register addresses.
const (
	AddrLCDC = 0xFF40
	AddrSTAT = 0xFF41
	AddrSCY  = 0xFF42
	AddrSCX  = 0xFF43
	AddrLY   = 0xFF44
	AddrLYC  = 0xFF45
	AddrBGP  = 0xFF47
	AddrOBP0 = 0xFF48
	AddrOBP1 = 0xFF49
	AddrWY   = 0xFF4A
	AddrWX   = 0xFF4B
)

const (
	// LCDCLCDEnable is the LCDC bit for LCD Display Enable.
	LCDCLCDEnable = 1 << 7
	// LCDCWindowTileMap selects the 0x9C00 map for the window.
	LCDCWindowTileMap = 1 << 6
	// LCDCWindowEnable is the LCDC bit for Window Display Enable.
	LCDCWindowEnable = 1 << 5
	// LCDCBGTileData selects unsigned tile addressing from 0x8000.
	LCDCBGTileData = 1 << 4
	// LCDCBGTileMap selects the 0x9C00 map for the background.
	LCDCBGTileMap = 1 << 3
	// LCDCOBJSize selects 8x16 sprites.
	LCDCOBJSize = 1 << 2
	// LCDCOBJEnable is the LCDC bit for sprite display.
	LCDCOBJEnable = 1 << 1
	// LCDCBGWindowEnable is the LCDC bit for background and window display.
	LCDCBGWindowEnable = 1 << 0
)

const (
	STATLYCInterrupt   = 1 << 6
	STATMode2Interrupt = 1 << 5
	STATMode1Interrupt = 1 << 4
	STATMode0Interrupt = 1 << 3
	STATLYCFlag        = 1 << 2
	STATModeMask       = 0x03
)

// Interrupt bits requested through the bus.
const (
	InterruptVBlank = 0x01
	InterruptSTAT   = 0x02
)

// Bus is the PPU's view of the memory bus.
type Bus interface {
	Read(addr uint16) uint8
	SetLY(value uint8)
	SetSTAT(value uint8)
	RequestInterrupt(bits uint8)
}

// PPU holds the timing state and the framebuffer.
type PPU struct {
	mode       uint8
	modeCycles int
	scanline   uint8
	windowLine uint8
	frameReady bool

	// Shade indices 0-3, row-major.
	framebuffer [ScreenWidth * ScreenHeight]uint8

	// Colour indices of the background and window on the line being drawn,
	// for sprite priority.
	bgIndex [ScreenWidth]uint8
}

// New creates a PPU at the start of a frame.
func New() *PPU {
	return &PPU{mode: ModeOAMScan}
}

// Step advances the PPU by cycles.
func (p *PPU) Step(cycles int, bus Bus) {
	lcdc := bus.Read(AddrLCDC)
	if lcdc&LCDCLCDEnable == 0 {
		p.disable(bus)
		return
	}

	p.modeCycles += cycles
	for p.advance(bus) {
	}
}

// disable holds the PPU at the top of the frame while the LCD is off.
func (p *PPU) disable(bus Bus) {
	if p.scanline == 0 && p.modeCycles == 0 && p.mode == ModeOAMScan {
		return
	}
	p.scanline = 0
	p.windowLine = 0
	p.modeCycles = 0
	p.mode = ModeOAMScan
	bus.SetLY(0)
	p.writeSTAT(bus, bus.Read(AddrSTAT))
}

// advance performs at most one mode transition and reports whether one
// happened.
func (p *PPU) advance(bus Bus) bool {
	switch p.mode {
	case ModeOAMScan:
		if p.modeCycles < DotsOAMScan {
			return false
		}
		p.modeCycles -= DotsOAMScan
		p.setMode(bus, ModeDrawing)

	case ModeDrawing:
		if p.modeCycles < DotsDrawing {
			return false
		}
		p.modeCycles -= DotsDrawing
		p.renderScanline(bus)
		p.setMode(bus, ModeHBlank)

	case ModeHBlank:
		if p.modeCycles < DotsHBlank {
			return false
		}
		p.modeCycles -= DotsHBlank
		p.setScanline(bus, p.scanline+1)
		if p.scanline == ScanlinesVisible {
			p.frameReady = true
			bus.RequestInterrupt(InterruptVBlank)
			p.setMode(bus, ModeVBlank)
		} else {
			p.setMode(bus, ModeOAMScan)
		}

	case ModeVBlank:
		if p.modeCycles < DotsPerScanline {
			return false
		}
		p.modeCycles -= DotsPerScanline
		if p.scanline+1 == ScanlinesTotal {
			p.windowLine = 0
			p.setScanline(bus, 0)
			p.setMode(bus, ModeOAMScan)
		} else {
			p.setScanline(bus, p.scanline+1)
		}
	}
	return true
}

// setMode enters mode, publishing it in STAT and raising the STAT
// interrupt when the matching source is enabled.
func (p *PPU) setMode(bus Bus, mode uint8) {
	p.mode = mode
	stat := bus.Read(AddrSTAT)
	p.writeSTAT(bus, stat)

	var source uint8
	switch mode {
	case ModeHBlank:
		source = STATMode0Interrupt
	case ModeVBlank:
		source = STATMode1Interrupt
	case ModeOAMScan:
		source = STATMode2Interrupt
	}
	if stat&source != 0 {
		bus.RequestInterrupt(InterruptSTAT)
	}
}

// setScanline publishes LY and runs the LY=LYC comparison.
func (p *PPU) setScanline(bus Bus, line uint8) {
	p.scanline = line
	bus.SetLY(line)

	stat := bus.Read(AddrSTAT)
	if line == bus.Read(AddrLYC) {
		stat |= STATLYCFlag
		if stat&STATLYCInterrupt != 0 {
			bus.RequestInterrupt(InterruptSTAT)
		}
	} else {
		stat &^= STATLYCFlag
	}
	p.writeSTAT(bus, stat)
}

func (p *PPU) writeSTAT(bus Bus, stat uint8) {
	bus.SetSTAT(stat&^(STATModeMask|0x80) | p.mode)
}

// Mode returns the current mode.
func (p *PPU) Mode() uint8 {
	return p.mode
}

// Scanline returns the current line, 0-153.
func (p *PPU) Scanline() uint8 {
	return p.scanline
}

// FrameReady reports whether a frame has completed since the last
// ClearFrameReady.
func (p *PPU) FrameReady() bool {
	return p.frameReady
}

// ClearFrameReady acknowledges the completed frame.
func (p *PPU) ClearFrameReady() {
	p.frameReady = false
}

// Framebuffer returns the shade indices of the last drawn lines. Callers must
// treat it as read-only.
func (p *PPU) Framebuffer() *[ScreenWidth * ScreenHeight]uint8 {
	return &p.framebuffer
}

// Reset returns to the top of a frame with a blank framebuffer.
func (p *PPU) Reset() {
	*p = PPU{mode: ModeOAMScan}
}

// State is a snapshot of the PPU.
type State struct {
	Mode        uint8
	ModeCycles  uint32
	Scanline    uint8
	WindowLine  uint8
	FrameReady  bool
	Framebuffer [ScreenWidth * ScreenHeight]uint8
}

// State returns a snapshot of the PPU.
func (p *PPU) State() State {
	return State{
		Mode:        p.mode,
		ModeCycles:  uint32(p.modeCycles),
		Scanline:    p.scanline,
		WindowLine:  p.windowLine,
		FrameReady:  p.frameReady,
		Framebuffer: p.framebuffer,
	}
}

// SetState restores a snapshot. Out-of-range values are clamped.
func (p *PPU) SetState(s State) {
	p.mode = s.Mode & STATModeMask
	p.modeCycles = int(s.ModeCycles % DotsPerScanline)
	p.scanline = s.Scanline % ScanlinesTotal
	p.windowLine = s.WindowLine
	p.frameReady = s.FrameReady
	p.framebuffer = s.Framebuffer
}
