package ppu

// Sprite attribute bits.
const (
	SpriteAttrPriority = 1 << 7 // behind background colours 1-3
	SpriteAttrYFlip    = 1 << 6
	SpriteAttrXFlip    = 1 << 5
	SpriteAttrPalette  = 1 << 4 // OBP1 instead of OBP0
)

const (
	vramBase = 0x8000
	oamBase  = 0xFE00
	mapLow   = 0x9800
	mapHigh  = 0x9C00
	oamCount = 40
)

// lineRegisters are the registers that shape one scanline, read once when the
// line is drawn.
type lineRegisters struct {
	lcdc, scy, scx, bgp, obp0, obp1, wy, wx uint8
}

func readLineRegisters(bus Bus) lineRegisters {
	return lineRegisters{
		lcdc: bus.Read(AddrLCDC),
		scy:  bus.Read(AddrSCY),
		scx:  bus.Read(AddrSCX),
		bgp:  bus.Read(AddrBGP),
		obp0: bus.Read(AddrOBP0),
		obp1: bus.Read(AddrOBP1),
		wy:   bus.Read(AddrWY),
		wx:   bus.Read(AddrWX),
	}
}

// renderScanline draws the current line into the framebuffer.
func (p *PPU) renderScanline(bus Bus) {
	if p.scanline >= ScreenHeight {
		return
	}
	r := readLineRegisters(bus)
	line := p.framebuffer[int(p.scanline)*ScreenWidth : (int(p.scanline)+1)*ScreenWidth]

	if r.lcdc&LCDCBGWindowEnable != 0 {
		p.renderBackground(bus, r, line)
		p.renderWindow(bus, r, line)
	} else {
		clear(line)
		clear(p.bgIndex[:])
	}

	if r.lcdc&LCDCOBJEnable != 0 {
		p.renderSprites(bus, r, line)
	}
}

func (p *PPU) renderBackground(bus Bus, r lineRegisters, line []uint8) {
	tileMap := uint16(mapLow)
	if r.lcdc&LCDCBGTileMap != 0 {
		tileMap = mapHigh
	}

	y := p.scanline + r.scy
	for x := 0; x < ScreenWidth; x++ {
		bx := uint8(x) + r.scx
		index := p.tileMapPixel(bus, r.lcdc, tileMap, bx, y)
		p.bgIndex[x] = index
		line[x] = applyPalette(index, r.bgp)
	}
}

// renderWindow draws the window over the background from WX-7 rightwards on
// lines at or below WY. The window keeps its own line counter, advanced only
// on lines where it is drawn.
func (p *PPU) renderWindow(bus Bus, r lineRegisters, line []uint8) {
	if r.lcdc&LCDCWindowEnable == 0 || p.scanline < r.wy || r.wx > 166 {
		return
	}

	tileMap := uint16(mapLow)
	if r.lcdc&LCDCWindowTileMap != 0 {
		tileMap = mapHigh
	}

	left := int(r.wx) - 7
	for x := max(left, 0); x < ScreenWidth; x++ {
		index := p.tileMapPixel(bus, r.lcdc, tileMap, uint8(x-left), p.windowLine)
		p.bgIndex[x] = index
		line[x] = applyPalette(index, r.bgp)
	}
	p.windowLine++
}

// tileMapPixel returns the colour index at (x, y) of the 256x256 plane
// described by tileMap.
func (p *PPU) tileMapPixel(bus Bus, lcdc uint8, tileMap uint16, x, y uint8) uint8 {
	tile := bus.Read(tileMap + uint16(y/8)*32 + uint16(x/8))
	return tilePixel(bus, tileDataAddr(tile, lcdc&LCDCBGTileData == 0), x%8, y%8)
}

// renderSprites draws every sprite on the line in OAM order, so a later
// entry covers an earlier one where they overlap.
func (p *PPU) renderSprites(bus Bus, r lineRegisters, line []uint8) {
	height := 8
	if r.lcdc&LCDCOBJSize != 0 {
		height = 16
	}

	for i := 0; i < oamCount; i++ {
		addr := uint16(oamBase + i*4)
		sy := int(bus.Read(addr)) - 16
		sx := int(bus.Read(addr+1)) - 8
		tile := bus.Read(addr + 2)
		attrs := bus.Read(addr + 3)

		row := int(p.scanline) - sy
		if row < 0 || row >= height {
			continue
		}
		if attrs&SpriteAttrYFlip != 0 {
			row = height - 1 - row
		}
		if height == 16 {
			tile &= 0xFE
		}

		palette := r.obp0
		if attrs&SpriteAttrPalette != 0 {
			palette = r.obp1
		}

		tileAddr := vramBase + uint16(tile)*16
		for px := 0; px < 8; px++ {
			x := sx + px
			if x < 0 || x >= ScreenWidth {
				continue
			}

			col := px
			if attrs&SpriteAttrXFlip != 0 {
				col = 7 - px
			}

			// Row 8-15 of a tall sprite runs into the next tile.
			index := tilePixel(bus, tileAddr, uint8(col), uint8(row))
			if index == 0 {
				continue
			}
			if attrs&SpriteAttrPriority != 0 && p.bgIndex[x] != 0 {
				continue
			}
			line[x] = applyPalette(index, palette)
		}
	}
}

// tileDataAddr returns the address of a tile's first byte, either from
// 0x8000 with an unsigned index or around 0x9000 with a signed one.
func tileDataAddr(tile uint8, signed bool) uint16 {
	if signed {
		return uint16(0x9000 + int(int8(tile))*16)
	}
	return vramBase + uint16(tile)*16
}

// tilePixel returns the 2-bit colour index at (x, y) of the tile at addr.
// Bit 7 of each bitplane byte is the leftmost pixel.
func tilePixel(bus Bus, addr uint16, x, y uint8) uint8 {
	lo := bus.Read(addr + uint16(y)*2)
	hi := bus.Read(addr + uint16(y)*2 + 1)
	shift := 7 - x
	return (hi>>shift&1)<<1 | lo>>shift&1
}

// applyPalette maps a colour index through a palette register.
func applyPalette(index, palette uint8) uint8 {
	return palette >> (index * 2) & 0x03
}
