package ppu

import "testing"

// drawLine renders scanline line directly.
func drawLine(p *PPU, bus *testBus, line uint8) {
	p.scanline = line
	p.renderScanline(bus)
}

func TestTilePixel(t *testing.T) {
	bus := newTestBus()
	bus.mem[0x8000] = 0x3C // lo
	bus.mem[0x8001] = 0x7E // hi

	want := []uint8{0, 2, 3, 3, 3, 3, 2, 0}
	for x, w := range want {
		if got := tilePixel(bus, 0x8000, uint8(x), 0); got != w {
			t.Errorf("tilePixel(x=%d) = %d, want %d", x, got, w)
		}
	}
}

func TestApplyPalette(t *testing.T) {
	tests := []struct {
		index, palette, want uint8
	}{
		{0, 0xE4, 0},
		{1, 0xE4, 1},
		{2, 0xE4, 2},
		{3, 0xE4, 3},
		{0, 0x1B, 3},
		{3, 0x1B, 0},
		{1, 0xFC, 3},
	}

	for _, tt := range tests {
		if got := applyPalette(tt.index, tt.palette); got != tt.want {
			t.Errorf("applyPalette(%d, 0x%02X) = %d, want %d", tt.index, tt.palette, got, tt.want)
		}
	}
}

func TestTileDataAddr(t *testing.T) {
	tests := []struct {
		tile   uint8
		signed bool
		want   uint16
	}{
		{0x00, false, 0x8000},
		{0x80, false, 0x8800},
		{0xFF, false, 0x8FF0},
		{0x00, true, 0x9000},
		{0x7F, true, 0x97F0},
		{0x80, true, 0x8800},
		{0xFF, true, 0x8FF0},
	}

	for _, tt := range tests {
		if got := tileDataAddr(tt.tile, tt.signed); got != tt.want {
			t.Errorf("tileDataAddr(0x%02X, %v) = 0x%04X, want 0x%04X", tt.tile, tt.signed, got, tt.want)
		}
	}
}

func TestRenderBackground(t *testing.T) {
	bus := newTestBus()
	bus.setTile(0x8010, 2)   // tile 1
	bus.mem[0x9800+1] = 1    // map row 0, column 1
	bus.mem[0x9800+32*2] = 1 // map row 2, column 0
	p := New()

	drawLine(p, bus, 0)
	if got := p.pixel(0, 0); got != 0 {
		t.Errorf("pixel(0,0) = %d, want 0", got)
	}
	if got := p.pixel(8, 0); got != 2 {
		t.Errorf("pixel(8,0) = %d, want 2", got)
	}

	bus.mem[AddrSCX] = 8
	drawLine(p, bus, 0)
	if got := p.pixel(0, 0); got != 2 {
		t.Errorf("pixel(0,0) with SCX=8 = %d, want 2", got)
	}

	bus.mem[AddrSCX] = 0
	bus.mem[AddrSCY] = 240 // line 0 shows map row 30, line 32 wraps to row 2
	drawLine(p, bus, 32)
	if got := p.pixel(0, 32); got != 2 {
		t.Errorf("pixel(0,32) with SCY=240 = %d, want 2", got)
	}
}

func TestRenderBackgroundSignedTiles(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x81 // LCD on, BG on, signed tile data, map 0x9800
	bus.setTile(0x9000, 1)
	bus.setTile(0x8800, 3)
	bus.mem[0x9800] = 0x00
	bus.mem[0x9801] = 0x80
	p := New()

	drawLine(p, bus, 0)

	if got := p.pixel(0, 0); got != 1 {
		t.Errorf("tile 0x00 shade = %d, want 1", got)
	}
	if got := p.pixel(8, 0); got != 3 {
		t.Errorf("tile 0x80 shade = %d, want 3", got)
	}
}

func TestRenderBackgroundHighMap(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x99
	bus.setTile(0x8010, 3)
	bus.mem[0x9C00] = 1
	p := New()

	drawLine(p, bus, 0)

	if got := p.pixel(0, 0); got != 3 {
		t.Errorf("pixel from 0x9C00 map = %d, want 3", got)
	}
}

func TestRenderBackgroundDisabled(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x90
	bus.setTile(0x8000, 3)
	p := New()

	drawLine(p, bus, 0)

	if got := p.pixel(0, 0); got != 0 {
		t.Errorf("pixel with BG off = %d, want 0", got)
	}
}

func TestRenderWindow(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x91 | LCDCWindowEnable | LCDCWindowTileMap
	bus.setTile(0x8010, 3)
	for i := uint16(0); i < 32*32; i++ {
		bus.mem[0x9C00+i] = 1
	}
	bus.mem[AddrWY] = 10
	bus.mem[AddrWX] = 7 + 80
	p := New()

	drawLine(p, bus, 9)
	if got := p.pixel(100, 9); got != 0 {
		t.Errorf("pixel above WY = %d, want 0", got)
	}
	if p.windowLine != 0 {
		t.Errorf("windowLine = %d, want 0", p.windowLine)
	}

	drawLine(p, bus, 10)
	if got := p.pixel(79, 10); got != 0 {
		t.Errorf("pixel left of WX = %d, want 0", got)
	}
	if got := p.pixel(80, 10); got != 3 {
		t.Errorf("pixel at WX-7 = %d, want 3", got)
	}
	if p.windowLine != 1 {
		t.Errorf("windowLine = %d, want 1", p.windowLine)
	}
}

func TestRenderWindowOffscreen(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x91 | LCDCWindowEnable
	bus.mem[AddrWX] = 167
	p := New()

	drawLine(p, bus, 0)

	if p.windowLine != 0 {
		t.Errorf("windowLine = %d, want 0 when WX is off screen", p.windowLine)
	}
}

func TestRenderSprites(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x93
	bus.setTile(0x8020, 1) // tile 2
	bus.setSprite(0, 16, 8+20, 2, 0)
	p := New()

	drawLine(p, bus, 0)

	if got := p.pixel(19, 0); got != 0 {
		t.Errorf("pixel(19,0) = %d, want background", got)
	}
	for x := 20; x < 28; x++ {
		if got := p.pixel(x, 0); got != 1 {
			t.Errorf("pixel(%d,0) = %d, want sprite shade 1", x, got)
		}
	}

	drawLine(p, bus, 8)
	if got := p.pixel(20, 8); got != 0 {
		t.Errorf("pixel below 8x8 sprite = %d, want 0", got)
	}
}

func TestRenderSpritesDisabled(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x91
	bus.setTile(0x8020, 1)
	bus.setSprite(0, 16, 8, 2, 0)
	p := New()

	drawLine(p, bus, 0)

	if got := p.pixel(0, 0); got != 0 {
		t.Errorf("pixel = %d, want 0 with sprites off", got)
	}
}

func TestRenderSpritePalette(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x93
	bus.setTile(0x8020, 1)
	bus.setSprite(0, 16, 8, 2, SpriteAttrPalette)
	p := New()

	drawLine(p, bus, 0)

	if got := p.pixel(0, 0); got != 2 {
		t.Errorf("pixel with OBP1 = %d, want 2", got)
	}
}

func TestRenderSpriteFlip(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x93
	// Tile 2: only the top-left pixel has colour 3.
	bus.mem[0x8020] = 0x80
	bus.mem[0x8021] = 0x80

	tests := []struct {
		name  string
		attrs uint8
		x, y  int
	}{
		{"none", 0, 0, 0},
		{"x flip", SpriteAttrXFlip, 7, 0},
		{"y flip", SpriteAttrYFlip, 0, 7},
		{"both", SpriteAttrXFlip | SpriteAttrYFlip, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus.setSprite(0, 16, 8, 2, tt.attrs)
			p := New()
			for line := uint8(0); line < 8; line++ {
				drawLine(p, bus, line)
			}
			if got := p.pixel(tt.x, tt.y); got != 3 {
				t.Errorf("pixel(%d,%d) = %d, want 3", tt.x, tt.y, got)
			}
		})
	}
}

func TestRenderTallSprite(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x93 | LCDCOBJSize
	bus.setTile(0x8020, 1) // tile 2, top half
	bus.setTile(0x8030, 2) // tile 3, bottom half
	bus.setSprite(0, 16, 8, 3, 0) // bit 0 of the tile index is ignored
	p := New()

	drawLine(p, bus, 0)
	drawLine(p, bus, 8)

	if got := p.pixel(0, 0); got != 1 {
		t.Errorf("top half = %d, want 1", got)
	}
	if got := p.pixel(0, 8); got != 2 {
		t.Errorf("bottom half = %d, want 2", got)
	}
}

func TestRenderSpriteBehindBackground(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x93
	bus.setTile(0x8000, 0)
	bus.setTile(0x8010, 1)
	bus.setTile(0x8020, 3)
	bus.mem[0x9801] = 1 // x 8-15 has background colour 1
	bus.setSprite(0, 16, 8+4, 2, SpriteAttrPriority)
	p := New()

	drawLine(p, bus, 0)

	if got := p.pixel(4, 0); got != 3 {
		t.Errorf("sprite over BG colour 0 = %d, want 3", got)
	}
	if got := p.pixel(8, 0); got != 1 {
		t.Errorf("sprite over BG colour 1 = %d, want background 1", got)
	}
}

func TestRenderSpriteOverlapLaterWins(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x93
	bus.setTile(0x8020, 1)
	bus.setTile(0x8030, 3)
	bus.setSprite(0, 16, 8, 2, 0)
	bus.setSprite(1, 16, 12, 3, 0)
	p := New()

	drawLine(p, bus, 0)

	if got := p.pixel(2, 0); got != 1 {
		t.Errorf("pixel(2,0) = %d, want first sprite", got)
	}
	if got := p.pixel(6, 0); got != 3 {
		t.Errorf("pixel(6,0) = %d, want later sprite", got)
	}
}

func TestRenderSpriteClipped(t *testing.T) {
	bus := newTestBus()
	bus.mem[AddrLCDC] = 0x93
	bus.setTile(0x8020, 1)
	bus.setSprite(0, 16, 4, 2, 0)   // four columns hang off the left edge
	bus.setSprite(1, 16, 164, 2, 0) // four columns hang off the right edge
	p := New()

	drawLine(p, bus, 0)

	for _, x := range []int{0, 3, 156, 159} {
		if got := p.pixel(x, 0); got != 1 {
			t.Errorf("pixel(%d,0) = %d, want 1", x, got)
		}
	}
	if got := p.pixel(4, 0); got != 0 {
		t.Errorf("pixel(4,0) = %d, want 0", got)
	}
}
