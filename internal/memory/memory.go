// Package memory implements the memory bus and address space mapping.
//
// The Bus owns every piece of addressable state: the cartridge, video RAM,
// work RAM, OAM, the I/O block, high RAM and IE, plus the timer, APU and
// joypad whose registers live in the I/O block. The CPU and PPU only ever go
// through Read and Write, with a few privileged setters for the registers
// the PPU and timer update out of band.
package memory

import (
	"errors"
	"fmt"

	"github.com/richardwooding/dotmatrix/internal/apu"
	"github.com/richardwooding/dotmatrix/internal/cartridge"
	"github.com/richardwooding/dotmatrix/internal/input"
	"github.com/richardwooding/dotmatrix/internal/timer"
)

// I/O register addresses.
const (
	AddrP1   = 0xFF00
	AddrSB   = 0xFF01
	AddrSC   = 0xFF02
	AddrDIV  = 0xFF04
	AddrIF   = 0xFF0F
	AddrLCDC = 0xFF40
	AddrSTAT = 0xFF41
	AddrLY   = 0xFF44
	AddrDMA  = 0xFF46
	AddrIE   = 0xFFFF
)

// Interrupt bits in IF and IE.
const (
	IntVBlank uint8 = 1 << iota
	IntSTAT
	IntTimer
	IntSerial
	IntJoypad
)

const (
	statModeMask = 0x07 // mode and coincidence bits owned by the PPU
	scTransfer   = 0x80
	scInternal   = 0x01
	dmaLength    = 0xA0
)

// ErrROMLoadFailed indicates ROM loading failed.
var ErrROMLoadFailed = errors.New("ROM loading failed")

// Bus is the single 64 KiB address space.
type Bus struct {
	cartridge cartridge.Cartridge
	timer     *timer.Timer
	apu       *apu.APU
	joypad    *input.Joypad

	vram [0x2000]uint8 // 8000-9FFF
	wram [0x2000]uint8 // C000-DFFF, echoed at E000-FDFF
	oam  [0xA0]uint8   // FE00-FE9F
	io   [0x80]uint8   // FF00-FF7F
	hram [0x7F]uint8   // FF80-FFFE
	ie   uint8         // FFFF

	serial []byte
}

// NewBus creates a bus with its own timer, APU and joypad and the I/O block
// in its post-boot state. No cartridge is attached.
func NewBus() *Bus {
	b := &Bus{
		timer:  timer.New(),
		apu:    apu.New(),
		joypad: input.New(),
	}
	b.Reset()
	return b
}

// LoadROM creates a cartridge from rom and attaches it.
func (b *Bus) LoadROM(rom []byte) error {
	cart, err := cartridge.New(rom)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrROMLoadFailed, err)
	}

	b.cartridge = cart
	return nil
}

// SetCartridge attaches a cartridge.
func (b *Bus) SetCartridge(cart cartridge.Cartridge) {
	b.cartridge = cart
}

// Cartridge returns the attached cartridge, or nil.
func (b *Bus) Cartridge() cartridge.Cartridge {
	return b.cartridge
}

// Timer returns the timer clocked through this bus.
func (b *Bus) Timer() *timer.Timer {
	return b.timer
}

// APU returns the sound unit mapped at FF10-FF3F.
func (b *Bus) APU() *apu.APU {
	return b.apu
}

// Joypad returns the joypad behind P1.
func (b *Bus) Joypad() *input.Joypad {
	return b.joypad
}

// Reset clears RAM and restores the post-boot I/O registers. The cartridge
// is kept and its RAM untouched.
func (b *Bus) Reset() {
	clear(b.vram[:])
	clear(b.wram[:])
	clear(b.oam[:])
	clear(b.io[:])
	clear(b.hram[:])
	b.ie = 0
	b.serial = nil

	b.io[AddrIF-0xFF00] = 0xE0
	b.io[AddrLCDC-0xFF00] = 0x91
	b.io[0x47] = 0xFC // BGP
	b.io[0x48] = 0xFF // OBP0
	b.io[0x49] = 0xFF // OBP1

	b.timer.Reset()
	b.apu.Reset()
	b.joypad.SetState(0, 0)
}

// Read reads a byte. Unmapped addresses read 0xFF.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		if b.cartridge != nil {
			return b.cartridge.ReadROM(addr)
		}
		return 0xFF

	case addr < 0xA000:
		return b.vram[addr-0x8000]

	case addr < 0xC000:
		if b.cartridge != nil {
			return b.cartridge.ReadRAM(addr - 0xA000)
		}
		return 0xFF

	case addr < 0xE000:
		return b.wram[addr-0xC000]

	case addr < 0xFE00:
		return b.wram[addr-0xE000]

	case addr < 0xFEA0:
		return b.oam[addr-0xFE00]

	case addr < 0xFF00:
		return 0xFF

	case addr < 0xFF80:
		return b.readIO(addr)

	case addr < 0xFFFF:
		return b.hram[addr-0xFF80]

	default:
		return b.ie
	}
}

// Write writes a byte. Writes to unmapped addresses are dropped.
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x8000:
		if b.cartridge != nil {
			b.cartridge.WriteROM(addr, value)
		}

	case addr < 0xA000:
		b.vram[addr-0x8000] = value

	case addr < 0xC000:
		if b.cartridge != nil {
			b.cartridge.WriteRAM(addr-0xA000, value)
		}

	case addr < 0xE000:
		b.wram[addr-0xC000] = value

	case addr < 0xFE00:
		b.wram[addr-0xE000] = value

	case addr < 0xFEA0:
		b.oam[addr-0xFE00] = value

	case addr < 0xFF00:
		// unusable

	case addr < 0xFF80:
		b.writeIO(addr, value)

	case addr < 0xFFFF:
		b.hram[addr-0xFF80] = value

	default:
		b.ie = value
	}
}

func (b *Bus) readIO(addr uint16) uint8 {
	switch {
	case addr == AddrP1:
		return b.joypad.Read()
	case addr == AddrIF:
		return b.io[addr-0xFF00] | 0xE0
	case addr == AddrSTAT:
		return b.io[addr-0xFF00] | 0x80
	case addr >= apu.RegStart && addr <= apu.RegEnd:
		return b.apu.Read(addr)
	}
	return b.io[addr-0xFF00]
}

func (b *Bus) writeIO(addr uint16, value uint8) {
	offset := addr - 0xFF00

	switch {
	case addr == AddrP1:
		b.joypad.Write(value)
		b.io[offset] = value & 0x30

	case addr == AddrSC:
		b.writeSC(value)

	case addr == AddrDIV:
		b.timer.ResetDIV()
		b.io[offset] = 0

	case addr >= apu.RegStart && addr <= apu.RegEnd:
		b.apu.Write(addr, value)

	case addr == AddrSTAT:
		b.io[offset] = value&^statModeMask | b.io[offset]&statModeMask

	case addr == AddrLY:
		b.io[offset] = 0

	case addr == AddrDMA:
		b.io[offset] = value
		b.dma(value)

	default:
		b.io[offset] = value
	}
}

// writeSC completes a transfer clocked by the internal clock at once: the
// outgoing byte is captured, SB reads back as if nothing were connected and
// the serial interrupt is raised.
func (b *Bus) writeSC(value uint8) {
	if value&(scTransfer|scInternal) != scTransfer|scInternal {
		b.io[AddrSC-0xFF00] = value
		return
	}

	b.serial = append(b.serial, b.io[AddrSB-0xFF00])
	b.io[AddrSB-0xFF00] = 0xFF
	b.io[AddrSC-0xFF00] = value &^ scTransfer
	b.RequestInterrupt(IntSerial)
}

// dma copies 160 bytes from value*0x100 into OAM through Read.
func (b *Bus) dma(value uint8) {
	src := uint16(value) << 8
	for i := uint16(0); i < dmaLength; i++ {
		b.oam[i] = b.Read(src + i)
	}
}

// SetLY stores the current scanline. Bus writes to LY only clear it.
func (b *Bus) SetLY(value uint8) {
	b.io[AddrLY-0xFF00] = value
}

// SetSTAT stores STAT including the mode and coincidence bits that bus
// writes cannot touch.
func (b *Bus) SetSTAT(value uint8) {
	b.io[AddrSTAT-0xFF00] = value
}

// SetDIV stores DIV without resetting the divider.
func (b *Bus) SetDIV(value uint8) {
	b.io[AddrDIV-0xFF00] = value
}

// RequestInterrupt sets bits in IF.
func (b *Bus) RequestInterrupt(bits uint8) {
	b.io[AddrIF-0xFF00] |= bits
}

// SetButtons updates the pressed-button mask, raising the joypad interrupt
// when a newly pressed button is visible through P1.
func (b *Bus) SetButtons(mask input.Button) {
	if b.joypad.SetButtons(mask) {
		b.RequestInterrupt(IntJoypad)
	}
}

// SerialOutput returns the bytes sent over the serial port so far.
func (b *Bus) SerialOutput() []byte {
	return append([]byte(nil), b.serial...)
}

// ClearSerialOutput discards captured serial bytes.
func (b *Bus) ClearSerialOutput() {
	b.serial = nil
}
