package cartridge

// mbc2RAMSize is the built-in 512 x 4-bit RAM.
const mbc2RAMSize = 512

// MBC2 supports up to 256 KiB of ROM and has 512 half-byte RAM cells built
// into the controller. Bit 8 of the address picks the register written in
// 0x0000-0x3FFF: clear for RAM enable, set for the 4-bit ROM bank.
type MBC2 struct {
	banks
}

func newMBC2(b banks) *MBC2 {
	b.ram = make([]byte, mbc2RAMSize)
	return &MBC2{banks: b}
}

// ReadROM reads bank 0 at 0x0000-0x3FFF and the selected bank above it.
func (c *MBC2) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		return c.readBank(0, addr)
	}
	return c.readBank(int(c.romBank), addr)
}

// WriteROM updates the controller registers.
func (c *MBC2) WriteROM(addr uint16, value uint8) {
	if addr >= 0x4000 {
		return
	}
	if addr&0x0100 == 0 {
		c.ramEnabled = value&0x0F == 0x0A
		return
	}
	bank := uint16(value & 0x0F)
	if bank == 0 {
		bank = 1
	}
	c.romBank = bank
}

// ReadRAM returns the low nibble of the cell; the 512 cells repeat across
// the whole window.
func (c *MBC2) ReadRAM(addr uint16) uint8 {
	if !c.ramEnabled {
		return 0xFF
	}
	return c.ram[addr&0x01FF] & 0x0F
}

// WriteRAM stores the low nibble of value.
func (c *MBC2) WriteRAM(addr uint16, value uint8) {
	if !c.ramEnabled {
		return
	}
	c.ram[addr&0x01FF] = value & 0x0F
}
