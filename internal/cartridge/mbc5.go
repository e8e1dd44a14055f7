package cartridge

// MBC5 supports up to 8 MiB of ROM through a 9-bit bank number and up to
// 128 KiB of RAM in 16 banks.
//
// Registers:
//   - 0x0000-0x1FFF: RAM enable
//   - 0x2000-0x2FFF: ROM bank bits 0-7
//   - 0x3000-0x3FFF: ROM bank bit 8
//   - 0x4000-0x5FFF: RAM bank (bit 3 drives the rumble motor on rumble carts)
type MBC5 struct {
	banks
}

// ReadROM reads bank 0 at 0x0000-0x3FFF and the selected bank above it.
// A bank number of 0 maps to bank 1 in the switchable window.
func (c *MBC5) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		return c.readBank(0, addr)
	}
	bank := int(c.romBank)
	if bank == 0 {
		bank = 1
	}
	return c.readBank(bank, addr)
}

// WriteROM updates the controller registers.
func (c *MBC5) WriteROM(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A
	case addr < 0x3000:
		c.romBank = c.romBank&0x100 | uint16(value)
	case addr < 0x4000:
		c.romBank = c.romBank&0x0FF | uint16(value&0x01)<<8
	case addr < 0x6000:
		c.ramBank = value & 0x0F
	}
}

// ReadRAM reads the selected RAM bank.
func (c *MBC5) ReadRAM(addr uint16) uint8 {
	return c.readRAM(addr)
}

// WriteRAM writes the selected RAM bank.
func (c *MBC5) WriteRAM(addr uint16, value uint8) {
	c.writeRAM(addr, value)
}
