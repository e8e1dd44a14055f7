package cartridge

// MBC1 supports up to 2 MiB of ROM and 32 KiB of RAM.
//
// Registers (write-only, mapped over ROM):
//   - 0x0000-0x1FFF: RAM enable (0x0A in the low nibble enables)
//   - 0x2000-0x3FFF: ROM bank, lower 5 bits (0 selects 1)
//   - 0x4000-0x5FFF: ROM bank bits 5-6, or RAM bank in RAM banking mode
//   - 0x6000-0x7FFF: banking mode (0 = ROM banking, 1 = RAM banking)
type MBC1 struct {
	banks
}

// ReadROM reads bank 0 at 0x0000-0x3FFF and the selected bank above it.
func (c *MBC1) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		return c.readBank(0, addr)
	}
	return c.readBank(int(c.romBank), addr)
}

// WriteROM updates the controller registers.
func (c *MBC1) WriteROM(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A

	case addr < 0x4000:
		bank := uint16(value & 0x1F)
		if bank == 0 {
			bank = 1
		}
		c.romBank = c.romBank&0x60 | bank

	case addr < 0x6000:
		if c.bankingMode {
			c.ramBank = value & 0x03
		} else {
			c.romBank = c.romBank&0x1F | uint16(value&0x03)<<5
		}

	case addr < 0x8000:
		c.bankingMode = value&0x01 == 1
		if !c.bankingMode {
			c.ramBank = 0
		}
	}
}

// ReadRAM reads the selected RAM bank.
func (c *MBC1) ReadRAM(addr uint16) uint8 {
	return c.readRAM(addr)
}

// WriteRAM writes the selected RAM bank.
func (c *MBC1) WriteRAM(addr uint16, value uint8) {
	c.writeRAM(addr, value)
}
