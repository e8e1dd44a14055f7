package cartridge

// ROMOnly is a 32 KiB cartridge without a controller, optionally with up to
// 8 KiB of RAM that is always accessible.
type ROMOnly struct {
	banks
}

// ReadROM reads the flat 32 KiB image.
func (c *ROMOnly) ReadROM(addr uint16) uint8 {
	if int(addr) < len(c.rom) {
		return c.rom[addr]
	}
	return 0xFF
}

// WriteROM is ignored; there are no registers.
func (c *ROMOnly) WriteROM(uint16, uint8) {}

// ReadRAM reads external RAM if fitted.
func (c *ROMOnly) ReadRAM(addr uint16) uint8 {
	if int(addr) < len(c.ram) {
		return c.ram[addr]
	}
	return 0xFF
}

// WriteRAM writes external RAM if fitted.
func (c *ROMOnly) WriteRAM(addr uint16, value uint8) {
	if int(addr) < len(c.ram) {
		c.ram[addr] = value
	}
}
