package cartridge

import "time"

// MBC3 supports up to 2 MiB of ROM, 32 KiB of RAM and a real-time clock.
//
// Registers:
//   - 0x0000-0x1FFF: RAM and clock enable
//   - 0x2000-0x3FFF: ROM bank, 7 bits (0 selects 1)
//   - 0x4000-0x5FFF: RAM bank 0x00-0x03, or clock register 0x08-0x0C
//   - 0x6000-0x7FFF: latch clock on a 0x00 then 0x01 write
type MBC3 struct {
	banks
	clock *rtc
}

func newMBC3(b banks) *MBC3 {
	return &MBC3{banks: b, clock: newRTC(time.Now)}
}

// SetClock replaces the wall clock source and restarts the clock from its
// current register values.
func (c *MBC3) SetClock(now Clock) {
	regs := c.clock.live()
	c.clock.now = now
	c.clock.set(regs)
}

// ReadROM reads bank 0 at 0x0000-0x3FFF and the selected bank above it.
func (c *MBC3) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		return c.readBank(0, addr)
	}
	return c.readBank(int(c.romBank), addr)
}

// WriteROM updates the controller registers.
func (c *MBC3) WriteROM(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A

	case addr < 0x4000:
		bank := uint16(value & 0x7F)
		if bank == 0 {
			bank = 1
		}
		c.romBank = bank

	case addr < 0x6000:
		c.ramBank = value

	case addr < 0x8000:
		c.clock.latch(value)
	}
}

func (c *MBC3) rtcSelected() (int, bool) {
	if c.ramBank >= 0x08 && c.ramBank <= 0x0C {
		return int(c.ramBank - 0x08), true
	}
	return 0, false
}

// ReadRAM reads RAM, or a latched clock register when one is selected.
func (c *MBC3) ReadRAM(addr uint16) uint8 {
	if reg, ok := c.rtcSelected(); ok {
		if !c.ramEnabled {
			return 0xFF
		}
		return c.clock.latched[reg]
	}
	if c.ramBank > 0x03 {
		return 0xFF
	}
	return c.readRAM(addr)
}

// WriteRAM writes RAM, or sets a live clock register when one is selected.
func (c *MBC3) WriteRAM(addr uint16, value uint8) {
	if reg, ok := c.rtcSelected(); ok {
		if c.ramEnabled {
			c.clock.write(reg, value)
		}
		return
	}
	if c.ramBank > 0x03 {
		return
	}
	c.writeRAM(addr, value)
}

// State includes the clock registers.
func (c *MBC3) State() State {
	s := c.banks.State()
	s.RTC = c.clock.state()
	return s
}

// SetState restores banks and clock. The live clock resumes from the saved
// register values.
func (c *MBC3) SetState(s State) error {
	if err := c.banks.SetState(s); err != nil {
		return err
	}
	c.clock.setState(s.RTC)
	return nil
}
