package cpu

// add8 returns a+b (+carry for ADC) and sets all four flags.
func (c *CPU) add8(a, b uint8, withCarry bool) uint8 {
	var carry uint8
	if withCarry {
		carry = c.Registers.carryBit()
	}
	result := a + b + carry
	c.Registers.setFlags(
		result == 0,
		false,
		a&0x0F+b&0x0F+carry > 0x0F,
		uint16(a)+uint16(b)+uint16(carry) > 0xFF,
	)
	return result
}

// sub8 returns a-b (-carry for SBC) and sets all four flags.
func (c *CPU) sub8(a, b uint8, withCarry bool) uint8 {
	var carry uint8
	if withCarry {
		carry = c.Registers.carryBit()
	}
	result := a - b - carry
	c.Registers.setFlags(
		result == 0,
		true,
		a&0x0F < b&0x0F+carry,
		uint16(a) < uint16(b)+uint16(carry),
	)
	return result
}

func (c *CPU) and(value uint8) {
	c.Registers.A &= value
	c.Registers.setFlags(c.Registers.A == 0, false, true, false)
}

func (c *CPU) or(value uint8) {
	c.Registers.A |= value
	c.Registers.setFlags(c.Registers.A == 0, false, false, false)
}

func (c *CPU) xor(value uint8) {
	c.Registers.A ^= value
	c.Registers.setFlags(c.Registers.A == 0, false, false, false)
}

// alu applies ALU operation op (the 0x80-0xBF row order) to A.
func (c *CPU) alu(op, value uint8) {
	r := c.Registers
	switch op {
	case 0:
		r.A = c.add8(r.A, value, false)
	case 1:
		r.A = c.add8(r.A, value, true)
	case 2:
		r.A = c.sub8(r.A, value, false)
	case 3:
		r.A = c.sub8(r.A, value, true)
	case 4:
		c.and(value)
	case 5:
		c.xor(value)
	case 6:
		c.or(value)
	case 7:
		c.sub8(r.A, value, false) // CP
	}
}

// inc8 and dec8 leave the carry flag alone.
func (c *CPU) inc8(value uint8) uint8 {
	result := value + 1
	c.Registers.setFlags(result == 0, false, value&0x0F == 0x0F, c.Registers.CarryFlag())
	return result
}

func (c *CPU) dec8(value uint8) uint8 {
	result := value - 1
	c.Registers.setFlags(result == 0, true, value&0x0F == 0, c.Registers.CarryFlag())
	return result
}

// addHL adds to HL with carries out of bits 11 and 15; Z is preserved.
func (c *CPU) addHL(value uint16) {
	hl := c.Registers.HL()
	c.Registers.setFlags(
		c.Registers.ZeroFlag(),
		false,
		hl&0x0FFF+value&0x0FFF > 0x0FFF,
		uint32(hl)+uint32(value) > 0xFFFF,
	)
	c.Registers.SetHL(hl + value)
}

// spOffset returns SP plus a signed immediate, setting H and C from the
// unsigned low-byte addition as ADD SP,e and LD HL,SP+e do.
func (c *CPU) spOffset() uint16 {
	e := c.fetchByte()
	sp := c.Registers.SP
	c.Registers.setFlags(
		false,
		false,
		sp&0x0F+uint16(e)&0x0F > 0x0F,
		sp&0xFF+uint16(e) > 0xFF,
	)
	return uint16(int32(sp) + int32(int8(e))) //nolint:gosec // G115: wraps modulo 65536
}

// daa adjusts A to packed BCD after an add or subtract.
func (c *CPU) daa() {
	r := c.Registers
	a := r.A
	carry := r.CarryFlag()

	if !r.SubtractFlag() {
		var adjust uint8
		if r.HalfCarryFlag() || a&0x0F > 0x09 {
			adjust |= 0x06
		}
		if carry || a > 0x99 {
			adjust |= 0x60
			carry = true
		}
		a += adjust
	} else {
		if r.HalfCarryFlag() {
			a -= 0x06
		}
		if carry {
			a -= 0x60
		}
	}

	r.A = a
	r.setFlags(a == 0, r.SubtractFlag(), false, carry)
}

// Rotates and shifts. Each returns the result and sets Z from it, clears
// N and H, and sets C from the bit shifted out.

func (c *CPU) shiftFlags(result uint8, out bool) uint8 {
	c.Registers.setFlags(result == 0, false, false, out)
	return result
}

func (c *CPU) rlc(v uint8) uint8 { return c.shiftFlags(v<<1|v>>7, v&0x80 != 0) }

func (c *CPU) rrc(v uint8) uint8 { return c.shiftFlags(v>>1|v<<7, v&0x01 != 0) }

func (c *CPU) rl(v uint8) uint8 {
	return c.shiftFlags(v<<1|c.Registers.carryBit(), v&0x80 != 0)
}

func (c *CPU) rr(v uint8) uint8 {
	return c.shiftFlags(v>>1|c.Registers.carryBit()<<7, v&0x01 != 0)
}

func (c *CPU) sla(v uint8) uint8 { return c.shiftFlags(v<<1, v&0x80 != 0) }

func (c *CPU) sra(v uint8) uint8 { return c.shiftFlags(v>>1|v&0x80, v&0x01 != 0) }

func (c *CPU) swap(v uint8) uint8 { return c.shiftFlags(v<<4|v>>4, false) }

func (c *CPU) srl(v uint8) uint8 { return c.shiftFlags(v>>1, v&0x01 != 0) }

// bit sets Z when bit n of v is clear; C is preserved.
func (c *CPU) bit(n, v uint8) {
	c.Registers.setFlags(v&(1<<n) == 0, false, true, c.Registers.CarryFlag())
}
