package cpu

// cbOpcodes is the 0xCB-prefixed table. It is fully regular: bits 6-7 select
// the group, bits 3-5 the operation or bit number and bits 0-2 the operand.
// Each handler's cycle count includes the prefix byte.
var cbOpcodes [256]instruction

func init() {
	for op := 0; op < 256; op++ {
		y, r := uint8(op>>3)&7, uint8(op)&7
		switch op >> 6 {
		case 0:
			cbOpcodes[op] = shiftR(y, r)
		case 1:
			cbOpcodes[op] = bitR(y, r)
		case 2:
			cbOpcodes[op] = resR(y, r)
		case 3:
			cbOpcodes[op] = setR(y, r)
		}
	}
	opcodes[0xCB] = prefixCB
}

// prefixCB fetches the second opcode byte and runs it from cbOpcodes.
func prefixCB(c *CPU) int {
	return cbOpcodes[c.fetchByte()](c)
}

// cbCycles is the cost of a read-modify-write CB instruction on operand r.
func cbCycles(r uint8) int {
	if r == regHL {
		return 16
	}
	return 8
}

func shiftR(y, r uint8) instruction {
	return func(c *CPU) int {
		c.setReg(r, c.shift(y, c.reg(r)))
		return cbCycles(r)
	}
}

// bitR only reads its operand, so BIT n,(HL) is cheaper than the others.
func bitR(y, r uint8) instruction {
	return func(c *CPU) int {
		c.bit(y, c.reg(r))
		if r == regHL {
			return 12
		}
		return 8
	}
}

func resR(y, r uint8) instruction {
	return func(c *CPU) int {
		c.setReg(r, c.reg(r)&^(1<<y))
		return cbCycles(r)
	}
}

func setR(y, r uint8) instruction {
	return func(c *CPU) int {
		c.setReg(r, c.reg(r)|1<<y)
		return cbCycles(r)
	}
}

// shift applies rotate/shift operation y in RLC RRC RL RR SLA SRA SWAP SRL
// order.
func (c *CPU) shift(y, v uint8) uint8 {
	switch y {
	case 0:
		return c.rlc(v)
	case 1:
		return c.rrc(v)
	case 2:
		return c.rl(v)
	case 3:
		return c.rr(v)
	case 4:
		return c.sla(v)
	case 5:
		return c.sra(v)
	case 6:
		return c.swap(v)
	default:
		return c.srl(v)
	}
}
