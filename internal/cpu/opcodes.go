package cpu

import "github.com/richardwooding/dotmatrix/internal/logger"

// instruction executes one opcode whose first byte has been fetched and
// returns its total cost in cycles.
type instruction func(c *CPU) int

// opcodes is the main dispatch table. Regular blocks (8-bit loads, ALU on
// registers, INC/DEC, 16-bit pairs) are generated from the operand encoding;
// the rest are listed by hand.
var opcodes [256]instruction

// illegalOpcodes have no defined behaviour and execute as NOP.
var illegalOpcodes = []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}

// Register operand encoding in bits 0-2 and 3-5 of an opcode.
const (
	regB = iota
	regC
	regD
	regE
	regH
	regL
	regHL // (HL)
	regA
)

func init() {
	for op := 0x40; op < 0x80; op++ {
		if op == 0x76 {
			continue
		}
		opcodes[op] = ldRR(uint8(op>>3)&7, uint8(op)&7)
	}
	for op := 0x80; op < 0xC0; op++ {
		opcodes[op] = aluR(uint8(op>>3)&7, uint8(op)&7)
	}
	for r := uint8(0); r < 8; r++ {
		opcodes[r<<3|0x04] = incR(r)
		opcodes[r<<3|0x05] = decR(r)
		opcodes[r<<3|0x06] = ldRN(r)
	}
	for rp := uint8(0); rp < 4; rp++ {
		opcodes[rp<<4|0x01] = ldRPNN(rp)
		opcodes[rp<<4|0x03] = incRP(rp)
		opcodes[rp<<4|0x09] = addHLRP(rp)
		opcodes[rp<<4|0x0B] = decRP(rp)
		opcodes[0xC1|rp<<4] = popRP(rp)
		opcodes[0xC5|rp<<4] = pushRP(rp)
	}
	for cc := uint8(0); cc < 4; cc++ {
		opcodes[0x20|cc<<3] = jrCond(cc)
		opcodes[0xC0|cc<<3] = retCond(cc)
		opcodes[0xC2|cc<<3] = jpCond(cc)
		opcodes[0xC4|cc<<3] = callCond(cc)
	}
	for n := uint16(0); n < 8; n++ {
		opcodes[0xC7|n<<3] = rst(n * 8)
	}
	for op := 0xC6; op <= 0xFE; op += 8 {
		opcodes[op] = aluN(uint8(op>>3) & 7)
	}
	for _, op := range illegalOpcodes {
		opcodes[op] = nop
	}

	opcodes[0x00] = nop
	opcodes[0x02] = func(c *CPU) int { c.Memory.Write(c.Registers.BC(), c.Registers.A); return 8 }
	opcodes[0x12] = func(c *CPU) int { c.Memory.Write(c.Registers.DE(), c.Registers.A); return 8 }
	opcodes[0x22] = func(c *CPU) int { c.Memory.Write(c.hlPost(1), c.Registers.A); return 8 }
	opcodes[0x32] = func(c *CPU) int { c.Memory.Write(c.hlPost(-1), c.Registers.A); return 8 }
	opcodes[0x0A] = func(c *CPU) int { c.Registers.A = c.Memory.Read(c.Registers.BC()); return 8 }
	opcodes[0x1A] = func(c *CPU) int { c.Registers.A = c.Memory.Read(c.Registers.DE()); return 8 }
	opcodes[0x2A] = func(c *CPU) int { c.Registers.A = c.Memory.Read(c.hlPost(1)); return 8 }
	opcodes[0x3A] = func(c *CPU) int { c.Registers.A = c.Memory.Read(c.hlPost(-1)); return 8 }

	opcodes[0x07] = func(c *CPU) int { c.Registers.A = c.rlc(c.Registers.A); c.Registers.ClearFlag(FlagZ); return 4 }
	opcodes[0x0F] = func(c *CPU) int { c.Registers.A = c.rrc(c.Registers.A); c.Registers.ClearFlag(FlagZ); return 4 }
	opcodes[0x17] = func(c *CPU) int { c.Registers.A = c.rl(c.Registers.A); c.Registers.ClearFlag(FlagZ); return 4 }
	opcodes[0x1F] = func(c *CPU) int { c.Registers.A = c.rr(c.Registers.A); c.Registers.ClearFlag(FlagZ); return 4 }

	opcodes[0x08] = ldNNSP
	opcodes[0x10] = stop
	opcodes[0x18] = func(c *CPU) int { c.jumpRelative(); return 12 }
	opcodes[0x27] = func(c *CPU) int { c.daa(); return 4 }
	opcodes[0x2F] = cpl
	opcodes[0x37] = scf
	opcodes[0x3F] = ccf
	opcodes[0x76] = halt

	opcodes[0xC3] = func(c *CPU) int { c.Registers.PC = c.fetchWord(); return 16 }
	opcodes[0xC9] = func(c *CPU) int { c.Registers.PC = c.pop(); return 16 }
	opcodes[0xD9] = reti
	opcodes[0xCD] = call
	opcodes[0xE9] = func(c *CPU) int { c.Registers.PC = c.Registers.HL(); return 4 }

	opcodes[0xE0] = func(c *CPU) int { c.Memory.Write(0xFF00|uint16(c.fetchByte()), c.Registers.A); return 12 }
	opcodes[0xF0] = func(c *CPU) int { c.Registers.A = c.Memory.Read(0xFF00 | uint16(c.fetchByte())); return 12 }
	opcodes[0xE2] = func(c *CPU) int { c.Memory.Write(0xFF00|uint16(c.Registers.C), c.Registers.A); return 8 }
	opcodes[0xF2] = func(c *CPU) int { c.Registers.A = c.Memory.Read(0xFF00 | uint16(c.Registers.C)); return 8 }
	opcodes[0xEA] = func(c *CPU) int { c.Memory.Write(c.fetchWord(), c.Registers.A); return 16 }
	opcodes[0xFA] = func(c *CPU) int { c.Registers.A = c.Memory.Read(c.fetchWord()); return 16 }

	opcodes[0xE8] = func(c *CPU) int { c.Registers.SP = c.spOffset(); return 16 }
	opcodes[0xF8] = func(c *CPU) int { c.Registers.SetHL(c.spOffset()); return 12 }
	opcodes[0xF9] = func(c *CPU) int { c.Registers.SP = c.Registers.HL(); return 8 }

	opcodes[0xF3] = di
	opcodes[0xFB] = ei
}

// execute dispatches a non-prefixed opcode.
func (c *CPU) execute(opcode uint8) int {
	if fn := opcodes[opcode]; fn != nil {
		return fn(c)
	}
	logger.Logf("cpu", "unknown opcode 0x%02X at 0x%04X", opcode, c.Registers.PC-1)
	return 4
}

func nop(*CPU) int { return 4 }

// reg reads operand r; regHL reads memory at HL.
func (c *CPU) reg(r uint8) uint8 {
	switch r {
	case regB:
		return c.Registers.B
	case regC:
		return c.Registers.C
	case regD:
		return c.Registers.D
	case regE:
		return c.Registers.E
	case regH:
		return c.Registers.H
	case regL:
		return c.Registers.L
	case regHL:
		return c.Memory.Read(c.Registers.HL())
	default:
		return c.Registers.A
	}
}

func (c *CPU) setReg(r, value uint8) {
	switch r {
	case regB:
		c.Registers.B = value
	case regC:
		c.Registers.C = value
	case regD:
		c.Registers.D = value
	case regE:
		c.Registers.E = value
	case regH:
		c.Registers.H = value
	case regL:
		c.Registers.L = value
	case regHL:
		c.Memory.Write(c.Registers.HL(), value)
	default:
		c.Registers.A = value
	}
}

// rp reads register pair rp in BC, DE, HL, SP order.
func (c *CPU) rp(rp uint8) uint16 {
	switch rp {
	case 0:
		return c.Registers.BC()
	case 1:
		return c.Registers.DE()
	case 2:
		return c.Registers.HL()
	default:
		return c.Registers.SP
	}
}

func (c *CPU) setRP(rp uint8, value uint16) {
	switch rp {
	case 0:
		c.Registers.SetBC(value)
	case 1:
		c.Registers.SetDE(value)
	case 2:
		c.Registers.SetHL(value)
	default:
		c.Registers.SP = value
	}
}

// hlPost returns HL and then moves it by delta.
func (c *CPU) hlPost(delta int) uint16 {
	hl := c.Registers.HL()
	c.Registers.SetHL(hl + uint16(delta)) //nolint:gosec // G115: wraps
	return hl
}

// condition evaluates NZ, Z, NC, C.
func (c *CPU) condition(cc uint8) bool {
	switch cc {
	case 0:
		return !c.Registers.ZeroFlag()
	case 1:
		return c.Registers.ZeroFlag()
	case 2:
		return !c.Registers.CarryFlag()
	default:
		return c.Registers.CarryFlag()
	}
}

func (c *CPU) jumpRelative() {
	e := c.fetchByte()
	c.Registers.PC += uint16(int8(e)) //nolint:gosec // G115: sign extension
}

func ldRR(dst, src uint8) instruction {
	cycles := 4
	if dst == regHL || src == regHL {
		cycles = 8
	}
	return func(c *CPU) int {
		c.setReg(dst, c.reg(src))
		return cycles
	}
}

func ldRN(r uint8) instruction {
	cycles := 8
	if r == regHL {
		cycles = 12
	}
	return func(c *CPU) int {
		c.setReg(r, c.fetchByte())
		return cycles
	}
}

func aluR(op, src uint8) instruction {
	cycles := 4
	if src == regHL {
		cycles = 8
	}
	return func(c *CPU) int {
		c.alu(op, c.reg(src))
		return cycles
	}
}

func aluN(op uint8) instruction {
	return func(c *CPU) int {
		c.alu(op, c.fetchByte())
		return 8
	}
}

func incR(r uint8) instruction {
	cycles := 4
	if r == regHL {
		cycles = 12
	}
	return func(c *CPU) int {
		c.setReg(r, c.inc8(c.reg(r)))
		return cycles
	}
}

func decR(r uint8) instruction {
	cycles := 4
	if r == regHL {
		cycles = 12
	}
	return func(c *CPU) int {
		c.setReg(r, c.dec8(c.reg(r)))
		return cycles
	}
}

func ldRPNN(rp uint8) instruction {
	return func(c *CPU) int {
		c.setRP(rp, c.fetchWord())
		return 12
	}
}

func incRP(rp uint8) instruction {
	return func(c *CPU) int {
		c.setRP(rp, c.rp(rp)+1)
		return 8
	}
}

func decRP(rp uint8) instruction {
	return func(c *CPU) int {
		c.setRP(rp, c.rp(rp)-1)
		return 8
	}
}

func addHLRP(rp uint8) instruction {
	return func(c *CPU) int {
		c.addHL(c.rp(rp))
		return 8
	}
}

// PUSH and POP use AF in place of SP.
func pushRP(rp uint8) instruction {
	return func(c *CPU) int {
		if rp == 3 {
			c.push(c.Registers.AF())
		} else {
			c.push(c.rp(rp))
		}
		return 16
	}
}

func popRP(rp uint8) instruction {
	return func(c *CPU) int {
		if rp == 3 {
			c.Registers.SetAF(c.pop())
		} else {
			c.setRP(rp, c.pop())
		}
		return 12
	}
}

func jrCond(cc uint8) instruction {
	return func(c *CPU) int {
		if !c.condition(cc) {
			c.Registers.PC++
			return 8
		}
		c.jumpRelative()
		return 12
	}
}

func jpCond(cc uint8) instruction {
	return func(c *CPU) int {
		addr := c.fetchWord()
		if !c.condition(cc) {
			return 12
		}
		c.Registers.PC = addr
		return 16
	}
}

func callCond(cc uint8) instruction {
	return func(c *CPU) int {
		addr := c.fetchWord()
		if !c.condition(cc) {
			return 12
		}
		c.push(c.Registers.PC)
		c.Registers.PC = addr
		return 24
	}
}

func retCond(cc uint8) instruction {
	return func(c *CPU) int {
		if !c.condition(cc) {
			return 8
		}
		c.Registers.PC = c.pop()
		return 20
	}
}

func rst(vector uint16) instruction {
	return func(c *CPU) int {
		c.push(c.Registers.PC)
		c.Registers.PC = vector
		return 16
	}
}

func call(c *CPU) int {
	addr := c.fetchWord()
	c.push(c.Registers.PC)
	c.Registers.PC = addr
	return 24
}

func reti(c *CPU) int {
	c.Registers.PC = c.pop()
	c.IME = true
	c.imeDelay = 0
	return 16
}

func ldNNSP(c *CPU) int {
	addr := c.fetchWord()
	hi, lo := split(c.Registers.SP)
	c.Memory.Write(addr, lo)
	c.Memory.Write(addr+1, hi)
	return 20
}

func cpl(c *CPU) int {
	c.Registers.A = ^c.Registers.A
	c.Registers.SetFlag(FlagN | FlagH)
	return 4
}

func scf(c *CPU) int {
	c.Registers.setFlags(c.Registers.ZeroFlag(), false, false, true)
	return 4
}

func ccf(c *CPU) int {
	c.Registers.setFlags(c.Registers.ZeroFlag(), false, false, !c.Registers.CarryFlag())
	return 4
}

func halt(c *CPU) int {
	c.halted = true
	return 4
}

// stop parks the CPU until a joypad interrupt is requested. The second byte
// of the instruction is skipped.
func stop(c *CPU) int {
	c.fetchByte()
	c.stopped = true
	return 4
}

func di(c *CPU) int {
	c.IME = false
	c.imeDelay = 0
	return 4
}

func ei(c *CPU) int {
	if !c.IME && c.imeDelay == 0 {
		c.imeDelay = 2
	}
	return 4
}
