package cpu

// Flag bits in F. The low nibble of F is always zero.
const (
	FlagZ uint8 = 0b10000000 // Zero
	FlagN uint8 = 0b01000000 // Subtract
	FlagH uint8 = 0b00100000 // Half-carry
	FlagC uint8 = 0b00010000 // Carry
)

// Registers is the flat register file. 16-bit pairs are views built by the
// accessor methods, never aliased storage.
type Registers struct {
	A  uint8
	F  uint8
	B  uint8
	C  uint8
	D  uint8
	E  uint8
	H  uint8
	L  uint8
	SP uint16
	PC uint16
}

// NewRegisters returns the register file as the boot ROM leaves it.
func NewRegisters() *Registers {
	return &Registers{
		A:  0x01,
		F:  0xB0,
		C:  0x13,
		E:  0xD8,
		H:  0x01,
		L:  0x4D,
		SP: 0xFFFE,
		PC: 0x0100,
	}
}

func pair(hi, lo uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

func split(value uint16) (hi, lo uint8) {
	return uint8(value >> 8), uint8(value) //nolint:gosec // G115: byte extraction
}

// AF returns the AF pair.
func (r *Registers) AF() uint16 { return pair(r.A, r.F) }

// BC returns the BC pair.
func (r *Registers) BC() uint16 { return pair(r.B, r.C) }

// DE returns the DE pair.
func (r *Registers) DE() uint16 { return pair(r.D, r.E) }

// HL returns the HL pair.
func (r *Registers) HL() uint16 { return pair(r.H, r.L) }

// SetAF sets A and F, dropping the low nibble of F.
func (r *Registers) SetAF(value uint16) {
	r.A, r.F = split(value)
	r.F &= 0xF0
}

// SetBC sets the BC pair.
func (r *Registers) SetBC(value uint16) { r.B, r.C = split(value) }

// SetDE sets the DE pair.
func (r *Registers) SetDE(value uint16) { r.D, r.E = split(value) }

// SetHL sets the HL pair.
func (r *Registers) SetHL(value uint16) { r.H, r.L = split(value) }

// GetFlag reports whether flag is set.
func (r *Registers) GetFlag(flag uint8) bool {
	return r.F&flag != 0
}

// SetFlag sets flag.
func (r *Registers) SetFlag(flag uint8) {
	r.F |= flag
}

// ClearFlag clears flag.
func (r *Registers) ClearFlag(flag uint8) {
	r.F &^= flag
}

// SetFlagTo sets or clears flag.
func (r *Registers) SetFlagTo(flag uint8, value bool) {
	if value {
		r.SetFlag(flag)
	} else {
		r.ClearFlag(flag)
	}
}

// setFlags replaces all four flags at once.
func (r *Registers) setFlags(z, n, h, c bool) {
	var f uint8
	if z {
		f |= FlagZ
	}
	if n {
		f |= FlagN
	}
	if h {
		f |= FlagH
	}
	if c {
		f |= FlagC
	}
	r.F = f
}

// ZeroFlag returns the Zero flag state.
func (r *Registers) ZeroFlag() bool { return r.GetFlag(FlagZ) }

// SubtractFlag returns the Subtract flag state.
func (r *Registers) SubtractFlag() bool { return r.GetFlag(FlagN) }

// HalfCarryFlag returns the Half-carry flag state.
func (r *Registers) HalfCarryFlag() bool { return r.GetFlag(FlagH) }

// CarryFlag returns the Carry flag state.
func (r *Registers) CarryFlag() bool { return r.GetFlag(FlagC) }

func (r *Registers) carryBit() uint8 {
	if r.CarryFlag() {
		return 1
	}
	return 0
}
