package cartridge

import (
	"errors"
	"fmt"

	"github.com/richardwooding/dotmatrix/internal/logger"
)

// Cartridge is a ROM image behind one of the supported bank controllers.
//
// ROM addresses are absolute (0x0000-0x7FFF). RAM addresses are offsets into
// the 0xA000-0xBFFF window (0x0000-0x1FFF).
type Cartridge interface {
	// ReadROM reads from the fixed or switchable ROM bank.
	ReadROM(addr uint16) uint8

	// WriteROM drives the controller registers mapped over ROM.
	WriteROM(addr uint16, value uint8)

	// ReadRAM returns 0xFF when RAM is disabled or absent.
	ReadRAM(addr uint16) uint8

	// WriteRAM is ignored when RAM is disabled or absent.
	WriteRAM(addr uint16, value uint8)

	Header() *Header

	// HasBattery reports whether GetRAM should be persisted.
	HasBattery() bool

	// GetRAM returns a copy of external RAM for battery saves.
	GetRAM() []byte

	// SetRAM loads a battery save, truncating to the RAM size.
	SetRAM(data []byte) error

	// State captures RAM contents and controller registers.
	State() State

	// SetState restores a snapshot taken from a cartridge of the same shape.
	// It fails without side effects when the RAM size differs.
	SetState(s State) error
}

// State is a detached copy of everything a controller can change.
type State struct {
	RAM        []byte
	ROMBank    uint16
	RAMBank    uint8
	RAMEnabled bool

	// BankingMode is the MBC1 mode select; true selects RAM banking.
	BankingMode bool

	RTC RTCState
}

// RTCState holds the MBC3 clock registers in S, M, H, DL, DH order.
type RTCState struct {
	Live      [5]uint8
	Latched   [5]uint8
	LatchLast uint8
}

// ErrROMTooLarge indicates the ROM size exceeds the maximum allowed size.
var ErrROMTooLarge = errors.New("ROM size exceeds maximum allowed size of 8 MiB")

// ErrStateMismatch indicates a snapshot does not fit this cartridge.
var ErrStateMismatch = errors.New("state does not match cartridge")

const maxROMSize = 8 * 1024 * 1024

// New creates a cartridge from a ROM image, picking the controller from the
// header. Unknown controllers fall back to ROM-only behaviour and unknown RAM
// size codes to DefaultRAMSize; both are logged.
func New(rom []byte) (Cartridge, error) {
	if len(rom) > maxROMSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrROMTooLarge, len(rom))
	}

	header, err := ParseHeader(rom)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if expected := header.GetROMSizeBytes(); len(rom) != expected {
		logger.Logf("cartridge", "header declares %d bytes of ROM, image has %d", expected, len(rom))
	}

	if !header.VerifyHeaderChecksum(rom) {
		logger.Logf("cartridge", "header checksum mismatch (0x%02X)", header.HeaderChecksum)
	}

	ramSize, ok := header.GetRAMSizeBytes()
	if !ok {
		logger.Logf("cartridge", "unknown RAM size code 0x%02X, assuming %d KiB",
			header.RAMSize, ramSize/1024)
	}

	b := newBanks(rom, header, ramSize)

	switch cartType := CartridgeType(header.CartridgeType); cartType {
	case TypeROMOnly, TypeROMRAM, TypeROMRAMBattery:
		return &ROMOnly{banks: b}, nil

	case TypeMBC1, TypeMBC1RAM, TypeMBC1RAMBattery:
		return &MBC1{banks: b}, nil

	case TypeMBC2, TypeMBC2Battery:
		return newMBC2(b), nil

	case TypeMBC3, TypeMBC3RAM, TypeMBC3RAMBattery, TypeMBC3TimerBattery, TypeMBC3TimerRAMBattery:
		return newMBC3(b), nil

	case TypeMBC5, TypeMBC5RAM, TypeMBC5RAMBattery, TypeMBC5Rumble, TypeMBC5RumbleRAM, TypeMBC5RumbleRAMBattery:
		return &MBC5{banks: b}, nil

	default:
		logger.Logf("cartridge", "unsupported controller %s, running as ROM only", cartType)
		return &ROMOnly{banks: b}, nil
	}
}

// banks holds the storage and the registers every controller shares.
type banks struct {
	header *Header
	rom    []byte
	ram    []byte

	romBank     uint16
	ramBank     uint8
	ramEnabled  bool
	bankingMode bool
}

func newBanks(rom []byte, header *Header, ramSize int) banks {
	b := banks{
		header:  header,
		rom:     rom,
		romBank: 1,
	}
	if ramSize > 0 {
		b.ram = make([]byte, ramSize)
	}
	return b
}

// readBank reads offset addr&0x3FFF of a 16 KiB ROM bank. Reads past the end
// of the image return 0xFF.
func (b *banks) readBank(bank int, addr uint16) uint8 {
	offset := bank*0x4000 + int(addr&0x3FFF)
	if offset < len(b.rom) {
		return b.rom[offset]
	}
	return 0xFF
}

// ramOffset maps a window offset into the selected 8 KiB RAM bank, or -1.
func (b *banks) ramOffset(addr uint16) int {
	offset := int(b.ramBank)*0x2000 + int(addr&0x1FFF)
	if offset < len(b.ram) {
		return offset
	}
	return -1
}

func (b *banks) readRAM(addr uint16) uint8 {
	if !b.ramEnabled || b.ram == nil {
		return 0xFF
	}
	if off := b.ramOffset(addr); off >= 0 {
		return b.ram[off]
	}
	return 0xFF
}

func (b *banks) writeRAM(addr uint16, value uint8) {
	if !b.ramEnabled || b.ram == nil {
		return
	}
	if off := b.ramOffset(addr); off >= 0 {
		b.ram[off] = value
	}
}

func (b *banks) Header() *Header {
	return b.header
}

func (b *banks) HasBattery() bool {
	return CartridgeType(b.header.CartridgeType).HasBattery()
}

func (b *banks) GetRAM() []byte {
	if b.ram == nil {
		return nil
	}
	out := make([]byte, len(b.ram))
	copy(out, b.ram)
	return out
}

func (b *banks) SetRAM(data []byte) error {
	if b.ram == nil {
		return nil
	}
	copy(b.ram, data)
	return nil
}

func (b *banks) State() State {
	return State{
		RAM:         b.GetRAM(),
		ROMBank:     b.romBank,
		RAMBank:     b.ramBank,
		RAMEnabled:  b.ramEnabled,
		BankingMode: b.bankingMode,
	}
}

func (b *banks) SetState(s State) error {
	if len(s.RAM) != len(b.ram) {
		return fmt.Errorf("%w: RAM is %d bytes, snapshot has %d", ErrStateMismatch, len(b.ram), len(s.RAM))
	}
	copy(b.ram, s.RAM)
	b.romBank = s.ROMBank
	b.ramBank = s.RAMBank
	b.ramEnabled = s.RAMEnabled
	b.bankingMode = s.BankingMode
	return nil
}
