// Package cartridge implements cartridge loading and the memory bank
// controllers (MBCs) that map a large ROM and RAM into the CPU's address
// space.
package cartridge

import (
	"errors"
	"fmt"
)

// Header is the cartridge header found at 0x0100-0x014F.
type Header struct {
	EntryPoint   [4]byte
	NintendoLogo [48]byte

	// Title is padded with NULs. On later cartridges the last bytes overlap
	// the manufacturer code and the CGB flag.
	Title            [16]byte
	ManufacturerCode [4]byte
	CGBFlag          byte
	NewLicenseeCode  [2]byte
	SGBFlag          byte

	// CartridgeType selects the bank controller (0x0147).
	CartridgeType byte

	// ROMSize encodes 32 KiB << n (0x0148).
	ROMSize byte

	// RAMSize is the external RAM size code (0x0149).
	RAMSize byte

	DestinationCode byte
	OldLicenseeCode byte
	MaskROMVersion  byte
	HeaderChecksum  byte
	GlobalChecksum  [2]byte
}

// CartridgeType is the controller byte at 0x0147.
//
//nolint:revive // CartridgeType reads better than Type at call sites
type CartridgeType byte

// Controller bytes recognised in the header.
const (
	TypeROMOnly              CartridgeType = 0x00
	TypeMBC1                 CartridgeType = 0x01
	TypeMBC1RAM              CartridgeType = 0x02
	TypeMBC1RAMBattery       CartridgeType = 0x03
	TypeMBC2                 CartridgeType = 0x05
	TypeMBC2Battery          CartridgeType = 0x06
	TypeROMRAM               CartridgeType = 0x08
	TypeROMRAMBattery        CartridgeType = 0x09
	TypeMBC3TimerBattery     CartridgeType = 0x0F
	TypeMBC3TimerRAMBattery  CartridgeType = 0x10
	TypeMBC3                 CartridgeType = 0x11
	TypeMBC3RAM              CartridgeType = 0x12
	TypeMBC3RAMBattery       CartridgeType = 0x13
	TypeMBC5                 CartridgeType = 0x19
	TypeMBC5RAM              CartridgeType = 0x1A
	TypeMBC5RAMBattery       CartridgeType = 0x1B
	TypeMBC5Rumble           CartridgeType = 0x1C
	TypeMBC5RumbleRAM        CartridgeType = 0x1D
	TypeMBC5RumbleRAMBattery CartridgeType = 0x1E
)

var typeNames = map[CartridgeType]string{
	TypeROMOnly:              "ROM ONLY",
	TypeMBC1:                 "MBC1",
	TypeMBC1RAM:              "MBC1+RAM",
	TypeMBC1RAMBattery:       "MBC1+RAM+BATTERY",
	TypeMBC2:                 "MBC2",
	TypeMBC2Battery:          "MBC2+BATTERY",
	TypeROMRAM:               "ROM+RAM",
	TypeROMRAMBattery:        "ROM+RAM+BATTERY",
	TypeMBC3TimerBattery:     "MBC3+TIMER+BATTERY",
	TypeMBC3TimerRAMBattery:  "MBC3+TIMER+RAM+BATTERY",
	TypeMBC3:                 "MBC3",
	TypeMBC3RAM:              "MBC3+RAM",
	TypeMBC3RAMBattery:       "MBC3+RAM+BATTERY",
	TypeMBC5:                 "MBC5",
	TypeMBC5RAM:              "MBC5+RAM",
	TypeMBC5RAMBattery:       "MBC5+RAM+BATTERY",
	TypeMBC5Rumble:           "MBC5+RUMBLE",
	TypeMBC5RumbleRAM:        "MBC5+RUMBLE+RAM",
	TypeMBC5RumbleRAMBattery: "MBC5+RUMBLE+RAM+BATTERY",
}

// String returns the conventional name of the controller.
func (t CartridgeType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN (0x%02X)", byte(t))
}

// Known reports whether a controller for t is implemented.
func (t CartridgeType) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// HasBattery reports whether the external RAM survives power off.
func (t CartridgeType) HasBattery() bool {
	switch t {
	case TypeMBC1RAMBattery, TypeMBC2Battery, TypeROMRAMBattery,
		TypeMBC3TimerBattery, TypeMBC3TimerRAMBattery, TypeMBC3RAMBattery,
		TypeMBC5RAMBattery, TypeMBC5RumbleRAMBattery:
		return true
	default:
		return false
	}
}

// HasTimer reports whether the controller carries a real-time clock.
func (t CartridgeType) HasTimer() bool {
	return t == TypeMBC3TimerBattery || t == TypeMBC3TimerRAMBattery
}

// GetROMBanks returns the number of 16 KiB ROM banks, or 0 for an invalid code.
func (h *Header) GetROMBanks() int {
	if h.ROMSize <= 0x08 {
		return 2 << h.ROMSize
	}
	return 0
}

// GetROMSizeBytes returns the ROM size the header claims.
func (h *Header) GetROMSizeBytes() int {
	return h.GetROMBanks() * 0x4000
}

// DefaultRAMSize is assumed when the RAM size code is not recognised.
const DefaultRAMSize = 32 * 1024

// GetRAMSizeBytes returns the external RAM size for the RAM size code. The
// second result is false when the code is unknown and DefaultRAMSize was
// substituted.
func (h *Header) GetRAMSizeBytes() (int, bool) {
	switch h.RAMSize {
	case 0x00:
		return 0, true
	case 0x01:
		return 2 * 1024, true
	case 0x02:
		return 8 * 1024, true
	case 0x03:
		return 32 * 1024, true
	case 0x04:
		return 128 * 1024, true
	case 0x05:
		return 64 * 1024, true
	default:
		return DefaultRAMSize, false
	}
}

// GetTitle returns the title up to the first NUL.
func (h *Header) GetTitle() string {
	end := len(h.Title)
	for i, b := range h.Title {
		if b == 0 {
			end = i
			break
		}
	}
	return string(h.Title[:end])
}

// MinROMSize is the smallest image that still contains a full header.
const MinROMSize = 0x0150

// ErrInvalidROMSize indicates the ROM data is too small to contain a header.
var ErrInvalidROMSize = errors.New("ROM too small: must be at least 336 bytes (0x0150)")

// ParseHeader decodes the header from rom. The header checksum is not
// enforced here; see VerifyHeaderChecksum.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < MinROMSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidROMSize, len(rom))
	}

	h := &Header{}
	copy(h.EntryPoint[:], rom[0x0100:0x0104])
	copy(h.NintendoLogo[:], rom[0x0104:0x0134])
	copy(h.Title[:], rom[0x0134:0x0144])
	copy(h.ManufacturerCode[:], rom[0x013F:0x0143])
	h.CGBFlag = rom[0x0143]
	copy(h.NewLicenseeCode[:], rom[0x0144:0x0146])
	h.SGBFlag = rom[0x0146]
	h.CartridgeType = rom[0x0147]
	h.ROMSize = rom[0x0148]
	h.RAMSize = rom[0x0149]
	h.DestinationCode = rom[0x014A]
	h.OldLicenseeCode = rom[0x014B]
	h.MaskROMVersion = rom[0x014C]
	h.HeaderChecksum = rom[0x014D]
	copy(h.GlobalChecksum[:], rom[0x014E:0x0150])

	return h, nil
}

// VerifyHeaderChecksum checks the byte at 0x014D against 0x0134-0x014C.
// The boot ROM refuses to start a cartridge that fails this check.
func (h *Header) VerifyHeaderChecksum(rom []byte) bool {
	checksum := byte(0)
	for addr := 0x0134; addr <= 0x014C; addr++ {
		checksum = checksum - rom[addr] - 1
	}
	return checksum == h.HeaderChecksum
}

// VerifyGlobalChecksum checks the big-endian sum of every ROM byte except the
// checksum itself. Hardware never checks it and many releases get it wrong.
func (h *Header) VerifyGlobalChecksum(rom []byte) bool {
	sum := uint16(0)
	for i, b := range rom {
		if i == 0x014E || i == 0x014F {
			continue
		}
		sum += uint16(b)
	}
	return sum == uint16(h.GlobalChecksum[0])<<8|uint16(h.GlobalChecksum[1])
}
