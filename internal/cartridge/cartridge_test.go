package cartridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/richardwooding/dotmatrix/internal/logger"
)

// buildROM returns a ROM image of the given size with a valid header.
// Each 16 KiB bank starts with its own bank number.
func buildROM(size int, cartType, romSize, ramSize byte) []byte {
	rom := make([]byte, size)
	for bank := 0; bank*0x4000 < size; bank++ {
		rom[bank*0x4000] = byte(bank)
		if bank*0x4000+1 < size {
			rom[bank*0x4000+1] = byte(bank >> 8)
		}
	}
	copy(rom[0x0134:], "TEST")
	rom[0x0147] = cartType
	rom[0x0148] = romSize
	rom[0x0149] = ramSize

	checksum := byte(0)
	for addr := 0x0134; addr <= 0x014C; addr++ {
		checksum = checksum - rom[addr] - 1
	}
	rom[0x014D] = checksum
	return rom
}

func mustNew(t *testing.T, rom []byte) Cartridge {
	t.Helper()
	cart, err := New(rom)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return cart
}

func TestNewSelectsController(t *testing.T) {
	tests := []struct {
		cartType byte
		want     string
	}{
		{0x00, "*cartridge.ROMOnly"},
		{0x08, "*cartridge.ROMOnly"},
		{0x01, "*cartridge.MBC1"},
		{0x03, "*cartridge.MBC1"},
		{0x05, "*cartridge.MBC2"},
		{0x06, "*cartridge.MBC2"},
		{0x0F, "*cartridge.MBC3"},
		{0x13, "*cartridge.MBC3"},
		{0x19, "*cartridge.MBC5"},
		{0x1E, "*cartridge.MBC5"},
	}

	for _, tt := range tests {
		cart := mustNew(t, buildROM(0x8000, tt.cartType, 0x00, 0x00))
		if got := fmt.Sprintf("%T", cart); got != tt.want {
			t.Errorf("type 0x%02X: got %s, want %s", tt.cartType, got, tt.want)
		}
	}
}

func TestNewUnknownControllerFallsBack(t *testing.T) {
	logger.Clear()
	cart := mustNew(t, buildROM(0x8000, 0xFC, 0x00, 0x00))

	if _, ok := cart.(*ROMOnly); !ok {
		t.Fatalf("New() = %T, want *ROMOnly", cart)
	}
	if len(logger.Entries()) == 0 {
		t.Error("expected a log entry for the unknown controller")
	}
}

func TestNewUnknownRAMSizeDefaults(t *testing.T) {
	cart := mustNew(t, buildROM(0x8000, 0x02, 0x00, 0x07))

	if got := len(cart.GetRAM()); got != DefaultRAMSize {
		t.Errorf("RAM size = %d, want %d", got, DefaultRAMSize)
	}
}

func TestNewTooSmallROM(t *testing.T) {
	_, err := New(make([]byte, 0x100))
	if !errors.Is(err, ErrInvalidROMSize) {
		t.Errorf("New() error = %v, want ErrInvalidROMSize", err)
	}
}

func TestNewROMTooLarge(t *testing.T) {
	_, err := New(make([]byte, maxROMSize+1))
	if !errors.Is(err, ErrROMTooLarge) {
		t.Errorf("New() error = %v, want ErrROMTooLarge", err)
	}
}

func TestNewShortROMLoads(t *testing.T) {
	logger.Clear()

	// A bare header on an MBC1 that claims 64 KiB.
	rom := buildROM(MinROMSize, 0x01, 0x01, 0x00)
	rom[0x0100] = 0x00
	rom[0x0101] = 0xC3

	cart := mustNew(t, rom)
	if len(logger.Entries()) == 0 {
		t.Error("expected a log entry for the size mismatch")
	}

	if got := cart.ReadROM(0x0101); got != 0xC3 {
		t.Errorf("ReadROM(0x0101) = 0x%02X, want 0xC3", got)
	}
	for _, addr := range []uint16{0x0150, 0x3FFF, 0x4000, 0x7FFF} {
		if got := cart.ReadROM(addr); got != 0xFF {
			t.Errorf("ReadROM(0x%04X) past the image = 0x%02X, want 0xFF", addr, got)
		}
	}

	cart.WriteROM(0x2000, 0x03)
	if got := cart.ReadROM(0x4000); got != 0xFF {
		t.Errorf("ReadROM(0x4000) in bank 3 = 0x%02X, want 0xFF", got)
	}
}

func TestNewBadChecksumIsNotFatal(t *testing.T) {
	rom := buildROM(0x8000, 0x00, 0x00, 0x00)
	rom[0x014D]++

	if _, err := New(rom); err != nil {
		t.Errorf("New() error = %v, want nil", err)
	}
}

func TestSetStateRejectsRAMSizeMismatch(t *testing.T) {
	cart := mustNew(t, buildROM(0x8000, 0x03, 0x00, 0x02))
	cart.WriteROM(0x0000, 0x0A)
	cart.WriteRAM(0x0000, 0x42)

	err := cart.SetState(State{RAM: make([]byte, 16), ROMBank: 3})
	if !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("SetState() error = %v, want ErrStateMismatch", err)
	}
	if got := cart.ReadRAM(0x0000); got != 0x42 {
		t.Errorf("RAM changed after failed SetState: 0x%02X", got)
	}
}

func TestGetSetRAM(t *testing.T) {
	cart := mustNew(t, buildROM(0x8000, 0x03, 0x00, 0x02))

	save := make([]byte, 8*1024)
	save[0] = 0x12
	save[0x1FFF] = 0x34
	if err := cart.SetRAM(save); err != nil {
		t.Fatalf("SetRAM() error = %v", err)
	}

	cart.WriteROM(0x0000, 0x0A)
	if got := cart.ReadRAM(0x0000); got != 0x12 {
		t.Errorf("ReadRAM(0x0000) = 0x%02X, want 0x12", got)
	}
	if got := cart.ReadRAM(0x1FFF); got != 0x34 {
		t.Errorf("ReadRAM(0x1FFF) = 0x%02X, want 0x34", got)
	}

	ram := cart.GetRAM()
	ram[0] = 0xFF
	if got := cart.ReadRAM(0x0000); got != 0x12 {
		t.Error("GetRAM() must return a copy")
	}
}
