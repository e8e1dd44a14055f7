package cartridge

import "testing"

func TestROMOnlyRead(t *testing.T) {
	rom := buildROM(0x8000, 0x00, 0x00, 0x00)
	rom[0x7FFF] = 0xAB
	cart := mustNew(t, rom)

	if got := cart.ReadROM(0x4000); got != 0x01 {
		t.Errorf("ReadROM(0x4000) = 0x%02X, want 0x01", got)
	}
	if got := cart.ReadROM(0x7FFF); got != 0xAB {
		t.Errorf("ReadROM(0x7FFF) = 0x%02X, want 0xAB", got)
	}

	cart.WriteROM(0x2000, 0x05)
	if got := cart.ReadROM(0x4000); got != 0x01 {
		t.Errorf("ReadROM(0x4000) after write = 0x%02X, want 0x01", got)
	}
}

func TestROMOnlyRAM(t *testing.T) {
	tests := []struct {
		name    string
		ramSize byte
		want    uint8
	}{
		{"no RAM", 0x00, 0xFF},
		{"8 KiB RAM", 0x02, 0x5A},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := mustNew(t, buildROM(0x8000, 0x08, 0x00, tt.ramSize))
			cart.WriteRAM(0x0100, 0x5A)
			if got := cart.ReadRAM(0x0100); got != tt.want {
				t.Errorf("ReadRAM(0x0100) = 0x%02X, want 0x%02X", got, tt.want)
			}
		})
	}
}

func TestROMOnlyHasBattery(t *testing.T) {
	if mustNew(t, buildROM(0x8000, 0x08, 0x00, 0x02)).HasBattery() {
		t.Error("ROM+RAM should not have a battery")
	}
	if !mustNew(t, buildROM(0x8000, 0x09, 0x00, 0x02)).HasBattery() {
		t.Error("ROM+RAM+BATTERY should have a battery")
	}
}
