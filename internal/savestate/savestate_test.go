package savestate

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func testSnapshot() *Snapshot {
	s := &Snapshot{}
	s.CPU.Registers.A = 0x12
	s.CPU.Registers.F = 0xB0
	s.CPU.Registers.SP = 0xDFF0
	s.CPU.Registers.PC = 0x4321
	s.CPU.IME = true
	s.CPU.IMEDelay = 1
	s.CPU.Cycles = 1 << 40

	s.Memory.WRAM[0] = 0xAA
	s.Memory.VRAM[0x1FFF] = 0xBB
	s.Memory.HRAM[0x7E] = 0xCC
	s.Memory.OAM[0x9F] = 0xDD
	s.Memory.IO[0x40] = 0x91
	s.Memory.IE = 0x1F
	s.Memory.Cartridge.RAM = bytes.Repeat([]byte{0x5A}, 8192)
	s.Memory.Cartridge.ROMBank = 0x1FF
	s.Memory.Cartridge.RAMBank = 3
	s.Memory.Cartridge.RAMEnabled = true
	s.Memory.Cartridge.RTC.Live = [5]uint8{1, 2, 3, 4, 5}
	s.Memory.Cartridge.RTC.LatchLast = 1

	s.PPU.Mode = 3
	s.PPU.ModeCycles = 100
	s.PPU.Scanline = 77
	s.PPU.FrameReady = true
	s.PPU.Framebuffer[23039] = 3

	s.APU.Registers[0x16] = 0xF1
	s.APU.FrameStep = 5
	s.APU.SampleAccumulator = 12.5
	s.APU.Channels[1].Enabled = true
	s.APU.Channels[1].Timer = -4
	s.APU.Channels[1].Volume = 15

	s.Timer = Timer{DIV: 63, TIMA: 200}
	return s
}

func TestRoundTrip(t *testing.T) {
	want := testSnapshot()

	data, err := Marshal(want)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data[:7]) != Magic || data[7] != Version {
		t.Errorf("header = %q %d", data[:7], data[7])
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("decoded snapshot differs from the original")
	}

	again, err := Marshal(got)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Error("re-encoding changed the stream")
	}
}

func TestDecodeErrors(t *testing.T) {
	data, err := Marshal(testSnapshot())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	badMagic := append([]byte(nil), data...)
	badMagic[0] = 'X'

	badVersion := append([]byte(nil), data...)
	badVersion[7] = 2

	// The RAM length field follows the header, CPU and memory blocks.
	ramLenOffset := 8 + (8 + 4 + 4 + 8) + 0x2000 + 0x2000 + 0x7F + 0xA0 + 0x80 + 1
	hugeRAM := append([]byte(nil), data...)
	hugeRAM[ramLenOffset+3] = 0x10

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"bad magic", badMagic, ErrBadMagic},
		{"bad version", badVersion, ErrUnsupportedVersion},
		{"header only", data[:8], ErrTruncated},
		{"cut in memory", data[:5000], ErrTruncated},
		{"cut in cartridge RAM", data[:ramLenOffset+100], ErrTruncated},
		{"missing timer", data[:len(data)-4], ErrTruncated},
		{"trailing byte", append(append([]byte(nil), data...), 0), ErrTrailingData},
		{"huge RAM length", hugeRAM, ErrCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Unmarshal(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Unmarshal() error = %v, want %v", err, tt.want)
			}
			if s != nil {
				t.Error("Unmarshal() returned a snapshot on error")
			}
		})
	}
}

func TestRAMLengthField(t *testing.T) {
	s := testSnapshot()
	s.Memory.Cartridge.RAM = []byte{1, 2, 3}

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	full, err := Marshal(testSnapshot())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if len(full)-len(data) != 8192-3 {
		t.Errorf("length difference = %d, want %d", len(full)-len(data), 8192-3)
	}
}
