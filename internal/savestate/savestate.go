// Package savestate serializes a complete machine snapshot.
//
// The stream is little-endian: a seven byte magic, a version byte, then the
// CPU, bus memory, cartridge, PPU, APU and timer blocks in that order. Only
// the cartridge block has a variable length (its RAM). Decode reads the
// whole stream before returning, so a bad stream never yields a partial
// snapshot.
package savestate

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/richardwooding/dotmatrix/internal/apu"
	"github.com/richardwooding/dotmatrix/internal/cartridge"
	"github.com/richardwooding/dotmatrix/internal/cpu"
	"github.com/richardwooding/dotmatrix/internal/memory"
	"github.com/richardwooding/dotmatrix/internal/ppu"
)

// Magic opens every state stream.
const Magic = "GBSTATE"

// Version is the only format version this package reads and writes.
const Version = 1

// maxCartridgeRAM bounds the RAM length field; no controller has more.
const maxCartridgeRAM = 128 * 1024

var (
	// ErrBadMagic indicates the stream is not a save state.
	ErrBadMagic = errors.New("not a save state")

	// ErrUnsupportedVersion indicates a save state from another format version.
	ErrUnsupportedVersion = errors.New("unsupported save state version")

	// ErrTruncated indicates the stream ended early.
	ErrTruncated = errors.New("save state truncated")

	// ErrTrailingData indicates bytes after the last block.
	ErrTrailingData = errors.New("unexpected data after save state")

	// ErrCorrupt indicates a field holds an impossible value.
	ErrCorrupt = errors.New("corrupt save state")
)

// Timer holds the two timer accumulators.
type Timer struct {
	DIV  uint32
	TIMA uint32
}

// Snapshot is everything needed to resume emulation.
type Snapshot struct {
	CPU    cpu.State
	Memory memory.State
	PPU    ppu.State
	APU    apu.State
	Timer  Timer
}

// memoryBlock is the fixed-size part of memory.State.
type memoryBlock struct {
	WRAM [0x2000]uint8
	VRAM [0x2000]uint8
	HRAM [0x7F]uint8
	OAM  [0xA0]uint8
	IO   [0x80]uint8
	IE   uint8
}

// cartridgeBlock is cartridge.State after its RAM.
type cartridgeBlock struct {
	ROMBank     uint16
	RAMBank     uint8
	RAMEnabled  bool
	BankingMode bool
	RTC         cartridge.RTCState
}

type header struct {
	Magic   [len(Magic)]byte
	Version uint8
}

// Encode writes s to w.
func Encode(w io.Writer, s *Snapshot) error {
	bw := bufio.NewWriter(w)

	h := header{Version: Version}
	copy(h.Magic[:], Magic)

	m := &s.Memory
	cart := &m.Cartridge
	blocks := []any{
		h,
		s.CPU,
		memoryBlock{WRAM: m.WRAM, VRAM: m.VRAM, HRAM: m.HRAM, OAM: m.OAM, IO: m.IO, IE: m.IE},
		uint32(len(cart.RAM)), //nolint:gosec // G115: bounded by maxCartridgeRAM
		cart.RAM,
		cartridgeBlock{
			ROMBank:     cart.ROMBank,
			RAMBank:     cart.RAMBank,
			RAMEnabled:  cart.RAMEnabled,
			BankingMode: cart.BankingMode,
			RTC:         cart.RTC,
		},
		s.PPU,
		s.APU,
		s.Timer,
	}
	for _, block := range blocks {
		if err := binary.Write(bw, binary.LittleEndian, block); err != nil {
			return fmt.Errorf("encoding save state: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encoding save state: %w", err)
	}
	return nil
}

// Marshal returns the encoded form of s.
func Marshal(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a snapshot from r. r must hold exactly one state.
func Decode(r io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(r)

	var h header
	if err := read(br, &h); err != nil {
		return nil, err
	}
	if string(h.Magic[:]) != Magic {
		return nil, ErrBadMagic
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}

	s := &Snapshot{}
	if err := read(br, &s.CPU); err != nil {
		return nil, err
	}

	var m memoryBlock
	if err := read(br, &m); err != nil {
		return nil, err
	}
	s.Memory = memory.State{WRAM: m.WRAM, VRAM: m.VRAM, HRAM: m.HRAM, OAM: m.OAM, IO: m.IO, IE: m.IE}

	var ramLen uint32
	if err := read(br, &ramLen); err != nil {
		return nil, err
	}
	if ramLen > maxCartridgeRAM {
		return nil, fmt.Errorf("%w: cartridge RAM length %d", ErrCorrupt, ramLen)
	}
	ram := make([]byte, ramLen)
	if err := read(br, ram); err != nil {
		return nil, err
	}

	var c cartridgeBlock
	if err := read(br, &c); err != nil {
		return nil, err
	}
	s.Memory.Cartridge = cartridge.State{
		RAM:         ram,
		ROMBank:     c.ROMBank,
		RAMBank:     c.RAMBank,
		RAMEnabled:  c.RAMEnabled,
		BankingMode: c.BankingMode,
		RTC:         c.RTC,
	}

	for _, block := range []any{&s.PPU, &s.APU, &s.Timer} {
		if err := read(br, block); err != nil {
			return nil, err
		}
	}

	if _, err := br.ReadByte(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("decoding save state: %w", err)
		}
		return nil, ErrTrailingData
	}
	return s, nil
}

// Unmarshal decodes a snapshot from data.
func Unmarshal(data []byte) (*Snapshot, error) {
	return Decode(bytes.NewReader(data))
}

func read(r io.Reader, v any) error {
	err := binary.Read(r, binary.LittleEndian, v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ErrTruncated
	default:
		return fmt.Errorf("decoding save state: %w", err)
	}
}
