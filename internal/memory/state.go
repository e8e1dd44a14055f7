package memory

import (
	"fmt"

	"github.com/richardwooding/dotmatrix/internal/cartridge"
)

// State is a detached copy of the bus memory and the cartridge.
type State struct {
	WRAM [0x2000]uint8
	VRAM [0x2000]uint8
	HRAM [0x7F]uint8
	OAM  [0xA0]uint8
	IO   [0x80]uint8
	IE   uint8

	Cartridge cartridge.State
}

// State captures the bus. The timer, APU and joypad keep their own state.
func (b *Bus) State() State {
	s := State{
		WRAM: b.wram,
		VRAM: b.vram,
		HRAM: b.hram,
		OAM:  b.oam,
		IO:   b.io,
		IE:   b.ie,
	}
	if b.cartridge != nil {
		s.Cartridge = b.cartridge.State()
	}
	return s
}

// SetState restores a snapshot. The cartridge is restored first; when it
// rejects the snapshot nothing on the bus changes.
func (b *Bus) SetState(s State) error {
	if b.cartridge != nil {
		if err := b.cartridge.SetState(s.Cartridge); err != nil {
			return fmt.Errorf("restoring bus: %w", err)
		}
	}

	b.wram = s.WRAM
	b.vram = s.VRAM
	b.hram = s.HRAM
	b.oam = s.OAM
	b.io = s.IO
	b.ie = s.IE
	b.joypad.Write(s.IO[AddrP1-0xFF00])
	return nil
}
