package emulator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/richardwooding/dotmatrix/internal/logger"
	"github.com/richardwooding/dotmatrix/internal/savestate"
)

// ErrNoBattery indicates the cartridge has no battery-backed RAM.
var ErrNoBattery = errors.New("cartridge has no battery")

// Snapshot captures the whole machine.
func (e *Emulator) Snapshot() *savestate.Snapshot {
	div, tima := e.Memory.Timer().State()
	return &savestate.Snapshot{
		CPU:    e.CPU.State(),
		Memory: e.Memory.State(),
		PPU:    e.PPU.State(),
		APU:    e.Memory.APU().State(),
		Timer: savestate.Timer{
			DIV:  uint32(div),  //nolint:gosec // G115: below the DIV period
			TIMA: uint32(tima), //nolint:gosec // G115: below the TIMA period
		},
	}
}

// Restore applies a snapshot. The cartridge is checked first; if it rejects
// the snapshot the machine is left untouched.
func (e *Emulator) Restore(s *savestate.Snapshot) error {
	if err := e.Memory.SetState(s.Memory); err != nil {
		return err
	}
	e.CPU.SetState(s.CPU)
	e.PPU.SetState(s.PPU)
	e.Memory.APU().SetState(s.APU)
	e.Memory.Timer().SetState(int(s.Timer.DIV), int(s.Timer.TIMA))
	return nil
}

// SaveState writes a save state to w.
func (e *Emulator) SaveState(w io.Writer) error {
	return savestate.Encode(w, e.Snapshot())
}

// LoadState reads a save state from r. On any error the running machine is
// unchanged.
func (e *Emulator) LoadState(r io.Reader) error {
	s, err := savestate.Decode(r)
	if err != nil {
		return err
	}
	return e.Restore(s)
}

// SaveStateFile writes a save state to path.
func (e *Emulator) SaveStateFile(path string) error {
	data, err := savestate.Marshal(e.Snapshot())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		logger.Logf("savestate", "save to %s failed: %v", path, err)
		return fmt.Errorf("writing save state: %w", err)
	}
	logger.Logf("savestate", "saved %s", path)
	return nil
}

// LoadStateFile loads the save state at path.
func (e *Emulator) LoadStateFile(path string) error {
	// #nosec G304 - path comes from the command line
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Logf("savestate", "load from %s failed: %v", path, err)
		return fmt.Errorf("reading save state: %w", err)
	}

	s, err := savestate.Unmarshal(data)
	if err == nil {
		err = e.Restore(s)
	}
	if err != nil {
		logger.Logf("savestate", "load from %s failed: %v", path, err)
		return err
	}
	logger.Logf("savestate", "loaded %s", path)
	return nil
}

// BatteryPath returns the .sav file that goes with romPath.
func BatteryPath(romPath string) string {
	return strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
}

// LoadBattery loads cartridge RAM from path. A missing file is not an error.
func (e *Emulator) LoadBattery(path string) error {
	cart := e.Cartridge()
	if cart == nil || !cart.HasBattery() {
		return ErrNoBattery
	}

	// #nosec G304 - path is derived from the ROM path
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading battery save: %w", err)
	}

	if err := cart.SetRAM(data); err != nil {
		return fmt.Errorf("restoring battery save: %w", err)
	}
	logger.Logf("emulator", "loaded %d bytes of battery RAM from %s", len(data), path)
	return nil
}

// SaveBattery writes cartridge RAM to path.
func (e *Emulator) SaveBattery(path string) error {
	cart := e.Cartridge()
	if cart == nil || !cart.HasBattery() {
		return ErrNoBattery
	}

	ram := cart.GetRAM()
	if len(ram) == 0 {
		return nil
	}
	if err := os.WriteFile(path, ram, 0o600); err != nil {
		return fmt.Errorf("writing battery save: %w", err)
	}
	logger.Logf("emulator", "stored %d bytes of battery RAM to %s", len(ram), path)
	return nil
}
