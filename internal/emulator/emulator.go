// Package emulator ties the CPU, bus and PPU together into a steppable
// machine and provides the frame driver used by the front ends.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/richardwooding/dotmatrix/internal/apu"
	"github.com/richardwooding/dotmatrix/internal/cartridge"
	"github.com/richardwooding/dotmatrix/internal/cpu"
	"github.com/richardwooding/dotmatrix/internal/input"
	"github.com/richardwooding/dotmatrix/internal/memory"
	"github.com/richardwooding/dotmatrix/internal/ppu"
)

// CyclesPerFrame is the length of one frame: 154 lines of 456 cycles.
const CyclesPerFrame = 154 * ppu.DotsPerScanline

var (
	// ErrTimeout indicates the operation timed out.
	ErrTimeout = errors.New("timeout waiting for serial output")
)

// Emulator is one running machine.
type Emulator struct {
	CPU    *cpu.CPU
	Memory *memory.Bus
	PPU    *ppu.PPU

	frames uint64
}

// New creates an emulator with the given ROM attached.
func New(romData []byte) (*Emulator, error) {
	mem := memory.NewBus()
	if err := mem.LoadROM(romData); err != nil {
		return nil, fmt.Errorf("failed to load ROM into memory: %w", err)
	}

	return &Emulator{
		CPU:    cpu.New(mem),
		Memory: mem,
		PPU:    ppu.New(),
	}, nil
}

// Cartridge returns the attached cartridge.
func (e *Emulator) Cartridge() cartridge.Cartridge {
	return e.Memory.Cartridge()
}

// Step executes one CPU instruction, advances the PPU, timer and APU by the
// same number of cycles and returns it.
func (e *Emulator) Step() int {
	cycles := e.CPU.Step()
	e.PPU.Step(cycles, e.Memory)
	e.Memory.Timer().Step(cycles, e.Memory)
	e.Memory.APU().Step(cycles)
	return cycles
}

// RunFrame runs until the PPU completes a frame. With the LCD off no frame
// is ever completed, so it also stops after CyclesPerFrame cycles.
func (e *Emulator) RunFrame() {
	elapsed := 0
	for elapsed < CyclesPerFrame {
		elapsed += e.Step()
		if e.PPU.FrameReady() {
			e.PPU.ClearFrameReady()
			break
		}
	}
	e.frames++
}

// RunFrames runs n frames, checking ctx between frames.
func (e *Emulator) RunFrames(ctx context.Context, n int) error {
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.RunFrame()
	}
	return nil
}

// Frames returns the number of frames run so far.
func (e *Emulator) Frames() uint64 {
	return e.frames
}

// RunCycles runs the emulator for at least the given number of cycles.
func (e *Emulator) RunCycles(cycles uint64) {
	target := e.CPU.Cycles + cycles
	for e.CPU.Cycles < target {
		e.Step()
	}
}

// RunUntilOutput runs until the serial output reports a result or nothing
// new arrives for timeout. Blargg's test ROMs print "Passed" or "Failed".
func (e *Emulator) RunUntilOutput(timeout time.Duration) (string, error) {
	startTime := time.Now()
	lastOutputLen := 0

	for {
		if time.Since(startTime) > timeout {
			if output := e.SerialOutput(); output != "" {
				return output, nil
			}
			return "", ErrTimeout
		}

		e.RunCycles(10000)

		output := e.SerialOutput()
		if len(output) > lastOutputLen {
			lastOutputLen = len(output)
			startTime = time.Now()
		}
		if strings.Contains(output, "Passed") || strings.Contains(output, "Failed") {
			return output, nil
		}
	}
}

// SerialOutput returns the bytes sent over the serial port so far.
func (e *Emulator) SerialOutput() string {
	return string(e.Memory.SerialOutput())
}

// Framebuffer returns the shade indices of the last completed frame.
func (e *Emulator) Framebuffer() *[ppu.ScreenWidth * ppu.ScreenHeight]uint8 {
	return e.PPU.Framebuffer()
}

// SetButtons replaces the pressed-button mask.
func (e *Emulator) SetButtons(mask input.Button) {
	e.Memory.SetButtons(mask)
}

// Samples returns the APU's output ring. It is safe to drain from another
// goroutine.
func (e *Emulator) Samples() *apu.Ring {
	return e.Memory.APU().Samples()
}

// Reset restarts the machine with the same cartridge. Cartridge RAM is
// kept.
func (e *Emulator) Reset() {
	e.Memory.Reset()
	e.CPU.Reset()
	e.PPU.Reset()
	e.frames = 0
}
